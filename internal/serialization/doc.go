// Package serialization saves and loads float64 tensors in the SafeTensors
// format, so gradients computed by mygrad can be inspected with standard
// tooling.
//
//	Format Structure:
//	  [8 bytes: Header Size (uint64 LE)]
//	  [Header: JSON, tensor name -> {dtype, shape, data_offsets}]
//	  [Tensor data: raw little-endian F64 values]
//
// Writers record a SHA-256 checksum of the data section in the header
// metadata; readers verify it when present.
//
// Example usage:
//
//	err := serialization.WriteSafeTensors("grads.safetensors", map[string]serialization.Tensor{
//	    "ldet.X": {Shape: []int{2, 2}, Data: []float64{0.5, 0, 0, 0.25}},
//	}, map[string]string{"ldet": "1.791759"})
//
//	tensors, meta, err := serialization.ReadSafeTensors("grads.safetensors")
package serialization

package serialization

import (
	"encoding/binary"
	"encoding/json"
	"fmt"
	"io"
	"math"
	"os"
	"sort"
)

const (
	dtypeF64    = "F64"
	metadataKey = "__metadata__"
)

// Tensor is a dense float64 tensor, row-major.
type Tensor struct {
	Shape []int
	Data  []float64
}

// NumElements returns the product of the shape.
func (t Tensor) NumElements() int {
	n := 1
	for _, d := range t.Shape {
		n *= d
	}
	return n
}

// SafeTensorHeader represents a tensor in the SafeTensors header.
type SafeTensorHeader struct {
	DType       string   `json:"dtype"`
	Shape       []int64  `json:"shape"`
	DataOffsets [2]int64 `json:"data_offsets"`
}

// SafeTensorsWriter writes tensors in SafeTensors format.
type SafeTensorsWriter struct {
	w      io.Writer
	closer io.Closer
	closed bool
}

// NewSafeTensorsWriter creates a new SafeTensors file writer.
func NewSafeTensorsWriter(path string) (*SafeTensorsWriter, error) {
	//nolint:gosec // G304: File path comes from user input, which is expected for output files
	file, err := os.Create(path)
	if err != nil {
		return nil, fmt.Errorf("failed to create file: %w", err)
	}
	return &SafeTensorsWriter{w: file, closer: file}, nil
}

// WriteSafeTensors writes tensors to a SafeTensors file.
//
// Tensors are written in alphabetical order by name.
func WriteSafeTensors(path string, tensors map[string]Tensor, metadata map[string]string) (err error) {
	writer, err := NewSafeTensorsWriter(path)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := writer.Close(); err == nil {
			err = cerr
		}
	}()

	return writer.WriteStateDict(tensors, metadata)
}

// WriteStateDict writes a map from tensor names to tensors.
func (w *SafeTensorsWriter) WriteStateDict(stateDict map[string]Tensor, metadata map[string]string) error {
	if w.closed {
		return fmt.Errorf("writer is closed")
	}

	tensorNames := make([]string, 0, len(stateDict))
	for name, t := range stateDict {
		if err := ValidateTensorName(name); err != nil {
			return err
		}
		if t.NumElements() != len(t.Data) {
			return fmt.Errorf("tensor %s: shape %v, %d values: %w", name, t.Shape, len(t.Data), ErrShapeMismatch)
		}
		tensorNames = append(tensorNames, name)
	}
	sort.Strings(tensorNames)

	var currentOffset int64
	header := make(map[string]any, len(tensorNames)+1)
	for _, name := range tensorNames {
		t := stateDict[name]
		size := int64(len(t.Data) * 8)

		shape := make([]int64, len(t.Shape))
		for i, dim := range t.Shape {
			shape[i] = int64(dim)
		}

		header[name] = SafeTensorHeader{
			DType:       dtypeF64,
			Shape:       shape,
			DataOffsets: [2]int64{currentOffset, currentOffset + size},
		}
		currentOffset += size
	}

	data := make([]byte, 0, currentOffset)
	for _, name := range tensorNames {
		for _, v := range stateDict[name].Data {
			data = binary.LittleEndian.AppendUint64(data, math.Float64bits(v))
		}
	}

	meta := make(map[string]string, len(metadata)+1)
	for k, v := range metadata {
		meta[k] = v
	}
	meta[checksumKey] = ComputeChecksum(data)
	header[metadataKey] = meta

	headerJSON, err := json.Marshal(header)
	if err != nil {
		return fmt.Errorf("failed to marshal header: %w", err)
	}

	if err := binary.Write(w.w, binary.LittleEndian, uint64(len(headerJSON))); err != nil {
		return fmt.Errorf("failed to write header size: %w", err)
	}
	if _, err := w.w.Write(headerJSON); err != nil {
		return fmt.Errorf("failed to write header: %w", err)
	}
	if _, err := w.w.Write(data); err != nil {
		return fmt.Errorf("failed to write tensor data: %w", err)
	}
	return nil
}

// Close closes the writer and the underlying file.
func (w *SafeTensorsWriter) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true
	if w.closer == nil {
		return nil
	}
	return w.closer.Close()
}

// ReadSafeTensors loads every tensor and the metadata from a SafeTensors file.
func ReadSafeTensors(path string) (map[string]Tensor, map[string]string, error) {
	//nolint:gosec // G304: File path comes from user input
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to open file: %w", err)
	}
	defer func() {
		_ = file.Close()
	}()
	return DecodeSafeTensors(file)
}

// DecodeSafeTensors reads a SafeTensors stream. Only F64 tensors are supported.
func DecodeSafeTensors(r io.Reader) (map[string]Tensor, map[string]string, error) {
	var headerSize uint64
	if err := binary.Read(r, binary.LittleEndian, &headerSize); err != nil {
		return nil, nil, fmt.Errorf("failed to read header size: %w", err)
	}
	if headerSize > MaxHeaderSize {
		return nil, nil, fmt.Errorf("%d bytes: %w", headerSize, ErrHeaderTooLarge)
	}

	headerJSON := make([]byte, headerSize)
	if _, err := io.ReadFull(r, headerJSON); err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(headerJSON, &raw); err != nil {
		return nil, nil, fmt.Errorf("failed to parse header: %w", err)
	}

	var metadata map[string]string
	if m, ok := raw[metadataKey]; ok {
		if err := json.Unmarshal(m, &metadata); err != nil {
			return nil, nil, fmt.Errorf("failed to parse metadata: %w", err)
		}
		delete(raw, metadataKey)
	}

	data, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read tensor data: %w", err)
	}
	if sum, ok := metadata[checksumKey]; ok {
		if err := ValidateChecksum(data, sum); err != nil {
			return nil, nil, err
		}
		delete(metadata, checksumKey)
	}

	headers := make(map[string]SafeTensorHeader, len(raw))
	spans := make([]tensorSpan, 0, len(raw))
	for name, msg := range raw {
		if err := ValidateTensorName(name); err != nil {
			return nil, nil, err
		}
		var h SafeTensorHeader
		if err := json.Unmarshal(msg, &h); err != nil {
			return nil, nil, fmt.Errorf("tensor %s: failed to parse header: %w", name, err)
		}
		if h.DType != dtypeF64 {
			return nil, nil, fmt.Errorf("tensor %s: %s: %w", name, h.DType, ErrUnsupportedDType)
		}
		headers[name] = h
		spans = append(spans, tensorSpan{Name: name, Offset: h.DataOffsets[0], Size: h.DataOffsets[1] - h.DataOffsets[0]})
	}
	if err := validateSpans(spans, int64(len(data))); err != nil {
		return nil, nil, err
	}

	tensors := make(map[string]Tensor, len(headers))
	for name, h := range headers {
		t := Tensor{Shape: make([]int, len(h.Shape))}
		for i, d := range h.Shape {
			t.Shape[i] = int(d)
		}
		size := h.DataOffsets[1] - h.DataOffsets[0]
		if size%8 != 0 || int(size/8) != t.NumElements() {
			return nil, nil, fmt.Errorf("tensor %s: shape %v, %d bytes: %w", name, t.Shape, size, ErrShapeMismatch)
		}
		t.Data = make([]float64, size/8)
		for i := range t.Data {
			off := h.DataOffsets[0] + int64(i)*8
			t.Data[i] = math.Float64frombits(binary.LittleEndian.Uint64(data[off : off+8]))
		}
		tensors[name] = t
	}
	return tensors, metadata, nil
}

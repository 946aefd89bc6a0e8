// Package kernel implements value-and-gradient numeric kernels.
//
// A kernel computes a scalar from plain float64 inputs and, only when asked,
// the partial derivatives of that scalar with respect to each input. Which
// partials are wanted is passed as a Flags bit set; bit i refers to the i-th
// operand of the kernel. Output buffers are allocated by the caller and are
// never resized. A buffer whose flag is clear is never written.
//
// Kernels provided:
//   - Elementwise: Σ g(a_i, b_i) over two equal-length sequences (SinSquare
//     is the reference g(α, β) = sin(α)·β²)
//   - Density: scalar log-densities log p(y; mu) with ∂/∂y and ∂/∂mu
//     (LogNormal, Normal)
//   - LogDet: log|X| of a symmetric positive-definite matrix with gradient X⁻¹,
//     reusing a Cholesky workspace across calls
//
// Kernels never log and never swallow errors. Failures are reported with the
// sentinel errors in errors.go and should be checked with errors.Is.
package kernel

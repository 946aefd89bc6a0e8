package kernel

import (
	"fmt"
	"math"
)

// PairFunc evaluates one term g(a, b) of an elementwise sum.
//
// da and db are only meaningful when want.Has(0) and want.Has(1) respectively.
// Implementations should compute shared sub-expressions once and reuse them
// for the value and whichever partials are requested.
type PairFunc func(a, b float64, want Flags) (v, da, db float64)

// Elementwise computes Σ g(a_i, b_i) over two equal-length sequences and,
// on request, the elementwise partials ∂g/∂a_i and ∂g/∂b_i.
//
// Operand 0 is a, operand 1 is b. Elementwise holds no mutable state and is
// safe for concurrent use as long as each call has private output buffers.
type Elementwise struct {
	Name string
	Fn   PairFunc
}

// SinSquare is the reference elementwise kernel g(α, β) = sin(α)·β².
//
//	∂g/∂α = cos(α)·β²
//	∂g/∂β = 2·sin(α)·β
var SinSquare = Elementwise{Name: "sin_square", Fn: sinSquare}

func sinSquare(a, b float64, want Flags) (v, da, db float64) {
	sa := math.Sin(a)
	b2 := b * b
	v = sa * b2
	if want.Has(0) {
		da = math.Cos(a) * b2
	}
	if want.Has(1) {
		db = sa * (2 * b)
	}
	return v, da, db
}

// Eval returns Σ g(a_i, b_i) and writes the requested partials into dA and dB.
//
// Contract:
//   - len(a) == len(b) == N
//   - if want.Has(0), len(dA) >= N; if want.Has(1), len(dB) >= N
//   - a buffer whose flag is clear is left untouched and may be nil
//
// Violations return ErrInvalidArgument before anything is written.
// Value and partials are produced in a single pass over the inputs.
func (k Elementwise) Eval(dA, dB, a, b []float64, want Flags) (float64, error) {
	n := len(a)
	if len(b) != n {
		return 0, fmt.Errorf("%s: len(a)=%d, len(b)=%d: %w", k.Name, n, len(b), ErrInvalidArgument)
	}
	wantA, wantB := want.Has(0), want.Has(1)
	if wantA && len(dA) < n {
		return 0, fmt.Errorf("%s: gradient buffer for a has length %d, need %d: %w", k.Name, len(dA), n, ErrInvalidArgument)
	}
	if wantB && len(dB) < n {
		return 0, fmt.Errorf("%s: gradient buffer for b has length %d, need %d: %w", k.Name, len(dB), n, ErrInvalidArgument)
	}

	var sum float64
	for i := 0; i < n; i++ {
		v, da, db := k.Fn(a[i], b[i], want)
		sum += v
		if wantA {
			dA[i] = da
		}
		if wantB {
			dB[i] = db
		}
	}
	return sum, nil
}

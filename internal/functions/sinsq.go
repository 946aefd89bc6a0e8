package functions

import (
	"fmt"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// SinSquareSum returns Σ sin(alpha_i)·beta_i² as a graph node.
// alpha and beta must be sequences of equal length.
func SinSquareSum[N any](b partials.Builder[N], alpha, beta partials.Operand) (N, error) {
	return Elementwise(b, kernel.SinSquare, alpha, beta)
}

// Elementwise returns Σ g(a_i, b_i) for the kernel k as a graph node.
func Elementwise[N any](b partials.Builder[N], k kernel.Elementwise, a, c partials.Operand) (N, error) {
	var zero N
	for i, o := range []partials.Operand{a, c} {
		if s := o.Shape(); !s.IsVector() {
			return zero, fmt.Errorf("%s: operand %d has shape %v, want a sequence: %w", k.Name, i, s, kernel.ErrInvalidArgument)
		}
	}

	op := partials.New(b, a, c)
	want := kernel.FlagsOf(op.Wants()...)
	v, err := k.Eval(op.Partials(0), op.Partials(1), op.Value(0), op.Value(1), want)
	if err != nil {
		return zero, err
	}
	return op.Build(v)
}

package functions

import (
	"fmt"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// LogDensity returns log p(y; mu) for the density d as a graph node.
//
// The call shape (which of y and mu are differentiable) decides which
// derivative functions of d are evaluated; see kernel.EvalDensity.
func LogDensity[N any](b partials.Builder[N], d kernel.Density, y, mu partials.Operand) (N, error) {
	var zero N
	for i, o := range []partials.Operand{y, mu} {
		if s := o.Shape(); !s.IsScalar() {
			return zero, fmt.Errorf("%s: operand %d has shape %v, want scalar: %w", d.Name(), i, s, kernel.ErrInvalidArgument)
		}
	}

	op := partials.New(b, y, mu)
	res, err := kernel.EvalDensity(d, op.Value(0)[0], op.Value(1)[0], kernel.FlagsOf(op.Wants()...))
	if err != nil {
		return zero, err
	}
	if p := op.Partials(0); p != nil {
		p[0] = res.Dy
	}
	if p := op.Partials(1); p != nil {
		p[0] = res.Dmu
	}
	return op.Build(res.LogProb)
}

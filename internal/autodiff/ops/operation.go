// Package ops defines elementary differentiable scalar operations.
//
// Each operation is a tiny value-and-gradient kernel plugged into the host
// through the partials adapter, exactly like the larger kernels:
//
//   - Add: d(a+b)/da = 1, d(a+b)/db = 1
//   - Sub: d(a-b)/da = 1, d(a-b)/db = -1
//   - Mul: d(a*b)/da = b, d(a*b)/db = a
//   - Div: d(a/b)/da = 1/b, d(a/b)/db = -a/b²
//   - Log: d(log x)/dx = 1/x
//   - Exp: d(exp x)/dx = exp x
//   - Sin: d(sin x)/dx = cos x
//   - Cos: d(cos x)/dx = -sin x
//   - Sqrt: d(√x)/dx = 1/(2√x)
//   - Tanh: d(tanh x)/dx = 1 - tanh² x
//   - Sigmoid: dσ/dx = σ(1-σ)
//
// They are generic over the host node type, so any partials.Builder works.
// Operands must be scalars; anything else is kernel.ErrInvalidArgument.
package ops

import (
	"fmt"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// unaryFunc returns f(x) and, when want.Has(0), f'(x).
type unaryFunc func(x float64, want kernel.Flags) (v, dx float64, err error)

// binaryFunc returns f(a, b) and the requested partials.
type binaryFunc func(a, b float64, want kernel.Flags) (v, da, db float64, err error)

func checkScalar(name string, i int, o partials.Operand) error {
	if s := o.Shape(); !s.IsScalar() {
		return fmt.Errorf("%s: operand %d has shape %v, want scalar: %w", name, i, s, kernel.ErrInvalidArgument)
	}
	return nil
}

func unary[N any](b partials.Builder[N], name string, x partials.Operand, f unaryFunc) (N, error) {
	var zero N
	if err := checkScalar(name, 0, x); err != nil {
		return zero, err
	}
	op := partials.New(b, x)
	v, dx, err := f(op.Value(0)[0], kernel.FlagsOf(op.Wants()...))
	if err != nil {
		return zero, err
	}
	if p := op.Partials(0); p != nil {
		p[0] = dx
	}
	return op.Build(v)
}

func binary[N any](b partials.Builder[N], name string, x, y partials.Operand, f binaryFunc) (N, error) {
	var zero N
	if err := checkScalar(name, 0, x); err != nil {
		return zero, err
	}
	if err := checkScalar(name, 1, y); err != nil {
		return zero, err
	}
	op := partials.New(b, x, y)
	v, da, db, err := f(op.Value(0)[0], op.Value(1)[0], kernel.FlagsOf(op.Wants()...))
	if err != nil {
		return zero, err
	}
	if p := op.Partials(0); p != nil {
		p[0] = da
	}
	if p := op.Partials(1); p != nil {
		p[0] = db
	}
	return op.Build(v)
}

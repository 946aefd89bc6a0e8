package ops

import (
	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Mul returns a * b.
//
//   - d(a*b)/da = b
//   - d(a*b)/db = a
func Mul[N any](bld partials.Builder[N], a, b partials.Operand) (N, error) {
	return binary(bld, "mul", a, b, func(x, y float64, _ kernel.Flags) (float64, float64, float64, error) {
		return x * y, y, x, nil
	})
}

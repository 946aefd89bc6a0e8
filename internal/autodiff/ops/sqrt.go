package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Sqrt returns √x.
//
// Gradient formula:
//
//	∂√x/∂x = 1/(2√x)
//
// The derivative is unbounded at 0, so x must be positive when it is
// differentiable and non-negative otherwise.
func Sqrt[N any](bld partials.Builder[N], x partials.Operand) (N, error) {
	return unary(bld, "sqrt", x, func(v float64, want kernel.Flags) (float64, float64, error) {
		if !(v >= 0) || (want.Has(0) && v == 0) {
			return 0, 0, fmt.Errorf("sqrt: x = %g outside domain: %w", v, kernel.ErrDomain)
		}
		s := math.Sqrt(v)
		var dv float64
		if want.Has(0) {
			dv = 0.5 / s
		}
		return s, dv, nil
	})
}

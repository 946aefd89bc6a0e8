package ops

import (
	"math"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Cos returns cos(x).
//
// Gradient formula:
//
//	∂cos(x)/∂x = -sin(x)
func Cos[N any](bld partials.Builder[N], x partials.Operand) (N, error) {
	return unary(bld, "cos", x, func(v float64, want kernel.Flags) (float64, float64, error) {
		var dv float64
		if want.Has(0) {
			dv = -math.Sin(v)
		}
		return math.Cos(v), dv, nil
	})
}

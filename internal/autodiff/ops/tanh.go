package ops

import (
	"math"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Tanh returns tanh(x).
//
// Gradient formula:
//
//	∂tanh(x)/∂x = 1 - tanh²(x)
func Tanh[N any](bld partials.Builder[N], x partials.Operand) (N, error) {
	return unary(bld, "tanh", x, func(v float64, want kernel.Flags) (float64, float64, error) {
		t := math.Tanh(v)
		var dv float64
		if want.Has(0) {
			dv = 1 - t*t
		}
		return t, dv, nil
	})
}

package ops

import (
	"math"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Sigmoid returns σ(x) = 1/(1+e^(-x)).
//
// Gradient formula:
//
//	∂σ(x)/∂x = σ(x)·(1 - σ(x))
func Sigmoid[N any](bld partials.Builder[N], x partials.Operand) (N, error) {
	return unary(bld, "sigmoid", x, func(v float64, want kernel.Flags) (float64, float64, error) {
		var s float64
		if v >= 0 {
			s = 1 / (1 + math.Exp(-v))
		} else {
			e := math.Exp(v)
			s = e / (1 + e)
		}
		var dv float64
		if want.Has(0) {
			dv = s * (1 - s)
		}
		return s, dv, nil
	})
}

package ops

import (
	"math"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Sin returns sin(x).
//
// Since d(sin(x))/dx = cos(x), the cosine is only computed when the operand
// is differentiable.
func Sin[N any](bld partials.Builder[N], x partials.Operand) (N, error) {
	return unary(bld, "sin", x, func(v float64, want kernel.Flags) (float64, float64, error) {
		var dv float64
		if want.Has(0) {
			dv = math.Cos(v)
		}
		return math.Sin(v), dv, nil
	})
}

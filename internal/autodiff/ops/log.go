package ops

import (
	"fmt"
	"math"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Log returns the natural logarithm of x.
//
// Gradient formula:
//
//	∂log(x)/∂x = 1/x
//
// x must be positive; otherwise the result is a kernel.ErrDomain error
// instead of NaN or -Inf.
func Log[N any](bld partials.Builder[N], x partials.Operand) (N, error) {
	return unary(bld, "log", x, func(v float64, want kernel.Flags) (float64, float64, error) {
		if !(v > 0) {
			return 0, 0, fmt.Errorf("log: x = %g, must be > 0: %w", v, kernel.ErrDomain)
		}
		var dv float64
		if want.Has(0) {
			dv = 1 / v
		}
		return math.Log(v), dv, nil
	})
}

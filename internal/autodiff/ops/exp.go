package ops

import (
	"math"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Exp returns e**x. The derivative reuses the value: ∂exp(x)/∂x = exp(x).
func Exp[N any](bld partials.Builder[N], x partials.Operand) (N, error) {
	return unary(bld, "exp", x, func(v float64, _ kernel.Flags) (float64, float64, error) {
		e := math.Exp(v)
		return e, e, nil
	})
}

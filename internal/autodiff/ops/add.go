package ops

import (
	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Add returns a + b.
func Add[N any](bld partials.Builder[N], a, b partials.Operand) (N, error) {
	return binary(bld, "add", a, b, func(x, y float64, _ kernel.Flags) (float64, float64, float64, error) {
		return x + y, 1, 1, nil
	})
}

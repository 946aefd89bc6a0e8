package ops

import (
	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Sub returns a - b.
func Sub[N any](bld partials.Builder[N], a, b partials.Operand) (N, error) {
	return binary(bld, "sub", a, b, func(x, y float64, _ kernel.Flags) (float64, float64, float64, error) {
		return x - y, 1, -1, nil
	})
}

package ops

import (
	"fmt"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
)

// Div returns a / b. A zero divisor is a domain error.
//
//   - d(a/b)/da = 1/b
//   - d(a/b)/db = -a/b²
func Div[N any](bld partials.Builder[N], a, b partials.Operand) (N, error) {
	return binary(bld, "div", a, b, func(x, y float64, want kernel.Flags) (float64, float64, float64, error) {
		if y == 0 {
			return 0, 0, 0, fmt.Errorf("div: divisor is zero: %w", kernel.ErrDomain)
		}
		q := x / y
		var dx, dy float64
		if want.Has(0) {
			dx = 1 / y
		}
		if want.Has(1) {
			dy = -q / y
		}
		return q, dx, dy, nil
	})
}

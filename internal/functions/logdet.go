package functions

import (
	"fmt"

	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
	"gonum.org/v1/gonum/mat"
)

// LogDet returns log|X| as a graph node, allocating a fresh kernel for the
// call. Use LogDetFunc to reuse the factorization workspace across calls.
func LogDet[N any](b partials.Builder[N], x partials.Operand) (N, error) {
	var zero N
	s := x.Shape()
	if !s.IsSquare() {
		return zero, fmt.Errorf("logdet: operand has shape %v, want square: %w", s, kernel.ErrInvalidArgument)
	}
	ld, err := kernel.NewLogDet(s.Rows)
	if err != nil {
		return zero, err
	}
	return evalLogDet(b, ld, x)
}

// LogDetFunc evaluates log|X| for N×N operands with one reusable kernel.
//
// Like kernel.LogDet it is not safe for concurrent use.
type LogDetFunc[N any] struct {
	builder partials.Builder[N]
	kernel  *kernel.LogDet
}

// NewLogDetFunc allocates the workspace for n×n matrices.
func NewLogDetFunc[N any](b partials.Builder[N], n int) (*LogDetFunc[N], error) {
	ld, err := kernel.NewLogDet(n)
	if err != nil {
		return nil, err
	}
	return &LogDetFunc[N]{builder: b, kernel: ld}, nil
}

// Size returns n.
func (f *LogDetFunc[N]) Size() int {
	return f.kernel.Size()
}

// Apply returns log|X| as a graph node. Each call uses a new adapter.
func (f *LogDetFunc[N]) Apply(x partials.Operand) (N, error) {
	return evalLogDet(f.builder, f.kernel, x)
}

func evalLogDet[N any](b partials.Builder[N], ld *kernel.LogDet, x partials.Operand) (N, error) {
	var zero N
	s := x.Shape()
	if s.Rows != ld.Size() || s.Cols != ld.Size() {
		return zero, fmt.Errorf("logdet: operand has shape %v, evaluator is %d×%d: %w", s, ld.Size(), ld.Size(), kernel.ErrDimensionMismatch)
	}

	op := partials.New(b, x)
	xv := mat.NewDense(s.Rows, s.Cols, op.Value(0))

	var dst *mat.Dense
	if p := op.Partials(0); p != nil {
		// The gradient is written straight into the edge buffer.
		dst = mat.NewDense(s.Rows, s.Cols, p)
	}
	v, err := ld.Eval(dst, xv, kernel.FlagsOf(op.Wants()...))
	if err != nil {
		return zero, err
	}
	return op.Build(v)
}

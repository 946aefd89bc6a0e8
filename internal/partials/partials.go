// Package partials implements the operands-and-partials adapter that plugs a
// value-and-gradient kernel into a reverse-mode AD host.
//
// The adapter sits between a host graph and a numeric kernel:
//
//	op := partials.New(host, alpha, beta)          // 1. classify operands
//	a, b := op.Value(0), op.Value(1)               // 2. strip to float64
//	v, err := k.Eval(op.Partials(0), op.Partials(1),
//	        a, b, kernel.FlagsOf(op.Wants()...))   // 3-4. kernel writes edges
//	node, err := op.Build(v)                       // 5. terminal graph node
//
// Only differentiable operands get an Edge. A constant operand has no edge at
// all, and Partials returns nil for it.
//
// The adapter never sees the host's node representation. The host implements
// Builder and its operand types implement Operand.
package partials

import (
	"errors"
	"fmt"
)

// ErrBuilt is returned by Build when the adapter was already finalized.
var ErrBuilt = errors.New("partials: adapter already built")

// Shape is the dense row-major shape of an operand.
// Scalars are 1×1 and sequences are N×1.
type Shape struct {
	Rows, Cols int
}

// Scalar is the shape of a single value.
var Scalar = Shape{Rows: 1, Cols: 1}

// Vec returns the shape of an n-element sequence.
func Vec(n int) Shape {
	return Shape{Rows: n, Cols: 1}
}

// Size returns the number of scalar elements.
func (s Shape) Size() int {
	return s.Rows * s.Cols
}

// IsScalar reports whether s is 1×1.
func (s Shape) IsScalar() bool {
	return s == Scalar
}

// IsVector reports whether s is a column sequence (including empty).
func (s Shape) IsVector() bool {
	return s.Cols == 1 || s.Size() == 0
}

// IsSquare reports whether s is N×N with N > 0.
func (s Shape) IsSquare() bool {
	return s.Rows == s.Cols && s.Rows > 0
}

func (s Shape) String() string {
	return fmt.Sprintf("%d×%d", s.Rows, s.Cols)
}

// Operand is one input to a kernel call.
//
// Differentiable must be a property of the concrete type, not of the value:
// a given Go type is always constant or always differentiable.
type Operand interface {
	// Differentiable reports whether gradients flow back into this operand.
	Differentiable() bool

	// Shape returns the operand's dense shape.
	Shape() Shape

	// Values returns the plain values, row-major, len == Shape().Size().
	Values() []float64
}

// Edge is the partial-derivative slot of one differentiable operand.
// Partials is row-major with the operand's shape.
type Edge struct {
	Operand  Operand
	Partials []float64
}

// Builder is the host side of the adapter: it turns a value and the filled
// edges into a graph node the host's reverse sweep understands.
type Builder[N any] interface {
	BuildNode(value float64, edges []*Edge) (N, error)
}

// OperandsAndPartials bundles the operands of one kernel call, owns the
// gradient buffers of the differentiable ones, and builds the result node.
//
// An instance is single use: New, then kernel evaluation, then Build.
// It is not safe for concurrent use.
type OperandsAndPartials[N any] struct {
	builder  Builder[N]
	operands []Operand
	edges    []*Edge // nil entry for constant operands
	built    bool
}

// New classifies operands and allocates one zeroed edge buffer per
// differentiable operand, sized to its shape.
func New[N any](b Builder[N], operands ...Operand) *OperandsAndPartials[N] {
	op := &OperandsAndPartials[N]{
		builder:  b,
		operands: operands,
		edges:    make([]*Edge, len(operands)),
	}
	for i, o := range operands {
		if !o.Differentiable() {
			continue
		}
		op.edges[i] = &Edge{
			Operand:  o,
			Partials: make([]float64, o.Shape().Size()),
		}
	}
	return op
}

// Len returns the number of operands.
func (op *OperandsAndPartials[N]) Len() int {
	return len(op.operands)
}

// Operand returns operand i.
func (op *OperandsAndPartials[N]) Operand(i int) Operand {
	return op.operands[i]
}

// Differentiable reports whether operand i has an edge.
func (op *OperandsAndPartials[N]) Differentiable(i int) bool {
	return op.edges[i] != nil
}

// Wants returns one "compute this gradient" flag per operand, in order.
func (op *OperandsAndPartials[N]) Wants() []bool {
	w := make([]bool, len(op.edges))
	for i, e := range op.edges {
		w[i] = e != nil
	}
	return w
}

// Value strips operand i to its plain values.
func (op *OperandsAndPartials[N]) Value(i int) []float64 {
	return op.operands[i].Values()
}

// Edge returns the edge of operand i, or nil if it is constant.
func (op *OperandsAndPartials[N]) Edge(i int) *Edge {
	return op.edges[i]
}

// Partials returns the edge buffer of operand i for the kernel to fill,
// or nil if operand i is constant.
func (op *OperandsAndPartials[N]) Partials(i int) []float64 {
	if e := op.edges[i]; e != nil {
		return e.Partials
	}
	return nil
}

// SetPartials copies src into the edge buffer of operand i. It is only needed
// when a kernel could not write into Partials(i) directly.
func (op *OperandsAndPartials[N]) SetPartials(i int, src []float64) error {
	e := op.edges[i]
	if e == nil {
		return fmt.Errorf("partials: operand %d is constant", i)
	}
	if len(src) != len(e.Partials) {
		return fmt.Errorf("partials: operand %d: got %d partials, want %d", i, len(src), len(e.Partials))
	}
	copy(e.Partials, src)
	return nil
}

// Build hands value and the edges of all differentiable operands to the host
// and finalizes the adapter.
func (op *OperandsAndPartials[N]) Build(value float64) (N, error) {
	if op.built {
		var zero N
		return zero, ErrBuilt
	}
	op.built = true

	edges := make([]*Edge, 0, len(op.edges))
	for _, e := range op.edges {
		if e != nil {
			edges = append(edges, e)
		}
	}
	return op.builder.BuildNode(value, edges)
}

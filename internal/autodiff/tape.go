package autodiff

import (
	"errors"
	"fmt"

	"github.com/born-ml/mygrad/internal/partials"
)

// ErrForeignOperand is returned when a node is built from, or a sweep is
// started at, a value that does not belong to the current tape.
var ErrForeignOperand = errors.New("autodiff: operand does not belong to this tape")

// Tape records nodes built while it is recording and propagates adjoints
// back through them using reverse-mode automatic differentiation.
//
// Usage:
//
//	tape := NewTape()
//	tape.StartRecording()
//	x := tape.Var(2)
//	y, _ := functions.LogDensity(tape, kernel.Normal{Sigma: 1}, x, Scalar(0))
//	grads, _ := tape.Backward(y)
//	grads.Of(x) // ∂y/∂x
//
// A Tape is not safe for concurrent use.
type Tape struct {
	nodes     []*Var // Recorded interior nodes, in creation order
	recording bool   // Whether BuildNode records links
	gen       uint64 // Bumped by Clear; stale vars are rejected
}

// NewTape creates a new tape. It starts with recording disabled.
func NewTape() *Tape {
	return &Tape{
		nodes: make([]*Var, 0, 64), // Pre-allocate for common case
	}
}

// StartRecording enables node recording.
func (t *Tape) StartRecording() {
	t.recording = true
}

// StopRecording disables node recording.
func (t *Tape) StopRecording() {
	t.recording = false
}

// IsRecording returns true if the tape is currently recording nodes.
func (t *Tape) IsRecording() bool {
	return t.recording
}

// Clear removes all recorded nodes and invalidates every Var created so far.
// Recording state is preserved.
func (t *Tape) Clear() {
	for i := range t.nodes {
		t.nodes[i] = nil
	}
	t.nodes = t.nodes[:0]
	t.gen++
}

// NumNodes returns the number of recorded nodes.
func (t *Tape) NumNodes() int {
	return len(t.nodes)
}

// Var creates an independent variable (a leaf) with value v.
func (t *Tape) Var(v float64) *Var {
	return &Var{tape: t, gen: t.gen, value: v}
}

// BuildNode implements partials.Builder.
//
// Every edge operand must be a differentiable operand of this tape. While the
// tape is recording, the returned Var is linked to the edge operands with the
// edge partials; otherwise it carries the value only and gradients stop there.
// Ownership of the edge partial buffers passes to the tape.
func (t *Tape) BuildNode(value float64, edges []*partials.Edge) (*Var, error) {
	links := make([]link, 0, len(edges))
	for i, e := range edges {
		tr, ok := e.Operand.(tracked)
		if !ok {
			return nil, fmt.Errorf("edge %d: %T: %w", i, e.Operand, ErrForeignOperand)
		}
		parents := tr.vars()
		if len(parents) != len(e.Partials) {
			return nil, fmt.Errorf("edge %d: %d partials for %d inputs", i, len(e.Partials), len(parents))
		}
		for _, p := range parents {
			if !t.owns(p) {
				return nil, fmt.Errorf("edge %d: %w", i, ErrForeignOperand)
			}
		}
		links = append(links, link{parents: parents, partials: e.Partials})
	}

	v := &Var{tape: t, gen: t.gen, value: value}
	if t.recording && len(links) > 0 {
		v.links = links
		t.nodes = append(t.nodes, v)
	}
	return v, nil
}

func (t *Tape) owns(v *Var) bool {
	return v != nil && v.tape == t && v.gen == t.gen
}

package autodiff

import (
	"fmt"

	"gonum.org/v1/gonum/mat"
)

// Gradients maps each Var reached by a reverse sweep to ∂out/∂var.
// Vars the sweep did not reach have gradient zero.
type Gradients map[*Var]float64

// Of returns the gradient of v (zero if v was not reached).
func (g Gradients) Of(v *Var) float64 {
	return g[v]
}

// Vector returns the gradients of the elements of vs.
func (g Gradients) Vector(vs VarVector) []float64 {
	out := make([]float64, len(vs))
	for i, v := range vs {
		out[i] = g[v]
	}
	return out
}

// Matrix returns the gradients of the elements of m with m's shape.
func (g Gradients) Matrix(m *VarMatrix) *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	out := mat.NewDense(m.rows, m.cols, nil)
	for i := 0; i < m.rows; i++ {
		for j := 0; j < m.cols; j++ {
			out.Set(i, j, g[m.At(i, j)])
		}
	}
	return out
}

// Backward computes ∂out/∂v for every Var v that out depends on.
//
// Algorithm:
//  1. Seed adj(out) = 1
//  2. Walk recorded nodes in reverse creation order (a valid reverse
//     topological order, since inputs always exist before the node)
//  3. For every link of a node with an adjoint, accumulate
//     adj(parent) += adj(node) · partial
func (t *Tape) Backward(out *Var) (Gradients, error) {
	if !t.owns(out) {
		return nil, fmt.Errorf("backward: %w", ErrForeignOperand)
	}

	grads := Gradients{out: 1}
	for i := len(t.nodes) - 1; i >= 0; i-- {
		node := t.nodes[i]
		adj, ok := grads[node]
		if !ok {
			continue
		}
		for _, l := range node.links {
			for j, p := range l.parents {
				grads[p] += adj * l.partials[j]
			}
		}
	}
	return grads, nil
}

// Backward runs a reverse sweep on the tape that produced out.
func Backward(out *Var) (Gradients, error) {
	if out == nil || out.tape == nil {
		return nil, fmt.Errorf("backward: %w", ErrForeignOperand)
	}
	return out.tape.Backward(out)
}

// Package autodiff is a minimal reverse-mode AD host for value-and-gradient
// kernels.
//
// Kernels are plugged in through the partials adapter: Tape implements
// partials.Builder[*Var], and the operand kinds below implement
// partials.Operand. Whether an operand is differentiable is decided by its
// Go type:
//
//	constant:        Scalar, Vector, Matrix
//	differentiable:  *Var, VarVector, *VarMatrix
//
// Interior nodes are recorded on a Tape while it is recording; Backward then
// walks them in reverse and accumulates adjoints into Gradients.
package autodiff

import (
	"fmt"
	"strconv"

	"github.com/born-ml/mygrad/internal/partials"
	"gonum.org/v1/gonum/mat"
)

// tracked is implemented by differentiable operands of this host.
type tracked interface {
	vars() []*Var
}

// link connects a node to the inputs of one edge.
type link struct {
	parents  []*Var
	partials []float64
}

// Var is a differentiable scalar: either a leaf created by Tape.Var or the
// result of a kernel call built by Tape.BuildNode.
type Var struct {
	tape  *Tape
	gen   uint64
	value float64
	links []link
}

// Value returns the scalar value.
func (v *Var) Value() float64 { return v.value }

// Differentiable implements partials.Operand.
func (v *Var) Differentiable() bool { return true }

// Shape implements partials.Operand.
func (v *Var) Shape() partials.Shape { return partials.Scalar }

// Values implements partials.Operand.
func (v *Var) Values() []float64 { return []float64{v.value} }

func (v *Var) vars() []*Var { return []*Var{v} }

func (v *Var) String() string {
	return "var(" + strconv.FormatFloat(v.value, 'g', -1, 64) + ")"
}

// Scalar is a constant scalar operand.
type Scalar float64

// Differentiable implements partials.Operand.
func (Scalar) Differentiable() bool { return false }

// Shape implements partials.Operand.
func (Scalar) Shape() partials.Shape { return partials.Scalar }

// Values implements partials.Operand.
func (s Scalar) Values() []float64 { return []float64{float64(s)} }

// Vector is a constant sequence operand.
type Vector []float64

// Differentiable implements partials.Operand.
func (Vector) Differentiable() bool { return false }

// Shape implements partials.Operand.
func (v Vector) Shape() partials.Shape { return partials.Vec(len(v)) }

// Values implements partials.Operand.
func (v Vector) Values() []float64 { return v }

// VarVector is a differentiable sequence operand.
type VarVector []*Var

// Vector creates one leaf per value.
func (t *Tape) Vector(vals ...float64) VarVector {
	out := make(VarVector, len(vals))
	for i, x := range vals {
		out[i] = t.Var(x)
	}
	return out
}

// Differentiable implements partials.Operand.
func (VarVector) Differentiable() bool { return true }

// Shape implements partials.Operand.
func (v VarVector) Shape() partials.Shape { return partials.Vec(len(v)) }

// Values implements partials.Operand.
func (v VarVector) Values() []float64 {
	out := make([]float64, len(v))
	for i, x := range v {
		out[i] = x.value
	}
	return out
}

func (v VarVector) vars() []*Var { return v }

// Matrix is a constant matrix operand.
type Matrix struct {
	mat.Matrix
}

// Differentiable implements partials.Operand.
func (Matrix) Differentiable() bool { return false }

// Shape implements partials.Operand.
func (m Matrix) Shape() partials.Shape {
	r, c := m.Dims()
	return partials.Shape{Rows: r, Cols: c}
}

// Values implements partials.Operand.
func (m Matrix) Values() []float64 {
	return rowMajor(m.Matrix)
}

// VarMatrix is a differentiable dense matrix operand; every element is a Var.
type VarMatrix struct {
	rows, cols int
	elems      []*Var
}

// Matrix creates one leaf per element of m.
func (t *Tape) Matrix(m mat.Matrix) *VarMatrix {
	r, c := m.Dims()
	vm := &VarMatrix{rows: r, cols: c, elems: make([]*Var, 0, r*c)}
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			vm.elems = append(vm.elems, t.Var(m.At(i, j)))
		}
	}
	return vm
}

// NewVarMatrix assembles a matrix from existing vars in row-major order.
func NewVarMatrix(rows, cols int, vars []*Var) (*VarMatrix, error) {
	if rows < 0 || cols < 0 || len(vars) != rows*cols {
		return nil, fmt.Errorf("autodiff: %d vars for %d×%d matrix", len(vars), rows, cols)
	}
	return &VarMatrix{rows: rows, cols: cols, elems: vars}, nil
}

// Dims returns the matrix dimensions.
func (m *VarMatrix) Dims() (r, c int) { return m.rows, m.cols }

// At returns the element at (i, j).
func (m *VarMatrix) At(i, j int) *Var { return m.elems[i*m.cols+j] }

// Differentiable implements partials.Operand.
func (*VarMatrix) Differentiable() bool { return true }

// Shape implements partials.Operand.
func (m *VarMatrix) Shape() partials.Shape { return partials.Shape{Rows: m.rows, Cols: m.cols} }

// Values implements partials.Operand.
func (m *VarMatrix) Values() []float64 {
	out := make([]float64, len(m.elems))
	for i, x := range m.elems {
		out[i] = x.value
	}
	return out
}

// Dense returns the current values as a gonum matrix.
func (m *VarMatrix) Dense() *mat.Dense {
	if m.rows == 0 || m.cols == 0 {
		return &mat.Dense{}
	}
	return mat.NewDense(m.rows, m.cols, m.Values())
}

func (m *VarMatrix) vars() []*Var { return m.elems }

func rowMajor(m mat.Matrix) []float64 {
	r, c := m.Dims()
	out := make([]float64, 0, r*c)
	for i := 0; i < r; i++ {
		for j := 0; j < c; j++ {
			out = append(out, m.At(i, j))
		}
	}
	return out
}

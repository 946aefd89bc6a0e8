// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package autodiff provides a reference reverse-mode automatic
// differentiation host for mygrad kernels.
//
// A Tape records one node per kernel call together with the partial
// derivatives the kernel reports. Backward sweeps the tape in reverse and
// accumulates adjoints.
//
// Example:
//
//	import (
//	    "github.com/born-ml/mygrad/autodiff"
//	    "github.com/born-ml/mygrad/functions"
//	)
//
//	func main() {
//	    tape := autodiff.NewTape()
//	    tape.StartRecording()
//
//	    alpha := tape.Vector(0, math.Pi/2)
//	    beta := tape.Vector(2, 3)
//	    out, _ := functions.SinSquareSum(tape, alpha, beta)
//
//	    grads, _ := tape.Backward(out)
//	    fmt.Println(out.Value(), grads.Vector(beta)) // 9 [0 6]
//	}
package autodiff

import (
	"github.com/born-ml/mygrad/internal/autodiff"
	"github.com/born-ml/mygrad/internal/autodiff/ops"
	"github.com/born-ml/mygrad/internal/partials"
)

// Tape records differentiable operations.
type Tape = autodiff.Tape

// Var is a differentiable scalar owned by a Tape.
type Var = autodiff.Var

// Scalar is a constant scalar operand.
type Scalar = autodiff.Scalar

// Vector is a constant sequence operand.
type Vector = autodiff.Vector

// VarVector is a differentiable sequence operand.
type VarVector = autodiff.VarVector

// Matrix is a constant matrix operand.
type Matrix = autodiff.Matrix

// VarMatrix is a differentiable matrix operand.
type VarMatrix = autodiff.VarMatrix

// Gradients maps variables to their adjoints after a reverse sweep.
type Gradients = autodiff.Gradients

// Operand is anything a kernel accepts as an input.
type Operand = partials.Operand

// ErrForeignOperand is returned when an operand does not belong to the tape.
var ErrForeignOperand = autodiff.ErrForeignOperand

// NewTape creates a tape. Recording is off until StartRecording.
func NewTape() *Tape {
	return autodiff.NewTape()
}

// NewVarMatrix wraps rows×cols existing variables, row-major.
func NewVarMatrix(rows, cols int, vars []*Var) (*VarMatrix, error) {
	return autodiff.NewVarMatrix(rows, cols, vars)
}

// Backward runs a reverse sweep on the tape that produced out.
func Backward(out *Var) (Gradients, error) {
	return autodiff.Backward(out)
}

// Add returns a + b.
func Add(t *Tape, a, b Operand) (*Var, error) { return ops.Add[*Var](t, a, b) }

// Sub returns a - b.
func Sub(t *Tape, a, b Operand) (*Var, error) { return ops.Sub[*Var](t, a, b) }

// Mul returns a * b.
func Mul(t *Tape, a, b Operand) (*Var, error) { return ops.Mul[*Var](t, a, b) }

// Div returns a / b.
func Div(t *Tape, a, b Operand) (*Var, error) { return ops.Div[*Var](t, a, b) }

// Log returns log x.
func Log(t *Tape, x Operand) (*Var, error) { return ops.Log[*Var](t, x) }

// Exp returns exp x.
func Exp(t *Tape, x Operand) (*Var, error) { return ops.Exp[*Var](t, x) }

// Sin returns sin x.
func Sin(t *Tape, x Operand) (*Var, error) { return ops.Sin[*Var](t, x) }

// Cos returns cos x.
func Cos(t *Tape, x Operand) (*Var, error) { return ops.Cos[*Var](t, x) }

// Sqrt returns √x.
func Sqrt(t *Tape, x Operand) (*Var, error) { return ops.Sqrt[*Var](t, x) }

// Tanh returns tanh x.
func Tanh(t *Tape, x Operand) (*Var, error) { return ops.Tanh[*Var](t, x) }

// Sigmoid returns 1/(1+e^(-x)).
func Sigmoid(t *Tape, x Operand) (*Var, error) { return ops.Sigmoid[*Var](t, x) }

package ops_test

import (
	"math"
	"testing"

	"github.com/born-ml/mygrad/internal/autodiff"
	"github.com/born-ml/mygrad/internal/autodiff/ops"
	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
)

type V = *autodiff.Var

var central = &fd.Settings{Formula: fd.Central}

func sigmoid(x float64) float64 { return 1 / (1 + math.Exp(-x)) }

func recordingTape() *autodiff.Tape {
	tape := autodiff.NewTape()
	tape.StartRecording()
	return tape
}

func TestBinaryOps(t *testing.T) {
	tests := []struct {
		name   string
		op     func(partials.Builder[V], partials.Operand, partials.Operand) (V, error)
		f      func(a, b float64) float64
		a, b   float64
		value  float64
		da, db float64
	}{
		{"add", ops.Add[V], func(a, b float64) float64 { return a + b }, 2, 3, 5, 1, 1},
		{"sub", ops.Sub[V], func(a, b float64) float64 { return a - b }, 2, 3, -1, 1, -1},
		{"mul", ops.Mul[V], func(a, b float64) float64 { return a * b }, 2, 3, 6, 3, 2},
		{"div", ops.Div[V], func(a, b float64) float64 { return a / b }, 3, 2, 1.5, 0.5, -0.75},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tape := recordingTape()
			a, b := tape.Var(tt.a), tape.Var(tt.b)

			out, err := tt.op(tape, a, b)
			require.NoError(t, err)
			assert.InDelta(t, tt.value, out.Value(), 1e-12)

			grads, err := tape.Backward(out)
			require.NoError(t, err)
			assert.InDelta(t, tt.da, grads.Of(a), 1e-12)
			assert.InDelta(t, tt.db, grads.Of(b), 1e-12)

			numA := fd.Derivative(func(x float64) float64 { return tt.f(x, tt.b) }, tt.a, central)
			numB := fd.Derivative(func(x float64) float64 { return tt.f(tt.a, x) }, tt.b, central)
			assert.InDelta(t, numA, grads.Of(a), 1e-6)
			assert.InDelta(t, numB, grads.Of(b), 1e-6)
		})
	}
}

func TestUnaryOps(t *testing.T) {
	tests := []struct {
		name string
		op   func(partials.Builder[V], partials.Operand) (V, error)
		f    func(float64) float64
		df   func(float64) float64
		x    float64
	}{
		{"log", ops.Log[V], math.Log, func(x float64) float64 { return 1 / x }, 2.5},
		{"exp", ops.Exp[V], math.Exp, math.Exp, -0.3},
		{"sin", ops.Sin[V], math.Sin, math.Cos, 1.1},
		{"cos", ops.Cos[V], math.Cos, func(x float64) float64 { return -math.Sin(x) }, 0.7},
		{"sqrt", ops.Sqrt[V], math.Sqrt, func(x float64) float64 { return 0.5 / math.Sqrt(x) }, 2},
		{"tanh", ops.Tanh[V], math.Tanh, func(x float64) float64 { return 1 / (math.Cosh(x) * math.Cosh(x)) }, 0.4},
		{"sigmoid", ops.Sigmoid[V], sigmoid, func(x float64) float64 { return sigmoid(x) * (1 - sigmoid(x)) }, -1.3},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tape := recordingTape()
			x := tape.Var(tt.x)

			out, err := tt.op(tape, x)
			require.NoError(t, err)
			assert.InDelta(t, tt.f(tt.x), out.Value(), 1e-12)

			grads, err := tape.Backward(out)
			require.NoError(t, err)
			assert.InDelta(t, tt.df(tt.x), grads.Of(x), 1e-12)
			assert.InDelta(t, fd.Derivative(tt.f, tt.x, central), grads.Of(x), 1e-6)
		})
	}
}

func TestOps_ConstantOperand(t *testing.T) {
	tape := recordingTape()
	x := tape.Var(4)

	out, err := ops.Mul[V](tape, x, autodiff.Scalar(3))
	require.NoError(t, err)
	assert.Equal(t, 12.0, out.Value())

	grads, err := tape.Backward(out)
	require.NoError(t, err)
	assert.Equal(t, 3.0, grads.Of(x))

	c, err := ops.Exp[V](tape, autodiff.Scalar(0))
	require.NoError(t, err)
	assert.Equal(t, 1.0, c.Value())
	assert.Equal(t, 1, tape.NumNodes(), "a node with no differentiable inputs is not recorded")
}

func TestOps_Errors(t *testing.T) {
	tape := recordingTape()

	_, err := ops.Log[V](tape, autodiff.Scalar(0))
	require.ErrorIs(t, err, kernel.ErrDomain)

	_, err = ops.Log[V](tape, tape.Var(-1))
	require.ErrorIs(t, err, kernel.ErrDomain)

	_, err = ops.Div[V](tape, tape.Var(1), autodiff.Scalar(0))
	require.ErrorIs(t, err, kernel.ErrDomain)

	_, err = ops.Sqrt[V](tape, tape.Var(0))
	require.ErrorIs(t, err, kernel.ErrDomain)

	_, err = ops.Sqrt[V](tape, autodiff.Scalar(-4))
	require.ErrorIs(t, err, kernel.ErrDomain)

	_, err = ops.Add[V](tape, autodiff.Vector{1, 2}, tape.Var(1))
	require.ErrorIs(t, err, kernel.ErrInvalidArgument)

	_, err = ops.Sin[V](tape, autodiff.Vector{1, 2})
	require.ErrorIs(t, err, kernel.ErrInvalidArgument)
	assert.Zero(t, tape.NumNodes())
}

// TestOps_Composite checks the chain rule on f(x, y) = log(x·y + exp(x)) - sin(y).
func TestOps_Composite(t *testing.T) {
	f := func(x, y float64) float64 { return math.Log(x*y+math.Exp(x)) - math.Sin(y) }
	x0, y0 := 0.7, 1.9

	tape := recordingTape()
	x, y := tape.Var(x0), tape.Var(y0)
	xy, err := ops.Mul[V](tape, x, y)
	require.NoError(t, err)
	ex, err := ops.Exp[V](tape, x)
	require.NoError(t, err)
	sum, err := ops.Add[V](tape, xy, ex)
	require.NoError(t, err)
	lg, err := ops.Log[V](tape, sum)
	require.NoError(t, err)
	sy, err := ops.Sin[V](tape, y)
	require.NoError(t, err)
	out, err := ops.Sub[V](tape, lg, sy)
	require.NoError(t, err)

	assert.InDelta(t, f(x0, y0), out.Value(), 1e-12)

	grads, err := autodiff.Backward(out)
	require.NoError(t, err)
	numX := fd.Derivative(func(v float64) float64 { return f(v, y0) }, x0, central)
	numY := fd.Derivative(func(v float64) float64 { return f(x0, v) }, y0, central)
	assert.InDelta(t, numX, grads.Of(x), 1e-7)
	assert.InDelta(t, numY, grads.Of(y), 1e-7)
}

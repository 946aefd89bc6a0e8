package functions_test

import (
	"math"
	"testing"

	"github.com/born-ml/mygrad/internal/autodiff"
	"github.com/born-ml/mygrad/internal/autodiff/ops"
	"github.com/born-ml/mygrad/internal/functions"
	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/partials"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gonum.org/v1/gonum/diff/fd"
	"gonum.org/v1/gonum/mat"
)

type V = *autodiff.Var

var central = &fd.Settings{Formula: fd.Central}

func recordingTape() *autodiff.Tape {
	tape := autodiff.NewTape()
	tape.StartRecording()
	return tape
}

// edgeHost is a second host that only records what the adapter hands it.
type edgeHost struct {
	calls int
	value float64
	edges []*partials.Edge
}

func (h *edgeHost) BuildNode(value float64, edges []*partials.Edge) (float64, error) {
	h.calls++
	h.value = value
	h.edges = edges
	return value, nil
}

// varVec is a differentiable sequence unknown to the autodiff host.
type varVec []float64

func (varVec) Differentiable() bool    { return true }
func (v varVec) Shape() partials.Shape { return partials.Vec(len(v)) }
func (v varVec) Values() []float64     { return v }

func TestSinSquareSum_WorkedExample(t *testing.T) {
	tape := recordingTape()
	alpha := tape.Vector(0, math.Pi/2)
	beta := tape.Vector(2, 3)

	out, err := functions.SinSquareSum[V](tape, alpha, beta)
	require.NoError(t, err)
	assert.InDelta(t, 9.0, out.Value(), 1e-12)

	grads, err := tape.Backward(out)
	require.NoError(t, err)
	assert.InDeltaSlice(t, []float64{4, 0}, grads.Vector(alpha), 1e-12)
	assert.InDeltaSlice(t, []float64{0, 6}, grads.Vector(beta), 1e-12)
}

func TestSinSquareSum_CallShapes(t *testing.T) {
	alpha := []float64{0.4, -1.3, 2.2}
	beta := []float64{1.1, 0.5, -0.8}

	tests := []struct {
		name      string
		diffA     bool
		diffB     bool
		wantEdges int
	}{
		{"const/const", false, false, 0},
		{"var/const", true, false, 1},
		{"const/var", false, true, 1},
		{"var/var", true, true, 2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var a, b partials.Operand = autodiff.Vector(alpha), autodiff.Vector(beta)
			if tt.diffA {
				a = varVec(alpha)
			}
			if tt.diffB {
				b = varVec(beta)
			}
			host := &edgeHost{}
			v, err := functions.SinSquareSum[float64](host, a, b)
			require.NoError(t, err)
			assert.Equal(t, 1, host.calls)
			assert.Equal(t, host.value, v)
			require.Len(t, host.edges, tt.wantEdges)
			for _, e := range host.edges {
				assert.Len(t, e.Partials, 3)
			}
		})
	}
}

func TestSinSquareSum_Errors(t *testing.T) {
	tape := recordingTape()

	_, err := functions.SinSquareSum[V](tape, tape.Vector(1, 2), autodiff.Vector{1})
	require.ErrorIs(t, err, kernel.ErrInvalidArgument)

	m := autodiff.Matrix{Matrix: mat.NewDense(2, 2, nil)}
	_, err = functions.SinSquareSum[V](tape, m, autodiff.Vector{1, 2, 3, 4})
	require.ErrorIs(t, err, kernel.ErrInvalidArgument)
	assert.Zero(t, tape.NumNodes())
}

func TestLogDensity_CallShapes(t *testing.T) {
	d := kernel.LogNormal{Sigma: 0.8}
	y0, mu0 := 1.7, 0.3
	full, err := kernel.EvalDensity(d, y0, mu0, kernel.FlagsOf(true, true))
	require.NoError(t, err)

	tests := []struct {
		name   string
		diffY  bool
		diffMu bool
	}{
		{"const/const", false, false},
		{"var/const", true, false},
		{"const/var", false, true},
		{"var/var", true, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tape := recordingTape()
			var y, mu partials.Operand = autodiff.Scalar(y0), autodiff.Scalar(mu0)
			var yv, muv *autodiff.Var
			if tt.diffY {
				yv = tape.Var(y0)
				y = yv
			}
			if tt.diffMu {
				muv = tape.Var(mu0)
				mu = muv
			}

			out, err := functions.LogDensity[V](tape, d, y, mu)
			require.NoError(t, err)
			assert.Equal(t, full.LogProb, out.Value())

			grads, err := tape.Backward(out)
			require.NoError(t, err)
			if tt.diffY {
				assert.Equal(t, full.Dy, grads.Of(yv))
			}
			if tt.diffMu {
				assert.Equal(t, full.Dmu, grads.Of(muv))
			}
			if !tt.diffY && !tt.diffMu {
				assert.Zero(t, tape.NumNodes())
			}
		})
	}
}

func TestLogDensity_Errors(t *testing.T) {
	tape := recordingTape()

	_, err := functions.LogDensity[V](tape, kernel.LogNormal{Sigma: 1}, tape.Var(-1), autodiff.Scalar(0))
	require.ErrorIs(t, err, kernel.ErrDomain)

	var de *kernel.DomainError
	require.ErrorAs(t, err, &de)
	assert.Equal(t, "y", de.Arg)

	_, err = functions.LogDensity[V](tape, kernel.Normal{Sigma: 1}, autodiff.Vector{1, 2}, autodiff.Scalar(0))
	require.ErrorIs(t, err, kernel.ErrInvalidArgument)
}

func TestLogDet_WorkedExample(t *testing.T) {
	tape := recordingTape()
	x := tape.Matrix(mat.NewDense(2, 2, []float64{4, 0, 0, 9}))

	out, err := functions.LogDet[V](tape, x)
	require.NoError(t, err)
	assert.InDelta(t, math.Log(36), out.Value(), 1e-12)

	grads, err := tape.Backward(out)
	require.NoError(t, err)
	want := mat.NewDense(2, 2, []float64{0.25, 0, 0, 1.0 / 9})
	assert.True(t, mat.EqualApprox(want, grads.Matrix(x), 1e-12))
}

func TestLogDet_Errors(t *testing.T) {
	tape := recordingTape()

	_, err := functions.LogDet[V](tape, tape.Matrix(mat.NewDense(2, 2, []float64{1, 2, 2, 1})))
	require.ErrorIs(t, err, kernel.ErrNotPositiveDefinite)

	_, err = functions.LogDet[V](tape, tape.Matrix(mat.NewDense(2, 3, nil)))
	require.ErrorIs(t, err, kernel.ErrInvalidArgument)

	f, err := functions.NewLogDetFunc[V](tape, 2)
	require.NoError(t, err)
	_, err = f.Apply(tape.Matrix(mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})))
	require.ErrorIs(t, err, kernel.ErrDimensionMismatch)

	_, err = functions.NewLogDetFunc[V](tape, 0)
	require.ErrorIs(t, err, kernel.ErrInvalidArgument)
	assert.Zero(t, tape.NumNodes())
}

func TestLogDetFunc_Reuse(t *testing.T) {
	tape := recordingTape()
	f, err := functions.NewLogDetFunc[V](tape, 2)
	require.NoError(t, err)
	assert.Equal(t, 2, f.Size())

	inputs := []*mat.Dense{
		mat.NewDense(2, 2, []float64{2, 1, 1, 2}),
		mat.NewDense(2, 2, []float64{5, -1, -1, 3}),
		mat.NewDense(2, 2, []float64{2, 1, 1, 2}),
	}
	var values []float64
	for _, in := range inputs {
		x := tape.Matrix(in)
		out, err := f.Apply(x)
		require.NoError(t, err)
		values = append(values, out.Value())

		grads, err := tape.Backward(out)
		require.NoError(t, err)
		var inv mat.Dense
		require.NoError(t, inv.Inverse(in))
		assert.True(t, mat.EqualApprox(&inv, grads.Matrix(x), 1e-12))
	}
	assert.InDelta(t, math.Log(3), values[0], 1e-12)
	assert.InDelta(t, math.Log(14), values[1], 1e-12)
	assert.Equal(t, values[0], values[2], "no state leaks between calls")
}

func TestLogDet_ConstantMatrix(t *testing.T) {
	host := &edgeHost{}
	v, err := functions.LogDet[float64](host, autodiff.Matrix{Matrix: mat.NewDiagDense(3, []float64{1, 2, 3})})
	require.NoError(t, err)
	assert.InDelta(t, math.Log(6), v, 1e-12)
	assert.Empty(t, host.edges)
}

// TestComposite_FiniteDifference runs a sweep through all three kernels:
//
//	out = normal_lpdf(y | mu = Σ sin(α)β², σ=2) + log|X|
//
// and compares every leaf gradient with centered finite differences.
func TestComposite_FiniteDifference(t *testing.T) {
	alpha0 := []float64{0.3, 1.2}
	beta0 := []float64{0.7, -0.4}
	y0 := 0.25
	x0 := []float64{3, 0.5, 0.5, 2}
	d := kernel.Normal{Sigma: 2}

	build := func(tape *autodiff.Tape, alpha, beta autodiff.VarVector, y *autodiff.Var, x *autodiff.VarMatrix) (V, error) {
		mu, err := functions.SinSquareSum[V](tape, alpha, beta)
		if err != nil {
			return nil, err
		}
		lp, err := functions.LogDensity[V](tape, d, y, mu)
		if err != nil {
			return nil, err
		}
		ld, err := functions.LogDet[V](tape, x)
		if err != nil {
			return nil, err
		}
		return ops.Add[V](tape, lp, ld)
	}

	tape := recordingTape()
	alpha, beta, y := tape.Vector(alpha0...), tape.Vector(beta0...), tape.Var(y0)
	x := tape.Matrix(mat.NewDense(2, 2, x0))
	out, err := build(tape, alpha, beta, y, x)
	require.NoError(t, err)
	grads, err := tape.Backward(out)
	require.NoError(t, err)

	// Flatten the independent inputs: α (2), β (2), y (1), and the upper
	// triangle of X (3) mirrored into the lower one.
	params := []float64{alpha0[0], alpha0[1], beta0[0], beta0[1], y0, x0[0], x0[1], x0[3]}
	f := func(p []float64) float64 {
		tp := autodiff.NewTape()
		xm := tp.Matrix(mat.NewDense(2, 2, []float64{p[5], p[6], p[6], p[7]}))
		v, err := build(tp, tp.Vector(p[0], p[1]), tp.Vector(p[2], p[3]), tp.Var(p[4]), xm)
		if err != nil {
			return math.NaN()
		}
		return v.Value()
	}
	num := fd.Gradient(nil, f, params, central)

	gx := grads.Matrix(x)
	analytic := []float64{
		grads.Vector(alpha)[0], grads.Vector(alpha)[1],
		grads.Vector(beta)[0], grads.Vector(beta)[1],
		grads.Of(y),
		gx.At(0, 0), gx.At(0, 1) + gx.At(1, 0), gx.At(1, 1),
	}
	for i := range params {
		assert.InDelta(t, num[i], analytic[i], 1e-6*math.Max(1, math.Abs(num[i])), "param %d", i)
	}
}

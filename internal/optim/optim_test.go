package optim

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// quadratic returns ∇ of ½Σ(x-c)².
func quadratic(x, c []float64) []float64 {
	g := make([]float64, len(x))
	for i := range x {
		g[i] = x[i] - c[i]
	}
	return g
}

func TestSGD_SingleStep(t *testing.T) {
	p := &Param{Name: "x", Data: []float64{1, 2}}
	opt := NewSGD([]*Param{p}, SGDConfig{LR: 0.5})

	require.NoError(t, opt.Step(map[*Param][]float64{p: {2, -4}}))
	assert.Equal(t, []float64{0, 4}, p.Data)
	assert.Equal(t, 0.5, opt.GetLR())
}

func TestSGD_Defaults(t *testing.T) {
	opt := NewSGD(nil, SGDConfig{})
	assert.Equal(t, 0.01, opt.GetLR())
	opt.SetLR(0.2)
	assert.Equal(t, 0.2, opt.GetLR())
}

func TestSGD_Momentum(t *testing.T) {
	p := &Param{Name: "x", Data: []float64{0}}
	opt := NewSGD([]*Param{p}, SGDConfig{LR: 1, Momentum: 0.5})

	g := map[*Param][]float64{p: {1}}
	require.NoError(t, opt.Step(g)) // v=1, x=-1
	require.NoError(t, opt.Step(g)) // v=1.5, x=-2.5
	assert.InDelta(t, -2.5, p.Data[0], 1e-12)
}

func TestOptimizers_Converge(t *testing.T) {
	target := []float64{3, -1, 0.5}
	tests := []struct {
		name  string
		make  func([]*Param) Optimizer
		delta float64
	}{
		{"sgd", func(ps []*Param) Optimizer { return NewSGD(ps, SGDConfig{LR: 0.1}) }, 1e-6},
		{"sgd-momentum", func(ps []*Param) Optimizer { return NewSGD(ps, SGDConfig{LR: 0.05, Momentum: 0.9}) }, 1e-6},
		{"adam", func(ps []*Param) Optimizer { return NewAdam(ps, AdamConfig{LR: 0.05}) }, 5e-2},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := &Param{Name: "x", Data: make([]float64, len(target))}
			opt := tt.make([]*Param{p})
			for range 2000 {
				require.NoError(t, opt.Step(map[*Param][]float64{p: quadratic(p.Data, target)}))
			}
			assert.InDeltaSlice(t, target, p.Data, tt.delta)
		})
	}
}

func TestAdam_FirstStepIsLR(t *testing.T) {
	p := &Param{Name: "x", Data: []float64{0, 0}}
	opt := NewAdam([]*Param{p}, AdamConfig{LR: 0.1})

	// After bias correction the first step is lr·sign(g).
	require.NoError(t, opt.Step(map[*Param][]float64{p: {5, -0.01}}))
	assert.InDelta(t, -0.1, p.Data[0], 1e-6)
	assert.InDelta(t, 0.1, p.Data[1], 1e-5)
	assert.Equal(t, 1, opt.GetTimestep())
}

func TestStep_SkipsMissingAndRejectsShape(t *testing.T) {
	a := &Param{Name: "a", Data: []float64{1}}
	b := &Param{Name: "b", Data: []float64{1, 1}}
	for _, opt := range []Optimizer{
		NewSGD([]*Param{a, b}, SGDConfig{LR: 1}),
		NewAdam([]*Param{a, b}, AdamConfig{LR: 1}),
	} {
		require.NoError(t, opt.Step(map[*Param][]float64{a: {1}}))
		assert.Equal(t, []float64{1, 1}, b.Data)

		err := opt.Step(map[*Param][]float64{b: {1}})
		require.ErrorIs(t, err, ErrGradientShape)
	}
}

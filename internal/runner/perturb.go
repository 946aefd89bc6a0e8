package runner

import (
	"github.com/born-ml/mygrad/internal/autodiff"
	"github.com/born-ml/mygrad/internal/config"
	"github.com/born-ml/mygrad/internal/partials"
)

// perturbed returns a copy of p whose differentiable inputs take their
// values, in order, from params.
func perturbed(p config.Problem, params []float64) config.Problem {
	q := p
	q.Inputs = make([]config.Input, len(p.Inputs))
	k := 0
	for i, in := range p.Inputs {
		q.Inputs[i] = in
		if !in.Differentiable {
			continue
		}
		vals := append([]float64(nil), params[k:k+len(in.Values)]...)
		k += len(in.Values)
		if p.Kernel == config.KernelLogDet && in.IsMatrix() {
			symmetrize(vals, in.Rows)
		}
		q.Inputs[i].Values = vals
	}
	return q
}

// symmetrize replaces the n×n row-major matrix a with (a+aᵀ)/2.
func symmetrize(a []float64, n int) {
	for i := 0; i < n; i++ {
		for j := i + 1; j < n; j++ {
			m := 0.5 * (a[i*n+j] + a[j*n+i])
			a[i*n+j], a[j*n+i] = m, m
		}
	}
}

// evaluateConstant computes the value of p with every input constant.
func evaluateConstant(p config.Problem) (float64, error) {
	tape := autodiff.NewTape()
	operands := make([]partials.Operand, len(p.Inputs))
	for i, in := range p.Inputs {
		in.Differentiable = false
		operands[i] = operand(tape, p.Kernel, in)
	}
	out, err := evaluate(tape, p, operands)
	if err != nil {
		return 0, err
	}
	return out.Value(), nil
}

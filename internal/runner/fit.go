package runner

import (
	"context"
	"fmt"

	"github.com/born-ml/mygrad/internal/config"
	"github.com/born-ml/mygrad/internal/optim"
	"go.uber.org/zap"
)

// FitResult is the outcome of fitting a problem's differentiable inputs.
type FitResult struct {
	Problem string
	Steps   int
	Initial float64
	Final   float64
	Inputs  []Gradient // fitted values, same layout as Result.Gradients
}

// Fit runs cfg.Steps optimizer steps on the differentiable inputs of p,
// minimizing the kernel value (or maximizing it when cfg.Maximize is set).
// Logdet matrices are kept symmetric after every step.
func (r *Runner) Fit(ctx context.Context, p config.Problem, cfg config.FitConfig) (FitResult, error) {
	var params []*optim.Param
	for _, in := range p.Inputs {
		if in.Differentiable {
			params = append(params, &optim.Param{Name: in.Name, Data: append([]float64(nil), in.Values...)})
		}
	}
	if len(params) == 0 {
		return FitResult{}, fmt.Errorf("problem %q: no differentiable inputs: %w", p.Name, config.ErrInvalidConfig)
	}

	var opt optim.Optimizer
	switch cfg.Optimizer {
	case config.OptimizerSGD:
		opt = optim.NewSGD(params, optim.SGDConfig{LR: cfg.LR, Momentum: cfg.Momentum})
	case config.OptimizerAdam:
		opt = optim.NewAdam(params, optim.AdamConfig{LR: cfg.LR})
	default:
		return FitResult{}, fmt.Errorf("fit.optimizer %q: %w", cfg.Optimizer, config.ErrInvalidConfig)
	}

	sign := 1.0
	if cfg.Maximize {
		sign = -1
	}

	out := FitResult{Problem: p.Name}
	cur := p
	for step := 0; step < cfg.Steps; step++ {
		if err := ctx.Err(); err != nil {
			return FitResult{}, err
		}
		res, err := r.Eval(cur)
		if err != nil {
			return FitResult{}, fmt.Errorf("step %d: %w", step, err)
		}
		if step == 0 {
			out.Initial = res.Value
		}

		grads := make(map[*optim.Param][]float64, len(params))
		for i, g := range res.Gradients {
			d := make([]float64, len(g.Values))
			for j, v := range g.Values {
				d[j] = sign * v
			}
			grads[params[i]] = d
		}
		if err := opt.Step(grads); err != nil {
			return FitResult{}, fmt.Errorf("problem %q: step %d: %w", p.Name, step, err)
		}
		cur = perturbed(p, flatten(params))
		k := 0
		for _, in := range cur.Inputs {
			if in.Differentiable {
				copy(params[k].Data, in.Values)
				k++
			}
		}
		out.Steps++
	}

	final, err := r.Eval(cur)
	if err != nil {
		return FitResult{}, err
	}
	out.Final = final.Value
	for _, in := range cur.Inputs {
		if in.Differentiable {
			rows, cols := in.Rows, in.Cols
			if !in.IsMatrix() {
				rows, cols = len(in.Values), 1
			}
			out.Inputs = append(out.Inputs, Gradient{Input: in.Name, Rows: rows, Cols: cols, Values: in.Values})
		}
	}

	r.logger.Info("fitted problem",
		zap.String("problem", p.Name),
		zap.String("optimizer", cfg.Optimizer),
		zap.Int("steps", out.Steps),
		zap.Float64("initial", out.Initial),
		zap.Float64("final", out.Final))
	return out, nil
}

func flatten(params []*optim.Param) []float64 {
	var x []float64
	for _, p := range params {
		x = append(x, p.Data...)
	}
	return x
}

// Package runner evaluates configured problems on the reference AD host and
// checks their gradients against finite differences.
package runner

import (
	"context"
	"fmt"
	"math"

	"github.com/born-ml/mygrad/internal/autodiff"
	"github.com/born-ml/mygrad/internal/config"
	"github.com/born-ml/mygrad/internal/functions"
	"github.com/born-ml/mygrad/internal/gradcheck"
	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/parallel"
	"github.com/born-ml/mygrad/internal/partials"
	"go.uber.org/zap"
	"gonum.org/v1/gonum/mat"
)

// Gradient is ∂value/∂input for one differentiable input, row-major.
type Gradient struct {
	Input  string
	Rows   int
	Cols   int
	Values []float64
}

// Result is one problem evaluation.
type Result struct {
	Problem   string
	Kernel    string
	Value     float64
	Gradients []Gradient
}

// CheckResult is one problem's gradient check.
type CheckResult struct {
	Result
	Report gradcheck.Report
}

// Runner evaluates problems. It is safe for concurrent use; every evaluation
// gets its own tape and kernels.
type Runner struct {
	logger   *zap.Logger
	settings gradcheck.Settings
	par      parallel.Config
}

// New creates a Runner from the check and worker settings in cfg.
func New(logger *zap.Logger, cfg *config.Config) *Runner {
	if logger == nil {
		logger = zap.NewNop()
	}
	par := parallel.DefaultConfig()
	if cfg.Workers > 0 {
		par.NumWorkers = cfg.Workers
		par.Enabled = cfg.Workers > 1
	}
	par.MinChunkSize = 1
	return &Runner{
		logger: logger,
		settings: gradcheck.Settings{
			Step:       cfg.Check.Step,
			Tolerance:  cfg.Check.Tolerance,
			Concurrent: cfg.Check.Concurrent,
		},
		par: par,
	}
}

// Eval evaluates p and runs a reverse sweep to collect the gradient of every
// differentiable input.
func (r *Runner) Eval(p config.Problem) (Result, error) {
	tape := autodiff.NewTape()
	tape.StartRecording()

	operands := make([]partials.Operand, len(p.Inputs))
	for i, in := range p.Inputs {
		operands[i] = operand(tape, p.Kernel, in)
	}

	out, err := evaluate(tape, p, operands)
	if err != nil {
		return Result{}, fmt.Errorf("problem %q: %w", p.Name, err)
	}
	grads, err := tape.Backward(out)
	if err != nil {
		return Result{}, fmt.Errorf("problem %q: %w", p.Name, err)
	}

	res := Result{Problem: p.Name, Kernel: p.Kernel, Value: out.Value()}
	for i, in := range p.Inputs {
		var g []float64
		switch op := operands[i].(type) {
		case *autodiff.Var:
			g = []float64{grads.Of(op)}
		case autodiff.VarVector:
			g = grads.Vector(op)
		case *autodiff.VarMatrix:
			g = grads.Matrix(op).RawMatrix().Data
		default:
			continue
		}
		s := operands[i].Shape()
		res.Gradients = append(res.Gradients, Gradient{Input: in.Name, Rows: s.Rows, Cols: s.Cols, Values: g})
	}

	r.logger.Debug("evaluated problem",
		zap.String("problem", p.Name),
		zap.String("kernel", p.Kernel),
		zap.Float64("value", res.Value),
		zap.Int("nodes", tape.NumNodes()),
		zap.Int("gradients", len(res.Gradients)))
	return res, nil
}

// EvalAll evaluates problems in parallel, one tape per problem, and returns
// results in input order.
func (r *Runner) EvalAll(ctx context.Context, problems []config.Problem) ([]Result, error) {
	out := make([]Result, len(problems))
	err := parallel.ForEach(ctx, len(problems), r.par, func(_, i int) error {
		res, err := r.Eval(problems[i])
		if err != nil {
			return err
		}
		out[i] = res
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Check evaluates p and compares each differentiable input's gradient with a
// centered finite-difference estimate.
//
// For logdet problems the perturbed matrix is symmetrized as (P+Pᵀ)/2, whose
// derivative with respect to P[i,j] equals the X⁻¹[i,j] the kernel reports.
func (r *Runner) Check(p config.Problem) (CheckResult, error) {
	res, err := r.Eval(p)
	if err != nil {
		return CheckResult{}, err
	}

	var x, analytic []float64
	for _, g := range res.Gradients {
		analytic = append(analytic, g.Values...)
	}
	for _, in := range p.Inputs {
		if in.Differentiable {
			x = append(x, in.Values...)
		}
	}

	f := func(params []float64) float64 {
		v, err := evaluateConstant(perturbed(p, params))
		if err != nil {
			return math.NaN()
		}
		return v
	}
	report, err := gradcheck.Gradient(f, x, analytic, r.settings)
	if err != nil {
		return CheckResult{}, fmt.Errorf("problem %q: %w", p.Name, err)
	}

	fields := []zap.Field{
		zap.String("problem", p.Name),
		zap.Int("partials", report.N),
		zap.Float64("max_rel_err", report.MaxRelErr),
	}
	if report.OK() {
		r.logger.Info("gradient check passed", fields...)
	} else {
		r.logger.Warn("gradient check failed", append(fields, zap.Int("mismatches", len(report.Mismatches)))...)
	}
	return CheckResult{Result: res, Report: report}, nil
}

func operand(tape *autodiff.Tape, kernelName string, in config.Input) partials.Operand {
	vals := append([]float64(nil), in.Values...)
	switch {
	case in.IsMatrix():
		m := mat.NewDense(in.Rows, in.Cols, vals)
		if in.Differentiable {
			return tape.Matrix(m)
		}
		return autodiff.Matrix{Matrix: m}
	case kernelName == config.KernelLogNormal || kernelName == config.KernelNormal:
		if in.Differentiable {
			return tape.Var(vals[0])
		}
		return autodiff.Scalar(vals[0])
	default:
		if in.Differentiable {
			return tape.Vector(vals...)
		}
		return autodiff.Vector(vals)
	}
}

func evaluate(tape *autodiff.Tape, p config.Problem, operands []partials.Operand) (*autodiff.Var, error) {
	sigma := p.Sigma
	if sigma == 0 {
		sigma = 1
	}
	switch p.Kernel {
	case config.KernelSinSquare:
		return functions.SinSquareSum[*autodiff.Var](tape, operands[0], operands[1])
	case config.KernelLogNormal:
		return functions.LogDensity[*autodiff.Var](tape, kernel.LogNormal{Sigma: sigma}, operands[0], operands[1])
	case config.KernelNormal:
		return functions.LogDensity[*autodiff.Var](tape, kernel.Normal{Sigma: sigma}, operands[0], operands[1])
	case config.KernelLogDet:
		return functions.LogDet[*autodiff.Var](tape, operands[0])
	default:
		return nil, fmt.Errorf("unknown kernel %q: %w", p.Kernel, config.ErrInvalidConfig)
	}
}

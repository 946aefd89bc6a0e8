// Package optim implements first-order optimizers over kernel parameters.
//
// This package provides:
//   - Optimizer interface: Base interface for all optimizers
//   - SGD: Gradient descent with momentum
//   - Adam: Adaptive Moment Estimation
//
// Parameters are flat float64 slices updated in place; gradients come from
// a reverse sweep of the autodiff tape.
//
// Example usage:
//
//	mu := &optim.Param{Name: "mu", Data: []float64{0}}
//	opt := optim.NewAdam([]*optim.Param{mu}, optim.AdamConfig{LR: 0.05})
//
//	for range steps {
//	    grads := evaluate(mu.Data) // ∂loss/∂mu
//	    if err := opt.Step(map[*optim.Param][]float64{mu: grads}); err != nil {
//	        return err
//	    }
//	}
package optim

import (
	"errors"
	"fmt"
)

// ErrGradientShape is returned when a gradient does not match its parameter.
var ErrGradientShape = errors.New("optim: gradient length does not match parameter")

// Param is a named parameter vector, updated in place by Step.
type Param struct {
	Name string
	Data []float64
}

// Optimizer is the base interface for all optimization algorithms.
//
// Optimizers update parameters in place to minimize an objective.
type Optimizer interface {
	// Step applies one update to every parameter that has a gradient.
	// Parameters missing from grads are left untouched.
	Step(grads map[*Param][]float64) error

	// GetLR returns the current learning rate.
	GetLR() float64
}

// Config is the base configuration for all optimizers.
type Config struct {
	LR float64 // Learning rate
}

// getGradient retrieves the gradient for a parameter, or nil if it has none.
func getGradient(param *Param, grads map[*Param][]float64) ([]float64, error) {
	if param == nil {
		return nil, nil
	}
	g, ok := grads[param]
	if !ok {
		return nil, nil
	}
	if len(g) != len(param.Data) {
		return nil, fmt.Errorf("%s: %d partials for %d values: %w", param.Name, len(g), len(param.Data), ErrGradientShape)
	}
	return g, nil
}

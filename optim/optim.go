// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package optim provides first-order optimizers for kernel parameters.
//
// # Overview
//
// This package contains:
//   - SGD: Gradient descent with momentum
//   - Adam: Adaptive Moment Estimation with bias correction
//   - Optimizer interface for custom optimizers
//
// # Basic Usage
//
//	tape := autodiff.NewTape()
//	mu := &optim.Param{Name: "mu", Data: []float64{0}}
//	opt := optim.NewAdam([]*optim.Param{mu}, optim.AdamConfig{LR: 0.05})
//
//	for range 500 {
//	    tape.Clear()
//	    tape.StartRecording()
//	    m := tape.Var(mu.Data[0])
//	    lp, _ := functions.NormalLPDF(tape, autodiff.Scalar(1.5), m, 1)
//	    loss, _ := autodiff.Sub(tape, autodiff.Scalar(0), lp)
//	    grads, _ := tape.Backward(loss)
//	    _ = opt.Step(map[*optim.Param][]float64{mu: {grads.Of(m)}})
//	}
package optim

import "github.com/born-ml/mygrad/internal/optim"

// Param is a named parameter vector, updated in place by Step.
type Param = optim.Param

// Optimizer is the base interface for all optimizers.
type Optimizer = optim.Optimizer

// SGD implements gradient descent with optional momentum.
type SGD = optim.SGD

// SGDConfig holds configuration for SGD.
type SGDConfig = optim.SGDConfig

// Adam implements the Adam optimizer.
type Adam = optim.Adam

// AdamConfig holds configuration for Adam.
type AdamConfig = optim.AdamConfig

// ErrGradientShape is returned when a gradient does not match its parameter.
var ErrGradientShape = optim.ErrGradientShape

// NewSGD creates a new SGD optimizer.
func NewSGD(params []*Param, config SGDConfig) *SGD {
	return optim.NewSGD(params, config)
}

// NewAdam creates a new Adam optimizer.
func NewAdam(params []*Param, config AdamConfig) *Adam {
	return optim.NewAdam(params, config)
}

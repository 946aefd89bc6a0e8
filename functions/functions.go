// Copyright 2025 Born ML Framework. All rights reserved.
// Use of this source code is governed by an Apache 2.0
// license that can be found in the LICENSE file.

// Package functions provides differentiable kernels bound to the
// reference autodiff host.
//
// Every kernel reports its value together with the partial derivatives
// for the operands that are differentiable; constant operands get no
// gradient work at all.
//
//   - SinSquareSum: Σ sin(αᵢ)·βᵢ²
//   - LogNormalLPDF, NormalLPDF: log-densities in y and mu
//   - LogDet: log|X| of a symmetric positive-definite matrix, ∂/∂X = X⁻¹
//
// For repeated log-determinants of one size, NewLogDetFunc keeps a
// Cholesky workspace alive across calls.
package functions

import (
	"context"

	"github.com/born-ml/mygrad/autodiff"
	"github.com/born-ml/mygrad/internal/functions"
	"github.com/born-ml/mygrad/internal/kernel"
	"github.com/born-ml/mygrad/internal/parallel"
	"gonum.org/v1/gonum/mat"
)

// Errors reported by the kernels. Use errors.Is to match them.
var (
	ErrInvalidArgument     = kernel.ErrInvalidArgument
	ErrDimensionMismatch   = kernel.ErrDimensionMismatch
	ErrNotPositiveDefinite = kernel.ErrNotPositiveDefinite
	ErrDomain              = kernel.ErrDomain
)

// DomainError describes an argument outside a distribution's support.
type DomainError = kernel.DomainError

// Density is a log-density with partials in y and mu.
type Density = kernel.Density

// LogNormal is the log-normal density of y with location mu and scale Sigma.
type LogNormal = kernel.LogNormal

// Normal is the normal density of y with mean mu and standard deviation Sigma.
type Normal = kernel.Normal

// SinSquareSum returns Σ sin(alpha[i])·beta[i]².
func SinSquareSum(t *autodiff.Tape, alpha, beta autodiff.Operand) (*autodiff.Var, error) {
	return functions.SinSquareSum[*autodiff.Var](t, alpha, beta)
}

// LogDensity returns d.LogProb(y, mu) with partials for whichever of y and
// mu are differentiable.
func LogDensity(t *autodiff.Tape, d Density, y, mu autodiff.Operand) (*autodiff.Var, error) {
	return functions.LogDensity[*autodiff.Var](t, d, y, mu)
}

// LogNormalLPDF returns the log-normal log-density of y.
func LogNormalLPDF(t *autodiff.Tape, y, mu autodiff.Operand, sigma float64) (*autodiff.Var, error) {
	return LogDensity(t, LogNormal{Sigma: sigma}, y, mu)
}

// NormalLPDF returns the normal log-density of y.
func NormalLPDF(t *autodiff.Tape, y, mu autodiff.Operand, sigma float64) (*autodiff.Var, error) {
	return LogDensity(t, Normal{Sigma: sigma}, y, mu)
}

// LogDet returns log|x| for a symmetric positive-definite matrix operand.
func LogDet(t *autodiff.Tape, x autodiff.Operand) (*autodiff.Var, error) {
	return functions.LogDet[*autodiff.Var](t, x)
}

// LogDetFunc evaluates log-determinants of a fixed size with a reusable
// workspace. It is not safe for concurrent use.
type LogDetFunc = functions.LogDetFunc[*autodiff.Var]

// NewLogDetFunc creates a LogDetFunc for n×n matrices recorded on t.
func NewLogDetFunc(t *autodiff.Tape, n int) (*LogDetFunc, error) {
	return functions.NewLogDetFunc[*autodiff.Var](t, n)
}

// LogDetBatch computes log|xs[i]| for many constant matrices in parallel.
// When dsts is non-nil, dsts[i] receives xs[i]⁻¹.
func LogDetBatch(ctx context.Context, xs []mat.Matrix, dsts []*mat.Dense, workers int) ([]float64, error) {
	cfg := parallel.DefaultConfig()
	if workers > 0 {
		cfg.NumWorkers = workers
		cfg.Enabled = workers > 1
	}
	return kernel.LogDetBatch(ctx, xs, dsts, kernel.FlagsOf(dsts != nil), cfg)
}

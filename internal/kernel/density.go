package kernel

import (
	"fmt"
	"math"
)

// halfLog2Pi is ½·log(2π).
const halfLog2Pi = 0.91893853320467274178032973640561763986139747363778

// Density is a scalar log-density log p(y; mu) with its two partials.
//
// Each method is independently callable so a caller pays only for what it
// needs. Arguments outside the support return an error wrapping ErrDomain.
type Density interface {
	Name() string
	LogProb(y, mu float64) (float64, error)
	LogProbDy(y, mu float64) (float64, error)
	LogProbDmu(y, mu float64) (float64, error)
}

// CallShape identifies which of y (operand 0) and mu (operand 1) are
// differentiable at a log-density call site.
type CallShape int

// The four call shapes a log-density is dispatched on.
const (
	ConstConst CallShape = iota // value only
	VarConst                    // value and ∂/∂y
	ConstVar                    // value and ∂/∂mu
	VarVar                      // value, ∂/∂y and ∂/∂mu
)

var callShapeNames = [...]string{"const/const", "var/const", "const/var", "var/var"}

func (s CallShape) String() string {
	if s < ConstConst || s > VarVar {
		return fmt.Sprintf("CallShape(%d)", int(s))
	}
	return callShapeNames[s]
}

// ShapeOf maps gradient flags for (y, mu) to a call shape.
func ShapeOf(want Flags) CallShape {
	switch {
	case want.Has(0) && want.Has(1):
		return VarVar
	case want.Has(0):
		return VarConst
	case want.Has(1):
		return ConstVar
	default:
		return ConstConst
	}
}

// DensityResult holds one log-density evaluation.
// Dy and Dmu are zero unless the matching flag was set.
type DensityResult struct {
	LogProb float64
	Dy      float64
	Dmu     float64
	Shape   CallShape
}

// EvalDensity is the fused entry point for a Density.
// It calls only the derivative functions the call shape of want requires.
func EvalDensity(d Density, y, mu float64, want Flags) (DensityResult, error) {
	res := DensityResult{Shape: ShapeOf(want)}

	lp, err := d.LogProb(y, mu)
	if err != nil {
		return DensityResult{}, err
	}
	res.LogProb = lp

	switch res.Shape {
	case VarConst:
		if res.Dy, err = d.LogProbDy(y, mu); err != nil {
			return DensityResult{}, err
		}
	case ConstVar:
		if res.Dmu, err = d.LogProbDmu(y, mu); err != nil {
			return DensityResult{}, err
		}
	case VarVar:
		if res.Dy, err = d.LogProbDy(y, mu); err != nil {
			return DensityResult{}, err
		}
		if res.Dmu, err = d.LogProbDmu(y, mu); err != nil {
			return DensityResult{}, err
		}
	}
	return res, nil
}

// LogNormal is the log-normal density with location mu and fixed scale Sigma:
//
//	log p(y; mu) = -log y - log σ - ½log 2π - ½z²,  z = (log y - mu)/σ
//	∂/∂y  = -(1 + z/σ)/y
//	∂/∂mu = z/σ
//
// Support: y > 0, mu finite, σ > 0.
type LogNormal struct {
	Sigma float64
}

// Name returns "lognormal".
func (LogNormal) Name() string { return "lognormal" }

func (d LogNormal) z(y, mu float64) (float64, error) {
	if err := checkScale(d.Name(), d.Sigma); err != nil {
		return 0, err
	}
	if math.IsNaN(y) || math.IsInf(y, 0) || y <= 0 {
		return 0, domainError(d.Name(), "y", y, "finite and > 0")
	}
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return 0, domainError(d.Name(), "mu", mu, "finite")
	}
	return (math.Log(y) - mu) / d.Sigma, nil
}

// LogProb returns log p(y; mu).
func (d LogNormal) LogProb(y, mu float64) (float64, error) {
	z, err := d.z(y, mu)
	if err != nil {
		return 0, err
	}
	return -math.Log(y) - math.Log(d.Sigma) - halfLog2Pi - 0.5*z*z, nil
}

// LogProbDy returns ∂ log p / ∂y.
func (d LogNormal) LogProbDy(y, mu float64) (float64, error) {
	z, err := d.z(y, mu)
	if err != nil {
		return 0, err
	}
	return -(1 + z/d.Sigma) / y, nil
}

// LogProbDmu returns ∂ log p / ∂mu.
func (d LogNormal) LogProbDmu(y, mu float64) (float64, error) {
	z, err := d.z(y, mu)
	if err != nil {
		return 0, err
	}
	return z / d.Sigma, nil
}

// Normal is the normal density with mean mu and fixed scale Sigma:
//
//	log p(y; mu) = -log σ - ½log 2π - ½z²,  z = (y - mu)/σ
//
// Support: y and mu finite, σ > 0.
type Normal struct {
	Sigma float64
}

// Name returns "normal".
func (Normal) Name() string { return "normal" }

func (d Normal) z(y, mu float64) (float64, error) {
	if err := checkScale(d.Name(), d.Sigma); err != nil {
		return 0, err
	}
	if math.IsNaN(y) || math.IsInf(y, 0) {
		return 0, domainError(d.Name(), "y", y, "finite")
	}
	if math.IsNaN(mu) || math.IsInf(mu, 0) {
		return 0, domainError(d.Name(), "mu", mu, "finite")
	}
	return (y - mu) / d.Sigma, nil
}

// LogProb returns log p(y; mu).
func (d Normal) LogProb(y, mu float64) (float64, error) {
	z, err := d.z(y, mu)
	if err != nil {
		return 0, err
	}
	return -math.Log(d.Sigma) - halfLog2Pi - 0.5*z*z, nil
}

// LogProbDy returns ∂ log p / ∂y.
func (d Normal) LogProbDy(y, mu float64) (float64, error) {
	z, err := d.z(y, mu)
	if err != nil {
		return 0, err
	}
	return -z / d.Sigma, nil
}

// LogProbDmu returns ∂ log p / ∂mu.
func (d Normal) LogProbDmu(y, mu float64) (float64, error) {
	z, err := d.z(y, mu)
	if err != nil {
		return 0, err
	}
	return z / d.Sigma, nil
}

func checkScale(dist string, sigma float64) error {
	if math.IsNaN(sigma) || math.IsInf(sigma, 0) || sigma <= 0 {
		return domainError(dist, "sigma", sigma, "finite and > 0")
	}
	return nil
}

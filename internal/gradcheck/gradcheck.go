// Package gradcheck compares analytic gradients against centered finite
// differences computed with gonum's diff/fd package.
package gradcheck

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/diff/fd"
)

// ErrNonFinite is returned when a finite-difference estimate is NaN or Inf,
// usually because a perturbed input left the function's domain.
var ErrNonFinite = errors.New("gradcheck: non-finite numerical gradient")

// Settings control the finite-difference estimate and the pass criterion.
type Settings struct {
	Step       float64 // Step size; zero selects the fd default for the formula.
	Tolerance  float64 // Maximum accepted relative error.
	Concurrent bool    // Evaluate f concurrently; f must then be safe for concurrent use.
}

// DefaultSettings returns a centered step chosen by fd and a 1e-6 tolerance.
func DefaultSettings() Settings {
	return Settings{Tolerance: 1e-6}
}

// Mismatch is one gradient component outside tolerance.
type Mismatch struct {
	Index    int
	Analytic float64
	Numeric  float64
	RelErr   float64
}

func (m Mismatch) String() string {
	return fmt.Sprintf("[%d] analytic=%g numeric=%g relerr=%.3g", m.Index, m.Analytic, m.Numeric, m.RelErr)
}

// Report summarizes a gradient check.
type Report struct {
	N          int
	MaxRelErr  float64
	Numeric    []float64
	Mismatches []Mismatch
}

// OK reports whether every component was within tolerance.
func (r Report) OK() bool {
	return len(r.Mismatches) == 0
}

// RelErr is |a-n| / max(1, |n|): absolute near zero, relative elsewhere.
func RelErr(analytic, numeric float64) float64 {
	return math.Abs(analytic-numeric) / math.Max(1, math.Abs(numeric))
}

// Gradient estimates ∇f(x) with the centered formula and compares it with
// analytic component by component.
func Gradient(f func([]float64) float64, x, analytic []float64, s Settings) (Report, error) {
	if len(x) != len(analytic) {
		return Report{}, fmt.Errorf("gradcheck: %d inputs, %d analytic partials", len(x), len(analytic))
	}
	if len(x) == 0 {
		return Report{}, nil
	}

	num := fd.Gradient(nil, f, x, &fd.Settings{
		Formula:    fd.Central,
		Step:       s.Step,
		Concurrent: s.Concurrent,
	})

	r := Report{N: len(x), Numeric: num}
	for i, n := range num {
		if math.IsNaN(n) || math.IsInf(n, 0) {
			return r, fmt.Errorf("component %d: %w", i, ErrNonFinite)
		}
		e := RelErr(analytic[i], n)
		r.MaxRelErr = math.Max(r.MaxRelErr, e)
		if e > s.Tolerance {
			r.Mismatches = append(r.Mismatches, Mismatch{Index: i, Analytic: analytic[i], Numeric: n, RelErr: e})
		}
	}
	return r, nil
}

package kernel

import (
	"errors"
	"fmt"
	"math"

	"gonum.org/v1/gonum/mat"
)

// symmetryTol is the relative tolerance for accepting a general matrix as symmetric.
const symmetryTol = 1e-8

// LogDet computes log|X| of an N×N symmetric positive-definite matrix and,
// on request, its gradient d/dX log|X| = X⁻¹.
//
// A LogDet owns a factorization workspace sized at construction: the Cholesky
// factor storage, an N×N identity right-hand side and an N×N staging buffer.
// The workspace is overwritten on every Eval; the factorization itself is
// recomputed from X on every call.
//
// LogDet is not safe for concurrent use. Use one instance per goroutine or
// serialize calls externally.
type LogDet struct {
	n     int
	chol  mat.Cholesky
	eye   *mat.Dense
	stage *mat.SymDense
}

// NewLogDet allocates a LogDet for n×n matrices.
func NewLogDet(n int) (*LogDet, error) {
	if n < 1 {
		return nil, fmt.Errorf("logdet: size %d: %w", n, ErrInvalidArgument)
	}
	eye := mat.NewDense(n, n, nil)
	for i := 0; i < n; i++ {
		eye.Set(i, i, 1)
	}
	stage := mat.NewSymDense(n, nil)
	for i := 0; i < n; i++ {
		stage.SetSym(i, i, 1)
	}
	ld := &LogDet{n: n, eye: eye, stage: stage}
	// Factorizing the identity sizes the factor storage once.
	ld.chol.Factorize(stage)
	return ld, nil
}

// Size returns N.
func (ld *LogDet) Size() int {
	return ld.n
}

// Eval returns log|x| and, when want.Has(0), writes x⁻¹ into dst.
//
// Contract:
//   - x is N×N, otherwise ErrDimensionMismatch
//   - if want.Has(0), dst is a non-nil N×N matrix, otherwise ErrInvalidArgument
//   - x is symmetric (a mat.Symmetric, or a general matrix symmetric within
//     tolerance), otherwise ErrInvalidArgument
//   - x is positive definite, otherwise ErrNotPositiveDefinite
//
// dst is written only on success and only when requested.
func (ld *LogDet) Eval(dst *mat.Dense, x mat.Matrix, want Flags) (float64, error) {
	r, c := x.Dims()
	if r != ld.n || c != ld.n {
		return 0, fmt.Errorf("logdet: got %d×%d matrix, evaluator is %d×%d: %w", r, c, ld.n, ld.n, ErrDimensionMismatch)
	}
	wantGrad := want.Has(0)
	if wantGrad {
		if dst == nil {
			return 0, fmt.Errorf("logdet: nil gradient buffer: %w", ErrInvalidArgument)
		}
		if dr, dc := dst.Dims(); dr != ld.n || dc != ld.n {
			return 0, fmt.Errorf("logdet: gradient buffer is %d×%d, need %d×%d: %w", dr, dc, ld.n, ld.n, ErrInvalidArgument)
		}
	}

	sym, err := ld.symmetric(x)
	if err != nil {
		return 0, err
	}
	if ok := ld.chol.Factorize(sym); !ok {
		return 0, fmt.Errorf("logdet: cholesky factorization failed: %w", ErrNotPositiveDefinite)
	}

	// X = UᵀU, so the diagonal of U is the diagonal of L = Uᵀ.
	u := ld.chol.RawU()
	var ldet float64
	for i := 0; i < ld.n; i++ {
		ldet += math.Log(u.At(i, i))
	}
	ldet *= 2

	if wantGrad {
		// Solve X·Z = I with the existing factor; dst already has the right
		// shape so no storage is allocated.
		if err := ld.chol.SolveTo(dst, ld.eye); err != nil {
			var cond mat.Condition
			if !errors.As(err, &cond) {
				return 0, fmt.Errorf("logdet: solve: %w", err)
			}
		}
	}
	return ldet, nil
}

// symmetric returns x as a mat.Symmetric, staging general matrices into the
// workspace after checking symmetry.
func (ld *LogDet) symmetric(x mat.Matrix) (mat.Symmetric, error) {
	if s, ok := x.(mat.Symmetric); ok {
		return s, nil
	}
	for i := 0; i < ld.n; i++ {
		for j := i; j < ld.n; j++ {
			a, b := x.At(i, j), x.At(j, i)
			if math.Abs(a-b) > symmetryTol*math.Max(1, math.Max(math.Abs(a), math.Abs(b))) {
				return nil, fmt.Errorf("logdet: x[%d,%d]=%g != x[%d,%d]=%g: matrix not symmetric: %w", i, j, a, j, i, b, ErrInvalidArgument)
			}
			ld.stage.SetSym(i, j, a)
		}
	}
	return ld.stage, nil
}

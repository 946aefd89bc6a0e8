package kernel

import (
	"context"
	"fmt"

	"github.com/born-ml/mygrad/internal/parallel"
	"gonum.org/v1/gonum/mat"
)

// LogDetBatch evaluates log|X| for every matrix in xs and, when want.Has(0),
// writes each X⁻¹ into the matching dsts entry.
//
// All matrices must share the size of xs[0]. Every worker gets its own LogDet,
// so no workspace is shared between goroutines. The first failure aborts the
// batch and is returned annotated with the failing index.
func LogDetBatch(ctx context.Context, xs []mat.Matrix, dsts []*mat.Dense, want Flags, cfg parallel.Config) ([]float64, error) {
	if len(xs) == 0 {
		return nil, nil
	}
	if want.Has(0) && len(dsts) != len(xs) {
		return nil, fmt.Errorf("logdet batch: %d gradient buffers for %d matrices: %w", len(dsts), len(xs), ErrInvalidArgument)
	}
	n, _ := xs[0].Dims()

	workers := cfg.Workers(len(xs))
	evals := make([]*LogDet, workers)
	for w := range evals {
		ld, err := NewLogDet(n)
		if err != nil {
			return nil, err
		}
		evals[w] = ld
	}

	out := make([]float64, len(xs))
	err := parallel.ForEach(ctx, len(xs), cfg, func(w, i int) error {
		var dst *mat.Dense
		if want.Has(0) {
			dst = dsts[i]
		}
		v, err := evals[w].Eval(dst, xs[i], want)
		if err != nil {
			return fmt.Errorf("logdet batch: item %d: %w", i, err)
		}
		out[i] = v
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

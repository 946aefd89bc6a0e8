// Package parallel provides worker-indexed parallel loops.
//
// Each worker goroutine has a stable index in [0, Workers), so callers can
// give every worker its own scratch state (e.g. one factorization workspace
// per worker) instead of sharing mutable state between goroutines.
package parallel

import (
	"context"
	"runtime"

	"golang.org/x/sync/errgroup"
)

// Config controls parallel execution behavior.
type Config struct {
	Enabled      bool // Whether parallel execution is enabled.
	NumWorkers   int  // Number of worker goroutines to use.
	MinChunkSize int  // Minimum items per worker to avoid overhead.
}

// DefaultConfig returns sensible defaults based on CPU count.
func DefaultConfig() Config {
	n := runtime.NumCPU()
	return Config{
		Enabled:      n > 1,
		NumWorkers:   n,
		MinChunkSize: 4, // Per-item work is a matrix factorization, not a scalar.
	}
}

// Workers returns how many workers ForEach will start for n items.
// It is always at least 1.
func (cfg Config) Workers(n int) int {
	if !cfg.Enabled || cfg.NumWorkers < 2 || n < 2*max(cfg.MinChunkSize, 1) {
		return 1
	}
	chunk := max(cfg.MinChunkSize, 1)
	return max(min(cfg.NumWorkers, (n+chunk-1)/chunk), 1)
}

// ForEach executes f(worker, i) for i in [0, n).
//
// Items are split into contiguous chunks, one per worker; a worker index is
// used by exactly one goroutine. The first error cancels ctx for the remaining
// items and is returned. With a single worker the loop runs on the calling
// goroutine.
func ForEach(ctx context.Context, n int, cfg Config, f func(worker, i int) error) error {
	workers := cfg.Workers(n)
	if workers == 1 {
		for i := 0; i < n; i++ {
			if err := ctx.Err(); err != nil {
				return err
			}
			if err := f(0, i); err != nil {
				return err
			}
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	chunk := (n + workers - 1) / workers
	for w := 0; w < workers; w++ {
		start := w * chunk
		end := min(start+chunk, n)
		if start >= end {
			break
		}
		g.Go(func() error {
			for i := start; i < end; i++ {
				if err := gctx.Err(); err != nil {
					return err
				}
				if err := f(w, i); err != nil {
					return err
				}
			}
			return nil
		})
	}
	return g.Wait()
}

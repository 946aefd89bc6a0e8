package parallel

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

func TestForEach(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 8}

	var counter int64
	n := 1000
	seen := make([]int32, n)

	err := ForEach(context.Background(), n, cfg, func(_, i int) error {
		atomic.AddInt64(&counter, 1)
		atomic.AddInt32(&seen[i], 1)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, int64(n), counter)
	for i, c := range seen {
		assert.Equal(t, int32(1), c, "index %d", i)
	}
}

func TestForEach_WorkerIndexIsExclusive(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 6, MinChunkSize: 1}
	n := 120
	workers := cfg.Workers(n)
	require.Equal(t, 6, workers)

	// Each worker owns one slot; unsynchronized writes are safe only if a
	// worker index is never shared between goroutines.
	owned := make([][]int, workers)
	err := ForEach(context.Background(), n, cfg, func(w, i int) error {
		owned[w] = append(owned[w], i)
		return nil
	})
	require.NoError(t, err)

	total := 0
	for _, items := range owned {
		total += len(items)
	}
	assert.Equal(t, n, total)
}

func TestForEach_Sequential(t *testing.T) {
	cfg := Config{Enabled: false}
	assert.Equal(t, 1, cfg.Workers(100))

	var order []int
	err := ForEach(context.Background(), 5, cfg, func(w, i int) error {
		assert.Equal(t, 0, w)
		order = append(order, i)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []int{0, 1, 2, 3, 4}, order)
}

func TestForEach_SmallChunk(t *testing.T) {
	// Small work units fall back to a single worker.
	cfg := Config{Enabled: true, NumWorkers: 8, MinChunkSize: 64}
	assert.Equal(t, 1, cfg.Workers(100))
	assert.Equal(t, 2, cfg.Workers(128))
}

func TestForEach_Error(t *testing.T) {
	cfg := Config{Enabled: true, NumWorkers: 4, MinChunkSize: 1}
	boom := errors.New("boom")

	var mu sync.Mutex
	calls := 0
	err := ForEach(context.Background(), 100, cfg, func(_, i int) error {
		mu.Lock()
		calls++
		mu.Unlock()
		if i == 10 {
			return boom
		}
		return nil
	})
	require.ErrorIs(t, err, boom)
	assert.LessOrEqual(t, calls, 100)
}

func TestForEach_Canceled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	for _, cfg := range []Config{{}, {Enabled: true, NumWorkers: 2, MinChunkSize: 1}} {
		err := ForEach(ctx, 10, cfg, func(_, _ int) error { return nil })
		require.ErrorIs(t, err, context.Canceled)
	}
}

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()
	assert.GreaterOrEqual(t, cfg.NumWorkers, 1)
	assert.Equal(t, cfg.NumWorkers > 1, cfg.Enabled)
	assert.GreaterOrEqual(t, cfg.Workers(1000), 1)
}

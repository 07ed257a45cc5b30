package parallel

import (
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

func TestParallelizeCoversEveryIndexOnce(t *testing.T) {
	for _, items := range []int{0, 1, 7, 100, 1001} {
		seen := make([]int32, items)
		maxWorker := int32(-1)
		Parallelize(items, func(worker, start, end int) {
			for {
				cur := atomic.LoadInt32(&maxWorker)
				if int32(worker) <= cur || atomic.CompareAndSwapInt32(&maxWorker, cur, int32(worker)) {
					break
				}
			}
			for i := start; i < end; i++ {
				atomic.AddInt32(&seen[i], 1)
			}
		})
		for i, n := range seen {
			assert.Equal(t, int32(1), n, "items=%d index %d", items, i)
		}
		if items > 0 {
			assert.Less(t, int(maxWorker), Workers(items))
		}
	}
}

func TestParallelizeWithThresholdRunsInline(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 32, func(worker, start, end int) {
		calls++
		assert.Equal(t, 0, worker)
		assert.Equal(t, 0, start)
		assert.Equal(t, 10, end)
	})
	assert.Equal(t, 1, calls)

	ParallelizeWithThreshold(0, 32, func(worker, start, end int) {
		t.Fatal("must not be called for zero items")
	})
}

func TestRun(t *testing.T) {
	t.Run("success covers every index", func(t *testing.T) {
		var count int32
		err := Run("sum", 50, 1, func(_, start, end int) error {
			atomic.AddInt32(&count, int32(end-start))
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, int32(50), count)
	})

	t.Run("panic in worker goroutine", func(t *testing.T) {
		err := Run("forward", 64, 1, func(_, start, end int) error {
			for i := start; i < end; i++ {
				if i == 63 {
					panic("index out of range")
				}
			}
			return nil
		})
		require.Error(t, err)
		var panicErr *errors.PanicError
		require.True(t, errors.As(err, &panicErr))
		assert.Equal(t, "forward", panicErr.Operation)
	})

	t.Run("panic on inline path", func(t *testing.T) {
		err := Run("forward", 1, 1, func(_, _, _ int) error {
			panic("boom")
		})
		var panicErr *errors.PanicError
		assert.True(t, errors.As(err, &panicErr))
	})

	t.Run("first error in worker order", func(t *testing.T) {
		err := Run("step", 100, 1, func(w, _, _ int) error {
			return errors.Newf("worker %d failed", w)
		})
		require.Error(t, err)
		assert.Contains(t, err.Error(), "worker 0 failed")
	})
}

// Package parallel splits index ranges across CPU cores.
package parallel

import (
	"runtime"
	"sync"

	"github.com/YuminosukeSato/petclassifier/pkg/errors"
)

// Workers returns how many workers Parallelize would use for items.
func Workers(items int) int {
	n := runtime.NumCPU()
	if n > items {
		n = items
	}
	if n < 1 {
		n = 1
	}
	return n
}

// Parallelize divides [0, items) into contiguous chunks, one per worker, and
// calls fn(worker, start, end) for each chunk concurrently. Worker indices are
// dense in [0, Workers(items)), so callers can preallocate per-worker buffers.
func Parallelize(items int, fn func(worker, start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := Workers(items)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup
	for w := 0; w < numWorkers; w++ {
		start := w * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(w, s, e int) {
			defer wg.Done()
			fn(w, s, e)
		}(w, start, end)
	}
	wg.Wait()
}

// ParallelizeWithThreshold runs fn(0, 0, items) on the calling goroutine when
// items is at most threshold, and falls back to Parallelize otherwise.
func ParallelizeWithThreshold(items int, threshold int, fn func(worker, start, end int)) {
	if items <= threshold {
		if items > 0 {
			fn(0, 0, items)
		}
		return
	}
	Parallelize(items, fn)
}

// Run is ParallelizeWithThreshold for callbacks that can fail. Each worker
// runs under errors.SafeExecute, so a panic inside a worker goroutine becomes
// a PanicError instead of crashing the process. Errors are collected per
// worker and the first one in worker order is returned.
func Run(operation string, items, threshold int, fn func(worker, start, end int) error) error {
	errs := make([]error, Workers(items))
	ParallelizeWithThreshold(items, threshold, func(w, start, end int) {
		errs[w] = errors.SafeExecute(operation, func() error {
			return fn(w, start, end)
		})
	})
	for _, err := range errs {
		if err != nil {
			return err
		}
	}
	return nil
}

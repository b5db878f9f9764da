// Package parallel provides the execution strategies used to fit and score
// independent ensemble members.
package parallel

import (
	"runtime"
	"sync"

	"golang.org/x/sync/errgroup"

	scierrors "github.com/YuminosukeSato/goensemble/pkg/errors"
)

// Strategy selects how per-member work is dispatched. Both strategies produce
// identical observable results: outputs are always assembled in index order,
// never completion order.
type Strategy int

const (
	// StrategySequential runs members one after another in index order.
	StrategySequential Strategy = iota
	// StrategyParallel fans members out over worker goroutines and fans the
	// results back in by index.
	StrategyParallel
)

// String returns the strategy name used in logs and params maps.
func (s Strategy) String() string {
	if s == StrategyParallel {
		return "parallel"
	}
	return "sequential"
}

// MapOrdered invokes fn(i) once for every i in [0, n). fn must write its
// result into a caller-owned slice at index i; no two invocations share an
// index, so no locking is needed. The first error aborts the whole map and is
// returned; panics inside fn are recovered and surface as errors.
func MapOrdered(strategy Strategy, n int, fn func(i int) error) error {
	if n == 0 {
		return nil
	}

	if strategy == StrategySequential {
		for i := 0; i < n; i++ {
			idx := i
			if err := scierrors.SafeExecute("parallel.MapOrdered", func() error { return fn(idx) }); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(runtime.NumCPU())
	for i := 0; i < n; i++ {
		idx := i
		g.Go(func() error {
			return scierrors.SafeExecute("parallel.MapOrdered", func() error { return fn(idx) })
		})
	}
	return g.Wait()
}

// Parallelize divides the specified total number (items) according to the number
// of CPU cores, and executes the specified function (fn) in parallel for each
// range (start, end).
func Parallelize(items int, fn func(start, end int)) {
	if items == 0 {
		return
	}

	numWorkers := runtime.NumCPU()
	if numWorkers > items {
		numWorkers = items // No need for more workers than items
	}

	// Calculate the number of items each worker handles (ceiling division)
	chunkSize := (items + numWorkers - 1) / numWorkers

	var wg sync.WaitGroup

	for i := 0; i < numWorkers; i++ {
		start := i * chunkSize
		end := start + chunkSize
		if end > items {
			end = items
		}

		// Skip if there's no range to handle
		if start >= end {
			continue
		}

		wg.Add(1)
		go func(s, e int) {
			defer wg.Done()
			fn(s, e)
		}(start, end)
	}

	wg.Wait()
}

// ParallelizeWithThreshold performs parallelization only when the number of
// items exceeds the threshold. Below the threshold the work runs sequentially;
// goroutine startup costs more than it saves on small inputs.
func ParallelizeWithThreshold(items int, threshold int, fn func(start, end int)) {
	if items <= threshold {
		fn(0, items)
		return
	}

	Parallelize(items, fn)
}

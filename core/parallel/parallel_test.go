package parallel

import (
	"sync/atomic"
	"testing"

	scierrors "github.com/YuminosukeSato/goensemble/pkg/errors"
)

func TestMapOrderedSequentialAndParallelAgree(t *testing.T) {
	const n = 64

	run := func(strategy Strategy) []int {
		out := make([]int, n)
		err := MapOrdered(strategy, n, func(i int) error {
			out[i] = i * i
			return nil
		})
		if err != nil {
			t.Fatalf("MapOrdered(%v) failed: %v", strategy, err)
		}
		return out
	}

	seq := run(StrategySequential)
	par := run(StrategyParallel)

	for i := range seq {
		if seq[i] != par[i] {
			t.Fatalf("index %d: sequential %d != parallel %d", i, seq[i], par[i])
		}
	}
}

func TestMapOrderedPropagatesError(t *testing.T) {
	wantErr := scierrors.New("member 3 failed")

	for _, strategy := range []Strategy{StrategySequential, StrategyParallel} {
		err := MapOrdered(strategy, 8, func(i int) error {
			if i == 3 {
				return wantErr
			}
			return nil
		})
		if err == nil {
			t.Errorf("MapOrdered(%v) should surface the member error", strategy)
		}
	}
}

func TestMapOrderedRecoversPanic(t *testing.T) {
	err := MapOrdered(StrategyParallel, 4, func(i int) error {
		if i == 2 {
			panic("bad member")
		}
		return nil
	})
	if err == nil {
		t.Fatal("panic in a member must abort the map with an error")
	}

	var panicErr *scierrors.PanicError
	if !scierrors.As(err, &panicErr) {
		t.Errorf("expected PanicError, got %T: %v", err, err)
	}
}

func TestMapOrderedZeroItems(t *testing.T) {
	called := false
	if err := MapOrdered(StrategyParallel, 0, func(i int) error { called = true; return nil }); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if called {
		t.Error("fn must not be called for n == 0")
	}
}

func TestParallelizeCoversAllItems(t *testing.T) {
	const items = 1000
	var total int64

	Parallelize(items, func(start, end int) {
		atomic.AddInt64(&total, int64(end-start))
	})

	if total != items {
		t.Errorf("covered %d items, want %d", total, items)
	}
}

func TestParallelizeWithThresholdSequentialBelowThreshold(t *testing.T) {
	calls := 0
	ParallelizeWithThreshold(10, 100, func(start, end int) {
		calls++
		if start != 0 || end != 10 {
			t.Errorf("expected single range [0,10), got [%d,%d)", start, end)
		}
	})
	if calls != 1 {
		t.Errorf("expected one sequential call, got %d", calls)
	}
}

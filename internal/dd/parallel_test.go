package dd

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/google/go-cmp/cmp"
)

// TestParallelSequentialEquivalence covers the parallel/sequential
// equivalence invariant (§8): for a deterministic tester, a purely
// subset-or-complement iterator, and a cold cache, both engines
// converge on the same minimal result.
func TestParallelSequentialEquivalence(t *testing.T) {
	initial := Config{1, 2, 3, 4, 5, 6, 7, 8}
	required := []int{1, 2, 3, 4, 6, 8}

	predicate := func(c Config) Outcome {
		if containsAll(c, required...) {
			return Fail
		}

		return Pass
	}

	seqTester := TesterFunc(func(_ context.Context, c Config, _ ConfigID) (Outcome, error) {
		return predicate(c), nil
	})

	seqResult := reduceSequential(t, initial, seqTester, Options{DDStar: true})

	parTester := TesterFunc(func(_ context.Context, c Config, _ ConfigID) (Outcome, error) {
		return predicate(c), nil
	})

	parOpts := ParallelOptions{
		Options: Options{DDStar: true, Tester: parTester, Cache: NewSharedCache(NewNoCache())},
		ProcNum: 4,
	}

	parResult, err := NewParallel(parOpts).Reduce(context.Background(), initial)
	if err != nil {
		t.Fatalf("parallel Reduce: %v", err)
	}

	if diff := cmp.Diff(seqResult, parResult); diff != "" {
		t.Fatalf("parallel result diverged from sequential (-want +got):\n%s", diff)
	}
}

func TestParallelDefaultsProcNumToOne(t *testing.T) {
	p := NewParallel(ParallelOptions{})
	if p.opts.ProcNum != 1 {
		t.Fatalf("ProcNum = %d, want 1", p.opts.ProcNum)
	}
}

func TestParallelWorkerErrorAbortsReduction(t *testing.T) {
	initial := Config{1, 2, 3, 4}

	boom := errors.New("tester exploded")

	var calls int64
	tester := TesterFunc(func(_ context.Context, _ Config, id ConfigID) (Outcome, error) {
		if id.IsAssert() {
			return Fail, nil
		}

		n := atomic.AddInt64(&calls, 1)
		if n == 1 {
			return Pass, boom
		}

		return Pass, nil
	})

	opts := ParallelOptions{
		Options: Options{DDStar: true, Tester: tester, Cache: NewSharedCache(NewNoCache())},
		ProcNum: 2,
	}

	_, err := NewParallel(opts).Reduce(context.Background(), initial)

	var reductionErr *ReductionError
	if !errors.As(err, &reductionErr) {
		t.Fatalf("err = %v (%T), want *ReductionError", err, err)
	}

	if !errors.Is(err, ErrWorkerFailed) {
		t.Fatal("error does not wrap ErrWorkerFailed")
	}
}

func TestParallelRespectsStopLimit(t *testing.T) {
	initial := Config{1, 2, 3, 4, 5, 6, 7, 8}

	tester := TesterFunc(func(_ context.Context, c Config, _ ConfigID) (Outcome, error) {
		if containsAll(c, 5, 8) {
			return Fail, nil
		}

		return Pass, nil
	})

	opts := ParallelOptions{
		Options: Options{
			DDStar: true,
			Tester: tester,
			Cache:  NewSharedCache(NewNoCache()),
			Stop:   NewLimitReduction(-1, 0),
		},
		ProcNum: 2,
	}

	got, err := NewParallel(opts).Reduce(context.Background(), initial)

	stopped, ok := err.(*ReductionStopped)
	if !ok {
		t.Fatalf("err = %v (%T), want *ReductionStopped", err, err)
	}

	if diff := cmp.Diff(initial, got); diff != "" {
		t.Fatalf("returned config mismatch (-want +got):\n%s", diff)
	}

	_ = stopped
}

package dd

import (
	"context"
	"errors"
	"fmt"
	"sync"
)

// ParallelOptions extends Options with the worker pool's dispatch
// discipline. Cache should be a [SharedCache] (or otherwise safe for
// concurrent use) whenever ProcNum > 1.
type ParallelOptions struct {
	Options

	// ProcNum bounds how many tester calls run concurrently. <= 0
	// means 1 (degrades to fully sequential dispatch, still useful for
	// exercising the same code path with a single worker).
	ProcNum int

	// MaxUtilization, if > 0, is a CPU utilization percentage the
	// dispatcher will not knowingly exceed: before acquiring a worker
	// slot it waits for system utilization to fall at or below this
	// threshold.
	MaxUtilization float64
}

// Parallel is the worker-pool reduction engine. Within one reduce
// step it tests as many candidates concurrently as ProcNum allows and
// reports the smallest-position FAIL among the candidates that
// completed. When every dispatched candidate completes, that is the
// candidate the sequential engine would have chosen for the same
// iterator order, tester, and cache contents; a candidate whose test
// was cancelled while in flight is not considered (§4.8, §5).
type Parallel struct {
	opts ParallelOptions
}

// NewParallel builds a Parallel engine from opts.
func NewParallel(opts ParallelOptions) *Parallel {
	if opts.ProcNum <= 0 {
		opts.ProcNum = 1
	}

	return &Parallel{opts: opts}
}

func (p *Parallel) Reduce(ctx context.Context, initial Config) (Config, error) {
	e := newEngine(p.opts.Options, p.reduceStep)
	p.opts.Options = e.opts

	return e.run(ctx, initial)
}

// candidateMeta precomputes everything about one position in the
// iterator order that does not depend on a test's outcome, so the
// winner can be resolved after the fact purely by position.
type candidateMeta struct {
	id           ConfigID
	subsetIndex  int
	isComplement bool
	k            int // resolved complement index ((subsetIndex+offset) mod n), meaningful only if isComplement
}

type slotResult struct {
	has     bool
	outcome Outcome
	err     error
}

// reduceStep dispatches candidates in the combined iterator's order to
// a bounded worker pool until a FAIL or an error is seen, then resolves
// the winner as the smallest-position FAIL or error among the
// candidates that actually completed. Candidates whose test returned
// context.Canceled are skipped, so the result equals that of a
// strictly sequential walk of the same order whenever no candidate
// before the winner was cancelled.
func (p *Parallel) reduceStep(ctx context.Context, run int, subsets Subsets, complementOffset int) (Subsets, int, error) {
	n := len(subsets)
	order := p.opts.Iterator.Iterate(n)
	current := Flatten(subsets)

	metas := make([]candidateMeta, len(order))
	for pos, signed := range order {
		subsetIndex, isComplement := DecodeIndex(signed)
		m := candidateMeta{subsetIndex: subsetIndex, isComplement: isComplement}

		if isComplement {
			m.k = (subsetIndex + complementOffset) % n
			m.id = ConfigID{fmt.Sprintf("r%d", run), fmt.Sprintf("c%d", m.k)}
		} else {
			m.id = ConfigID{fmt.Sprintf("r%d", run), fmt.Sprintf("s%d", subsetIndex)}
		}

		metas[pos] = m
	}

	results := make([]slotResult, len(order))

	workerCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	var (
		mu          sync.Mutex
		wg          sync.WaitGroup
		sawTerminal bool
		stopErr     *ReductionStopped
	)
	sem := make(chan struct{}, p.opts.ProcNum)

dispatch:
	for pos, m := range metas {
		mu.Lock()
		terminal := sawTerminal
		mu.Unlock()

		if terminal {
			break dispatch
		}

		candidate := candidateFor(subsets, m)

		if outcome, ok := p.opts.Cache.Lookup(candidate); ok {
			mu.Lock()
			results[pos] = slotResult{has: true, outcome: outcome}
			if outcome == Fail {
				sawTerminal = true
				cancel()
			}
			mu.Unlock()

			continue
		}

		if p.opts.MaxUtilization > 0 {
			waitForUtilization(workerCtx, p.opts.MaxUtilization)
		}

		if p.opts.Stop != nil {
			// current, the run's known-FAIL config, not candidate (an
			// as-yet-unverified proper subset/complement of it) - a
			// *ReductionStopped* raised here must still report the
			// smallest failing config observed so far.
			if stopped := p.opts.Stop.Check(current); stopped != nil {
				mu.Lock()
				stopErr = stopped
				mu.Unlock()

				break dispatch
			}
		}

		select {
		case sem <- struct{}{}:
		case <-workerCtx.Done():
			break dispatch
		}

		wg.Add(1)

		go func(pos int, candidate Config, id ConfigID) {
			defer wg.Done()
			defer func() { <-sem }()
			defer func() {
				if r := recover(); r != nil {
					mu.Lock()
					defer mu.Unlock()

					results[pos] = slotResult{has: true, err: fmt.Errorf("tester panicked: %v", r)}
					sawTerminal = true
					cancel()
				}
			}()

			outcome, err := p.opts.Tester.Test(workerCtx, candidate, id)

			mu.Lock()
			defer mu.Unlock()

			results[pos] = slotResult{has: true, outcome: outcome, err: err}

			if err == nil {
				p.opts.Cache.Add(candidate, outcome)
			}

			if err != nil || outcome == Fail {
				sawTerminal = true
				cancel()
			}
		}(pos, candidate, m.id)
	}

	wg.Wait()

	if stopErr != nil {
		return nil, 0, stopErr
	}

	for pos, r := range results {
		if !r.has {
			continue
		}

		if r.err != nil {
			if errors.Is(r.err, context.Canceled) {
				// This worker was still in flight when an earlier- or
				// later-position sibling produced the terminal result
				// that triggered cancel(); it never actually completed,
				// so it has no vote in winner resolution (§4.8).
				continue
			}

			return nil, 0, NewReductionError(fmt.Errorf("%w: %w", ErrWorkerFailed, r.err), Flatten(subsets))
		}

		if r.outcome == Fail {
			m := metas[pos]
			if !m.isComplement {
				return Subsets{subsets[m.subsetIndex].Clone()}, 0, nil
			}

			return withoutSubsetIndex(subsets, m.k), m.k, nil
		}
	}

	return nil, complementOffset, nil
}

// candidateFor materializes the config a candidate metadata entry
// refers to.
func candidateFor(subsets Subsets, m candidateMeta) Config {
	if m.isComplement {
		return WithoutSubset(subsets, m.k)
	}

	return subsets[m.subsetIndex].Clone()
}

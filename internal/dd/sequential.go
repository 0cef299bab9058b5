package dd

import (
	"context"
	"fmt"
)

// Sequential is the single-threaded reduction engine: one candidate is
// tested at a time, in the order produced by the combined iterator.
type Sequential struct {
	opts Options
}

// NewSequential builds a Sequential engine from opts.
func NewSequential(opts Options) *Sequential {
	return &Sequential{opts: opts}
}

// Reduce runs ddmin (optionally extended to its dd-star fixed point)
// over initial, which must already be interesting.
func (s *Sequential) Reduce(ctx context.Context, initial Config) (Config, error) {
	e := newEngine(s.opts, s.reduceStep)
	s.opts = e.opts

	return e.run(ctx, initial)
}

// reduceStep implements §4.7's reduce step: walk the combined
// iterator's signed index stream over the current subsets in order,
// looking up each candidate in the cache before falling back to the
// tester, and stop at the first FAIL.
func (s *Sequential) reduceStep(ctx context.Context, run int, subsets Subsets, complementOffset int) (Subsets, int, error) {
	n := len(subsets)
	order := s.opts.Iterator.Iterate(n)
	current := Flatten(subsets)

	for _, signed := range order {
		subsetIndex, isComplement := DecodeIndex(signed)

		var (
			candidate Config
			id        ConfigID
			onFail    func() (Subsets, int)
		)

		if !isComplement {
			candidate = subsets[subsetIndex]
			id = ConfigID{fmt.Sprintf("r%d", run), fmt.Sprintf("s%d", subsetIndex)}
			onFail = func() (Subsets, int) {
				return Subsets{candidate.Clone()}, 0
			}
		} else {
			k := (subsetIndex + complementOffset) % n
			candidate = WithoutSubset(subsets, k)
			id = ConfigID{fmt.Sprintf("r%d", run), fmt.Sprintf("c%d", k)}
			onFail = func() (Subsets, int) {
				return withoutSubsetIndex(subsets, k), k
			}
		}

		outcome, err := s.evaluate(ctx, candidate, id, current)
		if err != nil {
			return nil, 0, err
		}

		if outcome == Fail {
			next, offset := onFail()
			return next, offset, nil
		}
	}

	return nil, complementOffset, nil
}

// evaluate looks up candidate in the cache, falling back to the stop
// check and the tester on a miss, and records the fresh outcome. current
// is the run's current known-FAIL config (not candidate, which is an
// as-yet-unverified proper subset/complement of it), so a *ReductionStopped*
// raised here still reports the smallest failing config observed so far.
func (s *Sequential) evaluate(ctx context.Context, candidate Config, id ConfigID, current Config) (Outcome, error) {
	if outcome, ok := s.opts.Cache.Lookup(candidate); ok {
		s.opts.Logger.Debug("cache hit", "id", id.String(), "outcome", outcome.String())
		return outcome, nil
	}

	if s.opts.Stop != nil {
		if stopped := s.opts.Stop.Check(current); stopped != nil {
			return Pass, stopped
		}
	}

	outcome, err := s.opts.Tester.Test(ctx, candidate, id)
	if err != nil {
		return Pass, NewReductionError(fmt.Errorf("%w: %w", ErrTesterFailed, err), current)
	}

	s.opts.Cache.Add(candidate, outcome)

	return outcome, nil
}

// withoutSubsetIndex returns the partition obtained by dropping
// subsets[k] entirely (not just its atoms from the flattened config -
// the next run's granularity also decreases by one).
func withoutSubsetIndex(subsets Subsets, k int) Subsets {
	next := make(Subsets, 0, len(subsets)-1)
	for i, s := range subsets {
		if i != k {
			next = append(next, s)
		}
	}

	return next
}

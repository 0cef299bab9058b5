package dd

import (
	"context"
	"fmt"
	"log/slog"
)

// Limiter is the stop-condition contract the engine checks before
// every test it actually dispatches (never on a cache hit).
type Limiter interface {
	Check(result Config) *ReductionStopped
}

// Options configures a reduction run, shared by the sequential and
// parallel engines.
type Options struct {
	Tester      Tester
	Builder     TestBuilder
	Cache       OutcomeCache // defaults to NewNoCache() if nil
	Splitter    Splitter     // defaults to NewZellerSplit(2) if nil
	Iterator    *CombinedIterator
	DDStar      bool // dd-star fixed-point extension; true is the conventional default
	Stop        Limiter

	// Logger receives structured progress output (iteration and config
	// size at Info; run, granularity, complement offset and the
	// sequential engine's cache hits at Debug). Defaults to
	// slog.Default() when nil.
	Logger *slog.Logger
}

// reduceStepFunc runs one reduce step: enumerate candidates over the
// current subsets and complement_offset, and either return a refined
// partition and the complement_offset to carry forward, or (nil,
// complementOffset) if no candidate failed.
type reduceStepFunc func(ctx context.Context, run int, subsets Subsets, complementOffset int) (next Subsets, nextOffset int, err error)

// engine holds the state threaded through the outer dd-star loop and
// the per-iteration run loop; step implements the strategy-specific
// (sequential vs. parallel) reduce step.
type engine struct {
	opts Options
	step reduceStepFunc
}

func newEngine(opts Options, step reduceStepFunc) *engine {
	if opts.Cache == nil {
		opts.Cache = NewNoCache()
	}

	if opts.Splitter == nil {
		opts.Splitter, _ = NewZellerSplit(2)
	}

	if opts.Iterator == nil {
		opts.Iterator = NewCombinedIterator(true, nil, nil)
	}

	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}

	opts.Cache.SetTestBuilder(opts.Builder)

	return &engine{opts: opts, step: step}
}

// run drives the outer dd-star loop and, within each iteration, the
// run loop of §4.7/§4.8. initial must already be interesting (FAIL).
func (e *engine) run(ctx context.Context, initial Config) (Config, error) {
	config := initial.Clone()

	for iteration := 0; ; iteration++ {
		e.opts.Logger.Info("dd iteration start", "iteration", iteration, "config_size", len(config))

		next, changed, err := e.runLoop(ctx, iteration, config)
		if err != nil {
			return next, err
		}

		e.opts.Logger.Info("dd iteration done", "iteration", iteration, "config_size", len(next), "changed", changed)

		config = next

		if !e.opts.DDStar || !changed {
			return config, nil
		}
	}
}

// runLoop executes one dd-star iteration's run loop (§4.7 steps 1-7)
// and reports whether any reduction occurred.
func (e *engine) runLoop(ctx context.Context, iteration int, config Config) (Config, bool, error) {
	subsets := Subsets{config}
	complementOffset := 0
	changed := false

	for run := 0; ; run++ {
		if err := e.assertStillFail(ctx, iteration, run, config); err != nil {
			return config, changed, err
		}

		if len(config) < 2 {
			return config, changed, nil
		}

		if len(subsets) < 2 {
			subsets = e.opts.Splitter.Split(subsets)
		}

		e.opts.Logger.Debug("dd run start", "run", run, "granularity", len(subsets), "complement_offset", complementOffset)

		next, nextOffset, err := e.step(ctx, run, subsets, complementOffset)
		if err != nil {
			return config, changed, err
		}

		if next != nil {
			subsets = next
			complementOffset = nextOffset
			config = Flatten(subsets)
			changed = true

			continue
		}

		if len(subsets) < len(config) {
			prevLen := len(subsets)
			refined := e.opts.Splitter.Split(subsets)
			complementOffset = complementOffset * len(refined) / prevLen
			subsets = refined

			continue
		}

		return config, changed, nil
	}
}

// assertStillFail re-checks that config is still FAIL using an
// "assert"-tagged id, which suppresses cache writes (§4.9: the cache
// never contains a configuration whose assert-tagged id was tested).
// The outcome is deliberately not looked up in the cache either - an
// assert re-check must hit the real tester.
func (e *engine) assertStillFail(ctx context.Context, iteration, run int, config Config) error {
	id := ConfigID{fmt.Sprintf("i%d", iteration), fmt.Sprintf("r%d", run), "assert"}

	outcome, err := e.opts.Tester.Test(ctx, config, id)
	if err != nil {
		return NewReductionError(fmt.Errorf("%w: %w", ErrTesterFailed, err), config)
	}

	if outcome != Fail {
		return assertFailed(id, config)
	}

	return nil
}

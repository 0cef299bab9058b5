package dd

import (
	"errors"
	"fmt"
)

// Sentinel errors wrapped by the concrete reduction exceptions below
// and inspected with errors.Is at call sites, following the same
// convention as the rest of this repository's packages.
var (
	// ErrAssertFailed is wrapped by a ReductionError raised when the
	// debug re-check at the top of a run finds that the current
	// config is no longer FAIL. The tester is assumed non-deterministic
	// at that point; the engine does not attempt to recover.
	ErrAssertFailed = errors.New("config no longer reproduces FAIL")

	// ErrTesterFailed is wrapped by a ReductionError raised when a
	// Tester call itself returns an error.
	ErrTesterFailed = errors.New("tester failed")

	// ErrWorkerFailed is wrapped by a ReductionError raised when a
	// parallel worker panics or otherwise cannot report an outcome.
	ErrWorkerFailed = errors.New("worker failed")

	// ErrInvalidSplitFactor is returned by splitter constructors when
	// n < 2 and n is not [Infinite].
	ErrInvalidSplitFactor = errors.New("split factor must be at least 2")

	// ErrCacheFailUnsupported is returned by cache constructors that
	// refuse cache_fail=true outright instead of silently ignoring it.
	// Unused by the cache implementations in this package (which elect
	// the silent-ignore option per spec's open question), kept for
	// cache implementations added by callers that want the stricter
	// behavior.
	ErrCacheFailUnsupported = errors.New("this cache cannot safely store FAIL outcomes")
)

// ReductionException is the common shape of [ReductionStopped] and
// [ReductionError]: both carry the smallest failing config observed
// so far so the driver can still emit a usable, if non-minimal,
// result.
type ReductionException struct {
	Result Config
	cause  error
}

func (e *ReductionException) Error() string {
	return e.cause.Error()
}

func (e *ReductionException) Unwrap() error {
	return e.cause
}

// ReductionStopped signals cooperative termination, e.g. because a
// [LimitReduction] deadline or test-count budget was reached. It is
// not a failure: the driver should emit Result and exit normally.
type ReductionStopped struct {
	*ReductionException
}

// NewReductionStopped builds a ReductionStopped carrying a
// human-readable reason and the best config found so far.
func NewReductionStopped(reason string, result Config) *ReductionStopped {
	return &ReductionStopped{&ReductionException{Result: result, cause: errors.New(reason)}}
}

// ReductionError signals that an unexpected error occurred during
// reduction (a tester failure, a worker crash, or a failed debug
// invariant). It is fatal; callers should surface Result and a
// non-zero exit status.
type ReductionError struct {
	*ReductionException
}

// NewReductionError wraps cause into a ReductionError carrying the
// best config found so far.
func NewReductionError(cause error, result Config) *ReductionError {
	return &ReductionError{&ReductionException{Result: result, cause: cause}}
}

// assertFailed builds the ReductionError raised by a failed debug
// re-check (see engine.go).
func assertFailed(id ConfigID, result Config) *ReductionError {
	return NewReductionError(fmt.Errorf("%w: %s", ErrAssertFailed, id), result)
}

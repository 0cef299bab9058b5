package dd

import "time"

// LimitReduction is a stop condition checked immediately before each
// test is dispatched (never on a cache hit, since a cache hit performs
// no work). Either bound is disabled by passing a negative duration /
// a negative test count to [NewLimitReduction] - zero is a legitimate,
// immediately-exhausted budget, not "unset".
//
// Check is only ever called from the goroutine that dispatches tests -
// the sequential engine's single loop, or the parallel engine's single
// dispatch loop - so it needs no internal locking.
type LimitReduction struct {
	hasDeadline bool
	deadline    time.Time
	hasMaxTests bool
	testsLeft   int
}

// NewLimitReduction builds a limiter. A negative limitTime disables
// the deadline; a negative maxTests disables the test-count budget.
// maxTests == 0 is a real budget of zero: the very next Check stops
// the reduction before any candidate is tested.
func NewLimitReduction(limitTime time.Duration, maxTests int) *LimitReduction {
	l := &LimitReduction{}

	if limitTime >= 0 {
		l.hasDeadline = true
		l.deadline = time.Now().Add(limitTime)
	}

	if maxTests >= 0 {
		l.hasMaxTests = true
		l.testsLeft = maxTests
	}

	return l
}

// Check returns a *ReductionStopped wrapping result if either bound
// has now been reached, nil otherwise, mirroring the reference
// implementation's check-before-consume order: the test-count budget
// is examined before it is decremented, so a budget of zero stops the
// very first call.
func (l *LimitReduction) Check(result Config) *ReductionStopped {
	if l.hasDeadline && !time.Now().Before(l.deadline) {
		return NewReductionStopped("time limit reached", result)
	}

	if l.hasMaxTests {
		if l.testsLeft <= 0 {
			return NewReductionStopped("test limit reached", result)
		}

		l.testsLeft--
	}

	return nil
}

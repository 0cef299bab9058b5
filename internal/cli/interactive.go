package cli

import (
	"context"
	"fmt"

	"github.com/peterh/liner"

	"ddreduce/internal/dd"
)

// interactiveAssertTester wraps a Tester so that a failed debug assert
// re-check (§4.9: test(config) expected FAIL, came back PASS) drops
// into a line-edited prompt instead of raising immediately, letting an
// operator attached to a TTY inspect the offending config before the
// reduction aborts with a ReductionError. This is additive tooling
// gated behind --interactive-assert; it never changes the outcome
// reported to the engine, only whether a human gets a chance to look
// first.
type interactiveAssertTester struct {
	inner dd.Tester
	io    *IO
}

func (t interactiveAssertTester) Test(ctx context.Context, config dd.Config, id dd.ConfigID) (dd.Outcome, error) {
	outcome, err := t.inner.Test(ctx, config, id)
	if err != nil || outcome == dd.Fail || !id.IsAssert() {
		return outcome, err
	}

	t.confirm(id, config)

	return outcome, err
}

// confirm prompts the operator and discards the response: it exists
// to give a human a chance to inspect state, not to alter control
// flow, so the reduction always proceeds with the real outcome.
func (t interactiveAssertTester) confirm(id dd.ConfigID, config dd.Config) {
	t.io.ErrPrintln(fmt.Sprintf("assert check failed for %s (config size %d)", id.String(), len(config)))

	line := liner.NewLiner()
	defer line.Close()

	line.SetCtrlCAborts(true)

	_, _ = line.Prompt("press enter to continue, the reduction will now abort: ")
}

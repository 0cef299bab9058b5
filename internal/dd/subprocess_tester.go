package dd

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"
	"syscall"

	"golang.org/x/sys/unix"

	"ddreduce/internal/fs"
)

// SubprocessTester wraps an external command: a config is materialized
// to a file under a per-test scratch directory, the command is run
// against it, and the exit code decides the outcome. Exit code 0 means
// FAIL (the interesting behavior reproduced) - this mirrors the common
// "bug reproducer script" convention the reference tooling uses, not
// the usual shell success/failure polarity.
type SubprocessTester struct {
	fs             fs.FS
	builder        *ConcatTestBuilder
	commandPattern []string
	workDir        string
	filename       string
	cleanup        bool
}

// SubprocessTesterOptions configures a SubprocessTester.
type SubprocessTesterOptions struct {
	FS             fs.FS
	Builder        *ConcatTestBuilder
	CommandPattern []string // each element containing "%s" has the test path substituted in
	WorkDir        string
	Filename       string
	Cleanup        bool
}

// NewSubprocessTester builds a SubprocessTester from opts.
func NewSubprocessTester(opts SubprocessTesterOptions) *SubprocessTester {
	return &SubprocessTester{
		fs:             opts.FS,
		builder:        opts.Builder,
		commandPattern: opts.CommandPattern,
		workDir:        opts.WorkDir,
		filename:       opts.Filename,
		cleanup:        opts.Cleanup,
	}
}

func (t *SubprocessTester) Test(ctx context.Context, config Config, id ConfigID) (Outcome, error) {
	testDir := filepath.Join(t.workDir, id.JoinUnderscore())
	testPath := filepath.Join(testDir, t.filename)

	if err := t.fs.MkdirAll(testDir, 0o755); err != nil {
		return Pass, fmt.Errorf("%w: creating test dir: %w", ErrTesterFailed, err)
	}

	if t.cleanup {
		defer t.fs.RemoveAll(testDir)
	}

	if err := t.fs.WriteFileAtomic(testPath, []byte(t.builder.Build(config)), 0o644); err != nil {
		return Pass, fmt.Errorf("%w: writing test case: %w", ErrTesterFailed, err)
	}

	args := make([]string, len(t.commandPattern))
	for i, arg := range t.commandPattern {
		args[i] = strings.ReplaceAll(arg, "%s", testPath)
	}

	if len(args) == 0 {
		return Pass, fmt.Errorf("%w: empty command pattern", ErrTesterFailed)
	}

	cmd := exec.Command(args[0], args[1:]...)
	cmd.Dir = testDir
	// Run the child in its own process group so a cancellation can kill
	// the whole tree it may have spawned, not just the direct child.
	cmd.SysProcAttr = &syscall.SysProcAttr{Setpgid: true}
	cmd.Stdout = nil
	cmd.Stderr = nil

	if err := cmd.Start(); err != nil {
		return Pass, fmt.Errorf("%w: starting command: %w", ErrTesterFailed, err)
	}

	done := make(chan error, 1)
	go func() { done <- cmd.Wait() }()

	select {
	case <-ctx.Done():
		killProcessGroup(cmd.Process.Pid)
		<-done

		return Pass, ctx.Err()

	case err := <-done:
		if err == nil {
			return Fail, nil
		}

		exitErr, ok := err.(*exec.ExitError)
		if !ok {
			return Pass, fmt.Errorf("%w: running command: %w", ErrTesterFailed, err)
		}

		if exitErr.ExitCode() == 0 {
			return Fail, nil
		}

		return Pass, nil
	}
}

// killProcessGroup sends SIGKILL to every process in pid's process
// group, so descendants spawned by the tester command are reaped too.
func killProcessGroup(pid int) {
	if pid <= 0 {
		return
	}

	_ = unix.Kill(-pid, unix.SIGKILL)
}

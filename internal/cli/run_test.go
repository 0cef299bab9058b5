package cli

import (
	"bytes"
	"strings"
	"testing"
)

func TestMainHelp(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		args []string
	}{
		{name: "no args", args: []string{"ddreduce"}},
		{name: "long flag", args: []string{"ddreduce", "--help"}},
		{name: "short flag", args: []string{"ddreduce", "-h"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			var stdout, stderr bytes.Buffer

			exitCode := Run(nil, &stdout, &stderr, testCase.args, nil, nil)

			if exitCode != 0 {
				t.Errorf("exit code = %d, want 0", exitCode)
			}

			if stderr.String() != "" {
				t.Errorf("stderr = %q, want empty", stderr.String())
			}

			out := stdout.String()

			if !strings.Contains(out, "ddreduce - parallel delta-debugging test case reducer") {
				t.Errorf("stdout should contain title")
			}

			if !strings.Contains(out, "--cwd") {
				t.Errorf("stdout should contain --cwd option")
			}

			if !strings.Contains(out, "reduce") {
				t.Errorf("stdout should contain reduce command")
			}
		})
	}
}

func TestUnknownCommandFails(t *testing.T) {
	r := NewCLI(t)

	stderr := r.MustFail("bogus")
	AssertContains(t, stderr, "unknown command")
}

func TestReduceHelp(t *testing.T) {
	r := NewCLI(t)

	stdout := r.MustRun("reduce", "--help")
	AssertContains(t, stdout, "Usage: ddreduce")
	AssertContains(t, stdout, "--test")
}

func TestExplicitConfigFileMustExist(t *testing.T) {
	r := NewCLI(t)

	stderr := r.MustFail("--config", "missing.json", "reduce")
	AssertContains(t, stderr, "error")
}

func TestCwdFlagChangesProjectConfigLookup(t *testing.T) {
	var stdout, stderr bytes.Buffer

	dir := t.TempDir()
	write(t, dir+"/"+ConfigFileName, `{"atom": "char"}`)

	// The --cwd flag, not the process's actual working directory,
	// determines where the project config file is discovered.
	exitCode := Run(nil, &stdout, &stderr, []string{"ddreduce", "--cwd", dir, "reduce", "--help"}, nil, nil)

	if exitCode != 0 {
		t.Fatalf("exit code = %d, stderr=%s", exitCode, stderr.String())
	}

	// The project config sets atom to "char", which becomes the reduce
	// command's --atom default shown in its help.
	if !strings.Contains(stdout.String(), `(default "char")`) {
		t.Fatalf("reduce help did not pick up the project config under --cwd:\n%s", stdout.String())
	}
}

package shared

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strings"
)

// Commander runs external programs.
//
// [ExecCommander] is the real implementation; tests substitute fakes.
type Commander interface {
	// Output runs name with args and returns its stdout.
	Output(ctx context.Context, name string, args ...string) ([]byte, error)

	// Stream runs name with args, copying stdout and stderr to w as the process runs.
	Stream(ctx context.Context, w io.Writer, name string, args ...string) error
}

// ExecCommander implements [Commander] with [os/exec].
type ExecCommander struct{}

// Output runs the command and returns stdout. A non-zero exit is returned as [*exec.ExitError]
// with the captured stderr attached.
func (ExecCommander) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr

	out, err := cmd.Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitErr.Stderr = stderr.Bytes()
			return out, exitErr
		}
		return out, fmt.Errorf("failed to run %s: %w", name, err)
	}
	return out, nil
}

// Stream runs the command to completion with its output forwarded to w.
func (ExecCommander) Stream(ctx context.Context, w io.Writer, name string, args ...string) error {
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stdout = w
	cmd.Stderr = w

	if err := cmd.Run(); err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return exitErr
		}
		return fmt.Errorf("failed to run %s: %w", name, err)
	}
	return nil
}

// ExitCode extracts the process exit code from err.
//
// Returns -1 when err did not come from a process that exited.
func ExitCode(err error) int {
	var coder interface{ ExitCode() int }
	if errors.As(err, &coder) {
		return coder.ExitCode()
	}
	return -1
}

// ExitStderr returns the trimmed stderr attached to an [*exec.ExitError], if any.
//
// Errors that are not from [os/exec] may expose their output through a StderrText method.
func ExitStderr(err error) string {
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		return strings.TrimSpace(string(exitErr.Stderr))
	}
	var texter interface{ StderrText() string }
	if errors.As(err, &texter) {
		return strings.TrimSpace(texter.StderrText())
	}
	return ""
}

// package testing contains shared testing utilities
package testing

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"os"
	"slices"
	"strings"
	"sync"
	"testing"
)

// Call is one recorded invocation of a [FakeCommander].
type Call struct {
	Name string
	Args []string
}

// String renders the call as a command line.
func (c Call) String() string {
	return strings.Join(append([]string{c.Name}, c.Args...), " ")
}

// CommandFunc produces the stdout and error for a fake command.
type CommandFunc func(name string, args []string) ([]byte, error)

// FakeCommander is a test double for shared.Commander that records calls.
type FakeCommander struct {
	mu      sync.Mutex
	calls   []Call
	handler CommandFunc
}

// NewFakeCommander returns a commander that answers every call with handler.
// A nil handler succeeds with no output.
func NewFakeCommander(handler CommandFunc) *FakeCommander {
	if handler == nil {
		handler = func(string, []string) ([]byte, error) { return nil, nil }
	}
	return &FakeCommander{handler: handler}
}

func (f *FakeCommander) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	f.record(name, args)
	return f.handler(name, args)
}

func (f *FakeCommander) Stream(ctx context.Context, w io.Writer, name string, args ...string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	f.record(name, args)
	out, err := f.handler(name, args)
	if len(out) > 0 {
		w.Write(out)
	}
	return err
}

// Calls returns a copy of the recorded calls.
func (f *FakeCommander) Calls() []Call {
	f.mu.Lock()
	defer f.mu.Unlock()
	return slices.Clone(f.calls)
}

func (f *FakeCommander) record(name string, args []string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, Call{Name: name, Args: slices.Clone(args)})
}

// ExitCodeError imitates a process that exited with Code and wrote Stderr.
type ExitCodeError struct {
	Code   int
	Stderr string
}

func (e *ExitCodeError) Error() string      { return fmt.Sprintf("exit status %d", e.Code) }
func (e *ExitCodeError) ExitCode() int      { return e.Code }
func (e *ExitCodeError) StderrText() string { return e.Stderr }

// FWriter always returns an error on Write
type FWriter struct{}

func (f *FWriter) Write(p []byte) (n int, err error) {
	return 0, errors.New("write failed")
}

// MockRoundTripper allows custom HTTP responses for testing
type MockRoundTripper struct {
	response *http.Response
	err      error
}

func NewMockRoundTripper(r *http.Response, e error) *MockRoundTripper {
	return &MockRoundTripper{response: r, err: e}
}

func (m *MockRoundTripper) RoundTrip(*http.Request) (*http.Response, error) {
	return m.response, m.err
}

// FCloser simulates a failure when reading response body
type FCloser struct{}

func (f *FCloser) Read(p []byte) (n int, err error) {
	return 0, errors.New("read failed")
}

func (f *FCloser) Close() error {
	return nil
}

func MustGetwd(t *testing.T) string {
	t.Helper()
	wd, err := os.Getwd()
	if err != nil {
		t.Fatalf("Failed to get working directory: %v", err)
	}
	return wd
}

func MustChdir(t *testing.T, dir string) {
	t.Helper()
	if err := os.Chdir(dir); err != nil {
		t.Fatalf("Failed to change directory to %s: %v", dir, err)
	}
}

func AssertFileExists(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Errorf("File does not exist: %s", path)
	}
}

func AssertNoFile(t *testing.T, path string) {
	t.Helper()
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Errorf("File should not exist: %s", path)
	}
}

func MustReadFile(t *testing.T, path string) string {
	t.Helper()
	content, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("Failed to read file %s: %v", path, err)
	}
	return string(content)
}

// ArgValue returns the argument following flag, or "" if flag is absent.
func ArgValue(args []string, flag string) string {
	i := slices.Index(args, flag)
	if i < 0 || i+1 >= len(args) {
		return ""
	}
	return args[i+1]
}

package services

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/readerprint/internal/shared"
	tu "github.com/desertthunder/readerprint/internal/testing"
)

const lpstatOutput = `printer Office is idle.  enabled since Mon 03 Mar 2025 09:12:44 AM
	Form mounted:
	Content types: any
	Description: Office Laser
	Alerts: none
	Location: Second floor
printer Home_Inkjet disabled since Sun 02 Mar 2025 08:00:00 PM -
	reason unknown
	Description: Home Inkjet
printer Label now printing Label-41.  enabled since Mon 03 Mar 2025 10:00:00 AM
`

func TestParseLpstat(t *testing.T) {
	printers := ParseLpstat([]byte(lpstatOutput))
	if len(printers) != 3 {
		t.Fatalf("expected 3 printers, got %d", len(printers))
	}

	tests := []struct {
		id, description, status string
	}{
		{"Office", "Office Laser", "idle"},
		{"Home_Inkjet", "Home Inkjet", "disabled"},
		{"Label", "", "printing"},
	}
	for i, tt := range tests {
		p := printers[i]
		if p.ID != tt.id || p.Description != tt.description || p.Status != tt.status {
			t.Errorf("printer %d = %+v, want %+v", i, p, tt)
		}
	}

	if got := ParseLpstat(nil); len(got) != 0 {
		t.Errorf("expected no printers for empty output, got %v", got)
	}
}

func TestLpArgs(t *testing.T) {
	options := map[string]string{
		"sides":         "two-sided-long-edge",
		"media":         "Letter",
		"print-quality": "",
	}

	got := strings.Join(LpArgs("/tmp/a.pdf", "Office", options), " ")
	want := "-d Office -o media=Letter -o sides=two-sided-long-edge /tmp/a.pdf"
	if got != want {
		t.Errorf("LpArgs() = %q, want %q", got, want)
	}

	if got := strings.Join(LpArgs("/tmp/a.pdf", "Office", nil), " "); got != "-d Office /tmp/a.pdf" {
		t.Errorf("LpArgs() without options = %q", got)
	}
}

func TestCUPSService(t *testing.T) {
	logger := log.New(io.Discard)
	ctx := context.Background()

	lpstat := func(name string, args []string) ([]byte, error) {
		if name != "lpstat" {
			t.Errorf("unexpected command %s", name)
		}
		return []byte(lpstatOutput), nil
	}

	t.Run("List", func(t *testing.T) {
		cmd := tu.NewFakeCommander(lpstat)
		printers, err := NewCUPSService(cmd, logger).List(ctx)
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if len(printers) != 3 {
			t.Errorf("expected 3 printers, got %d", len(printers))
		}
		if got := cmd.Calls()[0].String(); got != "lpstat -l -p" {
			t.Errorf("unexpected invocation %q", got)
		}
	})

	t.Run("List Without Destinations", func(t *testing.T) {
		cmd := tu.NewFakeCommander(func(string, []string) ([]byte, error) {
			return nil, &tu.ExitCodeError{Code: 1, Stderr: "lpstat: No destinations added."}
		})
		printers, err := NewCUPSService(cmd, logger).List(ctx)
		if err != nil || len(printers) != 0 {
			t.Errorf("expected empty list, got %v, %v", printers, err)
		}
	})

	t.Run("List Failure", func(t *testing.T) {
		cmd := tu.NewFakeCommander(func(string, []string) ([]byte, error) {
			return nil, &tu.ExitCodeError{Code: 1, Stderr: "lpstat: Bad file descriptor"}
		})
		if _, err := NewCUPSService(cmd, logger).List(ctx); err == nil {
			t.Error("expected error")
		}
	})

	t.Run("Find", func(t *testing.T) {
		svc := NewCUPSService(tu.NewFakeCommander(lpstat), logger)

		p, err := svc.Find(ctx, "Home_Inkjet")
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if p.Description != "Home Inkjet" {
			t.Errorf("unexpected printer %+v", p)
		}

		if _, err := svc.Find(ctx, "office"); !errors.Is(err, shared.ErrPrinterNotFound) {
			t.Errorf("match must be exact, got %v", err)
		}
	})

	t.Run("Submit", func(t *testing.T) {
		cmd := tu.NewFakeCommander(func(name string, args []string) ([]byte, error) {
			return []byte("request id is Office-12 (1 file(s))\n"), nil
		})

		jobID, err := NewCUPSService(cmd, logger).Submit(ctx, "/tmp/a.pdf", "Office", map[string]string{"sides": "two-sided-long-edge"})
		if err != nil {
			t.Fatalf("expected no error, got %v", err)
		}
		if jobID != "Office-12" {
			t.Errorf("expected job Office-12, got %q", jobID)
		}
		if got := cmd.Calls()[0].String(); got != "lp -d Office -o sides=two-sided-long-edge /tmp/a.pdf" {
			t.Errorf("unexpected invocation %q", got)
		}
	})

	t.Run("Submit Rejected", func(t *testing.T) {
		cmd := tu.NewFakeCommander(func(string, []string) ([]byte, error) {
			return nil, &tu.ExitCodeError{Code: 1, Stderr: "lp: The printer or class does not exist."}
		})

		_, err := NewCUPSService(cmd, logger).Submit(ctx, "/tmp/a.pdf", "Gone", nil)
		if !errors.Is(err, shared.ErrPrintFailed) {
			t.Fatalf("expected ErrPrintFailed, got %v", err)
		}

		var exitErr *shared.ExitError
		if !errors.As(err, &exitErr) || !strings.Contains(exitErr.Stderr, "does not exist") {
			t.Errorf("expected stderr to be carried, got %v", err)
		}
	})

	t.Run("Submit Without Request ID", func(t *testing.T) {
		jobID, err := NewCUPSService(tu.NewFakeCommander(nil), logger).Submit(ctx, "/tmp/a.pdf", "Office", nil)
		if err != nil || jobID != "" {
			t.Errorf("expected accepted job without id, got %q, %v", jobID, err)
		}
	})
}

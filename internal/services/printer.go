package services

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"regexp"
	"slices"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/shared"
)

var requestIDPattern = regexp.MustCompile(`request id is (\S+)`)

// CUPSService lists and feeds CUPS print queues through the lpstat and lp commands.
type CUPSService struct {
	cmd    shared.Commander
	logger *log.Logger
}

// NewCUPSService creates a CUPS client. A nil commander runs the real binaries.
func NewCUPSService(cmd shared.Commander, logger *log.Logger) *CUPSService {
	if cmd == nil {
		cmd = shared.ExecCommander{}
	}
	if logger == nil {
		logger = shared.NewLogger(nil)
	}
	return &CUPSService{cmd: cmd, logger: shared.WithLogger(logger, "service", "cups")}
}

// List returns every configured queue. No configured destinations is an empty list, not an error.
func (c *CUPSService) List(ctx context.Context) ([]models.Printer, error) {
	out, err := c.cmd.Output(ctx, "lpstat", "-l", "-p")
	if err != nil {
		if strings.Contains(shared.ExitStderr(err), "No destinations") {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to list printers: %w", err)
	}
	return ParseLpstat(out), nil
}

// Find returns the queue whose ID matches id exactly.
func (c *CUPSService) Find(ctx context.Context, id string) (*models.Printer, error) {
	printers, err := c.List(ctx)
	if err != nil {
		return nil, err
	}

	for i := range printers {
		if printers[i].ID == id {
			return &printers[i], nil
		}
	}
	return nil, fmt.Errorf("%w: %s", shared.ErrPrinterNotFound, id)
}

// Submit queues path on printerID and returns the CUPS request id.
//
// Options become -o key=value in key order; empty values are left to the device default.
func (c *CUPSService) Submit(ctx context.Context, path, printerID string, options map[string]string) (string, error) {
	args := LpArgs(path, printerID, options)
	c.logger.Debug("submitting print job", "printer", printerID, "args", args)

	out, err := c.cmd.Output(ctx, "lp", args...)
	if err != nil {
		if code := shared.ExitCode(err); code >= 0 {
			return "", &shared.ExitError{Kind: shared.ErrPrintFailed, Command: "lp", Code: code, Stderr: shared.ExitStderr(err)}
		}
		return "", fmt.Errorf("%w: %v", shared.ErrPrintFailed, err)
	}

	jobID := ""
	if m := requestIDPattern.FindSubmatch(out); m != nil {
		jobID = string(m[1])
	}
	c.logger.Info("print job accepted", "printer", printerID, "job", jobID)
	return jobID, nil
}

// LpArgs builds the lp argument list.
func LpArgs(path, printerID string, options map[string]string) []string {
	args := []string{"-d", printerID}

	keys := make([]string, 0, len(options))
	for k, v := range options {
		if strings.TrimSpace(k) != "" && strings.TrimSpace(v) != "" {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)

	for _, k := range keys {
		args = append(args, "-o", k+"="+options[k])
	}
	return append(args, path)
}

// ParseLpstat reads `lpstat -l -p` output.
//
//	printer Office is idle.  enabled since Mon 03 Mar 2025 09:12:44 AM
//		Description: Office Laser
func ParseLpstat(out []byte) []models.Printer {
	var printers []models.Printer

	scanner := bufio.NewScanner(bytes.NewReader(out))
	for scanner.Scan() {
		line := scanner.Text()

		if rest, ok := strings.CutPrefix(line, "printer "); ok {
			name, state, _ := strings.Cut(rest, " ")
			printers = append(printers, models.Printer{ID: name, Status: printerStatus(state)})
			continue
		}

		if len(printers) == 0 {
			continue
		}
		if desc, ok := strings.CutPrefix(strings.TrimSpace(line), "Description:"); ok {
			printers[len(printers)-1].Description = strings.TrimSpace(desc)
		}
	}
	return printers
}

func printerStatus(state string) string {
	state = strings.TrimSpace(state)
	switch {
	case strings.HasPrefix(state, "disabled"):
		return "disabled"
	case strings.HasPrefix(state, "is idle"):
		return "idle"
	case strings.HasPrefix(state, "now printing"):
		return "printing"
	}
	if before, _, ok := strings.Cut(state, "."); ok {
		return strings.TrimPrefix(before, "is ")
	}
	return state
}

// package formatter renders print history, printers and sync state as CSV, Markdown, JSON or plain text
package formatter

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/shared"
)

const timeLayout = "2006-01-02 15:04"

// Formats accepted by [FormatHistory].
const (
	FormatText     = "text"
	FormatCSV      = "csv"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// HistoryRecord is the exported view of a [models.PrintJob].
type HistoryRecord struct {
	Sequence   int       `json:"sequence"`
	Status     string    `json:"status"`
	Title      string    `json:"title,omitempty"`
	Identifier string    `json:"identifier"`
	DocumentID string    `json:"document_id,omitempty"`
	Printer    string    `json:"printer,omitempty"`
	JobID      string    `json:"job_id,omitempty"`
	Error      string    `json:"error,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// NewHistoryRecord copies the exported fields of job.
func NewHistoryRecord(job *models.PrintJob) HistoryRecord {
	return HistoryRecord{
		Sequence:   job.Sequence(),
		Status:     string(job.Status()),
		Title:      job.Title(),
		Identifier: job.Identifier(),
		DocumentID: job.DocumentID(),
		Printer:    job.PrinterID(),
		JobID:      job.JobID(),
		Error:      job.ErrorMessage(),
		CreatedAt:  job.CreatedAt(),
	}
}

// FormatHistory renders jobs in the named format.
func FormatHistory(jobs []*models.PrintJob, format string) ([]byte, error) {
	switch strings.ToLower(format) {
	case "", FormatText, "txt":
		return HistoryToText(jobs)
	case FormatCSV:
		return HistoryToCSV(jobs)
	case FormatMarkdown, "md":
		return HistoryToMarkdown(jobs)
	case FormatJSON:
		return HistoryToJSON(jobs)
	default:
		return nil, fmt.Errorf("%w: unsupported format %q (use text, csv, markdown or json)", shared.ErrInvalidFlag, format)
	}
}

// HistoryToCSV converts jobs to CSV with columns: Sequence, Status, Title, Identifier, Printer, JobID, Error, CreatedAt
func HistoryToCSV(jobs []*models.PrintJob) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"Sequence", "Status", "Title", "Identifier", "Printer", "JobID", "Error", "CreatedAt"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, job := range jobs {
		record := []string{
			strconv.Itoa(job.Sequence()),
			string(job.Status()),
			job.Title(),
			job.Identifier(),
			job.PrinterID(),
			job.JobID(),
			job.ErrorMessage(),
			job.CreatedAt().UTC().Format(time.RFC3339),
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// HistoryToMarkdown renders jobs as a Markdown table
func HistoryToMarkdown(jobs []*models.PrintJob) ([]byte, error) {
	var buf bytes.Buffer

	buf.WriteString("# Print History\n\n")
	buf.WriteString(fmt.Sprintf("**Jobs**: %d\n\n", len(jobs)))

	if len(jobs) == 0 {
		return buf.Bytes(), nil
	}

	buf.WriteString("| # | Status | Article | Printer | Job | When |\n")
	buf.WriteString("|---|--------|---------|---------|-----|------|\n")
	for _, job := range jobs {
		article := job.Identifier()
		if job.Title() != "" {
			article = fmt.Sprintf("[%s](%s)", escapeCell(job.Title()), job.Identifier())
		}
		status := string(job.Status())
		if job.ErrorMessage() != "" {
			status += ": " + escapeCell(job.ErrorMessage())
		}
		buf.WriteString(fmt.Sprintf("| %d | %s | %s | %s | %s | %s |\n",
			job.Sequence(), status, article, job.PrinterID(), job.JobID(), job.CreatedAt().Format(timeLayout)))
	}

	return buf.Bytes(), nil
}

// HistoryToText renders one line per job
func HistoryToText(jobs []*models.PrintJob) ([]byte, error) {
	var buf bytes.Buffer

	if len(jobs) == 0 {
		buf.WriteString("No print jobs recorded.\n")
		return buf.Bytes(), nil
	}

	for _, job := range jobs {
		label := job.Title()
		if label == "" {
			label = job.Identifier()
		}
		buf.WriteString(fmt.Sprintf("%s  %s %-7s  %s", job.CreatedAt().Format(timeLayout), statusMark(job.Status()), job.Status(), label))
		if job.JobID() != "" {
			buf.WriteString(fmt.Sprintf(" (%s)", job.JobID()))
		}
		if job.ErrorMessage() != "" {
			buf.WriteString(fmt.Sprintf(": %s", job.ErrorMessage()))
		}
		buf.WriteString("\n")
	}

	return buf.Bytes(), nil
}

// HistoryToJSON renders jobs as an indented JSON array
func HistoryToJSON(jobs []*models.PrintJob) ([]byte, error) {
	records := make([]HistoryRecord, 0, len(jobs))
	for _, job := range jobs {
		records = append(records, NewHistoryRecord(job))
	}
	return MarshalJSON(records)
}

// PrintersToText lists printers the way they are offered for selection
func PrintersToText(printers []models.Printer) []byte {
	var buf bytes.Buffer
	for i, p := range printers {
		desc := p.Description
		if desc == "" {
			desc = p.ID
		}
		buf.WriteString(fmt.Sprintf("%d. %s (%s) - %s\n", i+1, desc, p.ID, p.Status))
	}
	return buf.Bytes()
}

// StateToText summarizes a sync checkpoint
func StateToText(state *models.SyncState, path string) []byte {
	var buf bytes.Buffer
	buf.WriteString(fmt.Sprintf("State file: %s\n", path))
	buf.WriteString(fmt.Sprintf("Last sync:  %s\n", state.LastSyncTimestamp.Format(time.RFC3339)))
	buf.WriteString(fmt.Sprintf("Processed:  %d\n", len(state.ProcessedIdentifiers)))
	buf.WriteString(fmt.Sprintf("Skipped:    %d\n", len(state.SkippedIdentifiers)))
	return buf.Bytes()
}

// MarshalJSON encodes v with two-space indentation and a trailing newline
func MarshalJSON(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to encode JSON: %w", err)
	}
	return append(data, '\n'), nil
}

// WriteHistoryExport renders jobs and writes them to path.
func WriteHistoryExport(jobs []*models.PrintJob, format, path string) error {
	data, err := FormatHistory(jobs, format)
	if err != nil {
		return err
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write history file: %w", err)
	}
	return nil
}

func statusMark(s models.JobStatus) string {
	switch s {
	case models.JobStatusPrinted:
		return "✓"
	case models.JobStatusSkipped:
		return "-"
	default:
		return "✗"
	}
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}

package tasks

import (
	"fmt"
	"time"

	"github.com/desertthunder/readerprint/internal/models"
)

// ProgressUpdate represents a progress event during a sync run.
//
// Used to send real-time updates to the CLI or UI layer for display.
type ProgressUpdate struct {
	Phase   Phase  // Operation phase
	Step    int    // Current step number within phase
	Total   int    // Total steps in this phase
	Message string // Human-readable message for display
	Data    any    // Optional phase-specific data for advanced UIs
}

// Operation phase enumeration
type Phase int

const (
	LoadState Phase = iota
	ResolvePrinter
	FetchDocuments
	Deduplicate
	ProcessArticle
	Finalize
)

func (p Phase) String() string {
	switch p {
	case LoadState:
		return "load_state"
	case ResolvePrinter:
		return "resolve_printer"
	case FetchDocuments:
		return "fetch_documents"
	case Deduplicate:
		return "deduplicate"
	case ProcessArticle:
		return "process_article"
	case Finalize:
		return "finalize"
	default:
		return ""
	}
}

func loadStateUpdate(state *models.SyncState) ProgressUpdate {
	return ProgressUpdate{
		Phase:   LoadState,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("State loaded. Last sync: %s", state.LastSyncTimestamp.Format(time.RFC3339)),
		Data:    state,
	}
}

func resolvePrinterUpdate(p *models.Printer) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ResolvePrinter,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Selected printer: %s", p.ID),
		Data:    p,
	}
}

func fetchingUpdate(since time.Time) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDocuments,
		Step:    0,
		Total:   1,
		Message: fmt.Sprintf("Fetching documents updated after %s...", since.Format(time.RFC3339)),
	}
}

func fetchedUpdate(count int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   FetchDocuments,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Found %d total articles", count),
	}
}

func deduplicateUpdate(pending []models.Document, fetched int) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Deduplicate,
		Step:    fetched - len(pending),
		Total:   fetched,
		Message: fmt.Sprintf("Found %d new articles to process", len(pending)),
		Data:    pending,
	}
}

func processingUpdate(step, total int, doc models.Document) ProgressUpdate {
	return ProgressUpdate{
		Phase:   ProcessArticle,
		Step:    step,
		Total:   total,
		Message: fmt.Sprintf("[%d/%d] %s", step, total, doc.Label()),
	}
}

func processedUpdate(step, total int, item ItemResult) ProgressUpdate {
	var msg string
	switch item.Status {
	case models.JobStatusPrinted:
		msg = fmt.Sprintf("[%d/%d] ✓ %s", step, total, item.Document.Label())
	case models.JobStatusSkipped:
		msg = fmt.Sprintf("[%d/%d] - %s: %v", step, total, item.Document.Label(), item.Err)
	default:
		msg = fmt.Sprintf("[%d/%d] ✗ %s: %v", step, total, item.Document.Label(), item.Err)
	}
	return ProgressUpdate{
		Phase:   ProcessArticle,
		Step:    step,
		Total:   total,
		Message: msg,
		Data:    item,
	}
}

func finalizeUpdate(result *RunResult) ProgressUpdate {
	return ProgressUpdate{
		Phase:   Finalize,
		Step:    1,
		Total:   1,
		Message: fmt.Sprintf("Processing complete: %d printed, %d failed, %d skipped", result.Printed, result.Failed, result.Skipped),
		Data:    result,
	}
}

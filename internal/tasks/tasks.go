// package tasks implements the incremental Reader to printer sync.
//
// The core abstraction is SyncPipeline, which checkpoints after every confirmed print so that a
// crashed run can be restarted without printing anything twice.
package tasks

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/services"
	"github.com/desertthunder/readerprint/internal/shared"
)

const tempPattern = "readerprint-*.pdf"

// DocumentSource lists documents updated after a watermark.
type DocumentSource interface {
	FetchUpdatedSince(ctx context.Context, since time.Time) ([]models.Document, error)
}

// ResourceResolver retrieves an article's source resource.
type ResourceResolver interface {
	Resolve(ctx context.Context, url string) (*services.Resource, error)
}

// PageRenderer converts a webpage into a PDF at outPath.
type PageRenderer interface {
	Render(ctx context.Context, url, outPath string) error
}

// PrinterDirectory looks up print queues by exact identifier.
type PrinterDirectory interface {
	Find(ctx context.Context, id string) (*models.Printer, error)
}

// PrintDispatcher submits a file to a print queue and returns once the spooler accepted it.
type PrintDispatcher interface {
	Submit(ctx context.Context, path, printerID string, options map[string]string) (string, error)
}

// StateStore loads and durably saves the sync checkpoint.
type StateStore interface {
	Load(ctx context.Context) (*models.SyncState, error)
	Save(ctx context.Context, state *models.SyncState) error
}

// JobRecorder persists print history. Implemented by repositories.PrintJobRepository.
type JobRecorder interface {
	Create(job *models.PrintJob) error
}

// Dependencies are the collaborators of a [SyncPipeline]. Recorder and Logger are optional.
type Dependencies struct {
	Source     DocumentSource
	Resolver   ResourceResolver
	Renderer   PageRenderer
	Printers   PrinterDirectory
	Dispatcher PrintDispatcher
	Store      StateStore
	Recorder   JobRecorder
	Logger     *log.Logger
}

// Options configures a single run.
type Options struct {
	PrinterID    string
	PrintOptions map[string]string
	SettleDelay  time.Duration
	TempDir      string // defaults to [os.TempDir]
	DryRun       bool   // fetch and deduplicate only; nothing is converted, printed or saved

	// State, when set, is used instead of loading from the store.
	State *models.SyncState

	Now   func() time.Time
	Sleep func(ctx context.Context, d time.Duration) error
}

// PendingArticle is the work unit for one document. Path is removed when processing ends.
type PendingArticle struct {
	Document    models.Document
	ContentType string
	Path        string
}

func (a *PendingArticle) cleanup() error {
	if a == nil || a.Path == "" {
		return nil
	}
	if err := os.Remove(a.Path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return err
	}
	return nil
}

// ItemResult is the outcome of one document.
type ItemResult struct {
	Document    models.Document
	Identifier  string
	ContentType string
	Status      models.JobStatus
	JobID       string
	Err         error
}

// RunResult summarizes a run.
type RunResult struct {
	Printer   *models.Printer
	Since     time.Time         // watermark before the run
	Watermark time.Time         // watermark after the run
	Fetched   int               // documents returned by the source
	Pending   []models.Document // documents left after deduplication
	Items     []ItemResult
	Printed   int
	Failed    int
	Skipped   int
	DryRun    bool
	State     *models.SyncState
}

// SyncPipeline drives documents through conversion, printing and checkpointing, one at a time.
type SyncPipeline struct {
	deps   Dependencies
	opts   Options
	logger *log.Logger
}

// NewSyncPipeline creates a pipeline.
func NewSyncPipeline(deps Dependencies, opts Options) *SyncPipeline {
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.Sleep == nil {
		opts.Sleep = sleepContext
	}
	if opts.TempDir == "" {
		opts.TempDir = os.TempDir()
	}

	logger := deps.Logger
	if logger == nil {
		logger = shared.NewLogger(nil)
	}

	return &SyncPipeline{
		deps:   deps,
		opts:   opts,
		logger: shared.WithLogger(logger, "component", "pipeline"),
	}
}

// sendProgress sends a progress update through the channel without blocking.
func (p *SyncPipeline) sendProgress(progress chan<- ProgressUpdate, update ProgressUpdate) {
	if progress == nil {
		return
	}
	select {
	case progress <- update:
	default:
	}
}

// Run performs one sync pass.
//
// The returned error is non-nil only for failures that end the run: state load/save, printer
// resolution, the document fetch, or cancellation. Per-article failures are reported in the
// result.
func (p *SyncPipeline) Run(ctx context.Context, progress chan<- ProgressUpdate) (*RunResult, error) {
	if err := p.validate(); err != nil {
		return nil, err
	}

	state := p.opts.State
	if state == nil {
		loaded, err := p.deps.Store.Load(ctx)
		if err != nil {
			return nil, fmt.Errorf("failed to load sync state: %w", err)
		}
		state = loaded
	}
	p.logger.Info("state loaded", "last_sync", state.LastSyncTimestamp, "processed", len(state.ProcessedIdentifiers))
	p.sendProgress(progress, loadStateUpdate(state))

	printer, err := p.deps.Printers.Find(ctx, p.opts.PrinterID)
	if err != nil {
		return nil, err
	}
	p.logger.Info("printer resolved", "printer", printer.ID, "status", printer.Status)
	p.sendProgress(progress, resolvePrinterUpdate(printer))

	result := &RunResult{
		Printer: printer,
		Since:   state.LastSyncTimestamp,
		DryRun:  p.opts.DryRun,
		State:   state,
	}

	p.sendProgress(progress, fetchingUpdate(state.LastSyncTimestamp))
	fetchedAt := p.opts.Now()
	docs, err := p.deps.Source.FetchUpdatedSince(ctx, state.LastSyncTimestamp)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch documents: %w", err)
	}
	result.Fetched = len(docs)
	p.logger.Info("documents fetched", "count", len(docs), "since", state.LastSyncTimestamp)
	p.sendProgress(progress, fetchedUpdate(len(docs)))

	if p.opts.DryRun {
		result.Pending = pending(state, docs)
		result.Watermark = state.LastSyncTimestamp
		p.sendProgress(progress, deduplicateUpdate(result.Pending, len(docs)))
		return result, nil
	}

	if state.Advance(fetchedAt) {
		if err := p.save(ctx, state); err != nil {
			return result, err
		}
	}
	result.Watermark = state.LastSyncTimestamp

	result.Pending = pending(state, docs)
	p.logger.Info("deduplicated", "new", len(result.Pending), "already_seen", len(docs)-len(result.Pending))
	p.sendProgress(progress, deduplicateUpdate(result.Pending, len(docs)))

	total := len(result.Pending)
	for i, doc := range result.Pending {
		p.sendProgress(progress, processingUpdate(i+1, total, doc))

		item, err := p.process(ctx, state, printer, doc)
		result.Items = append(result.Items, item)
		switch item.Status {
		case models.JobStatusPrinted:
			result.Printed++
		case models.JobStatusSkipped:
			result.Skipped++
		default:
			result.Failed++
		}
		p.sendProgress(progress, processedUpdate(i+1, total, item))

		if err != nil {
			return result, err
		}
		if err := ctx.Err(); err != nil {
			return result, err
		}
	}

	if err := p.save(ctx, state); err != nil {
		return result, err
	}
	result.Watermark = state.LastSyncTimestamp

	p.logger.Info("run complete", "printed", result.Printed, "failed", result.Failed, "skipped", result.Skipped)
	p.sendProgress(progress, finalizeUpdate(result))
	return result, nil
}

func (p *SyncPipeline) validate() error {
	d := p.deps
	switch {
	case d.Source == nil, d.Printers == nil:
		return fmt.Errorf("%w: pipeline needs a document source and printer directory", shared.ErrInvalidConfig)
	case !p.opts.DryRun && (d.Resolver == nil || d.Renderer == nil || d.Dispatcher == nil):
		return fmt.Errorf("%w: pipeline needs a resolver, renderer and dispatcher", shared.ErrInvalidConfig)
	case d.Store == nil && (p.opts.State == nil || !p.opts.DryRun):
		return fmt.Errorf("%w: pipeline needs a state store", shared.ErrInvalidConfig)
	case p.opts.PrinterID == "":
		return fmt.Errorf("%w: printer name", shared.ErrMissingConfig)
	}
	return nil
}

// pending drops documents already printed or skipped, and duplicates within the batch.
func pending(state *models.SyncState, docs []models.Document) []models.Document {
	out := make([]models.Document, 0, len(docs))
	seen := make(map[string]struct{}, len(docs))
	for _, doc := range docs {
		key := doc.Key()
		if key == "" || state.Seen(key) {
			continue
		}
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, doc)
	}
	return out
}

// process runs one document through the state machine.
//
// The returned error is fatal for the run; recoverable failures are carried in ItemResult.Err.
func (p *SyncPipeline) process(ctx context.Context, state *models.SyncState, printer *models.Printer, doc models.Document) (ItemResult, error) {
	item := ItemResult{Document: doc, Identifier: doc.Key()}
	logger := p.logger.With("document", doc.ID, "url", doc.SourceURL)

	if !doc.Fetchable() {
		item.Status = models.JobStatusSkipped
		item.Err = fmt.Errorf("%w: %q", shared.ErrUnsupportedResource, doc.SourceURL)
		logger.Warn("skipping article", "reason", item.Err)

		state.MarkSkipped(item.Identifier)
		p.record(item, printer.ID)
		return item, p.save(ctx, state)
	}

	article, err := p.prepare(ctx, doc)
	defer func() {
		if err := article.cleanup(); err != nil {
			logger.Warn("failed to remove temp file", "path", article.Path, "err", err)
		}
	}()
	if article != nil {
		item.ContentType = article.ContentType
	}
	if err != nil {
		return p.fail(logger, item, printer.ID, err)
	}

	logger.Info("sending PDF to printer", "printer", printer.ID)
	jobID, err := p.deps.Dispatcher.Submit(ctx, article.Path, printer.ID, p.opts.PrintOptions)
	if err != nil {
		if !errors.Is(err, shared.ErrPrintFailed) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %v", shared.ErrPrintFailed, err)
		}
		return p.fail(logger, item, printer.ID, err)
	}
	item.JobID = jobID
	item.Status = models.JobStatusPrinted
	logger.Info("print job sent", "job", jobID)

	// The job was accepted, so the identifier is recorded even if the wait is interrupted.
	settleErr := p.opts.Sleep(ctx, p.opts.SettleDelay)
	if err := article.cleanup(); err != nil {
		logger.Warn("failed to remove temp file", "path", article.Path, "err", err)
	}

	state.MarkProcessed(item.Identifier)
	if err := p.save(context.WithoutCancel(ctx), state); err != nil {
		return item, err
	}
	logger.Debug("article marked as processed")
	p.record(item, printer.ID)

	return item, settleErr
}

// prepare writes the article's PDF into a fresh temp file.
func (p *SyncPipeline) prepare(ctx context.Context, doc models.Document) (*PendingArticle, error) {
	src := strings.TrimSpace(doc.SourceURL)
	res, err := p.deps.Resolver.Resolve(ctx, src)
	if err != nil {
		return nil, err
	}
	defer res.Close()

	f, err := os.CreateTemp(p.opts.TempDir, tempPattern)
	if err != nil {
		return nil, fmt.Errorf("failed to create temp file: %w", err)
	}
	article := &PendingArticle{Document: doc, ContentType: res.ContentType, Path: f.Name()}

	if res.IsPDF() {
		p.logger.Debug("article is PDF, downloading directly", "url", src)
		_, err := io.Copy(f, res.Body)
		if closeErr := f.Close(); err == nil {
			err = closeErr
		}
		if err != nil {
			return article, fmt.Errorf("%w: %s: %v", shared.ErrResourceUnavailable, src, err)
		}
		return article, nil
	}

	if err := f.Close(); err != nil {
		return article, fmt.Errorf("failed to close temp file: %w", err)
	}
	p.logger.Debug("article is webpage, converting to PDF", "url", src, "content_type", res.ContentType)
	if err := p.deps.Renderer.Render(ctx, src, article.Path); err != nil {
		if !errors.Is(err, shared.ErrConversionFailed) && ctx.Err() == nil {
			err = fmt.Errorf("%w: %v", shared.ErrConversionFailed, err)
		}
		return article, err
	}
	return article, nil
}

// fail records a failed item. Only recoverable errors let the run continue.
func (p *SyncPipeline) fail(logger *log.Logger, item ItemResult, printerID string, err error) (ItemResult, error) {
	item.Status = models.JobStatusFailed
	item.Err = err
	p.record(item, printerID)

	if !shared.IsRecoverable(err) {
		logger.Error("article failed", "err", err)
		return item, err
	}
	logger.Error("article failed, left unprocessed", "err", err)
	return item, nil
}

func (p *SyncPipeline) save(ctx context.Context, state *models.SyncState) error {
	if err := p.deps.Store.Save(ctx, state); err != nil {
		return fmt.Errorf("failed to save sync state: %w", err)
	}
	return nil
}

func (p *SyncPipeline) record(item ItemResult, printerID string) {
	if p.deps.Recorder == nil {
		return
	}
	job := models.NewPrintJob(0, item.Document, printerID, item.Status)
	job.SetJobID(item.JobID)
	job.SetError(item.Err)
	if err := p.deps.Recorder.Create(job); err != nil {
		p.logger.Warn("failed to record print job", "document", item.Document.ID, "err", err)
	}
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

package main

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"time"

	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/repositories"
	"github.com/desertthunder/readerprint/internal/services"
	"github.com/desertthunder/readerprint/internal/shared"
	"github.com/desertthunder/readerprint/internal/tasks"
	"github.com/urfave/cli/v3"
)

const pickerLogFile = "readerprint-picker.log"

// Sync runs one pass of the Reader to printer pipeline.
func (r *Runner) Sync(ctx context.Context, cmd *cli.Command) error {
	config := r.config
	if printer := cmd.String("printer"); printer != "" {
		config.Printer.Name = printer
	}
	dryRun := cmd.Bool("dry-run")

	if err := config.Validate(); err != nil {
		return err
	}

	cups := services.NewCUPSService(r.commander, r.logger)
	printerID, err := r.resolvePrinter(ctx, cups, config.Printer.Name, cmd.Bool("yes"))
	if err != nil {
		return err
	}
	// The queue must exist before the renderer or history database is opened.
	if _, err := cups.Find(ctx, printerID); err != nil {
		return err
	}

	deps := tasks.Dependencies{
		Source:     services.NewReaderServiceWithTransport(config.Reader, r.transport, r.logger),
		Resolver:   services.NewArticleFetcher(&http.Client{Transport: r.transport, Timeout: config.Converter.Timeout.Duration}, 0),
		Printers:   cups,
		Dispatcher: cups,
		Store:      repositories.NewStateStore(config.State.Path),
		Logger:     r.logger,
	}

	if !dryRun {
		renderer, err := services.NewPageRenderer(config.Converter, r.commander, r.logger)
		if err != nil {
			return err
		}
		if closer, ok := renderer.(io.Closer); ok {
			defer closer.Close()
		}
		deps.Renderer = renderer

		db, err := shared.OpenDatabase(config.Database)
		if err != nil {
			return fmt.Errorf("failed to open history database: %w", err)
		}
		defer db.Close()
		deps.Recorder = repositories.NewPrintJobRepository(db)
	}

	pipeline := tasks.NewSyncPipeline(deps, tasks.Options{
		PrinterID:    printerID,
		PrintOptions: config.Printer.Options,
		SettleDelay:  config.Printer.SettleDelay.Duration,
		TempDir:      config.State.TempDir,
		DryRun:       dryRun,
	})

	r.logger.Info("starting sync", "printer", printerID, "state", config.State.Path, "dry_run", dryRun)

	progressCh := make(chan tasks.ProgressUpdate, 50)
	done := make(chan struct{})
	go func() {
		defer close(done)
		for update := range progressCh {
			r.writeProgress(update)
		}
	}()

	result, err := pipeline.Run(ctx, progressCh)
	close(progressCh)
	<-done

	if result != nil {
		r.writeSummary(result, err)
	}
	return err
}

// resolvePrinter picks the queue when none is configured.
//
// With assumeYes a single available queue is used directly. Otherwise an interactive picker
// runs when stdin is a terminal.
func (r *Runner) resolvePrinter(ctx context.Context, cups *services.CUPSService, name string, assumeYes bool) (string, error) {
	if name != "" {
		return name, nil
	}

	if assumeYes {
		printers, err := cups.List(ctx)
		if err != nil {
			return "", err
		}
		switch len(printers) {
		case 0:
			return "", shared.ErrNoPrinters
		case 1:
			r.logger.Info("using the only available printer", "printer", printers[0].ID)
			return printers[0].ID, nil
		}
	}

	if !r.isTerminal() {
		return "", fmt.Errorf("%w: no printer configured (use --printer, printer.name or %s)", shared.ErrMissingConfig, shared.EnvPrinter)
	}

	// Redirect logs to file to avoid interfering with TUI rendering
	fileLogger, logFile, err := shared.NewFileLogger(filepath.Join(os.TempDir(), pickerLogFile))
	if err != nil {
		return "", fmt.Errorf("failed to create file logger: %w", err)
	}
	defer logFile.Close()

	return r.pick(ctx, services.NewCUPSService(r.commander, fileLogger))
}

func (r *Runner) writeProgress(update tasks.ProgressUpdate) {
	switch update.Phase {
	case tasks.LoadState:
		r.writePlain("📂 %s\n", update.Message)
	case tasks.ResolvePrinter:
		r.writePlain("🖨  %s\n", update.Message)
	case tasks.FetchDocuments:
		r.writePlain("📥 %s\n", update.Message)
	case tasks.Deduplicate:
		r.writePlain("🔍 %s\n\n", update.Message)
	case tasks.ProcessArticle:
		// only the outcome line; the "starting" update carries no data
		if update.Data != nil {
			r.writePlain("   %s\n", update.Message)
		}
	case tasks.Finalize:
		r.writePlain("\n%s\n", update.Message)
	}
}

func (r *Runner) writeSummary(result *tasks.RunResult, runErr error) {
	r.writePlain("\n")
	switch {
	case runErr != nil:
		r.writePlainHeader("Sync Stopped")
	case result.DryRun:
		r.writePlainHeader("Dry Run Complete")
	default:
		r.writePlainHeader("Sync Complete!")
	}

	if result.Printer != nil {
		r.writePlain("Printer: %s\n", result.Printer.ID)
	}
	r.writePlain("Since: %s\n", result.Since.Format(time.RFC3339))
	r.writePlain("Fetched: %d, new: %d\n", result.Fetched, len(result.Pending))

	if result.DryRun {
		if len(result.Pending) > 0 {
			r.writePlain("\nWould print:\n")
			for i, doc := range result.Pending {
				r.writePlain("  %d. %s\n", i+1, doc.Label())
			}
		}
		return
	}

	r.writePlain("Printed: %d, failed: %d, skipped: %d\n", result.Printed, result.Failed, result.Skipped)
	r.writePlain("Last sync: %s\n", result.Watermark.Format(time.RFC3339))

	if result.Failed > 0 {
		r.writePlain("\nFailed to print %d articles:\n", result.Failed)
		for _, item := range result.Items {
			if item.Err != nil && item.Status == models.JobStatusFailed {
				r.writePlain("  - %s: %v\n", item.Document.Label(), item.Err)
			}
		}
	}
}

package main

import (
	"context"
	"errors"
	"fmt"

	"github.com/desertthunder/readerprint/internal/formatter"
	"github.com/desertthunder/readerprint/internal/models"
	"github.com/desertthunder/readerprint/internal/repositories"
	"github.com/desertthunder/readerprint/internal/shared"
	"github.com/urfave/cli/v3"
)

// History shows recorded print jobs, newest first.
func (r *Runner) History(ctx context.Context, cmd *cli.Command) error {
	format := cmd.String("format")
	output := cmd.String("output")

	status := cmd.String("status")
	if status != "" && !models.JobStatus(status).Valid() {
		return fmt.Errorf("%w: unknown status %q", shared.ErrInvalidFlag, status)
	}
	limit := cmd.Int("limit")
	if limit < 0 {
		return fmt.Errorf("%w: --limit must not be negative, got %d", shared.ErrInvalidArgument, limit)
	}

	db, err := shared.OpenDatabase(r.config.Database)
	if err != nil {
		return fmt.Errorf("failed to open history database: %w", err)
	}
	defer db.Close()

	repo := repositories.NewPrintJobRepository(db)
	var jobs []*models.PrintJob
	if identifier := cmd.String("identifier"); identifier != "" {
		jobs, err = latestJob(repo, identifier)
	} else {
		jobs, err = repo.List(map[string]any{"status": status, "limit": limit})
	}
	if err != nil {
		return err
	}

	if output != "" {
		if err := formatter.WriteHistoryExport(jobs, format, output); err != nil {
			return err
		}
		r.logger.Info("history exported", "path", output, "jobs", len(jobs))
		return r.writePlain("✓ Exported %d jobs to %s\n", len(jobs), output)
	}

	data, err := formatter.FormatHistory(jobs, format)
	if err != nil {
		return err
	}
	return r.writeBytes(data)
}

// latestJob returns the most recent job for identifier, or none when it was never recorded.
func latestJob(repo *repositories.PrintJobRepository, identifier string) ([]*models.PrintJob, error) {
	job, err := repo.LatestForIdentifier(identifier)
	if errors.Is(err, repositories.ErrPrintJobNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return []*models.PrintJob{job}, nil
}

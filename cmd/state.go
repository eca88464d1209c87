package main

import (
	"context"
	"fmt"
	"time"

	"github.com/desertthunder/readerprint/internal/formatter"
	"github.com/desertthunder/readerprint/internal/repositories"
	"github.com/desertthunder/readerprint/internal/shared"
	"github.com/urfave/cli/v3"
)

// StateShow prints the sync checkpoint.
func (r *Runner) StateShow(ctx context.Context, cmd *cli.Command) error {
	store := repositories.NewStateStore(r.config.State.Path)
	state, err := store.Load(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		return r.writeJSON(state, true)
	}
	return r.writeBytes(formatter.StateToText(state, store.Path()))
}

// StateReset moves the watermark to now minus --since.
func (r *Runner) StateReset(ctx context.Context, cmd *cli.Command) error {
	ago := cmd.Duration("since")
	if ago < 0 {
		return fmt.Errorf("%w: --since must not be negative, got %s", shared.ErrInvalidArgument, ago)
	}
	since := time.Now().Add(-ago)
	forget := cmd.Bool("forget")

	store := repositories.NewStateStore(r.config.State.Path)
	state, err := store.Reset(ctx, since, forget)
	if err != nil {
		return err
	}

	r.logger.Info("state reset", "path", store.Path(), "last_sync", state.LastSyncTimestamp, "forget", forget)
	r.writePlain("✓ Last sync set to %s\n", state.LastSyncTimestamp.Format(time.RFC3339))
	if forget {
		r.writePlain("  Printed and skipped articles forgotten\n")
	}
	return nil
}

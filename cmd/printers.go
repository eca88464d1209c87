package main

import (
	"context"

	"github.com/desertthunder/readerprint/internal/formatter"
	"github.com/desertthunder/readerprint/internal/services"
	"github.com/urfave/cli/v3"
)

// Printers lists the CUPS queues.
func (r *Runner) Printers(ctx context.Context, cmd *cli.Command) error {
	printers, err := services.NewCUPSService(r.commander, r.logger).List(ctx)
	if err != nil {
		return err
	}

	if cmd.Bool("json") {
		if printers == nil {
			return r.writeJSON([]any{}, true)
		}
		return r.writeJSON(printers, true)
	}

	if len(printers) == 0 {
		return r.writePlain("No printers found.\n")
	}
	return r.writeBytes(formatter.PrintersToText(printers))
}

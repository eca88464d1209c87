package main

import (
	"context"
	"errors"
	"os"
	"os/signal"
	"syscall"

	"github.com/desertthunder/readerprint/internal/shared"
)

// Exit codes follow sysexits(3) where one fits.
const (
	exitFailure     = 1
	exitUsage       = 64
	exitUnavailable = 69
	exitConfig      = 78
	exitInterrupted = 130
)

func main() {
	logger := shared.NewLogger(nil)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	runner := NewRunner(RunnerOpts{Logger: logger})

	if err := runner.App().Run(ctx, os.Args); err != nil {
		logger.Error("application error", "error", err)
		stop()
		os.Exit(exitCode(err))
	}
}

// exitCode maps a command error to the process exit status.
func exitCode(err error) int {
	switch {
	case errors.Is(err, context.Canceled):
		return exitInterrupted
	case errors.Is(err, shared.ErrInvalidFlag), errors.Is(err, shared.ErrInvalidArgument):
		return exitUsage
	case errors.Is(err, shared.ErrMissingConfig), errors.Is(err, shared.ErrInvalidConfig),
		errors.Is(err, shared.ErrMissingCredentials):
		return exitConfig
	case errors.Is(err, shared.ErrPrinterNotFound), errors.Is(err, shared.ErrNoPrinters),
		errors.Is(err, shared.ErrSourceUnavailable):
		return exitUnavailable
	default:
		return exitFailure
	}
}

package shared

import (
	"errors"
	"fmt"
	"time"
)

var (
	// Configuration errors
	ErrMissingConfig      = fmt.Errorf("configuration not found")
	ErrInvalidConfig      = fmt.Errorf("invalid configuration")
	ErrMissingCredentials = fmt.Errorf("missing credentials")

	// Printer errors
	ErrPrinterNotFound = fmt.Errorf("printer not found")
	ErrNoPrinters      = fmt.Errorf("no printers found")
	ErrNoSelection     = fmt.Errorf("no printer selected")
	ErrPrintFailed     = fmt.Errorf("print failed")

	// Document source errors
	ErrSourceUnavailable = fmt.Errorf("document source unavailable")
	ErrRateLimited       = fmt.Errorf("rate limit exceeded")

	// Article errors
	ErrUnsupportedResource = fmt.Errorf("unsupported resource")
	ErrResourceUnavailable = fmt.Errorf("resource unavailable")
	ErrConversionFailed    = fmt.Errorf("conversion failed")

	// State errors
	ErrCorruptState = fmt.Errorf("corrupt sync state")

	// Input validation errors
	ErrInvalidArgument = fmt.Errorf("invalid argument")
	ErrInvalidFlag     = fmt.Errorf("invalid flag value")
)

// RateLimitError is returned when the remote service answers 429.
// RetryAfter is zero when the response carried no usable Retry-After header.
type RateLimitError struct {
	RetryAfter time.Duration
}

func (e *RateLimitError) Error() string {
	return fmt.Sprintf("%v: retry after %d seconds", ErrRateLimited, int(e.RetryAfter.Seconds()))
}

func (e *RateLimitError) Unwrap() error { return ErrRateLimited }

// StatusError is returned for any other non-success response from the remote service.
type StatusError struct {
	StatusCode int
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("%v: status %d", ErrSourceUnavailable, e.StatusCode)
}

func (e *StatusError) Unwrap() error { return ErrSourceUnavailable }

// ExitError reports a non-zero exit from an external process.
// Kind is the sentinel the caller classifies the failure as.
type ExitError struct {
	Kind    error
	Command string
	Code    int
	Stderr  string
}

func (e *ExitError) Error() string {
	msg := fmt.Sprintf("%v: %s exited with code %d", e.Kind, e.Command, e.Code)
	if e.Stderr != "" {
		msg += ": " + e.Stderr
	}
	return msg
}

func (e *ExitError) Unwrap() error { return e.Kind }

// IsRecoverable reports whether err is a per-article failure that must not abort a run.
func IsRecoverable(err error) bool {
	for _, target := range []error{
		ErrUnsupportedResource,
		ErrResourceUnavailable,
		ErrConversionFailed,
		ErrPrintFailed,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

package apperrors

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"
)

// ColorProvider defines the interface for obtaining terminal color codes.
// This abstraction breaks the import cycle with cli.
type ColorProvider interface {
	Yellow() string
	Reset() string
}

// DefaultColorProvider provides no color codes (for non-terminal output).
type DefaultColorProvider struct{}

func (d DefaultColorProvider) Yellow() string { return "" }
func (d DefaultColorProvider) Reset() string  { return "" }

// HandleFatal formats and prints a message for an error that ends the
// whole reconstruction run, distinguishing timeout/cancellation from
// algorithmic and configuration failures so the operator sees the right
// exit code.
func HandleFatal(err error, elapsed time.Duration, out io.Writer, colors ColorProvider) int {
	if err == nil {
		return ExitSuccess
	}
	if colors == nil {
		colors = DefaultColorProvider{}
	}

	suffix := ""
	if elapsed > 0 {
		suffix = fmt.Sprintf(" after %s%s%s", colors.Yellow(), elapsed, colors.Reset())
	}

	switch {
	case errors.Is(err, context.DeadlineExceeded):
		fmt.Fprintf(out, "Status: Failure (Timeout). The run exceeded its time budget%s.\n", suffix)
		return ExitErrorTimeout
	case errors.Is(err, context.Canceled):
		fmt.Fprintf(out, "%sStatus: Canceled%s.%s\n", colors.Yellow(), suffix, colors.Reset())
		return ExitErrorCanceled
	}

	var cfgErr ConfigError
	if errors.As(err, &cfgErr) {
		fmt.Fprintf(out, "Status: Failure (Configuration). %v\n", err)
		return ExitErrorConfig
	}
	var algErr AlgorithmicError
	if errors.As(err, &algErr) {
		fmt.Fprintf(out, "Status: Failure (Inconsistent system)%s. %v\n", suffix, err)
		return ExitErrorInconsistent
	}
	var resumeErr ResumeError
	if errors.As(err, &resumeErr) {
		fmt.Fprintf(out, "Status: Failure (Resume). %v\n", err)
		return ExitErrorResume
	}

	fmt.Fprintf(out, "Status: Failure. An unexpected error occurred: %v\n", err)
	return ExitErrorGeneric
}

// HandleTransient reports a TransientError to the log/UI without ending
// the run — the scheduler is expected to retry with a new prime.
func HandleTransient(err error, out io.Writer) {
	if err == nil {
		return
	}
	fmt.Fprintf(out, "Retrying: %v\n", err)
}

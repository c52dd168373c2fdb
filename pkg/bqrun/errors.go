package bqrun

import (
	"errors"
	"strings"
)

// Sentinel errors for common failure scenarios.
// These enable callers to distinguish error types using errors.Is().
//
// Example usage:
//
//	err := runner.Run(ctx, statements)
//	if errors.Is(err, bqrun.ErrRetriesExhausted) {
//	    // The service kept returning transient errors
//	}
var (
	// ErrInvalidConfig indicates the provided configuration is invalid.
	ErrInvalidConfig = errors.New("invalid configuration")

	// ErrConnectionFailed indicates the BigQuery client could not be created.
	ErrConnectionFailed = errors.New("connection failed")

	// ErrQueryFailed indicates a query failed with a non-retryable error.
	ErrQueryFailed = errors.New("query failed")

	// ErrRetriesExhausted indicates a query still failed transiently after every retry.
	ErrRetriesExhausted = errors.New("retries exhausted")

	// ErrNoStatements indicates there was nothing to run.
	ErrNoStatements = errors.New("no SQL statements to run")
)

// ExitCodeForError returns the appropriate exit code for an error.
// Returns ExitSuccess (0) for nil errors, semantic codes for known errors,
// and ExitGeneralError (1) for unclassified errors.
func ExitCodeForError(err error) int {
	if err == nil {
		return ExitSuccess
	}

	switch {
	case errors.Is(err, ErrInvalidConfig), errors.Is(err, ErrNoStatements):
		return ExitConfigError
	case errors.Is(err, ErrConnectionFailed):
		return ExitConnectionError
	case errors.Is(err, ErrRetriesExhausted):
		return ExitRetriesExhausted
	case errors.Is(err, ErrQueryFailed):
		return ExitQueryFailed
	}

	errStr := err.Error()
	if isUsageError(errStr) {
		return ExitUsageError
	}
	if strings.Contains(errStr, "could not find default credentials") ||
		strings.Contains(errStr, "no such host") {
		return ExitConnectionError
	}

	return ExitGeneralError
}

// isUsageError recognizes the argument and flag errors produced by cobra.
func isUsageError(msg string) bool {
	for _, prefix := range []string{
		"unknown flag",
		"unknown shorthand flag",
		"unknown command",
		"accepts ",
		"requires at least",
		"required flag",
		"invalid argument",
		"flag needs an argument",
		"if any flags in the group",
	} {
		if strings.HasPrefix(msg, prefix) {
			return true
		}
	}
	return false
}

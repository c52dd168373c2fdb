package bqrun

import "time"

// Exit codes for semantic error classification.
// These follow Unix/GNU conventions:
//   - 0: Success
//   - 1: General error
//   - 2: CLI usage error (misuse of command line)
//   - 3+: Application-specific errors
const (
	ExitSuccess          = 0  // All queries completed successfully
	ExitGeneralError     = 1  // Unknown or unclassified error
	ExitUsageError       = 2  // CLI usage error (missing args, invalid flags)
	ExitPanic            = 3  // Internal panic (unexpected crash)
	ExitConfigError      = 10 // Invalid configuration or labels
	ExitConnectionError  = 11 // Failed to create the BigQuery client
	ExitQueryFailed      = 13 // Query failed with a non-retryable error
	ExitRetriesExhausted = 15 // Query kept failing with transient errors
)

const (
	// DefaultLabelKey is the job label key that carries the derived query label.
	DefaultLabelKey = "query_name"

	// MaxRetries bounds the retry schedule. Together with the initial attempt
	// a query is submitted at most MaxRetries+1 times.
	MaxRetries = 3

	// BytesPerMegabyte converts billed bytes to megabytes.
	BytesPerMegabyte = 1024 * 1024

	// DefaultTimeout bounds a CLI run, including every retry wait.
	DefaultTimeout = 6 * time.Hour

	// DefaultMaxDisplayRows caps rows rendered by the table formatter.
	DefaultMaxDisplayRows = 100
)

// DefaultRetrySchedule returns the incremental waits used between attempts.
// A fresh slice is returned on every call so callers may modify it.
func DefaultRetrySchedule() []time.Duration {
	return []time.Duration{30 * time.Second, 60 * time.Second, 90 * time.Second}
}

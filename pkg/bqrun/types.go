package bqrun

import (
	"errors"
	"fmt"
	"time"
)

// RunConfig contains all parameters needed to run a batch of labeled queries.
type RunConfig struct {
	// ProjectID is the Google Cloud project billed for the queries
	ProjectID string

	// Location is the BigQuery location (e.g. "US", "EU"). Empty means the client default.
	Location string

	// CredentialsFile is an optional service account key file.
	// When empty, Application Default Credentials are used.
	CredentialsFile string

	// LabelKey is the job label key that receives the derived query label
	LabelKey string

	// Labels are base job labels attached to every query
	Labels map[string]string

	// RetrySchedule lists the waits between attempts, consumed front to back
	RetrySchedule []time.Duration

	// Backoff replaces RetrySchedule when set
	Backoff BackoffStrategy

	// Timeout bounds the whole run, including retry waits
	Timeout time.Duration

	// Verbose enables detailed logging
	Verbose bool
}

// Validate checks if the RunConfig has all required fields and valid values.
// It returns a multi-error if multiple validation failures occur.
func (c *RunConfig) Validate() error {
	var errs []error

	if c.ProjectID == "" {
		errs = append(errs, fmt.Errorf("ProjectID is required: %w", ErrInvalidConfig))
	}

	if c.LabelKey == "" {
		errs = append(errs, fmt.Errorf("LabelKey is required: %w", ErrInvalidConfig))
	}

	if len(c.RetrySchedule) > MaxRetries {
		errs = append(errs, fmt.Errorf("retry schedule has %d entries, at most %d allowed: %w",
			len(c.RetrySchedule), MaxRetries, ErrInvalidConfig))
	}

	for i, d := range c.RetrySchedule {
		if d < 0 {
			errs = append(errs, fmt.Errorf("retry schedule entry %d is negative (%s): %w", i, d, ErrInvalidConfig))
		}
	}

	if c.Backoff != nil && c.Backoff.MaxAttempts() > MaxRetries {
		errs = append(errs, fmt.Errorf("backoff allows %d retries, at most %d allowed: %w",
			c.Backoff.MaxAttempts(), MaxRetries, ErrInvalidConfig))
	}

	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout cannot be negative: %w", ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// QueryRequest describes a single query submission.
// Labels is owned by the request; clients must not retain or mutate it.
type QueryRequest struct {
	SQL    string
	Labels map[string]string
}

// JobStatistics holds the job metadata read back after completion.
type JobStatistics struct {
	// TotalBytesBilled is nil when the service did not report a value
	TotalBytesBilled *int64
}

// QueryResult is the outcome of a successful labeled query.
type QueryResult struct {
	// Rows iterates the query result set
	Rows RowIterator

	// JobID identifies the job that produced the result
	JobID string

	// BytesBilled is the raw billed byte count (0 when not reported)
	BytesBilled int64

	// MegabytesBilled is BytesBilled / 1,048,576
	MegabytesBilled float64

	// Retries is the number of retry waits consumed before success
	Retries int

	// Elapsed is the wall-clock time measured from the first attempt
	Elapsed time.Duration
}

// MegabytesBilled converts nullable billed bytes to megabytes.
// A nil value counts as zero.
func MegabytesBilled(totalBytesBilled *int64) float64 {
	if totalBytesBilled == nil {
		return 0
	}
	return float64(*totalBytesBilled) / BytesPerMegabyte
}

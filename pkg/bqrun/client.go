package bqrun

import "context"

// QueryClient submits query jobs and reads job metadata back.
// Implementations must be safe for concurrent use by multiple goroutines.
type QueryClient interface {
	// Submit starts a query job and returns without waiting for completion.
	Submit(ctx context.Context, req QueryRequest) (QueryJob, error)

	// JobStatistics fetches metadata for a completed job by ID.
	JobStatistics(ctx context.Context, jobID string) (*JobStatistics, error)
}

// QueryJob is a handle to a submitted query job.
type QueryJob interface {
	// ID returns the service-assigned job identifier.
	ID() string

	// Read blocks until the job completes and returns an iterator over its rows.
	// A job that finished with an error returns that error.
	Read(ctx context.Context) (RowIterator, error)
}

// RowIterator iterates over query result rows.
type RowIterator interface {
	// Next returns the next row. It returns iterator.Done
	// (google.golang.org/api/iterator) when there are no more rows.
	Next() ([]any, error)

	// Columns returns the result column names. Only valid after the first call to Next.
	Columns() []string

	// TotalRows reports the number of rows in the result set.
	TotalRows() uint64
}

package query

import (
	"context"
	"time"

	"github.com/vvka-141/bqrun/internal/labels"
	"github.com/vvka-141/bqrun/internal/logging"
	"github.com/vvka-141/bqrun/internal/retry"
	"github.com/vvka-141/bqrun/pkg/bqrun"
)

// Executor runs labeled queries and retries transient service errors.
//
// Base labels are copied at construction and never modified; every submission
// receives a fresh label map. An Executor is therefore safe for concurrent use
// as long as its QueryClient and Logger are.
type Executor struct {
	client     bqrun.QueryClient
	logger     bqrun.Logger
	retrier    *retry.Executor
	labelKey   string
	baseLabels map[string]string
	now        func() time.Time
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger receiving STARTING, COMPLETED and retry records.
func WithLogger(logger bqrun.Logger) Option {
	return func(e *Executor) {
		e.logger = logger
	}
}

// WithLabelKey sets the job label key that receives the derived query label.
func WithLabelKey(key string) Option {
	return func(e *Executor) {
		e.labelKey = key
	}
}

// WithBaseLabels sets labels attached to every job. The map is copied.
func WithBaseLabels(base map[string]string) Option {
	return func(e *Executor) {
		e.baseLabels = labels.Clone(base)
	}
}

// WithRetryExecutor replaces the default retry policy.
func WithRetryExecutor(r *retry.Executor) Option {
	return func(e *Executor) {
		e.retrier = r
	}
}

// NewExecutor creates an Executor over client. Without options it labels jobs
// under bqrun.DefaultLabelKey, retries with bqrun.DefaultRetrySchedule and
// discards log output.
func NewExecutor(client bqrun.QueryClient, opts ...Option) *Executor {
	e := &Executor{
		client:     client,
		logger:     logging.NewNullLogger(),
		labelKey:   bqrun.DefaultLabelKey,
		baseLabels: map[string]string{},
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.retrier == nil {
		e.retrier = NewDefaultRetryExecutor(bqrun.DefaultRetrySchedule())
	}
	return e
}

// NewDefaultRetryExecutor builds the standard policy: BigQuery transient errors
// retried along schedule.
func NewDefaultRetryExecutor(schedule []time.Duration) *retry.Executor {
	return retry.NewExecutor(retry.NewBigQueryErrorClassifier(), retry.NewScheduleBackoff(schedule...))
}

// ExecuteWithRetry submits sql under label, waits for the result and reports
// the megabytes billed.
//
// Internal server errors, rate limiting and service unavailability are retried
// along the retry schedule; each retry resubmits the query. Other errors, and
// the last transient error once the schedule is used up, are returned unchanged.
func (e *Executor) ExecuteWithRetry(ctx context.Context, label, sql string) (*bqrun.QueryResult, error) {
	start := e.now()
	retries := 0

	retrier := e.retrier.WithOnRetry(func(attempt int, err error, delay time.Duration) {
		retries = attempt + 1
		e.logger.Info("Error %v running query %s, sleeping for %s", err, label, delay)
	})

	var result *bqrun.QueryResult
	err := retrier.Execute(ctx, func(ctx context.Context) error {
		job, err := e.StartQuery(ctx, label, sql)
		if err != nil {
			return err
		}
		r, err := e.GetQueryResults(ctx, job)
		if err != nil {
			return err
		}
		result = r
		return nil
	})
	if err != nil {
		return nil, err
	}

	result.Retries = retries
	result.Elapsed = e.now().Sub(start)
	e.logger.Info("COMPLETED (%.1f seconds, %d retries, %.2f MBs) - %s",
		result.Elapsed.Seconds(), result.Retries, result.MegabytesBilled, label)
	return result, nil
}

// StartQuery submits sql with the base labels plus the derived query label and
// returns the job without waiting for it.
func (e *Executor) StartQuery(ctx context.Context, label, sql string) (bqrun.QueryJob, error) {
	req := bqrun.QueryRequest{
		SQL:    sql,
		Labels: labels.Merge(e.baseLabels, e.labelKey, labels.Derive(label)),
	}

	job, err := e.client.Submit(ctx, req)
	if err != nil {
		return nil, err
	}

	e.logger.Info("STARTING - %s (jobid: %s)", label, job.ID())
	return job, nil
}

// GetQueryResults blocks until job completes, then reads the job statistics
// to compute the megabytes billed. A job without billing statistics counts
// as zero bytes.
func (e *Executor) GetQueryResults(ctx context.Context, job bqrun.QueryJob) (*bqrun.QueryResult, error) {
	rows, err := job.Read(ctx)
	if err != nil {
		return nil, err
	}

	stats, err := e.client.JobStatistics(ctx, job.ID())
	if err != nil {
		return nil, err
	}

	var billed *int64
	if stats != nil {
		billed = stats.TotalBytesBilled
	}

	result := &bqrun.QueryResult{
		Rows:            rows,
		JobID:           job.ID(),
		MegabytesBilled: bqrun.MegabytesBilled(billed),
	}
	if billed != nil {
		result.BytesBilled = *billed
	}
	return result, nil
}

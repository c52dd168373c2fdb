// Package retry provides bounded retry logic for query service calls.
//
// The package supports pluggable error classification and backoff strategies.
//
// # Example Usage
//
//	classifier := retry.NewBigQueryErrorClassifier()
//	strategy := retry.NewScheduleBackoff(30*time.Second, 60*time.Second, 90*time.Second)
//	executor := retry.NewExecutor(classifier, strategy)
//
//	err := executor.Execute(ctx, func(ctx context.Context) error {
//	    return runQuery(ctx)
//	})
//
// # Error Classification
//
// The ErrorClassifier interface determines which errors are transient (retryable)
// versus fatal. BigQueryErrorClassifier treats only internal server errors, rate
// limiting and service unavailability as transient.
//
// # Backoff Strategies
//
// ScheduleBackoff consumes a fixed list of waits. ExponentialBackoff grows the
// wait geometrically up to a cap, with optional jitter.
//
// # Thread Safety
//
// Executor instances are safe for concurrent use. Use WithOnRetry() to create
// independent configurations per call.
package retry

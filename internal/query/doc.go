// Package query runs labeled SQL statements against a query service.
//
// Executor submits a statement with a derived job label, waits for the job,
// reads back the bytes billed and retries transient service errors along a
// short fixed schedule (30s, 60s, 90s by default).
//
//	exec := query.NewExecutor(client,
//	    query.WithLogger(logger),
//	    query.WithBaseLabels(map[string]string{"team": "variants"}),
//	)
//	result, err := exec.ExecuteWithRetry(ctx, "Extract Samples", sql)
package query

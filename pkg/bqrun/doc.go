// Package bqrun defines the contracts shared by the bqrun packages: the query
// client and job abstractions, the retry interfaces, the logger, sentinel errors
// and process exit codes.
//
// The concrete BigQuery binding lives in internal/bq; the retrying executor in
// internal/query.
package bqrun

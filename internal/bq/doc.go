// Package bq binds bqrun's QueryClient contract to cloud.google.com/go/bigquery.
package bq

package bq

import (
	"context"

	"cloud.google.com/go/bigquery"

	"github.com/vvka-141/bqrun/pkg/bqrun"
)

type queryJob struct {
	job *bigquery.Job
}

func (j *queryJob) ID() string {
	return j.job.ID()
}

// Read waits for the job and returns its rows. A failed job returns the
// job's *bigquery.Error.
func (j *queryJob) Read(ctx context.Context) (bqrun.RowIterator, error) {
	it, err := j.job.Read(ctx)
	if err != nil {
		return nil, err
	}
	return &rowIterator{it: it}, nil
}

type rowIterator struct {
	it *bigquery.RowIterator
}

func (r *rowIterator) Next() ([]any, error) {
	var row []bigquery.Value
	if err := r.it.Next(&row); err != nil {
		return nil, err
	}
	out := make([]any, len(row))
	for i, v := range row {
		out[i] = v
	}
	return out, nil
}

func (r *rowIterator) Columns() []string {
	return columnNames(r.it.Schema)
}

func (r *rowIterator) TotalRows() uint64 {
	return r.it.TotalRows
}

func columnNames(schema bigquery.Schema) []string {
	names := make([]string, len(schema))
	for i, field := range schema {
		names[i] = field.Name
	}
	return names
}

package query

import (
	"context"
	"fmt"
	"sync"

	"google.golang.org/api/iterator"

	"github.com/vvka-141/bqrun/pkg/bqrun"
)

// sliceRows is an in-memory RowIterator.
type sliceRows struct {
	columns []string
	rows    [][]any
	pos     int
}

func (r *sliceRows) Next() ([]any, error) {
	if r.pos >= len(r.rows) {
		return nil, iterator.Done
	}
	row := r.rows[r.pos]
	r.pos++
	return row, nil
}

func (r *sliceRows) Columns() []string { return r.columns }

func (r *sliceRows) TotalRows() uint64 { return uint64(len(r.rows)) }

type fakeJob struct {
	id      string
	readErr error
	rows    bqrun.RowIterator
}

func (j *fakeJob) ID() string { return j.id }

func (j *fakeJob) Read(ctx context.Context) (bqrun.RowIterator, error) {
	if j.readErr != nil {
		return nil, j.readErr
	}
	return j.rows, nil
}

// fakeClient returns the queued errors one per Submit (or Read) call and
// succeeds once the queues are drained.
type fakeClient struct {
	mu sync.Mutex

	submitErrs  []error
	readErrs    []error
	statsErr    error
	bytesBilled *int64

	requests []bqrun.QueryRequest
	statIDs  []string
	nextID   int
}

func (c *fakeClient) Submit(ctx context.Context, req bqrun.QueryRequest) (bqrun.QueryJob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.requests = append(c.requests, req)
	if len(c.submitErrs) > 0 {
		err := c.submitErrs[0]
		c.submitErrs = c.submitErrs[1:]
		if err != nil {
			return nil, err
		}
	}

	c.nextID++
	job := &fakeJob{
		id:   fmt.Sprintf("job_%d", c.nextID),
		rows: &sliceRows{columns: []string{"n"}, rows: [][]any{{int64(1)}}},
	}
	if len(c.readErrs) > 0 {
		job.readErr = c.readErrs[0]
		c.readErrs = c.readErrs[1:]
	}
	return job, nil
}

func (c *fakeClient) JobStatistics(ctx context.Context, jobID string) (*bqrun.JobStatistics, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.statIDs = append(c.statIDs, jobID)
	if c.statsErr != nil {
		return nil, c.statsErr
	}
	return &bqrun.JobStatistics{TotalBytesBilled: c.bytesBilled}, nil
}

func (c *fakeClient) submissions() []bqrun.QueryRequest {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]bqrun.QueryRequest, len(c.requests))
	copy(out, c.requests)
	return out
}

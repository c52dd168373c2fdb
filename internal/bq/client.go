package bq

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/bigquery"
	"github.com/google/uuid"
	"google.golang.org/api/option"

	"github.com/vvka-141/bqrun/pkg/bqrun"
)

// JobIDPrefix starts every job ID submitted by bqrun, which makes the jobs easy
// to find in INFORMATION_SCHEMA.JOBS.
const JobIDPrefix = "bqrun_"

// Options configures NewClient.
type Options struct {
	// ProjectID is the project that runs and is billed for the jobs.
	ProjectID string

	// Location is the default job location. Empty lets BigQuery pick.
	Location string

	// CredentialsFile is a service account key file. Empty means
	// Application Default Credentials.
	CredentialsFile string

	// UserAgent is appended to the client's user agent.
	UserAgent string

	// ClientOptions are passed to bigquery.NewClient after the options above,
	// e.g. an emulator endpoint.
	ClientOptions []option.ClientOption
}

// Client adapts *bigquery.Client to bqrun.QueryClient.
// Safe for concurrent use by multiple goroutines.
type Client struct {
	bq       *bigquery.Client
	newJobID func() string
}

// NewClient creates a BigQuery client. The caller must Close it.
func NewClient(ctx context.Context, opts Options) (*Client, error) {
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}
	if opts.UserAgent != "" {
		clientOpts = append(clientOpts, option.WithUserAgent(opts.UserAgent))
	}
	clientOpts = append(clientOpts, opts.ClientOptions...)

	c, err := bigquery.NewClient(ctx, opts.ProjectID, clientOpts...)
	if err != nil {
		return nil, wrapClientError(err, opts)
	}
	c.Location = opts.Location

	return Wrap(c), nil
}

// Wrap adapts an existing *bigquery.Client. Closing the returned Client closes c.
func Wrap(c *bigquery.Client) *Client {
	return &Client{bq: c, newJobID: newJobID}
}

// Close releases the underlying BigQuery client.
func (c *Client) Close() error {
	return c.bq.Close()
}

// Submit starts a query job carrying req.Labels.
// Errors are returned unchanged so callers can classify them.
func (c *Client) Submit(ctx context.Context, req bqrun.QueryRequest) (bqrun.QueryJob, error) {
	q := c.bq.Query(req.SQL)
	q.Labels = req.Labels
	q.JobID = c.newJobID()

	job, err := q.Run(ctx)
	if err != nil {
		return nil, err
	}
	return &queryJob{job: job}, nil
}

// JobStatistics fetches the job by ID and returns its billing statistics.
func (c *Client) JobStatistics(ctx context.Context, jobID string) (*bqrun.JobStatistics, error) {
	job, err := c.bq.JobFromID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	return statisticsFromStatus(job.LastStatus()), nil
}

// statisticsFromStatus extracts bytes billed. TotalBytesBilled stays nil unless
// the status carries query statistics.
func statisticsFromStatus(status *bigquery.JobStatus) *bqrun.JobStatistics {
	stats := &bqrun.JobStatistics{}
	if status == nil || status.Statistics == nil {
		return stats
	}
	if qs, ok := status.Statistics.Details.(*bigquery.QueryStatistics); ok && qs != nil {
		billed := qs.TotalBytesBilled
		stats.TotalBytesBilled = &billed
	}
	return stats
}

func newJobID() string {
	return JobIDPrefix + strings.ReplaceAll(uuid.NewString(), "-", "_")
}

// wrapClientError adds troubleshooting hints and chains bqrun.ErrConnectionFailed.
func wrapClientError(err error, opts Options) error {
	errStr := strings.ToLower(err.Error())

	switch {
	case strings.Contains(errStr, "could not find default credentials"):
		return fmt.Errorf(`no Google Cloud credentials found

To authenticate:
  - gcloud auth application-default login
  - or set GOOGLE_APPLICATION_CREDENTIALS to a service account key file
  - or pass --credentials <file>

Original error: %w: %w`, bqrun.ErrConnectionFailed, err)

	case opts.CredentialsFile != "" && strings.Contains(errStr, "no such file"):
		return fmt.Errorf(`credentials file %q not found

Original error: %w: %w`, opts.CredentialsFile, bqrun.ErrConnectionFailed, err)

	case strings.Contains(errStr, "project"):
		return fmt.Errorf(`cannot determine the Google Cloud project

Set it with --project, $BQRUN_PROJECT, $GOOGLE_CLOUD_PROJECT or "project:" in bqrun.yaml.

Original error: %w: %w`, bqrun.ErrConnectionFailed, err)
	}

	return fmt.Errorf("failed to create BigQuery client for project %q: %w: %w", opts.ProjectID, bqrun.ErrConnectionFailed, err)
}

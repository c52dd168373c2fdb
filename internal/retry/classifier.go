package retry

import (
	"errors"
	"net/http"

	"cloud.google.com/go/bigquery"
	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

// ErrorKind is the retry classification of a query service error.
type ErrorKind int

const (
	// KindFatal errors are returned to the caller without retrying.
	KindFatal ErrorKind = iota
	// KindInternal is an internal server error (HTTP 500, backendError, internalError).
	KindInternal
	// KindRateLimited is a rate limit rejection (HTTP 429, gRPC ResourceExhausted).
	KindRateLimited
	// KindUnavailable means the service is temporarily unavailable (HTTP 503).
	KindUnavailable
)

func (k ErrorKind) String() string {
	switch k {
	case KindInternal:
		return "internal server error"
	case KindRateLimited:
		return "too many requests"
	case KindUnavailable:
		return "service unavailable"
	default:
		return "fatal"
	}
}

// BigQuery error reasons, see https://cloud.google.com/bigquery/docs/error-messages
const (
	reasonBackendError  = "backendError"
	reasonInternalError = "internalError"
)

// BigQueryErrorClassifier implements ErrorClassifier for BigQuery errors.
//
// Only three kinds are transient: internal server errors, rate limiting and
// service unavailability. Everything else, including 502/504 and network
// failures that the client library already retries internally, is fatal.
type BigQueryErrorClassifier struct{}

// NewBigQueryErrorClassifier creates a new BigQuery error classifier.
func NewBigQueryErrorClassifier() *BigQueryErrorClassifier {
	return &BigQueryErrorClassifier{}
}

// IsTransient determines if an error is temporary and retryable.
func (c *BigQueryErrorClassifier) IsTransient(err error) bool {
	return c.Classify(err) != KindFatal
}

// Classify maps err to its ErrorKind. Wrapped errors are inspected with errors.As.
func (c *BigQueryErrorClassifier) Classify(err error) ErrorKind {
	if err == nil {
		return KindFatal
	}

	// Job failures reported in the job status
	var jobErr *bigquery.Error
	if errors.As(err, &jobErr) {
		if kind := kindFromReason(jobErr.Reason); kind != KindFatal {
			return kind
		}
	}

	// REST API errors
	var apiErr *googleapi.Error
	if errors.As(err, &apiErr) {
		if kind := kindFromHTTPCode(apiErr.Code); kind != KindFatal {
			return kind
		}
		for _, item := range apiErr.Errors {
			if kind := kindFromReason(item.Reason); kind != KindFatal {
				return kind
			}
		}
	}

	// gax errors carry either an HTTP code or a gRPC status
	var gaxErr *apierror.APIError
	if errors.As(err, &gaxErr) {
		if kind := kindFromHTTPCode(gaxErr.HTTPCode()); kind != KindFatal {
			return kind
		}
		if kind := kindFromGRPCCode(gaxErr.GRPCStatus().Code()); kind != KindFatal {
			return kind
		}
		if kind := kindFromReason(gaxErr.Reason()); kind != KindFatal {
			return kind
		}
	}

	return KindFatal
}

func kindFromHTTPCode(code int) ErrorKind {
	switch code {
	case http.StatusInternalServerError:
		return KindInternal
	case http.StatusTooManyRequests:
		return KindRateLimited
	case http.StatusServiceUnavailable:
		return KindUnavailable
	}
	return KindFatal
}

func kindFromGRPCCode(code codes.Code) ErrorKind {
	switch code {
	case codes.Internal:
		return KindInternal
	case codes.ResourceExhausted:
		return KindRateLimited
	case codes.Unavailable:
		return KindUnavailable
	}
	return KindFatal
}

// kindFromReason only recognizes internal failures. rateLimitExceeded and
// quotaExceeded arrive as 403 Forbidden and are not retried.
func kindFromReason(reason string) ErrorKind {
	switch reason {
	case reasonBackendError, reasonInternalError:
		return KindInternal
	}
	return KindFatal
}

package gemini

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"nyaydarpan-backend/metrics"

	"github.com/googleapis/gax-go/v2/apierror"
	"google.golang.org/api/googleapi"
	"google.golang.org/grpc/codes"
)

var (
	// ErrCollaboratorTimeout is returned when every attempt ran out of time
	ErrCollaboratorTimeout = errors.New("collaborator timed out")
	// ErrCollaboratorUnavailable is returned when the collaborator failed or rejected the call
	ErrCollaboratorUnavailable = errors.New("collaborator unavailable")
	// ErrMalformedResponse is returned when the collaborator's output cannot be parsed
	ErrMalformedResponse = errors.New("malformed collaborator response")
)

// RetryPolicy bounds outbound calls
type RetryPolicy struct {
	Attempts int
	Backoff  time.Duration // doubled after every failed attempt
	Timeout  time.Duration // per attempt
}

// DefaultRetryPolicy returns 2 attempts, 500ms initial backoff and a 12s per-attempt timeout
func DefaultRetryPolicy() RetryPolicy {
	return RetryPolicy{
		Attempts: 2,
		Backoff:  500 * time.Millisecond,
		Timeout:  12 * time.Second,
	}
}

// withRetry runs call until it succeeds, a non-retryable error occurs or attempts run out
func withRetry[T any](
	ctx context.Context,
	policy RetryPolicy,
	m *metrics.Metrics,
	collaborator string,
	call func(ctx context.Context) (T, error),
) (T, error) {
	var zero T
	attempts := policy.Attempts
	if attempts < 1 {
		attempts = 1
	}

	backoff := policy.Backoff
	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return zero, fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, ctx.Err())
			case <-time.After(backoff):
			}
			backoff *= 2
		}

		attemptCtx, cancel := context.WithTimeout(ctx, policy.Timeout)
		result, err := call(attemptCtx)
		timedOut := errors.Is(attemptCtx.Err(), context.DeadlineExceeded)
		cancel()

		if err == nil {
			m.CollaboratorCall(collaborator, "ok")
			return result, nil
		}

		if ctx.Err() != nil {
			m.CollaboratorCall(collaborator, "error")
			if errors.Is(ctx.Err(), context.DeadlineExceeded) {
				return zero, fmt.Errorf("%w: %w", ErrCollaboratorTimeout, ctx.Err())
			}
			return zero, fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, ctx.Err())
		}

		if timedOut || errors.Is(err, context.DeadlineExceeded) {
			m.CollaboratorCall(collaborator, "timeout")
			lastErr = fmt.Errorf("%w: attempt %d: %w", ErrCollaboratorTimeout, attempt+1, err)
			continue
		}

		if !retryable(err) {
			m.CollaboratorCall(collaborator, "error")
			return zero, fmt.Errorf("%w: %w", ErrCollaboratorUnavailable, err)
		}

		m.CollaboratorCall(collaborator, "retry")
		lastErr = fmt.Errorf("%w: attempt %d: %w", ErrCollaboratorUnavailable, attempt+1, err)
	}

	return zero, lastErr
}

// retryable reports whether err is worth another attempt.
// Client errors other than rate limiting are not retried.
func retryable(err error) bool {
	if errors.Is(err, ErrMalformedResponse) {
		return true
	}

	var apiErr *apierror.APIError
	if errors.As(err, &apiErr) {
		if code := apiErr.HTTPCode(); code > 0 {
			return retryableHTTP(code)
		}
		if st := apiErr.GRPCStatus(); st != nil {
			switch st.Code() {
			case codes.InvalidArgument, codes.Unauthenticated, codes.PermissionDenied,
				codes.NotFound, codes.FailedPrecondition, codes.Unimplemented:
				return false
			}
		}
		return true
	}

	var gErr *googleapi.Error
	if errors.As(err, &gErr) {
		return retryableHTTP(gErr.Code)
	}

	return true
}

func retryableHTTP(code int) bool {
	if code == http.StatusTooManyRequests {
		return true
	}
	return code < 400 || code >= 500
}

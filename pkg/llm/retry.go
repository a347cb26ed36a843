package llm

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultRetryAttempts is the total number of tries per call.
	DefaultRetryAttempts = 2

	// DefaultRetryBackoff is the base delay between tries.
	DefaultRetryBackoff = time.Second
)

// permanentError marks a failure another attempt cannot fix.
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }

func (e *permanentError) Unwrap() error { return e.err }

// Permanent wraps err so WithRetry surfaces it immediately instead of
// spending the retry budget. Providers use it for authorization and
// malformed-request failures.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent reports whether err carries a Permanent marker anywhere in
// its chain.
func IsPermanent(err error) bool {
	var pe *permanentError
	return errors.As(err, &pe)
}

// retryClient decorates a Client with a small fixed retry budget. Context
// cancellation and Permanent errors are never retried.
type retryClient struct {
	inner    Client
	attempts int
	backoff  time.Duration
}

// WithRetry wraps a client so each call is attempted up to attempts times
// with doubling backoff. Zero values fall back to the defaults.
func WithRetry(inner Client, attempts int, backoff time.Duration) Client {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &retryClient{inner: inner, attempts: attempts, backoff: backoff}
}

func (r *retryClient) Complete(ctx context.Context, prompt string) (string, error) {
	var out string
	var err error
	delay := r.backoff
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return "", ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if out, err = r.inner.Complete(ctx, prompt); err == nil {
			return out, nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return "", err
		}
	}
	return "", err
}

func (r *retryClient) Close() error {
	return r.inner.Close()
}

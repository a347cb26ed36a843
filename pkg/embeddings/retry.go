package embeddings

import (
	"context"
	"errors"
	"time"
)

const (
	// DefaultRetryAttempts is the total number of tries per call.
	DefaultRetryAttempts = 3

	// DefaultRetryBackoff is the base delay between tries; it doubles each
	// retry.
	DefaultRetryBackoff = 500 * time.Millisecond
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

// retryEmbedder decorates an Embedder with a small fixed retry budget for
// transient provider failures. Context cancellation and Permanent errors
// are never retried.
type retryEmbedder struct {
	inner    Embedder
	attempts int
	backoff  time.Duration
}

// WithRetry wraps an embedder so each call is attempted up to attempts
// times with doubling backoff. Zero values fall back to the defaults.
func WithRetry(inner Embedder, attempts int, backoff time.Duration) Embedder {
	if attempts <= 0 {
		attempts = DefaultRetryAttempts
	}
	if backoff <= 0 {
		backoff = DefaultRetryBackoff
	}
	return &retryEmbedder{inner: inner, attempts: attempts, backoff: backoff}
}

func (r *retryEmbedder) Embed(ctx context.Context, text string) ([]float32, error) {
	var vec []float32
	err := r.retry(ctx, func() error {
		var callErr error
		vec, callErr = r.inner.Embed(ctx, text)
		return callErr
	})
	return vec, err
}

func (r *retryEmbedder) EmbedBatch(ctx context.Context, texts []string) ([][]float32, error) {
	var vecs [][]float32
	err := r.retry(ctx, func() error {
		var callErr error
		vecs, callErr = r.inner.EmbedBatch(ctx, texts)
		return callErr
	})
	return vecs, err
}

func (r *retryEmbedder) Dimensions() int {
	return r.inner.Dimensions()
}

func (r *retryEmbedder) Close() error {
	return r.inner.Close()
}

func (r *retryEmbedder) retry(ctx context.Context, call func() error) error {
	var err error
	delay := r.backoff
	for attempt := 0; attempt < r.attempts; attempt++ {
		if attempt > 0 {
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(delay):
			}
			delay *= 2
		}

		if err = call(); err == nil {
			return nil
		}
		if IsPermanent(err) || ctx.Err() != nil {
			return err
		}
	}
	return err
}

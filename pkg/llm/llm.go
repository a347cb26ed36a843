// Package llm defines the language-model capability interface consumed by
// the answer generator. Providers are swappable without touching the
// pipeline.
package llm

import (
	"context"
	"errors"
)

// ErrGeneration is returned when a language-model call fails or returns
// unusable output. It propagates to the caller; the chat surface must show
// an explicit failure, never a fabricated answer.
var ErrGeneration = errors.New("generation failed")

// Client produces a completion for a grounded prompt.
type Client interface {
	// Complete sends the prompt and returns the model's text output.
	Complete(ctx context.Context, prompt string) (string, error)

	// Close releases any resources held by the client.
	Close() error
}

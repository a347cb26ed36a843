// Package embeddings
package embeddings

import (
	"context"
	"errors"
)

// ErrEmbedding is returned when an embedding provider call fails.
var ErrEmbedding = errors.New("embedding failed")

// Embedder provides text embedding capabilities. Implementations must be
// deterministic for identical input and model version, and must declare
// their vector dimensionality up front.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string) ([]float32, error)

	// EmbedBatch converts a batch of texts in a single provider call,
	// returning one vector per input in order. Indexing uses this to
	// bound external-call overhead.
	EmbedBatch(ctx context.Context, texts []string) ([][]float32, error)

	// Dimensions returns the fixed vector dimensionality of this provider.
	Dimensions() int

	// Close releases any resources held by the embedder.
	Close() error
}

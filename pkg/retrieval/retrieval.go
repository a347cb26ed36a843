// Package retrieval resolves a caller's permitted roles, embeds the query,
// and runs the role-filtered similarity search. It is the only path from a
// request to the vector index, so the RBAC decision is made exactly once,
// here, before any ranking happens.
package retrieval

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/embeddings"
	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
)

const (
	// DefaultTopK is the result count when the caller does not specify one.
	DefaultTopK = 5

	// DefaultMinScore drops matches too dissimilar to be useful grounding.
	DefaultMinScore = 0.3

	// overfetchFactor widens the store query so the score threshold does
	// not starve the final topK.
	overfetchFactor = 2
)

// Config tunes the retriever. Zero values fall back to the defaults.
type Config struct {
	MinScore float32
}

// Retriever runs role-scoped semantic retrieval.
type Retriever struct {
	policy   *rbac.Policy
	embedder embeddings.Embedder
	driver   vector.Driver
	minScore float32
	logger   *zap.Logger
}

// NewRetriever wires the policy, embedder, and vector driver together.
func NewRetriever(policy *rbac.Policy, embedder embeddings.Embedder, driver vector.Driver, cfg Config, logger *zap.Logger) *Retriever {
	minScore := cfg.MinScore
	if minScore <= 0 {
		minScore = DefaultMinScore
	}
	return &Retriever{
		policy:   policy,
		embedder: embedder,
		driver:   driver,
		minScore: minScore,
		logger:   logger,
	}
}

// Retrieve returns the topK chunks most similar to the query among the
// partitions callerRole may see, ordered by descending score. An unknown
// role fails with rbac.ErrUnauthorized before anything is embedded or
// searched. An empty index yields an empty result, not an error.
func (r *Retriever) Retrieve(ctx context.Context, query string, callerRole rbac.Role, topK int) ([]vector.Result, error) {
	if topK <= 0 {
		topK = DefaultTopK
	}

	permitted, err := r.policy.PermittedRoles(callerRole)
	if err != nil {
		return nil, err
	}

	r.logger.Debug("retrieval request",
		zap.String("role", string(callerRole)),
		zap.Strings("permitted", rbac.Strings(permitted)),
		zap.Int("topK", topK),
	)

	queryVector, err := r.embedder.Embed(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	results, err := r.driver.Search(ctx, queryVector, permitted, topK*overfetchFactor)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	kept := make([]vector.Result, 0, topK)
	for _, res := range results {
		if res.Score < r.minScore {
			continue
		}
		kept = append(kept, res)
		if len(kept) == topK {
			break
		}
	}

	r.logger.Debug("retrieval result",
		zap.Int("matched", len(results)),
		zap.Int("kept", len(kept)),
	)

	return kept, nil
}

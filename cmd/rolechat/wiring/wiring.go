// Package wiring assembles the rolechat runtime stack from a resolved
// configuration. Both the serve and index commands build the same stack so
// the HTTP server and the CLI indexer cannot drift apart.
package wiring

import (
	"fmt"

	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/answer"
	"github.com/canopyhq/rolechat/pkg/config"
	"github.com/canopyhq/rolechat/pkg/corpus"
	"github.com/canopyhq/rolechat/pkg/embeddings"
	embeddingutils "github.com/canopyhq/rolechat/pkg/embeddings/utils"
	"github.com/canopyhq/rolechat/pkg/eventstream"
	eventkafka "github.com/canopyhq/rolechat/pkg/eventstream/kafka"
	eventnop "github.com/canopyhq/rolechat/pkg/eventstream/nop"
	"github.com/canopyhq/rolechat/pkg/indexer"
	"github.com/canopyhq/rolechat/pkg/llm"
	llmutils "github.com/canopyhq/rolechat/pkg/llm/utils"
	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/retrieval"
	"github.com/canopyhq/rolechat/pkg/users"
	"github.com/canopyhq/rolechat/pkg/vector"
	vectorutils "github.com/canopyhq/rolechat/pkg/vector/utils"
)

// Stack holds every wired runtime component. Close releases them in reverse
// dependency order.
type Stack struct {
	Config    *config.Config
	Policy    *rbac.Policy
	Embedder  embeddings.Embedder
	Driver    vector.Driver
	LLM       llm.Client
	Users     users.Store
	Publisher eventstream.Publisher
	Retriever *retrieval.Retriever
	Generator *answer.Generator
	Indexer   *indexer.Indexer

	logger *zap.Logger
}

// Build wires the full stack from cfg. Every component comes from the
// provider factories so the same switch points serve config files, env vars,
// and flags.
func Build(cfg *config.Config, logger *zap.Logger) (*Stack, error) {
	policy, err := buildPolicy(cfg.RBAC.Grants)
	if err != nil {
		return nil, err
	}

	embedder, err := embeddingutils.NewEmbedder(&embeddingutils.NewEmbedderOpts{
		ProviderType: cfg.Embedding.Provider,
		TargetURL:    cfg.Embedding.Target,
		Model:        cfg.Embedding.Model,
		Dimensions:   int(cfg.Embedding.Dimensions),
		APIKey:       cfg.Embedding.APIKey,
	})
	if err != nil {
		return nil, fmt.Errorf("creating embedder: %w", err)
	}
	embedder = embeddings.WithRetry(embedder, embeddings.DefaultRetryAttempts, embeddings.DefaultRetryBackoff)

	driver, err := vectorutils.NewVectorDriver(&vectorutils.NewVectorDriverOpts{
		ProviderType: cfg.VectorStore.Provider,
		Host:         cfg.VectorStore.Host,
		Port:         int(cfg.VectorStore.Port),
		APIKey:       cfg.VectorStore.APIKey,
		UseTLS:       cfg.VectorStore.UseTLS,
		Collection:   cfg.VectorStore.Collection,
		SQLitePath:   cfg.VectorStore.SQLitePath,
		Logger:       logger,
	})
	if err != nil {
		embedder.Close()
		return nil, fmt.Errorf("creating vector driver: %w", err)
	}

	llmClient, err := llmutils.NewClient(&llmutils.NewClientOpts{
		ProviderType: cfg.LLM.Provider,
		TargetURL:    cfg.LLM.Target,
		Model:        cfg.LLM.Model,
		APIKey:       cfg.LLM.APIKey,
	})
	if err != nil {
		driver.Close()
		embedder.Close()
		return nil, fmt.Errorf("creating llm client: %w", err)
	}
	llmClient = llm.WithRetry(llmClient, llm.DefaultRetryAttempts, llm.DefaultRetryBackoff)

	store, err := users.NewSQLiteStore(cfg.Users.SQLitePath)
	if err != nil {
		llmClient.Close()
		driver.Close()
		embedder.Close()
		return nil, fmt.Errorf("opening user store: %w", err)
	}

	publisher, err := buildPublisher(cfg.Events, logger)
	if err != nil {
		store.Close()
		llmClient.Close()
		driver.Close()
		embedder.Close()
		return nil, err
	}

	retriever := retrieval.NewRetriever(policy, embedder, driver, retrieval.Config{
		MinScore: float32(cfg.Retrieval.MinScore),
	}, logger)

	generator := answer.NewGenerator(llmClient, answer.Config{}, logger)

	ix, err := indexer.New(&indexer.Config{
		Loader: corpus.NewLoader(cfg.Corpus.Root, logger),
		Chunker: corpus.NewChunker(corpus.ChunkerConfig{
			MaxWords:     int(cfg.Corpus.MaxWords),
			OverlapWords: int(cfg.Corpus.OverlapWords),
			MinWords:     int(cfg.Corpus.MinWords),
			MinRowWords:  int(cfg.Corpus.MinRowWords),
		}),
		Embedder:  embedder,
		Driver:    driver,
		Publisher: publisher,
		Logger:    logger,
	})
	if err != nil {
		publisher.Close()
		store.Close()
		llmClient.Close()
		driver.Close()
		embedder.Close()
		return nil, fmt.Errorf("creating indexer: %w", err)
	}

	return &Stack{
		Config:    cfg,
		Policy:    policy,
		Embedder:  embedder,
		Driver:    driver,
		LLM:       llmClient,
		Users:     store,
		Publisher: publisher,
		Retriever: retriever,
		Generator: generator,
		Indexer:   ix,
		logger:    logger,
	}, nil
}

// Close releases every component. Errors are logged, not returned; shutdown
// keeps going.
func (s *Stack) Close() {
	for name, closer := range map[string]func() error{
		"publisher":  s.Publisher.Close,
		"user store": s.Users.Close,
		"llm client": s.LLM.Close,
		"vector":     s.Driver.Close,
		"embedder":   s.Embedder.Close,
	} {
		if err := closer(); err != nil {
			s.logger.Warn("close failed",
				zap.String("component", name),
				zap.Error(err),
			)
		}
	}
}

// buildPolicy converts the config grant table into an rbac.Policy. Unknown
// roles are configuration errors, not silent no-ops.
func buildPolicy(grants map[string][]string) (*rbac.Policy, error) {
	extra := make(map[rbac.Role][]rbac.Role, len(grants))
	for callerStr, docStrs := range grants {
		caller, err := rbac.ParseRole(callerStr)
		if err != nil {
			return nil, fmt.Errorf("rbac grant: %w", err)
		}
		for _, docStr := range docStrs {
			doc, err := rbac.ParseDocumentRole(docStr)
			if err != nil {
				return nil, fmt.Errorf("rbac grant for %q: %w", callerStr, err)
			}
			extra[caller] = append(extra[caller], doc)
		}
	}
	return rbac.NewPolicy(extra), nil
}

// buildPublisher selects the indexing event publisher.
func buildPublisher(cfg config.EventsConfig, logger *zap.Logger) (eventstream.Publisher, error) {
	switch cfg.Provider {
	case "", "none":
		return eventnop.NewPublisher(), nil
	case "kafka":
		publisher, err := eventkafka.NewPublisher(eventkafka.Config{
			Brokers: cfg.Brokers,
			Topic:   cfg.Topic,
		}, logger)
		if err != nil {
			return nil, fmt.Errorf("creating kafka publisher: %w", err)
		}
		return publisher, nil
	default:
		return nil, fmt.Errorf("unsupported events provider: %s", cfg.Provider)
	}
}

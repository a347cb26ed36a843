// Package indexer drives the ingestion pipeline: walk the role-partitioned
// corpus, chunk each document, embed the chunks in batches, and upsert the
// resulting records into the vector store.
//
// Documents are processed by a small worker pool so embedding calls for
// independent files overlap. Per-file failures are logged and counted as
// skips; they never abort the run.
package indexer

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/corpus"
	"github.com/canopyhq/rolechat/pkg/embeddings"
	"github.com/canopyhq/rolechat/pkg/eventstream"
	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
)

var (
	defaultNumWorkers uint = 3
	defaultBatchSize  uint = 32
)

// Report summarizes a completed indexing run.
type Report struct {
	// FilesIndexed counts documents that produced at least one record.
	FilesIndexed int `json:"files_indexed"`

	// FilesSkipped counts documents dropped due to read, chunking, or
	// embedding failures, or because no chunk survived the minimum-length
	// filters.
	FilesSkipped int `json:"files_skipped"`

	// Chunks is the total number of records upserted.
	Chunks int `json:"chunks"`

	// ChunksPerRole breaks Chunks down by document role.
	ChunksPerRole map[rbac.Role]int `json:"chunks_per_role"`

	// Duration is the wall-clock time of the run.
	Duration time.Duration `json:"duration"`
}

// Config is the configuration options for the indexer.
type Config struct {
	// Loader walks the role-partitioned corpus root.
	Loader *corpus.Loader

	// Chunker splits documents into retrieval units.
	Chunker *corpus.Chunker

	// Embedder generates chunk embeddings.
	Embedder embeddings.Embedder

	// Driver is the vector store records are upserted into.
	Driver vector.Driver

	// Publisher receives a DocumentIndexedEvent per indexed document.
	// Optional; a nil Publisher disables event emission.
	Publisher eventstream.Publisher

	// NumWorkers is the number of concurrent document workers.
	NumWorkers uint

	// BatchSize caps how many chunks are embedded per EmbedBatch call.
	BatchSize uint

	// Logger is the provided zap logger.
	Logger *zap.Logger
}

// Indexer runs the corpus ingestion pipeline.
type Indexer struct {
	config *Config
	logger *zap.Logger
}

// New validates the config and creates an Indexer.
func New(c *Config) (*Indexer, error) {
	if c.Loader == nil {
		return nil, fmt.Errorf("loader is required")
	}
	if c.Chunker == nil {
		return nil, fmt.Errorf("chunker is required")
	}
	if c.Embedder == nil {
		return nil, fmt.Errorf("embedder is required")
	}
	if c.Driver == nil {
		return nil, fmt.Errorf("vector driver is required")
	}

	if c.NumWorkers == 0 {
		c.NumWorkers = defaultNumWorkers
	}
	if c.BatchSize == 0 {
		c.BatchSize = defaultBatchSize
	}

	return &Indexer{
		config: c,
		logger: c.Logger,
	}, nil
}

// Init (re)creates the vector store collection sized to the embedder's
// dimensionality.
func (ix *Indexer) Init(ctx context.Context) error {
	return ix.config.Driver.Init(ctx, ix.config.Embedder.Dimensions())
}

// IndexAll walks the corpus and indexes every supported document,
// initializing the vector store collection first. Returns a Report of what
// was ingested.
func (ix *Indexer) IndexAll(ctx context.Context) (*Report, error) {
	start := time.Now()

	if err := ix.Init(ctx); err != nil {
		return nil, fmt.Errorf("initializing vector store: %w", err)
	}

	report := &Report{
		ChunksPerRole: make(map[rbac.Role]int),
	}
	var mu sync.Mutex

	docs := make(chan corpus.Document)
	var wg sync.WaitGroup

	wg.Add(int(ix.config.NumWorkers))
	for i := range ix.config.NumWorkers {
		go func(id uint) {
			defer wg.Done()
			ix.logger.Debug("indexing worker started", zap.Uint("worker_id", id))

			for doc := range docs {
				count, err := ix.indexDocument(ctx, doc)

				mu.Lock()
				if err != nil {
					ix.logger.Warn("skipping document",
						zap.String("source", doc.Source),
						zap.Error(err),
					)
					report.FilesSkipped++
				} else if count == 0 {
					ix.logger.Debug("document produced no chunks",
						zap.String("source", doc.Source),
					)
					report.FilesSkipped++
				} else {
					report.FilesIndexed++
					report.Chunks += count
					report.ChunksPerRole[doc.Role] += count
				}
				mu.Unlock()
			}
		}(i)
	}

	walkErr := ix.config.Loader.Walk(ctx, func(doc corpus.Document) error {
		select {
		case docs <- doc:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	})

	close(docs)
	wg.Wait()

	if walkErr != nil {
		return nil, fmt.Errorf("walking corpus: %w", walkErr)
	}

	report.Duration = time.Since(start)
	ix.logger.Info("indexing run complete",
		zap.Int("files_indexed", report.FilesIndexed),
		zap.Int("files_skipped", report.FilesSkipped),
		zap.Int("chunks", report.Chunks),
		zap.Duration("duration", report.Duration),
	)

	return report, nil
}

// Reindex clears the vector store and runs a fresh IndexAll.
func (ix *Indexer) Reindex(ctx context.Context) (*Report, error) {
	if err := ix.config.Driver.Clear(ctx); err != nil {
		return nil, fmt.Errorf("clearing vector store: %w", err)
	}
	return ix.IndexAll(ctx)
}

// indexDocument chunks, embeds, and upserts a single document. Returns the
// number of records upserted.
func (ix *Indexer) indexDocument(ctx context.Context, doc corpus.Document) (int, error) {
	chunks, err := ix.config.Chunker.Chunk(doc)
	if err != nil {
		return 0, fmt.Errorf("chunking: %w", err)
	}
	if len(chunks) == 0 {
		return 0, nil
	}

	total := 0
	for batch := range batches(chunks, int(ix.config.BatchSize)) {
		texts := make([]string, len(batch))
		for i, chunk := range batch {
			texts[i] = chunk.Text
		}

		vectors, err := ix.config.Embedder.EmbedBatch(ctx, texts)
		if err != nil {
			return 0, fmt.Errorf("embedding batch: %w", err)
		}
		if len(vectors) != len(batch) {
			return 0, fmt.Errorf("embedder returned %d vectors for %d chunks", len(vectors), len(batch))
		}

		records := make([]vector.Record, len(batch))
		for i, chunk := range batch {
			records[i] = vector.Record{
				ID:     chunk.ID,
				Vector: vectors[i],
				Role:   chunk.Role,
				Payload: vector.Payload{
					Source:     chunk.Source,
					Section:    chunk.Section,
					Text:       chunk.Text,
					ChunkIndex: chunk.Index,
				},
			}
		}

		if err := ix.config.Driver.Upsert(ctx, records); err != nil {
			return 0, fmt.Errorf("upserting records: %w", err)
		}
		total += len(records)
	}

	ix.logger.Debug("indexed document",
		zap.String("source", doc.Source),
		zap.String("role", string(doc.Role)),
		zap.Int("chunks", total),
	)

	ix.publishIndexed(ctx, doc, total)

	return total, nil
}

// publishIndexed emits a DocumentIndexedEvent if a publisher is configured.
// Publish failures are logged, never propagated; indexing already succeeded.
func (ix *Indexer) publishIndexed(ctx context.Context, doc corpus.Document, chunks int) {
	if ix.config.Publisher == nil {
		return
	}

	event := &eventstream.DocumentIndexedEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeDocumentIndexed,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		Source:        doc.Source,
		Role:          doc.Role,
		Chunks:        chunks,
	}

	if err := ix.config.Publisher.PublishDocumentIndexed(ctx, event); err != nil {
		ix.logger.Warn("failed to publish indexing event",
			zap.String("source", doc.Source),
			zap.Error(err),
		)
	}
}

// batches yields chunks in slices of at most size.
func batches(chunks []corpus.Chunk, size int) func(func([]corpus.Chunk) bool) {
	return func(yield func([]corpus.Chunk) bool) {
		for start := 0; start < len(chunks); start += size {
			end := min(start+size, len(chunks))
			if !yield(chunks[start:end]) {
				return
			}
		}
	}
}

package corpus

import (
	"fmt"
	"os"
)

const (
	// DefaultMaxWords bounds the size of a prose chunk.
	DefaultMaxWords = 400

	// DefaultOverlapWords is carried between consecutive prose chunks so
	// context at the boundary is not lost.
	DefaultOverlapWords = 50

	// DefaultMinWords drops prose chunks too short to be independently
	// meaningful.
	DefaultMinWords = 10

	// DefaultMinRowWords drops tabular rows too sparse to be useful.
	DefaultMinRowWords = 5
)

// ChunkerConfig holds the splitting policy. Zero values fall back to the
// defaults above.
type ChunkerConfig struct {
	MaxWords     int
	OverlapWords int
	MinWords     int
	MinRowWords  int
}

// Chunker splits a document's text into an ordered, finite sequence of
// chunks. Chunking is a pure function of the file content and the config:
// running it twice over unchanged text yields byte-identical ids.
type Chunker struct {
	cfg ChunkerConfig
}

// NewChunker creates a chunker with the given policy.
func NewChunker(cfg ChunkerConfig) *Chunker {
	if cfg.MaxWords <= 0 {
		cfg.MaxWords = DefaultMaxWords
	}
	if cfg.OverlapWords <= 0 || cfg.OverlapWords >= cfg.MaxWords {
		cfg.OverlapWords = DefaultOverlapWords
	}
	if cfg.MinWords <= 0 {
		cfg.MinWords = DefaultMinWords
	}
	if cfg.MinRowWords <= 0 {
		cfg.MinRowWords = DefaultMinRowWords
	}
	return &Chunker{cfg: cfg}
}

// Chunk reads the document from disk and splits it. A read failure is
// returned to the caller, which treats it as a skip-level load error.
func (c *Chunker) Chunk(doc Document) ([]Chunk, error) {
	data, err := os.ReadFile(doc.Path)
	if err != nil {
		return nil, fmt.Errorf("reading %q: %w", doc.Path, err)
	}
	return c.ChunkText(doc, string(data))
}

// ChunkText splits already-loaded content. Exposed separately so tests can
// exercise the splitting policy without touching the filesystem.
func (c *Chunker) ChunkText(doc Document, text string) ([]Chunk, error) {
	switch doc.Format {
	case FormatTabular:
		return c.chunkTabular(doc, text)
	default:
		return c.chunkProse(doc, text), nil
	}
}

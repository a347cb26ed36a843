// Package vector provides interfaces and implementations for role-filtered
// vector index storage.
package vector

import (
	"context"

	"github.com/canopyhq/rolechat/pkg/rbac"
)

// Payload is the chunk metadata persisted alongside each vector.
type Payload struct {
	// Source is the originating file name.
	Source string

	// Section is the heading or row title the chunk came from.
	Section string

	// Text is the chunk content used for prompting.
	Text string

	// ChunkIndex is the chunk's position within its document.
	ChunkIndex int
}

// Record is the persisted unit in the index: (chunk id, vector, role,
// payload). Chunk id is unique within the store; upserting the same id
// replaces the prior record.
type Record struct {
	// ID is the deterministic chunk id (a UUID string).
	ID string

	// Vector is the chunk's embedding.
	Vector []float32

	// Role is the owning document role. The search filter is keyed on it.
	Role rbac.Role

	Payload Payload
}

// Result is a search hit with its similarity score.
type Result struct {
	Record

	// Score is the cosine similarity to the query (higher = more similar).
	Score float32
}

// Stats describes the index contents.
type Stats struct {
	// Total is the overall record count.
	Total int

	// PerRole maps each document role to its record count.
	PerRole map[rbac.Role]int

	// Dimensions is the collection's vector size.
	Dimensions int

	// Collection is the backing collection name, when the driver has one.
	Collection string
}

// Driver handles storage and retrieval of role-tagged chunk vectors.
// Implementations must be safe for concurrent upserts and searches: a
// search in progress observes either the pre- or post-upsert state of each
// record, never a partial write.
type Driver interface {
	// Init (re)creates the underlying collection with the given vector
	// dimensionality and cosine distance. Returns ErrIndexInit when a
	// collection already exists with an incompatible dimensionality.
	Init(ctx context.Context, dimensions int) error

	// Upsert inserts or replaces records keyed by chunk id. Repeating an
	// identical upsert is a no-op in effect.
	Upsert(ctx context.Context, records []Record) error

	// Search returns the topK records most similar to the query vector
	// among records whose role is in allowedRoles. The role filter is
	// mandatory and applied before ranking; a record outside the allowed
	// set never appears in results or influences topK selection. Ties on
	// equal similarity break by ascending chunk id.
	Search(ctx context.Context, query []float32, allowedRoles []rbac.Role, topK int) ([]Result, error)

	// Stats returns per-role and total record counts.
	Stats(ctx context.Context) (*Stats, error)

	// Clear removes all records. Subsequent searches return empty until
	// the corpus is re-indexed.
	Clear(ctx context.Context) error

	// Close releases any resources held by the driver.
	Close() error
}

package eventstream

import (
	"time"

	"github.com/canopyhq/rolechat/pkg/rbac"
)

const (
	// SchemaVersionV1 is the first version of the event payload schema.
	SchemaVersionV1 = 1

	// EventTypeDocumentIndexed is emitted after a document's chunks are
	// upserted into the vector index.
	EventTypeDocumentIndexed = "rolechat.document.indexed"
)

// DocumentIndexedEvent is a transport-neutral event payload emitted once
// per document during an indexing run.
type DocumentIndexedEvent struct {
	SchemaVersion int       `json:"schema_version"`
	EventType     string    `json:"event_type"`
	EventID       string    `json:"event_id"`
	EmittedAt     time.Time `json:"emitted_at"`

	// Source is the document file name; Role its owning partition.
	Source string    `json:"source"`
	Role   rbac.Role `json:"role"`

	// Chunks is the number of records upserted for this document.
	Chunks int `json:"chunks"`
}

// Package corpus loads role-partitioned source documents and splits them
// into bounded, overlapping chunks ready for embedding. Documents live
// under <root>/<role>/, one subdirectory per document role; markdown and
// plain text are chunked by section and word window, tabular files one row
// per chunk.
package corpus

import (
	"errors"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"github.com/canopyhq/rolechat/pkg/rbac"
)

// ErrLoad is returned when the corpus root or a role subdirectory cannot be
// read. Individual unreadable files are skipped, not fatal.
var ErrLoad = errors.New("corpus load failed")

// Format identifies how a source file is parsed and chunked.
type Format string

const (
	// FormatMarkdown covers markdown and plain-text files, loaded whole.
	FormatMarkdown Format = "markdown"

	// FormatTabular covers delimited files where each row becomes a
	// self-describing textual record.
	FormatTabular Format = "tabular"
)

// Document is a source file tagged with the role that owns it. Content is
// read lazily at chunk time so walking a large corpus stays cheap.
type Document struct {
	// Path is the absolute location of the file on disk.
	Path string

	// Source is the file's base name, used in references.
	Source string

	// Role is the owning role, derived from the containing subdirectory.
	Role rbac.Role

	// Format selects the chunking strategy.
	Format Format
}

// Chunk is a bounded span of a document's text, the unit of embedding and
// retrieval. Every chunk inherits exactly one owning role from its document.
type Chunk struct {
	// ID is a deterministic UUIDv5 of (source path, role, index), so
	// re-chunking unchanged text yields identical ids.
	ID string

	Role    rbac.Role
	Source  string
	Section string
	Text    string

	// Index is the chunk's position within its document.
	Index int

	// WordCount is the number of whitespace-delimited words in Text.
	WordCount int
}

// chunkNamespace scopes chunk UUIDs to this system.
var chunkNamespace = uuid.NewSHA1(uuid.NameSpaceOID, []byte("rolechat.corpus.chunk"))

// ChunkID derives the deterministic id for a chunk at the given position.
func ChunkID(path string, role rbac.Role, index int) string {
	key := fmt.Sprintf("%s|%s|%d", path, role, index)
	return uuid.NewSHA1(chunkNamespace, []byte(key)).String()
}

// formatForPath maps a file extension to its Format. The second return is
// false for unsupported extensions, which are skipped rather than errored.
func formatForPath(path string) (Format, bool) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".md", ".markdown", ".txt":
		return FormatMarkdown, true
	case ".csv":
		return FormatTabular, true
	}
	return "", false
}

func countWords(s string) int {
	return len(strings.Fields(s))
}

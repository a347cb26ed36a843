package corpus

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"go.uber.org/zap"

	"github.com/canopyhq/rolechat/pkg/rbac"
)

// Loader walks a role-partitioned directory tree and produces a lazy
// sequence of documents, one per supported file.
type Loader struct {
	root   string
	logger *zap.Logger
}

// NewLoader creates a loader rooted at the given directory. The expected
// layout is <root>/<role>/*.md and <root>/<role>/*.csv.
func NewLoader(root string, logger *zap.Logger) *Loader {
	return &Loader{
		root:   root,
		logger: logger,
	}
}

// Walk invokes fn once per supported document, in deterministic (sorted)
// directory order. Subdirectories whose name is not an enumerated document
// role are skipped with a warning; unsupported file extensions are skipped
// silently at debug level. An unreadable root or role directory aborts the
// walk with ErrLoad.
func (l *Loader) Walk(ctx context.Context, fn func(Document) error) error {
	entries, err := os.ReadDir(l.root)
	if err != nil {
		return fmt.Errorf("%w: reading root %q: %v", ErrLoad, l.root, err)
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		role, err := rbac.ParseDocumentRole(entry.Name())
		if err != nil {
			l.logger.Warn("skipping non-role directory",
				zap.String("dir", entry.Name()),
			)
			continue
		}

		roleDir := filepath.Join(l.root, entry.Name())
		files, err := os.ReadDir(roleDir)
		if err != nil {
			return fmt.Errorf("%w: reading role directory %q: %v", ErrLoad, roleDir, err)
		}

		for _, file := range files {
			if err := ctx.Err(); err != nil {
				return err
			}
			if file.IsDir() {
				continue
			}

			path := filepath.Join(roleDir, file.Name())
			format, ok := formatForPath(path)
			if !ok {
				l.logger.Debug("skipping unsupported file",
					zap.String("path", path),
				)
				continue
			}

			doc := Document{
				Path:   path,
				Source: file.Name(),
				Role:   role,
				Format: format,
			}
			if err := fn(doc); err != nil {
				return err
			}
		}
	}

	return nil
}

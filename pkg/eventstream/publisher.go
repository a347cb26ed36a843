// Package eventstream publishes indexing lifecycle events to an event
// stream backend, so downstream systems can track corpus freshness.
package eventstream

import "context"

// Publisher publishes indexing events to an event stream backend.
type Publisher interface {
	PublishDocumentIndexed(ctx context.Context, event *DocumentIndexedEvent) error
	Close() error
}

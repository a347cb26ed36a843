// Package inmemory provides a process-local vector driver used by tests and
// single-node development. It implements the same role-filtered search
// contract as the Qdrant driver: filter first, rank second, tie-break by
// ascending chunk id.
package inmemory

import (
	"context"
	"fmt"
	"math"
	"sort"
	"sync"

	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
)

// Driver is an in-memory vector.Driver. A RWMutex guards the record map so
// concurrent upserts and searches observe whole records only.
type Driver struct {
	mu         sync.RWMutex
	records    map[string]vector.Record
	dimensions int
}

// NewDriver creates an empty in-memory driver. Init must be called before
// records can be upserted.
func NewDriver() *Driver {
	return &Driver{}
}

// Init creates the collection. Re-initializing with a different
// dimensionality while records exist is an incompatibility, matching the
// remote driver's behavior.
func (d *Driver) Init(_ context.Context, dimensions int) error {
	if dimensions <= 0 {
		return fmt.Errorf("%w: invalid dimensions %d", vector.ErrIndexInit, dimensions)
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	if d.records != nil && d.dimensions != dimensions && len(d.records) > 0 {
		return fmt.Errorf("%w: collection exists with dimensions %d, requested %d",
			vector.ErrIndexInit, d.dimensions, dimensions)
	}

	if d.records == nil {
		d.records = make(map[string]vector.Record)
	}
	d.dimensions = dimensions
	return nil
}

// Upsert inserts or replaces records keyed by chunk id.
func (d *Driver) Upsert(_ context.Context, records []vector.Record) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.records == nil {
		return vector.ErrNotInitialized
	}

	for _, rec := range records {
		if len(rec.Vector) != d.dimensions {
			return fmt.Errorf("%w: record %s has %d dimensions, collection has %d",
				vector.ErrIndexInit, rec.ID, len(rec.Vector), d.dimensions)
		}
		d.records[rec.ID] = rec
	}
	return nil
}

// Search ranks only records whose role is in allowedRoles; everything else
// is excluded before scoring so it cannot influence topK selection.
func (d *Driver) Search(_ context.Context, query []float32, allowedRoles []rbac.Role, topK int) ([]vector.Result, error) {
	if topK <= 0 {
		return nil, nil
	}

	allowed := make(map[rbac.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	d.mu.RLock()
	var results []vector.Result
	for _, rec := range d.records {
		if _, ok := allowed[rec.Role]; !ok {
			continue
		}
		results = append(results, vector.Result{
			Record: rec,
			Score:  cosine(query, rec.Vector),
		})
	}
	d.mu.RUnlock()

	sort.Slice(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].ID < results[j].ID
	})

	if len(results) > topK {
		results = results[:topK]
	}
	return results, nil
}

// Stats returns record counts per role and in total.
func (d *Driver) Stats(_ context.Context) (*vector.Stats, error) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	perRole := make(map[rbac.Role]int, len(rbac.DocumentRoles))
	for _, rec := range d.records {
		perRole[rec.Role]++
	}

	return &vector.Stats{
		Total:      len(d.records),
		PerRole:    perRole,
		Dimensions: d.dimensions,
		Collection: "inmemory",
	}, nil
}

// Clear removes all records but keeps the collection dimensionality.
func (d *Driver) Clear(_ context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.records = make(map[string]vector.Record)
	return nil
}

// Close is a no-op.
func (d *Driver) Close() error {
	return nil
}

func cosine(a, b []float32) float32 {
	if len(a) != len(b) || len(a) == 0 {
		return 0
	}
	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}
	if normA == 0 || normB == 0 {
		return 0
	}
	return float32(dot / (math.Sqrt(normA) * math.Sqrt(normB)))
}

var _ vector.Driver = (*Driver)(nil)

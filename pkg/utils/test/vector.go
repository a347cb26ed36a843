package testutils

import (
	"context"
	"fmt"

	"github.com/canopyhq/rolechat/pkg/rbac"
	"github.com/canopyhq/rolechat/pkg/vector"
)

// MockVectorDriver is a test vector driver with scripted results
type MockVectorDriver struct {
	// Results is returned from Search verbatim (truncated to topK) after
	// role filtering.
	Results []vector.Result

	// Upserted accumulates every record passed to Upsert.
	Upserted []vector.Record

	// FailSearch forces Search to error.
	FailSearch bool

	// LastAllowedRoles records the filter of the most recent Search.
	LastAllowedRoles []rbac.Role

	Cleared     bool
	InitDims    int
	SearchCalls int
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{}
}

func (m *MockVectorDriver) Init(_ context.Context, dimensions int) error {
	m.InitDims = dimensions
	return nil
}

func (m *MockVectorDriver) Upsert(_ context.Context, records []vector.Record) error {
	m.Upserted = append(m.Upserted, records...)
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, _ []float32, allowedRoles []rbac.Role, topK int) ([]vector.Result, error) {
	m.SearchCalls++
	m.LastAllowedRoles = allowedRoles
	if m.FailSearch {
		return nil, fmt.Errorf("mock search failure")
	}

	allowed := make(map[rbac.Role]struct{}, len(allowedRoles))
	for _, r := range allowedRoles {
		allowed[r] = struct{}{}
	}

	out := make([]vector.Result, 0, len(m.Results))
	for _, res := range m.Results {
		if _, ok := allowed[res.Role]; !ok {
			continue
		}
		out = append(out, res)
		if len(out) == topK {
			break
		}
	}
	return out, nil
}

func (m *MockVectorDriver) Stats(_ context.Context) (*vector.Stats, error) {
	perRole := make(map[rbac.Role]int)
	seen := make(map[string]rbac.Role)
	for _, rec := range m.Upserted {
		seen[rec.ID] = rec.Role
	}
	for _, role := range seen {
		perRole[role]++
	}
	return &vector.Stats{
		Total:      len(seen),
		PerRole:    perRole,
		Dimensions: m.InitDims,
		Collection: "mock",
	}, nil
}

func (m *MockVectorDriver) Clear(_ context.Context) error {
	m.Cleared = true
	m.Upserted = nil
	m.Results = nil
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

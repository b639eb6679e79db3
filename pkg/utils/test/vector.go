package testutils

import (
	"context"
	"fmt"

	"github.com/quarryhq/dossier/pkg/vector"
)

// MockVectorDriver is an in-memory vector driver keyed by collection. Upserts
// replace documents sharing an ID, mirroring the real drivers' idempotency.
type MockVectorDriver struct {
	Collections map[string][]vector.Document

	// FailUpsert and FailQuery force errors for failure-path tests.
	FailUpsert bool
	FailQuery  bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Collections: make(map[string][]vector.Document),
	}
}

func (m *MockVectorDriver) Upsert(_ context.Context, collection string, docs []vector.Document) error {
	if m.FailUpsert {
		return fmt.Errorf("mock upsert failure")
	}

	existing := m.Collections[collection]
	for _, doc := range docs {
		replaced := false
		for i := range existing {
			if existing[i].ID == doc.ID {
				existing[i] = doc
				replaced = true
				break
			}
		}
		if !replaced {
			existing = append(existing, doc)
		}
	}
	m.Collections[collection] = existing
	return nil
}

func (m *MockVectorDriver) Query(_ context.Context, collection string, _ []float32, topK int) ([]vector.QueryResult, error) {
	if m.FailQuery {
		return nil, fmt.Errorf("mock query failure")
	}
	if topK <= 0 {
		return nil, nil
	}

	docs := m.Collections[collection]
	if len(docs) > topK {
		docs = docs[:topK]
	}

	results := make([]vector.QueryResult, len(docs))
	for i, doc := range docs {
		results[i] = vector.QueryResult{Document: doc, Score: 1.0 - float32(i)*0.1}
	}
	return results, nil
}

func (m *MockVectorDriver) Count(_ context.Context, collection string) (int, error) {
	return len(m.Collections[collection]), nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

// Ensure MockVectorDriver implements vector.Driver
var _ vector.Driver = (*MockVectorDriver)(nil)

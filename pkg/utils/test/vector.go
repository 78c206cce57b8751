package testutils

import (
	"context"
	"fmt"

	"github.com/fahd-noodleseed/memoire/pkg/vector"
)

// MockVectorDriver is a test vector driver that records documents per project
// and returns configurable search results.
type MockVectorDriver struct {
	// Documents maps project id -> added documents.
	Documents map[string][]vector.Document

	// Results is returned by Search for any project unless FailSearch is set.
	Results []vector.QueryResult

	// Deleted maps project id -> ids passed to Delete.
	Deleted map[string][]string

	// Dropped records projects passed to DropProject.
	Dropped []string

	// FailSearch causes Search to return an error.
	FailSearch bool

	// FailAdd causes Add to return an error.
	FailAdd bool
}

func NewMockVectorDriver() *MockVectorDriver {
	return &MockVectorDriver{
		Documents: make(map[string][]vector.Document),
		Deleted:   make(map[string][]string),
	}
}

func (m *MockVectorDriver) Add(_ context.Context, projectID string, docs []vector.Document) error {
	if m.FailAdd {
		return fmt.Errorf("mock add failure")
	}
	m.Documents[projectID] = append(m.Documents[projectID], docs...)
	return nil
}

func (m *MockVectorDriver) Search(_ context.Context, _ string, _ []float32, opts vector.SearchOptions) ([]vector.QueryResult, error) {
	if m.FailSearch {
		return nil, vector.ErrConnection
	}

	results := m.Results
	if opts.Limit > 0 && len(results) > opts.Limit {
		results = results[:opts.Limit]
	}
	return results, nil
}

func (m *MockVectorDriver) Delete(_ context.Context, projectID string, ids []string) error {
	m.Deleted[projectID] = append(m.Deleted[projectID], ids...)
	return nil
}

func (m *MockVectorDriver) DropProject(_ context.Context, projectID string) error {
	m.Dropped = append(m.Dropped, projectID)
	return nil
}

func (m *MockVectorDriver) Close() error {
	return nil
}

var _ vector.Driver = (*MockVectorDriver)(nil)

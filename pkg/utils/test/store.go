package testutils

import (
	"context"

	"github.com/fahd-noodleseed/memoire/pkg/memory"
	"github.com/fahd-noodleseed/memoire/pkg/memory/inmemory"
)

// MockStore is an in-memory memory.Store with per-operation failure switches
// for exercising degraded-store paths.
type MockStore struct {
	*inmemory.Store

	// FailGetFragment makes GetFragment return memory.ErrStoreUnavailable.
	FailGetFragment bool

	// FailListProjects makes ListProjects return memory.ErrStoreUnavailable.
	FailListProjects bool

	// FailCreateFragment makes CreateFragment return memory.ErrStoreUnavailable.
	FailCreateFragment bool

	// FailCreateContext makes CreateContext return memory.ErrStoreUnavailable.
	FailCreateContext bool
}

// NewMockStore creates an empty mock store.
func NewMockStore() *MockStore {
	return &MockStore{
		Store: inmemory.NewStore(),
	}
}

func (m *MockStore) GetFragment(ctx context.Context, id string) (*memory.Fragment, error) {
	if m.FailGetFragment {
		return nil, memory.ErrStoreUnavailable
	}

	return m.Store.GetFragment(ctx, id)
}

func (m *MockStore) ListProjects(ctx context.Context) ([]*memory.Project, error) {
	if m.FailListProjects {
		return nil, memory.ErrStoreUnavailable
	}

	return m.Store.ListProjects(ctx)
}

func (m *MockStore) CreateFragment(ctx context.Context, fragment *memory.Fragment) (string, error) {
	if m.FailCreateFragment {
		return "", memory.ErrStoreUnavailable
	}

	return m.Store.CreateFragment(ctx, fragment)
}

func (m *MockStore) CreateContext(ctx context.Context, c *memory.Context) (string, error) {
	if m.FailCreateContext {
		return "", memory.ErrStoreUnavailable
	}

	return m.Store.CreateContext(ctx, c)
}

var _ memory.Store = (*MockStore)(nil)

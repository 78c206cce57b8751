package testutils

import (
	"context"
	"fmt"
	"sync"

	"github.com/fahd-noodleseed/memoire/pkg/embeddings"
)

// MockEmbedder is a test embedder that returns predictable embeddings
type MockEmbedder struct {
	Embeddings map[string][]float32

	// FailOn causes Embed to return an error when the input text matches
	FailOn string

	// ModelName is reported by Model. Defaults to "test-model".
	ModelName string

	// Dims is reported by Dimensions. Defaults to 3.
	Dims uint

	mu sync.Mutex

	// Calls counts provider invocations (cache misses).
	Calls int
}

func NewMockEmbedder() *MockEmbedder {
	return &MockEmbedder{
		Embeddings: make(map[string][]float32),
	}
}

func (m *MockEmbedder) Embed(_ context.Context, text string, _ embeddings.Task) ([]float32, error) {
	m.mu.Lock()
	m.Calls++
	m.mu.Unlock()

	if m.FailOn != "" && text == m.FailOn {
		return nil, fmt.Errorf("mock embedding failure for: %s", text)
	}

	if emb, ok := m.Embeddings[text]; ok {
		return emb, nil
	}

	// Return a default embedding for any text
	return []float32{0.1, 0.2, 0.3}, nil
}

func (m *MockEmbedder) Model() string {
	if m.ModelName == "" {
		return "test-model"
	}
	return m.ModelName
}

func (m *MockEmbedder) Dimensions() uint {
	if m.Dims == 0 {
		return 3
	}
	return m.Dims
}

func (m *MockEmbedder) Close() error {
	return nil
}

var _ embeddings.Embedder = (*MockEmbedder)(nil)

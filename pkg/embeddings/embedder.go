// Package embeddings
package embeddings

import "context"

// Task hints the provider about the downstream use of an embedding.
// Providers that distinguish document vs. query embeddings can use it to
// pick the right task type; others ignore it.
type Task string

const (
	// TaskDocument marks text being stored for later retrieval.
	TaskDocument Task = "document"

	// TaskQuery marks text used to search stored documents.
	TaskQuery Task = "query"

	// TaskSimilarity marks text compared against other text symmetrically.
	TaskSimilarity Task = "similarity"
)

// Embedder provides text embedding capabilities.
type Embedder interface {
	// Embed converts text into a vector embedding.
	Embed(ctx context.Context, text string, task Task) ([]float32, error)

	// Model returns the embedding model identifier.
	Model() string

	// Dimensions returns the declared vector size.
	Dimensions() uint

	// Close releases any resources held by the embedder.
	Close() error
}

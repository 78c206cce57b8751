// Package vector provides interfaces and implementations for vector storage.
package vector

import "context"

// Document represents a stored item with its embedding and metadata.
type Document struct {
	// ID is a unique identifier for the document (the fragment id).
	ID string

	// Embedding is the vector representation of the document content.
	Embedding []float32

	// Metadata holds filterable key/value pairs stored alongside the
	// embedding (e.g. context ids, source).
	Metadata map[string]string
}

// QueryResult represents a search result with similarity score.
type QueryResult struct {
	Document

	// Score represents the similarity score (higher = more similar).
	Score float32
}

// SearchOptions narrows a similarity search.
type SearchOptions struct {
	// Threshold excludes results scoring below it. Zero means no cutoff.
	Threshold float32

	// Limit caps the number of results. Zero falls back to the driver default.
	Limit int

	// Filters are exact-match conditions against document metadata.
	Filters map[string]string
}

// Driver handles storage and retrieval of vector embeddings.
// All operations are scoped to a project; each project is an isolated
// search space (a collection, in qdrant terms).
type Driver interface {
	// Add stores documents with their embeddings in the project's space.
	// If a document with the same ID already exists, implementers should
	// update the document.
	Add(ctx context.Context, projectID string, docs []Document) error

	// Search finds documents similar to the given embedding within the
	// project's space, honoring the threshold, limit, and metadata filters.
	Search(ctx context.Context, projectID string, embedding []float32, opts SearchOptions) ([]QueryResult, error)

	// Delete removes documents by their IDs from the project's space.
	Delete(ctx context.Context, projectID string, ids []string) error

	// DropProject removes the project's entire search space.
	DropProject(ctx context.Context, projectID string) error

	// Close releases any resources held by the driver.
	Close() error
}

package embeddings

import (
	"context"
	"fmt"
	"strings"
	"time"

	"go.uber.org/zap"
)

// Service wraps an Embedder with the embedding cache, batched embedding with
// rate-limit delays, and per-item failure fallback.
type Service struct {
	embedder Embedder
	cache    *Cache
	config   ServiceConfig
	logger   *zap.Logger
}

// ServiceConfig holds batching behavior for the embedding service.
type ServiceConfig struct {
	// BatchSize is the number of embeddings between rate-limit pauses.
	BatchSize int

	// BatchDelay is how long to pause after each BatchSize embeddings.
	BatchDelay time.Duration
}

// NewService creates an embedding service around the given embedder and cache.
func NewService(embedder Embedder, cache *Cache, config ServiceConfig, logger *zap.Logger) *Service {
	if config.BatchSize <= 0 {
		config.BatchSize = 10
	}

	return &Service{
		embedder: embedder,
		cache:    cache,
		config:   config,
		logger:   logger,
	}
}

// Embed converts text into a vector embedding, checking the cache first.
// Empty or whitespace-only text is rejected with ErrInvalidInput.
func (s *Service) Embed(ctx context.Context, text string, task Task) ([]float32, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", ErrInvalidInput)
	}

	model := s.embedder.Model()
	if vec, ok := s.cache.Get(text, model); ok {
		s.logger.Debug("embedding cache hit", zap.String("model", model))
		return vec, nil
	}

	vec, err := s.embedder.Embed(ctx, text, task)
	if err != nil {
		return nil, err
	}

	s.cache.Set(text, model, vec)

	return vec, nil
}

// EmbedBatch embeds texts in order, pausing for the configured delay after
// every BatchSize successful embeddings. Failed items do not count toward the
// pause: a per-item provider failure substitutes a zero vector of the
// embedder's declared dimension and continues, and the returned slice always
// preserves input order and length. The only hard failure is context
// cancellation during a pause.
func (s *Service) EmbedBatch(ctx context.Context, texts []string, task Task) ([][]float32, error) {
	results := make([][]float32, len(texts))

	succeeded := 0
	for i, text := range texts {
		if succeeded > 0 && succeeded%s.config.BatchSize == 0 && s.config.BatchDelay > 0 {
			select {
			case <-ctx.Done():
				return nil, ctx.Err()
			case <-time.After(s.config.BatchDelay):
			}
			succeeded = 0
		}

		vec, err := s.Embed(ctx, text, task)
		if err != nil {
			s.logger.Warn("batch embedding item failed, substituting zero vector",
				zap.Int("index", i),
				zap.Error(err),
			)
			vec = make([]float32, s.embedder.Dimensions())
		} else {
			succeeded++
		}

		results[i] = vec
	}

	return results, nil
}

// CacheStats reports the underlying cache occupancy.
func (s *Service) CacheStats() CacheStats {
	return s.cache.Stats()
}

// CleanupExpired evicts expired cache entries and returns the count removed.
func (s *Service) CleanupExpired() int {
	return s.cache.CleanupExpired()
}

// Dimensions returns the embedder's declared vector size.
func (s *Service) Dimensions() uint {
	return s.embedder.Dimensions()
}

// Close releases the underlying embedder.
func (s *Service) Close() error {
	return s.embedder.Close()
}

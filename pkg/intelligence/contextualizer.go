package intelligence

import (
	"context"

	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

// Contextualizer turns raw text into stored fragments, each assigned to one
// or more resolved contexts.
type Contextualizer struct {
	chunker  *ContextualChunker
	resolver *Resolver
	memories *memory.Service
	logger   *zap.Logger
}

// NewContextualizer creates the emergent contextualization orchestrator.
func NewContextualizer(chunker *ContextualChunker, resolver *Resolver, memories *memory.Service, logger *zap.Logger) *Contextualizer {
	return &Contextualizer{
		chunker:  chunker,
		resolver: resolver,
		memories: memories,
		logger:   logger,
	}
}

// Process chunks text with context awareness, resolves context ids per chunk,
// and persists one fragment per chunk. Every resolved context's membership
// list is updated to include the new fragments. A chunk that fails to persist
// is logged and skipped. Returns the fragments that were created.
func (c *Contextualizer) Process(ctx context.Context, text, projectID string) ([]*memory.Fragment, error) {
	chunks := c.chunker.ChunkWithContexts(ctx, text, projectID)
	if len(chunks) == 0 {
		c.logger.Warn("no chunks produced from content", zap.String("project_id", projectID))

		return nil, nil
	}

	fragments := make([]*memory.Fragment, 0, len(chunks))
	fragmentsByContext := make(map[string][]string)
	for _, chunk := range chunks {
		names := chunk.SuggestedContexts
		if len(names) == 0 {
			names = []string{DefaultContextName}
		}
		contextIDs := c.resolver.Resolve(ctx, names, projectID, chunk)

		id, err := c.memories.StoreFragment(ctx, &memory.Fragment{
			ProjectID:  projectID,
			Content:    chunk.Content,
			Category:   "contextualized",
			Source:     "emergent_chunking",
			ContextIDs: contextIDs,
			CustomFields: map[string]any{
				"semantic_summary":   chunk.SemanticSummary,
				"key_concepts":       chunk.KeyConcepts,
				"context_reasoning":  chunk.ContextReasoning,
				"context_confidence": chunk.ContextConfidence,
				"word_count":         chunk.WordCount,
			},
		})
		if err != nil {
			c.logger.Error("storing contextualized fragment failed, skipping chunk", zap.Error(err))

			continue
		}

		fragment, err := c.memories.GetFragment(ctx, id)
		if err != nil {
			c.logger.Warn("reloading created fragment failed",
				zap.String("fragment_id", id),
				zap.Error(err),
			)

			continue
		}

		fragments = append(fragments, fragment)
		for _, contextID := range contextIDs {
			fragmentsByContext[contextID] = append(fragmentsByContext[contextID], id)
		}
	}

	// Read-modify-write per context: union with current members rather than
	// overwriting, so concurrently added members survive.
	for contextID, newIDs := range fragmentsByContext {
		current, err := c.memories.GetContext(ctx, contextID)
		if err != nil {
			c.logger.Error("fetching context for membership update failed",
				zap.String("context_id", contextID),
				zap.Error(err),
			)

			continue
		}

		merged := unionIDs(current.FragmentIDs, newIDs)
		if err := c.memories.UpdateContextMembers(ctx, contextID, merged); err != nil {
			c.logger.Error("updating context membership failed",
				zap.String("context_id", contextID),
				zap.Error(err),
			)
		}
	}

	c.logger.Info("contextualized content",
		zap.String("project_id", projectID),
		zap.Int("fragments", len(fragments)),
	)

	return fragments, nil
}

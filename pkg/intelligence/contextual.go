package intelligence

import (
	"context"
	"encoding/json"
	"fmt"

	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/llm"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

// DefaultContextName files fragments no context claims.
const DefaultContextName = "general"

// ContextLister provides the project contexts the chunker steers towards.
type ContextLister interface {
	ListContexts(ctx context.Context, projectID string) ([]*memory.Context, error)
}

// ContextualChunker chunks text with awareness of the project's existing
// thematic contexts, suggesting context membership per chunk.
type ContextualChunker struct {
	chunker  *Chunker
	call     llm.CallFunc
	contexts ContextLister
	logger   *zap.Logger
}

// NewContextualChunker creates a context-aware chunker on top of the
// semantic chunker.
func NewContextualChunker(chunker *Chunker, call llm.CallFunc, contexts ContextLister, logger *zap.Logger) *ContextualChunker {
	return &ContextualChunker{
		chunker:  chunker,
		call:     call,
		contexts: contexts,
		logger:   logger,
	}
}

// ChunkWithContexts splits text into chunks annotated with suggested context
// names. Projects without contexts, and any model failure, fall back to plain
// semantic chunking with a default suggestion. Never fails.
func (c *ContextualChunker) ChunkWithContexts(ctx context.Context, text, projectID string) []ContextualChunk {
	existing, err := c.contexts.ListContexts(ctx, projectID)
	if err != nil {
		c.logger.Warn("listing contexts failed, chunking without guidance",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		existing = nil
	}

	if len(existing) == 0 {
		return c.defaultTagged(ctx, text)
	}

	chunks, err := c.guidedChunk(ctx, text, existing)
	if err != nil {
		c.logger.Warn("context-guided chunking failed, using semantic fallback", zap.Error(err))

		return c.defaultTagged(ctx, text)
	}

	return chunks
}

func (c *ContextualChunker) guidedChunk(ctx context.Context, text string, existing []*memory.Context) ([]ContextualChunk, error) {
	descriptions := make(map[string]string, len(existing))
	for _, ec := range existing {
		descriptions[ec.Name] = ec.Description
	}

	encoded, err := json.MarshalIndent(descriptions, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding context descriptions: %w", err)
	}

	prompt := fmt.Sprintf(`Divide this content into semantically coherent chunks, considering the
organizational patterns that have emerged in this project.

CONTENT TO CHUNK:
%s

EXISTING CONTEXTS IN THE PROJECT:
%s

INSTRUCTIONS:
1. Each chunk must be semantically coherent (%d-%d words)
2. If content aligns with existing contexts, mention them
3. If a new theme emerges, identify it as a potential new context
4. A chunk MAY belong to multiple contexts
5. Prioritize natural-search utility over perfect categorization

RESPOND WITH JSON:
{
  "fragments": [
    {
      "content": "full chunk text",
      "semantic_summary": "one-sentence summary",
      "key_concepts": ["concept1", "concept2"],
      "suggested_contexts": ["existing_context", "new_context"],
      "context_reasoning": "why it belongs to these contexts",
      "context_confidence": 0.8
    }
  ]
}`, text, encoded, c.chunker.config.MinChunkWords, c.chunker.config.MaxChunkWords)

	raw, err := c.call(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Fragments []ContextualChunk `json:"fragments"`
	}
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Fragments) == 0 {
		return nil, fmt.Errorf("%w: model returned no fragments", llm.ErrMalformedOutput)
	}

	c.logger.Debug("context-guided chunking complete", zap.Int("fragments", len(parsed.Fragments)))

	return parsed.Fragments, nil
}

// defaultTagged chunks semantically and tags every chunk with the default
// context suggestion.
func (c *ContextualChunker) defaultTagged(ctx context.Context, text string) []ContextualChunk {
	drafts := c.chunker.Chunk(ctx, text)

	chunks := make([]ContextualChunk, len(drafts))
	for i, draft := range drafts {
		chunks[i] = ContextualChunk{
			ChunkDraft:        draft,
			SuggestedContexts: []string{DefaultContextName},
			ContextConfidence: 0.5,
		}
	}

	return chunks
}

package intelligence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/llm"
	"github.com/fahd-noodleseed/memoire/pkg/utils"
)

// Chunker splits raw text into semantically coherent pieces using the
// language model, with a deterministic sentence-based fallback.
type Chunker struct {
	call   llm.CallFunc
	config ChunkerConfig
	logger *zap.Logger
}

// ChunkerConfig bounds chunk sizes in words.
type ChunkerConfig struct {
	MinChunkWords int
	MaxChunkWords int
}

// NewChunker creates a semantic chunker.
func NewChunker(call llm.CallFunc, config ChunkerConfig, logger *zap.Logger) *Chunker {
	if config.MinChunkWords <= 0 {
		config.MinChunkWords = 20
	}
	if config.MaxChunkWords <= 0 {
		config.MaxChunkWords = 150
	}

	return &Chunker{
		call:   call,
		config: config,
		logger: logger,
	}
}

// Chunk splits text into chunk drafts. Text at or below the max chunk size
// comes back as a single atomic chunk; longer text goes through the model
// with the sentence splitter as fallback. Chunk never fails.
func (c *Chunker) Chunk(ctx context.Context, text string) []ChunkDraft {
	wordCount := utils.WordCount(text)

	if wordCount <= c.config.MaxChunkWords {
		return []ChunkDraft{{
			Content:         text,
			SemanticSummary: c.extractSummary(ctx, text),
			KeyConcepts:     c.extractConcepts(ctx, text),
			WordCount:       wordCount,
		}}
	}

	chunks, err := c.semanticChunk(ctx, text)
	if err != nil {
		c.logger.Warn("semantic chunking failed, using sentence fallback", zap.Error(err))

		return c.fallbackChunk(text)
	}

	return chunks
}

func (c *Chunker) semanticChunk(ctx context.Context, text string) ([]ChunkDraft, error) {
	prompt := fmt.Sprintf(`Divide this content into semantically coherent chunks.

CONTENT:
%s

CRITERIA:
- Each chunk must be a complete semantic unit (%d-%d words)
- Keep enough context for standalone comprehension
- Respect natural conceptual boundaries
- Optimize for natural-language search

RESPOND WITH JSON:
{
  "chunks": [
    {
      "content": "full chunk text",
      "semantic_summary": "one-sentence summary of the chunk",
      "key_concepts": ["concept1", "concept2", "concept3"],
      "word_count": 85
    }
  ]
}`, text, c.config.MinChunkWords, c.config.MaxChunkWords)

	raw, err := c.call(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var parsed struct {
		Chunks []ChunkDraft `json:"chunks"`
	}
	if err := llm.DecodeJSON(raw, &parsed); err != nil {
		return nil, err
	}
	if len(parsed.Chunks) == 0 {
		return nil, fmt.Errorf("%w: model returned no chunks", llm.ErrMalformedOutput)
	}

	c.logger.Debug("semantic chunking complete", zap.Int("chunks", len(parsed.Chunks)))

	return parsed.Chunks, nil
}

// fallbackChunk packs whole sentences into chunks until the running word
// count would exceed the max, then starts a new chunk. Separators stay
// attached to their sentence, so concatenating all chunk contents
// reconstructs the input exactly.
func (c *Chunker) fallbackChunk(text string) []ChunkDraft {
	sentences := strings.SplitAfter(text, ". ")

	var chunks []ChunkDraft
	var current strings.Builder
	currentWords := 0

	flush := func() {
		if current.Len() == 0 {
			return
		}
		content := current.String()
		chunks = append(chunks, ChunkDraft{
			Content:         content,
			SemanticSummary: utils.Truncate(content, 50),
			KeyConcepts:     []string{},
			WordCount:       utils.WordCount(content),
		})
		current.Reset()
		currentWords = 0
	}

	for _, sentence := range sentences {
		words := utils.WordCount(sentence)
		if currentWords > 0 && currentWords+words > c.config.MaxChunkWords {
			flush()
		}
		current.WriteString(sentence)
		currentWords += words
	}
	flush()

	return chunks
}

// extractSummary produces a one-sentence summary, degrading to truncation.
func (c *Chunker) extractSummary(ctx context.Context, text string) string {
	if utils.WordCount(text) <= 30 {
		return utils.Truncate(text, 100)
	}

	raw, err := c.call(ctx, "Summarize in one sentence, plain text only: "+text)
	if err != nil {
		c.logger.Debug("summary extraction failed, truncating", zap.Error(err))

		return utils.Truncate(text, 100)
	}

	return strings.TrimSpace(raw)
}

// extractConcepts pulls 3-5 key concepts, degrading to a first-words heuristic.
func (c *Chunker) extractConcepts(ctx context.Context, text string) []string {
	raw, err := c.call(ctx, "Extract 3-5 key concepts, comma separated, plain text only: "+text)
	if err != nil {
		c.logger.Debug("concept extraction failed, using heuristic", zap.Error(err))

		return fallbackConcepts(text)
	}

	var concepts []string
	for _, part := range strings.Split(raw, ",") {
		concept := strings.TrimSpace(strings.NewReplacer("•", "", "-", "").Replace(part))
		if concept != "" {
			concepts = append(concepts, concept)
		}
	}
	if len(concepts) > 5 {
		concepts = concepts[:5]
	}
	if len(concepts) == 0 {
		return fallbackConcepts(text)
	}

	return concepts
}

// fallbackConcepts keeps up to three of the first ten words longer than
// three characters.
func fallbackConcepts(text string) []string {
	words := strings.Fields(text)
	if len(words) > 10 {
		words = words[:10]
	}

	concepts := make([]string, 0, 3)
	for _, word := range words {
		if len(word) > 3 {
			concepts = append(concepts, word)
		}
		if len(concepts) == 3 {
			break
		}
	}

	return concepts
}


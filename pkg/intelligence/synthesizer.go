package intelligence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/llm"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

// MetadataStore resolves project and context descriptions for prompts.
type MetadataStore interface {
	GetProject(ctx context.Context, id string) (*memory.Project, error)
	GetContext(ctx context.Context, id string) (*memory.Context, error)
}

// Synthesizer renders grouped recall results into a model prompt and parses
// a structured answer, with two degradation levels below the contextual path.
type Synthesizer struct {
	store  MetadataStore
	call   llm.CallFunc
	logger *zap.Logger
}

// NewSynthesizer creates a synthesizer.
func NewSynthesizer(store MetadataStore, call llm.CallFunc, logger *zap.Logger) *Synthesizer {
	return &Synthesizer{
		store:  store,
		call:   call,
		logger: logger,
	}
}

// Synthesize composes an answer from grouped results. It tries the
// context-aware prompt first, falls back to a flattened legacy prompt, and
// finally to a count-only answer. Never fails.
func (s *Synthesizer) Synthesize(ctx context.Context, query string, grouped memory.GroupedResults) *Synthesis {
	synthesis, err := s.synthesizeContextual(ctx, query, grouped)
	if err == nil {
		return synthesis
	}
	s.logger.Warn("contextual synthesis failed, trying legacy path", zap.Error(err))

	flat := flatten(grouped)

	synthesis, err = s.synthesizeLegacy(ctx, query, flat)
	if err == nil {
		return synthesis
	}
	s.logger.Warn("legacy synthesis failed, returning fallback", zap.Error(err))

	return &Synthesis{
		Text: fmt.Sprintf("Found %d relevant fragments related to %q. "+
			"Manual review recommended due to synthesis processing limitations.", len(flat), query),
		Confidence:    0.3,
		Coverage:      "partial",
		Gaps:          []string{"synthesis processing error"},
		Patterns:      []string{},
		SynthesisType: "fallback",
	}
}

func (s *Synthesizer) synthesizeContextual(ctx context.Context, query string, grouped memory.GroupedResults) (*Synthesis, error) {
	var content strings.Builder
	contextsSeen := make(map[string]bool)

	for projectID, groups := range grouped {
		projectName, projectDescription := projectID, "No description available."
		if project, err := s.store.GetProject(ctx, projectID); err == nil {
			projectName = project.Name
			if project.Description != "" {
				projectDescription = project.Description
			}
		}

		fmt.Fprintf(&content, "\n--- PROJECT: %s (ID: %s) ---\n", projectName, projectID)
		fmt.Fprintf(&content, "Description: %s\n", projectDescription)

		for contextID, results := range groups {
			contextName, contextDescription := contextID, "No description available."
			if contextID != memory.UnassignedKey {
				if c, err := s.store.GetContext(ctx, contextID); err == nil {
					contextName = c.Name
					if c.Description != "" {
						contextDescription = c.Description
					}
				}
			}
			contextsSeen[contextID] = true

			fmt.Fprintf(&content, "\n---- CONTEXT: %s (ID: %s) ----\n", contextName, contextID)
			fmt.Fprintf(&content, "Description: %s\n", contextDescription)

			for i, result := range results {
				fmt.Fprintf(&content, "Fragment %d (Similarity: %.3f):\n", i+1, result.Score)
				fmt.Fprintf(&content, "Content: %s\n", result.Fragment.Content)
				fmt.Fprintf(&content, "Category: %s\n\n", result.Fragment.Category)
			}
		}
	}

	prompt := fmt.Sprintf(`You are an advanced memory synthesis assistant. Answer the query using the
provided information with absolute fidelity.

QUERY: %s

RETRIEVED AND GROUPED FRAGMENTS:
%s

INSTRUCTIONS:
1. Answer with fidelity: construct a direct answer to the query using ONLY the
   retrieved fragments.
2. Do not alter: do not summarize, paraphrase, or add outside information.
3. Synthesize, don't hallucinate: if the fragments do not contain the answer,
   state that the information is not available.
4. Leverage the project and context descriptions to structure the information.

RESPOND WITH JSON:
{
  "synthesized_response": "a coherent, context-aware answer built from the fragments",
  "confidence": 0.9,
  "information_coverage": "complete|partial|sparse",
  "gaps": ["information the query asked for that was not found"],
  "patterns_identified": ["patterns or relationships across fragments"],
  "context_insights": ["insights about how contexts relate"],
  "fragments_relevance": {"fragment_1": "high"}
}`, query, content.String())

	synthesis, err := s.callAndParse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	synthesis.SynthesisType = "contextual"
	s.logger.Info("contextual synthesis complete",
		zap.Int("projects", len(grouped)),
		zap.Int("contexts", len(contextsSeen)),
	)

	return synthesis, nil
}

func (s *Synthesizer) synthesizeLegacy(ctx context.Context, query string, results []memory.SearchResult) (*Synthesis, error) {
	var fragments strings.Builder
	for i, result := range results {
		fmt.Fprintf(&fragments, "\nFragment %d:\n", i+1)
		fmt.Fprintf(&fragments, "Content: %s\n", result.Fragment.Content)
		fmt.Fprintf(&fragments, "Category: %s\n", result.Fragment.Category)
		fmt.Fprintf(&fragments, "Similarity: %.3f\n", result.Score)
	}

	prompt := fmt.Sprintf(`You are a memory synthesis assistant. Your job is to organize and synthesize
information, NOT to make decisions or solve problems.

QUERY: %s

RETRIEVED FRAGMENTS:
%s

SYNTHESIZE a coherent response that:
1. Directly addresses the query by organizing relevant information
2. Combines information from fragments into a unified view
3. Identifies relationships, patterns, and potential gaps
4. Maintains neutrality

RESPOND WITH JSON:
{
  "synthesized_response": "a coherent explanation that organizes the retrieved information",
  "confidence": 0.8,
  "information_coverage": "complete|partial|sparse",
  "gaps": ["missing info"],
  "patterns_identified": ["pattern"],
  "fragments_relevance": {"fragment_1": "high"}
}`, query, fragments.String())

	synthesis, err := s.callAndParse(ctx, prompt)
	if err != nil {
		return nil, err
	}

	synthesis.SynthesisType = "legacy"

	return synthesis, nil
}

func (s *Synthesizer) callAndParse(ctx context.Context, prompt string) (*Synthesis, error) {
	raw, err := s.call(ctx, prompt)
	if err != nil {
		return nil, err
	}

	var synthesis Synthesis
	if err := llm.DecodeJSON(raw, &synthesis); err != nil {
		return nil, err
	}
	if strings.TrimSpace(synthesis.Text) == "" {
		return nil, fmt.Errorf("%w: empty synthesized response", llm.ErrMalformedOutput)
	}

	return &synthesis, nil
}

func flatten(grouped memory.GroupedResults) []memory.SearchResult {
	var flat []memory.SearchResult
	for _, groups := range grouped {
		for _, results := range groups {
			flat = append(flat, results...)
		}
	}

	return flat
}

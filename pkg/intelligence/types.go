// Package intelligence implements the ingestion-curation and synthesis
// pipeline: semantic chunking, context resolution, curated ingestion, and
// grouped-result synthesis, all driven by a pluggable language model.
package intelligence

// ChunkDraft is one semantically coherent piece of input text.
type ChunkDraft struct {
	Content         string   `json:"content"`
	SemanticSummary string   `json:"semantic_summary"`
	KeyConcepts     []string `json:"key_concepts"`
	WordCount       int      `json:"word_count"`
}

// ContextualChunk is a chunk draft annotated with context suggestions.
type ContextualChunk struct {
	ChunkDraft

	// SuggestedContexts holds one or more context names proposed by the
	// model. A chunk may legitimately map to multiple contexts.
	SuggestedContexts []string `json:"suggested_contexts"`

	ContextReasoning  string  `json:"context_reasoning"`
	ContextConfidence float64 `json:"context_confidence"`
}

// ContextSpec names a context the curation decision wants created.
type ContextSpec struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

// FragmentSpec is a fragment the curation decision wants created, filed under
// a context by name (existing or freshly created).
type FragmentSpec struct {
	Content     string `json:"content"`
	ContextName string `json:"context_name"`
}

// CurationDecision is the structured output of the curation model call.
type CurationDecision struct {
	ContextsToCreate  []ContextSpec  `json:"contexts_to_create"`
	FragmentsToCreate []FragmentSpec `json:"fragments_to_create"`
	IDsToDelete       []string       `json:"ids_to_delete"`
}

// CurationResult summarizes what a curation run changed.
type CurationResult struct {
	CreatedFragmentIDs []string `json:"created_fragment_ids"`
	CreatedContextIDs  []string `json:"created_context_ids"`
	DeletedIDs         []string `json:"deleted_ids"`
}

// Synthesis is a model-composed answer over grouped recall results.
type Synthesis struct {
	Text            string            `json:"synthesized_response"`
	Confidence      float64           `json:"confidence"`
	Coverage        string            `json:"information_coverage"`
	Gaps            []string          `json:"gaps"`
	Patterns        []string          `json:"patterns_identified"`
	ContextInsights []string          `json:"context_insights,omitempty"`
	RelevanceMap    map[string]string `json:"fragments_relevance,omitempty"`

	// SynthesisType records which path produced the answer:
	// "contextual", "legacy", or "fallback".
	SynthesisType string `json:"synthesis_type"`
}

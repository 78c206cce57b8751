package intelligence

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/embeddings"
	"github.com/fahd-noodleseed/memoire/pkg/llm"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

// Curator is the primary ingestion entry point. It retrieves similar
// existing fragments and existing contexts, asks the model for one
// structured curation decision, and applies it best-effort against the
// memory store.
type Curator struct {
	memories *memory.Service
	call     llm.CallFunc
	config   CuratorConfig
	logger   *zap.Logger
}

// CuratorConfig tunes the candidate search that feeds the decision prompt.
type CuratorConfig struct {
	// SearchThreshold is the similarity cutoff for candidate fragments.
	// Deliberately looser than the recall threshold so near-duplicates
	// surface.
	SearchThreshold float32

	// MaxResults caps the candidate fragments shown to the model.
	MaxResults int
}

// NewCurator creates an ingestion curator.
func NewCurator(memories *memory.Service, call llm.CallFunc, config CuratorConfig, logger *zap.Logger) *Curator {
	if config.SearchThreshold == 0 {
		config.SearchThreshold = 0.4
	}
	if config.MaxResults <= 0 {
		config.MaxResults = 50
	}

	return &Curator{
		memories: memories,
		call:     call,
		config:   config,
		logger:   logger,
	}
}

// Curate runs the full ingestion pipeline for one piece of text. The
// candidate search and context listing degrade to empty inputs on failure;
// the decision call itself is fatal on failure since no safe default
// decision exists. Apply sub-steps are best-effort and logged.
func (c *Curator) Curate(ctx context.Context, text, projectID string) (*CurationResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("%w: empty text", memory.ErrInvalidInput)
	}

	c.logger.Info("starting curated ingestion", zap.String("project_id", projectID))

	candidates := c.findCandidates(ctx, text, projectID)

	existing, err := c.memories.ListContexts(ctx, projectID)
	if err != nil {
		c.logger.Warn("listing contexts for curation failed",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		existing = nil
	}

	decision, err := c.decide(ctx, text, candidates, existing)
	if err != nil {
		return nil, fmt.Errorf("curation decision: %w", err)
	}

	result := c.apply(ctx, decision, projectID, existing)

	c.logger.Info("curated ingestion complete",
		zap.String("project_id", projectID),
		zap.Int("created_fragments", len(result.CreatedFragmentIDs)),
		zap.Int("created_contexts", len(result.CreatedContextIDs)),
		zap.Int("deleted_fragments", len(result.DeletedIDs)),
	)

	return result, nil
}

// findCandidates embeds the whole text and searches for similar stored
// fragments. Failures yield an empty candidate list, not a hard failure.
func (c *Curator) findCandidates(ctx context.Context, text, projectID string) []memory.SearchResult {
	embedding, err := c.memories.Embedder().Embed(ctx, text, embeddings.TaskSimilarity)
	if err != nil {
		c.logger.Warn("embedding content for curation failed", zap.Error(err))

		return nil
	}

	candidates, err := c.memories.SearchByVector(ctx, projectID, embedding, memory.SearchOptions{
		Threshold: c.config.SearchThreshold,
		Limit:     c.config.MaxResults,
	})
	if err != nil {
		c.logger.Warn("candidate search for curation failed", zap.Error(err))

		return nil
	}

	return candidates
}

func (c *Curator) decide(ctx context.Context, text string, candidates []memory.SearchResult, existing []*memory.Context) (*CurationDecision, error) {
	raw, err := c.call(ctx, c.buildPrompt(text, candidates, existing))
	if err != nil {
		return nil, err
	}

	var decision CurationDecision
	if err := llm.DecodeJSON(raw, &decision); err != nil {
		return nil, err
	}

	return &decision, nil
}

func (c *Curator) buildPrompt(text string, candidates []memory.SearchResult, existing []*memory.Context) string {
	var fragments strings.Builder
	for i, candidate := range candidates {
		fmt.Fprintf(&fragments, "\n--- EXISTING FRAGMENT %d (ID: %s) ---\n", i+1, candidate.Fragment.ID)
		fmt.Fprintf(&fragments, "Content: %s\n", candidate.Fragment.Content)
	}
	fragmentsText := fragments.String()
	if fragmentsText == "" {
		fragmentsText = "No relevant existing fragments found."
	}

	contextsText := "No existing contexts."
	if len(existing) > 0 {
		var lines []string
		for _, ec := range existing {
			lines = append(lines, fmt.Sprintf("- %s: %s", ec.Name, ec.Description))
		}
		contextsText = strings.Join(lines, "\n")
	}

	return fmt.Sprintf(`You are an expert semantic-memory organizer. Analyze new content and decide
how to integrate it into an existing memory as coherently and faithfully as
possible.

NEW CONTENT TO PROCESS:
%s
---
CONTEXTS ALREADY AVAILABLE IN THE PROJECT (use one of these or create a new one):
%s
---
SIMILAR EXISTING FRAGMENTS (to avoid duplicates and guide edits):
%s
---
CHUNKING CRITERIA:
1. Semantic integrity: each fragment must be a complete idea that stands on its own.
2. Fidelity to the original: do NOT summarize or alter meaning. The fragments,
   joined together, must be identical to the input. Edits segment, never paraphrase.
3. Split on topic changes, subject changes, or logical steps.
4. Self-containment: a fragment must not depend on its neighbors to be understood.
5. No artificial limits: semantic coherence determines length, not a word count.
---
EXECUTION INSTRUCTIONS:
1. Apply the chunking criteria to the new content to decide fragments_to_create.
2. Assign each new fragment a context_name from the available contexts, or define
   a new one in contexts_to_create. A good context is reusable and names a clear theme.
3. If the new content updates or replaces existing fragments, add their IDs to
   ids_to_delete and create the corrected fragments. The memory must evolve
   without redundancy.
4. Respond with JSON only, no explanations outside it:
{
  "contexts_to_create": [{"name": "...", "description": "..."}],
  "fragments_to_create": [{"content": "...", "context_name": "..."}],
  "ids_to_delete": ["..."]
}
The keys fragments_to_create and ids_to_delete must always be present, empty if unused.`,
		text, contextsText, fragmentsText)
}

// apply executes the decision in a fixed order: deletes, then contexts, then
// fragments, then membership updates. Deletes run first so a freshly created
// replacement cannot be removed by a reused id; contexts run before fragments
// so every fragment has a valid target. Each sub-step is best-effort.
func (c *Curator) apply(ctx context.Context, decision *CurationDecision, projectID string, existing []*memory.Context) *CurationResult {
	result := &CurationResult{
		CreatedFragmentIDs: []string{},
		CreatedContextIDs:  []string{},
		DeletedIDs:         []string{},
	}

	if len(decision.IDsToDelete) > 0 {
		if err := c.memories.DeleteFragments(ctx, projectID, decision.IDsToDelete); err != nil {
			c.logger.Error("curation delete step failed", zap.Error(err))
		} else {
			result.DeletedIDs = decision.IDsToDelete
		}
	}

	contextMap := make(map[string]string, len(existing))
	for _, ec := range existing {
		contextMap[ec.Name] = ec.ID
	}

	for _, spec := range decision.ContextsToCreate {
		if spec.Name == "" || spec.Description == "" {
			continue
		}
		if _, ok := contextMap[spec.Name]; ok {
			continue
		}

		id, err := c.memories.CreateContext(ctx, &memory.Context{
			ProjectID:   projectID,
			Name:        spec.Name,
			Description: spec.Description,
		})
		if err != nil {
			c.logger.Error("creating curated context failed",
				zap.String("name", spec.Name),
				zap.Error(err),
			)

			continue
		}

		contextMap[spec.Name] = id
		result.CreatedContextIDs = append(result.CreatedContextIDs, id)
	}

	fragmentsByContext := make(map[string][]string)
	for _, spec := range decision.FragmentsToCreate {
		if strings.TrimSpace(spec.Content) == "" || spec.ContextName == "" {
			c.logger.Warn("skipping curated fragment with missing content or context name")

			continue
		}

		contextID, ok := contextMap[spec.ContextName]
		if !ok {
			contextID = c.ensureDefaultContext(ctx, projectID, contextMap)
			if contextID == "" {
				c.logger.Error("no context target for curated fragment, skipping",
					zap.String("context_name", spec.ContextName),
				)

				continue
			}
		}

		id, err := c.memories.StoreFragment(ctx, &memory.Fragment{
			ProjectID:  projectID,
			Content:    spec.Content,
			Source:     "curated_ingestion",
			ContextIDs: []string{contextID},
		})
		if err != nil {
			c.logger.Error("storing curated fragment failed", zap.Error(err))

			continue
		}

		result.CreatedFragmentIDs = append(result.CreatedFragmentIDs, id)
		fragmentsByContext[contextID] = append(fragmentsByContext[contextID], id)
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

	return result
}

// ensureDefaultContext finds or lazily creates the "general" context.
func (c *Curator) ensureDefaultContext(ctx context.Context, projectID string, contextMap map[string]string) string {
	if id, ok := contextMap[DefaultContextName]; ok {
		return id
	}

	id, err := c.memories.CreateContext(ctx, &memory.Context{
		ProjectID:   projectID,
		Name:        DefaultContextName,
		Description: "Container for fragments without a specific context.",
	})
	if err != nil {
		c.logger.Error("creating default context failed", zap.Error(err))

		return ""
	}

	contextMap[DefaultContextName] = id

	return id
}

func unionIDs(current, added []string) []string {
	seen := make(map[string]bool, len(current)+len(added))
	merged := make([]string, 0, len(current)+len(added))
	for _, id := range current {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}
	for _, id := range added {
		if !seen[id] {
			seen[id] = true
			merged = append(merged, id)
		}
	}

	return merged
}

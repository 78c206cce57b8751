package intelligence

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/llm"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

// ContextStore is the slice of the memory service the resolver needs.
type ContextStore interface {
	ContextLister

	CreateContext(ctx context.Context, c *memory.Context) (string, error)
}

// Resolver maps proposed context names onto existing context ids using
// normalization and fuzzy overlap matching, creating new contexts only when
// no match is found. It keeps a per-project cache with explicit invalidation.
type Resolver struct {
	store  ContextStore
	call   llm.CallFunc
	logger *zap.Logger

	mu    sync.Mutex
	cache map[string][]*memory.Context
}

// NewResolver creates a context resolver.
func NewResolver(store ContextStore, call llm.CallFunc, logger *zap.Logger) *Resolver {
	return &Resolver{
		store:  store,
		call:   call,
		logger: logger,
		cache:  make(map[string][]*memory.Context),
	}
}

// Resolve maps each candidate name to a context id, creating contexts for
// unmatched names. Newly created contexts join the cache immediately so later
// names in the same batch can match them. Names that fail to resolve are
// dropped, not errors.
func (r *Resolver) Resolve(ctx context.Context, names []string, projectID string, chunk ContextualChunk) []string {
	ids := make([]string, 0, len(names))
	for _, name := range names {
		if id := r.resolveOne(ctx, name, projectID, chunk); id != "" {
			ids = append(ids, id)
		}
	}

	return ids
}

// ClearCache invalidates the cache for one project, or for all projects when
// projectID is empty.
func (r *Resolver) ClearCache(projectID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if projectID == "" {
		r.cache = make(map[string][]*memory.Context)

		return
	}

	delete(r.cache, projectID)
}

func (r *Resolver) resolveOne(ctx context.Context, name, projectID string, chunk ContextualChunk) string {
	existing := r.cachedContexts(ctx, projectID)

	// First match wins; cache order is creation order.
	for _, candidate := range existing {
		if contextsMatch(name, candidate.Name) {
			return candidate.ID
		}
	}

	description := r.generateDescription(ctx, name, chunk)

	id, err := r.store.CreateContext(ctx, &memory.Context{
		ProjectID:   projectID,
		Name:        name,
		Description: description,
	})
	if err != nil {
		r.logger.Error("creating emergent context failed",
			zap.String("name", name),
			zap.Error(err),
		)

		return ""
	}

	r.logger.Info("created emergent context",
		zap.String("name", name),
		zap.String("context_id", id),
	)

	r.mu.Lock()
	r.cache[projectID] = append(r.cache[projectID], &memory.Context{
		ID:          id,
		ProjectID:   projectID,
		Name:        name,
		Description: description,
	})
	r.mu.Unlock()

	return id
}

func (r *Resolver) cachedContexts(ctx context.Context, projectID string) []*memory.Context {
	r.mu.Lock()
	cached, ok := r.cache[projectID]
	r.mu.Unlock()
	if ok {
		return cached
	}

	contexts, err := r.store.ListContexts(ctx, projectID)
	if err != nil {
		r.logger.Warn("listing contexts for resolver cache failed",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
		contexts = []*memory.Context{}
	}

	r.mu.Lock()
	// Another request may have filled the cache meanwhile; appends since then
	// would be lost by overwriting, so keep whichever is already there.
	if existing, ok := r.cache[projectID]; ok {
		contexts = existing
	} else {
		r.cache[projectID] = contexts
	}
	r.mu.Unlock()

	return contexts
}

// generateDescription asks the model for a short context description,
// degrading to one built from the chunk's first three key concepts.
func (r *Resolver) generateDescription(ctx context.Context, name string, chunk ContextualChunk) string {
	prompt := fmt.Sprintf(`A new context has been identified in the project: %q

CHUNK THAT SUGGESTS THIS CONTEXT:
%s

KEY CONCEPTS: %s
REASONING: %s

Write a concise description (2-3 sentences) of what kind of information
belongs in this context.

RESPOND WITH THE DESCRIPTION ONLY (plain text, no formatting):`,
		name, chunk.Content, strings.Join(chunk.KeyConcepts, ", "), chunk.ContextReasoning)

	raw, err := r.call(ctx, prompt)
	if err != nil {
		r.logger.Debug("context description generation failed, using fallback", zap.Error(err))

		return fallbackDescription(chunk.KeyConcepts)
	}

	return strings.NewReplacer(`"`, "", "'", "").Replace(strings.TrimSpace(raw))
}

func fallbackDescription(concepts []string) string {
	if len(concepts) > 3 {
		concepts = concepts[:3]
	}

	return fmt.Sprintf("Groups information related to %s.", strings.Join(concepts, ", "))
}

// contextsMatch declares two context names equivalent when their normalized
// forms are equal, one contains the other, or their token-set overlap divided
// by the smaller token-set size reaches 0.5. The substring and overlap rules
// can false-positive on short names; the threshold is a tunable boundary.
func contextsMatch(name1, name2 string) bool {
	n1 := normalizeContextName(name1)
	n2 := normalizeContextName(name2)

	if n1 == n2 {
		return true
	}
	if strings.Contains(n1, n2) || strings.Contains(n2, n1) {
		return true
	}

	words1 := tokenSet(n1)
	words2 := tokenSet(n2)
	if len(words1) == 0 || len(words2) == 0 {
		return false
	}

	overlap := 0
	for word := range words1 {
		if words2[word] {
			overlap++
		}
	}

	smaller := len(words1)
	if len(words2) < smaller {
		smaller = len(words2)
	}

	return float64(overlap)/float64(smaller) >= 0.5
}

func normalizeContextName(name string) string {
	return strings.TrimSpace(strings.NewReplacer("_", " ", "-", " ").Replace(strings.ToLower(name)))
}

func tokenSet(s string) map[string]bool {
	set := make(map[string]bool)
	for _, word := range strings.Fields(s) {
		set[word] = true
	}

	return set
}

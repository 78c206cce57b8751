package memory

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/embeddings"
	"github.com/fahd-noodleseed/memoire/pkg/eventstream"
	"github.com/fahd-noodleseed/memoire/pkg/vector"
)

// Service ties the memory store, the vector index, and the embedding service
// together. It owns fragment/context lifecycle and grouped recall; the
// ingestion pipeline sits on top of it.
type Service struct {
	store    Store
	vectors  vector.Driver
	embedder *embeddings.Service
	events   eventstream.Publisher
	config   ServiceConfig
	logger   *zap.Logger
}

// ServiceConfig holds recall defaults.
type ServiceConfig struct {
	// SimilarityThreshold is the default recall cutoff.
	SimilarityThreshold float32

	// MaxResults is the default per-project result cap.
	MaxResults int
}

// NewService creates a memory service.
func NewService(store Store, vectors vector.Driver, embedder *embeddings.Service, events eventstream.Publisher, config ServiceConfig, logger *zap.Logger) *Service {
	if config.MaxResults <= 0 {
		config.MaxResults = 10
	}

	return &Service{
		store:    store,
		vectors:  vectors,
		embedder: embedder,
		events:   events,
		config:   config,
		logger:   logger,
	}
}

// Store exposes the underlying memory store for read-only callers.
func (s *Service) Store() Store {
	return s.store
}

// Embedder exposes the embedding service for pipeline components.
func (s *Service) Embedder() *embeddings.Service {
	return s.embedder
}

// CreateProject persists a new project.
func (s *Service) CreateProject(ctx context.Context, name, description string) (*Project, error) {
	if strings.TrimSpace(name) == "" {
		return nil, fmt.Errorf("%w: empty project name", ErrInvalidInput)
	}

	project := &Project{
		ID:          uuid.NewString(),
		Name:        name,
		Description: description,
		CreatedAt:   time.Now().UTC(),
	}

	if _, err := s.store.CreateProject(ctx, project); err != nil {
		return nil, fmt.Errorf("creating project: %w", err)
	}

	s.logger.Info("project created",
		zap.String("project_id", project.ID),
		zap.String("name", name),
	)

	return project, nil
}

// GetProject retrieves a project by id.
func (s *Service) GetProject(ctx context.Context, id string) (*Project, error) {
	return s.store.GetProject(ctx, id)
}

// ListProjects returns all projects known to the store.
func (s *Service) ListProjects(ctx context.Context) ([]*Project, error) {
	return s.store.ListProjects(ctx)
}

// DeleteProject removes a project, its stored records, and its vector space.
func (s *Service) DeleteProject(ctx context.Context, id string) error {
	if err := s.store.DeleteProject(ctx, id); err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	if err := s.vectors.DropProject(ctx, id); err != nil {
		s.logger.Warn("dropping project vector space failed",
			zap.String("project_id", id),
			zap.Error(err),
		)
	}

	return nil
}

// StoreFragment embeds and persists a fragment, indexing it for search.
// The fragment id is assigned here if empty.
func (s *Service) StoreFragment(ctx context.Context, fragment *Fragment) (string, error) {
	if fragment == nil || strings.TrimSpace(fragment.Content) == "" {
		return "", fmt.Errorf("%w: empty fragment content", ErrInvalidInput)
	}
	if fragment.ProjectID == "" {
		return "", fmt.Errorf("%w: missing project id", ErrInvalidInput)
	}

	if fragment.ID == "" {
		fragment.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	if fragment.CreatedAt.IsZero() {
		fragment.CreatedAt = now
	}
	fragment.UpdatedAt = now

	embedding, err := s.embedder.Embed(ctx, fragment.Content, embeddings.TaskDocument)
	if err != nil {
		return "", fmt.Errorf("embedding fragment: %w", err)
	}

	if _, err := s.store.CreateFragment(ctx, fragment); err != nil {
		return "", fmt.Errorf("creating fragment: %w", err)
	}

	metadata := map[string]string{"source": fragment.Source}
	if len(fragment.ContextIDs) > 0 {
		metadata["context_id"] = fragment.ContextIDs[0]
	}

	err = s.vectors.Add(ctx, fragment.ProjectID, []vector.Document{{
		ID:        fragment.ID,
		Embedding: embedding,
		Metadata:  metadata,
	}})
	if err != nil {
		return "", fmt.Errorf("indexing fragment: %w", err)
	}

	s.publish(ctx, &eventstream.MutationEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeFragmentCreated,
		EventID:       uuid.NewString(),
		EmittedAt:     now,
		ProjectID:     fragment.ProjectID,
		FragmentIDs:   []string{fragment.ID},
		Source:        fragment.Source,
	})

	return fragment.ID, nil
}

// GetFragment retrieves a fragment by id.
func (s *Service) GetFragment(ctx context.Context, id string) (*Fragment, error) {
	return s.store.GetFragment(ctx, id)
}

// DeleteFragments batch-removes fragments from the store and the index.
func (s *Service) DeleteFragments(ctx context.Context, projectID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	if err := s.store.DeleteFragments(ctx, projectID, ids); err != nil {
		return fmt.Errorf("deleting fragments: %w", err)
	}

	if err := s.vectors.Delete(ctx, projectID, ids); err != nil {
		s.logger.Warn("deleting fragment vectors failed",
			zap.String("project_id", projectID),
			zap.Error(err),
		)
	}

	s.publish(ctx, &eventstream.MutationEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeFragmentsDeleted,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		ProjectID:     projectID,
		FragmentIDs:   ids,
	})

	return nil
}

// CreateContext persists a new context. The id is assigned here if empty.
func (s *Service) CreateContext(ctx context.Context, c *Context) (string, error) {
	if c == nil || strings.TrimSpace(c.Name) == "" {
		return "", fmt.Errorf("%w: empty context name", ErrInvalidInput)
	}
	if c.ProjectID == "" {
		return "", fmt.Errorf("%w: missing project id", ErrInvalidInput)
	}

	if c.ID == "" {
		c.ID = uuid.NewString()
	}
	if c.CreatedAt.IsZero() {
		c.CreatedAt = time.Now().UTC()
	}
	c.FragmentCount = len(c.FragmentIDs)

	if _, err := s.store.CreateContext(ctx, c); err != nil {
		return "", fmt.Errorf("creating context: %w", err)
	}

	s.publish(ctx, &eventstream.MutationEvent{
		SchemaVersion: eventstream.SchemaVersionV1,
		EventType:     eventstream.EventTypeContextCreated,
		EventID:       uuid.NewString(),
		EmittedAt:     time.Now().UTC(),
		ProjectID:     c.ProjectID,
		ContextID:     c.ID,
	})

	return c.ID, nil
}

// GetContext retrieves a context by id.
func (s *Service) GetContext(ctx context.Context, id string) (*Context, error) {
	return s.store.GetContext(ctx, id)
}

// ListContexts returns the project's contexts in creation order.
func (s *Service) ListContexts(ctx context.Context, projectID string) ([]*Context, error) {
	return s.store.ListContexts(ctx, projectID)
}

// UpdateContextMembers replaces a context's member fragment-id list.
func (s *Service) UpdateContextMembers(ctx context.Context, id string, fragmentIDs []string) error {
	return s.store.UpdateContextMembers(ctx, id, fragmentIDs)
}

// ListAnchors returns the project's anchors.
func (s *Service) ListAnchors(ctx context.Context, projectID string) ([]*Anchor, error) {
	return s.store.ListAnchors(ctx, projectID)
}

// CreateTask records a new action item under a project. Tasks start pending.
func (s *Service) CreateTask(ctx context.Context, projectID, title, description string) (*Task, error) {
	if strings.TrimSpace(title) == "" {
		return nil, fmt.Errorf("%w: empty task title", ErrInvalidInput)
	}

	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.NewString(),
		ProjectID:   projectID,
		Title:       title,
		Description: description,
		Status:      TaskStatusPending,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if _, err := s.store.CreateTask(ctx, task); err != nil {
		return nil, fmt.Errorf("creating task: %w", err)
	}

	s.logger.Info("task created",
		zap.String("task_id", task.ID),
		zap.String("project_id", projectID),
	)

	return task, nil
}

// GetTask retrieves a task by id.
func (s *Service) GetTask(ctx context.Context, id string) (*Task, error) {
	return s.store.GetTask(ctx, id)
}

// ListTasks returns the project's tasks newest first. A non-empty status
// narrows the listing and must be a known status value.
func (s *Service) ListTasks(ctx context.Context, projectID string, status TaskStatus) ([]*Task, error) {
	if status != "" && !status.Valid() {
		return nil, fmt.Errorf("%w: unknown task status %q", ErrInvalidInput, status)
	}

	return s.store.ListTasks(ctx, projectID, status)
}

// UpdateTask applies a partial task update. An empty update or an unknown
// status is rejected.
func (s *Service) UpdateTask(ctx context.Context, id string, update TaskUpdate) (*Task, error) {
	if update.Empty() {
		return nil, fmt.Errorf("%w: no task fields to update", ErrInvalidInput)
	}
	if update.Status != nil && !update.Status.Valid() {
		return nil, fmt.Errorf("%w: unknown task status %q", ErrInvalidInput, *update.Status)
	}
	if update.Title != nil && strings.TrimSpace(*update.Title) == "" {
		return nil, fmt.Errorf("%w: empty task title", ErrInvalidInput)
	}

	if err := s.store.UpdateTask(ctx, id, update); err != nil {
		return nil, err
	}

	return s.store.GetTask(ctx, id)
}

// DeleteTask removes a task.
func (s *Service) DeleteTask(ctx context.Context, id string) error {
	return s.store.DeleteTask(ctx, id)
}

// ProjectSummary reports record counts for one project.
func (s *Service) ProjectSummary(ctx context.Context, projectID string) (*ProjectSummary, error) {
	if _, err := s.store.GetProject(ctx, projectID); err != nil {
		return nil, err
	}

	contexts, err := s.store.ListContexts(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing contexts: %w", err)
	}

	fragments, err := s.store.CountFragments(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("counting fragments: %w", err)
	}

	tasks, err := s.store.CountTasks(ctx, projectID)
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}

	return &ProjectSummary{
		ProjectID: projectID,
		Contexts:  len(contexts),
		Fragments: fragments,
		Tasks:     tasks,
	}, nil
}

// SearchByVector runs a similarity search in one project and hydrates the
// hits into SearchResults. Fragments missing from the store are skipped.
func (s *Service) SearchByVector(ctx context.Context, projectID string, embedding []float32, opts SearchOptions) ([]SearchResult, error) {
	if opts.Limit <= 0 {
		opts.Limit = s.config.MaxResults
	}

	searchOpts := vector.SearchOptions{
		Threshold: opts.Threshold,
		Limit:     opts.Limit,
	}
	if opts.ContextID != "" {
		searchOpts.Filters = map[string]string{"context_id": opts.ContextID}
	}

	hits, err := s.vectors.Search(ctx, projectID, embedding, searchOpts)
	if err != nil {
		return nil, fmt.Errorf("searching project %s: %w", projectID, err)
	}

	results := make([]SearchResult, 0, len(hits))
	for _, hit := range hits {
		fragment, err := s.store.GetFragment(ctx, hit.ID)
		if err != nil {
			s.logger.Warn("skipping unresolvable search hit",
				zap.String("fragment_id", hit.ID),
				zap.Error(err),
			)
			continue
		}

		result := SearchResult{
			Score:    hit.Score,
			Fragment: fragment,
		}

		if len(fragment.ContextIDs) > 0 {
			if primary, err := s.store.GetContext(ctx, fragment.ContextIDs[0]); err == nil {
				result.PrimaryContext = primary
			}
		}

		for _, anchorID := range fragment.AnchorIDs {
			if anchor, err := s.store.GetAnchor(ctx, anchorID); err == nil {
				result.Anchors = append(result.Anchors, anchor)
			}
		}

		results = append(results, result)
	}

	return results, nil
}

// Search embeds the query and searches one project.
func (s *Service) Search(ctx context.Context, projectID, query string, opts SearchOptions) ([]SearchResult, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	embedding, err := s.embedder.Embed(ctx, query, embeddings.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	if opts.Threshold == 0 {
		opts.Threshold = s.config.SimilarityThreshold
	}

	return s.SearchByVector(ctx, projectID, embedding, opts)
}

// Recall embeds the query once and searches every target project, grouping
// hits by project then by each fragment's first context id (or UnassignedKey).
// projectIDs == nil means all projects known to the store. Projects and
// contexts with zero hits are omitted. Fails with ErrNoTarget when no project
// can be resolved.
func (s *Service) Recall(ctx context.Context, query string, projectIDs []string) (GroupedResults, error) {
	if strings.TrimSpace(query) == "" {
		return nil, fmt.Errorf("%w: empty query", ErrInvalidInput)
	}

	if len(projectIDs) == 0 {
		projects, err := s.store.ListProjects(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing projects: %w", err)
		}
		for _, p := range projects {
			projectIDs = append(projectIDs, p.ID)
		}
	}

	if len(projectIDs) == 0 {
		return nil, fmt.Errorf("%w: no projects to recall from", ErrNoTarget)
	}

	// The query is embedded once and reused across all projects.
	embedding, err := s.embedder.Embed(ctx, query, embeddings.TaskQuery)
	if err != nil {
		return nil, fmt.Errorf("embedding query: %w", err)
	}

	grouped := make(GroupedResults)
	for _, projectID := range projectIDs {
		results, err := s.SearchByVector(ctx, projectID, embedding, SearchOptions{
			Threshold: s.config.SimilarityThreshold,
			Limit:     s.config.MaxResults,
		})
		if err != nil {
			s.logger.Warn("recall search failed for project, skipping",
				zap.String("project_id", projectID),
				zap.Error(err),
			)
			continue
		}

		if len(results) == 0 {
			continue
		}

		groups := make(map[string][]SearchResult)
		for _, result := range results {
			key := UnassignedKey
			if len(result.Fragment.ContextIDs) > 0 {
				key = result.Fragment.ContextIDs[0]
			}
			groups[key] = append(groups[key], result)
		}

		grouped[projectID] = groups
	}

	return grouped, nil
}

// CacheStats reports the embedding cache occupancy.
func (s *Service) CacheStats() embeddings.CacheStats {
	return s.embedder.CacheStats()
}

// CleanupCache evicts expired embedding cache entries.
func (s *Service) CleanupCache() int {
	return s.embedder.CleanupExpired()
}

// Close releases the store, the vector driver, and the event publisher.
func (s *Service) Close() error {
	var firstErr error

	for _, closer := range []func() error{s.vectors.Close, s.store.Close, s.events.Close} {
		if err := closer(); err != nil && firstErr == nil {
			firstErr = err
		}
	}

	return firstErr
}

// publish sends a mutation event, logging failures instead of surfacing them.
// Event delivery is observability, not correctness.
func (s *Service) publish(ctx context.Context, event *eventstream.MutationEvent) {
	if err := s.events.Publish(ctx, event); err != nil {
		s.logger.Warn("publishing mutation event failed",
			zap.String("event_type", event.EventType),
			zap.Error(err),
		)
	}
}

// Package inmemory provides an in-process implementation of the memory.Store
// interface.
//
// Records live in mutex-guarded maps and vanish on process exit. This is the
// local-dev and test story; durable deployments use the sqlite store.
package inmemory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

// Store implements memory.Store using in-process data structures.
type Store struct {
	mu sync.RWMutex

	projects  map[string]*memory.Project
	fragments map[string]*memory.Fragment
	contexts  map[string]*memory.Context
	anchors   map[string]*memory.Anchor
	tasks     map[string]*memory.Task

	// contextOrder and taskOrder preserve per-project creation order.
	contextOrder map[string][]string
	taskOrder    map[string][]string
}

// NewStore creates an empty in-memory store.
func NewStore() *Store {
	return &Store{
		projects:     make(map[string]*memory.Project),
		fragments:    make(map[string]*memory.Fragment),
		contexts:     make(map[string]*memory.Context),
		anchors:      make(map[string]*memory.Anchor),
		tasks:        make(map[string]*memory.Task),
		contextOrder: make(map[string][]string),
		taskOrder:    make(map[string][]string),
	}
}

// CreateProject persists a project and returns its id.
func (s *Store) CreateProject(_ context.Context, project *memory.Project) (string, error) {
	if project == nil || project.ID == "" {
		return "", fmt.Errorf("%w: project with empty id", memory.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *project
	s.projects[project.ID] = &clone

	return project.ID, nil
}

// GetProject retrieves a project by id.
func (s *Store) GetProject(_ context.Context, id string) (*memory.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	project, ok := s.projects[id]
	if !ok {
		return nil, fmt.Errorf("%w: project %s", memory.ErrNotFound, id)
	}

	clone := *project

	return &clone, nil
}

// ListProjects returns all projects.
func (s *Store) ListProjects(_ context.Context) ([]*memory.Project, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	projects := make([]*memory.Project, 0, len(s.projects))
	for _, project := range s.projects {
		clone := *project
		projects = append(projects, &clone)
	}

	return projects, nil
}

// DeleteProject removes a project and everything it owns.
func (s *Store) DeleteProject(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.projects[id]; !ok {
		return fmt.Errorf("%w: project %s", memory.ErrNotFound, id)
	}

	delete(s.projects, id)

	for fragmentID, fragment := range s.fragments {
		if fragment.ProjectID == id {
			delete(s.fragments, fragmentID)
		}
	}
	for contextID, c := range s.contexts {
		if c.ProjectID == id {
			delete(s.contexts, contextID)
		}
	}
	for anchorID, anchor := range s.anchors {
		if anchor.ProjectID == id {
			delete(s.anchors, anchorID)
		}
	}
	for taskID, task := range s.tasks {
		if task.ProjectID == id {
			delete(s.tasks, taskID)
		}
	}
	delete(s.contextOrder, id)
	delete(s.taskOrder, id)

	return nil
}

// CreateFragment persists a fragment and returns its id.
func (s *Store) CreateFragment(_ context.Context, fragment *memory.Fragment) (string, error) {
	if fragment == nil || fragment.ID == "" {
		return "", fmt.Errorf("%w: fragment with empty id", memory.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := cloneFragment(fragment)
	s.fragments[fragment.ID] = clone

	return fragment.ID, nil
}

// GetFragment retrieves a fragment by id.
func (s *Store) GetFragment(_ context.Context, id string) (*memory.Fragment, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	fragment, ok := s.fragments[id]
	if !ok {
		return nil, fmt.Errorf("%w: fragment %s", memory.ErrNotFound, id)
	}

	return cloneFragment(fragment), nil
}

// DeleteFragments batch-removes fragments by id within a project.
// Missing ids are skipped.
func (s *Store) DeleteFragments(_ context.Context, projectID string, ids []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, id := range ids {
		fragment, ok := s.fragments[id]
		if !ok || fragment.ProjectID != projectID {
			continue
		}

		delete(s.fragments, id)

		// Drop the fragment from any context membership lists.
		for _, c := range s.contexts {
			if c.ProjectID != projectID {
				continue
			}
			c.FragmentIDs = removeString(c.FragmentIDs, id)
			c.FragmentCount = len(c.FragmentIDs)
		}
	}

	return nil
}

// CreateContext persists a context and returns its id.
func (s *Store) CreateContext(_ context.Context, c *memory.Context) (string, error) {
	if c == nil || c.ID == "" {
		return "", fmt.Errorf("%w: context with empty id", memory.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := cloneContext(c)
	s.contexts[c.ID] = clone
	s.contextOrder[c.ProjectID] = append(s.contextOrder[c.ProjectID], c.ID)

	return c.ID, nil
}

// GetContext retrieves a context by id.
func (s *Store) GetContext(_ context.Context, id string) (*memory.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	c, ok := s.contexts[id]
	if !ok {
		return nil, fmt.Errorf("%w: context %s", memory.ErrNotFound, id)
	}

	return cloneContext(c), nil
}

// ListContexts returns the project's contexts in creation order.
func (s *Store) ListContexts(_ context.Context, projectID string) ([]*memory.Context, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := s.contextOrder[projectID]
	contexts := make([]*memory.Context, 0, len(order))
	for _, id := range order {
		if c, ok := s.contexts[id]; ok {
			contexts = append(contexts, cloneContext(c))
		}
	}

	return contexts, nil
}

// UpdateContextMembers replaces the context's member fragment-id list.
func (s *Store) UpdateContextMembers(_ context.Context, id string, fragmentIDs []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	c, ok := s.contexts[id]
	if !ok {
		return fmt.Errorf("%w: context %s", memory.ErrNotFound, id)
	}

	c.FragmentIDs = append([]string(nil), fragmentIDs...)
	c.FragmentCount = len(c.FragmentIDs)

	return nil
}

// CountFragments returns the number of fragments owned by the project.
func (s *Store) CountFragments(_ context.Context, projectID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, fragment := range s.fragments {
		if fragment.ProjectID == projectID {
			count++
		}
	}

	return count, nil
}

// CreateTask persists a task and returns its id.
func (s *Store) CreateTask(_ context.Context, task *memory.Task) (string, error) {
	if task == nil || task.ID == "" {
		return "", fmt.Errorf("%w: task with empty id", memory.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *task
	s.tasks[task.ID] = &clone
	s.taskOrder[task.ProjectID] = append(s.taskOrder[task.ProjectID], task.ID)

	return task.ID, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(_ context.Context, id string) (*memory.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	task, ok := s.tasks[id]
	if !ok {
		return nil, fmt.Errorf("%w: task %s", memory.ErrNotFound, id)
	}

	clone := *task

	return &clone, nil
}

// ListTasks returns the project's tasks newest first, filtered by status
// when one is given.
func (s *Store) ListTasks(_ context.Context, projectID string, status memory.TaskStatus) ([]*memory.Task, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	order := s.taskOrder[projectID]
	tasks := make([]*memory.Task, 0, len(order))
	for i := len(order) - 1; i >= 0; i-- {
		task, ok := s.tasks[order[i]]
		if !ok {
			continue
		}
		if status != "" && task.Status != status {
			continue
		}
		clone := *task
		tasks = append(tasks, &clone)
	}

	return tasks, nil
}

// UpdateTask applies the non-nil update fields and refreshes UpdatedAt.
func (s *Store) UpdateTask(_ context.Context, id string, update memory.TaskUpdate) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task %s", memory.ErrNotFound, id)
	}

	if update.Title != nil {
		task.Title = *update.Title
	}
	if update.Description != nil {
		task.Description = *update.Description
	}
	if update.Status != nil {
		task.Status = *update.Status
	}
	task.UpdatedAt = time.Now().UTC()

	return nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	task, ok := s.tasks[id]
	if !ok {
		return fmt.Errorf("%w: task %s", memory.ErrNotFound, id)
	}

	delete(s.tasks, id)
	s.taskOrder[task.ProjectID] = removeString(s.taskOrder[task.ProjectID], id)

	return nil
}

// CountTasks returns per-status task counts for the project.
func (s *Store) CountTasks(_ context.Context, projectID string) (map[memory.TaskStatus]int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	counts := make(map[memory.TaskStatus]int, len(memory.TaskStatuses))
	for _, status := range memory.TaskStatuses {
		counts[status] = 0
	}
	for _, task := range s.tasks {
		if task.ProjectID == projectID {
			counts[task.Status]++
		}
	}

	return counts, nil
}

// ListAnchors returns the project's anchors.
func (s *Store) ListAnchors(_ context.Context, projectID string) ([]*memory.Anchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	anchors := make([]*memory.Anchor, 0)
	for _, anchor := range s.anchors {
		if anchor.ProjectID == projectID {
			clone := *anchor
			clone.FragmentIDs = append([]string(nil), anchor.FragmentIDs...)
			anchors = append(anchors, &clone)
		}
	}

	return anchors, nil
}

// GetAnchor retrieves an anchor by id.
func (s *Store) GetAnchor(_ context.Context, id string) (*memory.Anchor, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	anchor, ok := s.anchors[id]
	if !ok {
		return nil, fmt.Errorf("%w: anchor %s", memory.ErrNotFound, id)
	}

	clone := *anchor
	clone.FragmentIDs = append([]string(nil), anchor.FragmentIDs...)

	return &clone, nil
}

// CreateAnchor persists an anchor and returns its id. Not part of the Store
// interface; anchors are read-only to the core and provisioned out of band.
func (s *Store) CreateAnchor(_ context.Context, anchor *memory.Anchor) (string, error) {
	if anchor == nil || anchor.ID == "" {
		return "", fmt.Errorf("%w: anchor with empty id", memory.ErrInvalidInput)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	clone := *anchor
	clone.FragmentIDs = append([]string(nil), anchor.FragmentIDs...)
	s.anchors[anchor.ID] = &clone

	return anchor.ID, nil
}

// Close is a no-op for the in-memory store.
func (s *Store) Close() error {
	return nil
}

// Copies guard internal state from caller mutation.
func cloneFragment(f *memory.Fragment) *memory.Fragment {
	clone := *f
	clone.Tags = append([]string(nil), f.Tags...)
	clone.ContextIDs = append([]string(nil), f.ContextIDs...)
	clone.AnchorIDs = append([]string(nil), f.AnchorIDs...)

	if f.CustomFields != nil {
		clone.CustomFields = make(map[string]any, len(f.CustomFields))
		for k, v := range f.CustomFields {
			clone.CustomFields[k] = v
		}
	}

	return &clone
}

func cloneContext(c *memory.Context) *memory.Context {
	clone := *c
	clone.FragmentIDs = append([]string(nil), c.FragmentIDs...)

	return &clone
}

func removeString(list []string, target string) []string {
	out := list[:0]
	for _, item := range list {
		if item != target {
			out = append(out, item)
		}
	}

	return out
}

var _ memory.Store = (*Store)(nil)

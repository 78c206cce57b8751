// Package memory provides the semantic memory layer for the memoire system.
//
// Fragments are distilled pieces of knowledge owned by a project and grouped
// into contexts. The memory store persists fragments, contexts, anchors,
// tasks, and projects; the vector driver indexes fragment content for
// similarity search.
package memory

import "time"

// UnassignedKey groups search hits whose fragment belongs to no context.
const UnassignedKey = "unassigned"

// Project is a top-level memory namespace.
type Project struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// Fragment is a single stored piece of knowledge. Content is immutable:
// updates are modeled as delete+create, never in-place edits.
type Fragment struct {
	ID         string   `json:"id"`
	ProjectID  string   `json:"project_id"`
	Content    string   `json:"content"`
	Category   string   `json:"category,omitempty"`
	Tags       []string `json:"tags,omitempty"`
	Source     string   `json:"source,omitempty"`
	ContextIDs []string `json:"context_ids,omitempty"`
	AnchorIDs  []string `json:"anchor_ids,omitempty"`

	// CustomFields is an open-ended metadata map supplied by callers.
	CustomFields map[string]any `json:"custom_fields,omitempty"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Context is a named grouping of fragments within a project. Names are
// unique by convention (enforced by the resolver, not a hard constraint).
type Context struct {
	ID          string   `json:"id"`
	ProjectID   string   `json:"project_id"`
	Name        string   `json:"name"`
	Description string   `json:"description,omitempty"`
	FragmentIDs []string `json:"fragment_ids,omitempty"`
	ParentID    string   `json:"parent_id,omitempty"`

	// FragmentCount is derived from FragmentIDs and kept consistent by
	// explicit membership updates.
	FragmentCount int `json:"fragment_count"`

	CreatedAt time.Time `json:"created_at"`
}

// TaskStatus tracks a task through its lifecycle.
type TaskStatus string

const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in_progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists the valid statuses in lifecycle order.
var TaskStatuses = []TaskStatus{TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted}

// Valid reports whether the status is one of the known values.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	}

	return false
}

// Task is an action item owned by a project. Tasks live alongside fragments
// but are never embedded or searched.
type Task struct {
	ID          string     `json:"id"`
	ProjectID   string     `json:"project_id"`
	Title       string     `json:"title"`
	Description string     `json:"description,omitempty"`
	Status      TaskStatus `json:"status"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// TaskUpdate carries the task fields to change. Nil fields keep their
// current value.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
}

// Empty reports whether the update changes nothing.
func (u TaskUpdate) Empty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil
}

// ProjectSummary reports per-project record counts.
type ProjectSummary struct {
	ProjectID string             `json:"project_id"`
	Contexts  int                `json:"contexts"`
	Fragments int                `json:"fragments"`
	Tasks     map[TaskStatus]int `json:"tasks"`
}

// Anchor is a stable reference point (person, artifact, concept) fragments
// can attach to.
type Anchor struct {
	ID          string    `json:"id"`
	ProjectID   string    `json:"project_id"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	FragmentIDs []string  `json:"fragment_ids,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

// SearchResult is a single similarity hit. Ephemeral: constructed per query,
// never persisted.
type SearchResult struct {
	// Score is the similarity score in [0,1].
	Score float32 `json:"score"`

	Fragment *Fragment `json:"fragment"`

	// PrimaryContext is the fragment's first context, if any.
	PrimaryContext *Context `json:"primary_context,omitempty"`

	Anchors []*Anchor `json:"anchors,omitempty"`
}

// GroupedResults maps project id -> context id (or UnassignedKey) -> hits
// ordered by descending similarity. Projects and contexts with zero hits are
// omitted entirely.
type GroupedResults map[string]map[string][]SearchResult

// SearchOptions narrows a similarity search against one project.
type SearchOptions struct {
	// Threshold excludes hits scoring below it. Zero means no cutoff.
	Threshold float32

	// Limit caps the number of hits. Zero falls back to the configured default.
	Limit int

	// ContextID restricts hits to fragments belonging to the context.
	ContextID string
}

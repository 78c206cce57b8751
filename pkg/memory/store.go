package memory

import "context"

// Store persists projects, fragments, contexts, anchors, and tasks.
// Implementations are pluggable via configuration:
//
//	[storage]
//	sqlite_path = "~/.memoire/memoire.db"   # empty path selects in-memory
type Store interface {
	// CreateProject persists a project and returns its id.
	CreateProject(ctx context.Context, project *Project) (string, error)

	// GetProject retrieves a project by id. Returns ErrNotFound if absent.
	GetProject(ctx context.Context, id string) (*Project, error)

	// ListProjects returns all projects known to the store.
	ListProjects(ctx context.Context) ([]*Project, error)

	// DeleteProject removes a project and everything it owns.
	DeleteProject(ctx context.Context, id string) error

	// CreateFragment persists a fragment and returns its id.
	CreateFragment(ctx context.Context, fragment *Fragment) (string, error)

	// GetFragment retrieves a fragment by id. Returns ErrNotFound if absent.
	GetFragment(ctx context.Context, id string) (*Fragment, error)

	// DeleteFragments batch-removes fragments by id within a project.
	// Missing ids are skipped, not errors.
	DeleteFragments(ctx context.Context, projectID string, ids []string) error

	// CreateContext persists a context and returns its id.
	CreateContext(ctx context.Context, c *Context) (string, error)

	// GetContext retrieves a context by id. Returns ErrNotFound if absent.
	GetContext(ctx context.Context, id string) (*Context, error)

	// ListContexts returns all contexts owned by the project, in creation order.
	ListContexts(ctx context.Context, projectID string) ([]*Context, error)

	// UpdateContextMembers replaces the context's member fragment-id list.
	UpdateContextMembers(ctx context.Context, id string, fragmentIDs []string) error

	// CountFragments returns the number of fragments owned by the project.
	CountFragments(ctx context.Context, projectID string) (int, error)

	// CreateTask persists a task and returns its id.
	CreateTask(ctx context.Context, task *Task) (string, error)

	// GetTask retrieves a task by id. Returns ErrNotFound if absent.
	GetTask(ctx context.Context, id string) (*Task, error)

	// ListTasks returns the project's tasks newest first, filtered by status
	// when one is given.
	ListTasks(ctx context.Context, projectID string, status TaskStatus) ([]*Task, error)

	// UpdateTask applies the non-nil update fields and refreshes UpdatedAt.
	// Returns ErrNotFound if absent.
	UpdateTask(ctx context.Context, id string, update TaskUpdate) error

	// DeleteTask removes a task. Returns ErrNotFound if absent.
	DeleteTask(ctx context.Context, id string) error

	// CountTasks returns per-status task counts for the project. Every valid
	// status appears in the map, zero-valued when no tasks carry it.
	CountTasks(ctx context.Context, projectID string) (map[TaskStatus]int, error)

	// ListAnchors returns all anchors owned by the project.
	ListAnchors(ctx context.Context, projectID string) ([]*Anchor, error)

	// GetAnchor retrieves an anchor by id. Returns ErrNotFound if absent.
	GetAnchor(ctx context.Context, id string) (*Anchor, error)

	// Close releases store resources.
	Close() error
}

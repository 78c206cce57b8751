// Package sqlite provides a SQLite-backed implementation of the memory.Store
// interface.
//
// List-valued and open-ended fields (tags, context ids, custom fields) are
// stored as JSON text columns. One database file holds all projects.
package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

// Store implements memory.Store backed by a SQLite database.
type Store struct {
	db     *sql.DB
	logger *zap.Logger
}

// Config holds configuration for the SQLite store.
type Config struct {
	// DBPath is the filesystem path to the SQLite database file.
	DBPath string
}

const schema = `
CREATE TABLE IF NOT EXISTS projects (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	created_at  TIMESTAMP NOT NULL
);

CREATE TABLE IF NOT EXISTS fragments (
	id            TEXT PRIMARY KEY,
	project_id    TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	content       TEXT NOT NULL,
	category      TEXT NOT NULL DEFAULT '',
	tags          TEXT NOT NULL DEFAULT '[]',
	source        TEXT NOT NULL DEFAULT '',
	context_ids   TEXT NOT NULL DEFAULT '[]',
	anchor_ids    TEXT NOT NULL DEFAULT '[]',
	custom_fields TEXT NOT NULL DEFAULT '{}',
	created_at    TIMESTAMP NOT NULL,
	updated_at    TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_fragments_project ON fragments(project_id);

CREATE TABLE IF NOT EXISTS contexts (
	id           TEXT PRIMARY KEY,
	project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	fragment_ids TEXT NOT NULL DEFAULT '[]',
	parent_id    TEXT NOT NULL DEFAULT '',
	created_at   TIMESTAMP NOT NULL,
	seq          INTEGER NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS idx_contexts_project ON contexts(project_id, seq);

CREATE TABLE IF NOT EXISTS tasks (
	id          TEXT PRIMARY KEY,
	project_id  TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	title       TEXT NOT NULL,
	description TEXT NOT NULL DEFAULT '',
	status      TEXT NOT NULL DEFAULT 'pending',
	created_at  TIMESTAMP NOT NULL,
	updated_at  TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id, status);

CREATE TABLE IF NOT EXISTS anchors (
	id           TEXT PRIMARY KEY,
	project_id   TEXT NOT NULL REFERENCES projects(id) ON DELETE CASCADE,
	name         TEXT NOT NULL,
	description  TEXT NOT NULL DEFAULT '',
	fragment_ids TEXT NOT NULL DEFAULT '[]',
	created_at   TIMESTAMP NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_anchors_project ON anchors(project_id);
`

// NewStore creates a SQLite-backed memory store, creating the schema if it
// does not exist yet.
func NewStore(c Config, logger *zap.Logger) (*Store, error) {
	if c.DBPath == "" {
		return nil, fmt.Errorf("database path is required")
	}

	db, err := sql.Open("sqlite3", c.DBPath+"?_foreign_keys=on")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()

		return nil, fmt.Errorf("creating schema: %w", err)
	}

	logger.Info("sqlite memory store initialized", zap.String("path", c.DBPath))

	return &Store{
		db:     db,
		logger: logger,
	}, nil
}

// CreateProject persists a project and returns its id.
func (s *Store) CreateProject(ctx context.Context, project *memory.Project) (string, error) {
	if project == nil || project.ID == "" {
		return "", fmt.Errorf("%w: project with empty id", memory.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO projects (id, name, description, created_at) VALUES (?, ?, ?, ?)`,
		project.ID, project.Name, project.Description, project.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting project: %w", err)
	}

	return project.ID, nil
}

// GetProject retrieves a project by id.
func (s *Store) GetProject(ctx context.Context, id string) (*memory.Project, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, name, description, created_at FROM projects WHERE id = ?`, id)

	var project memory.Project
	err := row.Scan(&project.ID, &project.Name, &project.Description, &project.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: project %s", memory.ErrNotFound, id)
	}
	if err != nil {
		return nil, fmt.Errorf("scanning project: %w", err)
	}

	return &project, nil
}

// ListProjects returns all projects ordered by creation time.
func (s *Store) ListProjects(ctx context.Context) ([]*memory.Project, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, name, description, created_at FROM projects ORDER BY created_at`)
	if err != nil {
		return nil, fmt.Errorf("listing projects: %w", err)
	}
	defer rows.Close()

	var projects []*memory.Project
	for rows.Next() {
		var project memory.Project
		if err := rows.Scan(&project.ID, &project.Name, &project.Description, &project.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning project: %w", err)
		}
		projects = append(projects, &project)
	}

	return projects, rows.Err()
}

// DeleteProject removes a project; fragments, contexts, and anchors cascade.
func (s *Store) DeleteProject(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM projects WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting project: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: project %s", memory.ErrNotFound, id)
	}

	return nil
}

// CreateFragment persists a fragment and returns its id.
func (s *Store) CreateFragment(ctx context.Context, fragment *memory.Fragment) (string, error) {
	if fragment == nil || fragment.ID == "" {
		return "", fmt.Errorf("%w: fragment with empty id", memory.ErrInvalidInput)
	}

	tags, err := marshalJSON(fragment.Tags)
	if err != nil {
		return "", err
	}
	contextIDs, err := marshalJSON(fragment.ContextIDs)
	if err != nil {
		return "", err
	}
	anchorIDs, err := marshalJSON(fragment.AnchorIDs)
	if err != nil {
		return "", err
	}
	customFields, err := marshalJSON(fragment.CustomFields)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO fragments
			(id, project_id, content, category, tags, source, context_ids, anchor_ids, custom_fields, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		fragment.ID, fragment.ProjectID, fragment.Content, fragment.Category,
		tags, fragment.Source, contextIDs, anchorIDs, customFields,
		fragment.CreatedAt, fragment.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting fragment: %w", err)
	}

	return fragment.ID, nil
}

// GetFragment retrieves a fragment by id.
func (s *Store) GetFragment(ctx context.Context, id string) (*memory.Fragment, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, content, category, tags, source, context_ids, anchor_ids, custom_fields, created_at, updated_at
		 FROM fragments WHERE id = ?`, id)

	fragment, err := scanFragment(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: fragment %s", memory.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return fragment, nil
}

// DeleteFragments batch-removes fragments by id within a project. Missing ids
// are skipped. Context membership lists referencing deleted fragments are
// rewritten in the same transaction.
func (s *Store) DeleteFragments(ctx context.Context, projectID string, ids []string) error {
	if len(ids) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	deleted := make(map[string]bool, len(ids))
	for _, id := range ids {
		result, err := tx.ExecContext(ctx,
			`DELETE FROM fragments WHERE id = ? AND project_id = ?`, id, projectID)
		if err != nil {
			return fmt.Errorf("deleting fragment %s: %w", id, err)
		}
		if affected, err := result.RowsAffected(); err == nil && affected > 0 {
			deleted[id] = true
		}
	}

	if len(deleted) > 0 {
		if err := s.pruneContextMembers(ctx, tx, projectID, deleted); err != nil {
			return err
		}
	}

	return tx.Commit()
}

// pruneContextMembers drops deleted fragment ids from every context
// membership list in the project.
func (s *Store) pruneContextMembers(ctx context.Context, tx *sql.Tx, projectID string, deleted map[string]bool) error {
	rows, err := tx.QueryContext(ctx,
		`SELECT id, fragment_ids FROM contexts WHERE project_id = ?`, projectID)
	if err != nil {
		return fmt.Errorf("listing contexts: %w", err)
	}

	type update struct {
		id  string
		ids []string
	}
	var updates []update

	for rows.Next() {
		var id, raw string
		if err := rows.Scan(&id, &raw); err != nil {
			rows.Close()

			return fmt.Errorf("scanning context: %w", err)
		}

		var fragmentIDs []string
		if err := json.Unmarshal([]byte(raw), &fragmentIDs); err != nil {
			rows.Close()

			return fmt.Errorf("decoding context %s members: %w", id, err)
		}

		kept := fragmentIDs[:0]
		changed := false
		for _, fragmentID := range fragmentIDs {
			if deleted[fragmentID] {
				changed = true

				continue
			}
			kept = append(kept, fragmentID)
		}

		if changed {
			updates = append(updates, update{id: id, ids: kept})
		}
	}
	if err := rows.Close(); err != nil {
		return fmt.Errorf("closing context rows: %w", err)
	}

	for _, u := range updates {
		encoded, err := marshalJSON(u.ids)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx,
			`UPDATE contexts SET fragment_ids = ? WHERE id = ?`, encoded, u.id); err != nil {
			return fmt.Errorf("updating context %s members: %w", u.id, err)
		}
	}

	return nil
}

// CreateContext persists a context and returns its id.
func (s *Store) CreateContext(ctx context.Context, c *memory.Context) (string, error) {
	if c == nil || c.ID == "" {
		return "", fmt.Errorf("%w: context with empty id", memory.ErrInvalidInput)
	}

	fragmentIDs, err := marshalJSON(c.FragmentIDs)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO contexts (id, project_id, name, description, fragment_ids, parent_id, created_at, seq)
		 VALUES (?, ?, ?, ?, ?, ?, ?,
			(SELECT COALESCE(MAX(seq), 0) + 1 FROM contexts WHERE project_id = ?))`,
		c.ID, c.ProjectID, c.Name, c.Description, fragmentIDs, c.ParentID, c.CreatedAt, c.ProjectID,
	)
	if err != nil {
		return "", fmt.Errorf("inserting context: %w", err)
	}

	return c.ID, nil
}

// GetContext retrieves a context by id.
func (s *Store) GetContext(ctx context.Context, id string) (*memory.Context, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, description, fragment_ids, parent_id, created_at
		 FROM contexts WHERE id = ?`, id)

	c, err := scanContext(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: context %s", memory.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return c, nil
}

// ListContexts returns the project's contexts in creation order.
func (s *Store) ListContexts(ctx context.Context, projectID string) ([]*memory.Context, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, description, fragment_ids, parent_id, created_at
		 FROM contexts WHERE project_id = ? ORDER BY seq`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing contexts: %w", err)
	}
	defer rows.Close()

	var contexts []*memory.Context
	for rows.Next() {
		c, err := scanContext(rows)
		if err != nil {
			return nil, err
		}
		contexts = append(contexts, c)
	}

	return contexts, rows.Err()
}

// UpdateContextMembers replaces the context's member fragment-id list.
func (s *Store) UpdateContextMembers(ctx context.Context, id string, fragmentIDs []string) error {
	encoded, err := marshalJSON(fragmentIDs)
	if err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx,
		`UPDATE contexts SET fragment_ids = ? WHERE id = ?`, encoded, id)
	if err != nil {
		return fmt.Errorf("updating context members: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: context %s", memory.ErrNotFound, id)
	}

	return nil
}

// CountFragments returns the number of fragments owned by the project.
func (s *Store) CountFragments(ctx context.Context, projectID string) (int, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM fragments WHERE project_id = ?`, projectID)

	var count int
	if err := row.Scan(&count); err != nil {
		return 0, fmt.Errorf("counting fragments: %w", err)
	}

	return count, nil
}

// CreateTask persists a task and returns its id.
func (s *Store) CreateTask(ctx context.Context, task *memory.Task) (string, error) {
	if task == nil || task.ID == "" {
		return "", fmt.Errorf("%w: task with empty id", memory.ErrInvalidInput)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (id, project_id, title, description, status, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		task.ID, task.ProjectID, task.Title, task.Description, string(task.Status),
		task.CreatedAt, task.UpdatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting task: %w", err)
	}

	return task.ID, nil
}

// GetTask retrieves a task by id.
func (s *Store) GetTask(ctx context.Context, id string) (*memory.Task, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, title, description, status, created_at, updated_at
		 FROM tasks WHERE id = ?`, id)

	task, err := scanTask(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: task %s", memory.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return task, nil
}

// ListTasks returns the project's tasks newest first, filtered by status
// when one is given.
func (s *Store) ListTasks(ctx context.Context, projectID string, status memory.TaskStatus) ([]*memory.Task, error) {
	query := `SELECT id, project_id, title, description, status, created_at, updated_at
		 FROM tasks WHERE project_id = ?`
	args := []any{projectID}
	if status != "" {
		query += ` AND status = ?`
		args = append(args, string(status))
	}
	query += ` ORDER BY created_at DESC`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing tasks: %w", err)
	}
	defer rows.Close()

	var tasks []*memory.Task
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, task)
	}

	return tasks, rows.Err()
}

// UpdateTask applies the non-nil update fields and refreshes UpdatedAt.
func (s *Store) UpdateTask(ctx context.Context, id string, update memory.TaskUpdate) error {
	fields := make([]string, 0, 4)
	args := make([]any, 0, 5)
	if update.Title != nil {
		fields = append(fields, "title = ?")
		args = append(args, *update.Title)
	}
	if update.Description != nil {
		fields = append(fields, "description = ?")
		args = append(args, *update.Description)
	}
	if update.Status != nil {
		fields = append(fields, "status = ?")
		args = append(args, string(*update.Status))
	}
	fields = append(fields, "updated_at = ?")
	args = append(args, time.Now().UTC())
	args = append(args, id)

	result, err := s.db.ExecContext(ctx,
		`UPDATE tasks SET `+strings.Join(fields, ", ")+` WHERE id = ?`, args...)
	if err != nil {
		return fmt.Errorf("updating task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking update result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: task %s", memory.ErrNotFound, id)
	}

	return nil
}

// DeleteTask removes a task.
func (s *Store) DeleteTask(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("deleting task: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("checking delete result: %w", err)
	}
	if affected == 0 {
		return fmt.Errorf("%w: task %s", memory.ErrNotFound, id)
	}

	return nil
}

// CountTasks returns per-status task counts for the project.
func (s *Store) CountTasks(ctx context.Context, projectID string) (map[memory.TaskStatus]int, error) {
	counts := make(map[memory.TaskStatus]int, len(memory.TaskStatuses))
	for _, status := range memory.TaskStatuses {
		counts[status] = 0
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT status, COUNT(*) FROM tasks WHERE project_id = ? GROUP BY status`, projectID)
	if err != nil {
		return nil, fmt.Errorf("counting tasks: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var status string
		var count int
		if err := rows.Scan(&status, &count); err != nil {
			return nil, fmt.Errorf("scanning task count: %w", err)
		}
		counts[memory.TaskStatus(status)] = count
	}

	return counts, rows.Err()
}

// ListAnchors returns the project's anchors.
func (s *Store) ListAnchors(ctx context.Context, projectID string) ([]*memory.Anchor, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT id, project_id, name, description, fragment_ids, created_at
		 FROM anchors WHERE project_id = ? ORDER BY created_at`, projectID)
	if err != nil {
		return nil, fmt.Errorf("listing anchors: %w", err)
	}
	defer rows.Close()

	var anchors []*memory.Anchor
	for rows.Next() {
		anchor, err := scanAnchor(rows)
		if err != nil {
			return nil, err
		}
		anchors = append(anchors, anchor)
	}

	return anchors, rows.Err()
}

// GetAnchor retrieves an anchor by id.
func (s *Store) GetAnchor(ctx context.Context, id string) (*memory.Anchor, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, project_id, name, description, fragment_ids, created_at
		 FROM anchors WHERE id = ?`, id)

	anchor, err := scanAnchor(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: anchor %s", memory.ErrNotFound, id)
	}
	if err != nil {
		return nil, err
	}

	return anchor, nil
}

// CreateAnchor persists an anchor and returns its id. Not part of the Store
// interface; anchors are read-only to the core and provisioned out of band.
func (s *Store) CreateAnchor(ctx context.Context, anchor *memory.Anchor) (string, error) {
	if anchor == nil || anchor.ID == "" {
		return "", fmt.Errorf("%w: anchor with empty id", memory.ErrInvalidInput)
	}

	fragmentIDs, err := marshalJSON(anchor.FragmentIDs)
	if err != nil {
		return "", err
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO anchors (id, project_id, name, description, fragment_ids, created_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		anchor.ID, anchor.ProjectID, anchor.Name, anchor.Description, fragmentIDs, anchor.CreatedAt,
	)
	if err != nil {
		return "", fmt.Errorf("inserting anchor: %w", err)
	}

	return anchor.ID, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanFragment(row scanner) (*memory.Fragment, error) {
	var fragment memory.Fragment
	var tags, contextIDs, anchorIDs, customFields string
	var createdAt, updatedAt time.Time

	err := row.Scan(
		&fragment.ID, &fragment.ProjectID, &fragment.Content, &fragment.Category,
		&tags, &fragment.Source, &contextIDs, &anchorIDs, &customFields,
		&createdAt, &updatedAt,
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning fragment: %w", err)
	}

	fragment.CreatedAt = createdAt
	fragment.UpdatedAt = updatedAt

	if err := unmarshalJSON(tags, &fragment.Tags); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(contextIDs, &fragment.ContextIDs); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(anchorIDs, &fragment.AnchorIDs); err != nil {
		return nil, err
	}
	if err := unmarshalJSON(customFields, &fragment.CustomFields); err != nil {
		return nil, err
	}

	return &fragment, nil
}

func scanContext(row scanner) (*memory.Context, error) {
	var c memory.Context
	var fragmentIDs string

	err := row.Scan(&c.ID, &c.ProjectID, &c.Name, &c.Description, &fragmentIDs, &c.ParentID, &c.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning context: %w", err)
	}

	if err := unmarshalJSON(fragmentIDs, &c.FragmentIDs); err != nil {
		return nil, err
	}
	c.FragmentCount = len(c.FragmentIDs)

	return &c, nil
}

func scanTask(row scanner) (*memory.Task, error) {
	var task memory.Task
	var status string

	err := row.Scan(&task.ID, &task.ProjectID, &task.Title, &task.Description, &status,
		&task.CreatedAt, &task.UpdatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning task: %w", err)
	}

	task.Status = memory.TaskStatus(status)

	return &task, nil
}

func scanAnchor(row scanner) (*memory.Anchor, error) {
	var anchor memory.Anchor
	var fragmentIDs string

	err := row.Scan(&anchor.ID, &anchor.ProjectID, &anchor.Name, &anchor.Description, &fragmentIDs, &anchor.CreatedAt)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, err
	}
	if err != nil {
		return nil, fmt.Errorf("scanning anchor: %w", err)
	}

	if err := unmarshalJSON(fragmentIDs, &anchor.FragmentIDs); err != nil {
		return nil, err
	}

	return &anchor, nil
}

func marshalJSON(v any) (string, error) {
	encoded, err := json.Marshal(v)
	if err != nil {
		return "", fmt.Errorf("encoding json column: %w", err)
	}

	return string(encoded), nil
}

func unmarshalJSON[T any](raw string, dest *T) error {
	if raw == "" {
		return nil
	}
	if err := json.Unmarshal([]byte(raw), dest); err != nil {
		return fmt.Errorf("decoding json column: %w", err)
	}

	return nil
}

var _ memory.Store = (*Store)(nil)

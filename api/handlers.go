package api

import (
	"errors"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

// ErrorResponse is the JSON body returned for failed requests.
type ErrorResponse struct {
	Error string `json:"error"`
}

// RememberRequest submits text for curated ingestion into a project.
type RememberRequest struct {
	ProjectID string `json:"project_id"`
	Text      string `json:"text"`
}

// RecallRequest queries stored memory. An empty ProjectIDs list means all
// projects. Raw skips synthesis and returns the grouped fragments.
type RecallRequest struct {
	Query      string   `json:"query"`
	ProjectIDs []string `json:"project_ids,omitempty"`
	Raw        bool     `json:"raw,omitempty"`
}

// RecallResponse carries either a synthesized answer or raw grouped results.
type RecallResponse struct {
	Query     string                  `json:"query"`
	Synthesis *intelligence.Synthesis `json:"synthesis,omitempty"`
	Grouped   memory.GroupedResults   `json:"grouped,omitempty"`
	Projects  int                     `json:"projects"`
}

// CreateProjectRequest names a new project.
type CreateProjectRequest struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleRemember runs curated ingestion for the submitted text.
func (s *Server) handleRemember(c *fiber.Ctx) error {
	var req RememberRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.ProjectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "project_id is required"})
	}
	if req.Text == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "text is required"})
	}

	if _, err := s.memories.GetProject(c.Context(), req.ProjectID); err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "project not found"})
	}

	result, err := s.curator.Curate(c.Context(), req.Text, req.ProjectID)
	if err != nil {
		s.logger.Error("curated ingestion failed",
			zap.String("project_id", req.ProjectID),
			zap.Error(err),
		)

		if errors.Is(err, memory.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}

		return c.Status(fiber.StatusBadGateway).JSON(ErrorResponse{Error: "ingestion failed"})
	}

	return c.JSON(result)
}

// handleRecall runs grouped recall and, unless raw results were requested,
// synthesizes an answer over them.
func (s *Server) handleRecall(c *fiber.Ctx) error {
	var req RecallRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Query == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "query is required"})
	}

	grouped, err := s.memories.Recall(c.Context(), req.Query, req.ProjectIDs)
	if err != nil {
		if errors.Is(err, memory.ErrNoTarget) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "no projects to recall from"})
		}
		if errors.Is(err, memory.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}

		s.logger.Error("recall failed", zap.Error(err))

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "recall failed"})
	}

	resp := RecallResponse{
		Query:    req.Query,
		Projects: len(grouped),
	}

	if req.Raw {
		resp.Grouped = grouped
	} else {
		resp.Synthesis = s.synthesizer.Synthesize(c.Context(), req.Query, grouped)
	}

	return c.JSON(resp)
}

// handleCreateProject creates a new project.
func (s *Server) handleCreateProject(c *fiber.Ctx) error {
	var req CreateProjectRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	project, err := s.memories.CreateProject(c.Context(), req.Name, req.Description)
	if err != nil {
		if errors.Is(err, memory.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "name is required"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to create project"})
	}

	return c.Status(fiber.StatusCreated).JSON(project)
}

// handleListProjects returns all projects.
func (s *Server) handleListProjects(c *fiber.Ctx) error {
	projects, err := s.memories.ListProjects(c.Context())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list projects"})
	}

	return c.JSON(map[string]any{
		"count":    len(projects),
		"projects": projects,
	})
}

// handleGetProject returns a single project by id.
func (s *Server) handleGetProject(c *fiber.Ctx) error {
	project, err := s.memories.GetProject(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "project not found"})
	}

	return c.JSON(project)
}

// handleDeleteProject removes a project and everything it owns.
func (s *Server) handleDeleteProject(c *fiber.Ctx) error {
	if err := s.memories.DeleteProject(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "project not found"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete project"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleListContexts returns the project's contexts in creation order.
func (s *Server) handleListContexts(c *fiber.Ctx) error {
	contexts, err := s.memories.ListContexts(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list contexts"})
	}

	return c.JSON(map[string]any{
		"count":    len(contexts),
		"contexts": contexts,
	})
}

// handleListAnchors returns the project's anchors.
func (s *Server) handleListAnchors(c *fiber.Ctx) error {
	anchors, err := s.memories.ListAnchors(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list anchors"})
	}

	return c.JSON(map[string]any{
		"count":   len(anchors),
		"anchors": anchors,
	})
}

// handleGetFragment returns a single fragment by id.
func (s *Server) handleGetFragment(c *fiber.Ctx) error {
	fragment, err := s.memories.GetFragment(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "fragment not found"})
	}

	return c.JSON(fragment)
}

// handleGetContext returns a single context by id.
func (s *Server) handleGetContext(c *fiber.Ctx) error {
	context, err := s.memories.GetContext(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "context not found"})
	}

	return c.JSON(context)
}

// handleContextFragments returns the fragments filed under a context.
// Fragments whose rows have gone missing are skipped rather than failing
// the listing.
func (s *Server) handleContextFragments(c *fiber.Ctx) error {
	context, err := s.memories.GetContext(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "context not found"})
	}

	fragments := make([]*memory.Fragment, 0, len(context.FragmentIDs))
	for _, id := range context.FragmentIDs {
		fragment, err := s.memories.GetFragment(c.Context(), id)
		if err != nil {
			s.logger.Warn("context member missing",
				zap.String("context_id", context.ID),
				zap.String("fragment_id", id),
			)
			continue
		}
		fragments = append(fragments, fragment)
	}

	return c.JSON(map[string]any{
		"count":     len(fragments),
		"fragments": fragments,
	})
}

// handleFragmentContexts returns the contexts a fragment is filed under.
func (s *Server) handleFragmentContexts(c *fiber.Ctx) error {
	fragment, err := s.memories.GetFragment(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "fragment not found"})
	}

	contexts := make([]*memory.Context, 0, len(fragment.ContextIDs))
	for _, id := range fragment.ContextIDs {
		context, err := s.memories.GetContext(c.Context(), id)
		if err != nil {
			continue
		}
		contexts = append(contexts, context)
	}

	return c.JSON(map[string]any{
		"count":    len(contexts),
		"contexts": contexts,
	})
}

// CreateTaskRequest adds an action item to a project.
type CreateTaskRequest struct {
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
}

// UpdateTaskRequest carries a partial task update. Omitted fields keep their
// current value.
type UpdateTaskRequest struct {
	Title       *string `json:"title,omitempty"`
	Description *string `json:"description,omitempty"`
	Status      *string `json:"status,omitempty"`
}

// handleCreateTask creates a task under a project.
func (s *Server) handleCreateTask(c *fiber.Ctx) error {
	var req CreateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.ProjectID == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "project_id is required"})
	}

	task, err := s.memories.CreateTask(c.Context(), req.ProjectID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "project not found"})
		}
		if errors.Is(err, memory.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to create task"})
	}

	return c.Status(fiber.StatusCreated).JSON(task)
}

// handleGetTask returns a single task by id.
func (s *Server) handleGetTask(c *fiber.Ctx) error {
	task, err := s.memories.GetTask(c.Context(), c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "task not found"})
	}

	return c.JSON(task)
}

// handleListTasks returns the project's tasks, optionally filtered by the
// status query parameter.
func (s *Server) handleListTasks(c *fiber.Ctx) error {
	tasks, err := s.memories.ListTasks(c.Context(), c.Params("id"), memory.TaskStatus(c.Query("status")))
	if err != nil {
		if errors.Is(err, memory.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list tasks"})
	}

	return c.JSON(map[string]any{
		"count": len(tasks),
		"tasks": tasks,
	})
}

// handleUpdateTask applies a partial task update and returns the new state.
func (s *Server) handleUpdateTask(c *fiber.Ctx) error {
	var req UpdateTaskRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	update := memory.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
	}
	if req.Status != nil {
		status := memory.TaskStatus(*req.Status)
		update.Status = &status
	}

	task, err := s.memories.UpdateTask(c.Context(), c.Params("id"), update)
	if err != nil {
		if errors.Is(err, memory.ErrInvalidInput) {
			return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: err.Error()})
		}
		if errors.Is(err, memory.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "task not found"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to update task"})
	}

	return c.JSON(task)
}

// handleDeleteTask removes a task.
func (s *Server) handleDeleteTask(c *fiber.Ctx) error {
	if err := s.memories.DeleteTask(c.Context(), c.Params("id")); err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "task not found"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to delete task"})
	}

	return c.SendStatus(fiber.StatusNoContent)
}

// handleProjectSummary reports record counts for one project.
func (s *Server) handleProjectSummary(c *fiber.Ctx) error {
	summary, err := s.memories.ProjectSummary(c.Context(), c.Params("id"))
	if err != nil {
		if errors.Is(err, memory.ErrNotFound) {
			return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "project not found"})
		}

		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to summarize project"})
	}

	return c.JSON(summary)
}

// handleCacheStats reports embedding cache occupancy.
func (s *Server) handleCacheStats(c *fiber.Ctx) error {
	return c.JSON(s.memories.CacheStats())
}

// handleCacheCleanup evicts expired embedding cache entries.
func (s *Server) handleCacheCleanup(c *fiber.Ctx) error {
	return c.JSON(map[string]int{"removed": s.memories.CleanupCache()})
}

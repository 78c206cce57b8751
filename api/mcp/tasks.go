package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

var (
	createTaskToolName    = "create_task"
	createTaskDescription = "Create a task (action item) in a project. Tasks start in the pending status and can later move to in_progress or completed via update_task."

	getTaskToolName    = "get_task"
	getTaskDescription = "Retrieve a single task by its id."

	listTasksToolName    = "list_tasks"
	listTasksDescription = "List a project's tasks newest first. Pass a status (pending, in_progress, or completed) to narrow the listing."

	updateTaskToolName    = "update_task"
	updateTaskDescription = "Update a task's title, description, or status. Only the fields provided change; the usual flow is moving a task from pending to in_progress to completed."

	deleteTaskToolName    = "delete_task"
	deleteTaskDescription = "Permanently delete a task by its id."
)

// TaskSummary is the wire shape of a task in tool outputs.
type TaskSummary struct {
	ID          string `json:"id"`
	ProjectID   string `json:"project_id"`
	Title       string `json:"title"`
	Description string `json:"description,omitempty"`
	Status      string `json:"status"`
}

func taskSummary(task *memory.Task) TaskSummary {
	return TaskSummary{
		ID:          task.ID,
		ProjectID:   task.ProjectID,
		Title:       task.Title,
		Description: task.Description,
		Status:      string(task.Status),
	}
}

// CreateTaskInput represents the input arguments for the create_task tool.
type CreateTaskInput struct {
	ProjectID   string `json:"project_id" jsonschema:"the id of the project the task belongs to"`
	Title       string `json:"title" jsonschema:"a concise title for the task"`
	Description string `json:"description,omitempty" jsonschema:"an optional longer description of the task"`
}

// TaskOutput carries one task.
type TaskOutput struct {
	Task TaskSummary `json:"task"`
}

func (s *Server) handleCreateTask(ctx context.Context, _ *mcp.CallToolRequest, input CreateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.ProjectID == "" {
		return toolError("project_id is required"), TaskOutput{}, nil
	}
	if input.Title == "" {
		return toolError("title is required"), TaskOutput{}, nil
	}

	task, err := s.config.Memories.CreateTask(ctx, input.ProjectID, input.Title, input.Description)
	if err != nil {
		s.config.Logger.Error("MCP create_task failed",
			zap.String("project_id", input.ProjectID),
			zap.Error(err),
		)

		return toolError(fmt.Sprintf("Create task failed: %v", err)), TaskOutput{}, nil
	}

	return taskResult(taskSummary(task))
}

// GetTaskInput represents the input arguments for the get_task tool.
type GetTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"the id of the task to retrieve"`
}

func (s *Server) handleGetTask(ctx context.Context, _ *mcp.CallToolRequest, input GetTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.TaskID == "" {
		return toolError("task_id is required"), TaskOutput{}, nil
	}

	task, err := s.config.Memories.GetTask(ctx, input.TaskID)
	if err != nil {
		return toolError(fmt.Sprintf("Task %s not found", input.TaskID)), TaskOutput{}, nil
	}

	return taskResult(taskSummary(task))
}

// ListTasksInput represents the input arguments for the list_tasks tool.
type ListTasksInput struct {
	ProjectID string `json:"project_id" jsonschema:"the id of the project whose tasks to list"`
	Status    string `json:"status,omitempty" jsonschema:"optional status filter: pending, in_progress, or completed"`
}

// ListTasksOutput represents the output of the list_tasks tool.
type ListTasksOutput struct {
	Tasks []TaskSummary `json:"tasks"`
	Count int           `json:"count"`
}

func (s *Server) handleListTasks(ctx context.Context, _ *mcp.CallToolRequest, input ListTasksInput) (*mcp.CallToolResult, ListTasksOutput, error) {
	if input.ProjectID == "" {
		return toolError("project_id is required"), ListTasksOutput{}, nil
	}

	tasks, err := s.config.Memories.ListTasks(ctx, input.ProjectID, memory.TaskStatus(input.Status))
	if err != nil {
		if errors.Is(err, memory.ErrInvalidInput) {
			return toolError(err.Error()), ListTasksOutput{}, nil
		}

		s.config.Logger.Error("MCP list_tasks failed",
			zap.String("project_id", input.ProjectID),
			zap.Error(err),
		)

		return toolError(fmt.Sprintf("List tasks failed: %v", err)), ListTasksOutput{}, nil
	}

	summaries := make([]TaskSummary, 0, len(tasks))
	for _, task := range tasks {
		summaries = append(summaries, taskSummary(task))
	}

	output := ListTasksOutput{
		Tasks: summaries,
		Count: len(summaries),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), ListTasksOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

// UpdateTaskInput represents the input arguments for the update_task tool.
type UpdateTaskInput struct {
	TaskID      string `json:"task_id" jsonschema:"the id of the task to update"`
	Title       string `json:"title,omitempty" jsonschema:"the new title, unchanged when omitted"`
	Description string `json:"description,omitempty" jsonschema:"the new description, unchanged when omitted"`
	Status      string `json:"status,omitempty" jsonschema:"the new status: pending, in_progress, or completed"`
}

func (s *Server) handleUpdateTask(ctx context.Context, _ *mcp.CallToolRequest, input UpdateTaskInput) (*mcp.CallToolResult, TaskOutput, error) {
	if input.TaskID == "" {
		return toolError("task_id is required"), TaskOutput{}, nil
	}

	var update memory.TaskUpdate
	if input.Title != "" {
		update.Title = &input.Title
	}
	if input.Description != "" {
		update.Description = &input.Description
	}
	if input.Status != "" {
		status := memory.TaskStatus(input.Status)
		update.Status = &status
	}

	task, err := s.config.Memories.UpdateTask(ctx, input.TaskID, update)
	if err != nil {
		if errors.Is(err, memory.ErrInvalidInput) || errors.Is(err, memory.ErrNotFound) {
			return toolError(fmt.Sprintf("Update task failed: %v", err)), TaskOutput{}, nil
		}

		s.config.Logger.Error("MCP update_task failed",
			zap.String("task_id", input.TaskID),
			zap.Error(err),
		)

		return toolError(fmt.Sprintf("Update task failed: %v", err)), TaskOutput{}, nil
	}

	return taskResult(taskSummary(task))
}

// DeleteTaskInput represents the input arguments for the delete_task tool.
type DeleteTaskInput struct {
	TaskID string `json:"task_id" jsonschema:"the id of the task to delete"`
}

// DeleteTaskOutput confirms the deletion.
type DeleteTaskOutput struct {
	TaskID  string `json:"task_id"`
	Deleted bool   `json:"deleted"`
}

func (s *Server) handleDeleteTask(ctx context.Context, _ *mcp.CallToolRequest, input DeleteTaskInput) (*mcp.CallToolResult, DeleteTaskOutput, error) {
	if input.TaskID == "" {
		return toolError("task_id is required"), DeleteTaskOutput{}, nil
	}

	if err := s.config.Memories.DeleteTask(ctx, input.TaskID); err != nil {
		return toolError(fmt.Sprintf("Delete task failed: %v", err)), DeleteTaskOutput{}, nil
	}

	output := DeleteTaskOutput{
		TaskID:  input.TaskID,
		Deleted: true,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), DeleteTaskOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

func taskResult(summary TaskSummary) (*mcp.CallToolResult, TaskOutput, error) {
	output := TaskOutput{Task: summary}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), TaskOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

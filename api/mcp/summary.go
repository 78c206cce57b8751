package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

var (
	projectSummaryToolName    = "get_project_summary"
	projectSummaryDescription = "Get a high-level summary of a project: how many contexts and fragments it holds and its task counts per status. Useful for a quick overview of a memory space before digging in."
)

// ProjectSummaryInput represents the input arguments for the
// get_project_summary tool.
type ProjectSummaryInput struct {
	ProjectID string `json:"project_id" jsonschema:"the id of the project to summarize"`
}

// ProjectSummaryOutput represents the output of the get_project_summary tool.
type ProjectSummaryOutput struct {
	ProjectID string         `json:"project_id"`
	Contexts  int            `json:"contexts"`
	Fragments int            `json:"fragments"`
	Tasks     map[string]int `json:"tasks"`
}

// handleProjectSummary processes a get_project_summary request via MCP.
func (s *Server) handleProjectSummary(ctx context.Context, _ *mcp.CallToolRequest, input ProjectSummaryInput) (*mcp.CallToolResult, ProjectSummaryOutput, error) {
	if input.ProjectID == "" {
		return toolError("project_id is required"), ProjectSummaryOutput{}, nil
	}

	summary, err := s.config.Memories.ProjectSummary(ctx, input.ProjectID)
	if err != nil {
		return toolError(fmt.Sprintf("Project summary failed: %v", err)), ProjectSummaryOutput{}, nil
	}

	tasks := make(map[string]int, len(summary.Tasks))
	for status, count := range summary.Tasks {
		tasks[string(status)] = count
	}

	output := ProjectSummaryOutput{
		ProjectID: summary.ProjectID,
		Contexts:  summary.Contexts,
		Fragments: summary.Fragments,
		Tasks:     tasks,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), ProjectSummaryOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

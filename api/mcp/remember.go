package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"
)

var (
	rememberToolName    = "remember"
	rememberDescription = "Store free-form text in the memoire semantic memory. The text is curated against what the project already knows: it is split into self-contained fragments, filed under thematic contexts, and stale fragments it supersedes are removed. Returns a summary of what changed."
)

// RememberInput represents the input arguments for the remember tool.
type RememberInput struct {
	ProjectID string `json:"project_id" jsonschema:"the id of the project to store the memory in"`
	Text      string `json:"text" jsonschema:"the free-form text to remember"`
}

// RememberOutput summarizes what the curated ingestion changed.
type RememberOutput struct {
	CreatedFragmentIDs []string `json:"created_fragment_ids"`
	CreatedContextIDs  []string `json:"created_context_ids"`
	DeletedIDs         []string `json:"deleted_ids"`
}

// handleRemember processes a remember request via MCP.
func (s *Server) handleRemember(ctx context.Context, _ *mcp.CallToolRequest, input RememberInput) (*mcp.CallToolResult, RememberOutput, error) {
	if input.ProjectID == "" {
		return toolError("project_id is required"), RememberOutput{}, nil
	}
	if input.Text == "" {
		return toolError("text is required"), RememberOutput{}, nil
	}

	result, err := s.config.Curator.Curate(ctx, input.Text, input.ProjectID)
	if err != nil {
		s.config.Logger.Error("MCP remember failed",
			zap.String("project_id", input.ProjectID),
			zap.Error(err),
		)

		return toolError(fmt.Sprintf("Remember failed: %v", err)), RememberOutput{}, nil
	}

	output := RememberOutput{
		CreatedFragmentIDs: result.CreatedFragmentIDs,
		CreatedContextIDs:  result.CreatedContextIDs,
		DeletedIDs:         result.DeletedIDs,
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), RememberOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

// toolError builds an error result without failing the MCP call itself.
func toolError(message string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		IsError: true,
		Content: []mcp.Content{
			&mcp.TextContent{Text: message},
		},
	}
}

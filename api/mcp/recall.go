package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

var (
	recallToolName    = "recall"
	recallDescription = "Ask a natural-language question against the memoire semantic memory. Searches the given projects (all projects when omitted), groups hits by project and context, and returns a synthesized answer. Set raw to true to get the grouped fragments instead of a synthesized answer."
)

// RecallInput represents the input arguments for the recall tool.
type RecallInput struct {
	Query      string   `json:"query" jsonschema:"the natural-language question to answer from memory"`
	ProjectIDs []string `json:"project_ids,omitempty" jsonschema:"project ids to search; all projects when omitted"`
	Raw        bool     `json:"raw,omitempty" jsonschema:"return grouped raw fragments instead of a synthesized answer"`
}

// RecallOutput carries either a synthesized answer or raw grouped results.
type RecallOutput struct {
	Query     string                  `json:"query"`
	Synthesis *intelligence.Synthesis `json:"synthesis,omitempty"`
	Grouped   memory.GroupedResults   `json:"grouped,omitempty"`
	Projects  int                     `json:"projects"`
}

// handleRecall processes a recall request via MCP.
func (s *Server) handleRecall(ctx context.Context, _ *mcp.CallToolRequest, input RecallInput) (*mcp.CallToolResult, RecallOutput, error) {
	if input.Query == "" {
		return toolError("query is required"), RecallOutput{}, nil
	}

	grouped, err := s.config.Memories.Recall(ctx, input.Query, input.ProjectIDs)
	if err != nil {
		if errors.Is(err, memory.ErrNoTarget) {
			return toolError("no projects to recall from"), RecallOutput{}, nil
		}

		s.config.Logger.Error("MCP recall failed", zap.Error(err))

		return toolError(fmt.Sprintf("Recall failed: %v", err)), RecallOutput{}, nil
	}

	output := RecallOutput{
		Query:    input.Query,
		Projects: len(grouped),
	}

	if input.Raw {
		output.Grouped = grouped
	} else {
		output.Synthesis = s.config.Synthesizer.Synthesize(ctx, input.Query, grouped)
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), RecallOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

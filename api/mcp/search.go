package mcp

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

var (
	searchToolName    = "search"
	searchDescription = "Run a plain similarity search over one project's fragments without synthesis. Returns the matching fragments with scores and their primary contexts. Use this when you want the underlying material rather than an answer."
)

// SearchInput represents the input arguments for the search tool.
type SearchInput struct {
	ProjectID string  `json:"project_id" jsonschema:"the id of the project to search"`
	Query     string  `json:"query" jsonschema:"the search query text"`
	Limit     int     `json:"limit,omitempty" jsonschema:"maximum number of results (default: 10)"`
	Threshold float32 `json:"threshold,omitempty" jsonschema:"minimum similarity score in [0,1]"`
}

// SearchHit is a single search result.
type SearchHit struct {
	FragmentID string  `json:"fragment_id"`
	Score      float32 `json:"score"`
	Content    string  `json:"content"`
	Context    string  `json:"context,omitempty"`
}

// SearchOutput represents the output of the search tool.
type SearchOutput struct {
	Query   string      `json:"query"`
	Results []SearchHit `json:"results"`
	Count   int         `json:"count"`
}

// handleSearch processes a search request via MCP.
func (s *Server) handleSearch(ctx context.Context, _ *mcp.CallToolRequest, input SearchInput) (*mcp.CallToolResult, SearchOutput, error) {
	if input.ProjectID == "" {
		return toolError("project_id is required"), SearchOutput{}, nil
	}
	if input.Query == "" {
		return toolError("query is required"), SearchOutput{}, nil
	}

	results, err := s.config.Memories.Search(ctx, input.ProjectID, input.Query, memory.SearchOptions{
		Threshold: input.Threshold,
		Limit:     input.Limit,
	})
	if err != nil {
		s.config.Logger.Error("MCP search failed",
			zap.String("project_id", input.ProjectID),
			zap.Error(err),
		)

		return toolError(fmt.Sprintf("Search failed: %v", err)), SearchOutput{}, nil
	}

	hits := make([]SearchHit, 0, len(results))
	for _, result := range results {
		hit := SearchHit{
			FragmentID: result.Fragment.ID,
			Score:      result.Score,
			Content:    result.Fragment.Content,
		}
		if result.PrimaryContext != nil {
			hit.Context = result.PrimaryContext.Name
		}
		hits = append(hits, hit)
	}

	output := SearchOutput{
		Query:   input.Query,
		Results: hits,
		Count:   len(hits),
	}

	jsonBytes, err := json.Marshal(output)
	if err != nil {
		return toolError(fmt.Sprintf("Failed to serialize results: %v", err)), SearchOutput{}, nil
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: string(jsonBytes)},
		},
	}, output, nil
}

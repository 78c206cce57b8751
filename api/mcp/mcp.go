// Package mcp provides an MCP (Model Context Protocol) server exposing the
// memoire remember/recall tools to calling agents.
package mcp

import (
	"errors"
	"net/http"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
	"github.com/fahd-noodleseed/memoire/pkg/utils"
)

type Config struct {
	// Memories is the memory service backing all tools.
	Memories *memory.Service

	// Curator runs curated ingestion for the remember tool.
	Curator *intelligence.Curator

	// Synthesizer composes answers for the recall tool.
	Synthesizer *intelligence.Synthesizer

	// Noop for empty MCP server
	Noop bool

	// Logger is the configured zap logger
	Logger *zap.Logger
}

type Server struct {
	config    Config
	mcpServer *mcp.Server
	handler   *mcp.StreamableHTTPHandler
}

// NewServer creates a new MCP server with the remember, recall, and search
// tools plus the project-summary and task-management tools.
func NewServer(c Config) (*Server, error) {
	s := &Server{
		config: c,
	}

	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "memoire",
			Version: utils.Version,
		},
		&mcp.ServerOptions{},
	)

	if c.Noop {
		// return the empty MCP server with no tools configured
		// if the noop flag is set (i.e., MCP capabilities are disabled)
		s.mcpServer = mcpServer

		return s, nil
	}

	if c.Memories == nil {
		return nil, errors.New("memory service is required")
	}
	if c.Curator == nil {
		return nil, errors.New("curator is required")
	}
	if c.Synthesizer == nil {
		return nil, errors.New("synthesizer is required")
	}
	if c.Logger == nil {
		return nil, errors.New("logger is required")
	}

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        rememberToolName,
		Description: rememberDescription,
	}, s.handleRemember)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        recallToolName,
		Description: recallDescription,
	}, s.handleRecall)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        searchToolName,
		Description: searchDescription,
	}, s.handleSearch)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        projectSummaryToolName,
		Description: projectSummaryDescription,
	}, s.handleProjectSummary)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        createTaskToolName,
		Description: createTaskDescription,
	}, s.handleCreateTask)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        getTaskToolName,
		Description: getTaskDescription,
	}, s.handleGetTask)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        listTasksToolName,
		Description: listTasksDescription,
	}, s.handleListTasks)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        updateTaskToolName,
		Description: updateTaskDescription,
	}, s.handleUpdateTask)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        deleteTaskToolName,
		Description: deleteTaskDescription,
	}, s.handleDeleteTask)

	s.mcpServer = mcpServer

	// Create a streamable HTTP net/http handler for stateless operations
	s.handler = mcp.NewStreamableHTTPHandler(
		func(_ *http.Request) *mcp.Server {
			return mcpServer
		},
		&mcp.StreamableHTTPOptions{
			Stateless: true,
		},
	)

	return s, nil
}

// Handler returns the HTTP handler for the MCP server.
func (s *Server) Handler() http.Handler {
	return s.handler
}

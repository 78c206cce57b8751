// Package api provides the HTTP server for managing and querying the
// memoire system.
package api

import (
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/fahd-noodleseed/memoire/pkg/intelligence"
	"github.com/fahd-noodleseed/memoire/pkg/memory"
)

// Config holds configuration for the API server.
type Config struct {
	// ListenAddr is the address the server listens on.
	ListenAddr string
}

// Server is the HTTP server exposing the memory and ingestion pipelines.
type Server struct {
	config      Config
	memories    *memory.Service
	curator     *intelligence.Curator
	synthesizer *intelligence.Synthesizer
	logger      *zap.Logger
	app         *fiber.App
}

// NewServer creates a new API server. The memory service and pipeline
// components are injected to allow sharing with the MCP layer. mcpHandler is
// optional; when non-nil it is mounted at /mcp.
func NewServer(config Config, memories *memory.Service, curator *intelligence.Curator, synthesizer *intelligence.Synthesizer, mcpHandler http.Handler, logger *zap.Logger) *Server {
	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config:      config,
		memories:    memories,
		curator:     curator,
		synthesizer: synthesizer,
		logger:      logger,
		app:         app,
	}

	app.Get("/ping", s.handlePing)

	v1 := app.Group("/v1")
	v1.Post("/remember", s.handleRemember)
	v1.Post("/recall", s.handleRecall)

	v1.Post("/projects", s.handleCreateProject)
	v1.Get("/projects", s.handleListProjects)
	v1.Get("/projects/:id", s.handleGetProject)
	v1.Delete("/projects/:id", s.handleDeleteProject)
	v1.Get("/projects/:id/contexts", s.handleListContexts)
	v1.Get("/projects/:id/anchors", s.handleListAnchors)
	v1.Get("/projects/:id/tasks", s.handleListTasks)
	v1.Get("/projects/:id/summary", s.handleProjectSummary)

	v1.Post("/tasks", s.handleCreateTask)
	v1.Get("/tasks/:id", s.handleGetTask)
	v1.Patch("/tasks/:id", s.handleUpdateTask)
	v1.Delete("/tasks/:id", s.handleDeleteTask)

	v1.Get("/fragments/:id", s.handleGetFragment)
	v1.Get("/fragments/:id/contexts", s.handleFragmentContexts)
	v1.Get("/contexts/:id", s.handleGetContext)
	v1.Get("/contexts/:id/fragments", s.handleContextFragments)

	v1.Get("/cache/stats", s.handleCacheStats)
	v1.Post("/cache/cleanup", s.handleCacheCleanup)

	if mcpHandler != nil {
		app.All("/mcp", adaptor.HTTPHandler(mcpHandler))
	}

	return s
}

// Run starts the API server on the configured address.
func (s *Server) Run() error {
	s.logger.Info("starting API server",
		zap.String("listen", s.config.ListenAddr),
	)

	return s.app.Listen(s.config.ListenAddr)
}

// Shutdown gracefully shuts down the API server.
func (s *Server) Shutdown() error {
	return s.app.Shutdown()
}

package api

import (
	"errors"
	"net/http"

	"github.com/gofiber/adaptor/v2"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/knowledge"
)

// Server is the API server for managing and querying the knowledge cache
type Server struct {
	config Config
	cache  *knowledge.Cache
	logger *zap.Logger
	app    *fiber.App
}

// NewServer creates a new API server.
// The cache is injected to allow sharing with other components
// (e.g., the MCP server when both run in the same process).
func NewServer(config Config, cache *knowledge.Cache, logger *zap.Logger) (*Server, error) {
	if cache == nil {
		return nil, errors.New("knowledge cache is required")
	}
	if logger == nil {
		return nil, errors.New("logger is required")
	}

	app := fiber.New(fiber.Config{
		DisableStartupMessage: true,
	})

	s := &Server{
		config: config,
		cache:  cache,
		logger: logger,
		app:    app,
	}

	app.Get("/ping", s.handlePing)
	app.Post("/ingest", s.handleIngest)
	app.Post("/retrieve", s.handleRetrieve)
	app.Get("/playbooks", s.handleListPlaybooks)
	app.Get("/playbooks/:slug", s.handleGetPlaybook)
	app.Get("/playbooks/:slug/versions", s.handleListVersions)
	app.Get("/stats", s.handleStats)

	return s, nil
}

// MountMCP mounts an MCP handler under the given path so the API and MCP
// surfaces share one listener. Call before Run.
func (s *Server) MountMCP(path string, handler http.Handler) {
	s.app.All(path, adaptor.HTTPHandler(handler))
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

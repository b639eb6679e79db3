package api

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/knowledge"
)

// ErrorResponse is the JSON error envelope for all failing endpoints.
type ErrorResponse struct {
	Error string `json:"error"`
}

// IngestRequest is the body for POST /ingest.
type IngestRequest struct {
	Entity   string `json:"entity"`
	Content  string `json:"content"`
	Source   string `json:"source,omitempty"`
	Category string `json:"category,omitempty"`
}

// IngestResponse reports the outcome of an ingest in the same
// string-in/string-out shape the tool facade uses.
type IngestResponse struct {
	Entity string `json:"entity"`
	Result string `json:"result"`
}

// RetrieveRequest is the body for POST /retrieve.
type RetrieveRequest struct {
	Entity string `json:"entity"`
	Query  string `json:"query,omitempty"`
	TopK   int    `json:"top_k,omitempty"`
}

// RetrieveResponse carries the assembled knowledge text for an entity.
type RetrieveResponse struct {
	Entity    string `json:"entity"`
	Knowledge string `json:"knowledge"`
}

// PlaybookResponse is a single playbook with its content.
type PlaybookResponse struct {
	Slug      string    `json:"slug"`
	Content   string    `json:"content"`
	UpdatedAt time.Time `json:"updated_at,omitempty"`
}

// handlePing returns a simple health check response.
func (s *Server) handlePing(c *fiber.Ctx) error {
	return c.JSON("pong")
}

// handleIngest curates and stores a document for an entity.
func (s *Server) handleIngest(c *fiber.Ctx) error {
	var req IngestRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}

	result := s.cache.Ingest(c.Context(), req.Entity, req.Content, req.Source, req.Category)

	return c.JSON(IngestResponse{
		Entity: req.Entity,
		Result: result,
	})
}

// handleRetrieve assembles cached knowledge for an entity.
func (s *Server) handleRetrieve(c *fiber.Ctx) error {
	var req RetrieveRequest
	if err := c.BodyParser(&req); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "invalid request body"})
	}
	if req.Entity == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "entity is required"})
	}

	topK := req.TopK
	if topK <= 0 {
		topK = knowledge.DefaultTopK
	}

	text := s.cache.Retrieve(c.Context(), req.Entity, req.Query, topK)

	return c.JSON(RetrieveResponse{
		Entity:    req.Entity,
		Knowledge: text,
	})
}

// handleListPlaybooks returns all playbooks (metadata only).
func (s *Server) handleListPlaybooks(c *fiber.Ctx) error {
	infos, err := s.cache.Playbooks().List()
	if err != nil {
		s.logger.Error("failed to list playbooks", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list playbooks"})
	}

	return c.JSON(map[string]any{
		"count":     len(infos),
		"playbooks": infos,
	})
}

// handleGetPlaybook returns a single playbook by slug. An optional ?version=
// query parameter selects an archived version instead of the live file.
func (s *Server) handleGetPlaybook(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "slug parameter required"})
	}

	version := c.Query("version")
	content, err := s.cache.Playbooks().Show(slug, version)
	if err != nil {
		return c.Status(fiber.StatusNotFound).JSON(ErrorResponse{Error: "playbook not found"})
	}

	return c.JSON(PlaybookResponse{
		Slug:    slug,
		Content: content,
	})
}

// handleListVersions returns the archived version names for a playbook,
// newest first.
func (s *Server) handleListVersions(c *fiber.Ctx) error {
	slug := c.Params("slug")
	if slug == "" {
		return c.Status(fiber.StatusBadRequest).JSON(ErrorResponse{Error: "slug parameter required"})
	}

	versions, err := s.cache.Playbooks().Versions(slug)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list versions"})
	}

	return c.JSON(map[string]any{
		"slug":     slug,
		"count":    len(versions),
		"versions": versions,
	})
}

// handleStats returns cache-wide statistics: tracked entities, playbook
// counts, and a telemetry summary over the requested window (seconds,
// default 24h).
func (s *Server) handleStats(c *fiber.Ctx) error {
	entities, err := s.cache.Corpus().Entities()
	if err != nil {
		s.logger.Error("failed to list corpus entities", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list entities"})
	}

	infos, err := s.cache.Playbooks().List()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(ErrorResponse{Error: "failed to list playbooks"})
	}

	snapshots := 0
	for _, slug := range entities {
		n, err := s.cache.Corpus().Count(slug)
		if err != nil {
			continue
		}
		snapshots += n
	}

	stats := map[string]any{
		"entity_count":   len(entities),
		"playbook_count": len(infos),
		"snapshot_count": snapshots,
	}

	if log := s.cache.Telemetry(); log != nil {
		window := time.Duration(c.QueryInt("window", 86400)) * time.Second
		summary, err := log.Summarize(window)
		if err != nil {
			s.logger.Warn("failed to summarize telemetry", zap.Error(err))
		} else {
			stats["telemetry"] = summary
		}
	}

	return c.JSON(stats)
}

package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"go.uber.org/zap"

	"github.com/quarryhq/dossier/pkg/knowledge"
)

var (
	retrieveToolName    = "knowledge_retrieve"
	retrieveDescription = "Retrieve cached knowledge about an entity before researching it. Returns the curated playbook plus the most relevant raw evidence chunks, or a sentinel when nothing is cached."

	ingestToolName    = "knowledge_ingest"
	ingestDescription = "Store a researched document about an entity. The text is curated into a compact entry, indexed for semantic search, and folded into the entity's playbook."
)

// RetrieveInput represents the input arguments for the retrieve tool.
type RetrieveInput struct {
	Entity string `json:"entity" jsonschema:"the entity name to look up"`
	Query  string `json:"query,omitempty" jsonschema:"optional query to focus the raw evidence search; defaults to the playbook itself"`
	TopK   int    `json:"top_k,omitempty" jsonschema:"number of evidence chunks to return (default: 5)"`
}

// RetrieveOutput represents the output of the retrieve tool.
type RetrieveOutput struct {
	Entity    string `json:"entity"`
	Knowledge string `json:"knowledge"`
}

// IngestInput represents the input arguments for the ingest tool.
type IngestInput struct {
	Entity   string `json:"entity" jsonschema:"the entity name the document is about"`
	Content  string `json:"content" jsonschema:"the document text to store"`
	Source   string `json:"source,omitempty" jsonschema:"where the document came from (e.g. a URL or tool name)"`
	Category string `json:"category,omitempty" jsonschema:"document category (e.g. news, filings, website)"`
}

// IngestOutput represents the output of the ingest tool.
type IngestOutput struct {
	Entity string `json:"entity"`
	Result string `json:"result"`
}

// handleRetrieve processes a knowledge_retrieve request.
func (s *Server) handleRetrieve(ctx context.Context, req *mcp.CallToolRequest, input RetrieveInput) (*mcp.CallToolResult, RetrieveOutput, error) {
	logger := s.config.Logger

	topK := input.TopK
	if topK <= 0 {
		topK = knowledge.DefaultTopK
	}

	logger.Debug("MCP retrieve request",
		zap.String("entity", input.Entity),
		zap.Int("topK", topK),
	)

	text := s.config.Cache.Retrieve(ctx, input.Entity, input.Query, topK)

	output := RetrieveOutput{
		Entity:    input.Entity,
		Knowledge: text,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: text},
		},
	}, output, nil
}

// handleIngest processes a knowledge_ingest request.
func (s *Server) handleIngest(ctx context.Context, req *mcp.CallToolRequest, input IngestInput) (*mcp.CallToolResult, IngestOutput, error) {
	logger := s.config.Logger

	logger.Debug("MCP ingest request",
		zap.String("entity", input.Entity),
		zap.String("source", input.Source),
		zap.String("category", input.Category),
		zap.Int("contentLen", len(input.Content)),
	)

	result := s.config.Cache.Ingest(ctx, input.Entity, input.Content, input.Source, input.Category)

	output := IngestOutput{
		Entity: input.Entity,
		Result: result,
	}

	return &mcp.CallToolResult{
		Content: []mcp.Content{
			&mcp.TextContent{Text: result},
		},
	}, output, nil
}

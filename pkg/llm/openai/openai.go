// Package openai implements pkg/llm's Generator client for OpenAI-compatible
// chat completion APIs.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"os"
	"time"

	"github.com/quarryhq/dossier/pkg/llm"
)

const (
	// DefaultModel is the default chat model.
	DefaultModel = "gpt-4o-mini"

	// DefaultBaseURL is the default OpenAI API URL.
	DefaultBaseURL = "https://api.openai.com/v1"

	// APIKeyEnvVar is consulted when no key is configured explicitly.
	APIKeyEnvVar = "OPENAI_API_KEY"
)

// Generator wraps an OpenAI-compatible chat completions endpoint.
type Generator struct {
	baseURL     string
	apiKey      string
	model       string
	temperature float32
	httpClient  *http.Client
}

// Option configures the generator.
type Option func(*Generator)

// WithBaseURL points the generator at a non-default API base URL. Any
// OpenAI-compatible server works.
func WithBaseURL(url string) Option {
	return func(g *Generator) {
		if url != "" {
			g.baseURL = url
		}
	}
}

// WithAPIKey sets the API key explicitly instead of reading the environment.
func WithAPIKey(key string) Option {
	return func(g *Generator) {
		if key != "" {
			g.apiKey = key
		}
	}
}

// WithModel overrides the default chat model.
func WithModel(model string) Option {
	return func(g *Generator) {
		if model != "" {
			g.model = model
		}
	}
}

// WithTemperature sets the sampling temperature.
func WithTemperature(t float32) Option {
	return func(g *Generator) {
		g.temperature = t
	}
}

// chatRequest is the request body for the chat completions endpoint.
type chatRequest struct {
	Model       string        `json:"model"`
	Messages    []llm.Message `json:"messages"`
	Temperature float32       `json:"temperature,omitempty"`
}

// chatResponse is the response from the chat completions endpoint.
type chatResponse struct {
	Choices []struct {
		Message llm.Message `json:"message"`
	} `json:"choices"`
}

// NewGenerator creates a new generator using an OpenAI-compatible chat API.
func NewGenerator(opts ...Option) (*Generator, error) {
	g := &Generator{
		baseURL:     DefaultBaseURL,
		apiKey:      os.Getenv(APIKeyEnvVar),
		model:       DefaultModel,
		temperature: 0.3,
		httpClient: &http.Client{
			Timeout: 300 * time.Second,
		},
	}

	for _, opt := range opts {
		opt(g)
	}

	if g.apiKey == "" {
		return nil, fmt.Errorf("openai API key is required (set %s)", APIKeyEnvVar)
	}

	return g, nil
}

// Generate runs the conversation through the model and returns the reply text.
func (g *Generator) Generate(ctx context.Context, messages []llm.Message) (string, error) {
	reqBody := chatRequest{
		Model:       g.model,
		Messages:    messages,
		Temperature: g.temperature,
	}

	jsonBody, err := json.Marshal(reqBody)
	if err != nil {
		return "", fmt.Errorf("marshaling request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, "POST", g.baseURL+"/chat/completions", bytes.NewReader(jsonBody))
	if err != nil {
		return "", fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Authorization", "Bearer "+g.apiKey)

	resp, err := g.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("sending request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return "", fmt.Errorf("openai returned status %d: %s", resp.StatusCode, string(body))
	}

	var chatResp chatResponse
	if err := json.NewDecoder(resp.Body).Decode(&chatResp); err != nil {
		return "", fmt.Errorf("decoding response: %w", err)
	}

	if len(chatResp.Choices) == 0 {
		return "", fmt.Errorf("no choices returned")
	}

	return chatResp.Choices[0].Message.Content, nil
}

// Close releases resources held by the generator.
func (g *Generator) Close() error {
	// HTTP client doesn't require explicit cleanup
	return nil
}

// Ensure Generator implements llm.Generator
var _ llm.Generator = (*Generator)(nil)

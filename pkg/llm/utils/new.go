// Package llmutils constructs chat generators from provider configuration.
package llmutils

import (
	"fmt"

	"github.com/quarryhq/dossier/pkg/llm"
	"github.com/quarryhq/dossier/pkg/llm/ollama"
	"github.com/quarryhq/dossier/pkg/llm/openai"
)

type NewGeneratorOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
}

func NewGenerator(o *NewGeneratorOpts) (llm.Generator, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewGenerator(ollama.GeneratorConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "openai":
		return openai.NewGenerator(
			openai.WithBaseURL(o.TargetURL),
			openai.WithModel(o.Model),
			openai.WithAPIKey(o.APIKey),
		)
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", o.ProviderType)
	}
}

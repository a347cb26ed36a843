// Package llmutils is the language-model client utility package
package llmutils

import (
	"fmt"

	"github.com/canopyhq/rolechat/pkg/llm"
	"github.com/canopyhq/rolechat/pkg/llm/ollama"
	"github.com/canopyhq/rolechat/pkg/llm/openai"
)

type NewClientOpts struct {
	ProviderType string
	TargetURL    string
	Model        string
	APIKey       string
}

func NewClient(o *NewClientOpts) (llm.Client, error) {
	switch o.ProviderType {
	case "ollama":
		return ollama.NewClient(ollama.ClientConfig{
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	case "openai":
		return openai.NewClient(openai.ClientConfig{
			APIKey:  o.APIKey,
			BaseURL: o.TargetURL,
			Model:   o.Model,
		})
	default:
		return nil, fmt.Errorf("unsupported llm provider: %s", o.ProviderType)
	}
}

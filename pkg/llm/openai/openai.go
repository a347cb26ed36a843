// Package openai implements pkg/llm's Client on the OpenAI chat
// completions API (or any compatible endpoint via base URL override).
package openai

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	goopenai "github.com/sashabaranov/go-openai"

	"github.com/canopyhq/rolechat/pkg/llm"
)

// DefaultModel is the default chat model.
const DefaultModel = "gpt-4o-mini"

// Client wraps the OpenAI chat completions API.
type Client struct {
	client      *goopenai.Client
	model       string
	temperature float32
}

// ClientConfig holds configuration for the OpenAI client.
type ClientConfig struct {
	// APIKey authenticates against the API. Required.
	APIKey string

	// BaseURL overrides the API endpoint for OpenAI-compatible servers.
	BaseURL string

	// Model defaults to DefaultModel if empty.
	Model string

	// Temperature controls sampling randomness. Grounded answering wants
	// it low; defaults to 0.2.
	Temperature float32
}

// NewClient creates a chat completion client.
func NewClient(cfg ClientConfig) (*Client, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("%w: openai api key is required", llm.ErrGeneration)
	}

	clientCfg := goopenai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}

	model := cfg.Model
	if model == "" {
		model = DefaultModel
	}

	temperature := cfg.Temperature
	if temperature <= 0 {
		temperature = 0.2
	}

	return &Client{
		client:      goopenai.NewClientWithConfig(clientCfg),
		model:       model,
		temperature: temperature,
	}, nil
}

// Complete sends the prompt as a single user message.
func (c *Client) Complete(ctx context.Context, prompt string) (string, error) {
	resp, err := c.client.CreateChatCompletion(ctx, goopenai.ChatCompletionRequest{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []goopenai.ChatCompletionMessage{
			{Role: goopenai.ChatMessageRoleUser, Content: prompt},
		},
	})
	if err != nil {
		wrapped := fmt.Errorf("%w: %v", llm.ErrGeneration, err)
		var apiErr *goopenai.APIError
		if errors.As(err, &apiErr) && clientError(apiErr.HTTPStatusCode) {
			return "", llm.Permanent(wrapped)
		}
		return "", wrapped
	}

	if len(resp.Choices) == 0 || resp.Choices[0].Message.Content == "" {
		return "", fmt.Errorf("%w: no completion returned", llm.ErrGeneration)
	}

	return resp.Choices[0].Message.Content, nil
}

// clientError reports whether status is a 4xx that retrying cannot fix.
// Request timeouts and rate limits stay retryable.
func clientError(status int) bool {
	return status >= 400 && status < 500 &&
		status != http.StatusRequestTimeout &&
		status != http.StatusTooManyRequests
}

// Close releases resources held by the client.
func (c *Client) Close() error {
	return nil
}

var _ llm.Client = (*Client)(nil)

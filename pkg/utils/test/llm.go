package testutils

import (
	"context"
	"fmt"
)

// MockLLM is a test language-model client
type MockLLM struct {
	// Response is returned from every Complete call.
	Response string

	// Fail forces Complete to error.
	Fail bool

	// Prompts records every prompt received.
	Prompts []string
}

func NewMockLLM(response string) *MockLLM {
	return &MockLLM{Response: response}
}

func (m *MockLLM) Complete(_ context.Context, prompt string) (string, error) {
	m.Prompts = append(m.Prompts, prompt)
	if m.Fail {
		return "", fmt.Errorf("mock llm failure")
	}
	return m.Response, nil
}

func (m *MockLLM) Close() error {
	return nil
}

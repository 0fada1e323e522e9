package llm

import (
	"context"
)

// MockClient is a configurable mock for testing chat flows.
// Set CompleteFunc to control behavior in tests.
type MockClient struct {
	// CompleteFunc is called when Complete is invoked.
	// If nil, returns empty string and nil error.
	CompleteFunc func(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// Model is returned by GetModel. Defaults to "mock-model".
	Model string

	// Call tracking for verification.
	CompleteCalls   int
	SeenPrompts     []string
	SeenSystemMsgs  []string
	SeenTemperature []float64
}

// NewMockClient creates a new mock with sensible defaults.
func NewMockClient() *MockClient {
	return &MockClient{Model: "mock-model"}
}

// Complete implements Client.
func (m *MockClient) Complete(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error) {
	m.CompleteCalls++
	m.SeenPrompts = append(m.SeenPrompts, prompt)
	m.SeenSystemMsgs = append(m.SeenSystemMsgs, systemMessage)
	m.SeenTemperature = append(m.SeenTemperature, temperature)
	if m.CompleteFunc != nil {
		return m.CompleteFunc(ctx, prompt, systemMessage, temperature)
	}
	return "", nil
}

// GetModel implements Client.
func (m *MockClient) GetModel() string {
	if m.Model == "" {
		return "mock-model"
	}
	return m.Model
}

// Ensure MockClient implements Client at compile time.
var _ Client = (*MockClient)(nil)

// Package llm provides clients for OpenAI-compatible and Anthropic chat
// endpoints.
package llm

import (
	"context"
)

// Client defines the interface for chat completion operations.
// Use this interface for dependency injection to enable mocking in tests.
type Client interface {
	// Complete generates a chat completion for the prompt.
	Complete(ctx context.Context, prompt string, systemMessage string, temperature float64) (string, error)

	// GetModel returns the configured model name.
	GetModel() string
}

package llm

import (
	"fmt"

	"go.uber.org/zap"
)

// Provider names accepted by NewFromProvider.
const (
	ProviderOpenAI    = "openai"
	ProviderAnthropic = "anthropic"
)

// NewFromProvider creates a chat client for the configured provider.
func NewFromProvider(provider string, cfg *Config, logger *zap.Logger) (Client, error) {
	switch provider {
	case ProviderOpenAI, "":
		return NewOpenAIClient(cfg, logger)
	case ProviderAnthropic:
		return NewAnthropicClient(cfg, logger)
	default:
		return nil, fmt.Errorf("unknown llm provider %q", provider)
	}
}

package llm

import (
	"context"
	"fmt"

	"github.com/Conversly/whatsapp-assistant/internal/config"
)

// NewBackend selects the provider strategy named in the config.
func NewBackend(ctx context.Context, cfg config.LLMConfig) (Backend, error) {
	switch cfg.Provider {
	case config.ProviderGemini:
		return NewGeminiBackend(ctx, cfg.APIKeys)
	case config.ProviderGroq:
		return NewOpenAIBackend(cfg.Provider, baseURLOr(cfg.BaseURL, GroqBaseURL), cfg.APIKeys)
	case config.ProviderHuggingFace:
		return NewOpenAIBackend(cfg.Provider, baseURLOr(cfg.BaseURL, HuggingFaceBaseURL), cfg.APIKeys)
	case config.ProviderOpenAI:
		return NewOpenAIBackend(cfg.Provider, cfg.BaseURL, cfg.APIKeys)
	case config.ProviderEcho:
		return NewEchoBackend(), nil
	default:
		return nil, fmt.Errorf("unknown llm provider %q", cfg.Provider)
	}
}

func baseURLOr(configured, fallback string) string {
	if configured != "" {
		return configured
	}
	return fallback
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package llm implements the generation collaborator for the section
// generator on top of the Claude, OpenAI and Gemini APIs. Each provider
// renders the same section prompt and owns its own retry policy.
package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/pdiddy/article-engine/internal/section"
	"github.com/pdiddy/article-engine/pkg/types"
)

const defaultMaxTokens = 3000

// DefaultModels maps each provider to the model used when none is configured.
var DefaultModels = map[types.Provider]string{
	types.ProviderAnthropic: "claude-sonnet-4-5-20250929",
	types.ProviderOpenAI:    "gpt-4o-mini",
	types.ProviderGemini:    "gemini-1.5-flash",
}

// New returns the completer for cfg.Provider (anthropic when empty).
// Completers holding a client connection implement io.Closer.
func New(ctx context.Context, cfg types.AIConfig) (section.Completer, error) {
	provider := cfg.Provider
	if provider == "" {
		provider = types.ProviderAnthropic
	}
	model := cfg.Model
	if model == "" {
		model = DefaultModels[provider]
	}

	switch provider {
	case types.ProviderAnthropic:
		if cfg.APIKey == "" {
			return nil, errors.New("anthropic api key missing; set anthropic-api-key")
		}
		return &Claude{
			APIKey:     cfg.APIKey,
			Model:      model,
			MaxTokens:  cfg.MaxTokens,
			MaxRetries: cfg.MaxRetries,
			Client:     http.DefaultClient,
		}, nil
	case types.ProviderOpenAI:
		return NewOpenAI(cfg.APIKey, model, cfg.BaseURL, cfg.MaxTokens, cfg.MaxRetries)
	case types.ProviderGemini:
		return NewGemini(ctx, cfg.APIKey, model, cfg.MaxTokens)
	default:
		return nil, fmt.Errorf("unknown provider %q (want anthropic, openai or gemini)", cfg.Provider)
	}
}

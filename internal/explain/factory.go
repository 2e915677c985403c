package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

// NewProvider creates an explanation provider from configuration.
// An empty provider name returns (nil, nil): explanation generation is
// disabled and callers fall back to the local template. That is a valid,
// expected state, not an error.
func NewProvider(ctx context.Context, cfg model.ExplainConfig, httpCfg model.HTTPConfig) (Provider, error) {
	switch strings.ToLower(cfg.Provider) {
	case "gemini", "google":
		return NewGeminiProvider(ctx, cfg)

	case "openai":
		return NewOpenAIProvider(cfg)

	case "ollama":
		return NewOllamaProvider(cfg, httpCfg)

	case "":
		return nil, nil

	default:
		return nil, fmt.Errorf("unknown explain provider: %s (supported: gemini, openai, ollama)", cfg.Provider)
	}
}

package explain

import (
	"context"
	"fmt"
	"strings"
	"time"

	genai "google.golang.org/genai"

	"github.com/claimlens/claimlens/internal/model"
)

// GeminiProvider implements Provider via Google's Gemini API
type GeminiProvider struct {
	client *genai.Client
	config model.ExplainConfig
}

// NewGeminiProvider creates a new Gemini provider
func NewGeminiProvider(ctx context.Context, cfg model.ExplainConfig) (*GeminiProvider, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("Gemini API key is required")
	}

	client, err := genai.NewClient(ctx, &genai.ClientConfig{
		APIKey:  cfg.APIKey,
		Backend: genai.BackendGeminiAPI,
	})
	if err != nil {
		return nil, fmt.Errorf("create Gemini client: %w", err)
	}

	return &GeminiProvider{client: client, config: cfg}, nil
}

// Name returns the provider name
func (p *GeminiProvider) Name() string {
	return "gemini"
}

// IsAvailable checks if the provider is properly configured
func (p *GeminiProvider) IsAvailable(ctx context.Context) bool {
	return p.client != nil
}

// Generate produces text with temperature 0 so repeated requests over the
// same evidence stay stable
func (p *GeminiProvider) Generate(ctx context.Context, prompt string) (string, error) {
	modelName := p.config.Model
	if modelName == "" {
		modelName = "gemini-2.0-flash"
	}

	maxTokens := p.config.MaxTokens
	if maxTokens == 0 {
		maxTokens = 300
	}

	timeout := time.Duration(p.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := p.client.Models.GenerateContent(ctxWithTimeout, modelName,
		[]*genai.Content{{Parts: []*genai.Part{{Text: prompt}}}},
		&genai.GenerateContentConfig{
			Temperature:     genai.Ptr[float32](0),
			CandidateCount:  1,
			MaxOutputTokens: int32(maxTokens),
		},
	)
	if err != nil {
		return "", fmt.Errorf("Gemini API error: %w", err)
	}

	if len(resp.Candidates) == 0 || resp.Candidates[0].Content == nil || len(resp.Candidates[0].Content.Parts) == 0 {
		return "", fmt.Errorf("empty response from Gemini")
	}

	return strings.TrimSpace(resp.Candidates[0].Content.Parts[0].Text), nil
}

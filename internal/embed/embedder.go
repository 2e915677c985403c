package embed

import (
	"context"
	"fmt"
	"sort"
	"time"

	"github.com/sashabaranov/go-openai"

	"github.com/claimlens/claimlens/internal/model"
)

// Embedder encodes texts into fixed-dimensionality sentence vectors
type Embedder interface {
	// Encode returns one vector per input text, in input order
	Encode(ctx context.Context, texts []string) ([][]float32, error)
}

// OpenAIEmbedder implements Embedder via the OpenAI embeddings API
type OpenAIEmbedder struct {
	client *openai.Client
	model  openai.EmbeddingModel
	config model.EmbeddingConfig
}

// NewOpenAIEmbedder creates a new OpenAI-backed embedder
func NewOpenAIEmbedder(cfg model.EmbeddingConfig) (*OpenAIEmbedder, error) {
	if cfg.APIKey == "" {
		return nil, fmt.Errorf("OpenAI API key is required for embeddings")
	}

	clientConfig := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientConfig.BaseURL = cfg.BaseURL
	}

	embModel := openai.SmallEmbedding3
	if cfg.Model != "" {
		embModel = openai.EmbeddingModel(cfg.Model)
	}

	return &OpenAIEmbedder{
		client: openai.NewClientWithConfig(clientConfig),
		model:  embModel,
		config: cfg,
	}, nil
}

// Encode embeds all texts in a single API call
func (e *OpenAIEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	if len(texts) == 0 {
		return nil, nil
	}

	timeout := time.Duration(e.config.Timeout) * time.Second
	if timeout == 0 {
		timeout = 30 * time.Second
	}
	ctxWithTimeout, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	resp, err := e.client.CreateEmbeddings(ctxWithTimeout, openai.EmbeddingRequest{
		Input: texts,
		Model: e.model,
	})
	if err != nil {
		return nil, fmt.Errorf("create embeddings: %w", err)
	}

	if len(resp.Data) != len(texts) {
		return nil, fmt.Errorf("embedding count mismatch: sent %d texts, got %d vectors", len(texts), len(resp.Data))
	}

	// The API documents response order matching input order, but Index is
	// authoritative when present.
	data := make([]openai.Embedding, len(resp.Data))
	copy(data, resp.Data)
	sort.SliceStable(data, func(i, j int) bool { return data[i].Index < data[j].Index })

	vectors := make([][]float32, len(data))
	for i, d := range data {
		vectors[i] = d.Embedding
	}

	return vectors, nil
}

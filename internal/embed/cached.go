package embed

import (
	"context"
	"encoding/json"
	"time"

	"github.com/claimlens/claimlens/internal/cache"
)

// CachedEmbedder wraps an Embedder with a cache keyed by model and text.
// Snippet texts repeat across rounds and across claims, so this saves both
// latency and API spend. The core pipeline itself never caches; this lives
// entirely on the embedder side of the boundary.
type CachedEmbedder struct {
	inner Embedder
	cache cache.Cache
	model string
	ttl   time.Duration
}

// NewCachedEmbedder creates a caching wrapper around inner
func NewCachedEmbedder(inner Embedder, c cache.Cache, modelName string, ttl time.Duration) *CachedEmbedder {
	return &CachedEmbedder{inner: inner, cache: c, model: modelName, ttl: ttl}
}

// Encode returns cached vectors where available and fetches the rest in one
// call to the underlying embedder
func (e *CachedEmbedder) Encode(ctx context.Context, texts []string) ([][]float32, error) {
	vectors := make([][]float32, len(texts))

	var missing []string
	var missingIdx []int
	for i, text := range texts {
		if data, found := e.cache.Get(e.key(text)); found {
			var vec []float32
			if err := json.Unmarshal(data, &vec); err == nil {
				vectors[i] = vec
				continue
			}
		}
		missing = append(missing, text)
		missingIdx = append(missingIdx, i)
	}

	if len(missing) == 0 {
		return vectors, nil
	}

	fetched, err := e.inner.Encode(ctx, missing)
	if err != nil {
		return nil, err
	}

	for j, vec := range fetched {
		vectors[missingIdx[j]] = vec
		if data, err := json.Marshal(vec); err == nil {
			_ = e.cache.Set(e.key(missing[j]), data, e.ttl)
		}
	}

	return vectors, nil
}

func (e *CachedEmbedder) key(text string) string {
	return cache.Key("embed", e.model, text)
}

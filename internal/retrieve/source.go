package retrieve

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/claimlens/claimlens/internal/cache"
	"github.com/claimlens/claimlens/internal/model"
)

// Source retrieves evidence snippets for a query. Implementations
// deduplicate snippet text case-insensitively across all rounds and truncate
// the result to topK.
type Source interface {
	Name() string
	Retrieve(ctx context.Context, query string, rounds, topK int) ([]model.Snippet, error)
}

// NewSource creates an evidence source from configuration. With a SerpAPI
// key the SerpAPI client is used; otherwise retrieval falls back to scraping
// DuckDuckGo's HTML endpoint, which needs no credentials.
func NewSource(cfg model.SearchConfig, httpCfg model.HTTPConfig) (Source, error) {
	provider := strings.ToLower(cfg.Provider)
	if provider == "" {
		if cfg.APIKey != "" {
			provider = "serpapi"
		} else {
			provider = "duckduckgo"
		}
	}

	switch provider {
	case "serpapi":
		return NewSerpAPISource(cfg, httpCfg)
	case "duckduckgo", "ddg":
		return NewDuckDuckGoSource(cfg, httpCfg)
	default:
		return nil, fmt.Errorf("unknown search provider: %s (supported: serpapi, duckduckgo)", cfg.Provider)
	}
}

// dedupe tracks snippet texts case-insensitively across retrieval rounds
type dedupe struct {
	seen map[string]bool
}

func newDedupe() *dedupe {
	return &dedupe{seen: make(map[string]bool)}
}

// add reports whether text was new, recording it if so
func (d *dedupe) add(text string) bool {
	key := strings.ToLower(text)
	if d.seen[key] {
		return false
	}
	d.seen[key] = true
	return true
}

// truncate caps the snippet list at topK
func truncate(snippets []model.Snippet, topK int) []model.Snippet {
	if topK > 0 && len(snippets) > topK {
		return snippets[:topK]
	}
	return snippets
}

// CachedSource wraps a Source with a response cache keyed by source name,
// query, and retrieval shape
type CachedSource struct {
	inner Source
	cache cache.Cache
	cfg   model.CacheConfig
}

// NewCachedSource creates a caching wrapper around inner
func NewCachedSource(inner Source, c cache.Cache, cfg model.CacheConfig) *CachedSource {
	return &CachedSource{inner: inner, cache: c, cfg: cfg}
}

// Name returns the wrapped source's name
func (s *CachedSource) Name() string {
	return s.inner.Name()
}

// Retrieve serves from cache when possible
func (s *CachedSource) Retrieve(ctx context.Context, query string, rounds, topK int) ([]model.Snippet, error) {
	key := cache.Key("search", s.inner.Name(), query, strconv.Itoa(rounds), strconv.Itoa(topK))

	if data, found := s.cache.Get(key); found {
		var snippets []model.Snippet
		if err := json.Unmarshal(data, &snippets); err == nil {
			return snippets, nil
		}
	}

	snippets, err := s.inner.Retrieve(ctx, query, rounds, topK)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(snippets); err == nil {
		_ = s.cache.Set(key, data, s.cfg.TTL)
	}

	return snippets, nil
}

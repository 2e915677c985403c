package retrieve

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/claimlens/claimlens/internal/cache"
	"github.com/claimlens/claimlens/internal/model"
)

type stubSource struct {
	snippets []model.Snippet
	err      error
	calls    int
}

func (s *stubSource) Name() string { return "stub" }

func (s *stubSource) Retrieve(_ context.Context, _ string, _, _ int) ([]model.Snippet, error) {
	s.calls++
	return s.snippets, s.err
}

func TestCachedSource_ServesSecondCallFromCache(t *testing.T) {
	stub := &stubSource{snippets: []model.Snippet{{Text: "cached evidence", SourceURL: "https://e/1"}}}
	src := NewCachedSource(stub, cache.NewMemoryCache(time.Minute, time.Minute), model.CacheConfig{TTL: time.Minute})

	first, err := src.Retrieve(context.Background(), "query", 2, 8)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}
	second, err := src.Retrieve(context.Background(), "query", 2, 8)
	if err != nil {
		t.Fatalf("Retrieve failed: %v", err)
	}

	if stub.calls != 1 {
		t.Errorf("expected 1 upstream call, got %d", stub.calls)
	}
	if len(first) != 1 || len(second) != 1 || second[0].Text != "cached evidence" {
		t.Errorf("cache returned different results: %+v vs %+v", first, second)
	}
}

func TestCachedSource_DistinctShapesMiss(t *testing.T) {
	stub := &stubSource{snippets: []model.Snippet{{Text: "t", SourceURL: "#"}}}
	src := NewCachedSource(stub, cache.NewMemoryCache(time.Minute, time.Minute), model.CacheConfig{TTL: time.Minute})

	_, _ = src.Retrieve(context.Background(), "query", 1, 8)
	_, _ = src.Retrieve(context.Background(), "query", 2, 8)

	if stub.calls != 2 {
		t.Errorf("different rounds must not share a cache entry, got %d calls", stub.calls)
	}
}

func TestCachedSource_ErrorsNotCached(t *testing.T) {
	stub := &stubSource{err: errors.New("upstream down")}
	src := NewCachedSource(stub, cache.NewMemoryCache(time.Minute, time.Minute), model.CacheConfig{TTL: time.Minute})

	if _, err := src.Retrieve(context.Background(), "q", 1, 8); err == nil {
		t.Fatal("expected error")
	}
	if _, err := src.Retrieve(context.Background(), "q", 1, 8); err == nil {
		t.Fatal("expected error on retry")
	}
	if stub.calls != 2 {
		t.Errorf("errors must not be cached, got %d calls", stub.calls)
	}
}

func TestNewSource_ProviderSelection(t *testing.T) {
	httpCfg := model.HTTPConfig{Timeout: time.Second}

	src, err := NewSource(model.SearchConfig{APIKey: "k"}, httpCfg)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	if src.Name() != "serpapi" {
		t.Errorf("with API key expected serpapi, got %s", src.Name())
	}

	src, err = NewSource(model.SearchConfig{}, httpCfg)
	if err != nil {
		t.Fatalf("NewSource failed: %v", err)
	}
	if src.Name() != "duckduckgo" {
		t.Errorf("without API key expected duckduckgo fallback, got %s", src.Name())
	}

	if _, err := NewSource(model.SearchConfig{Provider: "bing"}, httpCfg); err == nil {
		t.Error("expected error for unknown provider")
	}
}

func TestDedupe(t *testing.T) {
	d := newDedupe()
	if !d.add("Some Text") {
		t.Error("first add should report new")
	}
	if d.add("some text") {
		t.Error("case-insensitive duplicate should be rejected")
	}
}

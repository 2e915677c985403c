package nli

import (
	"context"
	"encoding/json"
	"io"
	"math"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/claimlens/claimlens/internal/model"
)

func newTestScorer(t *testing.T, serverURL string) *HFScorer {
	t.Helper()
	scorer, err := NewHFScorer(model.NLIConfig{
		BaseURL: serverURL,
		Model:   "facebook/bart-large-mnli",
		APIKey:  "test-token",
		Timeout: 5,
	})
	if err != nil {
		t.Fatalf("NewHFScorer failed: %v", err)
	}
	return scorer
}

func TestHFScorer_Score(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/models/facebook/bart-large-mnli" {
			t.Errorf("unexpected path: %s", r.URL.Path)
		}
		if got := r.Header.Get("Authorization"); got != "Bearer test-token" {
			t.Errorf("unexpected Authorization header: %s", got)
		}

		body, _ := io.ReadAll(r.Body)
		var req hfRequest
		if err := json.Unmarshal(body, &req); err != nil {
			t.Fatalf("bad request body: %v", err)
		}
		if req.Inputs != "the evidence text </s> the claim" {
			t.Errorf("premise/hypothesis order or separator wrong: %q", req.Inputs)
		}

		_, _ = w.Write([]byte(`[[{"label":"ENTAILMENT","score":0.91},{"label":"NEUTRAL","score":0.06},{"label":"CONTRADICTION","score":0.03}]]`))
	}))
	defer server.Close()

	scorer := newTestScorer(t, server.URL)

	scores, err := scorer.Score(context.Background(), "the evidence text", "the claim")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}

	if math.Abs(scores.Entailment-0.91) > 1e-9 {
		t.Errorf("entailment = %f, want 0.91", scores.Entailment)
	}
	if math.Abs(scores.Contradiction-0.03) > 1e-9 {
		t.Errorf("contradiction = %f, want 0.03", scores.Contradiction)
	}
	if math.Abs(scores.Neutral-0.06) > 1e-9 {
		t.Errorf("neutral = %f, want 0.06", scores.Neutral)
	}
}

func TestHFScorer_FlatResponseShape(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"label":"contradiction","score":0.8},{"label":"entailment","score":0.1}]`))
	}))
	defer server.Close()

	scorer := newTestScorer(t, server.URL)

	scores, err := scorer.Score(context.Background(), "premise", "hypothesis")
	if err != nil {
		t.Fatalf("Score failed: %v", err)
	}
	if scores.Contradiction != 0.8 || scores.Entailment != 0.1 {
		t.Errorf("unexpected scores: %+v", scores)
	}
}

func TestHFScorer_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusServiceUnavailable)
		_, _ = w.Write([]byte(`{"error":"model is loading"}`))
	}))
	defer server.Close()

	scorer := newTestScorer(t, server.URL)

	if _, err := scorer.Score(context.Background(), "p", "h"); err == nil {
		t.Error("expected error on HTTP 503")
	}
}

package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/claimlens/claimlens/internal/cluster"
	"github.com/claimlens/claimlens/internal/explain"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/nli"
	"github.com/claimlens/claimlens/internal/verdict"
)

type fakeSource struct {
	snippets []model.Snippet
	err      error
	calls    int
}

func (s *fakeSource) Name() string { return "fake" }

func (s *fakeSource) Retrieve(_ context.Context, _ string, _, _ int) ([]model.Snippet, error) {
	s.calls++
	return s.snippets, s.err
}

type fakeEmbedder struct {
	calls int
}

// Encode returns a trivially separable vector per text so clustering is
// deterministic: texts sharing a first letter land together
func (e *fakeEmbedder) Encode(_ context.Context, texts []string) ([][]float32, error) {
	e.calls++
	out := make([][]float32, len(texts))
	for i, txt := range texts {
		if strings.HasPrefix(txt, "a") {
			out[i] = []float32{1, 0}
		} else {
			out[i] = []float32{0, 1}
		}
	}
	return out, nil
}

type fakeNLI struct {
	entailment float64
}

func (s *fakeNLI) Score(context.Context, string, string) (nli.Scores, error) {
	return nli.Scores{Entailment: s.entailment, Contradiction: 0.01}, nil
}

type fakeExplainer struct {
	output string
	err    error
}

func (p *fakeExplainer) Name() string                     { return "fake" }
func (p *fakeExplainer) IsAvailable(context.Context) bool { return true }
func (p *fakeExplainer) Generate(context.Context, string) (string, error) {
	return p.output, p.err
}

func testSnippets(n int) []model.Snippet {
	out := make([]model.Snippet, n)
	for i := range out {
		prefix := "a"
		if i%2 == 1 {
			prefix = "b"
		}
		out[i] = model.Snippet{
			Text:      fmt.Sprintf("%s snippet %d", prefix, i),
			SourceURL: fmt.Sprintf("https://s.example/%d", i),
		}
	}
	return out
}

func nliPipeline(source *fakeSource, embedder *fakeEmbedder, provider explain.Provider) *Pipeline {
	return &Pipeline{
		source:     source,
		clusterer:  cluster.NewClusterer(embedder),
		aggregator: verdict.NewAggregator(verdict.NewScorer(&fakeNLI{entailment: 0.9}), 1),
		assembler:  explain.NewAssembler(provider, false),
		config:     model.DefaultConfig(),
	}
}

func TestVerifyEmptyClaim(t *testing.T) {
	source := &fakeSource{snippets: testSnippets(4)}
	p := nliPipeline(source, &fakeEmbedder{}, nil)

	for _, claim := range []string{"", "   ", "\n\t "} {
		if _, err := p.Verify(context.Background(), claim, 0); !errors.Is(err, model.ErrEmptyClaim) {
			t.Errorf("Verify(%q): err = %v, want ErrEmptyClaim", claim, err)
		}
	}
	if source.calls != 0 {
		t.Errorf("source called %d times for empty claims", source.calls)
	}
}

func TestVerifyNoEvidence(t *testing.T) {
	p := nliPipeline(&fakeSource{}, &fakeEmbedder{}, nil)

	if _, err := p.Verify(context.Background(), "some claim", 0); !errors.Is(err, model.ErrNoEvidence) {
		t.Errorf("err = %v, want ErrNoEvidence", err)
	}
}

func TestVerifyRetrievalError(t *testing.T) {
	p := nliPipeline(&fakeSource{err: errors.New("search down")}, &fakeEmbedder{}, nil)

	if _, err := p.Verify(context.Background(), "some claim", 0); err == nil {
		t.Fatal("expected error when retrieval fails")
	}
}

func TestVerifyPrimaryPath(t *testing.T) {
	embedder := &fakeEmbedder{}
	p := nliPipeline(&fakeSource{snippets: testSnippets(6)}, embedder, nil)

	result, err := p.Verify(context.Background(), "the claim under test", 0)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if result.Verdict != model.VerdictLikelyTrue {
		t.Errorf("verdict = %q with uniformly entailing evidence", result.Verdict)
	}
	if result.Confidence <= 0 {
		t.Errorf("confidence = %v", result.Confidence)
	}
	if len(result.Narratives) == 0 {
		t.Error("no narratives on primary-path result")
	}
	if result.Explanation == "" {
		t.Error("no explanation")
	}
	if embedder.calls == 0 {
		t.Error("embedder never called on primary path")
	}
}

func TestVerifyExplanationFromProvider(t *testing.T) {
	provider := &fakeExplainer{output: "Well supported by three sources."}
	p := nliPipeline(&fakeSource{snippets: testSnippets(4)}, &fakeEmbedder{}, provider)

	result, err := p.Verify(context.Background(), "the claim under test", 0)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if result.Explanation != "Well supported by three sources." {
		t.Errorf("explanation = %q", result.Explanation)
	}
}

func TestVerifyTopSnippets(t *testing.T) {
	snippets := testSnippets(9)
	p := nliPipeline(&fakeSource{snippets: snippets}, &fakeEmbedder{}, nil)

	result, err := p.Verify(context.Background(), "the claim under test", 0)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if len(result.TopSnippets) != topSnippetCount {
		t.Fatalf("got %d top snippets, want %d", len(result.TopSnippets), topSnippetCount)
	}
	// Retrieval order, not score order
	for i, s := range result.TopSnippets {
		if s.Text != snippets[i].Text {
			t.Errorf("top snippet %d = %q, want %q", i, s.Text, snippets[i].Text)
		}
	}
}

func TestVerifySubstitutePath(t *testing.T) {
	provider := &fakeExplainer{
		output: `{"verdict": "Likely False", "confidence": 0.6, "explanation": "Contradicted."}`,
	}
	p := &Pipeline{
		source:    &fakeSource{snippets: testSnippets(4)},
		assembler: explain.NewAssembler(provider, false),
		reasoner:  explain.NewReasoner(provider, nil, false),
		config:    model.DefaultConfig(),
	}

	result, err := p.Verify(context.Background(), "the claim under test", 0)
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}

	if result.Verdict != model.VerdictLikelyFalse {
		t.Errorf("verdict = %q", result.Verdict)
	}
	if result.Confidence != 0.6 {
		t.Errorf("confidence = %v", result.Confidence)
	}
	if len(result.TopSnippets) != 4 {
		t.Errorf("got %d top snippets", len(result.TopSnippets))
	}
}

func TestVerifyNoBackend(t *testing.T) {
	p := &Pipeline{
		source:    &fakeSource{snippets: testSnippets(2)},
		assembler: explain.NewAssembler(nil, false),
		config:    model.DefaultConfig(),
	}

	if _, err := p.Verify(context.Background(), "the claim under test", 0); err == nil {
		t.Fatal("expected error without any verdict backend")
	}
}

func TestNewPipelineUnknownProvider(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Search.Provider = "bing"
	cfg.Cache.Enabled = false

	if _, err := NewPipeline(context.Background(), cfg); err == nil {
		t.Fatal("expected error for unknown search provider")
	}
}

func TestNewPipelineDefaults(t *testing.T) {
	cfg := model.DefaultConfig()
	cfg.Cache.Enabled = false

	p, err := NewPipeline(context.Background(), cfg)
	if err != nil {
		t.Fatalf("NewPipeline: %v", err)
	}

	// No embedding key and no explain provider: construction succeeds, the
	// backend check happens per request
	if p.clusterer != nil {
		t.Error("clusterer created without an embedding key")
	}
	if p.reasoner != nil {
		t.Error("reasoner created without an explain provider")
	}
}

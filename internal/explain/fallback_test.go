package explain

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/claimlens/claimlens/internal/model"
)

func scored(text, url string, score float64) model.ScoredSnippet {
	return model.ScoredSnippet{
		Snippet: model.Snippet{Text: text, SourceURL: url},
		Score:   score,
	}
}

func TestFallbackExplanationListsEvidence(t *testing.T) {
	out := FallbackExplanation(Request{
		Claim:   "the earth orbits the sun",
		Verdict: model.VerdictLikelyTrue,
		Supporting: []model.ScoredSnippet{
			scored("Earth completes an orbit every 365 days", "https://a.example", 0.9),
			scored("Heliocentrism is well established", "https://b.example", 0.8),
		},
		Opposing: []model.ScoredSnippet{
			scored("Some sites claim otherwise", "https://c.example", 0.3),
		},
	})

	if !strings.HasPrefix(out, "Verdict: Likely True.") {
		t.Errorf("missing verdict line: %q", out)
	}
	for _, want := range []string{
		"Earth completes an orbit every 365 days",
		"Some sites claim otherwise",
		"https://a.example",
		"https://c.example",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q", want)
		}
	}
}

func TestFallbackExplanationCapsEvidence(t *testing.T) {
	var supporting []model.ScoredSnippet
	for i := 0; i < 6; i++ {
		supporting = append(supporting, scored("snippet", "https://s.example", 0.5))
	}

	out := FallbackExplanation(Request{
		Verdict:    model.VerdictLikelyTrue,
		Supporting: supporting,
	})

	if got := strings.Count(out, "- snippet"); got != evidencePerSide {
		t.Errorf("listed %d snippets, want %d", got, evidencePerSide)
	}
}

func TestFallbackExplanationNoEvidence(t *testing.T) {
	out := FallbackExplanation(Request{Verdict: model.VerdictUnverifiable})

	if !strings.Contains(out, "- (none)") {
		t.Errorf("empty sides should render placeholders: %q", out)
	}
	if !strings.Contains(out, "(none)") {
		t.Errorf("empty sources should render placeholder: %q", out)
	}
}

type fakeProvider struct {
	output    string
	err       error
	available bool
	prompts   []string
}

func (p *fakeProvider) Name() string { return "fake" }

func (p *fakeProvider) Generate(_ context.Context, prompt string) (string, error) {
	p.prompts = append(p.prompts, prompt)
	return p.output, p.err
}

func (p *fakeProvider) IsAvailable(context.Context) bool { return p.available }

func TestAssemblerUsesProvider(t *testing.T) {
	provider := &fakeProvider{output: "  The claim is well supported.  "}
	a := NewAssembler(provider, false)

	got := a.Explain(context.Background(), Request{
		Claim:   "test claim",
		Verdict: model.VerdictLikelyTrue,
	})

	if got != "The claim is well supported." {
		t.Errorf("got %q", got)
	}
	if len(provider.prompts) != 1 {
		t.Fatalf("provider called %d times, want 1", len(provider.prompts))
	}
	if !strings.Contains(provider.prompts[0], "Claim: test claim") {
		t.Errorf("prompt missing claim: %q", provider.prompts[0])
	}
}

func TestAssemblerFallsBackOnError(t *testing.T) {
	a := NewAssembler(&fakeProvider{err: errors.New("quota exceeded")}, false)

	got := a.Explain(context.Background(), Request{Verdict: model.VerdictLikelyFalse})

	if !strings.HasPrefix(got, "Verdict: Likely False.") {
		t.Errorf("expected fallback template, got %q", got)
	}
}

func TestAssemblerFallsBackOnEmptyOutput(t *testing.T) {
	a := NewAssembler(&fakeProvider{output: "   \n"}, false)

	got := a.Explain(context.Background(), Request{Verdict: model.VerdictUnverifiable})

	if !strings.HasPrefix(got, "Verdict: Unverifiable.") {
		t.Errorf("expected fallback template, got %q", got)
	}
}

func TestAssemblerNilProvider(t *testing.T) {
	a := NewAssembler(nil, false)

	got := a.Explain(context.Background(), Request{Verdict: model.VerdictLikelyTrue})

	if !strings.HasPrefix(got, "Verdict: Likely True.") {
		t.Errorf("expected fallback template, got %q", got)
	}
}

func TestBuildPromptCapsEvidencePerSide(t *testing.T) {
	var supporting []model.ScoredSnippet
	for i := 0; i < 5; i++ {
		supporting = append(supporting, scored("evidence line", "https://e.example", 0.5))
	}

	prompt := BuildPrompt(Request{
		Claim:      "capped",
		Verdict:    model.VerdictLikelyTrue,
		Supporting: supporting,
	})

	if got := strings.Count(prompt, "- evidence line"); got != evidencePerSide {
		t.Errorf("prompt lists %d snippets, want %d", got, evidencePerSide)
	}
}

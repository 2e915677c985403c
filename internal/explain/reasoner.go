package explain

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"os"
	"regexp"
	"strings"

	"github.com/claimlens/claimlens/internal/embed"
	"github.com/claimlens/claimlens/internal/model"
)

// Reasoner asks an LLM for a structured verdict directly, without NLI
// scoring. It is the substitute verdict path used when no entailment scorer
// is configured. The embedder is optional; when present it selects the
// evidence closest to the claim and backstops missing confidence values.
type Reasoner struct {
	provider Provider
	embedder embed.Embedder // may be nil
	verbose  bool
}

// NewReasoner creates a new LLM-backed reasoner
func NewReasoner(provider Provider, embedder embed.Embedder, verbose bool) *Reasoner {
	return &Reasoner{provider: provider, embedder: embedder, verbose: verbose}
}

// reasonerVerdict is the JSON object the model is asked to produce
type reasonerVerdict struct {
	Verdict     string  `json:"verdict"`
	Confidence  float64 `json:"confidence"`
	Explanation string  `json:"explanation"`
}

var (
	jsonObjectRe  = regexp.MustCompile(`(?s)\{.*\}`)
	verdictWordRe = regexp.MustCompile(`(?i)\b(TRUE|FALSE|UNVERIFIABLE)\b`)
)

// Reason produces a verdict for the claim from raw snippets. It degrades
// rather than fails: unparseable model output yields an Unverifiable verdict
// with a similarity-derived confidence, never an error.
func (r *Reasoner) Reason(ctx context.Context, claim string, snippets []model.Snippet) (*model.VerdictResult, error) {
	if r.provider == nil {
		return nil, fmt.Errorf("no reasoning provider configured")
	}

	evidence, claimVec, evidenceVec := r.selectEvidence(ctx, claim, snippets)

	raw, err := r.provider.Generate(ctx, buildReasonPrompt(claim, evidence))
	if err != nil {
		return nil, fmt.Errorf("reasoning request: %w", err)
	}

	parsed := parseReasonerOutput(raw)

	confidence := parsed.Confidence
	if confidence <= 0 {
		confidence = embed.Cosine(claimVec, evidenceVec)
	}
	confidence = math.Min(0.99, math.Max(0, confidence))

	explanation := strings.TrimSpace(parsed.Explanation)
	if explanation == "" {
		explanation = strings.TrimSpace(raw)
	}

	return &model.VerdictResult{
		Claim:       claim,
		Verdict:     normalizeVerdict(parsed.Verdict),
		Confidence:  confidence,
		Explanation: explanation,
	}, nil
}

// selectEvidence picks the snippets nearest the claim. Without an embedder,
// or when embedding fails, the first snippets in retrieval order are used
// and the returned vectors are nil.
func (r *Reasoner) selectEvidence(ctx context.Context, claim string, snippets []model.Snippet) ([]model.Snippet, []float32, []float32) {
	fallback := snippets
	if len(fallback) > evidencePerSide {
		fallback = fallback[:evidencePerSide]
	}

	if r.embedder == nil || len(snippets) == 0 {
		return fallback, nil, nil
	}

	texts := make([]string, 0, len(snippets)+1)
	texts = append(texts, claim)
	for _, s := range snippets {
		texts = append(texts, s.Text)
	}

	vectors, err := r.embedder.Encode(ctx, texts)
	if err != nil || len(vectors) != len(texts) {
		if err != nil && r.verbose {
			fmt.Fprintf(os.Stderr, "Warning: evidence embedding failed, using retrieval order: %v\n", err)
		}
		return fallback, nil, nil
	}

	claimVec := vectors[0]
	index := embed.NewFlatIndex(len(claimVec))
	if err := index.Add(vectors[1:]); err != nil {
		return fallback, nil, nil
	}

	matches, err := index.Search(claimVec, evidencePerSide)
	if err != nil {
		return fallback, nil, nil
	}

	evidence := make([]model.Snippet, 0, len(matches))
	evidenceVec := make([]float32, len(claimVec))
	for _, m := range matches {
		evidence = append(evidence, snippets[m.Index])
		for i, v := range vectors[m.Index+1] {
			evidenceVec[i] += v
		}
	}

	return evidence, claimVec, evidenceVec
}

func buildReasonPrompt(claim string, evidence []model.Snippet) string {
	var b strings.Builder

	b.WriteString("You are a fact-checking assistant. Assess the claim using only the evidence below.\n\n")
	fmt.Fprintf(&b, "Claim: %s\n\n", claim)

	b.WriteString("Evidence:\n")
	if len(evidence) == 0 {
		b.WriteString("- (none)\n")
	}
	for _, s := range evidence {
		fmt.Fprintf(&b, "- %s (source: %s)\n", s.Text, s.SourceURL)
	}

	b.WriteString("\nRespond with a single JSON object, no other text:\n")
	b.WriteString(`{"verdict": "Likely True" | "Likely False" | "Unverifiable", "confidence": <0..1>, "explanation": "<2-3 sentences>"}`)

	return b.String()
}

// parseReasonerOutput recovers a structured verdict from whatever the model
// returned: a clean JSON object, JSON buried in prose, or at worst a bare
// verdict keyword.
func parseReasonerOutput(raw string) reasonerVerdict {
	var out reasonerVerdict

	trimmed := strings.TrimSpace(raw)
	if json.Unmarshal([]byte(trimmed), &out) == nil && out.Verdict != "" {
		return out
	}

	if match := jsonObjectRe.FindString(trimmed); match != "" {
		if json.Unmarshal([]byte(match), &out) == nil && out.Verdict != "" {
			return out
		}
	}

	if word := verdictWordRe.FindString(trimmed); word != "" {
		return reasonerVerdict{Verdict: word}
	}

	return reasonerVerdict{Verdict: string(model.VerdictUnverifiable)}
}

// normalizeVerdict maps free-form verdict text onto the canonical labels
func normalizeVerdict(s string) model.Verdict {
	lower := strings.ToLower(s)
	switch {
	case strings.Contains(lower, "unverifiable"):
		return model.VerdictUnverifiable
	case strings.Contains(lower, "true"):
		return model.VerdictLikelyTrue
	case strings.Contains(lower, "false"):
		return model.VerdictLikelyFalse
	default:
		return model.VerdictUnverifiable
	}
}

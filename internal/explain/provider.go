package explain

import (
	"context"
	"fmt"
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

// Provider defines the interface for explanation backends. Any text
// generator works here: the only hard contract is prompt in, display
// string out.
type Provider interface {
	// Name returns the provider name
	Name() string

	// Generate produces free text for the prompt
	Generate(ctx context.Context, prompt string) (string, error)

	// IsAvailable checks if the provider is properly configured and reachable
	IsAvailable(ctx context.Context) bool
}

// evidencePerSide caps how many ranked snippets each side contributes to a
// prompt
const evidencePerSide = 3

// Request carries everything a provider needs to explain a verdict
type Request struct {
	Claim      string
	Verdict    model.Verdict
	Supporting []model.ScoredSnippet // Ranked descending; only the top 3 are used
	Opposing   []model.ScoredSnippet
}

// BuildPrompt constructs the explanation prompt from the claim and the top
// ranked evidence on each side, with provenance links
func BuildPrompt(req Request) string {
	var b strings.Builder

	b.WriteString("You are an assistant that writes clear, concise explanations of why a claim is true/false/unverifiable. Use only the evidence provided.\n\n")
	fmt.Fprintf(&b, "Claim: %s\n", req.Claim)
	fmt.Fprintf(&b, "Assessment: %s\n\n", req.Verdict)

	b.WriteString("Supporting snippets:\n")
	writeEvidence(&b, req.Supporting)

	b.WriteString("\nOpposing snippets:\n")
	writeEvidence(&b, req.Opposing)

	b.WriteString("\nWrite: a 1-line verdict; then a 2-3 sentence justification; then list the provenance links used.")

	return b.String()
}

func writeEvidence(b *strings.Builder, list []model.ScoredSnippet) {
	if len(list) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for i, s := range list {
		if i >= evidencePerSide {
			break
		}
		fmt.Fprintf(b, "- %s (source: %s)\n", s.Snippet.Text, s.Snippet.SourceURL)
	}
}

package explain

import (
	"fmt"
	"strings"

	"github.com/claimlens/claimlens/internal/model"
)

// FallbackExplanation renders a deterministic template from the same ranked
// evidence a provider would have seen. The pipeline never fails solely
// because explanation generation failed; this is what the user gets instead
// of generated prose.
func FallbackExplanation(req Request) string {
	var b strings.Builder

	fmt.Fprintf(&b, "Verdict: %s.\n", req.Verdict)
	b.WriteString("(Automatic summary: the explanation service was unavailable, so the ranked evidence is listed directly.)\n")

	b.WriteString("\nSupporting evidence:\n")
	writeFallbackList(&b, req.Supporting)

	b.WriteString("\nOpposing evidence:\n")
	writeFallbackList(&b, req.Opposing)

	b.WriteString("\nSources:\n")
	n := 0
	for _, s := range topEvidence(req.Supporting) {
		n++
		fmt.Fprintf(&b, "%d. %s\n", n, s.Snippet.SourceURL)
	}
	for _, s := range topEvidence(req.Opposing) {
		n++
		fmt.Fprintf(&b, "%d. %s\n", n, s.Snippet.SourceURL)
	}
	if n == 0 {
		b.WriteString("(none)\n")
	}

	return strings.TrimSpace(b.String())
}

func writeFallbackList(b *strings.Builder, list []model.ScoredSnippet) {
	top := topEvidence(list)
	if len(top) == 0 {
		b.WriteString("- (none)\n")
		return
	}
	for _, s := range top {
		fmt.Fprintf(b, "- %s (source: %s)\n", s.Snippet.Text, s.Snippet.SourceURL)
	}
}

// topEvidence caps a ranked list at the per-side evidence budget
func topEvidence(list []model.ScoredSnippet) []model.ScoredSnippet {
	if len(list) > evidencePerSide {
		return list[:evidencePerSide]
	}
	return list
}

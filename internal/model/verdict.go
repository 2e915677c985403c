package model

// Verdict is the ternary classification of a claim
type Verdict string

const (
	VerdictLikelyTrue   Verdict = "Likely True"
	VerdictLikelyFalse  Verdict = "Likely False"
	VerdictUnverifiable Verdict = "Unverifiable"
)

// VerdictResult is the final output of one verification run.
// All fields are request-scoped; nothing is persisted across runs.
type VerdictResult struct {
	Claim       string            `json:"claim"`
	Verdict     Verdict           `json:"verdict"`
	Confidence  float64           `json:"confidence"` // [0, 0.99], never 1.0
	Narratives  []NarrativeResult `json:"narratives,omitempty"`
	Explanation string            `json:"explanation"`

	// TopSnippets holds the first entries of the retrieved snippet list in
	// retrieval order, not the top-ranked supporting/opposing ones.
	TopSnippets []Snippet `json:"top_snippets,omitempty"`
}

package nli

import "context"

// Scores is an NLI distribution over the three standard labels.
// The three values sum to approximately 1.0. The zero value reads as fully
// neutral, which is what a failed per-snippet call degrades to.
type Scores struct {
	Entailment    float64 `json:"entailment"`
	Contradiction float64 `json:"contradiction"`
	Neutral       float64 `json:"neutral"`
}

// Scorer scores a premise/hypothesis pair. Order is semantically required:
// the evidence snippet is the premise, the claim is the hypothesis.
// Reversing them changes the meaning of the result.
type Scorer interface {
	Score(ctx context.Context, premise, hypothesis string) (Scores, error)
}

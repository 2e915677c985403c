package model

// Snippet represents one retrieved evidence unit
type Snippet struct {
	Text      string    `json:"snippet"` // Normalized snippet text (non-empty)
	SourceURL string    `json:"link"`    // Source link, "#" when the engine gave none
	Embedding []float32 `json:"-"`       // Computed per request, never persisted
}

// Cluster is a group of snippets judged to express the same sub-narrative
type Cluster struct {
	Members []Snippet `json:"members"` // Input order within the cluster
}

// ScoredSnippet pairs a snippet with the score that ranked it.
// Every scored snippet travels as this pair; callers never need to
// inspect the shape of list elements.
type ScoredSnippet struct {
	Snippet Snippet `json:"snippet"`
	Score   float64 `json:"score"`
}

// ClusterScore is the result of scoring one cluster against the claim
type ClusterScore struct {
	AvgEntailment    float64         `json:"avg_entail"` // Mean entailment across members, [0,1]
	AvgContradiction float64         `json:"avg_contra"` // Mean contradiction across members, [0,1]
	Supporting       []ScoredSnippet `json:"supporting"` // entail > contra, descending by entailment
	Opposing         []ScoredSnippet `json:"opposing"`   // contra > entail, descending by contradiction
}

// NarrativeResult pairs a cluster with its score against the claim
type NarrativeResult struct {
	Cluster Cluster      `json:"cluster"`
	Score   float64      `json:"score"` // AvgEntailment - AvgContradiction
	Details ClusterScore `json:"details"`
}

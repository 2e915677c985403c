package verdict

import (
	"context"
	"sort"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/nli"
)

// Scorer scores narrative clusters against a claim using an NLI model
type Scorer struct {
	nli nli.Scorer
}

// NewScorer creates a new cluster scorer
func NewScorer(scorer nli.Scorer) *Scorer {
	return &Scorer{nli: scorer}
}

// ScoreCluster scores every member snippet against the claim and aggregates.
// The snippet text is the premise and the claim is the hypothesis; that order
// carries the meaning "does this evidence entail the claim".
//
// A failed NLI call for one snippet degrades that snippet to neutral (zero
// entailment, zero contradiction) instead of aborting the cluster. One flaky
// call should not discard an otherwise scorable narrative.
func (s *Scorer) ScoreCluster(ctx context.Context, cluster model.Cluster, claim string) model.ClusterScore {
	var result model.ClusterScore

	var entailSum, contraSum float64
	for _, member := range cluster.Members {
		scores, err := s.nli.Score(ctx, member.Text, claim)
		if err != nil {
			scores = nli.Scores{}
		}

		entailSum += scores.Entailment
		contraSum += scores.Contradiction

		// Strict inequality: exact ties land in neither list.
		switch {
		case scores.Entailment > scores.Contradiction:
			result.Supporting = append(result.Supporting, model.ScoredSnippet{
				Snippet: member,
				Score:   scores.Entailment,
			})
		case scores.Contradiction > scores.Entailment:
			result.Opposing = append(result.Opposing, model.ScoredSnippet{
				Snippet: member,
				Score:   scores.Contradiction,
			})
		}
	}

	if n := len(cluster.Members); n > 0 {
		result.AvgEntailment = entailSum / float64(n)
		result.AvgContradiction = contraSum / float64(n)
	}

	// Ranking decides which snippets surface as top evidence downstream, so
	// both lists are strongest-first.
	sortByScoreDesc(result.Supporting)
	sortByScoreDesc(result.Opposing)

	return result
}

func sortByScoreDesc(list []model.ScoredSnippet) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})
}

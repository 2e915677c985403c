package verdict

import (
	"context"
	"math"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/worker"
)

const (
	// threshold is the deadband around zero where evidence is treated as
	// genuinely mixed or scarce
	threshold = 0.05

	// maxConfidence bounds confidence away from 1.0; no claim is ever
	// reported with absolute certainty
	maxConfidence = 0.99
)

// Aggregator combines per-cluster scores into one claim-level verdict
type Aggregator struct {
	scorer  *Scorer
	workers int
}

// NewAggregator creates an aggregator that scores clusters with up to
// workers parallel NLI calls
func NewAggregator(scorer *Scorer, workers int) *Aggregator {
	if workers <= 0 {
		workers = 1
	}
	return &Aggregator{scorer: scorer, workers: workers}
}

// Aggregate scores every cluster and folds the scores into a verdict.
// The total is an unweighted sum across narratives: broad corroboration
// from several narratives dominates a single strong source.
//
// Verdict and confidence are a pure function of the per-snippet scores and
// the partition, so identical inputs always produce identical output.
func (a *Aggregator) Aggregate(ctx context.Context, clusters []model.Cluster, claim string) *model.VerdictResult {
	details := a.scoreAll(ctx, clusters, claim)

	narratives := make([]model.NarrativeResult, len(clusters))
	var total float64
	for i, cl := range clusters {
		score := details[i].AvgEntailment - details[i].AvgContradiction
		narratives[i] = model.NarrativeResult{
			Cluster: cl,
			Score:   score,
			Details: details[i],
		}
		total += score
	}

	var verdict model.Verdict
	switch {
	case total > threshold:
		verdict = model.VerdictLikelyTrue
	case total < -threshold:
		verdict = model.VerdictLikelyFalse
	default:
		verdict = model.VerdictUnverifiable
	}

	return &model.VerdictResult{
		Claim:      claim,
		Verdict:    verdict,
		Confidence: math.Min(maxConfidence, math.Abs(total)),
		Narratives: narratives,
	}
}

// scoreAll scores clusters, fanning out through the worker pool when it
// helps. Cluster scoring has no cross-cluster ordering dependency; results
// are reassembled into cluster order before aggregation.
func (a *Aggregator) scoreAll(ctx context.Context, clusters []model.Cluster, claim string) []model.ClusterScore {
	details := make([]model.ClusterScore, len(clusters))

	if a.workers == 1 || len(clusters) <= 1 {
		for i, cl := range clusters {
			details[i] = a.scorer.ScoreCluster(ctx, cl, claim)
		}
		return details
	}

	pool := worker.NewPool(ctx, a.workers)
	pool.Start()
	for i, cl := range clusters {
		pool.Submit(&scoreJob{index: i, cluster: cl, claim: claim, scorer: a.scorer})
	}

	for _, result := range pool.Wait() {
		r := result.(*scoreResult)
		details[r.index] = r.details
	}

	return details
}

type scoreJob struct {
	index   int
	cluster model.Cluster
	claim   string
	scorer  *Scorer
}

func (j *scoreJob) Execute(ctx context.Context) worker.Result {
	return &scoreResult{
		index:   j.index,
		details: j.scorer.ScoreCluster(ctx, j.cluster, j.claim),
	}
}

type scoreResult struct {
	index   int
	details model.ClusterScore
}

func (r *scoreResult) GetError() error { return nil }

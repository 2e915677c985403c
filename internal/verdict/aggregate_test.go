package verdict

import (
	"context"
	"math"
	"reflect"
	"testing"

	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/nli"
)

// scoresNLI builds a fake NLI where each text maps to (entailment, contradiction)
func scoresNLI(pairs map[string][2]float64) *fakeNLI {
	scores := make(map[string]nli.Scores, len(pairs))
	for text, p := range pairs {
		scores[text] = nli.Scores{
			Entailment:    p[0],
			Contradiction: p[1],
			Neutral:       1 - p[0] - p[1],
		}
	}
	return &fakeNLI{scores: scores}
}

func TestAggregate_StrongSupportScenario(t *testing.T) {
	// Three snippets paraphrasing strong support in one cluster.
	fake := scoresNLI(map[string][2]float64{
		"EVs emit fewer greenhouse gases over their lifetime":    {0.9, 0.05},
		"petrol combustion produces CO2 driving climate change":  {0.9, 0.05},
		"battery production still yields lower lifetime CO2":     {0.9, 0.05},
	})
	agg := NewAggregator(NewScorer(fake), 1)

	clusters := []model.Cluster{clusterOf(
		"EVs emit fewer greenhouse gases over their lifetime",
		"petrol combustion produces CO2 driving climate change",
		"battery production still yields lower lifetime CO2",
	)}

	result := agg.Aggregate(context.Background(), clusters, "Electric cars reduce carbon emissions compared to petrol cars")

	if result.Verdict != model.VerdictLikelyTrue {
		t.Errorf("verdict = %s, want Likely True", result.Verdict)
	}
	if math.Abs(result.Confidence-0.85) > 1e-9 {
		t.Errorf("confidence = %f, want 0.85", result.Confidence)
	}
	if len(result.Narratives) != 1 {
		t.Fatalf("expected 1 narrative, got %d", len(result.Narratives))
	}
	if math.Abs(result.Narratives[0].Score-0.85) > 1e-9 {
		t.Errorf("narrative score = %f, want 0.85", result.Narratives[0].Score)
	}
}

func TestAggregate_ThresholdBoundaries(t *testing.T) {
	tests := []struct {
		name    string
		entail  float64
		contra  float64
		verdict model.Verdict
	}{
		{"exactly at positive threshold", 0.05, 0, model.VerdictUnverifiable},
		{"just above positive threshold", 0.0501, 0, model.VerdictLikelyTrue},
		{"just below negative threshold", 0, 0.0501, model.VerdictLikelyFalse},
		{"exactly at negative threshold", 0, 0.05, model.VerdictUnverifiable},
		{"zero", 0, 0, model.VerdictUnverifiable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fake := scoresNLI(map[string][2]float64{"s": {tt.entail, tt.contra}})
			agg := NewAggregator(NewScorer(fake), 1)

			result := agg.Aggregate(context.Background(), []model.Cluster{clusterOf("s")}, "claim")

			if result.Verdict != tt.verdict {
				t.Errorf("totalScore %f: verdict = %s, want %s",
					tt.entail-tt.contra, result.Verdict, tt.verdict)
			}
		})
	}
}

func TestAggregate_ConfidenceCapped(t *testing.T) {
	// Many strong narratives push the raw total well past 1.
	fake := scoresNLI(map[string][2]float64{
		"a": {0.95, 0}, "b": {0.95, 0}, "c": {0.95, 0},
	})
	agg := NewAggregator(NewScorer(fake), 1)

	clusters := []model.Cluster{clusterOf("a"), clusterOf("b"), clusterOf("c")}
	result := agg.Aggregate(context.Background(), clusters, "claim")

	if result.Confidence != 0.99 {
		t.Errorf("confidence = %f, want capped at 0.99", result.Confidence)
	}
	if result.Verdict != model.VerdictLikelyTrue {
		t.Errorf("verdict = %s, want Likely True", result.Verdict)
	}
}

func TestAggregate_ConfidenceNonNegative(t *testing.T) {
	fake := scoresNLI(map[string][2]float64{"a": {0, 0.9}})
	agg := NewAggregator(NewScorer(fake), 1)

	result := agg.Aggregate(context.Background(), []model.Cluster{clusterOf("a")}, "claim")

	if result.Confidence < 0 || result.Confidence > 0.99 {
		t.Errorf("confidence out of [0, 0.99]: %f", result.Confidence)
	}
	if result.Verdict != model.VerdictLikelyFalse {
		t.Errorf("verdict = %s, want Likely False", result.Verdict)
	}
}

func TestAggregate_Deterministic(t *testing.T) {
	pairs := map[string][2]float64{
		"a": {0.7, 0.1}, "b": {0.2, 0.5}, "c": {0.4, 0.4}, "d": {0.6, 0.3},
	}
	clusters := []model.Cluster{clusterOf("a", "b"), clusterOf("c", "d")}

	run := func(workers int) *model.VerdictResult {
		agg := NewAggregator(NewScorer(scoresNLI(pairs)), workers)
		return agg.Aggregate(context.Background(), clusters, "claim")
	}

	first := run(1)
	second := run(1)
	parallel := run(4)

	if first.Verdict != second.Verdict || first.Confidence != second.Confidence {
		t.Error("identical inputs produced different verdict or confidence")
	}
	if !reflect.DeepEqual(first.Narratives, second.Narratives) {
		t.Error("identical inputs produced different narratives")
	}

	// Parallel scoring is an optimization, never a semantic change.
	if first.Verdict != parallel.Verdict || first.Confidence != parallel.Confidence {
		t.Error("parallel scoring changed the verdict or confidence")
	}
	if !reflect.DeepEqual(first.Narratives, parallel.Narratives) {
		t.Error("parallel scoring changed narrative order or contents")
	}
}

func TestAggregate_NoClusters(t *testing.T) {
	agg := NewAggregator(NewScorer(&fakeNLI{}), 1)

	result := agg.Aggregate(context.Background(), nil, "claim")

	if result.Verdict != model.VerdictUnverifiable {
		t.Errorf("verdict = %s, want Unverifiable", result.Verdict)
	}
	if result.Confidence != 0 {
		t.Errorf("confidence = %f, want 0", result.Confidence)
	}
}

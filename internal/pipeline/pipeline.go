package pipeline

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/claimlens/claimlens/internal/cache"
	"github.com/claimlens/claimlens/internal/cluster"
	"github.com/claimlens/claimlens/internal/embed"
	"github.com/claimlens/claimlens/internal/explain"
	"github.com/claimlens/claimlens/internal/model"
	"github.com/claimlens/claimlens/internal/nli"
	"github.com/claimlens/claimlens/internal/retrieve"
	"github.com/claimlens/claimlens/internal/util"
	"github.com/claimlens/claimlens/internal/verdict"
)

// topSnippetCount is how many retrieved snippets are echoed back on the
// result, in retrieval order
const topSnippetCount = 6

// Pipeline orchestrates the complete verification process: retrieve
// evidence, group it into narratives, score each narrative against the
// claim, and explain the verdict.
//
// Two verdict paths exist. The primary path clusters snippets by embedding
// and scores them with an NLI model; it runs whenever an embedder is
// configured. Without one, clustering is impossible and the pipeline falls
// back to asking the explain provider for a structured verdict directly.
type Pipeline struct {
	source     retrieve.Source
	clusterer  *cluster.Clusterer // nil without an embedder
	aggregator *verdict.Aggregator
	assembler  *explain.Assembler
	reasoner   *explain.Reasoner // nil without an explain provider
	config     *model.Config
}

// NewPipeline creates a new pipeline with the given configuration
func NewPipeline(ctx context.Context, cfg *model.Config) (*Pipeline, error) {
	source, err := retrieve.NewSource(cfg.Search, cfg.HTTP)
	if err != nil {
		return nil, fmt.Errorf("create evidence source: %w", err)
	}

	var store cache.Cache
	if cfg.Cache.Enabled {
		store = cache.NewLayeredCache(cfg.Cache.TTL, cfg.Cache.Dir, cfg.Cache.TTL)
		source = retrieve.NewCachedSource(source, store, cfg.Cache)
	}

	var embedder embed.Embedder
	if cfg.Embedding.APIKey != "" {
		inner, err := embed.NewOpenAIEmbedder(cfg.Embedding)
		if err != nil {
			return nil, fmt.Errorf("create embedder: %w", err)
		}
		embedder = inner
		if store != nil {
			embedder = embed.NewCachedEmbedder(inner, store, cfg.Embedding.Model, cfg.Cache.TTL)
		}
	} else if cfg.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Warning: no embedding API key, narrative clustering disabled\n")
	}

	var clusterer *cluster.Clusterer
	var aggregator *verdict.Aggregator
	if embedder != nil {
		scorer, err := nli.NewHFScorer(cfg.NLI)
		if err != nil {
			return nil, fmt.Errorf("create NLI scorer: %w", err)
		}
		clusterer = cluster.NewClusterer(embedder)
		aggregator = verdict.NewAggregator(verdict.NewScorer(scorer), cfg.Concurrency.ScoreWorkers)
	}

	// The explain provider is optional on the primary path (the fallback
	// template covers it) but required for the substitute verdict path.
	provider, err := explain.NewProvider(ctx, cfg.Explain, cfg.HTTP)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to initialize explain provider: %v\n", err)
		provider = nil
	}

	var reasoner *explain.Reasoner
	if provider != nil {
		reasoner = explain.NewReasoner(provider, embedder, cfg.Output.Verbose)
	}

	return &Pipeline{
		source:     source,
		clusterer:  clusterer,
		aggregator: aggregator,
		assembler:  explain.NewAssembler(provider, cfg.Output.Verbose),
		reasoner:   reasoner,
		config:     cfg,
	}, nil
}

// Verify runs one claim through the pipeline. A rounds value of zero or
// less uses the configured default.
func (p *Pipeline) Verify(ctx context.Context, claim string, rounds int) (*model.VerdictResult, error) {
	claim = util.CleanText(claim)
	if claim == "" {
		return nil, model.ErrEmptyClaim
	}

	if rounds <= 0 {
		rounds = p.config.Search.Rounds
	}

	snippets, err := p.source.Retrieve(ctx, claim, rounds, p.config.Search.TopK)
	if err != nil {
		return nil, fmt.Errorf("retrieve evidence: %w", err)
	}
	if len(snippets) == 0 {
		return nil, model.ErrNoEvidence
	}
	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Retrieved %d snippets from %s\n", len(snippets), p.source.Name())
	}

	var result *model.VerdictResult
	switch {
	case p.clusterer != nil:
		result, err = p.verifyWithNLI(ctx, claim, snippets)
	case p.reasoner != nil:
		result, err = p.reasoner.Reason(ctx, claim, snippets)
	default:
		return nil, fmt.Errorf("no verification backend configured: set an embedding API key or an explain provider")
	}
	if err != nil {
		return nil, err
	}

	top := snippets
	if len(top) > topSnippetCount {
		top = top[:topSnippetCount]
	}
	result.TopSnippets = top

	return result, nil
}

// verifyWithNLI is the primary verdict path: cluster snippets into
// narratives, score each against the claim, aggregate, then explain from
// the globally ranked evidence.
func (p *Pipeline) verifyWithNLI(ctx context.Context, claim string, snippets []model.Snippet) (*model.VerdictResult, error) {
	clusters, err := p.clusterer.Cluster(ctx, snippets)
	if err != nil {
		return nil, fmt.Errorf("cluster snippets: %w", err)
	}
	if p.config.Output.Verbose {
		fmt.Fprintf(os.Stderr, "Clustered %d snippets into %d narratives\n", len(snippets), len(clusters))
	}

	result := p.aggregator.Aggregate(ctx, clusters, claim)

	var supporting, opposing []model.ScoredSnippet
	for _, n := range result.Narratives {
		supporting = append(supporting, n.Details.Supporting...)
		opposing = append(opposing, n.Details.Opposing...)
	}
	sortByScoreDesc(supporting)
	sortByScoreDesc(opposing)

	result.Explanation = p.assembler.Explain(ctx, explain.Request{
		Claim:      claim,
		Verdict:    result.Verdict,
		Supporting: supporting,
		Opposing:   opposing,
	})

	return result, nil
}

func sortByScoreDesc(list []model.ScoredSnippet) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].Score > list[j].Score
	})
}

package cluster

import (
	"context"
	"fmt"
	"math"
	"sort"

	"github.com/claimlens/claimlens/internal/embed"
	"github.com/claimlens/claimlens/internal/model"
)

// Clusterer groups evidence snippets into narrative clusters by semantic
// similarity of their embeddings
type Clusterer struct {
	embedder embed.Embedder
	k        int // 0 = derive from snippet count
}

// NewClusterer creates a clusterer that derives the cluster count from the
// input size
func NewClusterer(embedder embed.Embedder) *Clusterer {
	return &Clusterer{embedder: embedder}
}

// NewClustererWithK creates a clusterer with a fixed cluster count
func NewClustererWithK(embedder embed.Embedder, k int) *Clusterer {
	return &Clusterer{embedder: embedder, k: k}
}

// Cluster partitions snippets into narrative clusters. Every input snippet
// lands in exactly one cluster. Clusters come back sorted by descending
// member count, ties broken by the earliest-appearing member in the input.
//
// If the embedder fails for any snippet the whole operation fails with
// model.ErrEmbeddingUnavailable; a partition built on partial embeddings
// would silently misgroup evidence.
func (c *Clusterer) Cluster(ctx context.Context, snippets []model.Snippet) ([]model.Cluster, error) {
	n := len(snippets)
	if n == 0 {
		return nil, nil
	}

	texts := make([]string, n)
	for i, s := range snippets {
		texts[i] = s.Text
	}

	vectors, err := c.embedder.Encode(ctx, texts)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", model.ErrEmbeddingUnavailable, err)
	}
	if len(vectors) != n {
		return nil, fmt.Errorf("%w: got %d vectors for %d snippets", model.ErrEmbeddingUnavailable, len(vectors), n)
	}

	members := make([]model.Snippet, n)
	copy(members, snippets)
	for i := range members {
		members[i].Embedding = vectors[i]
	}

	k := c.k
	if k <= 0 {
		k = defaultClusterCount(n)
	}
	if k > n {
		k = n
	}

	if k == 1 || n == 1 {
		return []model.Cluster{{Members: members}}, nil
	}

	groups := agglomerate(vectors, k)

	// Largest narrative first; earliest-member index breaks size ties so
	// identical inputs always produce identical ordering. Group member
	// indexes are ascending, so groups[i][0] is the earliest member.
	sort.SliceStable(groups, func(i, j int) bool {
		if len(groups[i]) != len(groups[j]) {
			return len(groups[i]) > len(groups[j])
		}
		return groups[i][0] < groups[j][0]
	})

	clusters := make([]model.Cluster, 0, len(groups))
	for _, idxs := range groups {
		cl := model.Cluster{Members: make([]model.Snippet, 0, len(idxs))}
		for _, i := range idxs {
			cl.Members = append(cl.Members, members[i])
		}
		clusters = append(clusters, cl)
	}

	return clusters, nil
}

// defaultClusterCount balances granularity: too few clusters merge distinct
// narratives, too many fragment one narrative across groups
func defaultClusterCount(n int) int {
	k := int(math.Round(math.Sqrt(float64(n) / 2)))
	if k < 2 {
		k = 2
	}
	return k
}

// agglomerate performs hierarchical agglomerative grouping into exactly k
// groups using average linkage over squared Euclidean distance. Merges always
// pick the lowest-index pair among equally close candidates, so the result is
// deterministic given identical vectors and k. Each returned group lists its
// member indexes in ascending input order.
func agglomerate(vectors [][]float32, k int) [][]int {
	groups := make([][]int, len(vectors))
	for i := range vectors {
		groups[i] = []int{i}
	}

	for len(groups) > k {
		bi, bj := 0, 1
		best := math.Inf(1)
		for i := 0; i < len(groups); i++ {
			for j := i + 1; j < len(groups); j++ {
				if d := averageLinkage(groups[i], groups[j], vectors); d < best {
					best = d
					bi, bj = i, j
				}
			}
		}

		merged := append(append([]int{}, groups[bi]...), groups[bj]...)
		sort.Ints(merged)
		groups[bi] = merged
		groups = append(groups[:bj], groups[bj+1:]...)
	}

	// Present groups in order of their earliest member.
	sort.Slice(groups, func(i, j int) bool { return groups[i][0] < groups[j][0] })

	return groups
}

// averageLinkage is the mean pairwise squared distance between two groups
func averageLinkage(a, b []int, vectors [][]float32) float64 {
	var sum float64
	for _, i := range a {
		for _, j := range b {
			sum += embed.SquaredDistance(vectors[i], vectors[j])
		}
	}
	return sum / float64(len(a)*len(b))
}

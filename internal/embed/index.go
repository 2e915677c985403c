package embed

import (
	"fmt"
	"math"
	"sort"
)

// FlatIndex is a brute-force L2 nearest-neighbor index over request-scoped
// vectors. Evidence sets are small (tens of snippets), so exact search beats
// anything approximate here.
type FlatIndex struct {
	dim     int
	vectors [][]float32
}

// NewFlatIndex creates an index for vectors of the given dimensionality
func NewFlatIndex(dim int) *FlatIndex {
	return &FlatIndex{dim: dim}
}

// Add appends vectors to the index. Positions are stable: the i-th added
// vector keeps index i forever.
func (x *FlatIndex) Add(vectors [][]float32) error {
	for _, v := range vectors {
		if len(v) != x.dim {
			return fmt.Errorf("vector dimension %d does not match index dimension %d", len(v), x.dim)
		}
		x.vectors = append(x.vectors, v)
	}
	return nil
}

// Len returns the number of indexed vectors
func (x *FlatIndex) Len() int {
	return len(x.vectors)
}

// Match is one nearest-neighbor result
type Match struct {
	Index    int
	Distance float64 // Squared Euclidean distance
}

// Search returns the k nearest vectors to query, closest first. Ties break
// toward the lower index so results are deterministic.
func (x *FlatIndex) Search(query []float32, k int) ([]Match, error) {
	if len(query) != x.dim {
		return nil, fmt.Errorf("query dimension %d does not match index dimension %d", len(query), x.dim)
	}
	if k > len(x.vectors) {
		k = len(x.vectors)
	}
	if k <= 0 {
		return nil, nil
	}

	matches := make([]Match, len(x.vectors))
	for i, v := range x.vectors {
		matches[i] = Match{Index: i, Distance: SquaredDistance(query, v)}
	}

	sort.SliceStable(matches, func(i, j int) bool {
		return matches[i].Distance < matches[j].Distance
	})

	return matches[:k], nil
}

// SquaredDistance returns the squared Euclidean distance between two vectors
func SquaredDistance(a, b []float32) float64 {
	var sum float64
	for i := range a {
		d := float64(a[i]) - float64(b[i])
		sum += d * d
	}
	return sum
}

// Cosine returns the cosine similarity of two vectors, 0 when either is zero
func Cosine(a, b []float32) float64 {
	var dot, na, nb float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		na += float64(a[i]) * float64(a[i])
		nb += float64(b[i]) * float64(b[i])
	}
	if na == 0 || nb == 0 {
		return 0
	}
	return dot / (math.Sqrt(na) * math.Sqrt(nb))
}

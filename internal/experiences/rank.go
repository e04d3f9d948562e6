package experiences

import (
	"container/heap"
	"fmt"
	"math"
	"sort"
)

// Rank scores candidates by cosine similarity to query and returns the best k.
// Ties are broken by the most recent start date, then by ID. Candidates
// without an embedding are skipped; any other length mismatch is an error.
func Rank(candidates []Record, query []float32, k int) ([]Scored, error) {
	if k <= 0 || len(candidates) == 0 {
		return []Scored{}, nil
	}
	qNorm := norm(query)

	h := make(scoredHeap, 0, k+1)
	for _, rec := range candidates {
		if !rec.Kind.Searchable() || len(rec.Embedding) == 0 {
			continue
		}
		if len(rec.Embedding) != len(query) {
			return nil, fmt.Errorf("%w: record %s has %d dimensions, query has %d",
				ErrDimensionMismatch, rec.ID, len(rec.Embedding), len(query))
		}
		heap.Push(&h, Scored{Record: rec, Score: cosine(query, rec.Embedding, qNorm)})
		if h.Len() > k {
			heap.Pop(&h)
		}
	}

	out := make([]Scored, h.Len())
	copy(out, h)
	SortScored(out)
	return out, nil
}

// SortScored orders results best first.
func SortScored(results []Scored) {
	sort.SliceStable(results, func(i, j int) bool {
		return better(results[i], results[j])
	})
}

func better(a, b Scored) bool {
	if a.Score != b.Score {
		return a.Score > b.Score
	}
	if !a.StartDate.Equal(b.StartDate) {
		return a.StartDate.After(b.StartDate)
	}
	return a.ID < b.ID
}

// scoredHeap is a min-heap on ranking: the root is the worst kept result.
type scoredHeap []Scored

func (h scoredHeap) Len() int            { return len(h) }
func (h scoredHeap) Less(i, j int) bool  { return better(h[j], h[i]) }
func (h scoredHeap) Swap(i, j int)       { h[i], h[j] = h[j], h[i] }
func (h *scoredHeap) Push(x interface{}) { *h = append(*h, x.(Scored)) }
func (h *scoredHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

func norm(v []float32) float64 {
	var sum float64
	for _, f := range v {
		sum += float64(f) * float64(f)
	}
	return math.Sqrt(sum)
}

func cosine(query, v []float32, qNorm float64) float64 {
	vNorm := norm(v)
	if qNorm == 0 || vNorm == 0 {
		return 0
	}
	var dot float64
	for i := range query {
		dot += float64(query[i]) * float64(v[i])
	}
	return dot / (qNorm * vNorm)
}

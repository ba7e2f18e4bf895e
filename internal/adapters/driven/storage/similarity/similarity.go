// Package similarity ranks records by cosine distance for stores that
// search by brute force.
package similarity

import (
	"container/heap"
	"math"

	"github.com/custodia-labs/docia/internal/core/domain"
)

// CosineDistance returns 1 - cos(a, b), in [0, 2]. A zero vector is at
// distance 1 from everything. Vectors of different length are compared over
// their common prefix; stores reject mismatched dimensions before calling.
func CosineDistance(a, b []float32) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	var dot, na, nb float64
	for i := 0; i < n; i++ {
		x, y := float64(a[i]), float64(b[i])
		dot += x * y
		na += x * x
		nb += y * y
	}
	if na == 0 || nb == 0 {
		return 1
	}
	d := 1 - dot/(math.Sqrt(na)*math.Sqrt(nb))
	// Clamp rounding noise.
	if d < 0 {
		return 0
	}
	if d > 2 {
		return 2
	}
	return d
}

// Ranker keeps the k nearest records pushed into it. It holds at most k
// records at a time, so a store can scan any number of rows through it.
type Ranker struct {
	k    int
	heap farthestFirst
}

// NewRanker returns a Ranker keeping at most k records. k <= 0 keeps none.
func NewRanker(k int) *Ranker {
	if k < 0 {
		k = 0
	}
	return &Ranker{k: k}
}

// Push offers a candidate. It is kept if fewer than k records are held or
// if it ranks ahead of the farthest one held.
func (r *Ranker) Push(rec domain.ScoredRecord) {
	if r.k == 0 {
		return
	}
	if len(r.heap) < r.k {
		heap.Push(&r.heap, rec)
		return
	}
	if less(rec, r.heap[0]) {
		r.heap[0] = rec
		heap.Fix(&r.heap, 0)
	}
}

// Results returns the kept records by ascending distance, ties broken by ID.
// The Ranker is empty afterwards.
func (r *Ranker) Results() []domain.ScoredRecord {
	out := make([]domain.ScoredRecord, len(r.heap))
	for i := len(out) - 1; i >= 0; i-- {
		out[i] = heap.Pop(&r.heap).(domain.ScoredRecord)
	}
	return out
}

// TopK returns at most k of candidates by ascending distance, ties broken by
// ID. k <= 0 keeps none.
func TopK(candidates []domain.ScoredRecord, k int) []domain.ScoredRecord {
	r := NewRanker(k)
	for _, c := range candidates {
		r.Push(c)
	}
	return r.Results()
}

func less(a, b domain.ScoredRecord) bool {
	if a.Distance != b.Distance {
		return a.Distance < b.Distance
	}
	return a.ID < b.ID
}

// farthestFirst is a max-heap: the record ranked last sits at the root.
type farthestFirst []domain.ScoredRecord

func (h farthestFirst) Len() int           { return len(h) }
func (h farthestFirst) Less(i, j int) bool { return less(h[j], h[i]) }
func (h farthestFirst) Swap(i, j int)      { h[i], h[j] = h[j], h[i] }

func (h *farthestFirst) Push(x any) { *h = append(*h, x.(domain.ScoredRecord)) }

func (h *farthestFirst) Pop() any {
	old := *h
	n := len(old)
	x := old[n-1]
	*h = old[:n-1]
	return x
}

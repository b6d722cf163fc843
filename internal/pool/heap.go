package pool

import (
	"container/heap"

	"github.com/apertium/apertium-apy/internal/pipeline"
)

// pipeItem is one heap entry; index is maintained by heap.Interface
// callbacks to support O(log n) arbitrary removal via heap.Remove.
type pipeItem struct {
	pipe  *pipeline.Pipeline
	index int
}

// pipeHeap orders Pipelines by ascending users, ties broken by ascending
// lastUsage, so the least-loaded (and, among equals, least-recently-used)
// pipe is always at the root.
type pipeHeap []*pipeItem

func (h pipeHeap) Len() int { return len(h) }

func (h pipeHeap) Less(i, j int) bool {
	ui, uj := h[i].pipe.Users(), h[j].pipe.Users()
	if ui != uj {
		return ui < uj
	}
	return h[i].pipe.LastUsage().Before(h[j].pipe.LastUsage())
}

func (h pipeHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *pipeHeap) Push(x any) {
	item := x.(*pipeItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *pipeHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	item.index = -1
	*h = old[:n-1]
	return item
}

// pairHeap is a per-pair collection of Pipelines ordered by load, keyed by
// DebugID so a specific pipe can be found and removed in O(log n).
type pairHeap struct {
	h       pipeHeap
	entries map[int64]*pipeItem
}

func newPairHeap() *pairHeap {
	h := pipeHeap{}
	heap.Init(&h)
	return &pairHeap{h: h, entries: make(map[int64]*pipeItem)}
}

func (ph *pairHeap) Len() int { return len(ph.h) }

// Insert adds pipe to the heap.
func (ph *pairHeap) Insert(pipe *pipeline.Pipeline) {
	item := &pipeItem{pipe: pipe}
	ph.entries[pipe.DebugID] = item
	heap.Push(&ph.h, item)
}

// Peek returns the least-loaded pipe without removing it.
func (ph *pairHeap) Peek() (*pipeline.Pipeline, bool) {
	if len(ph.h) == 0 {
		return nil, false
	}
	return ph.h[0].pipe, true
}

// Fix re-establishes heap order for pipe after its users/lastUsage changed.
func (ph *pairHeap) Fix(pipe *pipeline.Pipeline) {
	if item, ok := ph.entries[pipe.DebugID]; ok {
		heap.Fix(&ph.h, item.index)
	}
}

// Remove removes pipe from the heap, if present.
func (ph *pairHeap) Remove(pipe *pipeline.Pipeline) {
	item, ok := ph.entries[pipe.DebugID]
	if !ok {
		return
	}
	heap.Remove(&ph.h, item.index)
	delete(ph.entries, pipe.DebugID)
}

// All returns every pipe currently in the heap, in no particular order.
func (ph *pairHeap) All() []*pipeline.Pipeline {
	out := make([]*pipeline.Pipeline, 0, len(ph.h))
	for _, item := range ph.h {
		out = append(out, item.pipe)
	}
	return out
}

// AtOrAfterIndex returns the pipes ranked at position idx or later when
// ordered by (users, lastUsage). Used by eviction to protect the
// min_pipes_per_pair floor: since a container/heap array does not keep a
// fully sorted order beyond the root, ranks are re-derived by sorting
// rather than taken from raw slice position.
func (ph *pairHeap) AtOrAfterIndex(idx int) []*pipeline.Pipeline {
	all := ph.All()
	if idx >= len(all) {
		return nil
	}
	// Sort a copy by the same comparator the heap uses, to get a stable
	// rank ordering independent of the heap's internal array layout.
	ranked := make([]*pipeline.Pipeline, len(all))
	copy(ranked, all)
	for i := 1; i < len(ranked); i++ {
		for j := i; j > 0 && less(ranked[j], ranked[j-1]); j-- {
			ranked[j], ranked[j-1] = ranked[j-1], ranked[j]
		}
	}
	return ranked[idx:]
}

func less(a, b *pipeline.Pipeline) bool {
	ua, ub := a.Users(), b.Users()
	if ua != ub {
		return ua < ub
	}
	return a.LastUsage().Before(b.LastUsage())
}

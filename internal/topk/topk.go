// Package topk selects the k best scored items with a bounded min-heap.
package topk

import "container/heap"

// Item is an ID with a score. Higher scores rank first; equal scores rank
// the lower ID first.
type Item struct {
	ID    int
	Score float64
}

// Collector keeps the k best items pushed so far.
type Collector struct {
	limit int
	h     itemHeap
}

func New(k int) *Collector {
	if k <= 0 {
		k = 10
	}
	return &Collector{limit: k, h: make(itemHeap, 0, k+1)}
}

func (c *Collector) Push(id int, score float64) {
	heap.Push(&c.h, Item{ID: id, Score: score})
	if c.h.Len() > c.limit {
		heap.Pop(&c.h)
	}
}

func (c *Collector) Len() int { return c.h.Len() }

// Sorted drains the collector, best item first.
func (c *Collector) Sorted() []Item {
	result := make([]Item, c.h.Len())
	for i := len(result) - 1; i >= 0; i-- {
		result[i] = heap.Pop(&c.h).(Item)
	}
	return result
}

// Select returns the k best of items, best first.
func Select(items []Item, k int) []Item {
	c := New(k)
	for _, it := range items {
		c.Push(it.ID, it.Score)
	}
	return c.Sorted()
}

type itemHeap []Item

func (h itemHeap) Len() int { return len(h) }

func (h itemHeap) Less(i, j int) bool {
	if h[i].Score != h[j].Score {
		return h[i].Score < h[j].Score
	}
	return h[i].ID > h[j].ID
}

func (h itemHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }

func (h *itemHeap) Push(x interface{}) {
	*h = append(*h, x.(Item))
}

func (h *itemHeap) Pop() interface{} {
	old := *h
	n := len(old)
	item := old[n-1]
	*h = old[:n-1]
	return item
}

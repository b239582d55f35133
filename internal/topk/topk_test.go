package topk

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSelectKeepsBest(t *testing.T) {
	items := []Item{{0, 0.1}, {1, 0.9}, {2, 0.5}, {3, 0.9}, {4, -1}}
	got := Select(items, 3)
	assert.Equal(t, []Item{{1, 0.9}, {3, 0.9}, {2, 0.5}}, got)
}

func TestSelectFewerThanK(t *testing.T) {
	got := Select([]Item{{7, 2}}, 5)
	assert.Equal(t, []Item{{7, 2}}, got)
	assert.Empty(t, Select(nil, 2))
}

func BenchmarkCollector(b *testing.B) {
	b.ReportAllocs()
	for i := 0; i < b.N; i++ {
		c := New(10)
		for j := 0; j < 1000; j++ {
			c.Push(j, float64((j*7919)%1000))
		}
		_ = c.Sorted()
	}
}

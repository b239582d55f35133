package oversample

import (
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/topk"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vectorizer"
)

// space holds the L2-normalised weight vectors of every document.
type space struct {
	docs []*vector.Sparse
}

func newSpace(ix *index.Index) *space {
	v := vectorizer.New(ix)
	s := &space{docs: make([]*vector.Sparse, ix.DocumentCount())}
	for d := range s.docs {
		s.docs[d] = v.DocumentWeights(d)
		s.docs[d].Normalize()
	}
	return s
}

// nearest returns the k documents of pool most similar to doc, excluding
// doc itself, best first.
func (s *space) nearest(doc int, pool []int, k int) []int {
	col := topk.New(k)
	for _, other := range pool {
		if other == doc {
			continue
		}
		col.Push(other, vector.Dot(s.docs[doc], s.docs[other]))
	}
	items := col.Sorted()
	out := make([]int, len(items))
	for i, it := range items {
		out[i] = it.ID
	}
	return out
}

func allDocuments(n int) []int {
	out := make([]int, n)
	for i := range out {
		out[i] = i
	}
	return out
}

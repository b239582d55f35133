// Package learnertest provides small separable indices for learner tests.
package learnertest

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
)

type doc struct {
	name string
	occ  []index.Occurrence
	cats []string
}

func build(t testing.TB, docs []doc) *index.Index {
	t.Helper()
	b := index.NewBuilder()
	_, err := b.AddCategory("pos", "")
	require.NoError(t, err)
	for _, d := range docs {
		_, err := b.AddDocument(d.name, d.occ, d.cats)
		require.NoError(t, err)
	}
	return b.Build()
}

// Train returns two "pos" documents and three negatives with disjoint
// vocabularies.
func Train(t testing.TB) *index.Index {
	return build(t, []doc{
		{"p0", []index.Occurrence{{Feature: "good", Frequency: 3}, {Feature: "great", Frequency: 1}}, []string{"pos"}},
		{"p1", []index.Occurrence{{Feature: "good", Frequency: 2}, {Feature: "nice", Frequency: 2}}, []string{"pos"}},
		{"n0", []index.Occurrence{{Feature: "bad", Frequency: 3}, {Feature: "awful", Frequency: 1}}, nil},
		{"n1", []index.Occurrence{{Feature: "bad", Frequency: 2}, {Feature: "poor", Frequency: 2}}, nil},
		{"n2", []index.Occurrence{{Feature: "awful", Frequency: 2}, {Feature: "poor", Frequency: 1}}, nil},
	})
}

// Query returns a positive-looking document and a negative-looking one that
// also carries a feature unknown to Train.
func Query(t testing.TB) *index.Index {
	return build(t, []doc{
		{"q0", []index.Occurrence{{Feature: "good", Frequency: 1}, {Feature: "great", Frequency: 1}}, []string{"pos"}},
		{"q1", []index.Occurrence{{Feature: "bad", Frequency: 1}, {Feature: "unseen", Frequency: 3}}, nil},
	})
}

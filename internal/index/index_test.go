package index

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

func occ(pairs ...any) []Occurrence {
	out := make([]Occurrence, 0, len(pairs)/2)
	for i := 0; i < len(pairs); i += 2 {
		out = append(out, Occurrence{Feature: pairs[i].(string), Frequency: pairs[i+1].(int)})
	}
	return out
}

// sampleIndex: 4 documents, features alpha..delta, categories sport/politics.
func sampleIndex(t *testing.T) *Index {
	t.Helper()
	b := NewBuilder()
	_, err := b.AddCategory("news", "")
	require.NoError(t, err)
	_, err = b.AddCategory("sport", "news")
	require.NoError(t, err)
	_, err = b.AddDocument("d0", occ("alpha", 2, "beta", 1), []string{"sport"})
	require.NoError(t, err)
	_, err = b.AddDocument("d1", occ("beta", 3, "gamma", 1), []string{"politics"})
	require.NoError(t, err)
	_, err = b.AddDocument("d2", occ("alpha", 1, "gamma", 4, "alpha", 1), []string{"sport", "politics"})
	require.NoError(t, err)
	_, err = b.AddDocument("d3", occ("delta", 5), nil)
	require.NoError(t, err)
	return b.Build()
}

func TestBuilderShape(t *testing.T) {
	ix := sampleIndex(t)
	assert.Equal(t, 4, ix.DocumentCount())
	assert.Equal(t, 4, ix.FeatureCount())
	assert.Equal(t, 3, ix.CategoryCount())

	alpha, ok := ix.FeatureID("alpha")
	require.True(t, ok)
	d2, _ := ix.DocumentID("d2")
	assert.Equal(t, 2, ix.DocumentFeatureFrequency(d2, alpha), "repeated occurrences are summed")
	assert.Equal(t, 2.0, ix.DocumentFeatureWeight(d2, alpha))
	assert.Equal(t, 6, ix.DocumentLength(d2))

	sport, _ := ix.CategoryID("sport")
	news, _ := ix.CategoryID("news")
	assert.Equal(t, news, ix.CategoryParent(sport))
	assert.Equal(t, []int16{sport}, ix.CategoryChildren(news))
	assert.Equal(t, 2, ix.CategoryDocumentCount(sport))
}

func TestBuilderRejectsDuplicateDocument(t *testing.T) {
	b := NewBuilder()
	_, err := b.AddDocument("x", occ("a", 1), nil)
	require.NoError(t, err)
	_, err = b.AddDocument("x", occ("b", 1), nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestFeatureCategoryDocumentsIsIntersection(t *testing.T) {
	b := NewBuilder()
	for d := 0; d < 200; d++ {
		var o []Occurrence
		if d%3 == 0 {
			o = append(o, Occurrence{Feature: "f", Frequency: 1})
		}
		o = append(o, Occurrence{Feature: "g", Frequency: 1})
		var cats []string
		if d%5 == 0 {
			cats = []string{"c"}
		}
		_, err := b.AddDocument(fmt.Sprintf("doc%d", d), o, cats)
		require.NoError(t, err)
	}
	ix := b.Build()
	f, _ := ix.FeatureID("f")
	c, _ := ix.CategoryID("c")

	var want []int
	for d := 0; d < 200; d++ {
		if d%15 == 0 {
			want = append(want, d)
		}
	}
	it := ix.FeatureCategoryDocuments(f, c)
	assert.Equal(t, want, Collect(it))

	it.Reset()
	assert.Equal(t, want, Collect(it), "iterator restarts after Reset")
}

func TestCloneIsIndependent(t *testing.T) {
	ix := sampleIndex(t)
	clone := ix.Clone()
	require.NoError(t, clone.RemoveDocuments([]int{0, 2}, true))

	assert.Equal(t, 4, ix.DocumentCount())
	assert.Equal(t, 4, ix.FeatureCount())
	sport, _ := ix.CategoryID("sport")
	assert.Equal(t, 2, ix.CategoryDocumentCount(sport))
	assert.Equal(t, []int16{sport}, ix.DocumentCategories(0))

	assert.Equal(t, 2, clone.DocumentCount())
	_, hasAlpha := clone.FeatureID("alpha")
	assert.False(t, hasAlpha, "alpha only occurred in removed documents")
}

func TestRemoveDocumentsCascades(t *testing.T) {
	ix := sampleIndex(t)
	require.NoError(t, ix.RemoveDocuments([]int{1, 1}, false))

	assert.Equal(t, 3, ix.DocumentCount())
	assert.Equal(t, 4, ix.FeatureCount(), "features stay without compaction")
	d2, ok := ix.DocumentID("d2")
	require.True(t, ok)
	assert.Equal(t, 1, d2, "IDs are compacted")
	politics, _ := ix.CategoryID("politics")
	assert.Equal(t, []int{1}, Collect(ix.CategoryDocuments(politics)))
	gamma, _ := ix.FeatureID("gamma")
	assert.Equal(t, []int{1}, Collect(ix.FeatureDocuments(gamma)))
	assert.Equal(t, 4.0, ix.DocumentFeatureWeight(d2, gamma))
}

func TestRemoveRejectsOutOfRange(t *testing.T) {
	ix := sampleIndex(t)
	err := ix.RemoveDocuments([]int{0, 99}, false)
	assert.ErrorIs(t, err, apperrors.ErrOutOfRange)
	assert.Equal(t, 4, ix.DocumentCount(), "failed removal leaves the index untouched")

	assert.NoError(t, ix.RemoveFeatures(nil))
	assert.ErrorIs(t, ix.RemoveCategories([]int16{7}), apperrors.ErrOutOfRange)
}

func TestRemoveFeaturesAndCategories(t *testing.T) {
	ix := sampleIndex(t)
	beta, _ := ix.FeatureID("beta")
	sport, _ := ix.CategoryID("sport")
	require.NoError(t, ix.SetDomain(sport, []int{beta}))
	require.NoError(t, ix.RemoveFeatures([]int{beta}))
	assert.Equal(t, 3, ix.FeatureCount())
	assert.Empty(t, ix.DocumentFeaturesIn(0, sport), "domain lost its only feature")

	news, _ := ix.CategoryID("news")
	require.NoError(t, ix.RemoveCategories([]int16{news}))
	sport, _ = ix.CategoryID("sport")
	assert.Equal(t, int16(-1), ix.CategoryParent(sport))
	assert.Equal(t, 2, ix.CategoryDocumentCount(sport))
}

func TestDomainConditionedAccessors(t *testing.T) {
	ix := sampleIndex(t)
	sport, _ := ix.CategoryID("sport")
	alpha, _ := ix.FeatureID("alpha")
	beta, _ := ix.FeatureID("beta")

	assert.Equal(t, ix.DocumentFeatures(0), ix.DocumentFeaturesIn(0, sport), "global without domain")
	assert.Equal(t, 1.0, ix.DocumentFeatureWeightIn(0, beta, sport))

	require.NoError(t, ix.SetDomain(sport, []int{alpha}))
	assert.Equal(t, []int{alpha}, ix.DocumentFeaturesIn(0, sport))
	assert.Equal(t, 0.0, ix.DocumentFeatureWeightIn(0, beta, sport))
	assert.Equal(t, 2.0, ix.DocumentFeatureWeightIn(0, alpha, sport))

	ix.ClearDomain(sport)
	assert.False(t, ix.HasDomain(sport))
}

func TestCategoryView(t *testing.T) {
	ix := sampleIndex(t)
	politics, _ := ix.CategoryID("politics")
	view, err := ix.CategoryView(politics)
	require.NoError(t, err)
	assert.Equal(t, 1, view.CategoryCount())
	assert.Equal(t, "politics", view.CategoryName(0))
	assert.Equal(t, []int{1, 2}, Collect(view.CategoryDocuments(0)))
	assert.Equal(t, 3, ix.CategoryCount())
}

func TestAccessorsFailFast(t *testing.T) {
	ix := sampleIndex(t)
	assert.Panics(t, func() { ix.DocumentName(4) })
	assert.Panics(t, func() { ix.FeatureDocuments(-1) })
	assert.Panics(t, func() { ix.CategoryDocumentCount(3) })
}

func TestSetWeightingValidates(t *testing.T) {
	ix := sampleIndex(t)
	assert.ErrorIs(t, ix.SetWeighting(NewWeightingTable(make([][]Weight, 2))), apperrors.ErrInvalidInput)

	rows := make([][]Weight, 4)
	rows[3] = []Weight{{Feature: 9, Value: 1}}
	assert.ErrorIs(t, ix.SetWeighting(NewWeightingTable(rows)), apperrors.ErrOutOfRange)

	rows[3] = []Weight{{Feature: 3, Value: 0.5}, {Feature: 0, Value: 0}}
	require.NoError(t, ix.SetWeighting(NewWeightingTable(rows)))
	assert.Len(t, ix.DocumentWeights(3), 1, "zero weights are dropped")
}

func BenchmarkFeatureCategoryDocuments(b *testing.B) {
	builder := NewBuilder()
	for d := 0; d < 20000; d++ {
		o := []Occurrence{{Feature: fmt.Sprintf("f%d", d%50), Frequency: 1}}
		var cats []string
		if d%7 == 0 {
			cats = []string{"c"}
		}
		builder.AddDocument(fmt.Sprintf("doc%d", d), o, cats)
	}
	ix := builder.Build()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		_ = Collect(ix.FeatureCategoryDocuments(i%50, 0))
	}
}

func TestSnapshotRoundTrip(t *testing.T) {
	ix := sampleIndex(t)
	sport, _ := ix.CategoryID("sport")
	alpha, _ := ix.FeatureID("alpha")
	require.NoError(t, ix.SetDomain(sport, []int{alpha}))

	back, err := FromSnapshot(ix.Snapshot())
	require.NoError(t, err)
	assert.Equal(t, ix.DocumentCount(), back.DocumentCount())
	assert.Equal(t, ix.FeatureCount(), back.FeatureCount())
	for doc := 0; doc < ix.DocumentCount(); doc++ {
		assert.Equal(t, ix.DocumentEntries(doc), back.DocumentEntries(doc))
		assert.Equal(t, ix.DocumentWeights(doc), back.DocumentWeights(doc))
		assert.Equal(t, ix.DocumentCategories(doc), back.DocumentCategories(doc))
	}
	news, _ := back.CategoryID("news")
	assert.Equal(t, news, back.CategoryParent(sport))
	assert.Equal(t, []int{alpha}, back.DocumentFeaturesIn(0, sport))
}

func TestFromSnapshotRejectsBadReferences(t *testing.T) {
	s := sampleIndex(t).Snapshot()
	s.Content[0] = append(s.Content[0], Entry{Feature: 40, Frequency: 1})
	_, err := FromSnapshot(s)
	assert.ErrorIs(t, err, apperrors.ErrOutOfRange)

	s = sampleIndex(t).Snapshot()
	s.Labels = s.Labels[:2]
	_, err = FromSnapshot(s)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

package dro

import (
	"context"
	"fmt"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// imbalanced returns 110 documents of which every 11th (10 in total) is
// labelled "pos".
func imbalanced(t testing.TB) *index.Index {
	t.Helper()
	b := index.NewBuilder()
	_, err := b.AddCategory("pos", "")
	require.NoError(t, err)
	for i := 0; i < 110; i++ {
		var occ []index.Occurrence
		var cats []string
		if i%11 == 0 {
			occ = []index.Occurrence{
				{Feature: "alpha", Frequency: 1 + i%3},
				{Feature: "beta", Frequency: 1},
				{Feature: "common", Frequency: 1},
			}
			cats = []string{"pos"}
		} else {
			occ = []index.Occurrence{
				{Feature: "gamma", Frequency: 1 + i%4},
				{Feature: "delta", Frequency: 1 + i%2},
				{Feature: "common", Frequency: 2},
			}
		}
		_, err := b.AddDocument(fmt.Sprintf("doc%d", i), occ, cats)
		require.NoError(t, err)
	}
	return b.Build()
}

func newEngine(t testing.TB, base *index.Index, cust Customizer) *Engine {
	t.Helper()
	model, err := NewDistributionModel(base, ModelConfig{LatentDimensions: -1})
	require.NoError(t, err)
	e, err := NewEngine(model, cust, nil)
	require.NoError(t, err)
	require.NoError(t, e.SetSupervisedWeighting(base))
	return e
}

func TestComputeReachesTrainReplicants(t *testing.T) {
	ix := imbalanced(t)
	cust := DefaultCustomizer()
	cust.TrainReplicants = 100
	e := newEngine(t, ix, cust)
	assert.Equal(t, 10, e.Positives())

	out, err := e.Compute(context.Background(), ix, false)
	require.NoError(t, err)
	assert.Equal(t, 200, out.DocumentCount())
	assert.Equal(t, 100, out.CategoryDocumentCount(0))
	assert.Equal(t, ix.DocumentCount(), out.FeatureCount(), "one latent feature per base document")

	first, ok := out.DocumentID("doc0_9")
	require.True(t, ok)
	assert.Equal(t, 9, first, "replicates of doc0 come first")
	_, ok = out.DocumentID("doc1_1")
	assert.False(t, ok, "negatives are not replicated")
	for d := 0; d < out.DocumentCount(); d++ {
		assert.NotEmpty(t, out.DocumentWeights(d), "document %s", out.DocumentName(d))
	}
}

func TestComputeUnevenSpreadGoesToEarliestPositives(t *testing.T) {
	ix := imbalanced(t)
	cust := DefaultCustomizer()
	cust.TrainReplicants = 23
	out, err := newEngine(t, ix, cust).Compute(context.Background(), ix, false)
	require.NoError(t, err)
	assert.Equal(t, 23, out.CategoryDocumentCount(0))
	_, ok := out.DocumentID("doc0_2")
	assert.True(t, ok)
	_, ok = out.DocumentID("doc22_2")
	assert.True(t, ok)
	_, ok = out.DocumentID("doc33_2")
	assert.False(t, ok)
}

func TestComputeIsDeterministicAcrossWorkerCounts(t *testing.T) {
	ix := imbalanced(t)
	cust := DefaultCustomizer()
	cust.TrainReplicants = 50
	cust.Density = High

	cust.MaxWorkers = 1
	a, err := newEngine(t, ix, cust).Compute(context.Background(), ix, false)
	require.NoError(t, err)
	cust.MaxWorkers = 8
	b, err := newEngine(t, ix, cust).Compute(context.Background(), ix, false)
	require.NoError(t, err)

	require.Equal(t, a.DocumentCount(), b.DocumentCount())
	for d := 0; d < a.DocumentCount(); d++ {
		assert.Equal(t, a.DocumentName(d), b.DocumentName(d))
		assert.Equal(t, a.DocumentEntries(d), b.DocumentEntries(d))
		assert.Equal(t, a.DocumentWeights(d), b.DocumentWeights(d))
	}
}

func TestComputeExpectationWhenNothingToSpread(t *testing.T) {
	ix := imbalanced(t)
	cust := DefaultCustomizer()
	cust.TrainReplicants = 10
	cust.Seed = 1
	a, err := newEngine(t, ix, cust).Compute(context.Background(), ix, false)
	require.NoError(t, err)
	cust.Seed = 99
	b, err := newEngine(t, ix, cust).Compute(context.Background(), ix, false)
	require.NoError(t, err)

	assert.Equal(t, ix.DocumentCount(), a.DocumentCount())
	for d := 0; d < a.DocumentCount(); d++ {
		assert.Equal(t, a.DocumentWeights(d), b.DocumentWeights(d), "expectation does not depend on the seed")
	}
}

func TestComputeTestReplicantsAndProgress(t *testing.T) {
	ix := imbalanced(t)
	cust := DefaultCustomizer()
	cust.TestReplicants = 3
	cust.UseSoftmax = true
	e := newEngine(t, ix, cust)
	var calls atomic.Int64
	e.SetProgress(func(done, total int) {
		calls.Add(1)
		assert.LessOrEqual(t, done, total)
	})

	out, err := e.Compute(context.Background(), ix, true)
	require.NoError(t, err)
	assert.Equal(t, 330, out.DocumentCount())
	assert.Equal(t, 30, out.CategoryDocumentCount(0))
	assert.Equal(t, "doc0_0", out.DocumentName(0))
	assert.Equal(t, "doc1_2", out.DocumentName(5))
	assert.Equal(t, int64(110), calls.Load())
}

func TestComputeRejectsMultiCategoryAndUncalibrated(t *testing.T) {
	ix := imbalanced(t)
	model, err := NewDistributionModel(ix, ModelConfig{LatentDimensions: -1})
	require.NoError(t, err)
	e, err := NewEngine(model, DefaultCustomizer(), nil)
	require.NoError(t, err)

	_, err = e.Compute(context.Background(), ix, false)
	assert.ErrorIs(t, err, apperrors.ErrNotCalibrated)

	b := index.NewBuilder()
	_, err = b.AddDocument("x", []index.Occurrence{{Feature: "alpha", Frequency: 1}}, []string{"a", "b"})
	require.NoError(t, err)
	multi := b.Build()
	assert.ErrorIs(t, e.SetSupervisedWeighting(multi), apperrors.ErrMultiCategory)

	require.NoError(t, e.SetSupervisedWeighting(ix))
	_, err = e.Compute(context.Background(), multi, true)
	assert.ErrorIs(t, err, apperrors.ErrMultiCategory)
	assert.Equal(t, apperrors.ExitConfiguration, apperrors.ExitCode(err))
}

func TestComputeHonoursCancellation(t *testing.T) {
	ix := imbalanced(t)
	e := newEngine(t, ix, DefaultCustomizer())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := e.Compute(ctx, ix, true)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewEngineValidatesCustomizer(t *testing.T) {
	model, err := NewDistributionModel(imbalanced(t), ModelConfig{LatentDimensions: -1})
	require.NoError(t, err)
	cust := DefaultCustomizer()
	cust.MaxWorkers = 0
	_, err = NewEngine(model, cust, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)

	_, err = ParseDensity("medium")
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	d, err := ParseDensity("VERYHIGH")
	require.NoError(t, err)
	assert.Equal(t, VeryHigh, d)
}

func TestModelRandomIndexing(t *testing.T) {
	ix := imbalanced(t)
	m, err := NewDistributionModel(ix, ModelConfig{LatentDimensions: 4, RandomIndexing: true, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, 4, m.LatentDimensions())
	for d := 0; d < ix.DocumentCount(); d++ {
		assert.GreaterOrEqual(t, m.Assignment(d), 0)
		assert.Less(t, m.Assignment(d), 4)
	}
	again, err := NewDistributionModel(ix, ModelConfig{LatentDimensions: 4, RandomIndexing: true, Seed: 7})
	require.NoError(t, err)
	assert.Equal(t, m.assignment, again.assignment)
}

func TestModelMinGroupsAndDimensionReduction(t *testing.T) {
	b := index.NewBuilder()
	_, err := b.AddDocument("a", []index.Occurrence{{Feature: "shared", Frequency: 1}, {Feature: "rare", Frequency: 2}}, nil)
	require.NoError(t, err)
	_, err = b.AddDocument("b", []index.Occurrence{{Feature: "shared", Frequency: 3}}, nil)
	require.NoError(t, err)
	_, err = b.AddDocument("c", nil, nil)
	require.NoError(t, err)
	base := b.Build()

	m, err := NewDistributionModel(base, ModelConfig{LatentDimensions: -1, MinGroups: 2, DimensionReduction: true})
	require.NoError(t, err)
	rare, _ := base.FeatureID("rare")
	shared, _ := base.FeatureID("shared")
	assert.Equal(t, 0, m.Profile(rare).NonZero(), "rare occurs in a single group")
	assert.Equal(t, 2, m.LatentDimensions(), "the empty document's dimension is dropped")
	assert.Equal(t, -1, m.Assignment(2))
	assert.Equal(t, 3.0, m.Profile(shared).Get(m.Assignment(1)))
	assert.NotSame(t, base, m.Base(), "the model works on a copy")
}

func TestOriginalName(t *testing.T) {
	tests := []struct {
		in   string
		want string
		ok   bool
	}{
		{"doc_12", "doc", true},
		{"my_doc_3", "my_doc", true},
		{"doc", "doc", false},
		{"doc_", "doc_", false},
		{"doc_x1", "doc_x1", false},
	}
	for _, tt := range tests {
		got, ok := OriginalName(tt.in)
		assert.Equal(t, tt.want, got, tt.in)
		assert.Equal(t, tt.ok, ok, tt.in)
	}
	assert.Equal(t, "my_doc_3", ReplicateName("my_doc", 3))
}

func TestMergeKeepsBOWThenLatent(t *testing.T) {
	bb := index.NewBuilder()
	var full []index.Occurrence
	for f := 0; f < 10; f++ {
		full = append(full, index.Occurrence{Feature: fmt.Sprintf("w%d", f), Frequency: f + 1, Weight: 0.1 * float64(f+1)})
	}
	_, err := bb.AddDocument("a", full, []string{"pos"})
	require.NoError(t, err)
	_, err = bb.AddDocument("b", full[:3], nil)
	require.NoError(t, err)
	bow := bb.Build()

	lb := index.NewBuilder()
	_, err = lb.AddCategory("pos", "")
	require.NoError(t, err)
	for l := 0; l < 5; l++ {
		lb.AddFeature(LatentFeatureName(l))
	}
	for _, d := range []struct {
		name string
		cats []string
	}{{"a_0", []string{"pos"}}, {"a_1", []string{"pos"}}, {"b_0", nil}, {"zz_0", nil}} {
		_, err := lb.AddDocument(d.name, []index.Occurrence{
			{Feature: LatentFeatureName(1), Frequency: 2, Weight: 0.8},
			{Feature: LatentFeatureName(4), Frequency: 1, Weight: 0.6},
		}, d.cats)
		require.NoError(t, err)
	}
	latent := lb.Build()

	merged, skipped, err := Merge(latent, bow, nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"zz_0"}, skipped)
	assert.Equal(t, 3, merged.DocumentCount())
	assert.Equal(t, 15, merged.FeatureCount())

	a1, ok := merged.DocumentID("a_1")
	require.True(t, ok)
	weights := merged.DocumentWeights(a1)
	require.Len(t, weights, 12)
	assert.Equal(t, bow.DocumentWeights(0), weights[:10])
	assert.Equal(t, index.Weight{Feature: 11, Value: 0.8}, weights[10])
	assert.Equal(t, "latent_4", merged.FeatureName(weights[11].Feature))
	assert.True(t, merged.DocumentHasCategory(a1, 0))

	b0, _ := merged.DocumentID("b_0")
	assert.Len(t, merged.DocumentFeatures(b0), 5)
}

func TestMergeRejectsFeatureClash(t *testing.T) {
	bb := index.NewBuilder()
	_, err := bb.AddDocument("a", []index.Occurrence{{Feature: LatentFeatureName(0), Frequency: 1}}, nil)
	require.NoError(t, err)
	ix := bb.Build()
	_, _, err = Merge(ix, ix, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestDecomposeMajority(t *testing.T) {
	ob := index.NewBuilder()
	sb := index.NewBuilder()
	for _, name := range []string{"x", "y", "z"} {
		_, err := ob.AddDocument(name, []index.Occurrence{{Feature: "f", Frequency: 1}}, []string{"pos"})
		require.NoError(t, err)
	}
	for _, name := range []string{"x_0", "x_1", "x_2", "y_0", "y_1"} {
		_, err := sb.AddDocument(name, []index.Occurrence{{Feature: "f", Frequency: 1}}, []string{"pos"})
		require.NoError(t, err)
	}
	original, synthetic := ob.Build(), sb.Build()
	scores := []float64{0.5, 0.2, -0.1, 0.3, -0.5}
	var results []learner.ClassificationResult
	for d, s := range scores {
		results = append(results, learner.ClassificationResult{DocumentID: d, Categories: []int16{0}, Scores: []float64{s}})
	}

	border := learner.ClassifierRange{Border: 0, Minimum: -1, Maximum: 1}
	out, err := DecomposeMajority(synthetic, results, original, 0, border)
	require.NoError(t, err)
	require.Len(t, out, 3)

	x, _ := out[0].Score(0)
	assert.InDelta(t, 2.0/3, x, 1e-12)
	assert.True(t, VoteRange.Positive(x))
	y, _ := out[1].Score(0)
	assert.False(t, VoteRange.Positive(y), "even split with negative mean score")
	_, scored := out[2].Score(0)
	assert.False(t, scored, "documents without replicates are unscored")

	_, err = DecomposeMajority(synthetic, results, synthetic, 0, border)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)
}

func BenchmarkComputeTrain(b *testing.B) {
	ix := imbalanced(b)
	cust := DefaultCustomizer()
	cust.TrainReplicants = 200
	e := newEngine(b, ix, cust)
	ctx := context.Background()
	b.ReportAllocs()
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := e.Compute(ctx, ix, false); err != nil {
			b.Fatal(err)
		}
	}
}

package threshold

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner/learnertest"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner/rocchio"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

func halfStep(metric evaluation.Metric) Config {
	return Config{Minimum: -1, Maximum: 1, Step: 0.5, Metric: metric, Precision: 3}
}

func TestCandidatesHitZero(t *testing.T) {
	c := Config{Minimum: -1, Maximum: 1, Step: 0.1}
	got := c.Candidates()
	require.Len(t, got, 21)
	assert.Equal(t, 0.0, got[10])
	assert.Equal(t, 1.0, got[20])
	assert.Equal(t, []float64{-1, -0.5, 0, 0.5, 1}, halfStep(evaluation.F1).Candidates())
}

func TestOptimizeScores(t *testing.T) {
	tests := []struct {
		name   string
		metric evaluation.Metric
		scores []float64
		labels []bool
		border float64
		eff    float64
	}{
		{
			name:   "tie between zero and a positive border keeps zero",
			metric: evaluation.F1,
			scores: []float64{0.6, -0.2},
			labels: []bool{true, false},
			border: 0,
			eff:    1,
		},
		{
			name:   "tie keeps the border closest to zero",
			metric: evaluation.F1,
			scores: []float64{0.2, -0.1, 0.3},
			labels: []bool{true, true, false},
			border: -0.5,
			eff:    0.8,
		},
		{
			name:   "mirrored tie keeps the non-negative border",
			metric: evaluation.Accuracy,
			scores: []float64{0.6, -0.2, 0.2},
			labels: []bool{true, true, false},
			border: 0.5,
			eff:    2.0 / 3,
		},
		{
			name:   "error is minimised",
			metric: evaluation.Error,
			scores: []float64{0.6, -0.2},
			labels: []bool{true, false},
			border: 0,
			eff:    0,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o, err := New(halfStep(tt.metric), nil)
			require.NoError(t, err)
			best, err := o.OptimizeScores(tt.scores, tt.labels)
			require.NoError(t, err)
			assert.Equal(t, tt.border, best.Border)
			assert.InDelta(t, tt.eff, best.Effectiveness, 1e-12)
		})
	}
}

func TestOptimizeScoresRejectsMismatch(t *testing.T) {
	o, err := New(halfStep(evaluation.F1), nil)
	require.NoError(t, err)
	_, err = o.OptimizeScores([]float64{1}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidInput)
}

func TestNewValidatesConfig(t *testing.T) {
	_, err := New(Config{Minimum: 1, Maximum: -1, Step: 0.1}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
	_, err = New(Config{Minimum: -1, Maximum: 1}, nil)
	assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
}

func TestOptimizeWithLearner(t *testing.T) {
	o, err := New(Config{Minimum: -1, Maximum: 1, Step: 0.1, Metric: evaluation.F1, Precision: 3}, nil)
	require.NoError(t, err)
	assert.Equal(t, NotOptimized, o.State("pos"))

	c, r, err := o.Optimize(context.Background(), rocchio.New(learner.Customizer{}), learnertest.Train(t), learnertest.Query(t), 0)
	require.NoError(t, err)
	assert.Equal(t, Optimized, o.State("pos"))
	assert.Equal(t, r, c.ClassifierRange(0))
	assert.Equal(t, -1.0, r.Minimum)
	assert.Equal(t, 1.0, r.Maximum)
	assert.Less(t, r.Border, 1.0)
}

func TestOptimizeRejectsCategoryMissingFromValidation(t *testing.T) {
	b := index.NewBuilder()
	_, err := b.AddDocument("v", []index.Occurrence{{Feature: "good", Frequency: 1}}, []string{"other"})
	require.NoError(t, err)
	o, err := New(halfStep(evaluation.F1), nil)
	require.NoError(t, err)

	_, _, err = o.Optimize(context.Background(), rocchio.New(learner.Customizer{}), learnertest.Train(t), b.Build(), 0)
	assert.ErrorIs(t, err, apperrors.ErrNotFound)

	_, _, err = o.Optimize(context.Background(), rocchio.New(learner.Customizer{}), learnertest.Train(t), learnertest.Query(t), 4)
	assert.ErrorIs(t, err, apperrors.ErrOutOfRange)
}

func TestAssignBestClassifierConfiguration(t *testing.T) {
	runs := []map[int16]learner.ClassifierRange{
		{0: {Border: 0.1234, Minimum: -1, Maximum: 1}, 1: {Border: 0.5, Minimum: 0, Maximum: 1}},
		{0: {Border: 0.2, Minimum: -2, Maximum: 0.5}},
	}
	got := AssignBestClassifierConfiguration(runs, 2)
	assert.Equal(t, learner.ClassifierRange{Border: 0.16, Minimum: -2, Maximum: 1}, got[0])
	assert.Equal(t, learner.ClassifierRange{Border: 0.5, Minimum: 0, Maximum: 1}, got[1])
}

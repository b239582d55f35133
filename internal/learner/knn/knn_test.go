package knn

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner/learnertest"
)

func TestNeighbourVote(t *testing.T) {
	ctx := context.Background()
	c, err := New(learner.Customizer{Neighbors: 3}).Build(ctx, learnertest.Train(t))
	require.NoError(t, err)

	results, err := learner.ClassifyAll(ctx, c, learnertest.Query(t))
	require.NoError(t, err)
	require.Len(t, results, 2)

	pos, _ := results[0].Score(0)
	neg, _ := results[1].Score(0)
	assert.Greater(t, pos, 0.0)
	assert.Less(t, neg, 0.0)
	assert.GreaterOrEqual(t, neg, -1.0)
}

func TestNeighborsAreRankedBySimilarity(t *testing.T) {
	train := learnertest.Train(t)
	c, err := New(learner.Customizer{Neighbors: 2}).Build(context.Background(), train)
	require.NoError(t, err)
	kc := c.(*Classifier)

	query := learnertest.Query(t)
	got := kc.Neighbors(kc.space.Project(query, 1))
	require.Len(t, got, 2)
	names := []string{train.DocumentName(got[0].ID), train.DocumentName(got[1].ID)}
	assert.Equal(t, []string{"n0", "n1"}, names)
	assert.GreaterOrEqual(t, got[0].Score, got[1].Score)
}

// Package knn implements a k-nearest-neighbour classifier over cosine
// similarity of L2-normalised weight vectors.
package knn

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/topk"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

const defaultNeighbors = 10

type Learner struct {
	k      int
	logger *slog.Logger
}

func New(c learner.Customizer) *Learner {
	k := c.Neighbors
	if k <= 0 {
		k = defaultNeighbors
	}
	return &Learner{k: k, logger: slog.Default().With("component", "knn")}
}

// Build stores the training vectors; no model is fitted.
func (l *Learner) Build(ctx context.Context, train *index.Index) (learner.Classifier, error) {
	if train.DocumentCount() == 0 {
		return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "knn: empty training index")
	}
	fs := learner.NewFeatureSpace(train)
	c := &Classifier{
		k:      l.k,
		space:  fs,
		train:  train,
		docs:   make([]*vector.Sparse, train.DocumentCount()),
		names:  make([]string, train.CategoryCount()),
		ranges: make([]learner.ClassifierRange, train.CategoryCount()),
	}
	for d := range c.docs {
		if d%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		c.docs[d] = fs.Project(train, d)
	}
	for cat := range c.names {
		c.names[cat] = train.CategoryName(int16(cat))
		c.ranges[cat] = learner.ClassifierRange{Border: 0, Minimum: -1, Maximum: 1}
	}
	l.logger.Debug("knn classifier built", "documents", len(c.docs), "neighbors", c.k)
	return c, nil
}

type Classifier struct {
	k      int
	space  *learner.FeatureSpace
	train  *index.Index
	docs   []*vector.Sparse
	names  []string
	ranges []learner.ClassifierRange
}

// Classify scores each document as (sum of similarities of positive
// neighbours - sum of similarities of negative neighbours) / k.
func (c *Classifier) Classify(ctx context.Context, ix *index.Index, cat int16) ([]learner.ClassificationResult, error) {
	if cat < 0 || int(cat) >= len(c.names) {
		return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "knn: category %d of %d", cat, len(c.names))
	}
	out := make([]learner.ClassificationResult, ix.DocumentCount())
	for d := range out {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		x := c.space.Project(ix, d)
		var score float64
		for _, n := range c.Neighbors(x) {
			if c.train.DocumentHasCategory(n.ID, cat) {
				score += n.Score
			} else {
				score -= n.Score
			}
		}
		out[d] = learner.ClassificationResult{
			DocumentID: d,
			Categories: []int16{cat},
			Scores:     []float64{score / float64(c.k)},
		}
	}
	return out, nil
}

// Neighbors returns the k training documents most similar to x.
func (c *Classifier) Neighbors(x *vector.Sparse) []topk.Item {
	col := topk.New(c.k)
	for id, y := range c.docs {
		col.Push(id, vector.Dot(x, y))
	}
	return col.Sorted()
}

func (c *Classifier) CategoryCount() int { return len(c.names) }

func (c *Classifier) CategoryName(cat int16) string { return c.names[cat] }

func (c *Classifier) ClassifierRange(cat int16) learner.ClassifierRange { return c.ranges[cat] }

func (c *Classifier) SetClassifierRange(cat int16, r learner.ClassifierRange) { c.ranges[cat] = r }

func (c *Classifier) SetRuntimeCustomizer(cust learner.Customizer) {
	if cust.Neighbors > 0 {
		c.k = cust.Neighbors
	}
	for cat, r := range cust.Ranges {
		if cat >= 0 && int(cat) < len(c.ranges) {
			c.ranges[cat] = r
		}
	}
}

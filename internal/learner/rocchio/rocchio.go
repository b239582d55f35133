// Package rocchio implements a Rocchio centroid classifier. Each category gets
// a prototype beta*mean(positives) - gamma*mean(negatives); a document's score
// is its cosine with the prototype.
package rocchio

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

const (
	defaultBeta  = 16
	defaultGamma = 4
)

// Learner builds Rocchio classifiers.
type Learner struct {
	beta   float64
	gamma  float64
	logger *slog.Logger
}

func New(c learner.Customizer) *Learner {
	l := &Learner{beta: c.Beta, gamma: c.Gamma, logger: slog.Default().With("component", "rocchio")}
	if l.beta == 0 {
		l.beta = defaultBeta
	}
	if l.gamma == 0 {
		l.gamma = defaultGamma
	}
	return l
}

func (l *Learner) Build(ctx context.Context, train *index.Index) (learner.Classifier, error) {
	if train.DocumentCount() == 0 {
		return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "rocchio: empty training index")
	}
	fs := learner.NewFeatureSpace(train)
	docs := make([]*vector.Sparse, train.DocumentCount())
	for d := range docs {
		docs[d] = fs.Project(train, d)
	}

	cats := train.CategoryCount()
	prototypes := vector.NewDenseMatrix(max(cats, 1), max(fs.Dim(), 1))
	for cat := int16(0); int(cat) < cats; cat++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		pos := train.CategoryDocumentCount(cat)
		neg := len(docs) - pos
		for d, x := range docs {
			if train.DocumentHasCategory(d, cat) {
				prototypes.AddToRow(int(cat), l.beta/float64(pos), x)
			} else {
				prototypes.AddToRow(int(cat), -l.gamma/float64(neg), x)
			}
		}
	}

	c := &Classifier{
		space:      fs,
		prototypes: prototypes,
		names:      make([]string, cats),
		ranges:     make([]learner.ClassifierRange, cats),
	}
	for cat := range c.names {
		c.names[cat] = train.CategoryName(int16(cat))
		c.ranges[cat] = learner.ClassifierRange{Border: 0, Minimum: -1, Maximum: 1}
	}
	l.logger.Debug("rocchio classifier built",
		"documents", len(docs),
		"features", fs.Dim(),
		"categories", cats,
	)
	return c, nil
}

// Classifier holds one prototype row per category.
type Classifier struct {
	space      *learner.FeatureSpace
	prototypes *vector.DenseMatrix
	names      []string
	ranges     []learner.ClassifierRange
}

func (c *Classifier) Classify(ctx context.Context, ix *index.Index, cat int16) ([]learner.ClassificationResult, error) {
	if cat < 0 || int(cat) >= len(c.names) {
		return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "rocchio: category %d of %d", cat, len(c.names))
	}
	proto := c.prototypes.Row(int(cat))
	out := make([]learner.ClassificationResult, ix.DocumentCount())
	for d := range out {
		if d%1024 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		x := c.space.Project(ix, d)
		var score float64
		if c.space.Dim() > 0 {
			score = vector.Cosine(x, proto)
		}
		out[d] = learner.ClassificationResult{
			DocumentID: d,
			Categories: []int16{cat},
			Scores:     []float64{score},
		}
	}
	return out, nil
}

func (c *Classifier) CategoryCount() int { return len(c.names) }

func (c *Classifier) CategoryName(cat int16) string { return c.names[cat] }

func (c *Classifier) ClassifierRange(cat int16) learner.ClassifierRange { return c.ranges[cat] }

func (c *Classifier) SetClassifierRange(cat int16, r learner.ClassifierRange) { c.ranges[cat] = r }

func (c *Classifier) SetRuntimeCustomizer(cust learner.Customizer) {
	for cat, r := range cust.Ranges {
		if cat >= 0 && int(cat) < len(c.ranges) {
			c.ranges[cat] = r
		}
	}
}

// Package learner defines the contract between the oversampling pipeline and
// the downstream classifiers: learners build classifiers from a training
// index, classifiers score documents per category against a ClassifierRange.
package learner

import (
	"context"
	"fmt"
	"sort"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vector"
)

// ClassifierRange is the score interval of a classifier for one category and
// the border separating positive from negative decisions.
type ClassifierRange struct {
	Border  float64 `cbor:"border" json:"border"`
	Minimum float64 `cbor:"minimum" json:"minimum"`
	Maximum float64 `cbor:"maximum" json:"maximum"`
}

// Positive reports whether score is a positive decision.
func (r ClassifierRange) Positive(score float64) bool {
	return score >= r.Border
}

// ClassificationResult lists the scored categories of one document. Scores[i]
// belongs to Categories[i].
type ClassificationResult struct {
	DocumentID int
	Categories []int16
	Scores     []float64
}

// Score returns the score of cat and whether it was scored.
func (r ClassificationResult) Score(cat int16) (float64, bool) {
	for i, c := range r.Categories {
		if c == cat {
			return r.Scores[i], true
		}
	}
	return 0, false
}

// Customizer carries runtime knobs. Ranges override the classifier's own
// ranges per category; the remaining fields are read by the learners that
// understand them.
type Customizer struct {
	Ranges    map[int16]ClassifierRange
	Neighbors int
	Beta      float64
	Gamma     float64
}

// Learner builds a classifier from a training index.
type Learner interface {
	Build(ctx context.Context, train *index.Index) (Classifier, error)
}

// Classifier scores documents of an index against categories of the
// training index it was built from. Documents are mapped onto the training
// feature space by feature name.
type Classifier interface {
	Classify(ctx context.Context, ix *index.Index, cat int16) ([]ClassificationResult, error)
	CategoryCount() int
	CategoryName(cat int16) string
	ClassifierRange(cat int16) ClassifierRange
	SetClassifierRange(cat int16, r ClassifierRange)
	SetRuntimeCustomizer(c Customizer)
}

// ClassifyAll scores every category of c and joins the per-category rows by
// document.
func ClassifyAll(ctx context.Context, c Classifier, ix *index.Index) ([]ClassificationResult, error) {
	out := make([]ClassificationResult, ix.DocumentCount())
	for d := range out {
		out[d].DocumentID = d
	}
	for cat := int16(0); int(cat) < c.CategoryCount(); cat++ {
		rows, err := c.Classify(ctx, ix, cat)
		if err != nil {
			return nil, fmt.Errorf("classify category %q: %w", c.CategoryName(cat), err)
		}
		for _, r := range rows {
			out[r.DocumentID].Categories = append(out[r.DocumentID].Categories, r.Categories...)
			out[r.DocumentID].Scores = append(out[r.DocumentID].Scores, r.Scores...)
		}
	}
	return out, nil
}

// FeatureSpace maps feature names of a training index to vector dimensions.
type FeatureSpace struct {
	ids map[string]int
}

func NewFeatureSpace(train *index.Index) *FeatureSpace {
	fs := &FeatureSpace{ids: make(map[string]int, train.FeatureCount())}
	for f := 0; f < train.FeatureCount(); f++ {
		fs.ids[train.FeatureName(f)] = f
	}
	return fs
}

func (fs *FeatureSpace) Dim() int { return len(fs.ids) }

// Project returns the L2-normalised weight vector of doc in ix, dropping
// features unknown to the space.
func (fs *FeatureSpace) Project(ix *index.Index, doc int) *vector.Sparse {
	out := vector.NewSparse(len(fs.ids))
	for _, w := range ix.DocumentWeights(doc) {
		if dim, ok := fs.ids[ix.FeatureName(w.Feature)]; ok {
			out.Set(dim, w.Value)
		}
	}
	out.Normalize()
	return out
}

// CategoryLabels returns, for every document of ix, whether it carries the
// category called name. Missing categories yield all false and ok == false.
func CategoryLabels(ix *index.Index, name string) (labels []bool, ok bool) {
	labels = make([]bool, ix.DocumentCount())
	cat, ok := ix.CategoryID(name)
	if !ok {
		return labels, false
	}
	for _, d := range index.Collect(ix.CategoryDocuments(cat)) {
		labels[d] = true
	}
	return labels, true
}

// SortedCategories returns the keys of ranges in ascending order.
func SortedCategories(ranges map[int16]ClassifierRange) []int16 {
	out := make([]int16, 0, len(ranges))
	for c := range ranges {
		out = append(out, c)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}

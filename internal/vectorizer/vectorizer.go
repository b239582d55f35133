// Package vectorizer maps the documents and features of an index onto vector
// dimensions so that index rows and columns can be handed to the vector
// algebra layer.
package vectorizer

import (
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vector"
)

// Vectorizer is bound to one index. Vectors from different vectorizers live
// in unrelated spaces; callers concatenating them must track the offsets.
type Vectorizer struct {
	ix      *index.Index
	docDim  []int
	featDim []int
	dimDoc  []int
	dimFeat []int
}

// New builds the document and feature dimension maps in the index's
// enumeration order.
func New(ix *index.Index) *Vectorizer {
	v := &Vectorizer{
		ix:      ix,
		docDim:  make([]int, ix.DocumentCount()),
		featDim: make([]int, ix.FeatureCount()),
		dimDoc:  make([]int, ix.DocumentCount()),
		dimFeat: make([]int, ix.FeatureCount()),
	}
	for d := range v.docDim {
		v.docDim[d] = d
		v.dimDoc[d] = d
	}
	for f := range v.featDim {
		v.featDim[f] = f
		v.dimFeat[f] = f
	}
	return v
}

// Index returns the index the vectorizer is bound to.
func (v *Vectorizer) Index() *index.Index { return v.ix }

// FeatureDimension returns the document-vector dimension of feature.
func (v *Vectorizer) FeatureDimension(feature int) int { return v.featDim[feature] }

// DocumentDimension returns the feature-vector dimension of doc.
func (v *Vectorizer) DocumentDimension(doc int) int { return v.docDim[doc] }

// DimensionFeature is the inverse of FeatureDimension.
func (v *Vectorizer) DimensionFeature(dim int) int { return v.dimFeat[dim] }

// DimensionDocument is the inverse of DocumentDimension.
func (v *Vectorizer) DimensionDocument(dim int) int { return v.dimDoc[dim] }

// DocumentFrequencies returns doc's raw feature frequencies.
func (v *Vectorizer) DocumentFrequencies(doc int) *vector.Sparse {
	out := vector.NewSparse(len(v.featDim))
	for _, e := range v.ix.DocumentEntries(doc) {
		out.Set(v.featDim[e.Feature], float64(e.Frequency))
	}
	return out
}

// DocumentWeights returns doc's feature weights.
func (v *Vectorizer) DocumentWeights(doc int) *vector.Sparse {
	out := vector.NewSparse(len(v.featDim))
	for _, w := range v.ix.DocumentWeights(doc) {
		out.Set(v.featDim[w.Feature], w.Value)
	}
	return out
}

// DocumentBoolean returns 1 for every feature doc contains.
func (v *Vectorizer) DocumentBoolean(doc int) *vector.Sparse {
	out := vector.NewSparse(len(v.featDim))
	for _, e := range v.ix.DocumentEntries(doc) {
		out.Set(v.featDim[e.Feature], 1)
	}
	return out
}

// FeatureFrequencies returns feature's frequency in every document.
func (v *Vectorizer) FeatureFrequencies(feature int) *vector.Sparse {
	return v.featureVector(feature, func(doc int) float64 {
		return float64(v.ix.DocumentFeatureFrequency(doc, feature))
	})
}

// FeatureWeights returns feature's weight in every document.
func (v *Vectorizer) FeatureWeights(feature int) *vector.Sparse {
	return v.featureVector(feature, func(doc int) float64 {
		return v.ix.DocumentFeatureWeight(doc, feature)
	})
}

// FeatureBoolean returns 1 for every document containing feature.
func (v *Vectorizer) FeatureBoolean(feature int) *vector.Sparse {
	return v.featureVector(feature, func(int) float64 { return 1 })
}

func (v *Vectorizer) featureVector(feature int, value func(doc int) float64) *vector.Sparse {
	out := vector.NewSparse(len(v.docDim))
	it := v.ix.FeatureDocuments(feature)
	for {
		doc, ok := it.Next()
		if !ok {
			return out
		}
		out.Set(v.docDim[doc], value(doc))
	}
}

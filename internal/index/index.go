// Package index implements the weighted document index: documents,
// features, and categories with their content (frequency), weighting, and
// classification matrices, plus optional per-category feature domains.
//
// IDs are dense: documents and features are numbered 0..N-1 and categories
// 0..C-1. Removal operations renumber every table in one step, so callers
// never observe a partially updated index. Accessors that receive an ID
// outside the current range panic; such a call is a programming error.
package index

import (
	"fmt"
	"sort"

	"github.com/RoaringBitmap/roaring/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// Index is the facade over the co-indexed tables.
type Index struct {
	documents      *DocumentTable
	features       *FeatureTable
	categories     *CategoryTable
	content        *ContentTable
	weighting      *WeightingTable
	classification *ClassificationTable
	domain         *DomainTable
}

func (ix *Index) DocumentCount() int { return ix.documents.Len() }

func (ix *Index) FeatureCount() int { return ix.features.Len() }

func (ix *Index) CategoryCount() int { return ix.categories.Len() }

func (ix *Index) mustDocument(doc int) {
	if doc < 0 || doc >= ix.documents.Len() {
		panic(fmt.Sprintf("index: document %d out of range [0, %d)", doc, ix.documents.Len()))
	}
}

func (ix *Index) mustFeature(feature int) {
	if feature < 0 || feature >= ix.features.Len() {
		panic(fmt.Sprintf("index: feature %d out of range [0, %d)", feature, ix.features.Len()))
	}
}

func (ix *Index) mustCategory(cat int16) {
	if cat < 0 || int(cat) >= ix.categories.Len() {
		panic(fmt.Sprintf("index: category %d out of range [0, %d)", cat, ix.categories.Len()))
	}
}

func (ix *Index) DocumentName(doc int) string {
	ix.mustDocument(doc)
	return ix.documents.names[doc]
}

func (ix *Index) DocumentID(name string) (int, bool) {
	id, ok := ix.documents.ids[name]
	return id, ok
}

func (ix *Index) FeatureName(feature int) string {
	ix.mustFeature(feature)
	return ix.features.names[feature]
}

func (ix *Index) FeatureID(name string) (int, bool) {
	id, ok := ix.features.ids[name]
	return id, ok
}

func (ix *Index) CategoryName(cat int16) string {
	ix.mustCategory(cat)
	return ix.categories.names[cat]
}

func (ix *Index) CategoryID(name string) (int16, bool) {
	id, ok := ix.categories.ids[name]
	return id, ok
}

// CategoryParent returns the parent of cat, or -1 for a root category.
func (ix *Index) CategoryParent(cat int16) int16 {
	ix.mustCategory(cat)
	return ix.categories.parents[cat]
}

func (ix *Index) CategoryChildren(cat int16) []int16 {
	ix.mustCategory(cat)
	return ix.categories.children(cat)
}

// DocumentEntries returns the content row of doc sorted by feature. The
// slice is shared with the index and must not be modified.
func (ix *Index) DocumentEntries(doc int) []Entry {
	ix.mustDocument(doc)
	return ix.content.rows[doc]
}

// DocumentFeatures returns the features of doc in ascending order.
func (ix *Index) DocumentFeatures(doc int) []int {
	row := ix.DocumentEntries(doc)
	out := make([]int, len(row))
	for i, e := range row {
		out[i] = e.Feature
	}
	return out
}

func (ix *Index) DocumentFeatureFrequency(doc, feature int) int {
	ix.mustDocument(doc)
	ix.mustFeature(feature)
	return ix.content.frequency(doc, feature)
}

// DocumentLength is the sum of feature frequencies of doc.
func (ix *Index) DocumentLength(doc int) int {
	n := 0
	for _, e := range ix.DocumentEntries(doc) {
		n += e.Frequency
	}
	return n
}

// FeatureDocuments iterates the documents containing feature.
func (ix *Index) FeatureDocuments(feature int) DocIterator {
	ix.mustFeature(feature)
	return newBitmapIterator(ix.content.postings[feature])
}

func (ix *Index) FeatureDocumentCount(feature int) int {
	ix.mustFeature(feature)
	return int(ix.content.postings[feature].GetCardinality())
}

// DocumentWeights returns the weighting row of doc sorted by feature. The
// slice is shared with the index and must not be modified.
func (ix *Index) DocumentWeights(doc int) []Weight {
	ix.mustDocument(doc)
	return ix.weighting.rows[doc]
}

func (ix *Index) DocumentFeatureWeight(doc, feature int) float64 {
	ix.mustDocument(doc)
	ix.mustFeature(feature)
	return ix.weighting.weight(doc, feature)
}

// DocumentCategories returns the categories of doc in ascending order.
func (ix *Index) DocumentCategories(doc int) []int16 {
	ix.mustDocument(doc)
	return append([]int16(nil), ix.classification.docCats[doc]...)
}

func (ix *Index) DocumentHasCategory(doc int, cat int16) bool {
	ix.mustDocument(doc)
	ix.mustCategory(cat)
	return ix.classification.catDocs[cat].Contains(uint32(doc))
}

// CategoryDocuments iterates the documents labelled with cat.
func (ix *Index) CategoryDocuments(cat int16) DocIterator {
	ix.mustCategory(cat)
	return newBitmapIterator(ix.classification.catDocs[cat])
}

func (ix *Index) CategoryDocumentCount(cat int16) int {
	ix.mustCategory(cat)
	return int(ix.classification.catDocs[cat].GetCardinality())
}

// FeatureCategoryDocuments iterates, in ascending order, the documents that
// contain feature and are labelled with cat.
func (ix *Index) FeatureCategoryDocuments(feature int, cat int16) DocIterator {
	ix.mustFeature(feature)
	ix.mustCategory(cat)
	return newIntersectIterator(ix.content.postings[feature], ix.classification.catDocs[cat])
}

// HasDomain reports whether cat is restricted to a local feature space.
func (ix *Index) HasDomain(cat int16) bool {
	ix.mustCategory(cat)
	_, ok := ix.domain.lookup(cat)
	return ok
}

// SetDomain restricts cat to the given features.
func (ix *Index) SetDomain(cat int16, features []int) error {
	if cat < 0 || int(cat) >= ix.categories.Len() {
		return apperrors.Dataf(apperrors.ErrOutOfRange, "category %d", cat)
	}
	bm := roaring.New()
	for _, f := range features {
		if f < 0 || f >= ix.features.Len() {
			return apperrors.Dataf(apperrors.ErrOutOfRange, "feature %d in domain of category %d", f, cat)
		}
		bm.Add(uint32(f))
	}
	ix.domain.local[cat] = bm
	return nil
}

func (ix *Index) ClearDomain(cat int16) {
	ix.mustCategory(cat)
	delete(ix.domain.local, cat)
}

// DocumentFeaturesIn returns the features of doc visible from cat's domain.
func (ix *Index) DocumentFeaturesIn(doc int, cat int16) []int {
	ix.mustCategory(cat)
	all := ix.DocumentFeatures(doc)
	bm, ok := ix.domain.lookup(cat)
	if !ok {
		return all
	}
	out := all[:0]
	for _, f := range all {
		if bm.Contains(uint32(f)) {
			out = append(out, f)
		}
	}
	return out
}

// DocumentFeatureWeightIn returns the weight of feature in doc, or zero when
// feature lies outside cat's domain.
func (ix *Index) DocumentFeatureWeightIn(doc, feature int, cat int16) float64 {
	ix.mustCategory(cat)
	if bm, ok := ix.domain.lookup(cat); ok && !bm.Contains(uint32(feature)) {
		ix.mustDocument(doc)
		ix.mustFeature(feature)
		return 0
	}
	return ix.DocumentFeatureWeight(doc, feature)
}

// SetWeighting replaces the weighting table. It must cover every document
// and reference only existing features.
func (ix *Index) SetWeighting(w *WeightingTable) error {
	if w.Len() != ix.documents.Len() {
		return apperrors.Dataf(apperrors.ErrInvalidInput, "weighting has %d rows, index has %d documents", w.Len(), ix.documents.Len())
	}
	for doc, row := range w.rows {
		for _, cell := range row {
			if cell.Feature < 0 || cell.Feature >= ix.features.Len() {
				return apperrors.Dataf(apperrors.ErrOutOfRange, "weighting of document %d references feature %d", doc, cell.Feature)
			}
		}
	}
	ix.weighting = w
	return nil
}

// Weighting returns the current weighting table.
func (ix *Index) Weighting() *WeightingTable { return ix.weighting }

// Clone returns a deep copy sharing no mutable state with ix.
func (ix *Index) Clone() *Index {
	return &Index{
		documents:      ix.documents.clone(),
		features:       ix.features.clone(),
		categories:     ix.categories.clone(),
		content:        ix.content.clone(),
		weighting:      ix.weighting.clone(),
		classification: ix.classification.clone(),
		domain:         ix.domain.clone(),
	}
}

// CategoryView returns a clone restricted to the single category cat. All
// documents and features are kept; documents not labelled cat become
// negatives.
func (ix *Index) CategoryView(cat int16) (*Index, error) {
	if cat < 0 || int(cat) >= ix.categories.Len() {
		return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "category %d", cat)
	}
	others := make([]int16, 0, ix.categories.Len()-1)
	for c := 0; c < ix.categories.Len(); c++ {
		if int16(c) != cat {
			others = append(others, int16(c))
		}
	}
	view := ix.Clone()
	// Hierarchy links to removed categories are dropped by the rebuild.
	if err := view.RemoveCategories(others); err != nil {
		return nil, fmt.Errorf("restricting to category %d: %w", cat, err)
	}
	return view, nil
}

// sortedUnique returns a sorted copy of ids without duplicates.
func sortedUnique(ids []int) []int {
	ids = append([]int(nil), ids...)
	sort.Ints(ids)
	out := ids[:0]
	for i, id := range ids {
		if i == 0 || id != ids[i-1] {
			out = append(out, id)
		}
	}
	return out
}

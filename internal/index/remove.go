package index

import (
	"github.com/RoaringBitmap/roaring/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// RemoveDocuments deletes the given documents. With compactFeatures, features
// left without any document are deleted as well. IDs are validated before
// anything changes; an empty set is a no-op.
func (ix *Index) RemoveDocuments(ids []int, compactFeatures bool) error {
	if len(ids) == 0 {
		return nil
	}
	keepDocs := keepAll(ix.documents.Len())
	for _, id := range sortedUnique(ids) {
		if id < 0 || id >= len(keepDocs) {
			return apperrors.Dataf(apperrors.ErrOutOfRange, "document %d not in [0, %d)", id, len(keepDocs))
		}
		keepDocs[id] = false
	}
	keepFeatures := keepAll(ix.features.Len())
	if compactFeatures {
		for f, postings := range ix.content.postings {
			alive := false
			it := postings.Iterator()
			for it.HasNext() {
				if keepDocs[it.Next()] {
					alive = true
					break
				}
			}
			keepFeatures[f] = alive
		}
	}
	ix.rebuild(keepDocs, keepFeatures, keepAll(ix.categories.Len()))
	return nil
}

// RemoveFeatures deletes the given features from every table.
func (ix *Index) RemoveFeatures(ids []int) error {
	if len(ids) == 0 {
		return nil
	}
	keepFeatures := keepAll(ix.features.Len())
	for _, id := range sortedUnique(ids) {
		if id < 0 || id >= len(keepFeatures) {
			return apperrors.Dataf(apperrors.ErrOutOfRange, "feature %d not in [0, %d)", id, len(keepFeatures))
		}
		keepFeatures[id] = false
	}
	ix.rebuild(keepAll(ix.documents.Len()), keepFeatures, keepAll(ix.categories.Len()))
	return nil
}

// RemoveCategories deletes the given categories, their labels, and their
// domains. Children of a removed category become roots.
func (ix *Index) RemoveCategories(ids []int16) error {
	if len(ids) == 0 {
		return nil
	}
	keepCats := keepAll(ix.categories.Len())
	for _, id := range ids {
		if id < 0 || int(id) >= len(keepCats) {
			return apperrors.Dataf(apperrors.ErrOutOfRange, "category %d not in [0, %d)", id, len(keepCats))
		}
		keepCats[id] = false
	}
	ix.rebuild(keepAll(ix.documents.Len()), keepAll(ix.features.Len()), keepCats)
	return nil
}

func keepAll(n int) []bool {
	k := make([]bool, n)
	for i := range k {
		k[i] = true
	}
	return k
}

func remap(keep []bool) []int {
	m := make([]int, len(keep))
	next := 0
	for i, k := range keep {
		if k {
			m[i] = next
			next++
		} else {
			m[i] = -1
		}
	}
	return m
}

// rebuild produces a fresh set of tables holding only the kept IDs,
// renumbered densely, and swaps them in with a single assignment.
func (ix *Index) rebuild(keepDocs, keepFeatures, keepCats []bool) {
	featMap, catMap := remap(keepFeatures), remap(keepCats)

	documents := newDocumentTable()
	for d, name := range ix.documents.names {
		if keepDocs[d] {
			documents.add(name)
		}
	}
	features := newFeatureTable()
	for f, name := range ix.features.names {
		if keepFeatures[f] {
			features.add(name)
		}
	}
	categories := newCategoryTable()
	for c, name := range ix.categories.names {
		if !keepCats[c] {
			continue
		}
		parent := ix.categories.parents[c]
		if parent >= 0 {
			parent = int16(catMap[parent])
		}
		categories.add(name, parent)
	}

	content := make([][]Entry, 0, documents.Len())
	weights := make([][]Weight, 0, documents.Len())
	labels := make([][]int16, 0, documents.Len())
	for d := range ix.documents.names {
		if !keepDocs[d] {
			continue
		}
		row := make([]Entry, 0, len(ix.content.rows[d]))
		for _, e := range ix.content.rows[d] {
			if nf := featMap[e.Feature]; nf >= 0 {
				row = append(row, Entry{Feature: nf, Frequency: e.Frequency})
			}
		}
		content = append(content, row)

		wrow := make([]Weight, 0, len(ix.weighting.rows[d]))
		for _, w := range ix.weighting.rows[d] {
			if nf := featMap[w.Feature]; nf >= 0 {
				wrow = append(wrow, Weight{Feature: nf, Value: w.Value})
			}
		}
		weights = append(weights, wrow)

		var cats []int16
		for _, c := range ix.classification.docCats[d] {
			if nc := catMap[c]; nc >= 0 {
				cats = append(cats, int16(nc))
			}
		}
		labels = append(labels, cats)
	}

	domain := newDomainTable()
	for c, bm := range ix.domain.local {
		nc := catMap[c]
		if nc < 0 {
			continue
		}
		nbm := roaring.New()
		it := bm.Iterator()
		for it.HasNext() {
			if nf := featMap[it.Next()]; nf >= 0 {
				nbm.Add(uint32(nf))
			}
		}
		domain.local[int16(nc)] = nbm
	}

	*ix = Index{
		documents:      documents,
		features:       features,
		categories:     categories,
		content:        newContentTable(content, features.Len()),
		weighting:      &WeightingTable{rows: weights},
		classification: newClassificationTable(labels, categories.Len()),
		domain:         domain,
	}
}

package index

import (
	"sort"

	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// Occurrence is one feature of a document handed to the Builder. A zero
// Weight means "use the frequency as weight" unless the builder was switched
// to exact weights.
type Occurrence struct {
	Feature   string
	Frequency int
	Weight    float64
}

// Builder accumulates documents and produces an Index.
type Builder struct {
	documents  *DocumentTable
	features   *FeatureTable
	categories *CategoryTable
	content    [][]Entry
	weights    [][]Weight
	labels     [][]int16
	exact      bool
}

func NewBuilder() *Builder {
	return &Builder{
		documents:  newDocumentTable(),
		features:   newFeatureTable(),
		categories: newCategoryTable(),
	}
}

// UseExactWeights makes AddDocument store Occurrence.Weight verbatim; zero
// weights then produce no weighting entry.
func (b *Builder) UseExactWeights() {
	b.exact = true
}

// AddCategory declares a category under parent ("" for a root). Declaring an
// existing category returns its ID unchanged.
func (b *Builder) AddCategory(name, parent string) (int16, error) {
	if name == "" {
		return 0, apperrors.Dataf(apperrors.ErrInvalidInput, "empty category name")
	}
	p := int16(-1)
	if parent != "" {
		id, ok := b.categories.ids[parent]
		if !ok {
			return 0, apperrors.Dataf(apperrors.ErrNotFound, "parent category %q of %q", parent, name)
		}
		p = id
	}
	return b.categories.add(name, p), nil
}

// AddFeature declares a feature so that it exists even if no document uses
// it. It returns the feature ID.
func (b *Builder) AddFeature(name string) int {
	return b.features.add(name)
}

// AddDocument appends a document. Repeated features are summed, unknown
// categories are declared as roots.
func (b *Builder) AddDocument(name string, occurrences []Occurrence, categories []string) (int, error) {
	if _, exists := b.documents.ids[name]; exists {
		return 0, apperrors.Dataf(apperrors.ErrInvalidInput, "duplicate document name %q", name)
	}
	merged := make(map[int]*Weight, len(occurrences))
	freqs := make(map[int]int, len(occurrences))
	for _, o := range occurrences {
		if o.Frequency < 1 {
			return 0, apperrors.Dataf(apperrors.ErrInvalidInput, "document %q: feature %q has frequency %d", name, o.Feature, o.Frequency)
		}
		f := b.features.add(o.Feature)
		w := o.Weight
		if w == 0 && !b.exact {
			w = float64(o.Frequency)
		}
		if cell, ok := merged[f]; ok {
			cell.Value += w
		} else {
			merged[f] = &Weight{Feature: f, Value: w}
		}
		freqs[f] += o.Frequency
	}
	row := make([]Entry, 0, len(freqs))
	for f, n := range freqs {
		row = append(row, Entry{Feature: f, Frequency: n})
	}
	sort.Slice(row, func(i, j int) bool { return row[i].Feature < row[j].Feature })
	weights := make([]Weight, 0, len(row))
	for _, e := range row {
		if cell := merged[e.Feature]; cell.Value != 0 {
			weights = append(weights, *cell)
		}
	}

	var labels []int16
	seen := make(map[int16]bool, len(categories))
	for _, c := range categories {
		id, ok := b.categories.ids[c]
		if !ok {
			var err error
			if id, err = b.AddCategory(c, ""); err != nil {
				return 0, err
			}
		}
		if !seen[id] {
			seen[id] = true
			labels = append(labels, id)
		}
	}

	id := b.documents.add(name)
	b.content = append(b.content, row)
	b.weights = append(b.weights, weights)
	b.labels = append(b.labels, labels)
	return id, nil
}

// DocumentCount returns the number of documents added so far.
func (b *Builder) DocumentCount() int { return b.documents.Len() }

// Build finalises the index. The builder must not be used afterwards.
func (b *Builder) Build() *Index {
	return &Index{
		documents:      b.documents,
		features:       b.features,
		categories:     b.categories,
		content:        newContentTable(b.content, b.features.Len()),
		weighting:      &WeightingTable{rows: b.weights},
		classification: newClassificationTable(b.labels, b.categories.Len()),
		domain:         newDomainTable(),
	}
}

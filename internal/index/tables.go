package index

import (
	"sort"

	"github.com/RoaringBitmap/roaring/v2"
)

// Entry is one (feature, frequency) cell of a document's content row.
type Entry struct {
	Feature   int
	Frequency int
}

// Weight is one (feature, weight) cell of a document's weighting row.
type Weight struct {
	Feature int
	Value   float64
}

// DocumentTable maps document IDs to unique names.
type DocumentTable struct {
	names []string
	ids   map[string]int
}

func newDocumentTable() *DocumentTable {
	return &DocumentTable{ids: make(map[string]int)}
}

func (t *DocumentTable) add(name string) int {
	id := len(t.names)
	t.names = append(t.names, name)
	t.ids[name] = id
	return id
}

func (t *DocumentTable) Len() int { return len(t.names) }

func (t *DocumentTable) clone() *DocumentTable {
	c := &DocumentTable{names: append([]string(nil), t.names...), ids: make(map[string]int, len(t.ids))}
	for k, v := range t.ids {
		c.ids[k] = v
	}
	return c
}

// FeatureTable maps feature IDs to unique names.
type FeatureTable struct {
	names []string
	ids   map[string]int
}

func newFeatureTable() *FeatureTable {
	return &FeatureTable{ids: make(map[string]int)}
}

func (t *FeatureTable) add(name string) int {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := len(t.names)
	t.names = append(t.names, name)
	t.ids[name] = id
	return id
}

func (t *FeatureTable) Len() int { return len(t.names) }

func (t *FeatureTable) clone() *FeatureTable {
	c := &FeatureTable{names: append([]string(nil), t.names...), ids: make(map[string]int, len(t.ids))}
	for k, v := range t.ids {
		c.ids[k] = v
	}
	return c
}

// CategoryTable maps category IDs to names and records the optional
// parent/child hierarchy. A parent of -1 marks a root.
type CategoryTable struct {
	names   []string
	ids     map[string]int16
	parents []int16
}

func newCategoryTable() *CategoryTable {
	return &CategoryTable{ids: make(map[string]int16)}
}

func (t *CategoryTable) add(name string, parent int16) int16 {
	if id, ok := t.ids[name]; ok {
		return id
	}
	id := int16(len(t.names))
	t.names = append(t.names, name)
	t.parents = append(t.parents, parent)
	t.ids[name] = id
	return id
}

func (t *CategoryTable) Len() int { return len(t.names) }

func (t *CategoryTable) children(cat int16) []int16 {
	var out []int16
	for id, p := range t.parents {
		if p == cat {
			out = append(out, int16(id))
		}
	}
	return out
}

func (t *CategoryTable) clone() *CategoryTable {
	c := &CategoryTable{
		names:   append([]string(nil), t.names...),
		ids:     make(map[string]int16, len(t.ids)),
		parents: append([]int16(nil), t.parents...),
	}
	for k, v := range t.ids {
		c.ids[k] = v
	}
	return c
}

// ContentTable is the sparse document×feature frequency matrix, stored both
// by document (rows sorted by feature) and by feature (posting bitmaps).
type ContentTable struct {
	rows     [][]Entry
	postings []*roaring.Bitmap
}

func newContentTable(rows [][]Entry, features int) *ContentTable {
	postings := make([]*roaring.Bitmap, features)
	for f := range postings {
		postings[f] = roaring.New()
	}
	for doc, row := range rows {
		for _, e := range row {
			postings[e.Feature].Add(uint32(doc))
		}
	}
	return &ContentTable{rows: rows, postings: postings}
}

func (t *ContentTable) frequency(doc, feature int) int {
	row := t.rows[doc]
	pos := sort.Search(len(row), func(i int) bool { return row[i].Feature >= feature })
	if pos < len(row) && row[pos].Feature == feature {
		return row[pos].Frequency
	}
	return 0
}

func (t *ContentTable) clone() *ContentTable {
	rows := make([][]Entry, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append([]Entry(nil), r...)
	}
	postings := make([]*roaring.Bitmap, len(t.postings))
	for i, p := range t.postings {
		postings[i] = p.Clone()
	}
	return &ContentTable{rows: rows, postings: postings}
}

// WeightingTable is the sparse document×feature real-valued weight matrix.
// It is independent of raw frequencies.
type WeightingTable struct {
	rows [][]Weight
}

// NewWeightingTable builds a weighting table from per-document rows. Rows are
// sorted by feature and zero weights are dropped.
func NewWeightingTable(rows [][]Weight) *WeightingTable {
	out := make([][]Weight, len(rows))
	for doc, row := range rows {
		kept := make([]Weight, 0, len(row))
		for _, w := range row {
			if w.Value != 0 {
				kept = append(kept, w)
			}
		}
		sort.Slice(kept, func(i, j int) bool { return kept[i].Feature < kept[j].Feature })
		out[doc] = kept
	}
	return &WeightingTable{rows: out}
}

func (t *WeightingTable) Len() int { return len(t.rows) }

// Row returns the weights of doc sorted by feature. The slice is shared.
func (t *WeightingTable) Row(doc int) []Weight { return t.rows[doc] }

func (t *WeightingTable) weight(doc, feature int) float64 {
	row := t.rows[doc]
	pos := sort.Search(len(row), func(i int) bool { return row[i].Feature >= feature })
	if pos < len(row) && row[pos].Feature == feature {
		return row[pos].Value
	}
	return 0
}

func (t *WeightingTable) clone() *WeightingTable {
	rows := make([][]Weight, len(t.rows))
	for i, r := range t.rows {
		rows[i] = append([]Weight(nil), r...)
	}
	return &WeightingTable{rows: rows}
}

// ClassificationTable is the sparse document×category membership matrix.
type ClassificationTable struct {
	docCats [][]int16
	catDocs []*roaring.Bitmap
}

func newClassificationTable(docCats [][]int16, categories int) *ClassificationTable {
	catDocs := make([]*roaring.Bitmap, categories)
	for c := range catDocs {
		catDocs[c] = roaring.New()
	}
	for doc, cats := range docCats {
		sort.Slice(cats, func(i, j int) bool { return cats[i] < cats[j] })
		for _, c := range cats {
			catDocs[c].Add(uint32(doc))
		}
	}
	return &ClassificationTable{docCats: docCats, catDocs: catDocs}
}

func (t *ClassificationTable) clone() *ClassificationTable {
	docCats := make([][]int16, len(t.docCats))
	for i, c := range t.docCats {
		docCats[i] = append([]int16(nil), c...)
	}
	catDocs := make([]*roaring.Bitmap, len(t.catDocs))
	for i, b := range t.catDocs {
		catDocs[i] = b.Clone()
	}
	return &ClassificationTable{docCats: docCats, catDocs: catDocs}
}

// DomainTable restricts categories to local feature spaces. Categories
// without an entry use every feature.
type DomainTable struct {
	local map[int16]*roaring.Bitmap
}

func newDomainTable() *DomainTable {
	return &DomainTable{local: make(map[int16]*roaring.Bitmap)}
}

func (t *DomainTable) lookup(cat int16) (*roaring.Bitmap, bool) {
	bm, ok := t.local[cat]
	return bm, ok
}

func (t *DomainTable) clone() *DomainTable {
	c := newDomainTable()
	for k, v := range t.local {
		c.local[k] = v.Clone()
	}
	return c
}

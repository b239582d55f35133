package index

import (
	"github.com/RoaringBitmap/roaring/v2"

	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// Snapshot is the flat, serialisable form of an Index. Row i of Content,
// Weights, and Labels belongs to document i.
type Snapshot struct {
	Documents  []string        `cbor:"documents" json:"documents"`
	Features   []string        `cbor:"features" json:"features"`
	Categories []string        `cbor:"categories" json:"categories"`
	Parents    []int16         `cbor:"parents" json:"parents"`
	Content    [][]Entry       `cbor:"content" json:"content"`
	Weights    [][]Weight      `cbor:"weights" json:"weights"`
	Labels     [][]int16       `cbor:"labels" json:"labels"`
	Domains    map[int16][]int `cbor:"domains,omitempty" json:"domains,omitempty"`
}

// Snapshot copies ix into a Snapshot.
func (ix *Index) Snapshot() *Snapshot {
	c := ix.Clone()
	s := &Snapshot{
		Documents:  c.documents.names,
		Features:   c.features.names,
		Categories: c.categories.names,
		Parents:    c.categories.parents,
		Content:    c.content.rows,
		Weights:    c.weighting.rows,
		Labels:     c.classification.docCats,
	}
	if len(c.domain.local) > 0 {
		s.Domains = make(map[int16][]int, len(c.domain.local))
		for cat, bm := range c.domain.local {
			feats := make([]int, 0, bm.GetCardinality())
			it := bm.Iterator()
			for it.HasNext() {
				feats = append(feats, int(it.Next()))
			}
			s.Domains[cat] = feats
		}
	}
	return s
}

// FromSnapshot rebuilds an Index, validating every cross reference. The
// snapshot must not be used afterwards.
func FromSnapshot(s *Snapshot) (*Index, error) {
	nd, nf, nc := len(s.Documents), len(s.Features), len(s.Categories)
	if len(s.Content) != nd || len(s.Weights) != nd || len(s.Labels) != nd {
		return nil, apperrors.Dataf(apperrors.ErrInvalidInput,
			"snapshot rows: %d documents, %d content, %d weights, %d labels",
			nd, len(s.Content), len(s.Weights), len(s.Labels))
	}
	if len(s.Parents) != nc {
		return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "snapshot has %d categories but %d parents", nc, len(s.Parents))
	}

	docs := newDocumentTable()
	for _, name := range s.Documents {
		if _, dup := docs.ids[name]; dup {
			return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "duplicate document name %q", name)
		}
		docs.add(name)
	}
	feats := newFeatureTable()
	for _, name := range s.Features {
		if _, dup := feats.ids[name]; dup {
			return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "duplicate feature name %q", name)
		}
		feats.add(name)
	}
	cats := newCategoryTable()
	for i, name := range s.Categories {
		if _, dup := cats.ids[name]; dup {
			return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "duplicate category name %q", name)
		}
		p := s.Parents[i]
		if p < -1 || int(p) >= nc || int(p) == i {
			return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "category %q has parent %d", name, p)
		}
		cats.add(name, p)
	}

	for doc := 0; doc < nd; doc++ {
		row := s.Content[doc]
		for i, e := range row {
			if e.Feature < 0 || e.Feature >= nf {
				return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "content of document %d references feature %d", doc, e.Feature)
			}
			if e.Frequency < 1 {
				return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "document %d: feature %d has frequency %d", doc, e.Feature, e.Frequency)
			}
			if i > 0 && row[i-1].Feature >= e.Feature {
				return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "content row of document %d is not sorted", doc)
			}
		}
		for _, w := range s.Weights[doc] {
			if w.Feature < 0 || w.Feature >= nf {
				return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "weighting of document %d references feature %d", doc, w.Feature)
			}
		}
		for _, c := range s.Labels[doc] {
			if c < 0 || int(c) >= nc {
				return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "document %d labelled with category %d", doc, c)
			}
		}
	}

	ix := &Index{
		documents:      docs,
		features:       feats,
		categories:     cats,
		content:        newContentTable(s.Content, nf),
		weighting:      NewWeightingTable(s.Weights),
		classification: newClassificationTable(s.Labels, nc),
		domain:         newDomainTable(),
	}
	for cat, list := range s.Domains {
		if cat < 0 || int(cat) >= nc {
			return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "domain of category %d", cat)
		}
		bm := roaring.New()
		for _, f := range list {
			if f < 0 || f >= nf {
				return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "feature %d in domain of category %d", f, cat)
			}
			bm.Add(uint32(f))
		}
		ix.domain.local[cat] = bm
	}
	return ix, nil
}

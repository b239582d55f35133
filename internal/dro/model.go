// Package dro implements Distributional Random Oversampling: documents are
// projected onto a latent space built from a base collection, and synthetic
// latent documents are drawn from the resulting per-document distribution.
package dro

import (
	"encoding/binary"
	"log/slog"

	"github.com/cespare/xxhash/v2"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// ModelConfig controls how the latent space is built. LatentDimensions < 0
// means one dimension per base document.
type ModelConfig struct {
	LatentDimensions   int
	RandomIndexing     bool
	MinGroups          int
	DimensionReduction bool
	Seed               uint64
}

// DistributionModel holds, for every base feature, its profile over the
// latent dimensions. It is immutable once built and safe for concurrent
// reads.
type DistributionModel struct {
	base       *index.Index
	cfg        ModelConfig
	assignment []int
	profiles   *vector.SparseMatrix
}

// NewDistributionModel clones base and derives the latent profiles from its
// weighting table. In identity mode base document d owns latent dimension d;
// with random indexing documents are hashed into LatentDimensions buckets.
func NewDistributionModel(base *index.Index, cfg ModelConfig) (*DistributionModel, error) {
	logger := slog.Default().With("component", "dro-model")
	docs := base.DocumentCount()
	if docs == 0 {
		return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "distribution model needs a non-empty base index")
	}

	dims := docs
	switch {
	case cfg.RandomIndexing:
		if cfg.LatentDimensions > 0 {
			dims = cfg.LatentDimensions
		}
	case cfg.LatentDimensions > 0 && cfg.LatentDimensions != docs:
		logger.Warn("identity indexing ignores latent dimension count",
			"requested", cfg.LatentDimensions,
			"documents", docs,
		)
	}

	m := &DistributionModel{
		base:       base.Clone(),
		cfg:        cfg,
		assignment: make([]int, docs),
	}
	for d := range m.assignment {
		if cfg.RandomIndexing {
			m.assignment[d] = bucket(cfg.Seed, m.base.DocumentName(d), dims)
		} else {
			m.assignment[d] = d
		}
	}

	m.profiles = vector.NewSparseMatrix(m.base.FeatureCount(), dims)
	for d := 0; d < docs; d++ {
		l := m.assignment[d]
		for _, w := range m.base.DocumentWeights(d) {
			m.profiles.Row(w.Feature).Add(l, w.Value)
		}
	}

	cleared := 0
	if cfg.MinGroups > 1 {
		for f := 0; f < m.profiles.Rows(); f++ {
			if row := m.profiles.Row(f); row.NonZero() > 0 && row.NonZero() < cfg.MinGroups {
				m.profiles.SetRow(f, vector.NewSparse(dims))
				cleared++
			}
		}
	}

	if cfg.DimensionReduction {
		keep := make([]bool, dims)
		for f := 0; f < m.profiles.Rows(); f++ {
			for _, l := range m.profiles.Row(f).Indices() {
				keep[l] = true
			}
		}
		var remap []int
		m.profiles, remap = m.profiles.DropColumns(keep)
		for d, l := range m.assignment {
			m.assignment[d] = remap[l]
		}
	}

	logger.Info("distribution model built",
		"base_documents", docs,
		"features", m.profiles.Rows(),
		"latent_dimensions", m.profiles.Cols(),
		"random_indexing", cfg.RandomIndexing,
		"cleared_features", cleared,
	)
	return m, nil
}

func bucket(seed uint64, name string, dims int) int {
	var buf [8]byte
	binary.LittleEndian.PutUint64(buf[:], seed)
	h := xxhash.New()
	h.Write(buf[:])
	h.WriteString(name)
	return int(h.Sum64() % uint64(dims))
}

// LatentDimensions returns the size of the latent space.
func (m *DistributionModel) LatentDimensions() int { return m.profiles.Cols() }

// Base returns the model's private copy of the base index.
func (m *DistributionModel) Base() *index.Index { return m.base }

// Assignment returns the latent dimension of base document doc, or -1 when
// the dimension was removed by dimension reduction.
func (m *DistributionModel) Assignment(doc int) int { return m.assignment[doc] }

// Profile returns the latent profile of base feature f. The vector is shared.
func (m *DistributionModel) Profile(f int) *vector.Sparse { return m.profiles.Row(f) }

func (m *DistributionModel) Config() ModelConfig { return m.cfg }

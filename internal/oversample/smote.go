package oversample

import (
	"context"
	"log/slog"
	"math/rand/v2"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/dro"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
)

const (
	defaultNeighbors       = 5
	defaultBorderNeighbors = 10
	ennNeighbors           = 3
)

// SMOTE synthesises positives on the segment between a positive and one of
// its K nearest positive neighbours, by cosine over weights.
type SMOTE struct {
	K    int
	Seed uint64
}

func (s SMOTE) k() int {
	if s.K <= 0 {
		return defaultNeighbors
	}
	return s.K
}

func (s SMOTE) Oversample(ctx context.Context, ix *index.Index, target int) (*index.Index, error) {
	positives, need, err := positivesToAdd(ix, target)
	if err != nil {
		return nil, err
	}
	return s.generate(ctx, ix, newSpace(ix), positives, positives, need)
}

// generate copies ix and appends need synthetic positives, taking seeds
// round-robin and neighbours among positives.
func (s SMOTE) generate(ctx context.Context, ix *index.Index, sp *space, seeds, positives []int, need int) (*index.Index, error) {
	a, err := newAssembler(ix)
	if err != nil {
		return nil, err
	}
	for d := 0; d < ix.DocumentCount(); d++ {
		if err := a.copyDocument(d, ix.DocumentName(d)); err != nil {
			return nil, err
		}
	}

	neighbours := make(map[int][]int, len(seeds))
	for _, p := range seeds {
		neighbours[p] = sp.nearest(p, positives, s.k())
	}
	rng := rand.New(rand.NewPCG(s.Seed, uint64(len(seeds))))
	for i := 0; i < need; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := seeds[i%len(seeds)]
		name := dro.ReplicateName(ix.DocumentName(p), i/len(seeds)+1)
		nn := neighbours[p]
		if len(nn) == 0 {
			err = a.copyDocument(p, name)
		} else {
			err = a.interpolate(p, nn[rng.IntN(len(nn))], rng.Float64(), name)
		}
		if err != nil {
			return nil, err
		}
	}
	slog.Default().With("component", "oversampler").Info("synthetic positives interpolated",
		"category", ix.CategoryName(0),
		"seeds", len(seeds),
		"positives", len(positives),
		"added", need,
		"neighbors", s.k(),
	)
	return a.build(), nil
}

// SMOTEENN runs SMOTE, then removes every original negative whose three
// nearest neighbours are mostly positive.
type SMOTEENN struct {
	SMOTE
}

func (s SMOTEENN) Oversample(ctx context.Context, ix *index.Index, target int) (*index.Index, error) {
	out, err := s.SMOTE.Oversample(ctx, ix, target)
	if err != nil {
		return nil, err
	}
	sp := newSpace(out)
	pool := allDocuments(out.DocumentCount())
	var noisy []int
	for d := 0; d < ix.DocumentCount(); d++ {
		if out.DocumentHasCategory(d, 0) {
			continue
		}
		positive := 0
		nn := sp.nearest(d, pool, ennNeighbors)
		for _, n := range nn {
			if out.DocumentHasCategory(n, 0) {
				positive++
			}
		}
		if 2*positive > len(nn) {
			noisy = append(noisy, d)
		}
	}
	if err := out.RemoveDocuments(noisy, false); err != nil {
		return nil, err
	}
	slog.Default().With("component", "oversampler").Info("edited nearest neighbours applied",
		"category", out.CategoryName(0),
		"removed_negatives", len(noisy),
	)
	return out, nil
}

// BorderSMOTE only seeds from positives in danger: at least half, but not
// all, of their M nearest neighbours are negative.
type BorderSMOTE struct {
	SMOTE
	M int
}

func (s BorderSMOTE) Oversample(ctx context.Context, ix *index.Index, target int) (*index.Index, error) {
	positives, need, err := positivesToAdd(ix, target)
	if err != nil {
		return nil, err
	}
	m := s.M
	if m <= 0 {
		m = defaultBorderNeighbors
	}
	sp := newSpace(ix)
	danger := dangerous(ix, sp, positives, m)
	if len(danger) == 0 {
		slog.Default().With("component", "oversampler").Warn("no positives in danger, seeding from all positives",
			"category", ix.CategoryName(0),
		)
		danger = positives
	}
	return s.generate(ctx, ix, sp, danger, positives, need)
}

func dangerous(ix *index.Index, sp *space, positives []int, m int) []int {
	pool := allDocuments(ix.DocumentCount())
	var danger []int
	for _, p := range positives {
		nn := sp.nearest(p, pool, m)
		negative := 0
		for _, n := range nn {
			if !ix.DocumentHasCategory(n, 0) {
				negative++
			}
		}
		if 2*negative >= len(nn) && negative < len(nn) {
			danger = append(danger, p)
		}
	}
	return danger
}

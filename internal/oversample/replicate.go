package oversample

import (
	"context"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/dro"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
)

// Replicate copies positives round-robin, in ascending ID order, until the
// category has target documents. The r-th copy of a document is named
// "<name>_<r>" with r starting at 1.
type Replicate struct{}

func (Replicate) Oversample(ctx context.Context, ix *index.Index, target int) (*index.Index, error) {
	positives, need, err := positivesToAdd(ix, target)
	if err != nil {
		return nil, err
	}
	a, err := newAssembler(ix)
	if err != nil {
		return nil, err
	}
	for d := 0; d < ix.DocumentCount(); d++ {
		if err := a.copyDocument(d, ix.DocumentName(d)); err != nil {
			return nil, err
		}
	}
	for i := 0; i < need; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		p := positives[i%len(positives)]
		if err := a.copyDocument(p, dro.ReplicateName(ix.DocumentName(p), i/len(positives)+1)); err != nil {
			return nil, err
		}
	}
	slog.Default().With("component", "oversampler").Info("positives replicated",
		"category", ix.CategoryName(0),
		"positives", len(positives),
		"added", need,
	)
	return a.build(), nil
}

package dro

import (
	"fmt"
	"log/slog"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/metrics"
)

// Merge joins every synthetic document of latent with the BOW document it
// was drawn from. Merged documents keep the synthetic name and labels; BOW
// features come first with their original IDs, latent features follow.
// Synthetic documents without a BOW counterpart are skipped and returned by
// name.
func Merge(latent, bow *index.Index, m *metrics.Metrics) (*index.Index, []string, error) {
	logger := slog.Default().With("component", "dro-merge")

	b := index.NewBuilder()
	b.UseExactWeights()
	for c := int16(0); int(c) < latent.CategoryCount(); c++ {
		if _, err := b.AddCategory(latent.CategoryName(c), ""); err != nil {
			return nil, nil, err
		}
	}
	for f := 0; f < bow.FeatureCount(); f++ {
		b.AddFeature(bow.FeatureName(f))
	}
	for f := 0; f < latent.FeatureCount(); f++ {
		name := latent.FeatureName(f)
		if _, clash := bow.FeatureID(name); clash {
			return nil, nil, apperrors.Dataf(apperrors.ErrInvalidInput, "latent feature %q also names a BOW feature", name)
		}
		b.AddFeature(name)
	}

	var skipped []string
	for d := 0; d < latent.DocumentCount(); d++ {
		name := latent.DocumentName(d)
		orig, _ := OriginalName(name)
		bd, ok := bow.DocumentID(orig)
		if !ok {
			logger.Warn("no BOW document for synthetic document, skipping",
				"doc_name", name,
				"original", orig,
			)
			m.ObserveMergeSkip()
			skipped = append(skipped, name)
			continue
		}

		occ := make([]index.Occurrence, 0, len(bow.DocumentEntries(bd))+len(latent.DocumentEntries(d)))
		occ = appendEntries(occ, bow, bd)
		occ = appendEntries(occ, latent, d)
		var labels []string
		for _, c := range latent.DocumentCategories(d) {
			labels = append(labels, latent.CategoryName(c))
		}
		if _, err := b.AddDocument(name, occ, labels); err != nil {
			return nil, nil, fmt.Errorf("merge %q: %w", name, err)
		}
	}

	merged := b.Build()
	logger.Info("bow and latent representations merged",
		"documents", merged.DocumentCount(),
		"bow_features", bow.FeatureCount(),
		"latent_features", latent.FeatureCount(),
		"skipped", len(skipped),
	)
	return merged, skipped, nil
}

func appendEntries(occ []index.Occurrence, ix *index.Index, doc int) []index.Occurrence {
	for _, e := range ix.DocumentEntries(doc) {
		occ = append(occ, index.Occurrence{
			Feature:   ix.FeatureName(e.Feature),
			Frequency: e.Frequency,
			Weight:    ix.DocumentFeatureWeight(doc, e.Feature),
		})
	}
	return occ
}

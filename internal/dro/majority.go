package dro

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// VoteRange is the classifier range of decomposed results: a score is the
// fraction of positive replicate votes.
var VoteRange = learner.ClassifierRange{Border: 0.5, Minimum: 0, Maximum: 1}

// DecomposeMajority folds the per-replicate results of a synthetic test set
// back onto the documents of original. A document is positive when most of
// its replicates are; an even split is decided by whether the mean replicate
// score reaches r.Border. Scores of the returned results are vote fractions
// to be read with VoteRange. cat is the category ID in both the replicate
// results and original.
func DecomposeMajority(
	synthetic *index.Index,
	results []learner.ClassificationResult,
	original *index.Index,
	cat int16,
	r learner.ClassifierRange,
) ([]learner.ClassificationResult, error) {
	type tally struct {
		positive, total int
		scoreSum        float64
	}
	tallies := make([]tally, original.DocumentCount())
	for _, res := range results {
		if res.DocumentID < 0 || res.DocumentID >= synthetic.DocumentCount() {
			return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "result for synthetic document %d of %d", res.DocumentID, synthetic.DocumentCount())
		}
		score, ok := res.Score(cat)
		if !ok {
			continue
		}
		orig, _ := OriginalName(synthetic.DocumentName(res.DocumentID))
		d, ok := original.DocumentID(orig)
		if !ok {
			return nil, apperrors.Dataf(apperrors.ErrNotFound, "original document %q", orig)
		}
		t := &tallies[d]
		t.total++
		t.scoreSum += score
		if r.Positive(score) {
			t.positive++
		}
	}

	out := make([]learner.ClassificationResult, len(tallies))
	for d, t := range tallies {
		out[d] = learner.ClassificationResult{DocumentID: d}
		if t.total == 0 {
			continue
		}
		frac := float64(t.positive) / float64(t.total)
		if 2*t.positive == t.total && !r.Positive(t.scoreSum/float64(t.total)) {
			frac = math.Nextafter(VoteRange.Border, 0)
		}
		out[d].Categories = []int16{cat}
		out[d].Scores = []float64{frac}
	}
	return out, nil
}

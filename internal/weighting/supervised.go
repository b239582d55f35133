package weighting

import (
	"fmt"
	"math"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// Supervised scores how strongly a feature is associated with a category
// from the feature/category contingency table, where TP counts documents
// holding both, FP the feature only, FN the category only.
type Supervised int

const (
	InformationGain Supervised = iota
	ChiSquare
	OddsRatio
)

func (s Supervised) String() string {
	switch s {
	case InformationGain:
		return "ig"
	case ChiSquare:
		return "chi2"
	case OddsRatio:
		return "or"
	}
	return fmt.Sprintf("supervised(%d)", int(s))
}

func ParseSupervised(name string) (Supervised, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "ig", "infogain", "information-gain":
		return InformationGain, nil
	case "chi2", "chisquare", "chi-square":
		return ChiSquare, nil
	case "or", "oddsratio", "odds-ratio":
		return OddsRatio, nil
	}
	return 0, apperrors.Configf("unknown supervised function %q", name)
}

// Score evaluates s on one contingency table.
func (s Supervised) Score(c evaluation.ContingencyTable) float64 {
	tp, fp, fn, tn := float64(c.TP), float64(c.FP), float64(c.FN), float64(c.TN)
	n := tp + fp + fn + tn
	if n == 0 {
		return 0
	}
	switch s {
	case ChiSquare:
		den := (tp + fp) * (fn + tn) * (tp + fn) * (fp + tn)
		if den == 0 {
			return 0
		}
		diff := tp*tn - fp*fn
		return n * diff * diff / den
	case OddsRatio:
		return math.Log((tp + 0.5) * (tn + 0.5) / ((fp + 0.5) * (fn + 0.5)))
	default:
		return igCell(tp, tp+fp, tp+fn, n) +
			igCell(fp, tp+fp, fp+tn, n) +
			igCell(fn, fn+tn, tp+fn, n) +
			igCell(tn, fn+tn, fp+tn, n)
	}
}

func igCell(joint, feature, category, n float64) float64 {
	if joint == 0 {
		return 0
	}
	return joint / n * math.Log2(joint*n/(feature*category))
}

// Contingency builds the table of feature against cat in ix.
func Contingency(ix *index.Index, feature int, cat int16) evaluation.ContingencyTable {
	tp := len(index.Collect(ix.FeatureCategoryDocuments(feature, cat)))
	fp := ix.FeatureDocumentCount(feature) - tp
	fn := ix.CategoryDocumentCount(cat) - tp
	return evaluation.ContingencyTable{
		TP: tp,
		FP: fp,
		FN: fn,
		TN: ix.DocumentCount() - tp - fp - fn,
	}
}

// FeatureScores returns s for every feature of ix against cat.
func (s Supervised) FeatureScores(ix *index.Index, cat int16) []float64 {
	out := make([]float64, ix.FeatureCount())
	for f := range out {
		out[f] = s.Score(Contingency(ix, f, cat))
	}
	return out
}

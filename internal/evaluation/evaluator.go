package evaluation

import (
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// CategoryReport is the outcome for one category.
type CategoryReport struct {
	Name  string           `json:"name"`
	Table ContingencyTable `json:"table"`
	F1    float64          `json:"f1"`
}

// Report aggregates an evaluation run.
type Report struct {
	Categories []CategoryReport `json:"categories"`
	Micro      ContingencyTable `json:"micro"`
	MicroF1    float64          `json:"micro_f1"`
	MacroF1    float64          `json:"macro_f1"`
}

// Evaluate compares the decisions encoded by results and ranges with the
// labels of gold. Category IDs in results and ranges refer to gold's category
// table; documents without a result are counted as negative decisions.
func Evaluate(gold *index.Index, results []learner.ClassificationResult, ranges map[int16]learner.ClassifierRange) (*Report, error) {
	byDoc := make([]*learner.ClassificationResult, gold.DocumentCount())
	for i := range results {
		r := &results[i]
		if r.DocumentID < 0 || r.DocumentID >= len(byDoc) {
			return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "result for document %d of %d", r.DocumentID, len(byDoc))
		}
		byDoc[r.DocumentID] = r
	}

	rep := &Report{}
	for _, cat := range learner.SortedCategories(ranges) {
		if int(cat) >= gold.CategoryCount() {
			return nil, apperrors.Dataf(apperrors.ErrOutOfRange, "category %d of %d", cat, gold.CategoryCount())
		}
		rng := ranges[cat]
		var table ContingencyTable
		for d, r := range byDoc {
			predicted := false
			if r != nil {
				if s, ok := r.Score(cat); ok {
					predicted = rng.Positive(s)
				}
			}
			table.Count(predicted, gold.DocumentHasCategory(d, cat))
		}
		rep.Categories = append(rep.Categories, CategoryReport{
			Name:  gold.CategoryName(cat),
			Table: table,
			F1:    table.F1(),
		})
		rep.Micro.Add(table)
		rep.MacroF1 += table.F1()
	}
	rep.MicroF1 = rep.Micro.F1()
	if n := len(rep.Categories); n > 0 {
		rep.MacroF1 /= float64(n)
	}
	return rep, nil
}

// Package weighting computes document/feature weights for an index, either
// unsupervised (TF-IDF, BM25) or supervised by a category's labels.
package weighting

import (
	"math"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// Function produces a weighting table for an index. Apply does not modify
// the index; callers install the result with SetWeighting.
type Function interface {
	Apply(ix *index.Index) *index.WeightingTable
}

// TFIDF weights (1 + ln tf) * ln(D / df), optionally cosine-normalised per
// document.
type TFIDF struct {
	Normalize bool
}

func (w TFIDF) Apply(ix *index.Index) *index.WeightingTable {
	idf := make([]float64, ix.FeatureCount())
	docs := float64(ix.DocumentCount())
	for f := range idf {
		if df := ix.FeatureDocumentCount(f); df > 0 {
			idf[f] = math.Log(docs / float64(df))
		}
	}
	rows := make([][]index.Weight, ix.DocumentCount())
	for d := range rows {
		entries := ix.DocumentEntries(d)
		row := make([]index.Weight, 0, len(entries))
		for _, e := range entries {
			row = append(row, index.Weight{
				Feature: e.Feature,
				Value:   (1 + math.Log(float64(e.Frequency))) * idf[e.Feature],
			})
		}
		if w.Normalize {
			normalizeRow(row)
		}
		rows[d] = row
	}
	return index.NewWeightingTable(rows)
}

// Raw weights every feature by its frequency.
type Raw struct{}

func (Raw) Apply(ix *index.Index) *index.WeightingTable {
	rows := make([][]index.Weight, ix.DocumentCount())
	for d := range rows {
		for _, e := range ix.DocumentEntries(d) {
			rows[d] = append(rows[d], index.Weight{Feature: e.Feature, Value: float64(e.Frequency)})
		}
	}
	return index.NewWeightingTable(rows)
}

const (
	defaultK1 = 1.2
	defaultB  = 0.75
)

// BM25 weights every posting by its Okapi BM25 contribution.
type BM25 struct {
	K1 float64
	B  float64
}

func (w BM25) Apply(ix *index.Index) *index.WeightingTable {
	k1, b := w.K1, w.B
	if k1 == 0 {
		k1 = defaultK1
	}
	if b == 0 {
		b = defaultB
	}
	total := int64(ix.DocumentCount())
	var lengthSum int
	for d := 0; d < ix.DocumentCount(); d++ {
		lengthSum += ix.DocumentLength(d)
	}
	var avgDocLength float64
	if total > 0 {
		avgDocLength = float64(lengthSum) / float64(total)
	}
	idf := make([]float64, ix.FeatureCount())
	for f := range idf {
		idf[f] = computeIDF(total, int64(ix.FeatureDocumentCount(f)))
	}

	rows := make([][]index.Weight, ix.DocumentCount())
	for d := range rows {
		docLength := float64(ix.DocumentLength(d))
		entries := ix.DocumentEntries(d)
		row := make([]index.Weight, 0, len(entries))
		for _, e := range entries {
			tfNorm := computeTFNorm(float64(e.Frequency), docLength, avgDocLength, k1, b)
			row = append(row, index.Weight{Feature: e.Feature, Value: idf[e.Feature] * tfNorm})
		}
		rows[d] = row
	}
	return index.NewWeightingTable(rows)
}

func computeIDF(totalDocs int64, docFreq int64) float64 {
	numerator := float64(totalDocs) - float64(docFreq)
	denominator := float64(docFreq) + 0.5
	return math.Log(numerator/denominator + 1)
}

func computeTFNorm(termFreq, docLength, avgDocLength, k1, b float64) float64 {
	if avgDocLength == 0 {
		return 0
	}
	lengthRatio := docLength / avgDocLength
	denominator := termFreq + k1*(1-b+b*lengthRatio)
	return (termFreq * (k1 + 1)) / denominator
}

func normalizeRow(row []index.Weight) {
	var sum float64
	for _, w := range row {
		sum += w.Value * w.Value
	}
	if sum == 0 {
		return
	}
	n := math.Sqrt(sum)
	for i := range row {
		row[i].Value /= n
	}
}

// ParseFunction resolves an unsupervised weighting by name.
func ParseFunction(name string) (Function, error) {
	switch strings.ToLower(name) {
	case "tfidf", "tf-idf", "":
		return TFIDF{Normalize: true}, nil
	case "bm25":
		return BM25{}, nil
	case "raw", "tf":
		return Raw{}, nil
	default:
		return nil, apperrors.Configf("unknown weighting function %q", name)
	}
}

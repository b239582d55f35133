package oversample

import (
	"math"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vector"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vectorizer"
)

// assembler rebuilds an index in the feature space of a source index.
type assembler struct {
	src *index.Index
	vec *vectorizer.Vectorizer
	b   *index.Builder
}

func newAssembler(src *index.Index) (*assembler, error) {
	a := &assembler{src: src, vec: vectorizer.New(src), b: index.NewBuilder()}
	a.b.UseExactWeights()
	for c := int16(0); int(c) < src.CategoryCount(); c++ {
		if _, err := a.b.AddCategory(src.CategoryName(c), ""); err != nil {
			return nil, err
		}
	}
	for f := 0; f < src.FeatureCount(); f++ {
		a.b.AddFeature(src.FeatureName(f))
	}
	return a, nil
}

func (a *assembler) labels(doc int) []string {
	var out []string
	for _, c := range a.src.DocumentCategories(doc) {
		out = append(out, a.src.CategoryName(c))
	}
	return out
}

// copyDocument adds doc of the source under name.
func (a *assembler) copyDocument(doc int, name string) error {
	return a.addVectors(name, a.vec.DocumentFrequencies(doc), a.vec.DocumentWeights(doc), a.labels(doc))
}

// interpolate adds from + gap*(to - from), applied to both frequencies and
// weights, labelled like from.
func (a *assembler) interpolate(from, to int, gap float64, name string) error {
	freqs := a.vec.DocumentFrequencies(from)
	weights := a.vec.DocumentWeights(from)
	toFreqs := a.vec.DocumentFrequencies(to)
	toWeights := a.vec.DocumentWeights(to)

	outFreqs := vector.NewSparse(freqs.Dim())
	outWeights := vector.NewSparse(weights.Dim())
	for _, dim := range union(freqs.Indices(), toFreqs.Indices()) {
		outFreqs.Set(dim, freqs.Get(dim)+gap*(toFreqs.Get(dim)-freqs.Get(dim)))
		outWeights.Set(dim, weights.Get(dim)+gap*(toWeights.Get(dim)-weights.Get(dim)))
	}
	return a.addVectors(name, outFreqs, outWeights, a.labels(from))
}

func (a *assembler) addVectors(name string, freqs, weights *vector.Sparse, labels []string) error {
	occ := make([]index.Occurrence, 0, freqs.NonZero())
	freqs.Each(func(dim int, f float64) {
		w := weights.Get(dim)
		if f <= 0 && w <= 0 {
			return
		}
		n := int(math.Round(f))
		if n < 1 {
			n = 1
		}
		occ = append(occ, index.Occurrence{
			Feature:   a.src.FeatureName(a.vec.DimensionFeature(dim)),
			Frequency: n,
			Weight:    w,
		})
	})
	_, err := a.b.AddDocument(name, occ, labels)
	return err
}

func (a *assembler) build() *index.Index { return a.b.Build() }

func union(x, y []int) []int {
	out := make([]int, 0, len(x)+len(y))
	i, j := 0, 0
	for i < len(x) || j < len(y) {
		switch {
		case j >= len(y) || (i < len(x) && x[i] < y[j]):
			out = append(out, x[i])
			i++
		case i >= len(x) || y[j] < x[i]:
			out = append(out, y[j])
			j++
		default:
			out = append(out, x[i])
			i++
			j++
		}
	}
	return out
}

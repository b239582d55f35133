package dro

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"sort"
	"strconv"
	"strings"
	"sync/atomic"
	"time"

	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/floats"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/vector"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/metrics"
)

// LatentFeaturePrefix names the features of synthetic documents.
const LatentFeaturePrefix = "latent_"

// LatentFeatureName returns the feature name of latent dimension l.
func LatentFeatureName(l int) string { return LatentFeaturePrefix + strconv.Itoa(l) }

// ReplicateName names the r-th synthetic document drawn from name.
func ReplicateName(name string, r int) string { return name + "_" + strconv.Itoa(r) }

// OriginalName strips a trailing "_<digits>" replicate suffix. ok is false
// when name carries no such suffix.
func OriginalName(name string) (orig string, ok bool) {
	i := strings.LastIndexByte(name, '_')
	if i < 0 || i == len(name)-1 {
		return name, false
	}
	for _, r := range name[i+1:] {
		if r < '0' || r > '9' {
			return name, false
		}
	}
	return name[:i], true
}

// Engine draws synthetic latent documents for a single-category index. It
// must be calibrated with SetSupervisedWeighting before Compute.
type Engine struct {
	model    *DistributionModel
	cust     Customizer
	metrics  *metrics.Metrics
	logger   *slog.Logger
	progress func(done, total int)

	calibrated   bool
	category     string
	positives    int
	featureScale []float64
}

func NewEngine(model *DistributionModel, cust Customizer, m *metrics.Metrics) (*Engine, error) {
	if err := cust.validate(); err != nil {
		return nil, err
	}
	return &Engine{
		model:   model,
		cust:    cust,
		metrics: m,
		logger:  slog.Default().With("component", "dro-engine"),
	}, nil
}

// SetProgress installs a hook called after each input document is
// projected. It is called from worker goroutines and must be safe for
// concurrent use.
func (e *Engine) SetProgress(fn func(done, total int)) { e.progress = fn }

// Positives returns the positive count of the calibration index.
func (e *Engine) Positives() int { return e.positives }

// SetSupervisedWeighting calibrates the engine on a labelled training index:
// every base feature is scaled by its supervised association with the
// index's only category. Features unknown to train get no weight.
func (e *Engine) SetSupervisedWeighting(train *index.Index) error {
	if n := train.CategoryCount(); n != 1 {
		return apperrors.Newf(apperrors.ErrMultiCategory, apperrors.ExitConfiguration, "calibration index has %d categories", n)
	}
	scores := e.cust.Supervised.FeatureScores(train, 0)
	base := e.model.Base()
	scale := make([]float64, base.FeatureCount())
	informative := 0
	for f := range scale {
		tf, ok := train.FeatureID(base.FeatureName(f))
		if !ok {
			continue
		}
		if s := scores[tf]; s > 0 {
			scale[f] = s
			informative++
		}
	}
	e.featureScale = scale
	e.category = train.CategoryName(0)
	e.positives = train.CategoryDocumentCount(0)
	e.calibrated = true

	e.logger.Info("engine calibrated",
		"category", e.category,
		"positives", e.positives,
		"function", e.cust.Supervised.String(),
		"informative_features", informative,
	)
	return nil
}

// Compute projects every document of ix into the latent space and emits its
// synthetic replicates in input order. Test documents get TestReplicants
// replicates each; in training, positives are spread over TrainReplicants
// replicates and negatives get one.
func (e *Engine) Compute(ctx context.Context, ix *index.Index, isTest bool) (*index.Index, error) {
	if n := ix.CategoryCount(); n != 1 {
		return nil, apperrors.Newf(apperrors.ErrMultiCategory, apperrors.ExitConfiguration, "dro compute: index has %d categories", n)
	}
	if !e.calibrated {
		return nil, apperrors.New(apperrors.ErrNotCalibrated, apperrors.ExitFailure, "dro compute called before SetSupervisedWeighting")
	}
	if name := ix.CategoryName(0); name != e.category {
		e.logger.Warn("computing a category other than the calibrated one",
			"calibrated", e.category,
			"category", name,
		)
	}

	set := "train"
	if isTest {
		set = "test"
	}
	start := time.Now()
	plan := e.replicatePlan(ix, isTest)
	deterministic := !isTest && e.cust.TrainReplicants == ix.CategoryDocumentCount(0)

	base := e.model.Base()
	featMap := make([]int, ix.FeatureCount())
	for f := range featMap {
		bf, ok := base.FeatureID(ix.FeatureName(f))
		if !ok {
			bf = -1
		}
		featMap[f] = bf
	}

	docs := ix.DocumentCount()
	e.logger.Info("dro compute started",
		"set", set,
		"category", ix.CategoryName(0),
		"documents", docs,
		"workers", e.cust.MaxWorkers,
		"deterministic", deterministic,
	)

	results := make([][][]index.Occurrence, docs)
	var done atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cust.MaxWorkers)
	for d := 0; d < docs; d++ {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[d] = e.project(ix, d, featMap, plan[d], deterministic, isTest)
			e.metrics.ObserveDocument()
			if e.progress != nil {
				e.progress(int(done.Add(1)), docs)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, fmt.Errorf("dro compute %s: %w", set, err)
	}

	b := index.NewBuilder()
	b.UseExactWeights()
	if _, err := b.AddCategory(ix.CategoryName(0), ""); err != nil {
		return nil, err
	}
	for l := 0; l < e.model.LatentDimensions(); l++ {
		b.AddFeature(LatentFeatureName(l))
	}
	emitted := 0
	for d, reps := range results {
		var labels []string
		for _, c := range ix.DocumentCategories(d) {
			labels = append(labels, ix.CategoryName(c))
		}
		name := ix.DocumentName(d)
		for r, occ := range reps {
			if _, err := b.AddDocument(ReplicateName(name, r), occ, labels); err != nil {
				return nil, fmt.Errorf("dro compute %s: %w", set, err)
			}
			emitted++
		}
	}
	out := b.Build()

	elapsed := time.Since(start)
	e.metrics.ObserveSynthetic(set, emitted)
	e.metrics.ObserveCompute(set, elapsed.Seconds())
	e.logger.Info("dro compute finished",
		"set", set,
		"synthetic_documents", emitted,
		"positives", out.CategoryDocumentCount(0),
		"duration", elapsed,
	)
	return out, nil
}

func (e *Engine) replicatePlan(ix *index.Index, isTest bool) []int {
	plan := make([]int, ix.DocumentCount())
	if isTest {
		for d := range plan {
			plan[d] = e.cust.TestReplicants
		}
		return plan
	}
	for d := range plan {
		plan[d] = 1
	}
	positives := index.Collect(ix.CategoryDocuments(0))
	if len(positives) == 0 || e.cust.TrainReplicants <= len(positives) {
		return plan
	}
	each := e.cust.TrainReplicants / len(positives)
	extra := e.cust.TrainReplicants % len(positives)
	for k, d := range positives {
		plan[d] = each
		if k < extra {
			plan[d]++
		}
	}
	return plan
}

// project returns reps latent occurrence lists for document doc of ix.
func (e *Engine) project(ix *index.Index, doc int, featMap []int, reps int, deterministic, isTest bool) [][]index.Occurrence {
	out := make([][]index.Occurrence, reps)
	x := vector.NewSparse(len(e.featureScale))
	for _, w := range ix.DocumentWeights(doc) {
		bf := featMap[w.Feature]
		if bf < 0 {
			continue
		}
		if v := w.Value * e.featureScale[bf]; v != 0 {
			x.Add(bf, v)
		}
	}
	support, pmf := e.distribution(e.model.profiles.VecMul(x).Raw())
	if len(support) == 0 {
		return out
	}

	draws := int(math.Ceil(e.cust.scale() * float64(len(ix.DocumentEntries(doc)))))
	if draws < 1 {
		draws = 1
	}
	stream := uint64(doc) << 1
	if isTest {
		stream |= 1
	}
	rng := rand.New(rand.NewPCG(e.cust.Seed, stream))
	cum := floats.CumSum(make([]float64, len(pmf)), pmf)
	total := cum[len(cum)-1]

	for r := range out {
		counts := make([]float64, len(support))
		if deterministic {
			for i, p := range pmf {
				counts[i] = float64(draws) * p
			}
		} else {
			for k := 0; k < draws; k++ {
				i := sort.SearchFloat64s(cum, rng.Float64()*total)
				if i >= len(counts) {
					i = len(counts) - 1
				}
				counts[i]++
			}
		}
		out[r] = latentOccurrences(support, counts)
	}
	return out
}

// distribution turns latent scores into a PMF over the dimensions with a
// positive score. Softmax works on scores divided by their maximum.
func (e *Engine) distribution(scores []float64) (support []int, pmf []float64) {
	for l, s := range scores {
		if s > 0 {
			support = append(support, l)
			pmf = append(pmf, s)
		}
	}
	if len(support) == 0 {
		return nil, nil
	}
	if e.cust.UseSoftmax {
		top := floats.Max(pmf)
		for i, s := range pmf {
			pmf[i] = math.Exp((s/top - 1) / e.cust.SoftmaxTemperature)
		}
	}
	floats.Scale(1/floats.Sum(pmf), pmf)
	return support, pmf
}

func latentOccurrences(support []int, counts []float64) []index.Occurrence {
	norm := floats.Norm(counts, 2)
	if norm == 0 {
		return nil
	}
	occ := make([]index.Occurrence, 0, len(support))
	for i, c := range counts {
		if c <= 0 {
			continue
		}
		freq := int(math.Round(c))
		if freq < 1 {
			freq = 1
		}
		occ = append(occ, index.Occurrence{
			Feature:   LatentFeatureName(support[i]),
			Frequency: freq,
			Weight:    c / norm,
		})
	}
	return occ
}

// Package pipeline wires the oversampling strategies, the downstream learner
// and the threshold optimizer into one run over a train/test pair for a
// single category.
package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/dro"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner/knn"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner/rocchio"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/oversample"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/threshold"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/metrics"
)

// Result is the outcome of a run. Train, Validation and Test are the
// representations handed to the learner; for DRO they are the merged
// BOW+latent indices.
type Result struct {
	Category     string
	Method       oversample.Method
	Skipped      bool
	Train        *index.Index
	Validation   *index.Index
	Test         *index.Index
	TestGold     *index.Index
	LatentTrain  *index.Index
	LatentTest   *index.Index
	MergeSkipped []string

	Ranges map[int16]learner.ClassifierRange
	Report *evaluation.Report
}

type Pipeline struct {
	cfg      *config.Config
	method   oversample.Method
	metrics  *metrics.Metrics
	logger   *slog.Logger
	progress func(done, total int)
}

func New(cfg *config.Config, m *metrics.Metrics) (*Pipeline, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	method, err := oversample.ParseMethod(cfg.Oversampling.Method)
	if err != nil {
		return nil, err
	}
	return &Pipeline{
		cfg:     cfg,
		method:  method,
		metrics: m,
		logger:  slog.Default().With("component", "pipeline"),
	}, nil
}

// SetProgress forwards a progress hook to the DRO engine.
func (p *Pipeline) SetProgress(fn func(done, total int)) { p.progress = fn }

// Run oversamples category in train, then builds the configured learner,
// calibrates its threshold and evaluates it on test.
func (p *Pipeline) Run(ctx context.Context, train, test *index.Index, category string) (*Result, error) {
	res, err := p.Oversample(ctx, train, test, category)
	if err != nil {
		p.metrics.ObserveRun(p.method.String(), "error")
		return nil, err
	}
	if err := p.Calibrate(ctx, res); err != nil {
		p.metrics.ObserveRun(p.method.String(), "error")
		return nil, err
	}
	return res, nil
}

// Oversample produces the learner-facing representations of train, the
// validation split and test for category. When the training set already
// has TrainReplicants positives the oversampling is skipped and the BOW
// indices are returned unchanged.
func (p *Pipeline) Oversample(ctx context.Context, train, test *index.Index, category string) (*Result, error) {
	trainView, err := categoryView(train, category, "training")
	if err != nil {
		return nil, err
	}
	testView, err := categoryView(test, category, "test")
	if err != nil {
		return nil, err
	}
	fit, validation, err := split(trainView, p.cfg.Threshold.ValidationEvery)
	if err != nil {
		return nil, err
	}

	res := &Result{Category: category, Method: p.method, TestGold: testView}
	o := p.cfg.Oversampling
	positives := fit.CategoryDocumentCount(0)
	if o.TrainReplicants <= positives {
		p.logger.Info("skipping oversampling",
			"category", category,
			"positives", positives,
			"train_replicants", o.TrainReplicants,
		)
		res.Skipped = true
		res.Train, res.Test = fit, testView
		res.Validation = orDefault(validation, fit)
		p.metrics.ObserveRun(p.method.String(), "skipped")
		return res, nil
	}

	if p.method == oversample.MethodDRO {
		if err := p.runDRO(ctx, res, fit, validation, testView); err != nil {
			return nil, err
		}
	} else {
		strategy, err := oversample.NewStrategy(p.method, oversample.Options{
			Neighbors:       o.SMOTE.Neighbors,
			BorderNeighbors: o.SMOTE.BorderNeighbors,
			Seed:            o.Seed,
		})
		if err != nil {
			return nil, err
		}
		if res.Train, err = strategy.Oversample(ctx, fit, o.TrainReplicants); err != nil {
			return nil, fmt.Errorf("%s oversampling: %w", p.method, err)
		}
		res.Test = testView
		res.Validation = orDefault(validation, res.Train)
	}

	p.metrics.ObserveRun(p.method.String(), "ok")
	p.logger.Info("oversampling finished",
		"category", category,
		"method", p.method.String(),
		"train_documents", res.Train.DocumentCount(),
		"train_positives", res.Train.CategoryDocumentCount(0),
		"test_documents", res.Test.DocumentCount(),
	)
	return res, nil
}

func (p *Pipeline) runDRO(ctx context.Context, res *Result, fit, validation, test *index.Index) error {
	model, err := dro.NewDistributionModel(fit, ModelConfig(p.cfg))
	if err != nil {
		return err
	}
	cust, err := Customizer(p.cfg)
	if err != nil {
		return err
	}
	engine, err := dro.NewEngine(model, cust, p.metrics)
	if err != nil {
		return err
	}
	engine.SetProgress(p.progress)
	if err := engine.SetSupervisedWeighting(fit); err != nil {
		return err
	}

	if res.LatentTrain, err = engine.Compute(ctx, fit, false); err != nil {
		return err
	}
	var skipped []string
	if res.Train, skipped, err = dro.Merge(res.LatentTrain, fit, p.metrics); err != nil {
		return err
	}
	res.MergeSkipped = append(res.MergeSkipped, skipped...)

	if res.LatentTest, err = engine.Compute(ctx, test, true); err != nil {
		return err
	}
	if res.Test, skipped, err = dro.Merge(res.LatentTest, test, p.metrics); err != nil {
		return err
	}
	res.MergeSkipped = append(res.MergeSkipped, skipped...)

	res.Validation = res.Train
	if validation != nil {
		latent, err := engine.Compute(ctx, validation, true)
		if err != nil {
			return err
		}
		if res.Validation, skipped, err = dro.Merge(latent, validation, p.metrics); err != nil {
			return err
		}
		res.MergeSkipped = append(res.MergeSkipped, skipped...)
	}
	return nil
}

// Calibrate builds the configured learner on res.Train, optimizes its border
// on res.Validation and evaluates res.Test. DRO test replicates are folded
// back onto the original test documents by majority vote.
func (p *Pipeline) Calibrate(ctx context.Context, res *Result) error {
	l, err := NewLearner(p.cfg.Learner)
	if err != nil {
		return err
	}
	tc, err := ThresholdConfig(p.cfg)
	if err != nil {
		return err
	}
	opt, err := threshold.New(tc, p.metrics)
	if err != nil {
		return err
	}

	c, err := l.Build(ctx, res.Train)
	if err != nil {
		return fmt.Errorf("build %s classifier: %w", p.cfg.Learner.Name, err)
	}
	r, err := opt.OptimizeClassifier(ctx, c, res.Validation, 0)
	if err != nil {
		return err
	}
	res.Ranges = map[int16]learner.ClassifierRange{0: r}

	results, err := c.Classify(ctx, res.Test, 0)
	if err != nil {
		return fmt.Errorf("classify test set: %w", err)
	}
	if res.LatentTest != nil {
		folded, err := dro.DecomposeMajority(res.Test, results, res.TestGold, 0, r)
		if err != nil {
			return err
		}
		res.Report, err = evaluation.Evaluate(res.TestGold, folded, map[int16]learner.ClassifierRange{0: dro.VoteRange})
		if err != nil {
			return err
		}
	} else if res.Report, err = evaluation.Evaluate(res.Test, results, res.Ranges); err != nil {
		return err
	}

	p.logger.Info("calibration finished",
		"category", res.Category,
		"learner", p.cfg.Learner.Name,
		"border", r.Border,
		"f1", res.Report.MicroF1,
	)
	return nil
}

// ModelConfig extracts the distribution model settings.
func ModelConfig(cfg *config.Config) dro.ModelConfig {
	o := cfg.Oversampling
	return dro.ModelConfig{
		LatentDimensions:   o.LatentDimensions,
		RandomIndexing:     o.RandomIndexing.Enabled,
		MinGroups:          o.RandomIndexing.MinGroups,
		DimensionReduction: o.RandomIndexing.DimensionReduction,
		Seed:               o.Seed,
	}
}

// ThresholdConfig extracts the border scan settings.
func ThresholdConfig(cfg *config.Config) (threshold.Config, error) {
	t := cfg.Threshold
	metric, err := evaluation.ParseMetric(t.Metric)
	if err != nil {
		return threshold.Config{}, err
	}
	return threshold.Config{
		Minimum:   t.Minimum,
		Maximum:   t.Maximum,
		Step:      t.Step,
		Metric:    metric,
		Precision: t.Precision,
	}, nil
}

// Customizer extracts the DRO engine settings.
func Customizer(cfg *config.Config) (dro.Customizer, error) {
	o := cfg.Oversampling
	density, err := dro.ParseDensity(o.Density)
	if err != nil {
		return dro.Customizer{}, err
	}
	supervised, err := weighting.ParseSupervised(o.SupervisedFunction)
	if err != nil {
		return dro.Customizer{}, err
	}
	return dro.Customizer{
		TrainReplicants:    o.TrainReplicants,
		TestReplicants:     o.TestReplicants,
		Density:            density,
		UseSoftmax:         o.UseSoftmax,
		SoftmaxTemperature: o.SoftmaxTemperature,
		MaxWorkers:         o.MaxWorkers,
		Seed:               o.Seed,
		Supervised:         supervised,
	}, nil
}

// NewLearner resolves the configured learner.
func NewLearner(cfg config.LearnerConfig) (learner.Learner, error) {
	cust := learner.Customizer{Neighbors: cfg.Neighbors, Beta: cfg.Beta, Gamma: cfg.Gamma}
	switch strings.ToLower(cfg.Name) {
	case "rocchio":
		return rocchio.New(cust), nil
	case "knn":
		return knn.New(cust), nil
	}
	return nil, apperrors.Configf("unknown learner %q", cfg.Name)
}

func categoryView(ix *index.Index, category, set string) (*index.Index, error) {
	cat, ok := ix.CategoryID(category)
	if !ok {
		return nil, apperrors.Dataf(apperrors.ErrNotFound, "category %q absent from %s set", category, set)
	}
	return ix.CategoryView(cat)
}

// split moves every n-th document (the n-th, 2n-th, ...) of ix into a
// validation index. n == 0 returns no validation index.
func split(ix *index.Index, n int) (fit, validation *index.Index, err error) {
	if n == 0 {
		return ix, nil, nil
	}
	return Split(ix, n, n-1)
}

// Split holds out the documents whose ID is congruent to fold modulo n. The
// two halves keep ix's full feature and category tables, so IDs of features
// and categories agree across fit, validation and ix.
func Split(ix *index.Index, n, fold int) (fit, validation *index.Index, err error) {
	if n < 2 || fold < 0 || fold >= n {
		return nil, nil, apperrors.Configf("fold %d of %d", fold, n)
	}
	var held, kept []int
	for d := 0; d < ix.DocumentCount(); d++ {
		if d%n == fold {
			held = append(held, d)
		} else {
			kept = append(kept, d)
		}
	}
	fit, validation = ix.Clone(), ix.Clone()
	if err := fit.RemoveDocuments(held, false); err != nil {
		return nil, nil, err
	}
	if err := validation.RemoveDocuments(kept, false); err != nil {
		return nil, nil, err
	}
	return fit, validation, nil
}

func orDefault(ix, fallback *index.Index) *index.Index {
	if ix != nil {
		return ix
	}
	return fallback
}

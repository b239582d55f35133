// Package threshold calibrates the decision border of binary classifiers by
// scanning candidate borders on a validation set.
package threshold

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"sync"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/evaluation"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/metrics"
)

// tieTolerance is the effectiveness difference below which two borders are
// considered equally good.
const tieTolerance = 1e-12

type State int

const (
	NotOptimized State = iota
	Scanning
	Optimized
)

func (s State) String() string {
	switch s {
	case NotOptimized:
		return "NOT_OPTIMIZED"
	case Scanning:
		return "SCANNING"
	case Optimized:
		return "OPTIMIZED"
	}
	return fmt.Sprintf("State(%d)", int(s))
}

// Config describes the scan: borders Minimum, Minimum+Step, ... up to
// Maximum, judged by Metric. Precision is the number of decimals kept when
// runs are aggregated.
type Config struct {
	Minimum   float64
	Maximum   float64
	Step      float64
	Metric    evaluation.Metric
	Precision int
}

func (c Config) Validate() error {
	if c.Step <= 0 {
		return apperrors.Configf("threshold step must be positive, got %v", c.Step)
	}
	if c.Minimum > c.Maximum {
		return apperrors.Configf("threshold minimum %v above maximum %v", c.Minimum, c.Maximum)
	}
	if c.Precision < 0 {
		return apperrors.Configf("threshold precision must not be negative, got %d", c.Precision)
	}
	return nil
}

// Candidates lists the borders of the scan. Values are rounded to nine
// decimals so that the grid hits 0 exactly.
func (c Config) Candidates() []float64 {
	n := int(math.Floor((c.Maximum-c.Minimum)/c.Step + 1e-9))
	out := make([]float64, 0, n+1)
	for i := 0; i <= n; i++ {
		out = append(out, round(c.Minimum+float64(i)*c.Step, 9))
	}
	return out
}

// Candidate is the outcome of one border.
type Candidate struct {
	Border        float64
	Effectiveness float64
	Table         evaluation.ContingencyTable
}

type Optimizer struct {
	cfg     Config
	metrics *metrics.Metrics
	logger  *slog.Logger

	mu     sync.Mutex
	states map[string]State
}

func New(cfg Config, m *metrics.Metrics) (*Optimizer, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &Optimizer{
		cfg:     cfg,
		metrics: m,
		logger:  slog.Default().With("component", "threshold-optimizer"),
		states:  make(map[string]State),
	}, nil
}

// State returns the optimisation state of a category by name.
func (o *Optimizer) State(category string) State {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.states[category]
}

func (o *Optimizer) setState(category string, s State) {
	o.mu.Lock()
	o.states[category] = s
	o.mu.Unlock()
}

// OptimizeScores scans every candidate border over scores, where labels[i]
// is the gold decision of scores[i]. Ties keep the border closest to zero,
// and a non-negative border over its negative mirror.
func (o *Optimizer) OptimizeScores(scores []float64, labels []bool) (Candidate, error) {
	if len(scores) != len(labels) {
		return Candidate{}, apperrors.Dataf(apperrors.ErrInvalidInput, "%d scores for %d labels", len(scores), len(labels))
	}
	var best Candidate
	found := false
	for _, border := range o.cfg.Candidates() {
		var table evaluation.ContingencyTable
		for i, s := range scores {
			table.Count(s >= border, labels[i])
		}
		c := Candidate{Border: border, Effectiveness: o.cfg.Metric.Of(table), Table: table}
		if !found || o.better(c, best) {
			best, found = c, true
		}
	}
	return best, nil
}

func (o *Optimizer) better(a, b Candidate) bool {
	if math.Abs(a.Effectiveness-b.Effectiveness) > tieTolerance {
		return o.cfg.Metric.Better(a.Effectiveness, b.Effectiveness)
	}
	if aa, ab := math.Abs(a.Border), math.Abs(b.Border); aa != ab {
		return aa < ab
	}
	return a.Border >= 0 && b.Border < 0
}

// Optimize builds a classifier on train and calibrates its border for cat
// on validation. The category must exist in validation under the same name.
func (o *Optimizer) Optimize(ctx context.Context, l learner.Learner, train, validation *index.Index, cat int16) (learner.Classifier, learner.ClassifierRange, error) {
	if cat < 0 || int(cat) >= train.CategoryCount() {
		return nil, learner.ClassifierRange{}, apperrors.Dataf(apperrors.ErrOutOfRange, "category %d of %d", cat, train.CategoryCount())
	}
	name := train.CategoryName(cat)
	if _, ok := validation.CategoryID(name); !ok {
		return nil, learner.ClassifierRange{}, apperrors.Dataf(apperrors.ErrNotFound, "category %q absent from validation set", name)
	}
	o.setState(name, NotOptimized)
	c, err := l.Build(ctx, train)
	if err != nil {
		return nil, learner.ClassifierRange{}, fmt.Errorf("build classifier: %w", err)
	}
	r, err := o.OptimizeClassifier(ctx, c, validation, cat)
	if err != nil {
		return nil, learner.ClassifierRange{}, err
	}
	return c, r, nil
}

// OptimizeClassifier calibrates an already built classifier for cat, installs
// the new range on it and returns it.
func (o *Optimizer) OptimizeClassifier(ctx context.Context, c learner.Classifier, validation *index.Index, cat int16) (learner.ClassifierRange, error) {
	name := c.CategoryName(cat)
	labels, ok := learner.CategoryLabels(validation, name)
	if !ok {
		return learner.ClassifierRange{}, apperrors.Dataf(apperrors.ErrNotFound, "category %q absent from validation set", name)
	}

	results, err := c.Classify(ctx, validation, cat)
	if err != nil {
		return learner.ClassifierRange{}, fmt.Errorf("classify validation set: %w", err)
	}
	o.setState(name, Scanning)
	scores := make([]float64, len(labels))
	for _, r := range results {
		if s, ok := r.Score(cat); ok {
			scores[r.DocumentID] = s
		}
	}
	best, err := o.OptimizeScores(scores, labels)
	if err != nil {
		return learner.ClassifierRange{}, err
	}

	r := c.ClassifierRange(cat)
	r.Border = best.Border
	c.SetClassifierRange(cat, r)
	o.setState(name, Optimized)
	o.metrics.ObserveOptimization(o.cfg.Metric.String(), name, best.Effectiveness)
	o.logger.Info("threshold optimized",
		"category", name,
		"metric", o.cfg.Metric.String(),
		"border", best.Border,
		"effectiveness", best.Effectiveness,
		"table", best.Table.String(),
	)
	return r, nil
}

// OptimizeAll calibrates every category of c.
func (o *Optimizer) OptimizeAll(ctx context.Context, c learner.Classifier, validation *index.Index) (map[int16]learner.ClassifierRange, error) {
	out := make(map[int16]learner.ClassifierRange, c.CategoryCount())
	for cat := int16(0); int(cat) < c.CategoryCount(); cat++ {
		r, err := o.OptimizeClassifier(ctx, c, validation, cat)
		if err != nil {
			return nil, fmt.Errorf("optimize %q: %w", c.CategoryName(cat), err)
		}
		out[cat] = r
	}
	return out, nil
}

// AssignBestClassifierConfiguration merges the ranges found by several runs:
// borders are averaged and rounded to precision decimals, minimum and
// maximum widen to cover every run.
func AssignBestClassifierConfiguration(runs []map[int16]learner.ClassifierRange, precision int) map[int16]learner.ClassifierRange {
	type acc struct {
		sum      float64
		n        int
		min, max float64
	}
	accs := make(map[int16]*acc)
	for _, run := range runs {
		for cat, r := range run {
			a, ok := accs[cat]
			if !ok {
				a = &acc{min: r.Minimum, max: r.Maximum}
				accs[cat] = a
			}
			a.sum += r.Border
			a.n++
			a.min = math.Min(a.min, r.Minimum)
			a.max = math.Max(a.max, r.Maximum)
		}
	}
	out := make(map[int16]learner.ClassifierRange, len(accs))
	for cat, a := range accs {
		out[cat] = learner.ClassifierRange{
			Border:  round(a.sum/float64(a.n), precision),
			Minimum: a.min,
			Maximum: a.max,
		}
	}
	return out
}

func round(x float64, decimals int) float64 {
	p := math.Pow(10, float64(decimals))
	return math.Round(x*p) / p
}

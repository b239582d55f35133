// Package evaluation computes effectiveness measures of classification
// decisions from contingency tables.
package evaluation

import (
	"fmt"
	"strings"

	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// ContingencyTable counts the decisions of one binary classifier. Degenerate
// denominators resolve to 1: a classifier that had nothing to find and found
// nothing is perfect.
type ContingencyTable struct {
	TP int `json:"tp"`
	FP int `json:"fp"`
	FN int `json:"fn"`
	TN int `json:"tn"`
}

// Count records one decision.
func (c *ContingencyTable) Count(predicted, actual bool) {
	switch {
	case predicted && actual:
		c.TP++
	case predicted:
		c.FP++
	case actual:
		c.FN++
	default:
		c.TN++
	}
}

// Add sums o into c.
func (c *ContingencyTable) Add(o ContingencyTable) {
	c.TP += o.TP
	c.FP += o.FP
	c.FN += o.FN
	c.TN += o.TN
}

func (c ContingencyTable) Total() int { return c.TP + c.FP + c.FN + c.TN }

func (c ContingencyTable) Accuracy() float64 {
	if c.Total() == 0 {
		return 1
	}
	return float64(c.TP+c.TN) / float64(c.Total())
}

func (c ContingencyTable) Error() float64 {
	if c.Total() == 0 {
		return 0
	}
	return float64(c.FP+c.FN) / float64(c.Total())
}

func (c ContingencyTable) Precision() float64 {
	if c.TP+c.FP == 0 {
		return 1
	}
	return float64(c.TP) / float64(c.TP+c.FP)
}

func (c ContingencyTable) Recall() float64 {
	if c.TP+c.FN == 0 {
		return 1
	}
	return float64(c.TP) / float64(c.TP+c.FN)
}

func (c ContingencyTable) F1() float64 {
	den := 2*c.TP + c.FP + c.FN
	if den == 0 {
		return 1
	}
	return float64(2*c.TP) / float64(den)
}

func (c ContingencyTable) String() string {
	return fmt.Sprintf("tp=%d fp=%d fn=%d tn=%d", c.TP, c.FP, c.FN, c.TN)
}

// Metric selects one effectiveness measure.
type Metric int

const (
	Accuracy Metric = iota
	Error
	F1
	Precision
	Recall
)

var metricNames = map[Metric]string{
	Accuracy:  "accuracy",
	Error:     "error",
	F1:        "f1",
	Precision: "precision",
	Recall:    "recall",
}

func (m Metric) String() string {
	if s, ok := metricNames[m]; ok {
		return s
	}
	return fmt.Sprintf("metric(%d)", int(m))
}

// ParseMetric accepts the names returned by String, case-insensitively.
func ParseMetric(s string) (Metric, error) {
	want := strings.ToLower(strings.TrimSpace(s))
	for m, name := range metricNames {
		if name == want {
			return m, nil
		}
	}
	return 0, apperrors.Configf("unknown effectiveness metric %q", s)
}

// Of evaluates m on c.
func (m Metric) Of(c ContingencyTable) float64 {
	switch m {
	case Accuracy:
		return c.Accuracy()
	case Error:
		return c.Error()
	case Precision:
		return c.Precision()
	case Recall:
		return c.Recall()
	default:
		return c.F1()
	}
}

// Minimize reports whether lower values of m are better.
func (m Metric) Minimize() bool { return m == Error }

// Better reports whether a is strictly better than b under m.
func (m Metric) Better(a, b float64) bool {
	if m.Minimize() {
		return a < b
	}
	return a > b
}

// Package oversample implements oversampling strategies that work directly in
// the bag-of-words space of a single-category index. Distributional random
// oversampling lives in package dro; this package only names it.
package oversample

import (
	"context"
	"fmt"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

type Method int

const (
	MethodReplicate Method = iota
	MethodSMOTE
	MethodSMOTEENN
	MethodBorderSMOTE
	MethodDRO
)

var methodNames = []string{"replicate", "smote", "smote-enn", "border-smote", "dro"}

func (m Method) String() string {
	if int(m) >= 0 && int(m) < len(methodNames) {
		return methodNames[m]
	}
	return fmt.Sprintf("method(%d)", int(m))
}

// ParseMethod resolves a method name. Underscores are accepted for dashes.
func ParseMethod(s string) (Method, error) {
	want := strings.ReplaceAll(strings.ToLower(strings.TrimSpace(s)), "_", "-")
	for i, name := range methodNames {
		if name == want {
			return Method(i), nil
		}
	}
	return 0, apperrors.Configf("unknown oversampling method %q, want one of %v", s, methodNames)
}

// Strategy grows the positive class of a single-category index to target
// documents. Originals are kept in order, synthetic documents follow.
type Strategy interface {
	Oversample(ctx context.Context, ix *index.Index, target int) (*index.Index, error)
}

// Options carries the knobs of the bag-of-words strategies.
type Options struct {
	Neighbors       int
	BorderNeighbors int
	Seed            uint64
}

// NewStrategy returns the bag-of-words strategy for m. MethodDRO has none.
func NewStrategy(m Method, opts Options) (Strategy, error) {
	smote := SMOTE{K: opts.Neighbors, Seed: opts.Seed}
	switch m {
	case MethodReplicate:
		return Replicate{}, nil
	case MethodSMOTE:
		return smote, nil
	case MethodSMOTEENN:
		return SMOTEENN{SMOTE: smote}, nil
	case MethodBorderSMOTE:
		return BorderSMOTE{SMOTE: smote, M: opts.BorderNeighbors}, nil
	}
	return nil, apperrors.Configf("%s is not a bag-of-words strategy", m)
}

// positivesToAdd validates ix and returns its positives and how many
// synthetic documents reach target.
func positivesToAdd(ix *index.Index, target int) ([]int, int, error) {
	if n := ix.CategoryCount(); n != 1 {
		return nil, 0, apperrors.Newf(apperrors.ErrMultiCategory, apperrors.ExitConfiguration, "oversample: index has %d categories", n)
	}
	positives := index.Collect(ix.CategoryDocuments(0))
	if len(positives) == 0 {
		return nil, 0, apperrors.Dataf(apperrors.ErrNothingToOversample, "category %q has no positive documents", ix.CategoryName(0))
	}
	need := target - len(positives)
	if need <= 0 {
		return nil, 0, apperrors.Dataf(apperrors.ErrNothingToOversample, "category %q already has %d positives for target %d", ix.CategoryName(0), len(positives), target)
	}
	return positives, need, nil
}

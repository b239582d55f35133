// Package corpus reads labelled text collections into weighted indices.
//
// The on-disk format is one document per line:
//
//	name<TAB>cat1,cat2<TAB>text
//
// The category field may be empty. Blank lines and lines starting with '#'
// are ignored.
package corpus

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"log/slog"
	"os"
	"sort"
	"strings"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/tokenizer"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/weighting"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

const maxLineBytes = 16 << 20

type Reader struct {
	tok       *tokenizer.Tokenizer
	weighting weighting.Function
	logger    *slog.Logger
}

func NewReader(cfg config.CorpusConfig) (*Reader, error) {
	tok, err := tokenizer.New(tokenizer.Options{
		Language:  cfg.Language,
		Stemming:  cfg.Stemming,
		MinLength: cfg.MinLength,
	})
	if err != nil {
		return nil, apperrors.Configf("%v", err)
	}
	fn, err := weighting.ParseFunction(cfg.Weighting)
	if err != nil {
		return nil, err
	}
	return &Reader{
		tok:       tok,
		weighting: fn,
		logger:    slog.Default().With("component", "corpus"),
	}, nil
}

// ReadFile opens path and reads it with Read.
func (r *Reader) ReadFile(ctx context.Context, path string) (*index.Index, error) {
	f, err := os.Open(path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, apperrors.Dataf(apperrors.ErrNotFound, "corpus %s", path)
	}
	if err != nil {
		return nil, fmt.Errorf("opening corpus: %w", err)
	}
	defer f.Close()
	ix, err := r.Read(ctx, f)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return ix, nil
}

// Read builds and weights an index from the documents in src.
func (r *Reader) Read(ctx context.Context, src io.Reader) (*index.Index, error) {
	b := index.NewBuilder()
	sc := bufio.NewScanner(src)
	sc.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	line, empty := 0, 0
	for sc.Scan() {
		line++
		if line%1000 == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}
		text := strings.TrimRight(sc.Text(), "\r")
		if strings.TrimSpace(text) == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.SplitN(text, "\t", 3)
		if len(fields) != 3 {
			return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "line %d: want 3 tab-separated fields, got %d", line, len(fields))
		}
		name := strings.TrimSpace(fields[0])
		if name == "" {
			return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "line %d: empty document name", line)
		}
		occ := r.occurrences(fields[2])
		if len(occ) == 0 {
			empty++
		}
		if _, err := b.AddDocument(name, occ, splitCategories(fields[1])); err != nil {
			return nil, fmt.Errorf("line %d: %w", line, err)
		}
	}
	if err := sc.Err(); err != nil {
		return nil, apperrors.Dataf(apperrors.ErrInvalidInput, "scanning corpus at line %d: %v", line+1, err)
	}

	ix := b.Build()
	if err := ix.SetWeighting(r.weighting.Apply(ix)); err != nil {
		return nil, fmt.Errorf("weighting corpus: %w", err)
	}
	r.logger.Info("corpus loaded",
		"documents", ix.DocumentCount(),
		"features", ix.FeatureCount(),
		"categories", ix.CategoryCount(),
		"empty_documents", empty,
	)
	return ix, nil
}

func (r *Reader) occurrences(text string) []index.Occurrence {
	counts := tokenizer.Counts(r.tok.Tokenize(text))
	out := make([]index.Occurrence, 0, len(counts))
	for term, n := range counts {
		out = append(out, index.Occurrence{Feature: term, Frequency: n})
	}
	// Feature IDs follow first appearance; sorting keeps them stable across runs.
	sort.Slice(out, func(i, j int) bool { return out[i].Feature < out[j].Feature })
	return out
}

func splitCategories(field string) []string {
	var out []string
	for _, c := range strings.Split(field, ",") {
		if c = strings.TrimSpace(c); c != "" {
			out = append(out, c)
		}
	}
	return out
}

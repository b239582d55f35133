// build-index tokenizes a TSV corpus, weights it and stores the resulting
// index under the configured data directory.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/logger"
)

func main() {
	if err := run(os.Args[1:]); err != nil {
		fmt.Fprintf(os.Stderr, "build-index: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(args []string) error {
	flags := pflag.NewFlagSet("build-index", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to YAML config file")
	corpusPath := flags.String("corpus", "", "TSV corpus: name<TAB>categories<TAB>text")
	name := flags.String("name", "", "index name (default: corpus file name without extension)")
	dataDir := flags.String("data-dir", "", "override storage.dataDir")
	weighting := flags.String("weighting", "", "override corpus.weighting (tfidf, bm25, raw)")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return apperrors.Configf("%v", err)
	}
	if *corpusPath == "" {
		return apperrors.Configf("--corpus is required")
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return apperrors.Configf("loading config: %v", err)
	}
	if *dataDir != "" {
		cfg.Storage.DataDir = *dataDir
	}
	if *weighting != "" {
		cfg.Corpus.Weighting = *weighting
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)

	if *name == "" {
		base := filepath.Base(*corpusPath)
		*name = strings.TrimSuffix(base, filepath.Ext(base))
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	reader, err := corpus.NewReader(cfg.Corpus)
	if err != nil {
		return err
	}
	ix, err := reader.ReadFile(ctx, *corpusPath)
	if err != nil {
		return err
	}

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()
	path, err := store.WriteIndex(*name, ix)
	if err != nil {
		return err
	}
	slog.Info("index built",
		"name", *name,
		"path", path,
		"documents", ix.DocumentCount(),
		"features", ix.FeatureCount(),
		"categories", ix.CategoryCount(),
		"weighting", cfg.Corpus.Weighting,
	)
	return nil
}

// optimize-threshold calibrates the decision border of every category of a
// stored index. With --validation the borders are scanned on that index;
// otherwise the training index is split into folds and the per-fold borders
// are averaged.
package main

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"sort"
	"syscall"

	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/index"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/threshold"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/logger"
)

func main() {
	if err := run(os.Args[1:], os.Stdout); err != nil {
		fmt.Fprintf(os.Stderr, "optimize-threshold: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func run(args []string, stdout io.Writer) error {
	flags := pflag.NewFlagSet("optimize-threshold", pflag.ContinueOnError)
	configPath := flags.StringP("config", "c", "", "path to YAML config file")
	trainName := flags.String("train", "train", "name of the stored training index")
	validationName := flags.String("validation", "", "name of a stored validation index (default: k-fold on train)")
	folds := flags.Int("folds", 5, "number of folds when no validation index is given")
	out := flags.String("out", "", "name of the written ranges (default: learner name)")
	learnerName := flags.String("learner", "", "override learner.name")
	metric := flags.String("metric", "", "override threshold.metric")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return apperrors.Configf("%v", err)
	}

	cfg, err := config.Load(*configPath)
	if err != nil {
		return apperrors.Configf("loading config: %v", err)
	}
	if *learnerName != "" {
		cfg.Learner.Name = *learnerName
	}
	if *metric != "" {
		cfg.Threshold.Metric = *metric
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	if *validationName == "" && *folds < 2 {
		return apperrors.Configf("--folds must be at least 2, got %d", *folds)
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if *out == "" {
		*out = cfg.Learner.Name
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()
	train, err := store.ReadIndex(*trainName)
	if err != nil {
		return err
	}

	l, err := pipeline.NewLearner(cfg.Learner)
	if err != nil {
		return err
	}
	tc, err := pipeline.ThresholdConfig(cfg)
	if err != nil {
		return err
	}
	opt, err := threshold.New(tc, nil)
	if err != nil {
		return err
	}

	var ranges map[int16]learner.ClassifierRange
	if *validationName != "" {
		validation, err := store.ReadIndex(*validationName)
		if err != nil {
			return err
		}
		ranges, err = calibrate(ctx, l, opt, train, validation)
		if err != nil {
			return err
		}
	} else {
		runs := make([]map[int16]learner.ClassifierRange, 0, *folds)
		for fold := 0; fold < *folds; fold++ {
			fit, validation, err := pipeline.Split(train, *folds, fold)
			if err != nil {
				return err
			}
			run, err := calibrate(ctx, l, opt, fit, validation)
			if err != nil {
				return fmt.Errorf("fold %d: %w", fold, err)
			}
			runs = append(runs, run)
		}
		ranges = threshold.AssignBestClassifierConfiguration(runs, tc.Precision)
	}

	byName := make(map[string]learner.ClassifierRange, len(ranges))
	for cat, r := range ranges {
		byName[train.CategoryName(cat)] = r
	}
	if _, err := store.WriteRanges(*out, byName); err != nil {
		return err
	}
	names := make([]string, 0, len(byName))
	for name := range byName {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		r := byName[name]
		fmt.Fprintf(stdout, "%-20s border=%.*f range=[%g, %g] state=%s\n",
			name, tc.Precision, r.Border, r.Minimum, r.Maximum, opt.State(name))
	}
	return nil
}

// calibrate builds one classifier on fit and scans every category's border
// on validation. Both indices share train's category table.
func calibrate(ctx context.Context, l learner.Learner, opt *threshold.Optimizer, fit, validation *index.Index) (map[int16]learner.ClassifierRange, error) {
	c, err := l.Build(ctx, fit)
	if err != nil {
		return nil, fmt.Errorf("build classifier: %w", err)
	}
	return opt.OptimizeAll(ctx, c, validation)
}

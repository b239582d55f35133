// oversample runs the configured oversampling method for one or more
// categories of a stored training index, calibrates the learner's border and
// reports test effectiveness. The oversampled train/test representations and
// the calibrated ranges are written back to storage.
package main

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/spf13/pflag"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/learner"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/pipeline"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/logger"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/metrics"
)

type options struct {
	configPath string
	train      string
	test       string
	categories []string
	out        string
	method     string
	progress   bool
}

func main() {
	if err := run(os.Args[1:], os.Stdout, os.Stderr); err != nil {
		fmt.Fprintf(os.Stderr, "oversample: %v\n", err)
		os.Exit(apperrors.ExitCode(err))
	}
}

func parseFlags(args []string) (*options, error) {
	var o options
	flags := pflag.NewFlagSet("oversample", pflag.ContinueOnError)
	flags.StringVarP(&o.configPath, "config", "c", "", "path to YAML config file")
	flags.StringVar(&o.train, "train", "train", "name of the stored training index")
	flags.StringVar(&o.test, "test", "test", "name of the stored test index")
	flags.StringSliceVar(&o.categories, "category", nil, "categories to oversample (repeatable; default: all)")
	flags.StringVar(&o.out, "out", "", "prefix of the written indices and ranges (default: method name)")
	flags.StringVar(&o.method, "method", "", "override oversampling.method")
	flags.BoolVar(&o.progress, "progress", true, "show a progress bar while projecting documents")
	if err := flags.Parse(args); err != nil {
		if err == pflag.ErrHelp {
			return nil, err
		}
		return nil, apperrors.Configf("%v", err)
	}
	return &o, nil
}

func run(args []string, stdout, stderr io.Writer) error {
	o, err := parseFlags(args)
	if err != nil {
		if err == pflag.ErrHelp {
			return nil
		}
		return err
	}
	cfg, err := config.Load(o.configPath)
	if err != nil {
		return apperrors.Configf("loading config: %v", err)
	}
	if o.method != "" {
		cfg.Oversampling.Method = o.method
	}
	if err := cfg.Validate(); err != nil {
		return err
	}
	logger.Setup(cfg.Logging.Level, cfg.Logging.Format)
	if o.out == "" {
		o.out = strings.ToLower(cfg.Oversampling.Method)
	}

	var m *metrics.Metrics
	if cfg.Metrics.Enabled {
		m = metrics.New(prometheus.DefaultRegisterer)
		shutdown := metrics.StartServer(cfg.Metrics.Port)
		defer func() {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := shutdown(ctx); err != nil {
				slog.Error("metrics server shutdown error", "error", err)
			}
		}()
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	runID := fmt.Sprintf("%s-%d", o.out, time.Now().Unix())
	ctx = logger.WithRun(ctx, runID)
	log := logger.FromContext(ctx).With("component", "oversample")

	store, err := storage.Open(cfg.Storage.DataDir)
	if err != nil {
		return err
	}
	defer store.Close()
	train, err := store.ReadIndex(o.train)
	if err != nil {
		return err
	}
	test, err := store.ReadIndex(o.test)
	if err != nil {
		return err
	}

	p, err := pipeline.New(cfg, m)
	if err != nil {
		return err
	}
	var bar *progressView
	if o.progress {
		bar = newProgressView(stderr)
		p.SetProgress(bar.update)
	}

	categories := o.categories
	if len(categories) == 0 {
		for c := 0; c < train.CategoryCount(); c++ {
			categories = append(categories, train.CategoryName(int16(c)))
		}
	}

	ranges := make(map[string]learner.ClassifierRange, len(categories))
	for _, category := range categories {
		log.Info("oversampling category", "category", category, "method", cfg.Oversampling.Method)
		res, err := p.Run(ctx, train, test, category)
		bar.finish()
		if err != nil {
			return fmt.Errorf("category %q: %w", category, err)
		}
		ranges[category] = res.Ranges[0]

		stem := storageName(o.out, category)
		if _, err := store.WriteIndex(stem+"-train", res.Train); err != nil {
			return err
		}
		if _, err := store.WriteIndex(stem+"-test", res.Test); err != nil {
			return err
		}
		printReport(stdout, res)
	}
	if _, err := store.WriteRanges(o.out, ranges); err != nil {
		return err
	}
	log.Info("oversampling finished", "categories", len(categories), "ranges", store.RangesPath(o.out))
	return nil
}

func printReport(w io.Writer, res *pipeline.Result) {
	status := "oversampled"
	if res.Skipped {
		status = "skipped"
	}
	r := res.Ranges[0]
	fmt.Fprintf(w, "%-20s %-12s %-11s border=%.4f train=%d test=%d micro_f1=%.4f macro_f1=%.4f %s\n",
		res.Category, res.Method, status, r.Border,
		res.Train.DocumentCount(), res.TestGold.DocumentCount(),
		res.Report.MicroF1, res.Report.MacroF1, res.Report.Micro.String())
	if len(res.MergeSkipped) > 0 {
		fmt.Fprintf(w, "%-20s %d latent features clashed with BOW features\n", "", len(res.MergeSkipped))
	}
}

// storageName keeps category names usable as file names.
func storageName(prefix, category string) string {
	r := strings.NewReplacer("/", "_", `\`, "_", " ", "_")
	return prefix + "-" + r.Replace(category)
}

// Package config loads and validates toolkit configuration from YAML files
// with environment-variable overrides. It provides typed structs for every
// subsystem (Oversampling, Threshold, Learner, Corpus, Storage, Logging,
// Metrics).
package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

// Config is the top-level toolkit configuration.
type Config struct {
	Oversampling OversamplingConfig `yaml:"oversampling"`
	Threshold    ThresholdConfig    `yaml:"threshold"`
	Learner      LearnerConfig      `yaml:"learner"`
	Corpus       CorpusConfig       `yaml:"corpus"`
	Storage      StorageConfig      `yaml:"storage"`
	Logging      LoggingConfig      `yaml:"logging"`
	Metrics      MetricsConfig      `yaml:"metrics"`
}

// OversamplingConfig drives the oversampling pipeline. LatentDimensions < 0
// means "one latent dimension per training document".
type OversamplingConfig struct {
	Method             string               `yaml:"method"`
	LatentDimensions   int                  `yaml:"latentDimensions"`
	TrainReplicants    int                  `yaml:"trainReplicants"`
	TestReplicants     int                  `yaml:"testReplicants"`
	Density            string               `yaml:"density"`
	UseSoftmax         bool                 `yaml:"useSoftmax"`
	SoftmaxTemperature float64              `yaml:"softmaxTemperature"`
	MaxWorkers         int                  `yaml:"maxWorkers"`
	Seed               uint64               `yaml:"seed"`
	SupervisedFunction string               `yaml:"supervisedFunction"`
	RandomIndexing     RandomIndexingConfig `yaml:"randomIndexing"`
	SMOTE              SMOTEConfig          `yaml:"smote"`
}

// RandomIndexingConfig controls the random-indexed distribution model.
type RandomIndexingConfig struct {
	Enabled            bool `yaml:"enabled"`
	MinGroups          int  `yaml:"minGroups"`
	DimensionReduction bool `yaml:"dimensionReduction"`
}

// SMOTEConfig holds neighbourhood sizes for the SMOTE family.
type SMOTEConfig struct {
	Neighbors       int `yaml:"neighbors"`
	BorderNeighbors int `yaml:"borderNeighbors"`
}

// ThresholdConfig controls the decision-threshold grid search.
type ThresholdConfig struct {
	Minimum   float64 `yaml:"minimum"`
	Maximum   float64 `yaml:"maximum"`
	Step      float64 `yaml:"step"`
	Metric    string  `yaml:"metric"`
	Precision int     `yaml:"precision"`
	// ValidationEvery moves every n-th training document to the validation
	// split; 0 validates on the training set itself.
	ValidationEvery int `yaml:"validationEvery"`
}

// LearnerConfig selects the downstream learner used for calibration.
type LearnerConfig struct {
	Name      string  `yaml:"name"`
	Neighbors int     `yaml:"neighbors"`
	Beta      float64 `yaml:"beta"`
	Gamma     float64 `yaml:"gamma"`
}

// CorpusConfig controls how raw text becomes an index.
type CorpusConfig struct {
	Weighting string `yaml:"weighting"`
	Language  string `yaml:"language"`
	Stemming  bool   `yaml:"stemming"`
	MinLength int    `yaml:"minLength"`
}

// StorageConfig points at the directory holding index files.
type StorageConfig struct {
	DataDir string `yaml:"dataDir"`
}

// LoggingConfig controls structured logging level and output format.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// MetricsConfig controls the Prometheus metrics server.
type MetricsConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
}

// Load reads a YAML config file (if provided) and applies environment-variable
// overrides. It returns a Config populated with defaults for any missing values.
func Load(path string) (*Config, error) {
	cfg := Default()
	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("reading config file %s: %w", path, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}
	applyEnvOverrides(cfg)
	return cfg, nil
}

// Default returns a Config with defaults suitable for local experiments.
func Default() *Config {
	return &Config{
		Oversampling: OversamplingConfig{
			Method:             "dro",
			LatentDimensions:   -1,
			TrainReplicants:    1000,
			TestReplicants:     5,
			Density:            "prop",
			SoftmaxTemperature: 1,
			MaxWorkers:         4,
			Seed:               1,
			SupervisedFunction: "ig",
			RandomIndexing: RandomIndexingConfig{
				MinGroups: 1,
			},
			SMOTE: SMOTEConfig{
				Neighbors:       5,
				BorderNeighbors: 10,
			},
		},
		Threshold: ThresholdConfig{
			Minimum:   -1,
			Maximum:   1,
			Step:      0.1,
			Metric:    "f1",
			Precision: 3,
		},
		Learner: LearnerConfig{
			Name:      "rocchio",
			Neighbors: 10,
			Beta:      16,
			Gamma:     4,
		},
		Corpus: CorpusConfig{
			Weighting: "tfidf",
			Language:  "english",
			Stemming:  true,
			MinLength: 2,
		},
		Storage: StorageConfig{
			DataDir: "data",
		},
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
		Metrics: MetricsConfig{
			Enabled: false,
			Port:    9090,
		},
	}
}

var (
	validMethods   = []string{"replicate", "smote", "smote-enn", "border-smote", "dro"}
	validDensities = []string{"prop", "high", "veryhigh"}
	validMetrics   = []string{"accuracy", "error", "f1", "precision", "recall"}
	validLearners  = []string{"rocchio", "knn"}
	validWeighting = []string{"tfidf", "bm25", "raw"}
	validLanguages = []string{"english", "spanish", "french", "russian", "swedish", "norwegian", "hungarian"}
)

// Validate reports the first configuration error found.
func (c *Config) Validate() error {
	o := c.Oversampling
	if !oneOf(o.Method, validMethods) {
		return apperrors.Configf("oversampling method %q not in %v", o.Method, validMethods)
	}
	if !oneOf(o.Density, validDensities) {
		return apperrors.Configf("density %q not in %v", o.Density, validDensities)
	}
	if o.TrainReplicants < 0 || o.TestReplicants < 1 {
		return apperrors.Configf("replicant counts must be train>=0 and test>=1, got %d/%d", o.TrainReplicants, o.TestReplicants)
	}
	if o.MaxWorkers < 1 {
		return apperrors.Configf("maxWorkers must be positive, got %d", o.MaxWorkers)
	}
	if o.LatentDimensions == 0 {
		return apperrors.Configf("latentDimensions must be non-zero (negative selects the document count)")
	}
	if o.UseSoftmax && o.SoftmaxTemperature <= 0 {
		return apperrors.Configf("softmaxTemperature must be positive, got %g", o.SoftmaxTemperature)
	}
	t := c.Threshold
	if t.Step <= 0 || t.Maximum < t.Minimum {
		return apperrors.Configf("threshold range [%g, %g] step %g is empty", t.Minimum, t.Maximum, t.Step)
	}
	if !oneOf(t.Metric, validMetrics) {
		return apperrors.Configf("threshold metric %q not in %v", t.Metric, validMetrics)
	}
	if t.Precision < 0 {
		return apperrors.Configf("threshold precision must be >= 0, got %d", t.Precision)
	}
	if t.ValidationEvery < 0 || t.ValidationEvery == 1 {
		return apperrors.Configf("validationEvery must be 0 or at least 2, got %d", t.ValidationEvery)
	}
	if !oneOf(c.Corpus.Weighting, validWeighting) {
		return apperrors.Configf("corpus weighting %q not in %v", c.Corpus.Weighting, validWeighting)
	}
	if !oneOf(c.Corpus.Language, validLanguages) {
		return apperrors.Configf("corpus language %q not in %v", c.Corpus.Language, validLanguages)
	}
	if c.Corpus.MinLength < 1 {
		return apperrors.Configf("corpus minLength must be positive, got %d", c.Corpus.MinLength)
	}
	if !oneOf(c.Learner.Name, validLearners) {
		return apperrors.Configf("learner %q not in %v", c.Learner.Name, validLearners)
	}
	return nil
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if strings.EqualFold(v, s) {
			return true
		}
	}
	return false
}

// applyEnvOverrides reads DRO_* environment variables and overrides the
// corresponding config fields.
func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("DRO_METHOD"); v != "" {
		cfg.Oversampling.Method = v
	}
	if v := os.Getenv("DRO_LATENT_DIMENSIONS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Oversampling.LatentDimensions = n
		}
	}
	if v := os.Getenv("DRO_TRAIN_REPLICANTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Oversampling.TrainReplicants = n
		}
	}
	if v := os.Getenv("DRO_TEST_REPLICANTS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Oversampling.TestReplicants = n
		}
	}
	if v := os.Getenv("DRO_DENSITY"); v != "" {
		cfg.Oversampling.Density = v
	}
	if v := os.Getenv("DRO_MAX_WORKERS"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			cfg.Oversampling.MaxWorkers = n
		}
	}
	if v := os.Getenv("DRO_SEED"); v != "" {
		if n, err := strconv.ParseUint(v, 10, 64); err == nil {
			cfg.Oversampling.Seed = n
		}
	}
	if v := os.Getenv("DRO_THRESHOLD_METRIC"); v != "" {
		cfg.Threshold.Metric = v
	}
	if v := os.Getenv("DRO_LEARNER"); v != "" {
		cfg.Learner.Name = v
	}
	if v := os.Getenv("DRO_DATA_DIR"); v != "" {
		cfg.Storage.DataDir = v
	}
	if v := os.Getenv("DRO_LOGGING_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("DRO_LOGGING_FORMAT"); v != "" {
		cfg.Logging.Format = v
	}
	if v := os.Getenv("DRO_METRICS_PORT"); v != "" {
		if port, err := strconv.Atoi(v); err == nil {
			cfg.Metrics.Port = port
		}
	}
}

package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

func TestDefaultIsValid(t *testing.T) {
	require.NoError(t, Default().Validate())
}

func TestLoadMergesFileOverDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
oversampling:
  method: smote
  smote:
    neighbors: 3
threshold:
  metric: precision
`), 0644))
	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "smote", cfg.Oversampling.Method)
	assert.Equal(t, 3, cfg.Oversampling.SMOTE.Neighbors)
	assert.Equal(t, 10, cfg.Oversampling.SMOTE.BorderNeighbors, "unset keys keep defaults")
	assert.Equal(t, "precision", cfg.Threshold.Metric)
	assert.Equal(t, "rocchio", cfg.Learner.Name)
}

func TestLoadMissingFile(t *testing.T) {
	_, err := Load(filepath.Join(t.TempDir(), "absent.yaml"))
	assert.Error(t, err)
}

func TestEnvOverrides(t *testing.T) {
	t.Setenv("DRO_METHOD", "replicate")
	t.Setenv("DRO_TRAIN_REPLICANTS", "250")
	t.Setenv("DRO_SEED", "42")
	t.Setenv("DRO_MAX_WORKERS", "not-a-number")
	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "replicate", cfg.Oversampling.Method)
	assert.Equal(t, 250, cfg.Oversampling.TrainReplicants)
	assert.Equal(t, uint64(42), cfg.Oversampling.Seed)
	assert.Equal(t, 4, cfg.Oversampling.MaxWorkers, "unparsable values are ignored")
}

func TestValidateRejects(t *testing.T) {
	cases := map[string]func(*Config){
		"method":          func(c *Config) { c.Oversampling.Method = "adasyn" },
		"density":         func(c *Config) { c.Oversampling.Density = "extreme" },
		"test replicants": func(c *Config) { c.Oversampling.TestReplicants = 0 },
		"workers":         func(c *Config) { c.Oversampling.MaxWorkers = 0 },
		"latent":          func(c *Config) { c.Oversampling.LatentDimensions = 0 },
		"temperature":     func(c *Config) { c.Oversampling.UseSoftmax = true; c.Oversampling.SoftmaxTemperature = 0 },
		"step":            func(c *Config) { c.Threshold.Step = 0 },
		"metric":          func(c *Config) { c.Threshold.Metric = "auc" },
		"validation":      func(c *Config) { c.Threshold.ValidationEvery = 1 },
		"weighting":       func(c *Config) { c.Corpus.Weighting = "lsi" },
		"language":        func(c *Config) { c.Corpus.Language = "latin" },
		"learner":         func(c *Config) { c.Learner.Name = "svm" },
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			cfg := Default()
			mutate(cfg)
			err := cfg.Validate()
			assert.ErrorIs(t, err, apperrors.ErrInvalidConfig)
			assert.Equal(t, apperrors.ExitConfiguration, apperrors.ExitCode(err))
		})
	}
}

func TestValidateIsCaseInsensitive(t *testing.T) {
	cfg := Default()
	cfg.Oversampling.Method = "DRO"
	cfg.Oversampling.Density = "VeryHigh"
	assert.NoError(t, cfg.Validate())
}

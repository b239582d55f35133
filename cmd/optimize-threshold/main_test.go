package main

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/corpus"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/storage"
	"github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/config"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

func setup(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	dataDir := filepath.Join(dir, "data")
	var sb strings.Builder
	for i := 0; i < 20; i++ {
		if i%5 == 0 {
			fmt.Fprintf(&sb, "d%d\tsport\tgoal match team\n", i)
		} else {
			fmt.Fprintf(&sb, "d%d\tpolitics\tvote law court\n", i)
		}
	}
	reader, err := corpus.NewReader(config.Default().Corpus)
	require.NoError(t, err)
	ix, err := reader.Read(context.Background(), strings.NewReader(sb.String()))
	require.NoError(t, err)
	_, err = storage.WriteIndex(dataDir, "train", ix)
	require.NoError(t, err)

	configPath := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte(
		"logging:\n  level: error\nstorage:\n  dataDir: "+dataDir+"\n"), 0644))
	return configPath
}

func TestRunKFold(t *testing.T) {
	configPath := setup(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"--config", configPath, "--folds", "4"}, &out))
	assert.Contains(t, out.String(), "politics")
	assert.Contains(t, out.String(), "state=OPTIMIZED")

	cfg, err := config.Load(configPath)
	require.NoError(t, err)
	store, err := storage.Open(cfg.Storage.DataDir)
	require.NoError(t, err)
	defer store.Close()
	ranges, err := store.ReadRanges("rocchio")
	require.NoError(t, err)
	require.Contains(t, ranges, "sport")
	assert.GreaterOrEqual(t, ranges["sport"].Border, -1.0)
	assert.LessOrEqual(t, ranges["sport"].Border, 1.0)
}

func TestRunWithValidationIndex(t *testing.T) {
	configPath := setup(t)
	var out bytes.Buffer
	require.NoError(t, run([]string{"--config", configPath, "--validation", "train", "--learner", "knn", "--out", "knn-self"}, &out))
	assert.Equal(t, 2, strings.Count(out.String(), "\n"))
}

func TestRunRejectsBadFolds(t *testing.T) {
	configPath := setup(t)
	err := run([]string{"--config", configPath, "--folds", "1"}, &bytes.Buffer{})
	assert.Equal(t, apperrors.ExitConfiguration, apperrors.ExitCode(err))
}

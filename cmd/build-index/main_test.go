package main

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Adithya-Monish-Kumar-K/textcat-dro/internal/storage"
	apperrors "github.com/Adithya-Monish-Kumar-K/textcat-dro/pkg/errors"
)

func TestRunWritesIndex(t *testing.T) {
	dir := t.TempDir()
	corpusPath := filepath.Join(dir, "reuters-train.tsv")
	require.NoError(t, os.WriteFile(corpusPath, []byte(
		"d0\tearn\tprofit rose sharply\nd1\tgrain\twheat harvest fell\n"), 0644))
	dataDir := filepath.Join(dir, "data")

	require.NoError(t, run([]string{"--corpus", corpusPath, "--data-dir", dataDir, "--weighting", "bm25"}))

	ix, err := storage.ReadIndex(dataDir, "reuters-train")
	require.NoError(t, err)
	assert.Equal(t, 2, ix.DocumentCount())
	assert.Equal(t, 2, ix.CategoryCount())
}

func TestRunRequiresCorpus(t *testing.T) {
	err := run(nil)
	assert.Equal(t, apperrors.ExitConfiguration, apperrors.ExitCode(err))

	err = run([]string{"--corpus", "x.tsv", "--weighting", "lsi"})
	assert.Equal(t, apperrors.ExitConfiguration, apperrors.ExitCode(err))
}

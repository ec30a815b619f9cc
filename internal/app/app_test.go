package app

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/ternarybob/arbor"

	"github.com/ternarybob/qbank/internal/common"
	"github.com/ternarybob/qbank/internal/models"
)

func testConfig(t *testing.T) *common.Config {
	cfg := common.NewDefaultConfig()
	cfg.Storage.Badger.Path = filepath.Join(t.TempDir(), "db")
	return cfg
}

func TestNew_WithoutStorage(t *testing.T) {
	a, err := New(testConfig(t), arbor.NewLogger(), WithoutStorage())
	require.NoError(t, err)
	defer a.Close()

	assert.Nil(t, a.Questions())
	require.NotNil(t, a.Classifier)
	require.NotNil(t, a.Extraction)
	require.NotNil(t, a.Export)

	candidates := a.Offline.Candidates("1. 一物體作等加速運動，其速度為何？\n(A) 1 m/s\n(B) 2 m/s")
	require.Len(t, candidates, 1)
	assert.Equal(t, models.ChapterMotion, candidates[0].PredictedChapter)
}

func TestNew_WithStorage(t *testing.T) {
	a, err := New(testConfig(t), arbor.NewLogger())
	require.NoError(t, err)
	defer a.Close()

	store := a.Questions()
	require.NotNil(t, store)

	q := &models.Question{Content: "速度", Chapter: models.ChapterMotion}
	require.NoError(t, store.SaveQuestion(context.Background(), q))

	n, err := store.CountQuestions(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestNew_KeywordsFile(t *testing.T) {
	cfg := testConfig(t)
	path := filepath.Join(t.TempDir(), "kw.yaml")
	require.NoError(t, os.WriteFile(path, []byte("chapters:\n  - chapter: 第六章.量子現象\n    keywords: [photon]\n"), 0644))
	cfg.Classifier.KeywordsFile = path

	a, err := New(cfg, arbor.NewLogger(), WithoutStorage())
	require.NoError(t, err)
	defer a.Close()
	assert.Equal(t, models.ChapterQuantum, a.Classifier.Classify("a photon", nil).Chapter)

	cfg.Classifier.KeywordsFile = filepath.Join(t.TempDir(), "missing.yaml")
	_, err = New(cfg, arbor.NewLogger(), WithoutStorage())
	assert.Error(t, err)
}

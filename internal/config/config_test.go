package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInit_AppliesDefaults(t *testing.T) {
	yaml := `
server:
  port: "4000"
llm:
  api_key: "k"
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	Init(path)

	assert.Equal(t, "4000", Conf.Server.Port)
	assert.Equal(t, 10, Conf.Server.InitTimeoutMinutes)
	assert.Equal(t, "file", Conf.Corpus.Source)
	assert.Equal(t, "models/classifier_pipeline.gob", Conf.Classifier.ModelPath)
	assert.InDelta(t, 0.2, Conf.Classifier.TestSize, 1e-9)
	assert.Equal(t, int64(42), Conf.Classifier.Seed)
	assert.Equal(t, "local", Conf.Vectorstore.Backend)
	assert.Equal(t, "vectorstores", Conf.Vectorstore.Dir)
	assert.Equal(t, 3, Conf.Vectorstore.TopK)
	assert.Equal(t, "all", Conf.Vectorstore.RebuildPolicy)
	assert.Equal(t, 150, Conf.LLM.MaxTokens)
	assert.False(t, Conf.Log.LogQueries)
}

func TestInit_ExplicitValuesWin(t *testing.T) {
	yaml := `
server:
  init_timeout_minutes: 3
vectorstore:
  backend: "elasticsearch"
  top_k: 5
  rebuild_policy: "missing"
classifier:
  seed: 7
`
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte(yaml), 0o644))

	Init(path)

	assert.Equal(t, 3, Conf.Server.InitTimeoutMinutes)
	assert.Equal(t, "elasticsearch", Conf.Vectorstore.Backend)
	assert.Equal(t, 5, Conf.Vectorstore.TopK)
	assert.Equal(t, "missing", Conf.Vectorstore.RebuildPolicy)
	assert.Equal(t, int64(7), Conf.Classifier.Seed)
}

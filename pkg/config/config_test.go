package config

import (
	"errors"
	"math"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textclass/harness/pkg/learning"
)

func TestDefaultConfigIsValid(t *testing.T) {
	cfg := DefaultConfig()
	require.NoError(t, cfg.Validate())

	assert.Equal(t, filepath.Join("datasets", "newsGroups"), cfg.DatasetDir())
	assert.Equal(t, filepath.Join("indexes", "newsGroups.db"), cfg.IndexPath())
	assert.Equal(t, filepath.Join("results", "newsGroups"), cfg.ResultsDir())
	assert.Equal(t, filepath.Join("models", "newsGroups_bayes.json"), cfg.ModelPath())
}

func TestLoadConfig(t *testing.T) {
	cfg, err := LoadConfig("")
	require.NoError(t, err)
	assert.Equal(t, DefaultConfig(), cfg)

	_, err = LoadConfig(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)

	path := filepath.Join(t.TempDir(), "harness.yaml")
	content := `
dataset:
  name: usPatents
  kind: patents
  backend: redis
  seed: 7
classifier:
  name: prtfidf
  beta: 0.25
  workers: 4
evaluation:
  percent: 0.2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err = LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, "usPatents", cfg.Dataset.Name)
	assert.Equal(t, KindPatents, cfg.Dataset.Kind)
	assert.Equal(t, int64(7), cfg.Dataset.Seed)
	assert.Equal(t, learning.PrototypeName, cfg.Classifier.Name)
	assert.Equal(t, &learning.Options{Beta: 0.25, Workers: 4}, cfg.LearningOptions())
	assert.Equal(t, 0.2, cfg.Evaluation.Percent)
	// untouched sections keep their defaults
	assert.Equal(t, "info", cfg.Logging.Level)
	assert.Equal(t, "textclass:index", cfg.RedisIndexConfig().KeyPrefix)
}

func TestLoadConfigRejectsInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "harness.yaml")
	require.NoError(t, os.WriteFile(path, []byte("classifier:\n  name: svm\n"), 0644))

	_, err := LoadConfig(path)
	assert.True(t, errors.Is(err, learning.ErrUnknownClassifier))

	require.NoError(t, os.WriteFile(path, []byte("dataset: [not, a, map]\n"), 0644))
	_, err = LoadConfig(path)
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*Config)
	}{
		{"empty dataset", func(c *Config) { c.Dataset.Name = "" }},
		{"unknown kind", func(c *Config) { c.Dataset.Kind = "reuters" }},
		{"unknown backend", func(c *Config) { c.Dataset.Backend = "lucene" }},
		{"negative beta", func(c *Config) { c.Classifier.Beta = -1 }},
		{"no training workers", func(c *Config) { c.Classifier.Workers = 0 }},
		{"zero percent", func(c *Config) { c.Evaluation.Percent = 0 }},
		{"percent above one", func(c *Config) { c.Evaluation.Percent = 1.5 }},
		{"NaN percent", func(c *Config) { c.Evaluation.Percent = math.NaN() }},
		{"infinite percent", func(c *Config) { c.Evaluation.Percent = math.Inf(1) }},
		{"too many folds", func(c *Config) { c.Evaluation.Percent = 1e-300 }},
		{"no evaluation workers", func(c *Config) { c.Evaluation.Workers = 0 }},
		{"term lengths", func(c *Config) { c.Analyzer.MinTermLength = 10; c.Analyzer.MaxTermLength = 5 }},
		{"logging level", func(c *Config) { c.Logging.Level = "verbose" }},
		{"logging format", func(c *Config) { c.Logging.Format = "xml" }},
		{"redis url", func(c *Config) { c.Dataset.Backend = BackendRedis; c.Redis.RedisURL = "" }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			tt.modify(cfg)
			assert.Error(t, cfg.Validate())
		})
	}
}

func TestSaveConfig(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "harness.yaml")
	cfg := DefaultConfig()
	cfg.Classifier.Name = learning.PrototypeName
	require.NoError(t, cfg.SaveConfig(path))

	loaded, err := LoadConfig(path)
	require.NoError(t, err)
	assert.Equal(t, cfg, loaded)
}

func TestNewLogger(t *testing.T) {
	logger, err := NewLogger(LoggingConfig{Level: "debug", Format: "json"})
	require.NoError(t, err)
	assert.Equal(t, logrus.DebugLevel, logger.GetLevel())
	assert.IsType(t, &logrus.JSONFormatter{}, logger.Formatter)

	file := filepath.Join(t.TempDir(), "logs", "harness.log")
	logger, err = NewLogger(LoggingConfig{Level: "info", Format: "text", File: file})
	require.NoError(t, err)
	logger.WithField("component", "test").Info("hello")
	logger.Debug("hidden")
	require.NoError(t, logger.Out.(*os.File).Close())

	data, err := os.ReadFile(file)
	require.NoError(t, err)
	assert.True(t, strings.Contains(string(data), "hello"))
	assert.False(t, strings.Contains(string(data), "hidden"))

	_, err = NewLogger(LoggingConfig{Level: "loud"})
	assert.Error(t, err)
	_, err = NewLogger(LoggingConfig{Level: "info", Format: "xml"})
	assert.Error(t, err)
}

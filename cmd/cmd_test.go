package cmd

import (
	"bytes"
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textclass/harness/pkg/corpus"
	"github.com/textclass/harness/pkg/evaluation"
	"github.com/textclass/harness/pkg/learning"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

func TestCorpusGeneratorIsDeterministic(t *testing.T) {
	a := NewCorpusGenerator(7, 0.3)
	b := NewCorpusGenerator(7, 0.3)

	for _, group := range a.Groups() {
		assert.Equal(t, a.GenerateMessage(group), b.GenerateMessage(group))
	}
}

func TestWriteDataset(t *testing.T) {
	dir := t.TempDir()
	generator := NewCorpusGenerator(1, 0.3)

	total, err := generator.WriteDataset(dir, 3)
	require.NoError(t, err)
	assert.Equal(t, 3*len(generator.Groups()), total)

	names, err := corpus.NewsgroupLabels(dir)
	require.NoError(t, err)
	assert.Equal(t, generator.Groups(), names)

	files, err := os.ReadDir(filepath.Join(dir, "sci.space"))
	require.NoError(t, err)
	assert.Len(t, files, 3)
}

func TestQuickstartPipeline(t *testing.T) {
	ctx := context.Background()
	log := testLogger()

	cfg := generateQuickstartConfig(t.TempDir())
	require.NoError(t, cfg.Validate())

	// Status before indexing recommends the index command
	status := collectDatasetStatus(ctx, cfg, log)
	assert.False(t, status.Index.Available)
	assert.Equal(t, "not indexed", status.Health.Overall)

	generator := NewCorpusGenerator(cfg.Dataset.Seed, 0.3)
	_, err := generator.WriteDataset(cfg.DatasetDir(), 20)
	require.NoError(t, err)

	stats, terms, err := indexDataset(ctx, cfg, log)
	require.NoError(t, err)
	assert.Equal(t, 80, stats.Documents)
	assert.Equal(t, 0, stats.Skipped)
	assert.Greater(t, terms, 0)

	partition, err := loadPartition(ctx, cfg, log)
	require.NoError(t, err)
	assert.Equal(t, 4, partition.NumLabels())

	evaluator := evaluation.NewEvaluator(partition, &evaluation.Options{ResultsDir: cfg.ResultsDir()}, log)
	for _, name := range learning.Names() {
		classifier, err := learning.New(name, cfg.LearningOptions(), log)
		require.NoError(t, err)

		cv, err := evaluator.CrossValidate(ctx, classifier, 0.25)
		require.NoError(t, err)
		assert.Len(t, cv.Reports, 4)
		assert.Greater(t, cv.Accuracy, 0.8, "%s should separate topical groups", name)
	}

	var out bytes.Buffer
	require.NoError(t, runQuickCrossValidation(ctx, &out, cfg, log, 0.5))
	assert.Contains(t, out.String(), learning.BayesName)
	assert.Contains(t, out.String(), learning.PrototypeName)

	status = collectDatasetStatus(ctx, cfg, log)
	assert.True(t, status.Index.Available)
	assert.Equal(t, 80, status.Index.Documents)
	require.Len(t, status.Labels, 4)
	assert.Equal(t, "comp.graphics", status.Labels[0].Name)
	assert.Equal(t, 20, status.Labels[0].Documents)
	assert.False(t, status.Model.Available)
	assert.NotEmpty(t, status.Health.Recommendations)
}

func TestBenchmarkReportsEveryClassifier(t *testing.T) {
	ctx := context.Background()
	log := testLogger()

	cfg := generateQuickstartConfig(t.TempDir())
	_, err := NewCorpusGenerator(3, 0.3).WriteDataset(cfg.DatasetDir(), 10)
	require.NoError(t, err)
	_, _, err = indexDataset(ctx, cfg, log)
	require.NoError(t, err)

	partition, err := loadPartition(ctx, cfg, log)
	require.NoError(t, err)
	fold, err := partition.Fold(0, 0.2)
	require.NoError(t, err)

	evaluator := evaluation.NewEvaluator(partition, nil, log)
	var results []*BenchmarkResult
	for _, name := range learning.Names() {
		classifier, err := learning.New(name, cfg.LearningOptions(), log)
		require.NoError(t, err)
		result, err := runBenchmark(ctx, evaluator, classifier, partition, fold, 2)
		require.NoError(t, err)
		assert.Equal(t, 8, result.TestDocuments)
		results = append(results, result)
	}

	var out bytes.Buffer
	displayBenchmarkResults(&out, results)
	assert.Contains(t, out.String(), "Most accurate")
}

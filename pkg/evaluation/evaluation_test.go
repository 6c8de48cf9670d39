package evaluation

import (
	"bytes"
	"context"
	"errors"
	"io"
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/textclass/harness/pkg/corpus"
	"github.com/textclass/harness/pkg/dataset"
	"github.com/textclass/harness/pkg/learning"
	"github.com/textclass/harness/pkg/profiler"
)

func testLogger() *logrus.Entry {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logrus.NewEntry(logger)
}

// abPartition holds four "a a" documents in label 0 and four "b b" documents in label 1
func abPartition(t *testing.T) *dataset.Partition {
	t.Helper()
	ctx := context.Background()
	index := corpus.NewMemoryIndex()
	for i := 0; i < 4; i++ {
		_, err := index.AddDocument(ctx, 2*i, 0, map[string]int{"a": 2})
		require.NoError(t, err)
		_, err = index.AddDocument(ctx, 2*i+1, 1, map[string]int{"b": 2})
		require.NoError(t, err)
	}
	ds, err := dataset.Load(ctx, index, testLogger())
	require.NoError(t, err)
	return ds.Partition(42)
}

// mixedPartition holds three labels whose documents share some vocabulary
func mixedPartition(t *testing.T) *dataset.Partition {
	t.Helper()
	ctx := context.Background()
	index := corpus.NewMemoryIndex()
	for i := 0; i < 45; i++ {
		label := i % 3
		terms := map[string]int{"shared": 1}
		terms["own"+string(rune('a'+label))] = 1 + i%3
		terms["cross"+string(rune('a'+(label+i%2)%3))] = 1
		terms["noise"+string(rune('a'+(i*7)%13))] = 1
		_, err := index.AddDocument(ctx, i, label, terms)
		require.NoError(t, err)
	}
	ds, err := dataset.Load(ctx, index, testLogger())
	require.NoError(t, err)
	return ds.Partition(9)
}

func TestConfusionMatrix(t *testing.T) {
	m := NewConfusionMatrix(3)
	m.Add(0, 0)
	m.Add(0, 1)
	m.Add(1, 1)
	m.Add(1, 1)

	assert.Equal(t, 2, m.RowSum(0))
	assert.Equal(t, 2, m.RowSum(1))
	assert.Equal(t, 0, m.RowSum(2))
	assert.Equal(t, 4, m.Total())
	assert.Equal(t, 3, m.Correct())

	assert.Equal(t, 0.5, m.LabelAccuracy(0))
	assert.Equal(t, 1.0, m.LabelAccuracy(1))
	assert.Equal(t, 0.0, m.LabelAccuracy(2), "empty row")
	assert.Equal(t, 0.75, m.Accuracy())

	other := NewConfusionMatrix(3)
	other.Add(2, 0)
	m.Merge(other)
	assert.Equal(t, 5, m.Total())
	assert.Equal(t, 1, m[2][0])

	assert.Equal(t, 0.0, NewConfusionMatrix(2).Accuracy(), "nothing classified")
}

func TestReportTSV(t *testing.T) {
	m := ConfusionMatrix{{3, 1}, {0, 4}}
	r := newReport("bayes", dataset.Fold{LowerPercent: 0.1, UpperPercent: 0.2}, m)

	var buf bytes.Buffer
	require.NoError(t, r.WriteTSV(&buf))
	assert.Equal(t, "\t3\t1\t0.75\n\t0\t4\t1\t0.875", buf.String())
	assert.Equal(t, "bayes_0.10_0.20", r.FileName())
}

func TestEvaluateHeldOutDocuments(t *testing.T) {
	p := abPartition(t)
	results := t.TempDir()
	prof := profiler.NewProfiler()
	e := NewEvaluator(p, &Options{ResultsDir: results, Profiler: prof}, testLogger())

	report, err := e.Run(context.Background(), learning.NewNaiveBayes(nil, testLogger()), 0.75, 1)
	require.NoError(t, err)

	assert.Equal(t, ConfusionMatrix{{1, 0}, {0, 1}}, report.Matrix)
	assert.Equal(t, 1.0, report.Accuracy)
	assert.Equal(t, []float64{1, 1}, report.LabelAccuracy)

	path := filepath.Join(results, "bayes_0.75_1.00")
	assert.Equal(t, path, report.Path)
	content, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "\t1\t0\t1\n\t0\t1\t1\t1", string(content))

	assert.Equal(t, 1, prof.GetStats("learn/bayes").Count)
	assert.Equal(t, 1, prof.GetStats("evaluate/bayes").Count)
}

func TestEvaluateBothClassifiers(t *testing.T) {
	p := mixedPartition(t)
	e := NewEvaluator(p, nil, testLogger())

	for _, name := range learning.Names() {
		c, err := learning.New(name, nil, testLogger())
		require.NoError(t, err)
		report, err := e.Run(context.Background(), c, 0.2, 0.6)
		require.NoError(t, err)

		assert.Empty(t, report.Path)
		fold, err := p.Fold(0.2, 0.6)
		require.NoError(t, err)
		for label := 0; label < p.NumLabels(); label++ {
			assert.Equal(t, fold.Upper[label]-fold.Lower[label], report.Matrix.RowSum(label))
			assert.GreaterOrEqual(t, report.LabelAccuracy[label], 0.0)
			assert.LessOrEqual(t, report.LabelAccuracy[label], 1.0)
		}
		assert.GreaterOrEqual(t, report.Accuracy, 0.0)
		assert.LessOrEqual(t, report.Accuracy, 1.0)
	}
}

func TestParallelEvaluationMatchesSequential(t *testing.T) {
	p := mixedPartition(t)
	fold, err := p.Fold(0, 0.5)
	require.NoError(t, err)

	sequential := NewEvaluator(p, &Options{Workers: 1}, testLogger())
	parallel := NewEvaluator(p, &Options{Workers: 4}, testLogger())

	model, err := sequential.Train(learning.NewPrototypeVector(nil, testLogger()), fold)
	require.NoError(t, err)

	want, err := sequential.Evaluate(context.Background(), model, fold)
	require.NoError(t, err)
	got, err := parallel.Evaluate(context.Background(), model, fold)
	require.NoError(t, err)
	assert.Equal(t, want.Matrix, got.Matrix)
	assert.Equal(t, want.Accuracy, got.Accuracy)
}

func TestEvaluateEmptyWindow(t *testing.T) {
	p := abPartition(t)
	e := NewEvaluator(p, nil, testLogger())

	report, err := e.Run(context.Background(), learning.NewNaiveBayes(nil, testLogger()), 0.5, 0.5)
	require.NoError(t, err)
	assert.Equal(t, 0, report.Matrix.Total())
	assert.Equal(t, 0.0, report.Accuracy)
}

func TestRunRejectsInvalidWindow(t *testing.T) {
	e := NewEvaluator(abPartition(t), nil, testLogger())
	nb := learning.NewNaiveBayes(nil, testLogger())

	_, err := e.Run(context.Background(), nb, -0.5, 0.5)
	assert.True(t, errors.Is(err, dataset.ErrPercentRange))
	_, err = e.Run(context.Background(), nb, 0.5, 1.5)
	assert.True(t, errors.Is(err, dataset.ErrPercentRange))
}

func TestCrossValidate(t *testing.T) {
	p := abPartition(t)
	results := t.TempDir()
	e := NewEvaluator(p, &Options{ResultsDir: results, Workers: 2}, testLogger())

	cv, err := e.CrossValidate(context.Background(), learning.NewNaiveBayes(nil, testLogger()), 0.25)
	require.NoError(t, err)
	require.Len(t, cv.Reports, 4)
	assert.Equal(t, 1.0, cv.Accuracy)

	for i, report := range cv.Reports {
		assert.Equal(t, 2, report.Matrix.Total(), "fold %d", i)
		assert.FileExists(t, report.Path)
	}
	assert.FileExists(t, filepath.Join(results, "bayes_0.00_0.25"))
	assert.FileExists(t, filepath.Join(results, "bayes_0.75_1.00"))

	// 1/0.3 windows: the remainder of each label is never tested
	cv, err = e.CrossValidate(context.Background(), learning.NewNaiveBayes(nil, testLogger()), 0.3)
	require.NoError(t, err)
	assert.Len(t, cv.Reports, 3)

	// NaN and windows narrower than one document per label are rejected before any fold runs
	for _, percent := range []float64{0, -1, 1.5, math.NaN(), math.Inf(1), 1e-300, 1e-10, 0.2} {
		_, err := e.CrossValidate(context.Background(), learning.NewNaiveBayes(nil, testLogger()), percent)
		assert.True(t, errors.Is(err, dataset.ErrPercentRange), "percent %v", percent)
	}
}

type failingClassifier struct{}

func (failingClassifier) Name() string { return "failing" }

func (failingClassifier) Train(view *dataset.View) (learning.Model, error) {
	return nil, errors.New("no model")
}

func TestPhaseTimersStopOnError(t *testing.T) {
	prof := profiler.NewProfiler()
	e := NewEvaluator(abPartition(t), &Options{Profiler: prof}, testLogger())
	fold, err := e.partition.Fold(0, 0.5)
	require.NoError(t, err)

	_, err = e.Train(failingClassifier{}, fold)
	require.Error(t, err)
	assert.Equal(t, 1, prof.GetStats(profiler.Phase(profiler.PhaseLearn, "failing")).Count)

	model, err := e.Train(learning.NewNaiveBayes(nil, testLogger()), fold)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err = e.Evaluate(ctx, model, fold)
	assert.True(t, errors.Is(err, context.Canceled))
	assert.Equal(t, 1, prof.GetStats(profiler.Phase(profiler.PhaseEvaluate, model.Name())).Count)
}

func TestCrossValidateCancelled(t *testing.T) {
	e := NewEvaluator(abPartition(t), nil, testLogger())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := e.CrossValidate(ctx, learning.NewNaiveBayes(nil, testLogger()), 0.5)
	assert.True(t, errors.Is(err, context.Canceled))
}

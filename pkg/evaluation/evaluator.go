package evaluation

import (
	"context"
	"fmt"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
	"gonum.org/v1/gonum/stat"

	"github.com/textclass/harness/pkg/dataset"
	"github.com/textclass/harness/pkg/learning"
	"github.com/textclass/harness/pkg/profiler"
)

// Options configures an Evaluator
type Options struct {
	// ResultsDir receives one report file per evaluated fold; empty disables report files
	ResultsDir string
	// Workers bounds concurrent prediction goroutines, <= 1 evaluates sequentially
	Workers int
	// Profiler records learn and evaluate phase timings, may be nil
	Profiler *profiler.Profiler
}

// Evaluator learns and tests classifiers on folds of a partition
type Evaluator struct {
	partition  *dataset.Partition
	resultsDir string
	workers    int
	profiler   *profiler.Profiler
	log        *logrus.Entry
}

// NewEvaluator creates an evaluator over partition
func NewEvaluator(partition *dataset.Partition, options *Options, log *logrus.Entry) *Evaluator {
	if options == nil {
		options = &Options{}
	}
	return &Evaluator{
		partition:  partition,
		resultsDir: options.ResultsDir,
		workers:    options.Workers,
		profiler:   options.Profiler,
		log:        log,
	}
}

// CrossValidation holds the per-fold reports of a cross-validation run
type CrossValidation struct {
	Classifier string
	Percent    float64
	Reports    []*Report
	// Accuracy is the mean of the fold accuracies
	Accuracy float64
}

// Evaluate classifies every document of each label's test window and reports the confusion matrix.
// The report is saved to the results directory when one is configured.
func (e *Evaluator) Evaluate(ctx context.Context, model learning.Model, fold dataset.Fold) (*Report, error) {
	log := e.log.WithFields(logrus.Fields{
		"classifier": model.Name(),
		"window":     fmt.Sprintf("[%.2f|%.2f]", fold.LowerPercent, fold.UpperPercent),
	})
	log.Info("classifier testing")
	timer := e.profiler.Start(profiler.Phase(profiler.PhaseEvaluate, model.Name()))
	defer timer.Stop()

	test := e.partition.Test(fold)
	matrix, err := e.confusionMatrix(ctx, model, test)
	if err != nil {
		return nil, err
	}
	report := newReport(model.Name(), fold, matrix)

	for label, accuracy := range report.LabelAccuracy {
		log.WithFields(logrus.Fields{
			"label":     label,
			"documents": matrix.RowSum(label),
			"rate":      fmt.Sprintf("%d%%", int(100*accuracy)),
		}).Info("label tested")
	}
	log.WithField("accuracy", report.Accuracy).Info("classifier tested")

	if e.resultsDir != "" {
		if err := report.Save(e.resultsDir); err != nil {
			return nil, err
		}
		log.WithField("path", report.Path).Debug("report saved")
	}
	return report, nil
}

type testCase struct {
	label int
	docNb int
}

func (e *Evaluator) confusionMatrix(ctx context.Context, model learning.Model, test *dataset.View) (ConfusionMatrix, error) {
	nbLabels := test.NumLabels()
	var cases []testCase
	for label := 0; label < nbLabels; label++ {
		for _, docNb := range test.Documents(label) {
			cases = append(cases, testCase{label: label, docNb: docNb})
		}
	}

	matrix := NewConfusionMatrix(nbLabels)
	workers := e.workers
	if workers > len(cases) {
		workers = len(cases)
	}
	if workers <= 1 {
		for _, c := range cases {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
			matrix.Add(c.label, model.Predict(test.Document(c.docNb).Terms))
		}
		return matrix, nil
	}

	// Each worker fills its own matrix over a contiguous chunk; counts merge exactly.
	partial := make([]ConfusionMatrix, workers)
	chunk := (len(cases) + workers - 1) / workers
	g, gctx := errgroup.WithContext(ctx)
	for w := 0; w < workers; w++ {
		w := w
		lower := w * chunk
		upper := lower + chunk
		if lower > len(cases) {
			lower = len(cases)
		}
		if upper > len(cases) {
			upper = len(cases)
		}
		partial[w] = NewConfusionMatrix(nbLabels)
		g.Go(func() error {
			for _, c := range cases[lower:upper] {
				if err := gctx.Err(); err != nil {
					return err
				}
				partial[w].Add(c.label, model.Predict(test.Document(c.docNb).Terms))
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	for _, m := range partial {
		matrix.Merge(m)
	}
	return matrix, nil
}

// Train learns classifier on the training side of fold
func (e *Evaluator) Train(classifier learning.Classifier, fold dataset.Fold) (learning.Model, error) {
	timer := e.profiler.Start(profiler.Phase(profiler.PhaseLearn, classifier.Name()))
	defer timer.Stop()

	model, err := classifier.Train(e.partition.Train(fold))
	if err != nil {
		return nil, fmt.Errorf("failed to train %s: %w", classifier.Name(), err)
	}
	return model, nil
}

// Run learns classifier outside [lowerPercent, upperPercent) of every label and tests it inside
func (e *Evaluator) Run(ctx context.Context, classifier learning.Classifier, lowerPercent, upperPercent float64) (*Report, error) {
	fold, err := e.partition.Fold(lowerPercent, upperPercent)
	if err != nil {
		return nil, err
	}
	model, err := e.Train(classifier, fold)
	if err != nil {
		return nil, err
	}
	return e.Evaluate(ctx, model, fold)
}

// CrossValidate runs int(1/percent) consecutive windows of width percent and averages their accuracies
func (e *Evaluator) CrossValidate(ctx context.Context, classifier learning.Classifier, percent float64) (*CrossValidation, error) {
	if !(percent > 0 && percent <= 1) {
		return nil, fmt.Errorf("%w: cross-validation percent %v", dataset.ErrPercentRange, percent)
	}
	// Narrower windows than one document of the largest label leave whole folds empty.
	largest := 0
	for label := 0; label < e.partition.NumLabels(); label++ {
		if n := e.partition.LabelCount(label); n > largest {
			largest = n
		}
	}
	if 1/percent >= float64(largest)+1 {
		return nil, fmt.Errorf("%w: cross-validation percent %v gives more folds than the %d documents of the largest label",
			dataset.ErrPercentRange, percent, largest)
	}
	nbTests := int(1 / percent)

	cv := &CrossValidation{
		Classifier: classifier.Name(),
		Percent:    percent,
		Reports:    make([]*Report, 0, nbTests),
	}
	accuracies := make([]float64, 0, nbTests)
	for i := 0; i < nbTests; i++ {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		lowerPercent := float64(i) * percent
		upperPercent := float64(i+1) * percent
		if upperPercent > 1 {
			upperPercent = 1
		}

		report, err := e.Run(ctx, classifier, lowerPercent, upperPercent)
		if err != nil {
			return nil, fmt.Errorf("fold %d of %d: %w", i+1, nbTests, err)
		}
		cv.Reports = append(cv.Reports, report)
		accuracies = append(accuracies, report.Accuracy)
	}
	cv.Accuracy = stat.Mean(accuracies, nil)

	e.log.WithFields(logrus.Fields{
		"classifier": classifier.Name(),
		"folds":      nbTests,
		"accuracy":   cv.Accuracy,
	}).Info("overall average rate")
	return cv, nil
}

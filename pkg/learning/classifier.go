package learning

import (
	"errors"
	"fmt"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"

	"github.com/textclass/harness/pkg/dataset"
)

var (
	// ErrUnknownClassifier is returned by New for an unsupported classifier name
	ErrUnknownClassifier = errors.New("learning: unknown classifier")
	// ErrEmptyDataset is returned when training on a dataset without labels
	ErrEmptyDataset = errors.New("learning: dataset has no labels")
)

// Model is a fitted classifier. Models are immutable once returned by Train.
type Model interface {
	Name() string
	// Predict returns the best scoring label for a document vector.
	// Postings with a negative term id are terms unknown to the training corpus.
	Predict(terms []dataset.Posting) int
}

// Classifier fits a new Model on the training side of a fold
type Classifier interface {
	Name() string
	Train(view *dataset.View) (Model, error)
}

// Options holds learning parameters shared by the classifiers
type Options struct {
	// Beta weighs negative-class contributions of the prototype vectors, 0 disables them
	Beta float64 `json:"beta" yaml:"beta"`
	// Workers bounds per-label training goroutines, <= 1 trains sequentially
	Workers int `json:"workers" yaml:"workers"`
}

// DefaultOptions returns default learning options
func DefaultOptions() *Options {
	return &Options{
		Beta:    0,
		Workers: 1,
	}
}

// Names lists the supported classifiers
func Names() []string {
	return []string{BayesName, PrototypeName}
}

// New creates the classifier registered under name
func New(name string, options *Options, log *logrus.Entry) (Classifier, error) {
	switch strings.ToLower(name) {
	case BayesName:
		return NewNaiveBayes(options, log), nil
	case PrototypeName:
		return NewPrototypeVector(options, log), nil
	default:
		return nil, fmt.Errorf("%w: %s (expected one of %s)", ErrUnknownClassifier, name, strings.Join(Names(), ", "))
	}
}

// aprioriProbabilities returns label frequencies over the full dataset, not the training side:
// priors reflect the true label distribution.
func aprioriProbabilities(view *dataset.View) []float64 {
	apriori := make([]float64, view.NumLabels())
	for label := range apriori {
		apriori[label] = float64(view.LabelCount(label)) / float64(view.NumDocuments())
	}
	return apriori
}

// argmax returns the best scoring label. Label 0 wins by default and ties keep the lowest label.
func argmax(scores []float64) int {
	best := 0
	for label := range scores {
		if scores[label] > scores[best] {
			best = label
		}
	}
	return best
}

// forEachLabel runs fn for every label, at most workers at a time.
// fn must only write state owned by its label.
func forEachLabel(workers, nbLabels int, fn func(label int) error) error {
	if workers <= 1 {
		for label := 0; label < nbLabels; label++ {
			if err := fn(label); err != nil {
				return err
			}
		}
		return nil
	}

	var g errgroup.Group
	g.SetLimit(workers)
	for label := 0; label < nbLabels; label++ {
		label := label
		g.Go(func() error {
			return fn(label)
		})
	}
	return g.Wait()
}

func logTraining(log *logrus.Entry, name string, view *dataset.View) *logrus.Entry {
	fold := view.Fold()
	entry := log.WithFields(logrus.Fields{
		"classifier": name,
		"window":     fmt.Sprintf("[%.2f|%.2f]", fold.LowerPercent, fold.UpperPercent),
	})
	entry.Info("classifier learning")
	return entry
}

package learning

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/textclass/harness/pkg/corpus"
	"github.com/textclass/harness/pkg/dataset"
)

// ErrModelFormat is returned when a model file cannot be interpreted
var ErrModelFormat = errors.New("learning: invalid model file")

// modelFile is the on-disk envelope of a fitted model
type modelFile struct {
	Classifier  string           `json:"classifier"`
	Terms       []string         `json:"terms"`
	Labels      []string         `json:"labels,omitempty"`
	LastTrained time.Time        `json:"last_trained"`
	Bayes       *NaiveBayesModel `json:"bayes,omitempty"`
	Prototype   *PrototypeModel  `json:"prototype,omitempty"`
}

// SavedModel is a model together with the vocabulary it was trained on
type SavedModel struct {
	Model       Model
	Vocabulary  *dataset.Vocabulary
	Labels      []string
	LastTrained time.Time
}

// SaveModel writes model and its vocabulary to path as JSON
func SaveModel(path string, model Model, vocabulary *dataset.Vocabulary, labels []string) error {
	file := modelFile{
		Classifier:  model.Name(),
		Terms:       vocabulary.Terms(),
		Labels:      labels,
		LastTrained: time.Now(),
	}
	switch m := model.(type) {
	case *NaiveBayesModel:
		file.Bayes = m
	case *PrototypeModel:
		file.Prototype = m
	default:
		return fmt.Errorf("%w: cannot save %T", ErrUnknownClassifier, model)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return fmt.Errorf("failed to create model directory: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create model file: %w", err)
	}
	defer f.Close()

	encoder := json.NewEncoder(f)
	if err := encoder.Encode(file); err != nil {
		return fmt.Errorf("failed to encode model: %w", err)
	}
	return f.Close()
}

// LoadModel reads a model written by SaveModel
func LoadModel(path string) (*SavedModel, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open model file: %w", err)
	}
	defer f.Close()

	var file modelFile
	if err := json.NewDecoder(f).Decode(&file); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrModelFormat, err)
	}

	saved := &SavedModel{
		Vocabulary:  dataset.NewVocabulary(file.Terms),
		Labels:      file.Labels,
		LastTrained: file.LastTrained,
	}
	switch {
	case file.Classifier == BayesName && file.Bayes != nil:
		nb := file.Bayes
		if len(nb.TermLabelFreq) != len(nb.Priors) || len(nb.LabelTermTotal) != len(nb.Priors) {
			return nil, fmt.Errorf("%w: %d priors for %d labels", ErrModelFormat, len(nb.Priors), len(nb.TermLabelFreq))
		}
		nb.computeLogPriors()
		saved.Model = nb
	case file.Classifier == PrototypeName && file.Prototype != nil:
		if len(file.Prototype.Idf) != len(file.Terms) {
			return nil, fmt.Errorf("%w: %d idf weights for %d terms", ErrModelFormat, len(file.Prototype.Idf), len(file.Terms))
		}
		saved.Model = file.Prototype
	default:
		return nil, fmt.Errorf("%w: classifier %q", ErrModelFormat, file.Classifier)
	}
	return saved, nil
}

// Predict classifies raw text with analyzer, which must match the analyzer used at indexing time
func (s *SavedModel) Predict(analyzer *corpus.Analyzer, text string) int {
	return s.Model.Predict(s.Vocabulary.QueryPostings(analyzer.TermFrequencies(text)))
}

// LabelName returns the name of label, or its number when no names were saved
func (s *SavedModel) LabelName(label int) string {
	if label >= 0 && label < len(s.Labels) && s.Labels[label] != "" {
		return s.Labels[label]
	}
	return fmt.Sprintf("%d", label)
}

package learning

import (
	"math"

	"github.com/sirupsen/logrus"

	"github.com/textclass/harness/pkg/dataset"
)

// BayesName is the registry and report name of the Naive Bayes classifier
const BayesName = "bayes"

// NaiveBayes is a multinomial Naive Bayes classifier with add-one smoothing
type NaiveBayes struct {
	options *Options
	log     *logrus.Entry
}

// NewNaiveBayes creates a Naive Bayes classifier
func NewNaiveBayes(options *Options, log *logrus.Entry) *NaiveBayes {
	if options == nil {
		options = DefaultOptions()
	}
	return &NaiveBayes{options: options, log: log}
}

func (nb *NaiveBayes) Name() string {
	return BayesName
}

// Train accumulates per-label term frequencies over the training documents
func (nb *NaiveBayes) Train(view *dataset.View) (Model, error) {
	nbLabels := view.NumLabels()
	if nbLabels == 0 || view.NumDocuments() == 0 {
		return nil, ErrEmptyDataset
	}
	log := logTraining(nb.log, nb.Name(), view)

	model := &NaiveBayesModel{
		Priors:         aprioriProbabilities(view),
		TermLabelFreq:  make([][]int, nbLabels),
		LabelTermTotal: make([]int, nbLabels),
		NumTerms:       view.NumTerms(),
	}
	model.computeLogPriors()

	vocabulary := view.Vocabulary().Len()
	err := forEachLabel(nb.options.Workers, nbLabels, func(label int) error {
		row := make([]int, vocabulary)
		total := 0
		for _, docNb := range view.Documents(label) {
			for _, p := range view.Document(docNb).Terms {
				row[p.Term] += p.Freq
				total += p.Freq
			}
		}
		model.TermLabelFreq[label] = row
		model.LabelTermTotal[label] = total
		return nil
	})
	if err != nil {
		return nil, err
	}

	log.WithField("terms", model.NumTerms).Info("classifier learned")
	return model, nil
}

// NaiveBayesModel is a fitted Naive Bayes model.
// Priors are stored as probabilities: a label without documents has log prior -Inf, which JSON cannot hold.
type NaiveBayesModel struct {
	Priors         []float64 `json:"priors"`
	LogPriors      []float64 `json:"-"`
	TermLabelFreq  [][]int   `json:"term_label_freq"`
	LabelTermTotal []int     `json:"label_term_total"`
	NumTerms       int       `json:"num_terms"`
}

func (m *NaiveBayesModel) computeLogPriors() {
	m.LogPriors = make([]float64, len(m.Priors))
	for label, p := range m.Priors {
		m.LogPriors[label] = math.Log(p)
	}
}

func (m *NaiveBayesModel) Name() string {
	return BayesName
}

// Scores returns the log-likelihood of every label
func (m *NaiveBayesModel) Scores(terms []dataset.Posting) []float64 {
	scores := make([]float64, len(m.LogPriors))
	for label := range scores {
		row := m.TermLabelFreq[label]
		denominator := float64(m.NumTerms + m.LabelTermTotal[label])

		score := 0.0
		for _, p := range terms {
			freq := 0
			if p.Term >= 0 && p.Term < len(row) {
				freq = row[p.Term]
			}
			numerator := float64(1 + freq)
			score += float64(p.Freq) * math.Log(numerator/denominator)
		}
		scores[label] = score + m.LogPriors[label]
	}
	return scores
}

func (m *NaiveBayesModel) Predict(terms []dataset.Posting) int {
	return argmax(m.Scores(terms))
}

var _ Model = (*NaiveBayesModel)(nil)
var _ Classifier = (*NaiveBayes)(nil)

package learning

import (
	"math"

	"github.com/sirupsen/logrus"
	"gonum.org/v1/gonum/floats"

	"github.com/textclass/harness/pkg/dataset"
)

// PrototypeName is the registry and report name of the prototype vector classifier
const PrototypeName = "prtfidf"

// PrototypeVector is a Rocchio-style tf-idf classifier: every label gets one prototype vector
// and a document goes to the label whose prototype is most similar.
type PrototypeVector struct {
	options *Options
	log     *logrus.Entry
}

// NewPrototypeVector creates a prototype vector classifier
func NewPrototypeVector(options *Options, log *logrus.Entry) *PrototypeVector {
	if options == nil {
		options = DefaultOptions()
	}
	return &PrototypeVector{options: options, log: log}
}

func (pv *PrototypeVector) Name() string {
	return PrototypeName
}

// Train computes idf weights over the whole dataset, then one prototype per label from the training documents
func (pv *PrototypeVector) Train(view *dataset.View) (Model, error) {
	nbLabels := view.NumLabels()
	nbDocs := view.NumDocuments()
	if nbLabels == 0 || nbDocs == 0 {
		return nil, ErrEmptyDataset
	}
	log := logTraining(pv.log, pv.Name(), view)

	apriori := aprioriProbabilities(view)
	idf := inverseDocumentFrequencies(view.Dataset)
	beta := pv.options.Beta

	// Doc order per label is the partition order of the training side.
	training := make([][]int, nbLabels)
	for label := range training {
		training[label] = view.Documents(label)
	}

	model := &PrototypeModel{
		Idf:        idf,
		Prototypes: make([]map[int]float64, nbLabels),
	}
	skipped := make([]int, nbLabels)

	// Each worker owns one prototype row and replays every training document against it.
	err := forEachLabel(pv.options.Workers, nbLabels, func(row int) error {
		weights := make([]float64, len(idf))
		touched := make([]bool, len(idf))
		complement := float64(nbDocs - view.LabelCount(row))
		negative := beta != 0 && complement > 0

		for docLabel := 0; docLabel < nbLabels; docLabel++ {
			if docLabel != row && !negative {
				continue
			}
			for _, docNb := range training[docLabel] {
				terms := view.Document(docNb).Terms
				tfidf := weightVector(terms, idf)
				norm := floats.Norm(tfidf, 2)
				if norm == 0 {
					if docLabel == row {
						skipped[row]++
					}
					continue
				}

				for i, p := range terms {
					var delta float64
					if docLabel == row {
						delta = apriori[row] * tfidf[i] / norm / float64(view.LabelCount(row))
					} else {
						delta = -beta * tfidf[i] / norm / complement
					}
					weights[p.Term] += delta
					touched[p.Term] = true
				}
			}
		}

		prototype := make(map[int]float64)
		for term, weight := range weights {
			if touched[term] && weight > 0 {
				prototype[term] = weight
			}
		}
		model.Prototypes[row] = prototype
		return nil
	})
	if err != nil {
		return nil, err
	}

	total := 0
	for label, n := range skipped {
		if n > 0 {
			log.WithFields(logrus.Fields{"label": label, "documents": n}).Warn("skipped documents with empty tf-idf vector")
		}
		total += len(model.Prototypes[label])
	}
	log.WithField("components", total).Info("classifier learned")
	return model, nil
}

// inverseDocumentFrequencies returns sqrt(N / df) per term where df sums freq/length over all documents.
// Terms that never occur get 0.
func inverseDocumentFrequencies(ds *dataset.Dataset) []float64 {
	df := make([]float64, ds.Vocabulary().Len())
	for docNb := 0; docNb < ds.NumDocuments(); docNb++ {
		doc := ds.Document(docNb)
		if doc.Length == 0 {
			continue
		}
		for _, p := range doc.Terms {
			df[p.Term] += float64(p.Freq) / float64(doc.Length)
		}
	}

	idf := make([]float64, len(df))
	n := float64(ds.NumDocuments())
	for term, f := range df {
		if f > 0 {
			idf[term] = math.Sqrt(n / f)
		}
	}
	return idf
}

// weightVector returns freq*idf for every posting
func weightVector(terms []dataset.Posting, idf []float64) []float64 {
	tfidf := make([]float64, len(terms))
	for i, p := range terms {
		if p.Term >= 0 && p.Term < len(idf) {
			tfidf[i] = float64(p.Freq) * idf[p.Term]
		}
	}
	return tfidf
}

// PrototypeModel is a fitted prototype vector model. Prototypes only hold positive weights.
type PrototypeModel struct {
	Idf        []float64         `json:"idf"`
	Prototypes []map[int]float64 `json:"prototypes"`
}

func (m *PrototypeModel) Name() string {
	return PrototypeName
}

// Scores returns the similarity of the document to every prototype
func (m *PrototypeModel) Scores(terms []dataset.Posting) []float64 {
	scores := make([]float64, len(m.Prototypes))
	for label, prototype := range m.Prototypes {
		for _, p := range terms {
			if p.Term < 0 || p.Term >= len(m.Idf) {
				continue
			}
			if weight, ok := prototype[p.Term]; ok {
				scores[label] += float64(p.Freq) * m.Idf[p.Term] * weight
			}
		}
	}
	return scores
}

func (m *PrototypeModel) Predict(terms []dataset.Posting) int {
	return argmax(m.Scores(terms))
}

var _ Model = (*PrototypeModel)(nil)
var _ Classifier = (*PrototypeVector)(nil)

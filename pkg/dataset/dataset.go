package dataset

import (
	"context"
	"fmt"
	"sort"

	"github.com/sirupsen/logrus"

	"github.com/textclass/harness/pkg/corpus"
)

// Posting is one (term, frequency) entry of a document vector
type Posting struct {
	Term int
	Freq int
}

// Document is an indexed document with interned terms.
// Terms are sorted by term id.
type Document struct {
	Number     int
	ExternalID int
	Label      int
	Length     int
	Terms      []Posting
}

// Vocabulary interns term text to dense ids
type Vocabulary struct {
	terms []string
	ids   map[string]int
}

// NewVocabulary creates a vocabulary; ids follow the order of terms
func NewVocabulary(terms []string) *Vocabulary {
	v := &Vocabulary{
		terms: make([]string, len(terms)),
		ids:   make(map[string]int, len(terms)),
	}
	copy(v.terms, terms)
	for id, term := range v.terms {
		v.ids[term] = id
	}
	return v
}

// Len returns the number of interned terms
func (v *Vocabulary) Len() int {
	return len(v.terms)
}

// ID returns the id of term
func (v *Vocabulary) ID(term string) (int, bool) {
	id, ok := v.ids[term]
	return id, ok
}

// Term returns the text of id
func (v *Vocabulary) Term(id int) string {
	return v.terms[id]
}

// Terms returns a copy of all terms in id order
func (v *Vocabulary) Terms() []string {
	terms := make([]string, len(v.terms))
	copy(terms, v.terms)
	return terms
}

// Postings converts a term frequency vector, dropping unknown terms and zero counts
func (v *Vocabulary) Postings(tf map[string]int) []Posting {
	postings := make([]Posting, 0, len(tf))
	for term, freq := range tf {
		if freq <= 0 {
			continue
		}
		if id, ok := v.ids[term]; ok {
			postings = append(postings, Posting{Term: id, Freq: freq})
		}
	}
	sort.Slice(postings, func(i, j int) bool {
		return postings[i].Term < postings[j].Term
	})
	return postings
}

// QueryPostings converts the term frequencies of an unseen document.
// Unknown terms are kept with term id -1 so models can still score them.
func (v *Vocabulary) QueryPostings(tf map[string]int) []Posting {
	postings := make([]Posting, 0, len(tf))
	unknown := make([]string, 0)
	for term, freq := range tf {
		if freq <= 0 {
			continue
		}
		if id, ok := v.ids[term]; ok {
			postings = append(postings, Posting{Term: id, Freq: freq})
		} else {
			unknown = append(unknown, term)
		}
	}
	sort.Slice(postings, func(i, j int) bool {
		return postings[i].Term < postings[j].Term
	})
	sort.Strings(unknown)
	for _, term := range unknown {
		postings = append(postings, Posting{Term: -1, Freq: tf[term]})
	}
	return postings
}

// Dataset is the raw, unshuffled, in-memory view of a corpus index.
// Use Partition to obtain fold-ready document orders.
type Dataset struct {
	docs        []Document
	vocabulary  *Vocabulary
	numTerms    int
	labelCounts []int
	labelDocs   [][]int
}

// Load reads every document of stats into memory. No dataset is returned on error.
func Load(ctx context.Context, stats corpus.Statistics, log *logrus.Entry) (*Dataset, error) {
	nbDocs, err := stats.NumDocuments(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}
	nbTerms, err := stats.NumDistinctTerms(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to count terms: %w", err)
	}
	log.WithFields(logrus.Fields{"documents": nbDocs, "terms": nbTerms}).Info("loading index")

	raw := make([]*corpus.Document, nbDocs)
	seen := make(map[string]struct{})
	for n := 0; n < nbDocs; n++ {
		doc, err := stats.Document(ctx, n)
		if err != nil {
			return nil, fmt.Errorf("failed to read document %d: %w", n, err)
		}
		if doc.Label < 0 {
			return nil, fmt.Errorf("document %d has negative label %d", n, doc.Label)
		}
		for term := range doc.Terms {
			seen[term] = struct{}{}
		}
		raw[n] = doc
	}

	// Sorted ids keep postings, and therefore float sums, in a stable order.
	terms := make([]string, 0, len(seen))
	for term := range seen {
		terms = append(terms, term)
	}
	sort.Strings(terms)

	d := FromDocuments(raw, NewVocabulary(terms), nbTerms)
	for label, count := range d.labelCounts {
		log.WithFields(logrus.Fields{"label": label, "documents": count}).Debug("label loaded")
	}
	return d, nil
}

// FromDocuments builds a dataset from already loaded documents.
// Document numbers are reassigned to their position in docs.
func FromDocuments(docs []*corpus.Document, vocabulary *Vocabulary, numTerms int) *Dataset {
	nbLabels := 0
	for _, doc := range docs {
		if doc.Label+1 > nbLabels {
			nbLabels = doc.Label + 1
		}
	}
	if numTerms < vocabulary.Len() {
		numTerms = vocabulary.Len()
	}

	d := &Dataset{
		docs:        make([]Document, len(docs)),
		vocabulary:  vocabulary,
		numTerms:    numTerms,
		labelCounts: make([]int, nbLabels),
		labelDocs:   make([][]int, nbLabels),
	}
	for n, doc := range docs {
		postings := vocabulary.Postings(doc.Terms)
		length := doc.Length
		if length == 0 {
			for _, p := range postings {
				length += p.Freq
			}
		}
		d.docs[n] = Document{
			Number:     n,
			ExternalID: doc.ExternalID,
			Label:      doc.Label,
			Length:     length,
			Terms:      postings,
		}
		d.labelCounts[doc.Label]++
		d.labelDocs[doc.Label] = append(d.labelDocs[doc.Label], n)
	}
	return d
}

// NumDocuments returns the number of documents
func (d *Dataset) NumDocuments() int {
	return len(d.docs)
}

// NumTerms returns the vocabulary size of the whole corpus
func (d *Dataset) NumTerms() int {
	return d.numTerms
}

// NumLabels returns the number of labels
func (d *Dataset) NumLabels() int {
	return len(d.labelCounts)
}

// LabelCount returns the number of documents bearing label
func (d *Dataset) LabelCount(label int) int {
	return d.labelCounts[label]
}

// Vocabulary returns the term interning table
func (d *Dataset) Vocabulary() *Vocabulary {
	return d.vocabulary
}

// Document returns document docNb
func (d *Dataset) Document(docNb int) *Document {
	return &d.docs[docNb]
}

func (d *Dataset) Label(docNb int) int {
	return d.docs[docNb].Label
}

func (d *Dataset) Length(docNb int) int {
	return d.docs[docNb].Length
}

func (d *Dataset) ExternalID(docNb int) int {
	return d.docs[docNb].ExternalID
}

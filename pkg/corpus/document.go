package corpus

import (
	"context"
	"errors"
)

var (
	// ErrIndexNotFound is returned when the backing index of a dataset does not exist
	ErrIndexNotFound = errors.New("corpus: index not found")
	// ErrDatasetNotFound is returned when the raw dataset to ingest does not exist
	ErrDatasetNotFound = errors.New("corpus: dataset not found")
	// ErrDocumentNotFound is returned for a document number outside the index
	ErrDocumentNotFound = errors.New("corpus: document not found")
)

// Document is one indexed document with its term frequency vector
type Document struct {
	Number     int            `json:"number"`
	ExternalID int            `json:"external_id"`
	Label      int            `json:"label"`
	Length     int            `json:"length"`
	Terms      map[string]int `json:"terms"`
}

// Statistics exposes the per-document and corpus-wide counts the classifiers learn from.
// Document numbers are dense, in [0, NumDocuments).
type Statistics interface {
	NumDocuments(ctx context.Context) (int, error)
	NumDistinctTerms(ctx context.Context) (int, error)
	Document(ctx context.Context, docNb int) (*Document, error)
}

// Writer appends documents to an index and returns the assigned document number
type Writer interface {
	AddDocument(ctx context.Context, externalID, label int, terms map[string]int) (int, error)
}

// Index is a readable and writable corpus index
type Index interface {
	Statistics
	Writer
	Close() error
}

// documentLength sums the term frequencies of a vector
func documentLength(terms map[string]int) int {
	length := 0
	for _, freq := range terms {
		length += freq
	}
	return length
}

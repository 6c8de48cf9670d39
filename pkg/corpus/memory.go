package corpus

import (
	"context"
	"fmt"
	"sync"
)

// MemoryIndex keeps the whole corpus in process memory
type MemoryIndex struct {
	mu        sync.RWMutex
	documents []*Document
	terms     map[string]struct{}
}

// NewMemoryIndex creates an empty in-memory index
func NewMemoryIndex() *MemoryIndex {
	return &MemoryIndex{
		terms: make(map[string]struct{}),
	}
}

func (mi *MemoryIndex) NumDocuments(ctx context.Context) (int, error) {
	mi.mu.RLock()
	defer mi.mu.RUnlock()
	return len(mi.documents), nil
}

func (mi *MemoryIndex) NumDistinctTerms(ctx context.Context) (int, error) {
	mi.mu.RLock()
	defer mi.mu.RUnlock()
	return len(mi.terms), nil
}

func (mi *MemoryIndex) Document(ctx context.Context, docNb int) (*Document, error) {
	mi.mu.RLock()
	defer mi.mu.RUnlock()
	if docNb < 0 || docNb >= len(mi.documents) {
		return nil, fmt.Errorf("%w: %d", ErrDocumentNotFound, docNb)
	}
	return mi.documents[docNb], nil
}

func (mi *MemoryIndex) AddDocument(ctx context.Context, externalID, label int, terms map[string]int) (int, error) {
	mi.mu.Lock()
	defer mi.mu.Unlock()

	vector := make(map[string]int, len(terms))
	for term, freq := range terms {
		if freq <= 0 {
			continue
		}
		vector[term] = freq
		mi.terms[term] = struct{}{}
	}

	doc := &Document{
		Number:     len(mi.documents),
		ExternalID: externalID,
		Label:      label,
		Length:     documentLength(vector),
		Terms:      vector,
	}
	mi.documents = append(mi.documents, doc)
	return doc.Number, nil
}

// AddText analyzes text and adds it as a document
func (mi *MemoryIndex) AddText(ctx context.Context, analyzer *Analyzer, externalID, label int, text string) (int, error) {
	return mi.AddDocument(ctx, externalID, label, analyzer.TermFrequencies(text))
}

func (mi *MemoryIndex) Close() error {
	return nil
}

var _ Index = (*MemoryIndex)(nil)

package corpus

import (
	"fmt"
	"strings"
	"sync"
	"unicode"

	"github.com/tebeka/snowball"
)

// englishStopWords is the classic English stop set of full-text analyzers
var englishStopWords = map[string]struct{}{
	"a": {}, "an": {}, "and": {}, "are": {}, "as": {}, "at": {}, "be": {}, "but": {},
	"by": {}, "for": {}, "if": {}, "in": {}, "into": {}, "is": {}, "it": {}, "no": {},
	"not": {}, "of": {}, "on": {}, "or": {}, "such": {}, "that": {}, "the": {},
	"their": {}, "then": {}, "there": {}, "these": {}, "they": {}, "this": {}, "to": {},
	"was": {}, "will": {}, "with": {},
}

// AnalyzerConfig controls tokenization
type AnalyzerConfig struct {
	Stem          bool `yaml:"stem"`
	StopWords     bool `yaml:"stop_words"`
	MinTermLength int  `yaml:"min_term_length"`
	MaxTermLength int  `yaml:"max_term_length"`
}

// DefaultAnalyzerConfig returns the analyzer settings used for indexing
func DefaultAnalyzerConfig() AnalyzerConfig {
	return AnalyzerConfig{
		Stem:          true,
		StopWords:     true,
		MinTermLength: 1,
		MaxTermLength: 255,
	}
}

// Analyzer splits text into lowercase, optionally stemmed terms.
// The snowball stemmer is not safe for concurrent use, so calls are serialized.
type Analyzer struct {
	mu      sync.Mutex
	config  AnalyzerConfig
	stemmer *snowball.Stemmer
}

// NewAnalyzer creates an analyzer
func NewAnalyzer(config AnalyzerConfig) (*Analyzer, error) {
	a := &Analyzer{config: config}
	if config.Stem {
		stemmer, err := snowball.New("english")
		if err != nil {
			return nil, fmt.Errorf("failed to create stemmer: %w", err)
		}
		a.stemmer = stemmer
	}
	return a, nil
}

// Tokens returns the terms of text in order of appearance
func (a *Analyzer) Tokens(text string) []string {
	fields := strings.FieldsFunc(text, func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsNumber(r)
	})

	a.mu.Lock()
	defer a.mu.Unlock()

	tokens := make([]string, 0, len(fields))
	for _, field := range fields {
		term := strings.ToLower(field)
		if a.config.StopWords {
			if _, stop := englishStopWords[term]; stop {
				continue
			}
		}
		if a.stemmer != nil {
			term = a.stemmer.Stem(term)
		}
		n := len([]rune(term))
		if n < a.config.MinTermLength || (a.config.MaxTermLength > 0 && n > a.config.MaxTermLength) {
			continue
		}
		tokens = append(tokens, term)
	}
	return tokens
}

// TermFrequencies returns the term frequency vector of text
func (a *Analyzer) TermFrequencies(text string) map[string]int {
	tf := make(map[string]int)
	for _, token := range a.Tokens(text) {
		tf[token]++
	}
	return tf
}

// Close releases the stemmer
func (a *Analyzer) Close() {
	a.mu.Lock()
	defer a.mu.Unlock()
	if a.stemmer != nil {
		a.stemmer.Close()
		a.stemmer = nil
	}
}

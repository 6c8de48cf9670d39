package dataset

import (
	"errors"
	"fmt"
	"math/rand"
)

var (
	// ErrPercentRange is returned for fold percents outside [0, 1] or inverted windows
	ErrPercentRange = errors.New("dataset: percent must be between 0 and 1")
	// ErrIndexRange is returned for index windows outside a label's document list
	ErrIndexRange = errors.New("dataset: index out of range")
)

// Partition is a shuffled dataset whose per-label document lists can be sliced into folds
type Partition struct {
	*Dataset
	seed   int64
	docNbs [][]int
}

// Partition shuffles each label's document list independently with a source seeded by seed
func (d *Dataset) Partition(seed int64) *Partition {
	p := &Partition{
		Dataset: d,
		seed:    seed,
		docNbs:  make([][]int, len(d.labelDocs)),
	}
	for label, docs := range d.labelDocs {
		shuffled := make([]int, len(docs))
		copy(shuffled, docs)
		rng := rand.New(rand.NewSource(seed))
		rng.Shuffle(len(shuffled), func(i, j int) {
			shuffled[i], shuffled[j] = shuffled[j], shuffled[i]
		})
		p.docNbs[label] = shuffled
	}
	return p
}

// Seed returns the shuffle seed
func (p *Partition) Seed() int64 {
	return p.seed
}

// DocNb returns the document number at index of label's list
func (p *Partition) DocNb(label, index int) int {
	return p.docNbs[label][index]
}

// DocumentsInLabelRange returns a copy of label's documents in [lower, upper)
func (p *Partition) DocumentsInLabelRange(label, lower, upper int) ([]int, error) {
	if label < 0 || label >= len(p.docNbs) {
		return nil, fmt.Errorf("%w: label %d", ErrIndexRange, label)
	}
	if lower < 0 || lower > upper || upper > len(p.docNbs[label]) {
		return nil, fmt.Errorf("%w: [%d, %d) for label %d with %d documents",
			ErrIndexRange, lower, upper, label, len(p.docNbs[label]))
	}
	return append([]int(nil), p.docNbs[label][lower:upper]...), nil
}

// PercentToIndex truncates percent of label's document count to an index
func (p *Partition) PercentToIndex(label int, percent float64) (int, error) {
	if !validPercent(percent) {
		return 0, fmt.Errorf("%w: %v", ErrPercentRange, percent)
	}
	return int(percent * float64(p.LabelCount(label))), nil
}

// Fold is a per-label test window [Lower, Upper); the rest of each label is training data
type Fold struct {
	Lower        []int
	Upper        []int
	LowerPercent float64
	UpperPercent float64
}

// Fold converts a percent window into per-label index boundaries,
// so every label contributes proportionally to the test window.
func (p *Partition) Fold(lowerPercent, upperPercent float64) (Fold, error) {
	if !validPercent(lowerPercent) || !validPercent(upperPercent) || lowerPercent > upperPercent {
		return Fold{}, fmt.Errorf("%w: lowerPercent: %v upperPercent: %v", ErrPercentRange, lowerPercent, upperPercent)
	}
	f := Fold{
		Lower:        make([]int, p.NumLabels()),
		Upper:        make([]int, p.NumLabels()),
		LowerPercent: lowerPercent,
		UpperPercent: upperPercent,
	}
	for label := range f.Lower {
		f.Lower[label], _ = p.PercentToIndex(label, lowerPercent)
		f.Upper[label], _ = p.PercentToIndex(label, upperPercent)
	}
	return f, nil
}

// FoldIndices builds a fold from explicit per-label index boundaries.
// Percents are derived from label 0.
func (p *Partition) FoldIndices(lower, upper []int) (Fold, error) {
	if len(lower) != p.NumLabels() || len(upper) != p.NumLabels() {
		return Fold{}, fmt.Errorf("%w: expected %d boundaries, got %d and %d",
			ErrIndexRange, p.NumLabels(), len(lower), len(upper))
	}
	for label := range lower {
		if lower[label] < 0 || lower[label] > upper[label] || upper[label] > p.LabelCount(label) {
			return Fold{}, fmt.Errorf("%w: [%d, %d) for label %d with %d documents",
				ErrIndexRange, lower[label], upper[label], label, p.LabelCount(label))
		}
	}
	f := Fold{
		Lower: append([]int(nil), lower...),
		Upper: append([]int(nil), upper...),
	}
	if p.NumLabels() > 0 && p.LabelCount(0) > 0 {
		f.LowerPercent = float64(lower[0]) / float64(p.LabelCount(0))
		f.UpperPercent = float64(upper[0]) / float64(p.LabelCount(0))
	}
	return f, nil
}

// Train returns the training side of fold
func (p *Partition) Train(f Fold) *View {
	return &View{Partition: p, fold: f}
}

// Test returns the held-out side of fold
func (p *Partition) Test(f Fold) *View {
	return &View{Partition: p, fold: f, test: true}
}

// View is one side of a fold. Corpus-wide statistics stay available through the embedded partition.
type View struct {
	*Partition
	fold Fold
	test bool
}

// Fold returns the fold the view was cut from
func (v *View) Fold() Fold {
	return v.fold
}

// IsTest reports whether the view holds the held-out window
func (v *View) IsTest() bool {
	return v.test
}

// Documents returns the view's documents of label in partition order
func (v *View) Documents(label int) []int {
	docs := v.docNbs[label]
	lower, upper := v.fold.Lower[label], v.fold.Upper[label]
	if v.test {
		return append([]int(nil), docs[lower:upper]...)
	}
	train := make([]int, 0, len(docs)-(upper-lower))
	train = append(train, docs[:lower]...)
	return append(train, docs[upper:]...)
}

// Size returns the number of documents in the view
func (v *View) Size() int {
	n := 0
	for label := range v.docNbs {
		n += len(v.Documents(label))
	}
	return n
}

func validPercent(percent float64) bool {
	return percent >= 0 && percent <= 1
}

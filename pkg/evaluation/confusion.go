package evaluation

// ConfusionMatrix counts predictions as [true label][predicted label]
type ConfusionMatrix [][]int

// NewConfusionMatrix creates a zeroed nbLabels x nbLabels matrix
func NewConfusionMatrix(nbLabels int) ConfusionMatrix {
	m := make(ConfusionMatrix, nbLabels)
	for label := range m {
		m[label] = make([]int, nbLabels)
	}
	return m
}

// Add records one prediction
func (m ConfusionMatrix) Add(trueLabel, predicted int) {
	m[trueLabel][predicted]++
}

// Merge adds the counts of other into m
func (m ConfusionMatrix) Merge(other ConfusionMatrix) {
	for i, row := range other {
		for j, count := range row {
			m[i][j] += count
		}
	}
}

// RowSum returns the number of test documents of label
func (m ConfusionMatrix) RowSum(label int) int {
	sum := 0
	for _, count := range m[label] {
		sum += count
	}
	return sum
}

// Total returns the number of classified documents
func (m ConfusionMatrix) Total() int {
	total := 0
	for label := range m {
		total += m.RowSum(label)
	}
	return total
}

// Correct returns the trace of the matrix
func (m ConfusionMatrix) Correct() int {
	correct := 0
	for label := range m {
		correct += m[label][label]
	}
	return correct
}

// LabelAccuracy returns the share of label's documents classified correctly, 0 for an empty row
func (m ConfusionMatrix) LabelAccuracy(label int) float64 {
	sum := m.RowSum(label)
	if sum == 0 {
		return 0
	}
	return float64(m[label][label]) / float64(sum)
}

// Accuracy returns the overall share of correct predictions, 0 when nothing was classified
func (m ConfusionMatrix) Accuracy() float64 {
	total := m.Total()
	if total == 0 {
		return 0
	}
	return float64(m.Correct()) / float64(total)
}

package evaluation

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	"github.com/textclass/harness/pkg/dataset"
)

// Report is the outcome of evaluating one model on one fold
type Report struct {
	Classifier    string
	Fold          dataset.Fold
	Matrix        ConfusionMatrix
	LabelAccuracy []float64
	Accuracy      float64
	// Path is the file the report was written to, empty when not saved
	Path string
}

func newReport(classifier string, fold dataset.Fold, matrix ConfusionMatrix) *Report {
	r := &Report{
		Classifier:    classifier,
		Fold:          fold,
		Matrix:        matrix,
		LabelAccuracy: make([]float64, len(matrix)),
		Accuracy:      matrix.Accuracy(),
	}
	for label := range matrix {
		r.LabelAccuracy[label] = matrix.LabelAccuracy(label)
	}
	return r
}

// FileName returns <classifier>_<lower>_<upper> with two decimal percents
func (r *Report) FileName() string {
	return fmt.Sprintf("%s_%.2f_%.2f", r.Classifier, r.Fold.LowerPercent, r.Fold.UpperPercent)
}

// WriteTSV writes one tab-prefixed row per true label: the counts, then the label accuracy.
// The last row also carries the overall accuracy. There is no trailing newline.
func (r *Report) WriteTSV(w io.Writer) error {
	bw := bufio.NewWriter(w)
	for label, row := range r.Matrix {
		if label != 0 {
			bw.WriteByte('\n')
		}
		for _, count := range row {
			bw.WriteByte('\t')
			bw.WriteString(strconv.Itoa(count))
		}
		bw.WriteByte('\t')
		bw.WriteString(formatAccuracy(r.LabelAccuracy[label]))
	}
	bw.WriteByte('\t')
	bw.WriteString(formatAccuracy(r.Accuracy))
	return bw.Flush()
}

// Save writes the report into dir under FileName and records the path
func (r *Report) Save(dir string) error {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create results directory: %w", err)
	}
	path := filepath.Join(dir, r.FileName())
	file, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("failed to create report: %w", err)
	}
	defer file.Close()

	if err := r.WriteTSV(file); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	if err := file.Close(); err != nil {
		return fmt.Errorf("failed to write report: %w", err)
	}
	r.Path = path
	return nil
}

func formatAccuracy(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

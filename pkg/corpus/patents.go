package corpus

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
	"golang.org/x/text/encoding/unicode"
	"golang.org/x/text/transform"
)

const (
	// PatentsFile holds "appln_id,id,\"abstract\"" records, UTF-16 encoded
	PatentsFile = "us_patents_abstracts.csv"
	// PatentsLabelFile holds one 1-based label per mapping, one per line
	PatentsLabelFile = "Ypatents.mat.txt"
	// PatentsMappingFile holds "mapping id" pairs, mapping 1-based
	PatentsMappingFile = "links_mapping.mat.txt"

	// Abstracts this short carry too little text to classify
	minAbstractLength = 100
	progressEvery     = 100000
)

// IngestPatents indexes the patents abstracts of dir. Malformed lines are logged and skipped,
// abstracts of unmapped patents are dropped.
func IngestPatents(ctx context.Context, dir string, w Writer, analyzer *Analyzer, log *logrus.Entry) (*IngestStats, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w at %s", ErrDatasetNotFound, dir)
	}

	id2mapping, err := readIDMapping(filepath.Join(dir, PatentsMappingFile), log)
	if err != nil {
		return nil, err
	}
	mapping2label, err := readMappingLabels(filepath.Join(dir, PatentsLabelFile), log)
	if err != nil {
		return nil, err
	}

	file, err := os.Open(filepath.Join(dir, PatentsFile))
	if err != nil {
		return nil, fmt.Errorf("failed to open patents: %w", err)
	}
	defer file.Close()

	decoder := unicode.UTF16(unicode.BigEndian, unicode.UseBOM).NewDecoder()
	stats := &IngestStats{}
	labelCounts := make(map[int]int)
	maxLabel := -1

	err = scanLines(transform.NewReader(file, decoder), log, func(lineNumber int, line string) error {
		warn := func(msg string) {
			log.Warnf("line %d: %s", lineNumber, msg)
			stats.Skipped++
		}

		blocs := strings.SplitN(line, ",", 3)
		if len(blocs) != 3 {
			warn("incorrect arguments count")
			return nil
		}
		if _, err := strconv.Atoi(blocs[0]); err != nil {
			warn("invalid numbers")
			return nil
		}
		id, err := strconv.Atoi(blocs[1])
		if err != nil {
			warn("invalid numbers")
			return nil
		}

		content := blocs[2]
		switch {
		case len(content) <= 2:
			warn("empty abstract")
			return nil
		case len(content) <= minAbstractLength:
			stats.Skipped++
			return nil
		case content[0] != '"' || content[len(content)-1] != '"':
			warn("bad abstract quotation")
			return nil
		}

		mapping, ok := id2mapping[id]
		if !ok || mapping < 0 || mapping >= len(mapping2label) {
			stats.Skipped++
			return nil
		}
		label := mapping2label[mapping]
		if label < 0 {
			warn("negative label")
			return nil
		}

		terms := analyzer.TermFrequencies(content[1 : len(content)-1])
		if _, err := w.AddDocument(ctx, id, label, terms); err != nil {
			return fmt.Errorf("failed to index patent %d: %w", id, err)
		}
		labelCounts[label]++
		if label > maxLabel {
			maxLabel = label
		}
		stats.Documents++
		return ctx.Err()
	})
	if err != nil {
		return nil, err
	}

	for label := 0; label <= maxLabel; label++ {
		stats.Labels = append(stats.Labels, LabelInfo{
			Label:     label,
			Name:      strconv.Itoa(label + 1),
			Documents: labelCounts[label],
		})
	}
	log.WithFields(logrus.Fields{"documents": stats.Documents, "skipped": stats.Skipped}).Info("indexed patents")
	return stats, nil
}

// readIDMapping reads "mapping id" lines into id -> 0-based mapping
func readIDMapping(path string, log *logrus.Entry) (map[int]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open id mapping: %w", err)
	}
	defer file.Close()

	id2mapping := make(map[int]int)
	err = scanLines(file, log, func(lineNumber int, line string) error {
		blocs := strings.Split(line, " ")
		if len(blocs) != 2 {
			log.Warnf("line %d: incorrect arguments count", lineNumber)
			return nil
		}
		mapping, err1 := strconv.Atoi(blocs[0])
		id, err2 := strconv.Atoi(blocs[1])
		if err1 != nil || err2 != nil {
			log.Warnf("line %d: invalid numbers", lineNumber)
			return nil
		}
		id2mapping[id] = mapping - 1
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Infof("%d id to mapping entries", len(id2mapping))
	return id2mapping, nil
}

// readMappingLabels reads one 1-based label per line into mapping -> 0-based label
func readMappingLabels(path string, log *logrus.Entry) ([]int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open label mapping: %w", err)
	}
	defer file.Close()

	var mapping2label []int
	err = scanLines(file, log, func(lineNumber int, line string) error {
		blocs := strings.Split(line, " ")
		if len(blocs) != 1 {
			log.Warnf("line %d: incorrect arguments count", lineNumber)
			return nil
		}
		label, err := strconv.Atoi(blocs[0])
		if err != nil {
			log.Warnf("line %d: invalid numbers", lineNumber)
			return nil
		}
		mapping2label = append(mapping2label, label-1)
		return nil
	})
	if err != nil {
		return nil, err
	}
	log.Infof("%d mapping to label entries", len(mapping2label))
	return mapping2label, nil
}

// scanLines calls fn for every trimmed, non-empty, non-comment line of r
func scanLines(r io.Reader, log *logrus.Entry, fn func(lineNumber int, line string) error) error {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 16*1024*1024)

	lineNumber := 0
	for ; scanner.Scan(); lineNumber++ {
		if lineNumber%progressEvery == 0 && lineNumber > 0 {
			log.Debugf("%d lines read", lineNumber)
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			log.Warnf("line %d: empty line", lineNumber)
			continue
		}
		if line[0] == '#' {
			log.Warnf("line %d: commented line", lineNumber)
			continue
		}
		if err := fn(lineNumber, line); err != nil {
			return err
		}
	}
	return scanner.Err()
}

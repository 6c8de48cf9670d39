package corpus

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"
)

// LabelInfo describes one label produced by ingestion
type LabelInfo struct {
	Label     int    `json:"label"`
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

// IngestStats summarizes an ingestion run
type IngestStats struct {
	Documents int         `json:"documents"`
	Skipped   int         `json:"skipped"`
	Labels    []LabelInfo `json:"labels"`
}

// IngestNewsgroups indexes a newsgroups tree: one sub-directory per label, one file per message,
// named by its numeric id. Labels are assigned in directory name order. Empty messages are skipped.
func IngestNewsgroups(ctx context.Context, dir string, w Writer, analyzer *Analyzer, log *logrus.Entry) (*IngestStats, error) {
	if info, err := os.Stat(dir); err != nil || !info.IsDir() {
		return nil, fmt.Errorf("%w at %s", ErrDatasetNotFound, dir)
	}

	groups, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list newsgroups: %w", err)
	}

	stats := &IngestStats{}
	label := 0
	for _, group := range groups {
		if !group.IsDir() {
			continue
		}
		info := LabelInfo{Label: label, Name: group.Name()}

		groupPath := filepath.Join(dir, group.Name())
		messages, err := os.ReadDir(groupPath)
		if err != nil {
			return nil, fmt.Errorf("failed to list newsgroup %s: %w", group.Name(), err)
		}
		for _, message := range messages {
			if message.IsDir() {
				continue
			}
			if err := ctx.Err(); err != nil {
				return nil, err
			}

			id, err := strconv.Atoi(message.Name())
			if err != nil {
				log.Warnf("skipping %s: file name is not a numeric id", filepath.Join(group.Name(), message.Name()))
				stats.Skipped++
				continue
			}
			content, err := readMessage(filepath.Join(groupPath, message.Name()))
			if err != nil {
				return nil, err
			}
			if content == "" {
				stats.Skipped++
				continue
			}
			if _, err := w.AddDocument(ctx, id, label, analyzer.TermFrequencies(content)); err != nil {
				return nil, fmt.Errorf("failed to index %s: %w", message.Name(), err)
			}
			info.Documents++
			stats.Documents++
		}

		log.WithFields(logrus.Fields{"label": label, "group": group.Name(), "documents": info.Documents}).Info("indexed newsgroup")
		stats.Labels = append(stats.Labels, info)
		label++
	}
	return stats, nil
}

// readMessage joins the lines of a message with single spaces
func readMessage(path string) (string, error) {
	file, err := os.Open(path)
	if err != nil {
		return "", fmt.Errorf("failed to open message: %w", err)
	}
	defer file.Close()

	var b strings.Builder
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 4*1024*1024)
	for scanner.Scan() {
		b.WriteString(scanner.Text())
		b.WriteByte(' ')
	}
	if err := scanner.Err(); err != nil {
		return "", fmt.Errorf("failed to read message %s: %w", path, err)
	}
	return strings.TrimSpace(b.String()), nil
}

// NewsgroupLabels returns the label names of a newsgroups tree, indexed by label
func NewsgroupLabels(dir string) ([]string, error) {
	groups, err := os.ReadDir(dir)
	if err != nil {
		return nil, fmt.Errorf("%w at %s", ErrDatasetNotFound, dir)
	}
	var names []string
	for _, group := range groups {
		if group.IsDir() {
			names = append(names, group.Name())
		}
	}
	return names, nil
}

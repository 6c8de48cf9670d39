package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/textclass/harness/pkg/config"
	"github.com/textclass/harness/pkg/corpus"
	"github.com/textclass/harness/pkg/dataset"
	"github.com/textclass/harness/pkg/evaluation"
)

// loadEnvironment loads the configuration, applies command line overrides and builds the logger
func loadEnvironment() (*config.Config, *logrus.Entry, error) {
	cfg, err := config.LoadConfig(configPath)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to load configuration: %w", err)
	}

	if datasetName != "" {
		cfg.Dataset.Name = datasetName
	}
	if datasetBackend != "" {
		cfg.Dataset.Backend = datasetBackend
	}
	if classifierName != "" {
		cfg.Classifier.Name = strings.ToLower(classifierName)
	}
	if logLevel != "" {
		cfg.Logging.Level = logLevel
	}
	if err := cfg.Validate(); err != nil {
		return nil, nil, fmt.Errorf("invalid configuration: %w", err)
	}

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return nil, nil, err
	}
	return cfg, logger.WithField("dataset", cfg.Dataset.Name), nil
}

// openIndex opens the existing index of the configured dataset
func openIndex(ctx context.Context, cfg *config.Config) (corpus.Index, error) {
	switch cfg.Dataset.Backend {
	case config.BackendRedis:
		return corpus.OpenRedisIndex(ctx, cfg.RedisIndexConfig(), cfg.Dataset.Name)
	case config.BackendSQLite:
		return corpus.OpenSQLiteIndex(ctx, cfg.IndexPath())
	default:
		return nil, fmt.Errorf("unknown index backend: %s", cfg.Dataset.Backend)
	}
}

// createIndex creates an empty index for the configured dataset, replacing any previous one
func createIndex(ctx context.Context, cfg *config.Config) (corpus.Index, error) {
	switch cfg.Dataset.Backend {
	case config.BackendRedis:
		return corpus.CreateRedisIndex(ctx, cfg.RedisIndexConfig(), cfg.Dataset.Name)
	case config.BackendSQLite:
		return corpus.CreateSQLiteIndex(ctx, cfg.IndexPath())
	default:
		return nil, fmt.Errorf("unknown index backend: %s", cfg.Dataset.Backend)
	}
}

// loadPartition reads the dataset index into memory and shuffles it with the configured seed
func loadPartition(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*dataset.Partition, error) {
	index, err := openIndex(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("failed to open index (run 'textclass index' first): %w", err)
	}
	defer index.Close()

	ds, err := dataset.Load(ctx, index, log)
	if err != nil {
		return nil, err
	}
	return ds.Partition(cfg.Dataset.Seed), nil
}

// labelNames returns the label names of the dataset when its layout records them
func labelNames(cfg *config.Config) []string {
	if cfg.Dataset.Kind != config.KindNewsgroups {
		return nil
	}
	names, err := corpus.NewsgroupLabels(cfg.DatasetDir())
	if err != nil {
		return nil
	}
	return names
}

func labelName(names []string, label int) string {
	if label < len(names) {
		return names[label]
	}
	return fmt.Sprintf("%d", label)
}

// printReport prints the confusion matrix with per-label rates
func printReport(w io.Writer, report *evaluation.Report, names []string) {
	fmt.Fprintf(w, "📊 %s [%.2f|%.2f]\n", report.Classifier, report.Fold.LowerPercent, report.Fold.UpperPercent)
	for label, row := range report.Matrix {
		fmt.Fprintf(w, "  %-28s", truncateName(labelName(names, label), 28))
		for _, count := range row {
			fmt.Fprintf(w, " %5d", count)
		}
		fmt.Fprintf(w, "  rate: %d%%\n", int(100*report.LabelAccuracy[label]))
	}
	fmt.Fprintf(w, "  Average rate(%%): %.2f\n", 100*report.Accuracy)
	if report.Path != "" {
		fmt.Fprintf(w, "  💾 Report saved to: %s\n", report.Path)
	}
}

func truncateName(s string, maxLen int) string {
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen-3] + "..."
}

func closeLogger(log *logrus.Entry) {
	if f, ok := log.Logger.Out.(*os.File); ok && f != os.Stderr && f != os.Stdout {
		f.Close()
	}
}

package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/textclass/harness/pkg/config"
	"github.com/textclass/harness/pkg/corpus"
)

var indexCmd = &cobra.Command{
	Use:   "index",
	Short: "Index a raw dataset",
	Long: `Tokenize a raw dataset and store its term frequency vectors in the configured index
backend. Newsgroups datasets hold one directory per label with one numbered file per
message. Patents datasets hold the UTF-16 abstracts CSV and its label mapping files.

Any previous index of the dataset is replaced.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer closeLogger(log)

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		fmt.Printf("📚 Indexing %s dataset\n", cfg.Dataset.Kind)
		fmt.Printf("═══════════════════════════════════════\n")
		fmt.Printf("📁 Dataset directory: %s\n", cfg.DatasetDir())
		fmt.Printf("💾 Backend: %s\n", cfg.Dataset.Backend)
		fmt.Printf("\n")

		start := time.Now()
		stats, terms, err := indexDataset(ctx, cfg, log)
		if err != nil {
			return err
		}
		duration := time.Since(start)

		fmt.Printf("🎉 Indexing Complete!\n")
		fmt.Printf("📊 Documents indexed: %d\n", stats.Documents)
		fmt.Printf("⚠️  Documents skipped: %d\n", stats.Skipped)
		fmt.Printf("🔤 Distinct terms: %d\n", terms)
		fmt.Printf("⏱️  Time taken: %v\n", duration)
		fmt.Printf("\n")
		for _, label := range stats.Labels {
			fmt.Printf("  %3d  %-30s %6d\n", label.Label, label.Name, label.Documents)
		}
		return nil
	},
}

// indexDataset ingests the configured raw dataset into a fresh index and returns the distinct term count
func indexDataset(ctx context.Context, cfg *config.Config, log *logrus.Entry) (*corpus.IngestStats, int, error) {
	analyzer, err := corpus.NewAnalyzer(cfg.Analyzer)
	if err != nil {
		return nil, 0, err
	}
	defer analyzer.Close()

	index, err := createIndex(ctx, cfg)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create index: %w", err)
	}
	defer index.Close()

	var stats *corpus.IngestStats
	switch cfg.Dataset.Kind {
	case config.KindPatents:
		stats, err = corpus.IngestPatents(ctx, cfg.DatasetDir(), index, analyzer, log)
	default:
		stats, err = corpus.IngestNewsgroups(ctx, cfg.DatasetDir(), index, analyzer, log)
	}
	if err != nil {
		return nil, 0, fmt.Errorf("failed to index dataset: %w", err)
	}

	terms, err := index.NumDistinctTerms(ctx)
	if err != nil {
		return nil, 0, err
	}
	return stats, terms, nil
}

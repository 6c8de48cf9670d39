package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/textclass/harness/pkg/learning"
)

var trainModelPath string

var trainCmd = &cobra.Command{
	Use:   "train",
	Short: "Train a classifier on the whole dataset and save it",
	Long: `Train the configured classifier on every document of the dataset and save the
model together with its vocabulary, for later use by 'textclass classify'.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer closeLogger(log)

		modelPath := cfg.ModelPath()
		if trainModelPath != "" {
			modelPath = trainModelPath
		}

		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
		defer stop()

		partition, err := loadPartition(ctx, cfg, log)
		if err != nil {
			return err
		}
		classifier, err := learning.New(cfg.Classifier.Name, cfg.LearningOptions(), log)
		if err != nil {
			return err
		}

		fmt.Printf("🧠 Training %s on %s\n", classifier.Name(), cfg.Dataset.Name)
		fmt.Printf("═══════════════════════════════════════\n")
		fmt.Printf("💾 Model path: %s\n\n", modelPath)

		// An empty test window trains on every document.
		fold, err := partition.Fold(0, 0)
		if err != nil {
			return err
		}

		start := time.Now()
		model, err := classifier.Train(partition.Train(fold))
		if err != nil {
			return fmt.Errorf("failed to train %s: %w", classifier.Name(), err)
		}
		duration := time.Since(start)

		if err := learning.SaveModel(modelPath, model, partition.Vocabulary(), labelNames(cfg)); err != nil {
			return fmt.Errorf("failed to save model: %w", err)
		}

		fmt.Printf("🎉 Training Complete!\n")
		fmt.Printf("📊 Documents: %d in %d labels\n", partition.NumDocuments(), partition.NumLabels())
		fmt.Printf("🔤 Vocabulary: %d terms\n", partition.Vocabulary().Len())
		fmt.Printf("⏱️  Time taken: %v\n", duration)
		fmt.Printf("💾 Model saved to: %s\n", modelPath)
		return nil
	},
}

func init() {
	trainCmd.Flags().StringVarP(&trainModelPath, "model", "m", "", "Path to save the model (overrides config)")
}

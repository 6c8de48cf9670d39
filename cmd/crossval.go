package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"

	"github.com/spf13/cobra"

	"github.com/textclass/harness/pkg/evaluation"
	"github.com/textclass/harness/pkg/learning"
	"github.com/textclass/harness/pkg/profiler"
)

var (
	crossvalPercent float64
	crossvalVerbose bool
)

var crossvalCmd = &cobra.Command{
	Use:   "crossval",
	Short: "Cross-validate a classifier",
	Long: `Run int(1/percent) consecutive folds of width percent: each fold learns on the rest
of every label and tests on the fold window. Prints the mean accuracy over folds.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer closeLogger(log)

		percent := cfg.Evaluation.Percent
		if cmd.Flags().Changed("percent") {
			percent = crossvalPercent
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

		prof := profiler.NewProfiler()
		evaluator := evaluation.NewEvaluator(partition, &evaluation.Options{
			ResultsDir: cfg.ResultsDir(),
			Workers:    cfg.Evaluation.Workers,
			Profiler:   prof,
		}, log)

		fmt.Printf("🧪 Cross-validating %s on %s\n", classifier.Name(), cfg.Dataset.Name)
		fmt.Printf("═══════════════════════════════════════\n")
		fmt.Printf("📄 Documents: %d in %d labels\n", partition.NumDocuments(), partition.NumLabels())
		fmt.Printf("🎲 Seed: %d\n", partition.Seed())
		fmt.Printf("📐 Fold width: %.2f\n\n", percent)

		cv, err := evaluator.CrossValidate(ctx, classifier, percent)
		if err != nil {
			return err
		}

		names := labelNames(cfg)
		for _, report := range cv.Reports {
			if crossvalVerbose {
				printReport(os.Stdout, report, names)
				fmt.Println()
			} else {
				fmt.Printf("  [%.2f|%.2f]  %.4f\n", report.Fold.LowerPercent, report.Fold.UpperPercent, report.Accuracy)
			}
		}
		fmt.Printf("\n🎯 OVERALL AVERAGE RATE: %v\n", cv.Accuracy)
		fmt.Printf("💾 Reports saved to: %s\n", cfg.ResultsDir())

		if cfg.Evaluation.Profile {
			fmt.Println()
			prof.PrintReport(os.Stdout)
		}
		return nil
	},
}

func init() {
	crossvalCmd.Flags().Float64VarP(&crossvalPercent, "percent", "p", 0.1, "Fold width, in (0, 1] (overrides config)")
	crossvalCmd.Flags().BoolVarP(&crossvalVerbose, "verbose", "v", false, "Print every confusion matrix")
}

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
	evaluateLower float64
	evaluateUpper float64
)

var evaluateCmd = &cobra.Command{
	Use:   "evaluate",
	Short: "Learn and test a classifier on one fold",
	Long: `Learn the configured classifier outside the [lower, upper) window of every label
and test it inside the window. The confusion matrix is written to the results directory
as <classifier>_<lower>_<upper>.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer closeLogger(log)

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

		report, err := evaluator.Run(ctx, classifier, evaluateLower, evaluateUpper)
		if err != nil {
			return err
		}

		printReport(os.Stdout, report, labelNames(cfg))
		if cfg.Evaluation.Profile {
			fmt.Println()
			prof.PrintReport(os.Stdout)
		}
		return nil
	},
}

func init() {
	evaluateCmd.Flags().Float64Var(&evaluateLower, "lower", 0, "Lower bound of the test window, in [0, 1]")
	evaluateCmd.Flags().Float64Var(&evaluateUpper, "upper", 0.1, "Upper bound of the test window, in [0, 1]")
}

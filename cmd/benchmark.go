package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/spf13/cobra"

	"github.com/textclass/harness/pkg/dataset"
	"github.com/textclass/harness/pkg/evaluation"
	"github.com/textclass/harness/pkg/learning"
	"github.com/textclass/harness/pkg/profiler"
)

var (
	benchmarkRuns    int
	benchmarkLower   float64
	benchmarkUpper   float64
	benchmarkWorkers int
)

var benchmarkCmd = &cobra.Command{
	Use:   "benchmark",
	Short: "Performance benchmark of every classifier",
	Long: `Learn and test every classifier on the same fold several times and compare
learning time, prediction throughput and accuracy. No report files are written.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if benchmarkRuns <= 0 {
			return fmt.Errorf("runs must be greater than 0")
		}

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
		fold, err := partition.Fold(benchmarkLower, benchmarkUpper)
		if err != nil {
			return err
		}

		options := cfg.LearningOptions()
		workers := cfg.Evaluation.Workers
		if benchmarkWorkers > 0 {
			options.Workers = benchmarkWorkers
			workers = benchmarkWorkers
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "🚀 textclass Performance Benchmark\n")
		fmt.Fprintf(out, "📁 Dataset: %s\n", cfg.Dataset.Name)
		fmt.Fprintf(out, "🧪 Test window: [%.2f, %.2f)\n", benchmarkLower, benchmarkUpper)
		fmt.Fprintf(out, "🔄 Benchmark runs: %d\n", benchmarkRuns)
		fmt.Fprintf(out, "⚡ Workers: %d\n\n", workers)

		prof := profiler.NewProfiler()
		evaluator := evaluation.NewEvaluator(partition, &evaluation.Options{
			Workers:  workers,
			Profiler: prof,
		}, log)

		results := make([]*BenchmarkResult, 0, len(learning.Names()))
		for _, name := range learning.Names() {
			classifier, err := learning.New(name, options, log)
			if err != nil {
				return err
			}
			result, err := runBenchmark(ctx, evaluator, classifier, partition, fold, benchmarkRuns)
			if err != nil {
				return err
			}
			results = append(results, result)
		}

		displayBenchmarkResults(out, results)
		if cfg.Evaluation.Profile {
			fmt.Fprintln(out)
			prof.PrintReport(out)
		}
		return nil
	},
}

// BenchmarkResult contains the measurements of one classifier
type BenchmarkResult struct {
	Classifier string
	Runs       int

	// Documents classified per run
	TestDocuments int

	TotalTime       time.Duration
	AvgLearnTime    time.Duration
	AvgEvaluateTime time.Duration
	DocsPerSecond   float64

	Accuracy float64
}

// runBenchmark learns and tests classifier runs times; accuracy is taken from the last run
func runBenchmark(ctx context.Context, evaluator *evaluation.Evaluator, classifier learning.Classifier, partition *dataset.Partition, fold dataset.Fold, runs int) (*BenchmarkResult, error) {
	result := &BenchmarkResult{
		Classifier:    classifier.Name(),
		Runs:          runs,
		TestDocuments: partition.Test(fold).Size(),
	}

	var learnTime, evaluateTime time.Duration
	start := time.Now()
	for run := 0; run < runs; run++ {
		learnStart := time.Now()
		model, err := evaluator.Train(classifier, fold)
		if err != nil {
			return nil, err
		}
		learnTime += time.Since(learnStart)

		evaluateStart := time.Now()
		report, err := evaluator.Evaluate(ctx, model, fold)
		if err != nil {
			return nil, err
		}
		evaluateTime += time.Since(evaluateStart)
		result.Accuracy = report.Accuracy
	}
	result.TotalTime = time.Since(start)

	result.AvgLearnTime = learnTime / time.Duration(runs)
	result.AvgEvaluateTime = evaluateTime / time.Duration(runs)
	if evaluateTime > 0 {
		result.DocsPerSecond = float64(result.TestDocuments*runs) / evaluateTime.Seconds()
	}
	return result, nil
}

// displayBenchmarkResults shows the comparison table
func displayBenchmarkResults(w io.Writer, results []*BenchmarkResult) {
	fmt.Fprintf(w, "📊 Benchmark Results\n")
	fmt.Fprintf(w, "═══════════════════════════════════════════════════════════════════════\n")
	fmt.Fprintf(w, "%-12s %12s %14s %14s %12s %10s\n", "Classifier", "Test docs", "Avg learn", "Avg evaluate", "Docs/sec", "Accuracy")
	fmt.Fprintf(w, "───────────────────────────────────────────────────────────────────────\n")
	for _, r := range results {
		fmt.Fprintf(w, "%-12s %12d %14s %14s %12.0f %9.2f%%\n",
			r.Classifier,
			r.TestDocuments,
			r.AvgLearnTime.Round(time.Microsecond),
			r.AvgEvaluateTime.Round(time.Microsecond),
			r.DocsPerSecond,
			100*r.Accuracy,
		)
	}

	if len(results) > 1 {
		best := results[0]
		for _, r := range results[1:] {
			if r.Accuracy > best.Accuracy {
				best = r
			}
		}
		fmt.Fprintf(w, "\n🏆 Most accurate: %s (%.2f%%)\n", best.Classifier, 100*best.Accuracy)
	}
}

func init() {
	benchmarkCmd.Flags().IntVarP(&benchmarkRuns, "runs", "r", 3, "Number of benchmark runs per classifier")
	benchmarkCmd.Flags().Float64Var(&benchmarkLower, "lower", 0, "Lower bound of the test window, in [0, 1]")
	benchmarkCmd.Flags().Float64Var(&benchmarkUpper, "upper", 0.1, "Upper bound of the test window, in [0, 1]")
	benchmarkCmd.Flags().IntVarP(&benchmarkWorkers, "workers", "w", 0, "Worker goroutines (overrides config)")
}

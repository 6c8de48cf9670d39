package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"path/filepath"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/textclass/harness/pkg/config"
	"github.com/textclass/harness/pkg/evaluation"
	"github.com/textclass/harness/pkg/learning"
)

var (
	quickstartDir      string
	quickstartCount    int
	quickstartPercent  float64
	quickstartUseRedis bool
	quickstartForce    bool
)

var quickstartCmd = &cobra.Command{
	Use:   "quickstart",
	Short: "Set up a demo workspace and cross-validate every classifier",
	Long: `See textclass in action in under a minute.

This command will:
1. Detect whether a local Redis can hold the index
2. Generate a configuration file for a demo workspace
3. Generate and index a synthetic newsgroups dataset
4. Cross-validate every classifier on it

Perfect for first-time users who want to see the harness in action immediately!`,
	RunE: runQuickstart,
}

func runQuickstart(cmd *cobra.Command, args []string) error {
	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "📚 textclass Quickstart\n")
	fmt.Fprintf(out, "════════════════════════════════════════════════\n\n")

	configFile := filepath.Join(quickstartDir, "config.yaml")
	if _, err := os.Stat(configFile); err == nil && !quickstartForce {
		return fmt.Errorf("workspace already exists: %s (use --force to recreate)", quickstartDir)
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	// Step 1: Backend Detection
	fmt.Fprintf(out, "🔍 Step 1: Detecting index backend...\n")
	cfg := generateQuickstartConfig(quickstartDir)
	if quickstartUseRedis {
		if isRedisAvailable(ctx, cfg.Redis.RedisURL) {
			cfg.Dataset.Backend = config.BackendRedis
			fmt.Fprintf(out, "  ✅ Redis: available at %s\n", cfg.Redis.RedisURL)
		} else {
			fmt.Fprintf(out, "  📁 Redis: not available (using SQLite)\n")
		}
	}
	fmt.Fprintf(out, "  💾 Backend: %s\n", cfg.Dataset.Backend)

	// Step 2: Generate Config
	fmt.Fprintf(out, "\n⚙️ Step 2: Generating configuration...\n")
	if err := os.MkdirAll(quickstartDir, 0755); err != nil {
		return fmt.Errorf("failed to create workspace: %w", err)
	}
	if err := cfg.SaveConfig(configFile); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}
	fmt.Fprintf(out, "✅ Configuration saved: %s\n", configFile)

	logger, err := config.NewLogger(cfg.Logging)
	if err != nil {
		return err
	}
	log := logger.WithField("dataset", cfg.Dataset.Name)

	// Step 3: Dataset
	fmt.Fprintf(out, "\n🧪 Step 3: Generating and indexing a synthetic dataset...\n")
	if err := os.RemoveAll(cfg.DatasetDir()); err != nil {
		return fmt.Errorf("failed to clear dataset directory: %w", err)
	}
	generator := NewCorpusGenerator(cfg.Dataset.Seed, 0.3)
	written, err := generator.WriteDataset(cfg.DatasetDir(), quickstartCount)
	if err != nil {
		return err
	}
	stats, terms, err := indexDataset(ctx, cfg, log)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "  📧 Messages written: %d\n", written)
	fmt.Fprintf(out, "  📊 Documents indexed: %d (%d distinct terms)\n", stats.Documents, terms)

	// Step 4: Cross-validation
	fmt.Fprintf(out, "\n🎯 Step 4: Cross-validating classifiers (fold width %.2f)...\n", quickstartPercent)
	if err := runQuickCrossValidation(ctx, out, cfg, log, quickstartPercent); err != nil {
		return err
	}

	printNextSteps(out, configFile)
	return nil
}

// generateQuickstartConfig returns a configuration rooted at dir
func generateQuickstartConfig(dir string) *config.Config {
	cfg := config.DefaultConfig()
	cfg.Paths = config.PathsConfig{
		Datasets: filepath.Join(dir, "datasets"),
		Indexes:  filepath.Join(dir, "indexes"),
		Results:  filepath.Join(dir, "results"),
		Models:   filepath.Join(dir, "models"),
	}
	cfg.Dataset.Name = "synthetic"
	cfg.Dataset.Seed = 42
	cfg.Redis.KeyPrefix = "textclass:quickstart"
	cfg.Logging.Level = "warn"
	return cfg
}

func runQuickCrossValidation(ctx context.Context, out io.Writer, cfg *config.Config, log *logrus.Entry, percent float64) error {
	partition, err := loadPartition(ctx, cfg, log)
	if err != nil {
		return err
	}
	evaluator := evaluation.NewEvaluator(partition, &evaluation.Options{
		ResultsDir: cfg.ResultsDir(),
		Workers:    cfg.Evaluation.Workers,
	}, log)

	for _, name := range learning.Names() {
		classifier, err := learning.New(name, cfg.LearningOptions(), log)
		if err != nil {
			return err
		}
		start := time.Now()
		cv, err := evaluator.CrossValidate(ctx, classifier, percent)
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "  %-10s %6.2f%%  (%d folds, %v)\n", name, 100*cv.Accuracy, len(cv.Reports), time.Since(start).Round(time.Millisecond))
	}
	fmt.Fprintf(out, "  💾 Reports saved to: %s\n", cfg.ResultsDir())
	return nil
}

func printNextSteps(out io.Writer, configFile string) {
	fmt.Fprintf(out, "\n🚀 Next Steps:\n")
	fmt.Fprintf(out, "  textclass status   --config %s\n", configFile)
	fmt.Fprintf(out, "  textclass evaluate --config %s --classifier prtfidf --lower 0 --upper 0.2\n", configFile)
	fmt.Fprintf(out, "  textclass train    --config %s\n", configFile)
	fmt.Fprintf(out, "  echo \"orbit launch\" | textclass classify --config %s\n", configFile)
}

// isRedisAvailable pings the Redis server at url
func isRedisAvailable(ctx context.Context, url string) bool {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return false
	}
	opt.DialTimeout = 2 * time.Second

	client := redis.NewClient(opt)
	defer client.Close()

	ctx, cancel := context.WithTimeout(ctx, 2*time.Second)
	defer cancel()
	return client.Ping(ctx).Err() == nil
}

func init() {
	quickstartCmd.Flags().StringVar(&quickstartDir, "dir", "textclass-quickstart", "Workspace directory")
	quickstartCmd.Flags().IntVarP(&quickstartCount, "count", "n", 40, "Synthetic messages per group")
	quickstartCmd.Flags().Float64VarP(&quickstartPercent, "percent", "p", 0.25, "Fold width, in (0, 1]")
	quickstartCmd.Flags().BoolVar(&quickstartUseRedis, "redis", false, "Use Redis for the index when reachable")
	quickstartCmd.Flags().BoolVarP(&quickstartForce, "force", "f", false, "Recreate an existing workspace")
}

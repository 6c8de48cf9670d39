package cmd

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/textclass/harness/pkg/config"
	"github.com/textclass/harness/pkg/learning"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Configuration management",
	Long:  `Generate and manage textclass configuration files`,
}

var configGenCmd = &cobra.Command{
	Use:   "generate [config-file]",
	Short: "Generate default configuration file",
	Long:  `Generate a default configuration file with all options`,
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := "config.yaml"
		if len(args) > 0 {
			configPath = args[0]
		}

		// Check if file already exists
		if _, err := os.Stat(configPath); err == nil {
			overwrite, _ := cmd.Flags().GetBool("force")
			if !overwrite {
				return fmt.Errorf("config file already exists: %s (use --force to overwrite)", configPath)
			}
		}

		defaultConfig := config.DefaultConfig()
		if err := defaultConfig.SaveConfig(configPath); err != nil {
			return fmt.Errorf("failed to save config: %w", err)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "✅ Configuration file generated: %s\n", configPath)
		fmt.Fprintf(cmd.OutOrStdout(), "📝 Edit the file to point paths at your datasets\n")
		fmt.Fprintf(cmd.OutOrStdout(), "🚀 Use 'textclass index --config %s' to index the dataset\n", configPath)
		return nil
	},
}

var configValidateCmd = &cobra.Command{
	Use:   "validate [config-file]",
	Short: "Validate configuration file",
	Long:  `Validate a configuration file for syntax and logical errors`,
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		configPath := args[0]

		cfg, err := config.LoadConfig(configPath)
		if err != nil {
			return fmt.Errorf("❌ Configuration validation failed: %w", err)
		}

		warnings := validateConfigLogic(cfg)

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "✅ Configuration is valid: %s\n", configPath)

		if len(warnings) > 0 {
			fmt.Fprintf(out, "\n⚠️  Warnings:\n")
			for _, warning := range warnings {
				fmt.Fprintf(out, "  - %s\n", warning)
			}
		}

		fmt.Fprintf(out, "\n📊 Configuration Summary:\n")
		fmt.Fprintf(out, "  Dataset: %s (%s, %s backend)\n", cfg.Dataset.Name, cfg.Dataset.Kind, cfg.Dataset.Backend)
		fmt.Fprintf(out, "  Seed: %d\n", cfg.Dataset.Seed)
		fmt.Fprintf(out, "  Classifier: %s (beta %.2f, %d workers)\n", cfg.Classifier.Name, cfg.Classifier.Beta, cfg.Classifier.Workers)
		fmt.Fprintf(out, "  Fold width: %.2f (%d folds)\n", cfg.Evaluation.Percent, int(1/cfg.Evaluation.Percent))
		fmt.Fprintf(out, "  Results: %s\n", cfg.ResultsDir())
		return nil
	},
}

// validateConfigLogic performs additional logical validation
func validateConfigLogic(cfg *config.Config) []string {
	var warnings []string

	if info, err := os.Stat(cfg.DatasetDir()); err != nil || !info.IsDir() {
		warnings = append(warnings, fmt.Sprintf("Dataset directory %s does not exist", cfg.DatasetDir()))
	}

	if cfg.Classifier.Beta > 0 && cfg.Classifier.Name != learning.PrototypeName {
		warnings = append(warnings, "Beta only affects the prtfidf classifier")
	}

	folds := int(1 / cfg.Evaluation.Percent)
	if float64(folds)*cfg.Evaluation.Percent < 0.999 {
		warnings = append(warnings, fmt.Sprintf("Fold width %.2f leaves the tail of every label untested", cfg.Evaluation.Percent))
	}

	if !cfg.Analyzer.Stem {
		warnings = append(warnings, "Stemming is disabled - vocabulary will be larger")
	}

	return warnings
}

func init() {
	configGenCmd.Flags().BoolP("force", "f", false, "Overwrite existing config file")

	configCmd.AddCommand(configGenCmd)
	configCmd.AddCommand(configValidateCmd)
}

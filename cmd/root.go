package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

var (
	configPath     string
	datasetName    string
	datasetBackend string
	classifierName string
	logLevel       string
)

var rootCmd = &cobra.Command{
	Use:   "textclass",
	Short: "textclass - text classification research harness",
	Long: `textclass indexes labeled text corpora (newsgroups, patent abstracts), trains
Naive Bayes and prototype vector (tf-idf) classifiers and measures them with
confusion matrices over shuffled per-label folds and k-fold cross-validation.`,
	SilenceUsage:  true,
	SilenceErrors: true,
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Println("textclass - text classification research harness")
		fmt.Println("Use 'textclass --help' for usage information")
	},
}

func Execute() error {
	return rootCmd.Execute()
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Configuration file path")
	rootCmd.PersistentFlags().StringVarP(&datasetName, "dataset", "d", "", "Dataset name (overrides config)")
	rootCmd.PersistentFlags().StringVar(&datasetBackend, "backend", "", "Index backend: sqlite or redis (overrides config)")
	rootCmd.PersistentFlags().StringVar(&classifierName, "classifier", "", "Classifier: bayes or prtfidf (overrides config)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Logging level (overrides config)")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(evaluateCmd)
	rootCmd.AddCommand(crossvalCmd)
	rootCmd.AddCommand(trainCmd)
	rootCmd.AddCommand(classifyCmd)
	rootCmd.AddCommand(configCmd)
	rootCmd.AddCommand(generateCmd)
	rootCmd.AddCommand(benchmarkCmd)
	rootCmd.AddCommand(statusCmd)
	rootCmd.AddCommand(quickstartCmd)
}

package cmd

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/textclass/harness/pkg/corpus"
	"github.com/textclass/harness/pkg/learning"
)

var classifyModelPath string

var classifyCmd = &cobra.Command{
	Use:   "classify [file...]",
	Short: "Classify text files with a saved model",
	Long: `Classify each file with a model saved by 'textclass train'. Standard input is
classified when no file is given. Text is tokenized with the configured analyzer, which
must match the one used at indexing time.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, log, err := loadEnvironment()
		if err != nil {
			return err
		}
		defer closeLogger(log)

		modelPath := cfg.ModelPath()
		if classifyModelPath != "" {
			modelPath = classifyModelPath
		}

		saved, err := learning.LoadModel(modelPath)
		if err != nil {
			return fmt.Errorf("failed to load model (run 'textclass train' first): %w", err)
		}
		log.WithField("classifier", saved.Model.Name()).Debugf("loaded model trained %s", saved.LastTrained)

		analyzer, err := corpus.NewAnalyzer(cfg.Analyzer)
		if err != nil {
			return err
		}
		defer analyzer.Close()

		if len(args) == 0 {
			text, err := io.ReadAll(cmd.InOrStdin())
			if err != nil {
				return fmt.Errorf("failed to read standard input: %w", err)
			}
			label := saved.Predict(analyzer, string(text))
			fmt.Fprintf(cmd.OutOrStdout(), "%d\t%s\n", label, saved.LabelName(label))
			return nil
		}

		for _, path := range args {
			text, err := os.ReadFile(path)
			if err != nil {
				return fmt.Errorf("failed to read %s: %w", path, err)
			}
			label := saved.Predict(analyzer, string(text))
			fmt.Fprintf(cmd.OutOrStdout(), "%s\t%d\t%s\n", path, label, saved.LabelName(label))
		}
		return nil
	},
}

func init() {
	classifyCmd.Flags().StringVarP(&classifyModelPath, "model", "m", "", "Path of the saved model (overrides config)")
}

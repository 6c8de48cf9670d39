package cmd

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"gonum.org/v1/gonum/stat"

	"github.com/textclass/harness/pkg/config"
	"github.com/textclass/harness/pkg/dataset"
	"github.com/textclass/harness/pkg/learning"
)

var statusJSON bool

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show dataset index and model status",
	Long: `Display the status of the configured dataset:
- Index backend and availability
- Document, term and label counts
- Saved model and when it was trained
- Recommendations for the next step`,
	RunE: runStatus,
}

func runStatus(cmd *cobra.Command, args []string) error {
	cfg, log, err := loadEnvironment()
	if err != nil {
		return err
	}
	defer closeLogger(log)

	status := collectDatasetStatus(cmd.Context(), cfg, log)

	if statusJSON {
		return printStatusJSON(cmd.OutOrStdout(), status)
	}

	printStatusDashboard(cmd.OutOrStdout(), status)
	return nil
}

// DatasetStatus holds all status information of a dataset
type DatasetStatus struct {
	Dataset   string        `json:"dataset"`
	Kind      string        `json:"kind"`
	Index     IndexStatus   `json:"index"`
	Model     ModelStatus   `json:"model"`
	Health    HealthStatus  `json:"health"`
	Labels    []LabelStatus `json:"labels,omitempty"`
	Timestamp time.Time     `json:"timestamp"`
}

type IndexStatus struct {
	Backend          string  `json:"backend"`
	Location         string  `json:"location"`
	Available        bool    `json:"available"`
	Error            string  `json:"error,omitempty"`
	Documents        int     `json:"documents"`
	DistinctTerms    int     `json:"distinct_terms"`
	MeanLength       float64 `json:"mean_length"`
	VocabularyInDocs int     `json:"vocabulary_in_docs"`
}

type LabelStatus struct {
	Label     int    `json:"label"`
	Name      string `json:"name"`
	Documents int    `json:"documents"`
}

type ModelStatus struct {
	Path        string    `json:"path"`
	Available   bool      `json:"available"`
	Classifier  string    `json:"classifier,omitempty"`
	Terms       int       `json:"terms,omitempty"`
	LastTrained time.Time `json:"last_trained,omitempty"`
}

type HealthStatus struct {
	Overall         string   `json:"overall"`
	Warnings        []string `json:"warnings"`
	Recommendations []string `json:"recommendations"`
}

func collectDatasetStatus(ctx context.Context, cfg *config.Config, log *logrus.Entry) *DatasetStatus {
	if ctx == nil {
		ctx = context.Background()
	}
	status := &DatasetStatus{
		Dataset:   cfg.Dataset.Name,
		Kind:      cfg.Dataset.Kind,
		Timestamp: time.Now(),
	}

	status.Index = collectIndexStatus(ctx, cfg, status, log)
	status.Model = collectModelStatus(cfg)
	status.Health = assessHealth(status)
	return status
}

func collectIndexStatus(ctx context.Context, cfg *config.Config, status *DatasetStatus, log *logrus.Entry) IndexStatus {
	index := IndexStatus{
		Backend:  cfg.Dataset.Backend,
		Location: cfg.IndexPath(),
	}
	if cfg.Dataset.Backend == config.BackendRedis {
		index.Location = fmt.Sprintf("%s (%s:%s)", cfg.Redis.RedisURL, cfg.Redis.KeyPrefix, cfg.Dataset.Name)
	}

	idx, err := openIndex(ctx, cfg)
	if err != nil {
		index.Error = err.Error()
		return index
	}
	defer idx.Close()

	ds, err := dataset.Load(ctx, idx, log)
	if err != nil {
		index.Error = err.Error()
		return index
	}

	index.Available = true
	index.Documents = ds.NumDocuments()
	index.DistinctTerms = ds.NumTerms()
	index.VocabularyInDocs = ds.Vocabulary().Len()

	lengths := make([]float64, ds.NumDocuments())
	for docNb := range lengths {
		lengths[docNb] = float64(ds.Length(docNb))
	}
	if len(lengths) > 0 {
		index.MeanLength = stat.Mean(lengths, nil)
	}

	names := labelNames(cfg)
	for label := 0; label < ds.NumLabels(); label++ {
		status.Labels = append(status.Labels, LabelStatus{
			Label:     label,
			Name:      labelName(names, label),
			Documents: ds.LabelCount(label),
		})
	}
	return index
}

func collectModelStatus(cfg *config.Config) ModelStatus {
	model := ModelStatus{Path: cfg.ModelPath()}

	saved, err := learning.LoadModel(model.Path)
	if err != nil {
		return model
	}
	model.Available = true
	model.Classifier = saved.Model.Name()
	model.Terms = saved.Vocabulary.Len()
	model.LastTrained = saved.LastTrained
	return model
}

func assessHealth(status *DatasetStatus) HealthStatus {
	health := HealthStatus{
		Overall:         "healthy",
		Warnings:        []string{},
		Recommendations: []string{},
	}

	if !status.Index.Available {
		health.Overall = "not indexed"
		health.Recommendations = append(health.Recommendations, "Run 'textclass index' to index the dataset")
		return health
	}

	if len(status.Labels) < 2 {
		health.Warnings = append(health.Warnings, "Fewer than two labels - classification is trivial")
	}
	for _, label := range status.Labels {
		if label.Documents < 10 {
			health.Warnings = append(health.Warnings, fmt.Sprintf("Label %s has only %d documents", label.Name, label.Documents))
		}
	}

	if !status.Model.Available {
		health.Recommendations = append(health.Recommendations, "Run 'textclass train' to save a model for 'textclass classify'")
	} else if status.Model.Terms != status.Index.VocabularyInDocs {
		health.Warnings = append(health.Warnings, "Saved model vocabulary differs from the index - retrain the model")
	}

	if len(health.Warnings) > 0 {
		health.Overall = "degraded"
	}
	return health
}

func printStatusJSON(w io.Writer, status *DatasetStatus) error {
	encoder := json.NewEncoder(w)
	encoder.SetIndent("", "  ")
	return encoder.Encode(status)
}

func printStatusDashboard(w io.Writer, status *DatasetStatus) {
	fmt.Fprintf(w, "📚 textclass Dataset Status\n")
	fmt.Fprintf(w, "═══════════════════════════════════════\n")
	fmt.Fprintf(w, "📁 Dataset: %s (%s)\n\n", status.Dataset, status.Kind)

	fmt.Fprintf(w, "💾 Index\n")
	fmt.Fprintf(w, "  Backend:  %s\n", status.Index.Backend)
	fmt.Fprintf(w, "  Location: %s\n", status.Index.Location)
	if !status.Index.Available {
		fmt.Fprintf(w, "  Status:   ❌ unavailable\n")
		if status.Index.Error != "" {
			fmt.Fprintf(w, "  Error:    %s\n", status.Index.Error)
		}
	} else {
		fmt.Fprintf(w, "  Status:   ✅ available\n")
		fmt.Fprintf(w, "  Documents:      %d\n", status.Index.Documents)
		fmt.Fprintf(w, "  Distinct terms: %d\n", status.Index.DistinctTerms)
		fmt.Fprintf(w, "  Mean length:    %.1f terms\n", status.Index.MeanLength)
	}

	if len(status.Labels) > 0 {
		fmt.Fprintf(w, "\n🏷️  Labels\n")
		for _, label := range status.Labels {
			fmt.Fprintf(w, "  %3d  %-30s %6d\n", label.Label, truncateName(label.Name, 30), label.Documents)
		}
	}

	fmt.Fprintf(w, "\n🧠 Model\n")
	fmt.Fprintf(w, "  Path: %s\n", status.Model.Path)
	if status.Model.Available {
		fmt.Fprintf(w, "  Classifier:   %s\n", status.Model.Classifier)
		fmt.Fprintf(w, "  Terms:        %d\n", status.Model.Terms)
		fmt.Fprintf(w, "  Last trained: %s\n", status.Model.LastTrained.Format(time.RFC3339))
	} else {
		fmt.Fprintf(w, "  Status: ⚪ not trained\n")
	}

	fmt.Fprintf(w, "\n🩺 Health: %s\n", status.Health.Overall)
	for _, warning := range status.Health.Warnings {
		fmt.Fprintf(w, "  ⚠️  %s\n", warning)
	}
	for _, recommendation := range status.Health.Recommendations {
		fmt.Fprintf(w, "  💡 %s\n", recommendation)
	}
}

func init() {
	statusCmd.Flags().BoolVar(&statusJSON, "json", false, "Output status in JSON format")
}

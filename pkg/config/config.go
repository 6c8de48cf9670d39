package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/textclass/harness/pkg/corpus"
	"github.com/textclass/harness/pkg/learning"
)

// Dataset kinds
const (
	KindNewsgroups = "newsgroups"
	KindPatents    = "patents"
)

// Index backends
const (
	BackendSQLite = "sqlite"
	BackendRedis  = "redis"
)

// MaxFolds bounds the number of cross-validation folds a percent may request
const MaxFolds = 1000

// Config represents the harness configuration
type Config struct {
	// Filesystem roots
	Paths PathsConfig `yaml:"paths"`

	// Dataset selection and shuffle seed
	Dataset DatasetConfig `yaml:"dataset"`

	// Tokenization used at indexing and classification time
	Analyzer corpus.AnalyzerConfig `yaml:"analyzer"`

	// Classifier settings
	Classifier ClassifierConfig `yaml:"classifier"`

	// Evaluation protocol settings
	Evaluation EvaluationConfig `yaml:"evaluation"`

	// Logging settings
	Logging LoggingConfig `yaml:"logging"`

	// Redis index backend settings
	Redis RedisBackendConfig `yaml:"redis"`
}

// PathsConfig holds the directories datasets are read from and outputs are written to
type PathsConfig struct {
	Datasets string `yaml:"datasets"`
	Indexes  string `yaml:"indexes"`
	Results  string `yaml:"results"`
	Models   string `yaml:"models"`
}

// DatasetConfig selects the corpus
type DatasetConfig struct {
	// Directory name under paths.datasets, also names the index and results
	Name string `yaml:"name"`

	// Raw layout: "newsgroups" or "patents"
	Kind string `yaml:"kind"`

	// Index storage: "sqlite" or "redis"
	Backend string `yaml:"backend"`

	// Shuffle seed of the per-label document order
	Seed int64 `yaml:"seed"`
}

// ClassifierConfig contains classifier settings
type ClassifierConfig struct {
	// "bayes" or "prtfidf"
	Name string `yaml:"name"`

	// Negative-class weight of the prototype vectors
	Beta float64 `yaml:"beta"`

	// Per-label training goroutines
	Workers int `yaml:"workers"`
}

// EvaluationConfig contains evaluation settings
type EvaluationConfig struct {
	// Window width of cross-validation folds, in (0, 1]
	Percent float64 `yaml:"percent"`

	// Prediction goroutines
	Workers int `yaml:"workers"`

	// Print phase timings after a run
	Profile bool `yaml:"profile"`
}

// LoggingConfig contains logging settings
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	File   string `yaml:"file"`   // log file path, empty = stderr
	Format string `yaml:"format"` // json, text
}

// RedisBackendConfig contains Redis index settings
type RedisBackendConfig struct {
	RedisURL    string `yaml:"redis_url"`
	KeyPrefix   string `yaml:"key_prefix"`
	DatabaseNum int    `yaml:"database_num"`
	BatchSize   int    `yaml:"batch_size"`
}

// DefaultConfig returns default configuration
func DefaultConfig() *Config {
	return &Config{
		Paths: PathsConfig{
			Datasets: "datasets",
			Indexes:  "indexes",
			Results:  "results",
			Models:   "models",
		},
		Dataset: DatasetConfig{
			Name:    "newsGroups",
			Kind:    KindNewsgroups,
			Backend: BackendSQLite,
			Seed:    0,
		},
		Analyzer: corpus.DefaultAnalyzerConfig(),
		Classifier: ClassifierConfig{
			Name:    learning.BayesName,
			Beta:    0,
			Workers: 1,
		},
		Evaluation: EvaluationConfig{
			Percent: 0.1,
			Workers: 1,
			Profile: false,
		},
		Logging: LoggingConfig{
			Level:  "info",
			File:   "",
			Format: "text",
		},
		Redis: RedisBackendConfig{
			RedisURL:    "redis://localhost:6379",
			KeyPrefix:   "textclass:index",
			DatabaseNum: 0,
			BatchSize:   100,
		},
	}
}

// LoadConfig loads configuration from file
func LoadConfig(configPath string) (*Config, error) {
	// Start with defaults
	config := DefaultConfig()

	// If no config file specified, return defaults
	if configPath == "" {
		return config, nil
	}

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return nil, fmt.Errorf("config file not found: %s", configPath)
	}

	// Read config file
	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	// Parse YAML
	err = yaml.Unmarshal(data, config)
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	// Validate config
	if err := config.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return config, nil
}

// SaveConfig saves configuration to file
func (c *Config) SaveConfig(configPath string) error {
	// Create directory if it doesn't exist
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	// Marshal to YAML
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	// Write to file
	err = os.WriteFile(configPath, data, 0644)
	if err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration
func (c *Config) Validate() error {
	if c.Dataset.Name == "" {
		return fmt.Errorf("dataset name cannot be empty")
	}

	if c.Dataset.Kind != KindNewsgroups && c.Dataset.Kind != KindPatents {
		return fmt.Errorf("dataset kind must be '%s' or '%s'", KindNewsgroups, KindPatents)
	}

	if c.Dataset.Backend != BackendSQLite && c.Dataset.Backend != BackendRedis {
		return fmt.Errorf("dataset backend must be '%s' or '%s'", BackendSQLite, BackendRedis)
	}

	// Validate classifier settings
	validClassifier := false
	for _, name := range learning.Names() {
		if c.Classifier.Name == name {
			validClassifier = true
			break
		}
	}
	if !validClassifier {
		return fmt.Errorf("%w: %s", learning.ErrUnknownClassifier, c.Classifier.Name)
	}

	if c.Classifier.Beta < 0 {
		return fmt.Errorf("classifier beta must be >= 0")
	}

	if c.Classifier.Workers < 1 {
		return fmt.Errorf("classifier workers must be >= 1")
	}

	// Validate evaluation settings
	if !(c.Evaluation.Percent > 0 && c.Evaluation.Percent <= 1) {
		return fmt.Errorf("evaluation percent must be in (0, 1]")
	}

	if 1/c.Evaluation.Percent > MaxFolds {
		return fmt.Errorf("evaluation percent must be >= %g (at most %d folds)", 1.0/MaxFolds, MaxFolds)
	}

	if c.Evaluation.Workers < 1 {
		return fmt.Errorf("evaluation workers must be >= 1")
	}

	if c.Analyzer.MinTermLength < 0 || (c.Analyzer.MaxTermLength > 0 && c.Analyzer.MaxTermLength < c.Analyzer.MinTermLength) {
		return fmt.Errorf("analyzer term lengths are inconsistent")
	}

	// Validate logging level
	validLevels := []string{"debug", "info", "warn", "error"}
	validLevel := false
	for _, level := range validLevels {
		if c.Logging.Level == level {
			validLevel = true
			break
		}
	}
	if !validLevel {
		return fmt.Errorf("invalid logging level: %s", c.Logging.Level)
	}

	if c.Logging.Format != "text" && c.Logging.Format != "json" {
		return fmt.Errorf("logging format must be 'text' or 'json'")
	}

	if c.Dataset.Backend == BackendRedis && c.Redis.RedisURL == "" {
		return fmt.Errorf("redis url cannot be empty with the redis backend")
	}

	return nil
}

// DatasetDir returns the raw dataset directory
func (c *Config) DatasetDir() string {
	return filepath.Join(c.Paths.Datasets, c.Dataset.Name)
}

// IndexPath returns the SQLite index file of the dataset
func (c *Config) IndexPath() string {
	return filepath.Join(c.Paths.Indexes, c.Dataset.Name+".db")
}

// ResultsDir returns the directory receiving evaluation reports
func (c *Config) ResultsDir() string {
	return filepath.Join(c.Paths.Results, c.Dataset.Name)
}

// ModelPath returns the file a trained classifier is saved to
func (c *Config) ModelPath() string {
	return filepath.Join(c.Paths.Models, c.Dataset.Name+"_"+c.Classifier.Name+".json")
}

// RedisIndexConfig converts the Redis section for the corpus index
func (c *Config) RedisIndexConfig() *corpus.RedisConfig {
	return &corpus.RedisConfig{
		RedisURL:    c.Redis.RedisURL,
		KeyPrefix:   c.Redis.KeyPrefix,
		DatabaseNum: c.Redis.DatabaseNum,
		BatchSize:   c.Redis.BatchSize,
	}
}

// LearningOptions converts the classifier section for the learning package
func (c *Config) LearningOptions() *learning.Options {
	return &learning.Options{
		Beta:    c.Classifier.Beta,
		Workers: c.Classifier.Workers,
	}
}

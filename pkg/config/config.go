package config

import (
	"fmt"
	"os"

	"github.com/kelseyhightower/envconfig"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v2"

	"retail-insights/pkg/models"
)

// EnvPrefix prefixes every environment override, e.g. RETAIL_MODEL_DIR.
const EnvPrefix = "RETAIL"

// FileEnv names the optional YAML config file.
const FileEnv = "RETAIL_CONFIG_FILE"

// Config is the runtime configuration of the pipeline and CLI.
type Config struct {
	DataPath         string `yaml:"data_path" split_words:"true"`
	DSN              string `yaml:"dsn" split_words:"true"`
	Table            string `yaml:"table" split_words:"true"`
	ModelDir         string `yaml:"model_dir" split_words:"true"`
	CancellationMode string `yaml:"cancellation_mode" split_words:"true"`

	LabelWindowDays int     `yaml:"label_window_days" split_words:"true"`
	TestFraction    float64 `yaml:"test_fraction" split_words:"true"`
	Seed            int64   `yaml:"seed" split_words:"true"`
	MaxIter         int     `yaml:"max_iter" split_words:"true"`
	L2              float64 `yaml:"l2" split_words:"true"`

	SegmentChampions int `yaml:"segment_champions" split_words:"true"`
	SegmentActive    int `yaml:"segment_active" split_words:"true"`
	SegmentAtRisk    int `yaml:"segment_at_risk" split_words:"true"`

	Synthetic bool   `yaml:"synthetic" split_words:"true"`
	Progress  bool   `yaml:"progress" split_words:"true"`
	LogLevel  string `yaml:"log_level" split_words:"true"`
}

// Default returns the built-in configuration.
func Default() Config {
	seg := models.DefaultSegmentPolicy()
	train := models.DefaultTrainOptions()
	return Config{
		DataPath:         "data/OnlineRetail.csv",
		Table:            "OnlineRetail",
		ModelDir:         "model",
		CancellationMode: string(models.CancellationsRetain),
		LabelWindowDays:  30,
		TestFraction:     train.TestFraction,
		Seed:             train.Seed,
		MaxIter:          train.MaxIter,
		L2:               train.L2,
		SegmentChampions: seg.Champions,
		SegmentActive:    seg.Active,
		SegmentAtRisk:    seg.AtRisk,
		LogLevel:         "info",
	}
}

// Load layers defaults, the YAML file named by RETAIL_CONFIG_FILE (if any) and
// RETAIL_* environment variables, then validates the result.
func Load() (Config, error) {
	cfg := Default()
	if path := os.Getenv(FileEnv); path != "" {
		if err := cfg.mergeFile(path); err != nil {
			return Config{}, err
		}
	}
	if err := envconfig.Process(EnvPrefix, &cfg); err != nil {
		return Config{}, errors.Wrap(err, "environment")
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c *Config) mergeFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return &models.NotFoundError{Path: path}
		}
		return errors.Wrapf(err, "read config %s", path)
	}
	if err := yaml.UnmarshalStrict(data, c); err != nil {
		return errors.Wrapf(err, "parse config %s", path)
	}
	return nil
}

// Validate rejects values the pipeline cannot run with.
func (c Config) Validate() error {
	if _, err := models.ParseCancellationMode(c.CancellationMode); err != nil {
		return err
	}
	if c.LabelWindowDays <= 0 {
		return fmt.Errorf("label_window_days must be positive, got %d", c.LabelWindowDays)
	}
	if c.TestFraction <= 0 || c.TestFraction >= 1 {
		return fmt.Errorf("test_fraction must be in (0,1), got %v", c.TestFraction)
	}
	if c.L2 <= 0 {
		return fmt.Errorf("l2 must be positive, got %v", c.L2)
	}
	if _, err := log.ParseLevel(c.LogLevel); err != nil {
		return err
	}
	return c.SegmentPolicy().Validate()
}

// SegmentPolicy returns the configured segment thresholds.
func (c Config) SegmentPolicy() models.SegmentPolicy {
	return models.SegmentPolicy{Champions: c.SegmentChampions, Active: c.SegmentActive, AtRisk: c.SegmentAtRisk}
}

// CleanOptions for the loaders.
func (c Config) CleanOptions() models.CleanOptions {
	mode, _ := models.ParseCancellationMode(c.CancellationMode)
	return models.CleanOptions{Cancellations: mode}
}

// FeatureOptions for the aggregator; the cutoff is set per call.
func (c Config) FeatureOptions() models.FeatureOptions {
	return models.FeatureOptions{Synthetic: c.Synthetic, Seed: c.Seed, Progress: c.Progress}
}

// TrainOptions for the classifier.
func (c Config) TrainOptions() models.TrainOptions {
	opts := models.DefaultTrainOptions()
	opts.TestFraction = c.TestFraction
	opts.Seed = c.Seed
	opts.MaxIter = c.MaxIter
	opts.L2 = c.L2
	opts.Progress = c.Progress
	return opts
}

// ApplyLogging sets the logrus level and formatter.
func (c Config) ApplyLogging() {
	level, err := log.ParseLevel(c.LogLevel)
	if err != nil {
		level = log.InfoLevel
	}
	log.SetLevel(level)
	log.SetFormatter(&log.TextFormatter{FullTimestamp: true})
}

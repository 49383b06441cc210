// Package config provides unified configuration loading for the eqprop
// tools. It supports loading from YAML files and environment variables.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/nvandessel/eqprop/internal/eqprop"
)

// Config contains all eqprop tool settings.
type Config struct {
	// Training contains the hyperparameters for training runs.
	Training TrainingConfig `yaml:"training"`

	// Store contains settings for the training-run artifact store.
	Store StoreConfig `yaml:"store"`

	// Logging contains settings for operational logging.
	Logging LoggingConfig `yaml:"logging"`
}

// TrainingConfig mirrors the training loop hyperparameters.
type TrainingConfig struct {
	// Epochs is the maximum number of training epochs.
	Epochs int `yaml:"epochs"`

	// LearningRate scales the conductance update per epoch.
	LearningRate float64 `yaml:"learning_rate"`

	// Beta is the nudge strength of the EqProp gradient.
	Beta float64 `yaml:"beta"`

	// Seed drives the weight initialization.
	Seed int64 `yaml:"seed"`

	// Patience is the plateau-detection window in epochs.
	Patience int `yaml:"patience"`

	// MinDelta is the minimum loss improvement that resets Patience.
	MinDelta float64 `yaml:"min_delta"`

	// LogInterval is the number of epochs between progress reports.
	LogInterval int `yaml:"log_interval"`
}

// StoreConfig configures training-run persistence.
type StoreConfig struct {
	// Path is the SQLite database file holding trained-weight
	// artifacts. Empty disables persistence.
	Path string `yaml:"path"`
}

// LoggingConfig configures logging behavior.
type LoggingConfig struct {
	// Level sets the log verbosity: "info" (default), "debug", or "trace".
	Level string `yaml:"level"`
}

// Default returns the configuration the reference XOR network trains
// with.
func Default() Config {
	t := eqprop.DefaultConfig()
	return Config{
		Training: TrainingConfig{
			Epochs:       t.Epochs,
			LearningRate: t.LearningRate,
			Beta:         t.Beta,
			Seed:         t.Seed,
			Patience:     t.Patience,
			MinDelta:     t.MinDelta,
			LogInterval:  t.LogInterval,
		},
		Store:   StoreConfig{Path: "eqprop.db"},
		Logging: LoggingConfig{Level: "info"},
	}
}

// Load reads a YAML config file, layered over the defaults and under
// the environment overrides. A missing file is not an error: defaults
// and environment apply.
func Load(path string) (Config, error) {
	cfg := Default()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			applyEnv(&cfg)
			return cfg, nil
		}
		return cfg, fmt.Errorf("read config %s: %w", path, err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parse config %s: %w", path, err)
	}
	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv layers environment overrides on top of file values.
func applyEnv(cfg *Config) {
	if v := os.Getenv("EQPROP_LOG_LEVEL"); v != "" {
		cfg.Logging.Level = v
	}
	if v := os.Getenv("EQPROP_DB"); v != "" {
		cfg.Store.Path = v
	}
}

// TrainingConfigFor converts the file-level training section into the
// training loop's config.
func (c Config) TrainingConfigFor() eqprop.Config {
	return eqprop.Config{
		Epochs:       c.Training.Epochs,
		LearningRate: c.Training.LearningRate,
		Beta:         c.Training.Beta,
		Seed:         c.Training.Seed,
		Patience:     c.Training.Patience,
		MinDelta:     c.Training.MinDelta,
		LogInterval:  c.Training.LogInterval,
	}
}

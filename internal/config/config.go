// Package config provides run configuration for the link-prediction
// trainer.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config holds every recognized training option.
type Config struct {
	NumLayers      int     `yaml:"num_layers"`
	HiddenChannels int     `yaml:"hidden_channels"`
	Dropout        float64 `yaml:"dropout"`
	BatchSize      int     `yaml:"batch_size"`
	LR             float64 `yaml:"lr"`
	Epochs         int     `yaml:"epochs"`
	EvalSteps      int     `yaml:"eval_steps"`
	LogSteps       int     `yaml:"log_steps"`
	Runs           int     `yaml:"runs"`
	Device         int     `yaml:"device"`
	Seed           int64   `yaml:"seed"`

	TrainPath string `yaml:"train_path"`
	ValidPath string `yaml:"valid_path"`
	TestPath  string `yaml:"test_path"`
}

// Default returns the benchmark protocol defaults.
func Default() Config {
	return Config{
		NumLayers:      3,
		HiddenChannels: 256,
		Dropout:        0,
		BatchSize:      64 * 1024,
		LR:             0.005,
		Epochs:         1000,
		EvalSteps:      1,
		LogSteps:       1,
		Runs:           10,
		Device:         -1,
	}
}

// LoadFile overlays YAML values from path onto c.
func (c *Config) LoadFile(path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, c); err != nil {
		return fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	return nil
}

// Validate rejects out-of-range options before any training starts.
func (c *Config) Validate() error {
	switch {
	case c.NumLayers < 2:
		return fmt.Errorf("num_layers must be at least 2, got %d", c.NumLayers)
	case c.HiddenChannels <= 0:
		return fmt.Errorf("hidden_channels must be positive, got %d", c.HiddenChannels)
	case c.Dropout < 0 || c.Dropout >= 1:
		return fmt.Errorf("dropout must be in [0, 1), got %g", c.Dropout)
	case c.BatchSize <= 0:
		return fmt.Errorf("batch_size must be positive, got %d", c.BatchSize)
	case c.LR <= 0:
		return fmt.Errorf("lr must be positive, got %g", c.LR)
	case c.Epochs <= 0:
		return fmt.Errorf("epochs must be positive, got %d", c.Epochs)
	case c.EvalSteps <= 0:
		return fmt.Errorf("eval_steps must be positive, got %d", c.EvalSteps)
	case c.LogSteps <= 0:
		return fmt.Errorf("log_steps must be positive, got %d", c.LogSteps)
	case c.Runs < 1:
		return fmt.Errorf("runs must be at least 1, got %d", c.Runs)
	}
	return nil
}

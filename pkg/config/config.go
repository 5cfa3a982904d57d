// Package config provides configuration loading and management for regpairs.
// It handles loading configuration from YAML files and provides default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"regpairs/internal/models"
	"regpairs/pkg/augment"
	"regpairs/pkg/dataset"
)

// Config represents the application configuration loaded from YAML
type Config struct {
	// Dataset selects and locates the corpus
	Dataset struct {
		// Kind is one of googledraw, mnist, brainmr or dirscan
		Kind string `yaml:"kind"`

		// Root is the corpus directory
		Root string `yaml:"root"`

		// Split is the partition name; "train" enables random augmentation
		Split string `yaml:"split"`

		// TargetHeight and TargetWidth fix the canvas for dirscan.
		// Zero scans the corpus for it. The other kinds have a built-in
		// canvas and reject a non-zero value.
		TargetHeight int `yaml:"targetHeight"`
		TargetWidth  int `yaml:"targetWidth"`
	} `yaml:"dataset"`

	// Augmentation parameters
	Augment struct {
		// Flip enables joint random horizontal mirroring on the train split
		Flip bool `yaml:"flip"`

		// Min and Max are the output value range
		Min float64 `yaml:"min"`
		Max float64 `yaml:"max"`

		// ResizeHeight and ResizeWidth resample augmented images; zero keeps the canvas
		ResizeHeight int `yaml:"resizeHeight"`
		ResizeWidth  int `yaml:"resizeWidth"`
	} `yaml:"augment"`

	// Output parameters
	Output struct {
		// Verbose controls scan summaries and warnings
		Verbose bool `yaml:"verbose"`

		// PreviewDir receives pair preview strips when set
		PreviewDir string `yaml:"previewDir"`

		// Limit caps how many samples the CLI fetches
		Limit int `yaml:"limit"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Dataset.Kind = dataset.KindDirScan
	cfg.Dataset.Split = dataset.DefaultSplit

	cfg.Augment.Flip = true
	cfg.Augment.Min = -1
	cfg.Augment.Max = 1

	cfg.Output.Verbose = true
	cfg.Output.Limit = 4

	return cfg
}

// LoadConfig loads configuration from a YAML file
// If the file doesn't exist, it returns the default configuration
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

	// Check if config file exists
	if _, err := os.Stat(configPath); os.IsNotExist(err) {
		return cfg, nil
	}

	data, err := os.ReadFile(configPath)
	if err != nil {
		return nil, fmt.Errorf("error reading config file: %w", err)
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("error parsing config file: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	return cfg, nil
}

// Validate checks value combinations that YAML cannot express
func (c *Config) Validate() error {
	if c.Dataset.TargetHeight < 0 || c.Dataset.TargetWidth < 0 {
		return fmt.Errorf("target size must be non-negative")
	}
	if (c.Dataset.TargetHeight == 0) != (c.Dataset.TargetWidth == 0) {
		return fmt.Errorf("targetHeight and targetWidth must be set together")
	}
	if kind := strings.ToLower(c.Dataset.Kind); kind != "" && kind != dataset.KindDirScan && !c.TargetSize().IsZero() {
		return fmt.Errorf("dataset kind %q has a fixed canvas; target size is only valid for %s", c.Dataset.Kind, dataset.KindDirScan)
	}
	if c.Augment.ResizeHeight < 0 || c.Augment.ResizeWidth < 0 {
		return fmt.Errorf("resize size must be non-negative")
	}
	if (c.Augment.ResizeHeight == 0) != (c.Augment.ResizeWidth == 0) {
		return fmt.Errorf("resizeHeight and resizeWidth must be set together")
	}
	if c.Augment.Min >= c.Augment.Max {
		return fmt.Errorf("augment range [%g, %g] is empty", c.Augment.Min, c.Augment.Max)
	}
	return nil
}

// TargetSize returns the configured canvas, zero when unset
func (c *Config) TargetSize() models.Size {
	return models.Size{Height: c.Dataset.TargetHeight, Width: c.Dataset.TargetWidth}
}

// Range returns the augmenter output range
func (c *Config) Range() [2]float64 {
	return [2]float64{c.Augment.Min, c.Augment.Max}
}

// Augmenter builds the augmentation transform described by the config
func (c *Config) Augmenter() *augment.Transform {
	return &augment.Transform{
		Flip: c.Augment.Flip,
		Size: models.Size{Height: c.Augment.ResizeHeight, Width: c.Augment.ResizeWidth},
	}
}

// DatasetOptions turns the config into dataset construction options
func (c *Config) DatasetOptions() dataset.Options {
	opts := dataset.Options{
		Split:     c.Dataset.Split,
		Size:      c.TargetSize(),
		Augmenter: c.Augmenter(),
		Range:     c.Range(),
	}
	if !c.Output.Verbose {
		opts.Logf = dataset.Quiet
	}
	return opts
}

// SaveConfig saves the configuration to a YAML file
func SaveConfig(cfg *Config, configPath string) error {
	dir := filepath.Dir(configPath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("error creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("error marshaling config: %w", err)
	}

	if err := os.WriteFile(configPath, data, 0644); err != nil {
		return fmt.Errorf("error writing config file: %w", err)
	}

	return nil
}

// CreateDefaultConfigFile creates a default configuration file at the specified path
func CreateDefaultConfigFile(configPath string) error {
	cfg := DefaultConfig()
	return SaveConfig(cfg, configPath)
}

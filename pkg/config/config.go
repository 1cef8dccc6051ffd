// Package config provides configuration loading and management for
// lorentztie. It handles loading configuration from YAML files and provides
// default values.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// Config represents the application configuration loaded from YAML.
type Config struct {
	// Microscope parameters
	Microscope struct {
		// Voltage is the accelerating voltage in volts
		Voltage float64 `yaml:"voltage"`
	} `yaml:"microscope"`

	// Reconstruction parameters
	Reconstruction struct {
		// ScaleNmPerPixel is the pixel size in nm/pixel
		ScaleNmPerPixel float64 `yaml:"scaleNmPerPixel"`

		// DefocusValuesNm lists the signed defocus of every frame in
		// the series, ascending, in nm
		DefocusValuesNm []float64 `yaml:"defocusValuesNm"`

		// DefocusIndex selects the under/over pair (TIE) or the image
		// (SITIE) to reconstruct from
		DefocusIndex int `yaml:"defocusIndex"`

		// Symmetrize mirror-pads the solver input against edge ringing
		Symmetrize bool `yaml:"symmetrize"`

		// TikhonovCutoff is the regularization frequency qc in 1/nm;
		// 0 disables regularization
		TikhonovCutoff float64 `yaml:"tikhonovCutoff"`

		// Crop restricts the reconstruction to a pixel rectangle
		// [x0,x1) x [y0,y1); all zeros means the full image
		Crop struct {
			X0 int `yaml:"x0"`
			Y0 int `yaml:"y0"`
			X1 int `yaml:"x1"`
			Y1 int `yaml:"y1"`
		} `yaml:"crop"`

		// Workers bounds the parallel fan-out; 0 means all cores
		Workers int `yaml:"workers"`
	} `yaml:"reconstruction"`

	// Input parameters
	Input struct {
		// UnflipDir holds the unflipped focal series images
		UnflipDir string `yaml:"unflipDir"`

		// FlipDir holds the flipped series; empty disables
		// electrostatic separation
		FlipDir string `yaml:"flipDir"`
	} `yaml:"input"`

	// Output parameters
	Output struct {
		// Dir is where the result channels are written
		Dir string `yaml:"dir"`

		// Prefix names the result files
		Prefix string `yaml:"prefix"`

		// FourFold selects the 4-fold color wheel for color_b
		FourFold bool `yaml:"fourFold"`

		// Verbose controls the level of logging output
		Verbose bool `yaml:"verbose"`
	} `yaml:"output"`
}

// DefaultConfig returns a configuration with default values.
func DefaultConfig() *Config {
	cfg := &Config{}

	cfg.Microscope.Voltage = 200e3

	cfg.Reconstruction.ScaleNmPerPixel = 1.0
	cfg.Reconstruction.DefocusValuesNm = []float64{-50, 0, 50}
	cfg.Reconstruction.DefocusIndex = 0
	cfg.Reconstruction.Symmetrize = true
	cfg.Reconstruction.TikhonovCutoff = 0

	cfg.Output.Dir = "results"
	cfg.Output.Prefix = "recon"
	cfg.Output.Verbose = true

	return cfg
}

// LoadConfig loads configuration from a YAML file.
// If the file doesn't exist, it returns the default configuration.
func LoadConfig(configPath string) (*Config, error) {
	cfg := DefaultConfig()

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

	return cfg, nil
}

// SaveConfig saves the configuration to a YAML file.
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

// CreateDefaultConfigFile creates a default configuration file at the
// specified path.
func CreateDefaultConfigFile(configPath string) error {
	return SaveConfig(DefaultConfig(), configPath)
}

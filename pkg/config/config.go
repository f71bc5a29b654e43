// Package config loads isotools settings from a YAML file.
package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/hansbonini/isotools/pkg/cdimage"
)

// Config holds settings shared by all commands.
type Config struct {
	// Layout is the image layout name: auto, iso, mode1 or mode2.
	Layout string `yaml:"layout"`
	// Verbose enables debug logging.
	Verbose bool `yaml:"verbose"`
	// StripVersions removes ";1" style version suffixes from extracted file names.
	StripVersions bool `yaml:"strip_versions"`
	// Manifest controls manifest export.
	Manifest ManifestConfig `yaml:"manifest"`
}

// ManifestConfig controls what goes into an exported manifest.
type ManifestConfig struct {
	IncludeDirs bool `yaml:"include_dirs"`
}

// Default returns the settings used when no configuration file is given.
func Default() *Config {
	return &Config{
		Layout:        cdimage.LayoutAuto.String(),
		StripVersions: true,
		Manifest: ManifestConfig{
			IncludeDirs: true,
		},
	}
}

// Load reads a YAML configuration file. Keys missing from the file keep
// their default values.
func Load(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config file %s: %w", filename, err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that the configured values are usable.
func (c *Config) Validate() error {
	if _, err := cdimage.ParseLayout(c.Layout); err != nil {
		return fmt.Errorf("invalid layout in config: %w", err)
	}
	return nil
}

// ImageLayout returns the configured layout as a cdimage.Layout.
func (c *Config) ImageLayout() cdimage.Layout {
	layout, err := cdimage.ParseLayout(c.Layout)
	if err != nil {
		return cdimage.LayoutAuto
	}
	return layout
}

// Package config loads fnmap settings from YAML.
package config

import (
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"
)

// FileName is the config file looked up in the scanned root.
const FileName = "fnmap.yaml"

// DefaultOutput matches the artifact name the tool has always produced.
const DefaultOutput = "code_analysis_ast.json"

// Config holds all configuration for fnmap.
type Config struct {
	Output      string        `yaml:"output"`
	Format      string        `yaml:"format"` // "json" or "toon"
	Workers     int           `yaml:"workers"`
	MaxFileSize int64         `yaml:"max_file_size"` // bytes, 0 = unlimited
	Exclude     []string      `yaml:"exclude"`
	Gitignore   bool          `yaml:"gitignore"`
	Logging     LoggingConfig `yaml:"logging"`
}

// LoggingConfig holds logging configuration.
type LoggingConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"` // "text" or "json"
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Output:      DefaultOutput,
		Format:      "json",
		Workers:     0,
		MaxFileSize: 0,
		Exclude:     []string{},
		Gitignore:   false,
		Logging: LoggingConfig{
			Level:  "info",
			Format: "text",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields defaults.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}

	return cfg, nil
}

// LoadFromDir loads fnmap.yaml from dir, or returns defaults if there is none.
func LoadFromDir(dir string) (*Config, error) {
	return Load(filepath.Join(dir, FileName))
}

// Marshal renders the configuration as YAML.
func (c *Config) Marshal() ([]byte, error) {
	return yaml.Marshal(c)
}

// Save writes the configuration to path as YAML, preceded by header.
func (c *Config) Save(path, header string) error {
	data, err := c.Marshal()
	if err != nil {
		return err
	}
	return os.WriteFile(path, append([]byte(header), data...), 0o644)
}

package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// FileConfig is the optional static YAML configuration. Mutable updater
// policy (channel, verification, prompt suppression) lives in the JSON
// settings store, not here.
type FileConfig struct {
	APIBase string `yaml:"api_base"`
	DataDir string `yaml:"data_dir"`
	Debug   *bool  `yaml:"debug"`
}

func Load(path string) (FileConfig, error) {
	if path == "" {
		return FileConfig{}, nil
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		return FileConfig{}, fmt.Errorf("read config: %w", err)
	}

	var cfg FileConfig
	if err := yaml.Unmarshal(raw, &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse config YAML: %w", err)
	}

	return cfg, nil
}

func FromString(s string) (FileConfig, error) {
	var cfg FileConfig
	if err := yaml.Unmarshal([]byte(s), &cfg); err != nil {
		return FileConfig{}, fmt.Errorf("parse config YAML: %w", err)
	}
	return cfg, nil
}

// Package config loads the optional per-project .codescope.yml file.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"

	"gopkg.in/yaml.v3"
)

// FileName is the per-project config file, looked up in the project root.
const FileName = ".codescope.yml"

// ACL configures the filesystem gate.
type ACL struct {
	Enforced   bool     `yaml:"enforced"`
	ReadRoots  []string `yaml:"readRoots"`
	WriteRoots []string `yaml:"writeRoots"`
}

// Config is the per-project configuration. Zero values fall back to defaults.
type Config struct {
	Extensions []string `yaml:"extensions"`
	Ignore     []string `yaml:"ignore"`
	MaxWorkers int      `yaml:"maxWorkers"`
	ACL        ACL      `yaml:"acl"`
}

// Default returns the built-in configuration.
func Default() *Config {
	return &Config{
		MaxWorkers: runtime.NumCPU(),
	}
}

// Load reads .codescope.yml from the project root. A missing file yields the
// defaults; a malformed file is an error.
func Load(projectRoot string) (*Config, error) {
	cfg := Default()
	data, err := os.ReadFile(filepath.Join(projectRoot, FileName))
	if errors.Is(err, os.ErrNotExist) {
		return cfg, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", FileName, err)
	}
	if cfg.MaxWorkers <= 0 {
		cfg.MaxWorkers = runtime.NumCPU()
	}
	return cfg, nil
}

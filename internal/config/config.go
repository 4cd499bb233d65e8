// Package config provides user configuration loading for dsproj.
//
// Configuration is read from a YAML file and overridden by DSPROJ_-prefixed
// environment variables. Project documents are not configuration; they are
// handled by the project package.
package config

import (
	"errors"
	"fmt"
	"time"
)

// Config holds the complete dsproj user configuration.
type Config struct {
	Logging LoggingConfig `koanf:"logging"`
	Git     GitConfig     `koanf:"git"`
	Project ProjectConfig `koanf:"project"`
}

// LoggingConfig holds CLI logging settings.
type LoggingConfig struct {
	Level  string `koanf:"level"`
	Format string `koanf:"format"`
	Caller bool   `koanf:"caller"`
}

// GitConfig holds settings for VCS-tracked sources.
type GitConfig struct {
	Remote   string   `koanf:"remote"`
	Depth    int      `koanf:"depth"`
	Timeout  Duration `koanf:"timeout"`
	Username string   `koanf:"username"`
	Password Secret   `koanf:"password"`
}

// ProjectConfig overrides the default layout used by init.
// Empty values keep the built-in defaults.
type ProjectConfig struct {
	SourcesDir string `koanf:"sources_dir"`
	ModelsDir  string `koanf:"models_dir"`
	PluginsDir string `koanf:"plugins_dir"`
	DatasetDir string `koanf:"dataset_dir"`
	EnvDir     string `koanf:"env_dir"`
}

// Default returns the configuration used when no file or env override exists.
func Default() *Config {
	cfg := &Config{}
	applyDefaults(cfg)
	return cfg
}

// Validate validates the configuration.
//
// Returns an error if:
//   - Logging format is not json or console
//   - Git depth is negative
//   - Git password is set without a username
func (c *Config) Validate() error {
	if c.Logging.Format != "json" && c.Logging.Format != "console" {
		return fmt.Errorf("invalid logging format: %q (must be json or console)", c.Logging.Format)
	}
	if c.Git.Depth < 0 {
		return fmt.Errorf("invalid git depth: %d (must be >= 0)", c.Git.Depth)
	}
	if c.Git.Password.IsSet() && c.Git.Username == "" {
		return errors.New("git password requires git username")
	}
	if c.Git.Remote == "" {
		return errors.New("git remote cannot be empty")
	}
	return nil
}

// applyDefaults sets default values for missing configuration fields.
func applyDefaults(cfg *Config) {
	if cfg.Logging.Level == "" {
		cfg.Logging.Level = "warn"
	}
	if cfg.Logging.Format == "" {
		cfg.Logging.Format = "console"
	}

	if cfg.Git.Remote == "" {
		cfg.Git.Remote = "origin"
	}
	if cfg.Git.Depth == 0 {
		cfg.Git.Depth = 1
	}
	if cfg.Git.Timeout == 0 {
		cfg.Git.Timeout = Duration(5 * time.Minute)
	}
}

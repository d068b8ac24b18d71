package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// DefaultFile is the configuration file looked up when --config is not given.
const DefaultFile = "assetpipe.yaml"

// Config represents the application configuration. Every field has a default
// that reproduces the fixed pipeline, so the file itself is optional.
type Config struct {
	Paths   PathsConfig    `yaml:"paths"`
	Sass    SassConfig     `yaml:"sass"`
	Server  ServerConfig   `yaml:"server"`
	Metrics MetricsConfig  `yaml:"metrics"`
	Data    map[string]any `yaml:"data,omitempty"` // Extra page template data (e.g. menus)
}

// PathsConfig locates the source trees and the output root, relative to the project root.
type PathsConfig struct {
	Root        string `yaml:"root"`
	Source      string `yaml:"source"`
	Public      string `yaml:"public"`
	Output      string `yaml:"output"`
	Package     string `yaml:"package"`
	NodeModules string `yaml:"node_modules"`
}

// SassConfig configures the external stylesheet compiler.
type SassConfig struct {
	Binary string `yaml:"binary"`
}

// ServerConfig configures the dev server.
type ServerConfig struct {
	Port       int           `yaml:"port"`
	Debounce   time.Duration `yaml:"debounce"`
	LiveReload *bool         `yaml:"live_reload,omitempty"`
}

// LiveReloadEnabled reports whether reload notifications and script injection are on.
func (s ServerConfig) LiveReloadEnabled() bool {
	return s.LiveReload == nil || *s.LiveReload
}

// MetricsConfig configures metrics export for the build command.
type MetricsConfig struct {
	// Textfile, when set, receives the build metrics in node-exporter textfile format.
	Textfile string `yaml:"textfile,omitempty"`
}

// Load loads configuration from the specified file. A missing file yields the defaults.
func Load(configPath string) (*Config, error) {
	loadEnvFile()

	cfg := &Config{}
	data, err := os.ReadFile(configPath)
	switch {
	case os.IsNotExist(err):
	case err != nil:
		return nil, foundationerrors.ConfigError("failed to read config file").
			WithContext("path", configPath).
			WithCause(err).
			Build()
	default:
		// Expand environment variables in the YAML content
		expanded := os.ExpandEnv(string(data))
		if err := yaml.Unmarshal([]byte(expanded), cfg); err != nil {
			return nil, foundationerrors.ConfigError("failed to unmarshal config").
				WithContext("path", configPath).
				WithCause(err).
				Build()
		}
	}

	if err := applyDefaults(cfg); err != nil {
		return nil, fmt.Errorf("apply defaults: %w", err)
	}
	if err := ValidateConfig(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in configuration rooted at root.
func Default(root string) *Config {
	cfg := &Config{Paths: PathsConfig{Root: root}}
	_ = applyDefaults(cfg)
	return cfg
}

package config

import (
	"fmt"
	"os"
	"path/filepath"
	"time"
)

// DefaultApplier applies defaults for a specific configuration domain.
type DefaultApplier interface {
	ApplyDefaults(cfg *Config) error
	Domain() string
}

// PathsDefaultApplier fills in the conventional project layout.
type PathsDefaultApplier struct{}

func (PathsDefaultApplier) Domain() string { return "paths" }

func (PathsDefaultApplier) ApplyDefaults(cfg *Config) error {
	p := &cfg.Paths
	if p.Root == "" {
		wd, err := os.Getwd()
		if err != nil {
			return fmt.Errorf("resolve working directory: %w", err)
		}
		p.Root = wd
	}
	if p.Source == "" {
		p.Source = "src"
	}
	if p.Public == "" {
		p.Public = "public"
	}
	if p.Output == "" {
		p.Output = "dist"
	}
	if p.Package == "" {
		p.Package = "package.json"
	}
	if p.NodeModules == "" {
		p.NodeModules = "node_modules"
	}
	return nil
}

// SassDefaultApplier selects the sass binary on PATH.
type SassDefaultApplier struct{}

func (SassDefaultApplier) Domain() string { return "sass" }

func (SassDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Sass.Binary == "" {
		cfg.Sass.Binary = "sass"
	}
	return nil
}

// ServerDefaultApplier handles dev server defaults.
type ServerDefaultApplier struct{}

func (ServerDefaultApplier) Domain() string { return "server" }

func (ServerDefaultApplier) ApplyDefaults(cfg *Config) error {
	if cfg.Server.Port == 0 {
		cfg.Server.Port = 2080
	}
	if cfg.Server.Debounce <= 0 {
		cfg.Server.Debounce = 100 * time.Millisecond
	}
	return nil
}

var defaultAppliers = []DefaultApplier{
	PathsDefaultApplier{},
	SassDefaultApplier{},
	ServerDefaultApplier{},
}

func applyDefaults(cfg *Config) error {
	for _, a := range defaultAppliers {
		if err := a.ApplyDefaults(cfg); err != nil {
			return fmt.Errorf("%s: %w", a.Domain(), err)
		}
	}
	return nil
}

// Resolve joins a configured path onto the project root unless it is absolute.
func (c *Config) Resolve(p string) string {
	if filepath.IsAbs(p) {
		return filepath.Clean(p)
	}
	return filepath.Join(c.Paths.Root, p)
}

// OutputDir is the absolute output root.
func (c *Config) OutputDir() string { return c.Resolve(c.Paths.Output) }

// SourceDir is the absolute source root.
func (c *Config) SourceDir() string { return c.Resolve(c.Paths.Source) }

// PublicDir is the absolute public-assets root.
func (c *Config) PublicDir() string { return c.Resolve(c.Paths.Public) }

// PackageFile is the absolute path of the project metadata file.
func (c *Config) PackageFile() string { return c.Resolve(c.Paths.Package) }

// NodeModulesDir is the absolute dependency directory served by the dev server.
func (c *Config) NodeModulesDir() string { return c.Resolve(c.Paths.NodeModules) }

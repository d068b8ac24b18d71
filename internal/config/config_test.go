package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

func TestLoad_MissingFileUsesDefaults(t *testing.T) {
	root := t.TempDir()
	t.Chdir(root)

	cfg, err := Load(filepath.Join(root, DefaultFile))
	require.NoError(t, err)

	assert.Equal(t, "src", cfg.Paths.Source)
	assert.Equal(t, "public", cfg.Paths.Public)
	assert.Equal(t, "dist", cfg.Paths.Output)
	assert.Equal(t, "package.json", cfg.Paths.Package)
	assert.Equal(t, "node_modules", cfg.Paths.NodeModules)
	assert.Equal(t, "sass", cfg.Sass.Binary)
	assert.Equal(t, 2080, cfg.Server.Port)
	assert.Equal(t, 100*time.Millisecond, cfg.Server.Debounce)
	assert.True(t, cfg.Server.LiveReloadEnabled())

	wd, err := os.Getwd()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(wd, "dist"), cfg.OutputDir())
}

func TestLoad_FileOverridesAndEnvExpansion(t *testing.T) {
	root := t.TempDir()
	t.Setenv("ASSETPIPE_TEST_PORT", "3000")
	path := filepath.Join(root, "assetpipe.yaml")
	content := `paths:
  root: ` + root + `
  output: build
server:
  port: ${ASSETPIPE_TEST_PORT}
  debounce: 250ms
  live_reload: false
data:
  menus:
    - name: Home
      link: index.html
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, filepath.Join(root, "build"), cfg.OutputDir())
	assert.Equal(t, filepath.Join(root, "src"), cfg.SourceDir())
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, 250*time.Millisecond, cfg.Server.Debounce)
	assert.False(t, cfg.Server.LiveReloadEnabled())
	require.Contains(t, cfg.Data, "menus")
}

func TestLoad_InvalidYAML(t *testing.T) {
	path := filepath.Join(t.TempDir(), "assetpipe.yaml")
	require.NoError(t, os.WriteFile(path, []byte("paths: [unterminated"), 0o600))

	_, err := Load(path)
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryConfig))
}

func TestValidateConfig(t *testing.T) {
	root := t.TempDir()

	tests := []struct {
		name    string
		mutate  func(*Config)
		wantErr bool
	}{
		{"defaults are valid", func(*Config) {}, false},
		{"output equals root", func(c *Config) { c.Paths.Output = "." }, true},
		{"output equals source", func(c *Config) { c.Paths.Output = "src" }, true},
		{"output contains public", func(c *Config) { c.Paths.Public = "dist/public" }, true},
		{"output inside public", func(c *Config) { c.Paths.Output = "public/dist" }, true},
		{"output inside source", func(c *Config) { c.Paths.Output = "src/assets/images/out" }, true},
		{"output sibling named like source", func(c *Config) { c.Paths.Output = "src-dist" }, false},
		{"source outside root", func(c *Config) { c.Paths.Source = "../elsewhere" }, true},
		{"port out of range", func(c *Config) { c.Server.Port = 70000 }, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default(root)
			tt.mutate(cfg)
			err := ValidateConfig(cfg)
			if tt.wantErr {
				require.Error(t, err)
				assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryValidation))
				return
			}
			require.NoError(t, err)
		})
	}
}

func TestValidateConfig_OutputInsideInputNamesTree(t *testing.T) {
	cfg := Default(t.TempDir())
	cfg.Paths.Output = "public/dist"

	err := ValidateConfig(cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "must not be inside paths.public")
	assert.NotContains(t, err.Error(), "paths.source")
}

func TestResolve_AbsolutePathKept(t *testing.T) {
	cfg := Default(t.TempDir())
	abs := filepath.Join(t.TempDir(), "elsewhere")
	cfg.Paths.Output = abs
	assert.Equal(t, abs, cfg.OutputDir())
}

package testutil

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/config"
)

// Project is a temporary project root laid out like a real site.
type Project struct {
	t    *testing.T
	root string
}

// NewProject creates an empty project in a test temp dir.
func NewProject(t *testing.T) *Project {
	t.Helper()
	return &Project{t: t, root: t.TempDir()}
}

// Root returns the project root.
func (p *Project) Root() string { return p.root }

// Path joins slash-separated rel onto the root.
func (p *Project) Path(rel string) string {
	return filepath.Join(p.root, filepath.FromSlash(rel))
}

// WithFile writes content to rel, creating parent directories.
func (p *Project) WithFile(rel, content string) *Project {
	p.t.Helper()
	WriteFile(p.t, p.Path(rel), content)
	return p
}

// WithFiles writes every rel/content pair.
func (p *Project) WithFiles(files map[string]string) *Project {
	p.t.Helper()
	for rel, content := range files {
		p.WithFile(rel, content)
	}
	return p
}

// WithPackage writes package.json from meta.
func (p *Project) WithPackage(meta map[string]any) *Project {
	p.t.Helper()
	data, err := json.MarshalIndent(meta, "", "  ")
	require.NoError(p.t, err)
	return p.WithFile("package.json", string(data))
}

// Config returns the default configuration rooted at the project.
func (p *Project) Config() *config.Config {
	return config.Default(p.root)
}

// Output returns assertions on the default output root.
func (p *Project) Output() *FileAssertions {
	return NewFileAssertions(p.t, p.Config().OutputDir())
}

// WriteFile writes content to path, creating parent directories.
func WriteFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

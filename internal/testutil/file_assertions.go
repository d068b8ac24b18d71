package testutil

import (
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// FileAssertions provides utilities for asserting file system state in tests.
type FileAssertions struct {
	t       *testing.T
	baseDir string
}

// NewFileAssertions creates a new file assertions helper.
func NewFileAssertions(t *testing.T, baseDir string) *FileAssertions {
	return &FileAssertions{t: t, baseDir: baseDir}
}

func (fa *FileAssertions) path(rel string) string {
	return filepath.Join(fa.baseDir, filepath.FromSlash(rel))
}

// AssertFileExists validates that a file exists.
func (fa *FileAssertions) AssertFileExists(rel string) *FileAssertions {
	fa.t.Helper()
	assert.FileExists(fa.t, fa.path(rel))
	return fa
}

// AssertFileNotExists validates that a file does not exist.
func (fa *FileAssertions) AssertFileNotExists(rel string) *FileAssertions {
	fa.t.Helper()
	assert.NoFileExists(fa.t, fa.path(rel))
	return fa
}

// AssertFileContains validates that a file contains expected content.
func (fa *FileAssertions) AssertFileContains(rel, expected string) *FileAssertions {
	fa.t.Helper()
	assert.Contains(fa.t, fa.GetFileContent(rel), expected)
	return fa
}

// AssertFiles validates that the tree holds exactly the given files.
func (fa *FileAssertions) AssertFiles(expected ...string) *FileAssertions {
	fa.t.Helper()
	sort.Strings(expected)
	assert.Equal(fa.t, expected, fa.ListFiles())
	return fa
}

// GetFileContent reads a file below the base directory.
func (fa *FileAssertions) GetFileContent(rel string) string {
	fa.t.Helper()
	data, err := os.ReadFile(fa.path(rel))
	require.NoError(fa.t, err)
	return string(data)
}

// ListFiles returns every regular file below the base directory as sorted,
// slash-separated relative paths.
func (fa *FileAssertions) ListFiles() []string {
	fa.t.Helper()
	names := make([]string, 0)
	for name := range fa.Snapshot() {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Snapshot maps every regular file to its mode and content, for comparing
// whole trees.
func (fa *FileAssertions) Snapshot() map[string]string {
	fa.t.Helper()
	out := map[string]string{}
	err := filepath.WalkDir(fa.baseDir, func(p string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		info, err := d.Info()
		if err != nil {
			return err
		}
		data, err := os.ReadFile(p)
		if err != nil {
			return err
		}
		rel, err := filepath.Rel(fa.baseDir, p)
		if err != nil {
			return err
		}
		out[filepath.ToSlash(rel)] = info.Mode().String() + " " + string(data)
		return nil
	})
	require.NoError(fa.t, err)
	return out
}

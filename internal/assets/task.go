// Package assets maps source files selected by a glob onto an output tree.
package assets

import (
	"context"
	"io/fs"
	"log/slog"
	"os"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
	"git.home.luguber.info/inful/assetpipe/internal/logfields"
)

const (
	dirMode  = 0o755
	fileMode = 0o644
)

// Source is one matched input file.
type Source struct {
	Path    string // absolute path on disk
	Rel     string // slash-separated path relative to the task base
	Content []byte
}

// Transformer converts the content of one source file.
type Transformer interface {
	Transform(ctx context.Context, src Source) ([]byte, error)
}

// TransformerFunc adapts a function to Transformer.
type TransformerFunc func(ctx context.Context, src Source) ([]byte, error)

func (f TransformerFunc) Transform(ctx context.Context, src Source) ([]byte, error) {
	return f(ctx, src)
}

// Copy passes content through unchanged.
var Copy Transformer = TransformerFunc(func(_ context.Context, src Source) ([]byte, error) {
	return src.Content, nil
})

// Task is a source-glob-to-output transform unit.
type Task struct {
	Name string
	// Root is the directory Pattern and Base are relative to.
	Root string
	// Pattern selects sources, doublestar syntax with forward slashes
	// (e.g. "src/assets/images/**").
	Pattern string
	// Base is stripped from each match to form its output path.
	Base string
	// Output is the output root.
	Output string
	// Ext, when set, replaces the extension of every output path (".css").
	Ext string
	// Skip excludes matches by their base-relative path.
	Skip        func(rel string) bool
	Transformer Transformer
}

// Result summarizes a task run.
type Result struct {
	Files   int
	Outputs []string // base-relative output paths, sorted
}

// Match expands the task's glob into sorted, base-relative file paths.
func (t *Task) Match() ([]string, error) {
	fsys := os.DirFS(t.Root)
	matches, err := doublestar.Glob(fsys, t.Pattern)
	if err != nil {
		return nil, foundationerrors.ValidationError("invalid glob pattern").
			WithContext("pattern", t.Pattern).WithCause(err).Build()
	}
	base := path.Clean(filepath.ToSlash(t.Base))
	out := make([]string, 0, len(matches))
	for _, m := range matches {
		info, err := fs.Stat(fsys, m)
		if err != nil {
			return nil, foundationerrors.FileSystemError("stat source").
				WithContext("path", filepath.Join(t.Root, m)).WithCause(err).Build()
		}
		if info.IsDir() {
			continue
		}
		rel, ok := relativeTo(base, m)
		if !ok {
			return nil, foundationerrors.ValidationError("source outside task base").
				WithContext("path", m).WithContext("base", base).Build()
		}
		if t.Skip != nil && t.Skip(rel) {
			continue
		}
		out = append(out, rel)
	}
	sort.Strings(out)
	return out, nil
}

// Run transforms every matched source and writes it under the output root.
// The first failing file aborts the task; a file whose transform fails is
// never written.
func (t *Task) Run(ctx context.Context) (Result, error) {
	rels, err := t.Match()
	if err != nil {
		return Result{}, err
	}
	if len(rels) == 0 {
		slog.Debug("No sources matched", logfields.Task(t.Name), slog.String("pattern", t.Pattern))
	}

	res := Result{Outputs: make([]string, 0, len(rels))}
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return res, err
		}
		outRel, err := t.processFile(ctx, rel)
		if err != nil {
			return res, err
		}
		res.Files++
		res.Outputs = append(res.Outputs, outRel)
	}
	return res, nil
}

func (t *Task) processFile(ctx context.Context, rel string) (string, error) {
	srcPath := filepath.Join(t.Root, filepath.FromSlash(t.Base), filepath.FromSlash(rel))
	content, err := os.ReadFile(srcPath)
	if err != nil {
		return "", foundationerrors.FileSystemError("read source").
			WithContext("path", srcPath).WithCause(err).Build()
	}

	out, err := t.Transformer.Transform(ctx, Source{Path: srcPath, Rel: rel, Content: content})
	if err != nil {
		if foundationerrors.IsClassified(err) {
			return "", err
		}
		return "", foundationerrors.TransformError("transform failed").
			WithContext("path", srcPath).WithCause(err).Build()
	}

	outRel := t.outputRel(rel)
	dst := filepath.Join(t.Output, filepath.FromSlash(outRel))
	if err := WriteFile(dst, out); err != nil {
		return "", err
	}
	slog.Debug("Wrote output", logfields.Task(t.Name), logfields.Path(dst))
	return outRel, nil
}

func (t *Task) outputRel(rel string) string {
	if t.Ext == "" {
		return rel
	}
	return strings.TrimSuffix(rel, path.Ext(rel)) + t.Ext
}

// WriteFile writes data to dst with normalized permissions, creating parent
// directories as needed.
func WriteFile(dst string, data []byte) error {
	if err := os.MkdirAll(filepath.Dir(dst), dirMode); err != nil {
		return foundationerrors.FileSystemError("create output directory").
			WithContext("path", filepath.Dir(dst)).WithCause(err).Build()
	}
	if err := os.WriteFile(dst, data, fileMode); err != nil {
		return foundationerrors.FileSystemError("write output").
			WithContext("path", dst).WithCause(err).Build()
	}
	// WriteFile keeps the mode of an existing file; reruns must not depend on it.
	if err := os.Chmod(dst, fileMode); err != nil {
		return foundationerrors.FileSystemError("chmod output").
			WithContext("path", dst).WithCause(err).Build()
	}
	return nil
}

// relativeTo returns p relative to base (both slash paths).
func relativeTo(base, p string) (string, bool) {
	if base == "." || base == "" {
		return p, true
	}
	if !strings.HasPrefix(p, base+"/") {
		return "", false
	}
	return strings.TrimPrefix(p, base+"/"), true
}

package transform

import (
	"errors"
	"io/fs"
	"maps"
	"os"
	"time"

	"github.com/flosch/pongo2/v6"
	json "github.com/goccy/go-json"

	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

// PageData is the read-only context every page render receives. It is built
// once per build and never modified afterwards; accessors return copies.
type PageData struct {
	pkg   map[string]any
	date  time.Time
	extra map[string]any
}

// NewPageData captures package metadata, the build timestamp and extra data.
// Extra keys named "pkg" or "date" are shadowed by the fixed fields.
func NewPageData(pkg map[string]any, date time.Time, extra map[string]any) PageData {
	return PageData{pkg: maps.Clone(pkg), date: date, extra: maps.Clone(extra)}
}

// Package returns a copy of the package metadata.
func (d PageData) Package() map[string]any { return maps.Clone(d.pkg) }

// Date returns the build timestamp.
func (d PageData) Date() time.Time { return d.date }

// context builds a fresh pongo2 context for one render.
func (d PageData) context() pongo2.Context {
	ctx := pongo2.Context{}
	for k, v := range d.extra {
		ctx[k] = v
	}
	pkg := d.pkg
	if pkg == nil {
		pkg = map[string]any{}
	}
	ctx["pkg"] = maps.Clone(pkg)
	ctx["date"] = d.date
	return ctx
}

// LoadPackageMetadata reads a package.json-style metadata file. A missing
// file yields empty metadata; a malformed one is a configuration error.
func LoadPackageMetadata(path string) (map[string]any, error) {
	data, err := os.ReadFile(path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]any{}, nil
	}
	if err != nil {
		return nil, foundationerrors.FileSystemError("read package metadata").
			WithContext("path", path).WithCause(err).Build()
	}
	var pkg map[string]any
	if err := json.Unmarshal(data, &pkg); err != nil {
		return nil, foundationerrors.ConfigError("parse package metadata").
			WithContext("path", path).WithCause(err).Build()
	}
	if pkg == nil {
		pkg = map[string]any{}
	}
	return pkg, nil
}

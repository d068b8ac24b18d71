package transform

import (
	"bytes"
	"context"
	"sync"

	"github.com/flosch/pongo2/v6"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

var markdown = goldmark.New(goldmark.WithExtensions(extension.GFM))

func init() {
	register := pongo2.RegisterFilter
	if pongo2.FilterExists("markdown") {
		register = pongo2.ReplaceFilter
	}
	if err := register("markdown", filterMarkdown); err != nil {
		panic(err)
	}
}

// filterMarkdown renders its input as Markdown: {{ body|markdown }}.
func filterMarkdown(in *pongo2.Value, _ *pongo2.Value) (*pongo2.Value, *pongo2.Error) {
	var buf bytes.Buffer
	if err := markdown.Convert([]byte(in.String()), &buf); err != nil {
		return nil, &pongo2.Error{Sender: "filter:markdown", OrigError: err}
	}
	return pongo2.AsSafeValue(buf.String()), nil
}

// Page renders Django/swig-style templates. Includes and extends resolve
// against the source root.
type Page struct {
	root string
	data PageData

	once    sync.Once
	set     *pongo2.TemplateSet
	initErr error
}

// NewPage returns a Page renderer rooted at sourceRoot with a fixed context.
// The template set is opened on first use so a project without a source
// tree can still build.
func NewPage(sourceRoot string, data PageData) *Page {
	return &Page{root: sourceRoot, data: data}
}

// Data returns the context the page was constructed with.
func (p *Page) Data() PageData { return p.data }

func (p *Page) templates() (*pongo2.TemplateSet, error) {
	p.once.Do(func() {
		loader, err := pongo2.NewLocalFileSystemLoader(p.root)
		if err != nil {
			p.initErr = foundationerrors.FileSystemError("open template root").
				WithContext("path", p.root).WithCause(err).Build()
			return
		}
		p.set = pongo2.NewSet("pages", loader)
	})
	return p.set, p.initErr
}

func (p *Page) Transform(_ context.Context, src assets.Source) ([]byte, error) {
	set, err := p.templates()
	if err != nil {
		return nil, err
	}
	tpl, err := set.FromBytes(src.Content)
	if err != nil {
		return nil, foundationerrors.TransformError("parse template").
			WithContext("path", src.Path).WithCause(err).Build()
	}
	out, err := tpl.ExecuteBytes(p.data.context())
	if err != nil {
		return nil, foundationerrors.TransformError("render template").
			WithContext("path", src.Path).WithCause(err).Build()
	}
	return out, nil
}

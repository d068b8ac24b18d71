package transform

import (
	"context"
	"path"
	"strings"

	"github.com/tdewolff/minify/v2"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
)

// Font minifies SVG fonts. TTF, OTF, WOFF, WOFF2 and EOT files are already
// compressed containers and pass through.
type Font struct {
	m *minify.M
}

// NewFont returns a Font optimizer.
func NewFont() *Font {
	return &Font{m: newSVGMinifier()}
}

func (f *Font) Transform(_ context.Context, src assets.Source) ([]byte, error) {
	if strings.ToLower(path.Ext(src.Rel)) == ".svg" {
		return minifySVG(f.m, src)
	}
	return src.Content, nil
}

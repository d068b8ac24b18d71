package transform

import (
	"bytes"
	"context"
	"image/png"
	"path"
	"strings"

	"github.com/tdewolff/minify/v2"
	"github.com/tdewolff/minify/v2/svg"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

const svgMediaType = "image/svg+xml"

func newSVGMinifier() *minify.M {
	m := minify.New()
	m.AddFunc(svgMediaType, svg.Minify)
	return m
}

// Image optimizes images without changing their pixels: PNGs are
// recompressed and kept only when smaller, SVGs are minified, every other
// format passes through untouched.
type Image struct {
	m *minify.M
}

// NewImage returns an Image optimizer.
func NewImage() *Image {
	return &Image{m: newSVGMinifier()}
}

func (i *Image) Transform(_ context.Context, src assets.Source) ([]byte, error) {
	switch strings.ToLower(path.Ext(src.Rel)) {
	case ".png":
		return recompressPNG(src)
	case ".svg":
		return minifySVG(i.m, src)
	default:
		return src.Content, nil
	}
}

func recompressPNG(src assets.Source) ([]byte, error) {
	img, err := png.Decode(bytes.NewReader(src.Content))
	if err != nil {
		return nil, foundationerrors.TransformError("decode png").
			WithContext("path", src.Path).WithCause(err).Build()
	}
	// Re-encoding keeps pixels only. Ancillary chunks such as gAMA, iCCP and
	// sRGB are dropped on purpose; files that rely on them should ship
	// through public/ instead.
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.BestCompression}
	if err := enc.Encode(&buf, img); err != nil {
		return nil, foundationerrors.TransformError("encode png").
			WithContext("path", src.Path).WithCause(err).Build()
	}
	if buf.Len() >= len(src.Content) {
		return src.Content, nil
	}
	return buf.Bytes(), nil
}

func minifySVG(m *minify.M, src assets.Source) ([]byte, error) {
	out, err := m.Bytes(svgMediaType, src.Content)
	if err != nil {
		return nil, foundationerrors.TransformError("minify svg").
			WithContext("path", src.Path).WithCause(err).Build()
	}
	return out, nil
}

package transform

import (
	"bytes"
	"encoding/binary"
	"hash/crc32"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/assetpipe/internal/assets"
	foundationerrors "git.home.luguber.info/inful/assetpipe/internal/foundation/errors"
)

func uncompressedPNG(t *testing.T) ([]byte, image.Image) {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, 64, 64))
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			img.Set(x, y, color.NRGBA{R: uint8(x * 4), G: uint8(y * 4), B: 128, A: 255})
		}
	}
	var buf bytes.Buffer
	enc := png.Encoder{CompressionLevel: png.NoCompression}
	require.NoError(t, enc.Encode(&buf, img))
	return buf.Bytes(), img
}

func TestImage_PNGRecompressionIsLossless(t *testing.T) {
	raw, want := uncompressedPNG(t)

	out, err := NewImage().Transform(t.Context(), assets.Source{Rel: "assets/images/grad.png", Content: raw})
	require.NoError(t, err)
	assert.Less(t, len(out), len(raw))

	got, err := png.Decode(bytes.NewReader(out))
	require.NoError(t, err)
	require.Equal(t, want.Bounds(), got.Bounds())
	for y := 0; y < 64; y++ {
		for x := 0; x < 64; x++ {
			r1, g1, b1, a1 := want.At(x, y).RGBA()
			r2, g2, b2, a2 := got.At(x, y).RGBA()
			require.Equal(t, [4]uint32{r1, g1, b1, a1}, [4]uint32{r2, g2, b2, a2}, "pixel %d,%d", x, y)
		}
	}
}

// withChunk inserts an ancillary chunk directly after IHDR.
func withChunk(raw []byte, typ string, data []byte) []byte {
	const ihdrEnd = 8 + 4 + 4 + 13 + 4
	chunk := binary.BigEndian.AppendUint32(nil, uint32(len(data)))
	chunk = append(chunk, typ...)
	chunk = append(chunk, data...)
	chunk = binary.BigEndian.AppendUint32(chunk, crc32.ChecksumIEEE(append([]byte(typ), data...)))
	out := append([]byte{}, raw[:ihdrEnd]...)
	out = append(out, chunk...)
	return append(out, raw[ihdrEnd:]...)
}

func TestImage_PNGColourChunksDropped(t *testing.T) {
	raw, _ := uncompressedPNG(t)
	tagged := withChunk(raw, "gAMA", binary.BigEndian.AppendUint32(nil, 45455))
	_, err := png.Decode(bytes.NewReader(tagged))
	require.NoError(t, err)

	out, err := NewImage().Transform(t.Context(), assets.Source{Rel: "a.png", Content: tagged})
	require.NoError(t, err)
	assert.Less(t, len(out), len(tagged))
	assert.False(t, bytes.Contains(out, []byte("gAMA")))
}

func TestImage_PNGAlreadyOptimalIsKept(t *testing.T) {
	raw, _ := uncompressedPNG(t)
	once, err := NewImage().Transform(t.Context(), assets.Source{Rel: "a.png", Content: raw})
	require.NoError(t, err)

	twice, err := NewImage().Transform(t.Context(), assets.Source{Rel: "a.png", Content: once})
	require.NoError(t, err)
	assert.Equal(t, once, twice)
}

func TestImage_SVGMinified(t *testing.T) {
	svg := []byte(`<?xml version="1.0"?>
<!-- generator comment -->
<svg xmlns="http://www.w3.org/2000/svg" width="10"   height="10">
    <rect x="0" y="0" width="10" height="10" fill="#ff0000" />
</svg>`)

	out, err := NewImage().Transform(t.Context(), assets.Source{Rel: "logo.SVG", Content: svg})
	require.NoError(t, err)
	assert.Less(t, len(out), len(svg))
	assert.NotContains(t, string(out), "generator comment")
	assert.Contains(t, string(out), "<svg")
}

func TestImage_OtherFormatsPassThrough(t *testing.T) {
	jpeg := []byte{0xff, 0xd8, 0xff, 0xe0, 0x00, 0x10, 'J', 'F', 'I', 'F'}
	out, err := NewImage().Transform(t.Context(), assets.Source{Rel: "photo.jpg", Content: jpeg})
	require.NoError(t, err)
	assert.Equal(t, jpeg, out)
}

func TestImage_CorruptPNG(t *testing.T) {
	_, err := NewImage().Transform(t.Context(), assets.Source{Path: "/p/broken.png", Rel: "broken.png", Content: []byte("not a png")})
	require.Error(t, err)
	assert.True(t, foundationerrors.HasCategory(err, foundationerrors.CategoryTransform))
}

func TestFont_BinaryFontsPassThroughSVGMinified(t *testing.T) {
	woff := []byte("wOFF\x00\x01\x00\x00binary")
	out, err := NewFont().Transform(t.Context(), assets.Source{Rel: "assets/fonts/icon.woff", Content: woff})
	require.NoError(t, err)
	assert.Equal(t, woff, out)

	svg := []byte("<svg xmlns=\"http://www.w3.org/2000/svg\">\n  <!-- font -->\n  <defs></defs>\n</svg>")
	out, err = NewFont().Transform(t.Context(), assets.Source{Rel: "assets/fonts/icon.svg", Content: svg})
	require.NoError(t, err)
	assert.Less(t, len(out), len(svg))
}

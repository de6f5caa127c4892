package imageprocessor

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngBytes(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := 0; x < w; x++ {
		img.Set(x, 0, color.RGBA{R: 255, A: 255})
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalize_DownscalesToMaxSide(t *testing.T) {
	p := NewProcessor(80, 100)

	res, err := p.Normalize(bytes.NewReader(pngBytes(t, 400, 200)))
	require.NoError(t, err)
	assert.Equal(t, 100, res.Width)
	assert.Equal(t, 50, res.Height)
	assert.Equal(t, "image/jpeg", res.ContentType)

	cfg, format, err := image.DecodeConfig(bytes.NewReader(res.Data))
	require.NoError(t, err)
	assert.Equal(t, "jpeg", format)
	assert.Equal(t, 100, cfg.Width)
}

func TestNormalize_DoesNotUpscale(t *testing.T) {
	p := NewProcessor(80, 1600)

	res, err := p.Normalize(bytes.NewReader(pngBytes(t, 30, 60)))
	require.NoError(t, err)
	assert.Equal(t, 30, res.Width)
	assert.Equal(t, 60, res.Height)
}

func TestNormalize_RejectsGarbage(t *testing.T) {
	p := NewProcessor(0, 0)
	_, err := p.Normalize(bytes.NewReader([]byte("not an image")))
	assert.ErrorIs(t, err, ErrNotAnImage)
	assert.False(t, IsValidImage(bytes.NewReader([]byte("nope"))))
}

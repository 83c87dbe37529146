package media

import (
	"bytes"
	"image"
	"image/color"
	"image/png"
	"strings"
	"testing"

	"github.com/chai2010/webp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pngOf(t *testing.T, w, h int) []byte {
	t.Helper()

	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for x := range w {
		for y := range h {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 90, A: 255})
		}
	}

	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func TestNormalizeAvatar_ProducesSquareWebp(t *testing.T) {
	out, err := NormalizeAvatar(bytes.NewReader(pngOf(t, 800, 400)))
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, AvatarSize, cfg.Width)
	assert.Equal(t, AvatarSize, cfg.Height)
}

func TestNormalizeAvatar_UpscalesSmallSquare(t *testing.T) {
	out, err := NormalizeAvatar(bytes.NewReader(pngOf(t, 100, 120)))
	require.NoError(t, err)

	cfg, err := webp.DecodeConfig(bytes.NewReader(out))
	require.NoError(t, err)
	assert.Equal(t, AvatarSize, cfg.Width)
}

func TestNormalizeAvatar_Rejects(t *testing.T) {
	_, err := NormalizeAvatar(strings.NewReader("definitely not a picture"))
	assert.ErrorIs(t, err, ErrInvalidImage)

	_, err = NormalizeAvatar(bytes.NewReader(pngOf(t, 40, 40)))
	assert.ErrorIs(t, err, ErrImageTooSmall)
}

func TestCenterSquare(t *testing.T) {
	assert.Equal(t, image.Rect(200, 0, 600, 400), centerSquare(image.Rect(0, 0, 800, 400)))
	assert.Equal(t, image.Rect(0, 50, 300, 350), centerSquare(image.Rect(0, 0, 300, 400)))
}

// Package media turns uploaded pictures into the fixed avatar format served to
// clients: a centred square, AvatarSize pixels wide, encoded as webp.
package media

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	_ "image/jpeg"
	_ "image/png"
	"io"

	"github.com/chai2010/webp"
	"golang.org/x/image/draw"

	"github.com/NikolajSankovDev/zyron/internal/httperr"
)

const (
	AvatarSize        = 512
	AvatarContentType = "image/webp"

	// MaxUploadBytes caps what NormalizeAvatar reads from the request body.
	MaxUploadBytes = 8 << 20

	avatarQuality = 82
)

var (
	ErrInvalidImage  = httperr.ErrBusiness("invalid_image")
	ErrImageTooLarge = httperr.ErrBusiness("image_too_large")
	ErrImageTooSmall = httperr.ErrBusiness("image_too_small")
)

// NormalizeAvatar decodes a jpeg, png or webp picture, crops it to the
// largest centred square, scales it to AvatarSize and re-encodes it as webp.
func NormalizeAvatar(r io.Reader) ([]byte, error) {
	raw, err := io.ReadAll(io.LimitReader(r, MaxUploadBytes+1))
	if err != nil {
		return nil, fmt.Errorf("read upload: %w", err)
	}
	if len(raw) > MaxUploadBytes {
		return nil, ErrImageTooLarge
	}

	src, _, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		if errors.Is(err, image.ErrFormat) {
			return nil, ErrInvalidImage
		}
		return nil, fmt.Errorf("%w: %w", ErrInvalidImage, err)
	}

	crop := centerSquare(src.Bounds())
	if crop.Dx() < 64 {
		return nil, ErrImageTooSmall
	}

	dst := image.NewRGBA(image.Rect(0, 0, AvatarSize, AvatarSize))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, crop, draw.Src, nil)

	var out bytes.Buffer
	if err := webp.Encode(&out, dst, &webp.Options{Quality: avatarQuality}); err != nil {
		return nil, fmt.Errorf("encode webp: %w", err)
	}

	return out.Bytes(), nil
}

func centerSquare(b image.Rectangle) image.Rectangle {
	side := min(b.Dx(), b.Dy())
	x0 := b.Min.X + (b.Dx()-side)/2
	y0 := b.Min.Y + (b.Dy()-side)/2
	return image.Rect(x0, y0, x0+side, y0+side)
}

package source

import (
	"bytes"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"

	_ "golang.org/x/image/bmp"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

const (
	// MaxPixels bounds the declared size of any decoded image or GIF
	// logical screen, checked before pixel data is allocated.
	MaxPixels = 1 << 24
	// MaxSequencePixels bounds the pixels held by all frames of one
	// animation.
	MaxSequencePixels = 1 << 27
)

// DecodeImage decodes a still image in any registered format and returns
// it together with the format name.
func DecodeImage(r io.Reader) (image.Image, string, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return nil, "", &DecodeError{Kind: KindStill, Err: err}
	}
	cfg, _, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return nil, "", &DecodeError{Kind: KindStill, Err: err}
	}
	if err := checkPixels(cfg.Width, cfg.Height); err != nil {
		return nil, "", &DecodeError{Kind: KindStill, Err: err}
	}

	img, format, err := image.Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, "", &DecodeError{Kind: KindStill, Err: err}
	}
	if img.Bounds().Empty() {
		return nil, "", &DecodeError{Kind: KindStill, Err: errEmpty}
	}
	return img, format, nil
}

// DecodeBytes is DecodeImage for an in-memory upload. An empty upload is
// a validation error, not a decode error.
func DecodeBytes(raw []byte) (image.Image, string, error) {
	if len(raw) == 0 {
		return nil, "", invalid("file", "empty upload")
	}
	return DecodeImage(bytes.NewReader(raw))
}

// copyRGBA copies the r region of src into a new RGBA anchored at (0,0).
func copyRGBA(src image.Image, r image.Rectangle) *image.RGBA {
	dst := image.NewRGBA(image.Rect(0, 0, r.Dx(), r.Dy()))
	draw.Draw(dst, dst.Bounds(), src, r.Min, draw.Src)
	return dst
}

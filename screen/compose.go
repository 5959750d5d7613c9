package screen

import (
	"image"
	"image/color"
)

// Options tune ToPanelImage.
type Options struct {
	// Background fills the letterbox margins. Defaults to black.
	Background color.Color
}

// ToPanelImage is the canonical conversion of an arbitrary image into a
// w x h panel frame: Letterbox, then Gamma, then (optionally) Dither.
// It reads no shared state and never modifies src.
func ToPanelImage(src image.Image, w, h int, gamma float64, dither bool, options ...Options) (*image.RGBA, error) {
	var bg color.Color = color.Black
	for _, opts := range options {
		if opts.Background != nil {
			bg = opts.Background
		}
	}

	img, err := Letterbox(src, w, h, bg)
	if err != nil {
		return nil, err
	}
	img = Gamma(img, gamma)
	if dither {
		img = Dither(img)
	}
	return opaque(img), nil
}

package screen

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"math"

	"golang.org/x/image/draw"
)

var ErrEmptyImage = errors.New("screen: image has no pixels")

func checkTarget(src image.Image, w, h int) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("screen: invalid target size %dx%d", w, h)
	}
	if src == nil || src.Bounds().Empty() {
		return ErrEmptyImage
	}
	return nil
}

// containSize returns the largest (nw, nh) with the aspect ratio of
// (w, h) that fits inside (tw, th).
func containSize(w, h, tw, th int) (int, int) {
	var nw, nh int
	if w*th > h*tw {
		nw = tw
		nh = int(math.Round(float64(h) * float64(tw) / float64(w)))
	} else {
		nh = th
		nw = int(math.Round(float64(w) * float64(th) / float64(h)))
	}
	return clamp(nw, 1, tw), clamp(nh, 1, th)
}

// Letterbox scales src uniformly to fit inside w x h and centres it on a
// canvas of exactly w x h filled with bg. Nothing is cropped. A source
// that is already w x h is copied without resampling.
func Letterbox(src image.Image, w, h int, bg color.Color) (*image.RGBA, error) {
	if err := checkTarget(src, w, h); err != nil {
		return nil, err
	}
	if bg == nil {
		bg = color.Black
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(bg), image.Point{}, draw.Src)

	sb := src.Bounds()
	nw, nh := containSize(sb.Dx(), sb.Dy(), w, h)
	x, y := (w-nw)/2, (h-nh)/2
	dr := image.Rect(x, y, x+nw, y+nh)

	if nw == sb.Dx() && nh == sb.Dy() {
		draw.Draw(dst, dr, src, sb.Min, draw.Over)
	} else {
		draw.CatmullRom.Scale(dst, dr, src, sb, draw.Over, nil)
	}
	return opaque(dst), nil
}

// Stretch resizes src to exactly w x h, ignoring its aspect ratio.
func Stretch(src image.Image, w, h int) (*image.RGBA, error) {
	if err := checkTarget(src, w, h); err != nil {
		return nil, err
	}

	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	sb := src.Bounds()
	if sb.Dx() == w && sb.Dy() == h {
		draw.Draw(dst, dst.Bounds(), src, sb.Min, draw.Src)
	} else {
		draw.ApproxBiLinear.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	}
	return opaque(dst), nil
}

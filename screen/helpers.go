package screen

import (
	"image"
	"image/color"

	clr "github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/draw"
)

var black = clr.Color{}

func rgbMix(c1, c2 color.Color, t float64) color.Color {
	clr1, _ := clr.MakeColor(c1)
	clr2, _ := clr.MakeColor(c2)
	return clr1.BlendRgb(clr2, t).Clamped()
}

func darken(src color.Color, p float64) color.Color {
	srcColor, _ := clr.MakeColor(src)
	h, c, l := srcColor.Hcl()
	return clr.Hcl(h, c, l-p).Clamped()
}

// ScaleBrightness returns a copy of src with every channel multiplied by
// percent/100. percent is clamped to [1,100]; 100 is a plain copy.
func ScaleBrightness(src *image.RGBA, percent int) *image.RGBA {
	percent = clamp(percent, 1, 100)
	dst := cloneRGBA(src)
	if percent == 100 {
		return dst
	}

	t := 1 - float64(percent)/100
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		c := clr.Color{
			R: float64(dst.Pix[i+0]) / 255,
			G: float64(dst.Pix[i+1]) / 255,
			B: float64(dst.Pix[i+2]) / 255,
		}
		dst.Pix[i+0], dst.Pix[i+1], dst.Pix[i+2] = c.BlendRgb(black, t).Clamped().RGB255()
	}
	return dst
}

type rgb24Color uint32

func (rgb24 rgb24Color) RGBA() (r, g, b, a uint32) {
	rb, gb, bb := (rgb24>>16)&0xFF, (rgb24>>8)&0xFF, (rgb24>>0)&0xFF

	r = uint32((rb << 8) | rb)
	g = uint32((gb << 8) | gb)
	b = uint32((bb << 8) | bb)
	a = 0xFFFF
	return
}

func clamp(i int, min int, max int) int {
	if i < min {
		return min
	}
	if i > max {
		return max
	}
	return i
}

func clamp01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func cloneRGBA(src *image.RGBA) *image.RGBA {
	dst := &image.RGBA{
		Pix:    make([]uint8, len(src.Pix)),
		Stride: src.Stride,
		Rect:   src.Rect,
	}
	copy(dst.Pix, src.Pix)
	return dst
}

// toRGBA converts any image into a fresh RGBA with its origin at (0,0).
func toRGBA(src image.Image) *image.RGBA {
	b := src.Bounds()
	if rgba, ok := src.(*image.RGBA); ok && b.Min == (image.Point{}) {
		return cloneRGBA(rgba)
	}
	dst := image.NewRGBA(image.Rect(0, 0, b.Dx(), b.Dy()))
	draw.Draw(dst, dst.Bounds(), src, b.Min, draw.Src)
	return dst
}

// opaque forces alpha to 0xFF. RGBA is premultiplied, so this is the same
// as compositing over black.
func opaque(img *image.RGBA) *image.RGBA {
	for i := 3; i < len(img.Pix); i += 4 {
		img.Pix[i] = 0xFF
	}
	return img
}

// Blank returns an opaque black w x h image.
func Blank(w, h int) *image.RGBA {
	return opaque(image.NewRGBA(image.Rect(0, 0, w, h)))
}

// Clone returns a copy of src that shares no pixel memory with it.
func Clone(src *image.RGBA) *image.RGBA {
	return cloneRGBA(src)
}

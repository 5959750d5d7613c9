package screen

import (
	"image"

	"golang.org/x/image/draw"
)

// MaxZoom bounds preview upscaling.
const MaxZoom = 16

// Zoom upscales src by an integer factor with nearest-neighbour sampling
// so panel pixels stay crisp in previews. factor is clamped to
// [1, MaxZoom].
func Zoom(src image.Image, factor int) *image.RGBA {
	factor = clamp(factor, 1, MaxZoom)
	sb := src.Bounds()
	if factor == 1 {
		return toRGBA(src)
	}
	dst := image.NewRGBA(image.Rect(0, 0, sb.Dx()*factor, sb.Dy()*factor))
	draw.NearestNeighbor.Scale(dst, dst.Bounds(), src, sb, draw.Src, nil)
	return dst
}

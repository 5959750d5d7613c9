package screen

import (
	"image"
	"image/color"
)

var (
	red   = color.RGBA{R: 0xFF, G: 0x99, B: 0x99, A: 0xff}
	green = color.RGBA{G: 0xFF, R: 0x99, B: 0x99, A: 0xff}
	blue  = color.RGBA{B: 0xFF, R: 0x99, G: 0x99, A: 0xff}

	shadowMask = [3]color.Color{red, green, blue}
)

func rgbMul(a, b color.Color) color.Color {
	r1, g1, b1, _ := a.RGBA()
	r2, g2, b2, _ := b.RGBA()
	return color.RGBA{
		R: uint8((r1 * r2 / 0xffff) >> 8),
		G: uint8((g1 * g2 / 0xffff) >> 8),
		B: uint8((b1 * b2 / 0xffff) >> 8),
		A: 0xFF,
	}
}

// CRT renders src the way a shadow-mask tube would show it: every source
// pixel becomes a scale x scale cell with horizontal bleed from its
// neighbours, darkened scan-line edges and staggered RGB mask stripes.
// scale is clamped to [3, MaxZoom].
func CRT(src image.Image, scale int) *image.RGBA {
	scale = clamp(scale, 3, MaxZoom)
	half := scale / 2

	srcRect := src.Bounds()
	dst := image.NewRGBA(image.Rect(0, 0, srcRect.Dx()*scale, srcRect.Dy()*scale))
	for sy, dy := srcRect.Min.Y, 0; sy < srcRect.Max.Y; sy, dy = sy+1, dy+scale {
		for sx, dx := srcRect.Min.X, 0; sx < srcRect.Max.X; sx, dx = sx+1, dx+scale {
			lc := src.At(clamp(sx-1, srcRect.Min.X, srcRect.Max.X-1), sy)
			c := src.At(sx, sy)
			rc := src.At(clamp(sx+1, srcRect.Min.X, srcRect.Max.X-1), sy)

			for iy := 0; iy < scale; iy++ {
				// Scan-lines
				d := 2*(float64(iy)+0.5)/float64(scale) - 1
				shade := 0.7 * d * d

				for ix := 0; ix < scale; ix++ {
					co := c

					// Bleed
					switch {
					case ix < half:
						co = rgbMix(lc, c, float64(half+ix)/float64(scale))
					case ix > half:
						co = rgbMix(c, rc, float64(ix-half)/float64(scale))
					}

					if shade > 0.01 {
						co = darken(co, shade)
					}

					// Shadow mask, shifted half a cell on odd rows
					phase := ix
					if iy%2 == 1 {
						phase = (ix - half + scale) % scale
					}
					co = rgbMul(co, shadowMask[phase*3/scale])

					dst.Set(dx+ix, dy+iy, co)
				}
			}
		}
	}

	return dst
}

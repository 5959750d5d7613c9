package screen

import (
	"image"
	"math"
)

// bayer4 is the classic 4x4 ordered-dither index matrix.
var bayer4 = [4][4]uint8{
	{0, 8, 2, 10},
	{12, 4, 14, 6},
	{3, 11, 1, 9},
	{15, 7, 13, 5},
}

// thresholds holds bayer4 normalised to (0,1): (m + 0.5) / 16.
var thresholds = func() (t [4][4]float64) {
	for y := range bayer4 {
		for x := range bayer4[y] {
			t[y][x] = (float64(bayer4[y][x]) + 0.5) / 16.0
		}
	}
	return
}()

// Threshold returns the tiled Bayer threshold for pixel (x, y).
func Threshold(x, y int) float64 {
	return thresholds[y&3][x&3]
}

// Dither applies 4x4 ordered dithering to src and re-quantises to 8 bits.
// The per-pixel offset is (Threshold(x,y) - 0.5) / 255 in normalised
// colour space.
func Dither(src image.Image) *image.RGBA {
	dst := opaque(toRGBA(src))
	w, h := dst.Rect.Dx(), dst.Rect.Dy()
	for y := 0; y < h; y++ {
		row := dst.Pix[y*dst.Stride : y*dst.Stride+w*4]
		for x := 0; x < w; x++ {
			offset := (Threshold(x, y) - 0.5) / 255.0
			for c := 0; c < 3; c++ {
				i := x*4 + c
				v := clamp01(float64(row[i])/255.0 + offset)
				row[i] = uint8(math.Floor(v*255.0 + 0.5))
			}
		}
	}
	return dst
}

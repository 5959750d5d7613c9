package screen

import (
	"image"
	"math"
)

// GammaTable builds the 256-entry lookup curve
//
//	out[i] = round(255 * (i/255)^(1/g))
//
// shared by the R, G and B channels. g must be positive.
func GammaTable(g float64) (lut [256]uint8) {
	inv := 1.0 / g
	for i := range lut {
		v := math.Round(255.0 * math.Pow(float64(i)/255.0, inv))
		lut[i] = uint8(clamp(int(v), 0, 255))
	}
	return
}

// Gamma maps src through GammaTable(g) and returns a new opaque image.
//
// A non-positive g is not an error: the pixels are returned unchanged.
// Callers that need a valid curve must clamp before calling.
func Gamma(src image.Image, g float64) *image.RGBA {
	if g <= 0 || math.IsNaN(g) {
		return toRGBA(src)
	}

	lut := GammaTable(g)
	dst := opaque(toRGBA(src))
	for i := 0; i+3 < len(dst.Pix); i += 4 {
		dst.Pix[i+0] = lut[dst.Pix[i+0]]
		dst.Pix[i+1] = lut[dst.Pix[i+1]]
		dst.Pix[i+2] = lut[dst.Pix[i+2]]
	}
	return dst
}

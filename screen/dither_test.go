package screen

import (
	"image/color"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestThresholdTiles(t *testing.T) {
	assert.InDelta(t, 0.5/16, Threshold(0, 0), 1e-12)
	assert.InDelta(t, 15.5/16, Threshold(0, 3), 1e-12)
	assert.Equal(t, Threshold(1, 2), Threshold(5, 6))
	assert.Equal(t, Threshold(3, 3), Threshold(7, 11))
}

func TestDitherStaysWithinOneStep(t *testing.T) {
	src := gradient(33, 17)
	got := Dither(src)
	require.Equal(t, src.Bounds(), got.Bounds())

	for i := 0; i < len(src.Pix); i += 4 {
		for c := 0; c < 3; c++ {
			diff := int(got.Pix[i+c]) - int(src.Pix[i+c])
			assert.LessOrEqual(t, diff, 1)
			assert.GreaterOrEqual(t, diff, -1)
		}
		assert.Equal(t, uint8(0xff), got.Pix[i+3])
	}
}

func TestDitherClampsExtremes(t *testing.T) {
	for _, c := range []color.RGBA{
		{A: 0xff},
		{R: 0xff, G: 0xff, B: 0xff, A: 0xff},
	} {
		got := Dither(solid(4, 4, c))
		for y := 0; y < 4; y++ {
			for x := 0; x < 4; x++ {
				assert.Equal(t, c, got.RGBAAt(x, y))
			}
		}
	}
}

func TestDitherIsDeterministic(t *testing.T) {
	src := gradient(12, 12)
	assert.Equal(t, Dither(src).Pix, Dither(src).Pix)
}

package screen

import (
	"image/color"
)

// DefaultPalettes holds the fixed colour tables used by cart sprite
// sheets. Index n of a palette is the colour for nibble value n.
var DefaultPalettes = struct {
	PICO8       color.Palette
	PICO8Secret color.Palette
}{
	PICO8: color.Palette{
		0x0: rgb24Color(0x000000), // black
		0x1: rgb24Color(0x1d2b53), // dark-blue
		0x2: rgb24Color(0x7e2553), // dark-purple
		0x3: rgb24Color(0x008751), // dark-green
		0x4: rgb24Color(0xab5236), // brown
		0x5: rgb24Color(0x5f574f), // dark-grey
		0x6: rgb24Color(0xc2c3c7), // light-grey
		0x7: rgb24Color(0xfff1e8), // white

		0x8: rgb24Color(0xff004d), // red
		0x9: rgb24Color(0xffa300), // orange
		0xa: rgb24Color(0xffec27), // yellow
		0xb: rgb24Color(0x00e436), // green
		0xc: rgb24Color(0x29adff), // blue
		0xd: rgb24Color(0x83769c), // lavender
		0xe: rgb24Color(0xff77a8), // pink
		0xf: rgb24Color(0xffccaa), // light-peach
	},
	PICO8Secret: color.Palette{
		0x0: rgb24Color(0x291814),
		0x1: rgb24Color(0x111d35),
		0x2: rgb24Color(0x422136),
		0x3: rgb24Color(0x125359),
		0x4: rgb24Color(0x742f29),
		0x5: rgb24Color(0x49333b),
		0x6: rgb24Color(0xa28879),
		0x7: rgb24Color(0xf3ef7d),

		0x8: rgb24Color(0xbe1250),
		0x9: rgb24Color(0xff6c24),
		0xa: rgb24Color(0xa8e72e),
		0xb: rgb24Color(0x00b543),
		0xc: rgb24Color(0x065ab5),
		0xd: rgb24Color(0x754665),
		0xe: rgb24Color(0xff6e59),
		0xf: rgb24Color(0xff9d81),
	},
}

package source

import (
	"bufio"
	"bytes"
	"encoding/hex"
	"image"
	"image/color"
	"io"
	"strings"

	"github.com/32bitkid/bitreader"
	"golang.org/x/image/draw"

	"github.com/epi13/rgbmatrix-painter/screen"
)

// CartSheetSize is the width and height of a cart sprite sheet.
const CartSheetSize = 128

const (
	gfxMarker   = "__gfx__"
	maxCartLine = 1 << 20
)

type CartOptions struct {
	// Palette maps nibble values to colours. Defaults to
	// screen.DefaultPalettes.PICO8.
	Palette color.Palette
}

// CartSheet is a decoded cart sprite sheet. TruncatedRows lists the rows
// that contained malformed hex; each was decoded up to the first bad pair
// and left blank from there on.
type CartSheet struct {
	Image         *image.RGBA
	TruncatedRows []int
}

// DecodeCart reads the __gfx__ section of a text cart: up to 128 rows of
// hex digits, one 4-bit palette index per digit, high nibble of each byte
// first. Rows that are missing come out as index 0.
func DecodeCart(r io.Reader, options ...CartOptions) (CartSheet, error) {
	palette := screen.DefaultPalettes.PICO8
	for _, opts := range options {
		if opts.Palette != nil {
			palette = opts.Palette
		}
	}

	rows, err := gfxRows(r)
	if err != nil {
		return CartSheet{}, &DecodeError{Kind: KindCart, Err: err}
	}

	img := image.NewRGBA(image.Rect(0, 0, CartSheetSize, CartSheetSize))
	draw.Draw(img, img.Bounds(), image.NewUniform(palette[0]), image.Point{}, draw.Src)

	sheet := CartSheet{Image: img}
	for y, row := range rows {
		indices, complete, err := gfxRow(row)
		if err != nil {
			return CartSheet{}, &DecodeError{Kind: KindCart, Err: err}
		}
		if !complete {
			sheet.TruncatedRows = append(sheet.TruncatedRows, y)
		}
		for x, idx := range indices {
			if int(idx) < len(palette) {
				img.Set(x, y, palette[idx])
			}
		}
	}
	return sheet, nil
}

// gfxRows returns the non-blank lines between the __gfx__ marker and the
// next section marker, at most CartSheetSize of them.
func gfxRows(r io.Reader) ([]string, error) {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 4096), maxCartLine)

	var found bool
	var rows []string
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !found {
			found = line == gfxMarker
			continue
		}
		if isSectionMarker(line) {
			break
		}
		if line == "" {
			continue
		}
		rows = append(rows, line)
		if len(rows) == CartSheetSize {
			break
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if !found {
		return nil, ErrNoGfxSection
	}
	return rows, nil
}

func isSectionMarker(line string) bool {
	return len(line) > 4 && strings.HasPrefix(line, "__") && strings.HasSuffix(line, "__")
}

// gfxRow unpacks one row into palette indices. complete is false when
// the row stopped early at an invalid or dangling hex digit.
func gfxRow(row string) ([]uint8, bool, error) {
	if len(row) > CartSheetSize {
		row = row[:CartSheetSize]
	}

	// bitreader fills ahead of the bits it hands out; the zero tail keeps
	// the last nibbles of a row clear of EOF.
	packed := make([]byte, hex.DecodedLen(len(row))+8)
	n, hexErr := hex.Decode(packed, []byte(row))

	bits := bitreader.NewReader(bytes.NewReader(packed))
	indices := make([]uint8, 0, 2*n)
	for i := 0; i < 2*n; i++ {
		idx, err := bits.Read8(4)
		if err != nil {
			return nil, false, err
		}
		indices = append(indices, idx)
	}
	return indices, hexErr == nil, nil
}

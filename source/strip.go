package source

import (
	"errors"
	"image"
	"io"
	"time"
)

// SliceStrip cuts sheet into cols*rows equal tiles of
// (W/cols) x (H/rows) and returns them in row-major order, each with the
// same delay. Pixels left over on the right or bottom edge are ignored.
func SliceStrip(sheet image.Image, cols, rows int, delay time.Duration) (Sequence, error) {
	if cols < 1 {
		return Sequence{}, invalid("cols", "must be at least 1, got %d", cols)
	}
	if rows < 1 {
		return Sequence{}, invalid("rows", "must be at least 1, got %d", rows)
	}
	if delay <= 0 {
		return Sequence{}, invalid("delay", "must be positive, got %v", delay)
	}

	b := sheet.Bounds()
	fw, fh := b.Dx()/cols, b.Dy()/rows
	if fw == 0 || fh == 0 {
		return Sequence{}, invalid("cols/rows", "%dx%d grid does not fit a %dx%d sheet", cols, rows, b.Dx(), b.Dy())
	}

	seq := Sequence{Kind: KindStrip, Frames: make([]Frame, 0, cols*rows)}
	for r := 0; r < rows; r++ {
		for c := 0; c < cols; c++ {
			x, y := b.Min.X+c*fw, b.Min.Y+r*fh
			tile := image.Rect(x, y, x+fw, y+fh)
			seq.Frames = append(seq.Frames, Frame{
				Image: copyRGBA(sheet, tile),
				Delay: delay,
			})
		}
	}
	return seq, nil
}

// DecodeStrip decodes a sprite sheet and slices it with SliceStrip.
func DecodeStrip(r io.Reader, cols, rows, delayMs int) (Sequence, error) {
	switch {
	case cols < 1:
		return Sequence{}, invalid("cols", "must be at least 1, got %d", cols)
	case rows < 1:
		return Sequence{}, invalid("rows", "must be at least 1, got %d", rows)
	case delayMs <= 0:
		return Sequence{}, invalid("delay", "must be positive, got %d", delayMs)
	}

	sheet, _, err := DecodeImage(r)
	if err != nil {
		var de *DecodeError
		if errors.As(err, &de) {
			de.Kind = KindStrip
		}
		return Sequence{}, err
	}
	return SliceStrip(sheet, cols, rows, time.Duration(delayMs)*time.Millisecond)
}

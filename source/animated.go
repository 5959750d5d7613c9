package source

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"image/gif"
	"io"
	"time"

	"golang.org/x/image/draw"
)

// DecodeAnimated reads an animation container and returns its frames in
// stored order. GIF frames are composited onto the logical screen so each
// Frame is a complete picture; a still image in any other registered
// format becomes a one-frame sequence.
func DecodeAnimated(r io.Reader) (Sequence, error) {
	raw, err := io.ReadAll(r)
	if err != nil {
		return Sequence{}, &DecodeError{Kind: KindAnimated, Err: err}
	}
	if len(raw) == 0 {
		return Sequence{}, invalid("file", "empty upload")
	}

	cfg, format, err := image.DecodeConfig(bytes.NewReader(raw))
	if err != nil {
		return Sequence{}, &DecodeError{Kind: KindAnimated, Err: err}
	}
	if err := checkPixels(cfg.Width, cfg.Height); err != nil {
		return Sequence{}, &DecodeError{Kind: KindAnimated, Err: err}
	}

	if format != "gif" {
		img, _, err := DecodeImage(bytes.NewReader(raw))
		if err != nil {
			return Sequence{}, &DecodeError{Kind: KindAnimated, Err: errors.Unwrap(err)}
		}
		return Sequence{
			Kind:   KindAnimated,
			Frames: []Frame{{Image: copyRGBA(img, img.Bounds()), Delay: DefaultDelay}},
		}, nil
	}

	g, err := gif.DecodeAll(bytes.NewReader(raw))
	if err != nil {
		return Sequence{}, &DecodeError{Kind: KindAnimated, Err: err}
	}
	return FromGIF(g)
}

// FromGIF flattens g into full frames, honouring each frame's disposal
// method. GIF delays are in 1/100 s; a zero delay becomes DefaultDelay.
// Logical screens over MaxPixels and animations over MaxSequencePixels
// are rejected with ErrTooLarge.
func FromGIF(g *gif.GIF) (Sequence, error) {
	if len(g.Image) == 0 {
		return Sequence{}, &DecodeError{Kind: KindAnimated, Err: errors.New("gif has no frames")}
	}

	rect := image.Rect(0, 0, g.Config.Width, g.Config.Height)
	if rect.Empty() {
		for _, p := range g.Image {
			rect = rect.Union(p.Bounds())
		}
	}
	if rect.Empty() {
		return Sequence{}, &DecodeError{Kind: KindAnimated, Err: errEmpty}
	}
	if err := checkPixels(rect.Dx(), rect.Dy()); err != nil {
		return Sequence{}, &DecodeError{Kind: KindAnimated, Err: err}
	}
	if total := int64(rect.Dx()) * int64(rect.Dy()) * int64(len(g.Image)); total > MaxSequencePixels {
		err := fmt.Errorf("%w: %d frames of %dx%d", ErrTooLarge, len(g.Image), rect.Dx(), rect.Dy())
		return Sequence{}, &DecodeError{Kind: KindAnimated, Err: err}
	}

	canvas := image.NewRGBA(rect)
	seq := Sequence{Kind: KindAnimated, Frames: make([]Frame, 0, len(g.Image))}

	for i, p := range g.Image {
		var disposal byte
		if i < len(g.Disposal) {
			disposal = g.Disposal[i]
		}
		var delay time.Duration
		if i < len(g.Delay) {
			delay = time.Duration(g.Delay[i]) * 10 * time.Millisecond
		}

		var previous *image.RGBA
		if disposal == gif.DisposalPrevious {
			previous = copyRGBA(canvas, canvas.Bounds())
		}

		draw.Draw(canvas, p.Bounds(), p, p.Bounds().Min, draw.Over)
		seq.Frames = append(seq.Frames, Frame{
			Image: copyRGBA(canvas, canvas.Bounds()),
			Delay: delayOrDefault(delay),
		})

		switch disposal {
		case gif.DisposalBackground:
			draw.Draw(canvas, p.Bounds(), image.Transparent, image.Point{}, draw.Src)
		case gif.DisposalPrevious:
			draw.Draw(canvas, canvas.Bounds(), previous, image.Point{}, draw.Src)
		}
	}

	return seq, nil
}

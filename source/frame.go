package source

import (
	"image"
	"time"
)

// DefaultDelay is used for frames whose source stores no delay.
const DefaultDelay = 100 * time.Millisecond

// Frame is one image of a sequence and how long it stays on screen.
type Frame struct {
	Image image.Image
	Delay time.Duration
}

// Sequence is an ordered, finite list of frames. Slice order is playback
// order.
type Sequence struct {
	Kind   Kind
	Frames []Frame
}

func (s Sequence) Len() int { return len(s.Frames) }

// Validate reports whether s can be played.
func (s Sequence) Validate() error {
	if len(s.Frames) == 0 {
		return invalid("sequence", "no frames")
	}
	for i, f := range s.Frames {
		if f.Image == nil || f.Image.Bounds().Empty() {
			return invalid("sequence", "frame %d is empty", i)
		}
	}
	return nil
}

// Duration is the length of one pass over the sequence.
func (s Sequence) Duration() (d time.Duration) {
	for _, f := range s.Frames {
		d += f.Delay
	}
	return
}

func delayOrDefault(d time.Duration) time.Duration {
	if d <= 0 {
		return DefaultDelay
	}
	return d
}

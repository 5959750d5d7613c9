package source

import (
	"errors"
	"fmt"
)

// ErrNoGfxSection is wrapped in a DecodeError when a cart has no
// __gfx__ marker line.
var ErrNoGfxSection = errors.New("__gfx__ section not found")

// ErrTooLarge is wrapped in a DecodeError when an image declares more
// pixels than MaxPixels, or an animation more than MaxSequencePixels.
var ErrTooLarge = errors.New("image is too large")

var errEmpty = errors.New("image has no pixels")

// ValidationError reports a request that was rejected before any
// decoding happened.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// DecodeError reports source bytes that could not be turned into frames.
type DecodeError struct {
	Kind Kind
	Err  error
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("decode %v: %v", e.Kind, e.Err)
}

func (e *DecodeError) Unwrap() error { return e.Err }

func invalid(field, format string, args ...interface{}) error {
	return &ValidationError{Field: field, Reason: fmt.Sprintf(format, args...)}
}

func checkPixels(w, h int) error {
	if int64(w)*int64(h) > MaxPixels {
		return fmt.Errorf("%w: %dx%d exceeds %d pixels", ErrTooLarge, w, h, MaxPixels)
	}
	return nil
}

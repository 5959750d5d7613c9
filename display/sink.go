package display

import "image"

// Sink is the physical end of the pipeline. Push receives a finished
// panel-sized frame; the sink must not keep a reference to it.
type Sink interface {
	Push(img *image.RGBA) error
	SetBrightness(percent int) error
}

// NopSink discards everything. It stands in when no hardware is
// attached.
type NopSink struct{}

func (NopSink) Push(*image.RGBA) error  { return nil }
func (NopSink) SetBrightness(int) error { return nil }

// IsHardware reports whether s drives a real device.
func IsHardware(s Sink) bool {
	switch s.(type) {
	case nil, NopSink, *NopSink:
		return false
	}
	return true
}

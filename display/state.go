package display

import (
	"bytes"
	"fmt"
	"image"
	"image/png"
	"math"
	"sync"
	"sync/atomic"

	"github.com/sirupsen/logrus"

	"github.com/epi13/rgbmatrix-painter/screen"
)

type Options struct {
	Log *logrus.Entry
}

// SnapshotOptions control the preview rendering of the current frame.
type SnapshotOptions struct {
	// Zoom enlarges each panel pixel to a Zoom x Zoom block. 0 and 1
	// mean no enlargement.
	Zoom int
	// CRT renders the frame with a scanline and shadow mask look
	// instead of plain blocks.
	CRT bool
}

// State owns the current settings, the last committed frame and the
// sink. Gamma and brightness are each read atomically; they are not
// updated together as a pair.
type State struct {
	width, height int

	gamma      atomic.Uint64
	brightness atomic.Int64

	mu      sync.RWMutex
	current *image.RGBA
	sink    Sink

	log *logrus.Entry
}

// NewState creates a State for a w x h panel. The current frame starts
// out black.
func NewState(w, h int, initial Settings, sink Sink, options ...Options) (*State, error) {
	if w <= 0 || h <= 0 {
		return nil, fmt.Errorf("display: invalid panel size %dx%d", w, h)
	}
	if sink == nil {
		sink = NopSink{}
	}

	s := &State{
		width:   w,
		height:  h,
		current: screen.Blank(w, h),
		sink:    sink,
		log:     logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opts := range options {
		if opts.Log != nil {
			s.log = opts.Log
		}
	}

	initial = initial.Clamped()
	s.gamma.Store(math.Float64bits(initial.Gamma))
	s.brightness.Store(int64(initial.Brightness))
	return s, nil
}

func (s *State) Width() int  { return s.width }
func (s *State) Height() int { return s.height }

func (s *State) Gamma() float64 {
	return math.Float64frombits(s.gamma.Load())
}

func (s *State) Brightness() int {
	return int(s.brightness.Load())
}

func (s *State) Settings() Settings {
	return Settings{Gamma: s.Gamma(), Brightness: s.Brightness()}
}

// Hardware reports whether the sink drives a real device.
func (s *State) Hardware() bool {
	return IsHardware(s.sink)
}

// Update applies the non-nil fields of u after clamping them and returns
// the resulting settings. A brightness change is forwarded to the sink;
// a sink failure is logged and otherwise ignored.
func (s *State) Update(u SettingsUpdate) Settings {
	if u.Gamma != nil {
		s.gamma.Store(math.Float64bits(ClampGamma(*u.Gamma)))
	}
	if u.Brightness != nil {
		b := ClampBrightness(*u.Brightness)
		s.brightness.Store(int64(b))
		if err := s.sink.SetBrightness(b); err != nil {
			s.log.WithFields(logrus.Fields{
				"op":         "SetBrightness",
				"brightness": b,
				"error":      err.Error(),
			}).Warn("Sink rejected brightness change")
		}
	}

	settings := s.Settings()
	s.log.WithFields(logrus.Fields{
		"op":         "Update",
		"gamma":      settings.Gamma,
		"brightness": settings.Brightness,
	}).Debug("Display settings updated")
	return settings
}

// Commit stores img as the current frame, scaled by the current
// brightness, and pushes it to the sink. img must be exactly panel
// sized. Sink failures are logged and never returned; the in-memory
// frame is kept either way.
func (s *State) Commit(img *image.RGBA) error {
	if img == nil {
		return fmt.Errorf("display: commit of nil image")
	}
	if b := img.Bounds(); b.Dx() != s.width || b.Dy() != s.height {
		return fmt.Errorf("display: frame is %dx%d, panel is %dx%d", b.Dx(), b.Dy(), s.width, s.height)
	}

	frame := screen.ScaleBrightness(img, s.Brightness())

	s.mu.Lock()
	defer s.mu.Unlock()
	s.current = frame
	if err := s.sink.Push(frame); err != nil {
		s.log.WithFields(logrus.Fields{
			"op":    "Push",
			"error": err.Error(),
		}).Warn("Sink rejected frame")
	}
	return nil
}

// Current returns a copy of the last committed frame.
func (s *State) Current() *image.RGBA {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return screen.Clone(s.current)
}

// Snapshot encodes the current frame as PNG.
func (s *State) Snapshot(opts SnapshotOptions) ([]byte, error) {
	var img image.Image = s.Current()
	switch {
	case opts.CRT:
		img = screen.CRT(img, opts.Zoom)
	case opts.Zoom > 1:
		img = screen.Zoom(img, opts.Zoom)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("display: encode snapshot: %w", err)
	}
	return buf.Bytes(), nil
}

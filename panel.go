// Package painter drives an RGB LED matrix from arbitrary images.
//
// A Panel owns the display state and the animation player. Every frame,
// whether it comes from a single upload, an animated image, a sprite strip
// or a streaming client, is fitted to the panel, gamma corrected and
// optionally dithered before it reaches the hardware sink.
package painter

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/sirupsen/logrus"

	"github.com/epi13/rgbmatrix-painter/config"
	"github.com/epi13/rgbmatrix-painter/display"
	"github.com/epi13/rgbmatrix-painter/player"
	"github.com/epi13/rgbmatrix-painter/screen"
	"github.com/epi13/rgbmatrix-painter/source"
)

type Options struct {
	// Sink replaces the sink New would open from cfg.Hardware.
	Sink display.Sink
	Log  *logrus.Entry
}

// Status reports the hardware and playback state.
type Status struct {
	HardwareAvailable bool             `json:"have_matrix"`
	InitError         string           `json:"init_error,omitempty"`
	Settings          display.Settings `json:"settings"`
	Playback          player.Status    `json:"playback"`
}

// Panel is the single entry point for everything that changes what the
// matrix shows.
type Panel struct {
	width, height int
	dither        bool
	background    color.Color
	cartPalette   color.Palette

	state  *display.State
	player *player.Player
	sink   display.Sink

	initErr string
	log     *logrus.Entry
}

// New builds a Panel for cfg. Without an explicit sink it opens the
// configured framebuffer; if that fails the panel runs without hardware
// and the failure is reported by Status.
func New(cfg config.Config, options ...Options) (*Panel, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	bg, err := cfg.Display.BackgroundColor()
	if err != nil {
		return nil, err
	}
	cartPalette, err := cfg.Display.CartColors()
	if err != nil {
		return nil, err
	}

	p := &Panel{
		width:       cfg.Panel.Width,
		height:      cfg.Panel.Height,
		dither:      cfg.Display.Dither,
		background:  bg,
		cartPalette: cartPalette,
		log:         logrus.NewEntry(logrus.StandardLogger()),
	}
	for _, opts := range options {
		if opts.Sink != nil {
			p.sink = opts.Sink
		}
		if opts.Log != nil {
			p.log = opts.Log
		}
	}
	if p.sink == nil {
		p.sink, p.initErr = openSink(cfg.Hardware, p.width, p.height, p.log)
	}

	p.state, err = display.NewState(p.width, p.height, cfg.Display.Settings(), p.sink, display.Options{Log: p.log})
	if err != nil {
		return nil, err
	}
	p.player = player.New(p.state, player.Options{
		Dither:     p.dither,
		Background: bg,
		Log:        p.log,
	})

	p.log.WithFields(logrus.Fields{
		"function": "New",
		"width":    p.width,
		"height":   p.height,
		"hardware": p.state.Hardware(),
	}).Info("Panel ready")
	return p, nil
}

func openSink(hw config.Hardware, width, height int, log *logrus.Entry) (display.Sink, string) {
	if hw.Framebuffer == "" {
		return display.NopSink{}, ""
	}
	fb, err := display.OpenFramebuffer(display.FramebufferConfig{
		Device:    hw.Framebuffer,
		Backlight: hw.Backlight,
	})
	if err != nil {
		log.WithFields(logrus.Fields{
			"function": "openSink",
			"device":   hw.Framebuffer,
			"error":    err.Error(),
		}).Warn("Framebuffer unavailable, running without hardware")
		return display.NopSink{}, "init_error: " + err.Error()
	}

	fw, fh := fb.Size()
	entry := log.WithFields(logrus.Fields{
		"function":  "openSink",
		"device":    hw.Framebuffer,
		"fb_width":  fw,
		"fb_height": fh,
	})
	if fw < width || fh < height {
		entry.Warn("Framebuffer is smaller than the panel, frames will be cropped")
	} else {
		entry.Info("Framebuffer opened")
	}
	return fb, ""
}

// ConvertAndCommit decodes raw and shows it. With fit the image is
// letterboxed through the full pipeline; otherwise it is stretched to the
// panel size as is.
func (p *Panel) ConvertAndCommit(raw []byte, fit bool) error {
	img, _, err := source.DecodeBytes(raw)
	if err != nil {
		return err
	}

	var frame *image.RGBA
	if fit {
		frame, err = p.compose(img, p.dither)
	} else {
		frame, err = screen.Stretch(img, p.width, p.height)
	}
	if err != nil {
		return err
	}
	return p.state.Commit(frame)
}

// UploadStill decodes raw and shows it letterboxed, without dithering.
func (p *Panel) UploadStill(raw []byte) error {
	img, format, err := source.DecodeBytes(raw)
	if err != nil {
		return err
	}
	frame, err := p.compose(img, false)
	if err != nil {
		return err
	}

	p.log.WithFields(logrus.Fields{
		"function": "UploadStill",
		"format":   format,
		"size":     img.Bounds().Size().String(),
	}).Debug("Still image uploaded")
	return p.state.Commit(frame)
}

func (p *Panel) compose(img image.Image, dither bool) (*image.RGBA, error) {
	return screen.ToPanelImage(img, p.width, p.height, p.state.Gamma(), dither,
		screen.Options{Background: p.background})
}

// PlayAnimated decodes an animated image and starts playing it, replacing
// any running playback. It loops until stopped unless opts say otherwise.
func (p *Panel) PlayAnimated(raw []byte, opts ...player.PlayOptions) (string, error) {
	seq, err := source.DecodeAnimated(bytes.NewReader(raw))
	if err != nil {
		return "", err
	}
	return p.player.Start(seq, playOptions(opts))
}

// PlayStrip slices a sprite sheet into cols x rows frames shown for
// delayMs each and starts playing them.
func (p *Panel) PlayStrip(raw []byte, cols, rows, delayMs int, opts ...player.PlayOptions) (string, error) {
	if len(raw) == 0 {
		return "", &source.ValidationError{Field: "file", Reason: "empty upload"}
	}
	seq, err := source.DecodeStrip(bytes.NewReader(raw), cols, rows, delayMs)
	if err != nil {
		return "", err
	}
	return p.player.Start(seq, playOptions(opts))
}

func playOptions(opts []player.PlayOptions) player.PlayOptions {
	if len(opts) == 0 {
		return player.PlayOptions{}
	}
	return opts[len(opts)-1]
}

// DecodeCartSheet returns a cart's 128x128 sprite sheet for preview. The
// display is not touched.
func (p *Panel) DecodeCartSheet(raw []byte) (*image.RGBA, error) {
	if len(raw) == 0 {
		return nil, &source.ValidationError{Field: "file", Reason: "empty upload"}
	}
	sheet, err := source.DecodeCart(bytes.NewReader(raw), source.CartOptions{Palette: p.cartPalette})
	if err != nil {
		return nil, err
	}
	if len(sheet.TruncatedRows) > 0 {
		p.log.WithFields(logrus.Fields{
			"function": "DecodeCartSheet",
			"rows":     sheet.TruncatedRows,
		}).Warn("Cart sprite sheet has malformed rows")
	}
	return sheet.Image, nil
}

// StopPlayback stops the running animation, if any, and reports whether
// one was running.
func (p *Panel) StopPlayback() bool {
	return p.player.Stop()
}

func (p *Panel) Settings() display.Settings {
	return p.state.Settings()
}

func (p *Panel) UpdateSettings(u display.SettingsUpdate) display.Settings {
	return p.state.Update(u)
}

func (p *Panel) Snapshot(opts display.SnapshotOptions) ([]byte, error) {
	return p.state.Snapshot(opts)
}

func (p *Panel) Status() Status {
	return Status{
		HardwareAvailable: p.state.Hardware(),
		InitError:         p.initErr,
		Settings:          p.state.Settings(),
		Playback:          p.player.Status(),
	}
}

// Clear shows a black frame. A running animation keeps playing and will
// overwrite it on its next tick.
func (p *Panel) Clear() error {
	return p.state.Commit(screen.Blank(p.width, p.height))
}

// Size is the panel resolution in pixels.
func (p *Panel) Size() (int, int) {
	return p.width, p.height
}

// Close stops playback, waits for the player to exit and releases the
// sink.
func (p *Panel) Close() error {
	p.player.Stop()
	p.player.Wait()
	if c, ok := p.sink.(io.Closer); ok {
		return c.Close()
	}
	return nil
}

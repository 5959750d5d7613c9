package painter

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/png"
	"strings"
	"sync"
	"testing"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/epi13/rgbmatrix-painter/config"
	"github.com/epi13/rgbmatrix-painter/display"
	"github.com/epi13/rgbmatrix-painter/player"
	"github.com/epi13/rgbmatrix-painter/screen"
	"github.com/epi13/rgbmatrix-painter/source"
)

var (
	black = color.RGBA{0, 0, 0, 0xff}
	red   = color.RGBA{0xff, 0, 0, 0xff}
	blue  = color.RGBA{0, 0, 0xff, 0xff}
)

type recordingSink struct {
	mu     sync.Mutex
	pushes int
}

func (s *recordingSink) Push(*image.RGBA) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.pushes++
	return nil
}

func (s *recordingSink) SetBrightness(int) error { return nil }

func (s *recordingSink) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.pushes
}

func testConfig() config.Config {
	cfg := config.Default()
	cfg.Panel = config.Panel{Width: 4, Height: 4}
	cfg.Display.Gamma = 1
	cfg.Display.Brightness = 100
	return cfg
}

func newTestPanel(t *testing.T) (*Panel, *recordingSink, *test.Hook) {
	t.Helper()
	logger, hook := test.NewNullLogger()
	sink := &recordingSink{}
	p, err := New(testConfig(), Options{Sink: sink, Log: logrus.NewEntry(logger)})
	require.NoError(t, err)
	t.Cleanup(func() { p.Close() })
	return p, sink, hook
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, img))
	return buf.Bytes()
}

func current(t *testing.T, p *Panel) *image.RGBA {
	t.Helper()
	raw, err := p.Snapshot(display.SnapshotOptions{})
	require.NoError(t, err)
	img, err := png.Decode(bytes.NewReader(raw))
	require.NoError(t, err)
	rgba := image.NewRGBA(img.Bounds())
	for y := img.Bounds().Min.Y; y < img.Bounds().Max.Y; y++ {
		for x := img.Bounds().Min.X; x < img.Bounds().Max.X; x++ {
			rgba.Set(x, y, img.At(x, y))
		}
	}
	return rgba
}

func TestConvertAndCommit(t *testing.T) {
	t.Run("fit letterboxes", func(t *testing.T) {
		p, sink, _ := newTestPanel(t)
		require.NoError(t, p.ConvertAndCommit(solidPNG(t, 8, 4, red), true))
		img := current(t, p)
		assert.Equal(t, black, img.RGBAAt(0, 0))
		assert.Equal(t, red, img.RGBAAt(0, 1))
		assert.Equal(t, red, img.RGBAAt(3, 2))
		assert.Equal(t, black, img.RGBAAt(3, 3))
		assert.Equal(t, 1, sink.count())
	})

	t.Run("stretch fills", func(t *testing.T) {
		p, _, _ := newTestPanel(t)
		require.NoError(t, p.ConvertAndCommit(solidPNG(t, 8, 4, red), false))
		img := current(t, p)
		assert.Equal(t, red, img.RGBAAt(0, 0))
		assert.Equal(t, red, img.RGBAAt(3, 3))
	})

	t.Run("corrupt bytes leave state alone", func(t *testing.T) {
		p, sink, _ := newTestPanel(t)
		err := p.ConvertAndCommit([]byte("not an image"), true)
		var de *source.DecodeError
		require.True(t, errors.As(err, &de))
		assert.Equal(t, black, current(t, p).RGBAAt(2, 2))
		assert.Zero(t, sink.count())
	})

	t.Run("empty body", func(t *testing.T) {
		p, _, _ := newTestPanel(t)
		var ve *source.ValidationError
		assert.True(t, errors.As(p.ConvertAndCommit(nil, true), &ve))
	})
}

func TestUploadStillUsesGamma(t *testing.T) {
	p, _, _ := newTestPanel(t)
	g := 2.2
	p.UpdateSettings(display.SettingsUpdate{Gamma: &g})

	require.NoError(t, p.UploadStill(solidPNG(t, 4, 4, color.RGBA{64, 128, 0, 0xff})))
	assert.Equal(t, color.RGBA{136, 186, 0, 0xff}, current(t, p).RGBAAt(1, 1))
}

func TestPlayAnimated(t *testing.T) {
	p, sink, _ := newTestPanel(t)

	frames := []*image.Paletted{
		image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{red, blue}),
		image.NewPaletted(image.Rect(0, 0, 4, 4), color.Palette{red, blue}),
	}
	for i := range frames[1].Pix {
		frames[1].Pix[i] = 1
	}
	var buf bytes.Buffer
	require.NoError(t, gif.EncodeAll(&buf, &gif.GIF{Image: frames, Delay: []int{1, 1}}))

	id, err := p.PlayAnimated(buf.Bytes(), player.PlayOptions{Loops: 1})
	require.NoError(t, err)
	p.player.Wait()

	status := p.Status()
	assert.Equal(t, id, status.Playback.RunID)
	assert.False(t, status.Playback.Running)
	assert.Equal(t, uint64(2), status.Playback.Frames)
	assert.Equal(t, 2, sink.count())
	assert.Equal(t, blue, current(t, p).RGBAAt(0, 0))
}

func TestPlayStrip(t *testing.T) {
	p, sink, _ := newTestPanel(t)

	_, err := p.PlayStrip(solidPNG(t, 16, 4, red), 0, 1, 80)
	var ve *source.ValidationError
	require.True(t, errors.As(err, &ve))
	assert.False(t, p.Status().Playback.Running)

	_, err = p.PlayStrip(nil, 4, 1, 80)
	require.True(t, errors.As(err, &ve))

	_, err = p.PlayStrip(solidPNG(t, 16, 4, red), 4, 1, 1, player.PlayOptions{Loops: 1})
	require.NoError(t, err)
	p.player.Wait()
	assert.Equal(t, 4, sink.count())
	assert.Equal(t, source.KindStrip, p.Status().Playback.Kind)
}

func TestStopPlayback(t *testing.T) {
	p, _, _ := newTestPanel(t)
	assert.False(t, p.StopPlayback())
	assert.False(t, p.Status().Playback.Running)

	_, err := p.PlayStrip(solidPNG(t, 8, 4, red), 2, 1, 1000)
	require.NoError(t, err)
	assert.True(t, p.StopPlayback())
	assert.False(t, p.StopPlayback())
}

func TestDecodeCartSheet(t *testing.T) {
	p, sink, hook := newTestPanel(t)

	cart := "__gfx__\n" + strings.Repeat(strings.Repeat("00", 64)+"\n", 128)
	sheet, err := p.DecodeCartSheet([]byte(cart))
	require.NoError(t, err)
	require.Equal(t, image.Rect(0, 0, 128, 128), sheet.Bounds())
	for y := 0; y < 128; y += 17 {
		for x := 0; x < 128; x += 13 {
			assert.Equal(t, black, sheet.RGBAAt(x, y))
		}
	}
	assert.Zero(t, sink.count(), "preview does not touch the display")

	_, err = p.DecodeCartSheet([]byte("__lua__\nprint(1)\n"))
	assert.True(t, errors.Is(err, source.ErrNoGfxSection))

	hook.Reset()
	_, err = p.DecodeCartSheet([]byte("__gfx__\n0g\n"))
	require.NoError(t, err)
	require.NotNil(t, hook.LastEntry())
	assert.Equal(t, logrus.WarnLevel, hook.LastEntry().Level)
	assert.Equal(t, []int{0}, hook.LastEntry().Data["rows"])
}

func TestDecodeCartSheetPalette(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := testConfig()
	cfg.Display.CartPalette = "secret"
	p, err := New(cfg, Options{Sink: &recordingSink{}, Log: logrus.NewEntry(logger)})
	require.NoError(t, err)
	defer p.Close()

	sheet, err := p.DecodeCartSheet([]byte("__gfx__\n07\n"))
	require.NoError(t, err)
	assert.Equal(t, color.RGBAModel.Convert(screen.DefaultPalettes.PICO8Secret[0]), sheet.RGBAAt(0, 0))
	assert.Equal(t, color.RGBAModel.Convert(screen.DefaultPalettes.PICO8Secret[7]), sheet.RGBAAt(1, 0))
	assert.Equal(t, color.RGBAModel.Convert(screen.DefaultPalettes.PICO8Secret[0]), sheet.RGBAAt(5, 5))

	cfg.Display.CartPalette = "gameboy"
	_, err = New(cfg, Options{Sink: &recordingSink{}})
	assert.Error(t, err)
}

func TestUpdateSettingsClamps(t *testing.T) {
	p, _, _ := newTestPanel(t)

	b := 500
	assert.Equal(t, 100, p.UpdateSettings(display.SettingsUpdate{Brightness: &b}).Brightness)
	g := -1.0
	assert.Equal(t, 0.1, p.UpdateSettings(display.SettingsUpdate{Gamma: &g}).Gamma)
	assert.Equal(t, display.Settings{Gamma: 0.1, Brightness: 100}, p.Settings())
}

func TestClear(t *testing.T) {
	p, _, _ := newTestPanel(t)
	require.NoError(t, p.ConvertAndCommit(solidPNG(t, 4, 4, red), true))
	require.NoError(t, p.Clear())
	assert.Equal(t, black, current(t, p).RGBAAt(2, 2))
}

func TestStatusWithoutHardware(t *testing.T) {
	logger, _ := test.NewNullLogger()
	cfg := testConfig()
	cfg.Hardware.Framebuffer = "/nonexistent/fb9"

	p, err := New(cfg, Options{Log: logrus.NewEntry(logger)})
	require.NoError(t, err)
	defer p.Close()

	status := p.Status()
	assert.False(t, status.HardwareAvailable)
	assert.NotEmpty(t, status.InitError)

	cfg.Hardware.Framebuffer = ""
	q, err := New(cfg, Options{Log: logrus.NewEntry(logger)})
	require.NoError(t, err)
	defer q.Close()
	assert.False(t, q.Status().HardwareAvailable)
	assert.Empty(t, q.Status().InitError)
}

func TestSize(t *testing.T) {
	p, _, _ := newTestPanel(t)
	w, h := p.Size()
	assert.Equal(t, []int{4, 4}, []int{w, h})
}

func TestNewRejectsInvalidConfig(t *testing.T) {
	cfg := testConfig()
	cfg.Panel.Width = 0
	_, err := New(cfg)
	assert.Error(t, err)
}

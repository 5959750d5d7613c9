package display

import (
	"encoding/binary"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
)

const defaultSysfsRoot = "/sys/class/graphics"

var ErrFramebufferClosed = errors.New("display: framebuffer is closed")

// FramebufferConfig locates a Linux fbdev device.
type FramebufferConfig struct {
	// Device is the character device, e.g. /dev/fb0.
	Device string
	// Backlight is an optional sysfs brightness file. Its sibling
	// max_brightness gives the scale.
	Backlight string
	// SysfsRoot overrides /sys/class/graphics.
	SysfsRoot string
}

type fbGeometry struct {
	width, height int
	stride        int
	bpp           int
}

// Framebuffer is a Sink writing into a memory-mapped fbdev device. Frames
// are drawn at the top-left corner and clipped to the visible area.
type Framebuffer struct {
	mu   sync.Mutex
	geom fbGeometry
	mem  []byte

	unmap func() error

	backlight    string
	maxBacklight int
}

func readSysfsInt(path string) (int, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return 0, err
	}
	return strconv.Atoi(strings.TrimSpace(string(raw)))
}

// readGeometry reads an fbdev's size from its sysfs directory.
func readGeometry(dir string) (fbGeometry, error) {
	var g fbGeometry

	raw, err := os.ReadFile(filepath.Join(dir, "virtual_size"))
	if err != nil {
		return g, err
	}
	w, h, ok := strings.Cut(strings.TrimSpace(string(raw)), ",")
	if !ok {
		return g, fmt.Errorf("display: malformed virtual_size %q", raw)
	}
	if g.width, err = strconv.Atoi(w); err != nil {
		return g, fmt.Errorf("display: malformed virtual_size %q: %w", raw, err)
	}
	if g.height, err = strconv.Atoi(h); err != nil {
		return g, fmt.Errorf("display: malformed virtual_size %q: %w", raw, err)
	}

	if g.bpp, err = readSysfsInt(filepath.Join(dir, "bits_per_pixel")); err != nil {
		return g, err
	}
	switch g.bpp {
	case 16, 24, 32:
	default:
		return g, fmt.Errorf("display: unsupported pixel depth %d", g.bpp)
	}

	g.stride, err = readSysfsInt(filepath.Join(dir, "stride"))
	if err != nil || g.stride <= 0 {
		g.stride = g.width * g.bpp / 8
	}
	if g.width <= 0 || g.height <= 0 {
		return g, fmt.Errorf("display: invalid framebuffer size %dx%d", g.width, g.height)
	}
	return g, nil
}

// encodeFrame writes img into dst in the device pixel format: RGB565 for
// 16 bpp, BGR for 24 bpp and BGRX for 32 bpp, all little endian.
func encodeFrame(dst []byte, g fbGeometry, img *image.RGBA) error {
	if len(dst) < g.stride*g.height {
		return fmt.Errorf("display: framebuffer mapping too small: %d < %d", len(dst), g.stride*g.height)
	}

	b := img.Bounds()
	w, h := min(b.Dx(), g.width), min(b.Dy(), g.height)
	for y := 0; y < h; y++ {
		row := dst[y*g.stride:]
		for x := 0; x < w; x++ {
			c := img.RGBAAt(b.Min.X+x, b.Min.Y+y)
			switch g.bpp {
			case 16:
				v := uint16(c.R>>3)<<11 | uint16(c.G>>2)<<5 | uint16(c.B>>3)
				binary.LittleEndian.PutUint16(row[x*2:], v)
			case 24:
				row[x*3+0], row[x*3+1], row[x*3+2] = c.B, c.G, c.R
			case 32:
				row[x*4+0], row[x*4+1], row[x*4+2], row[x*4+3] = c.B, c.G, c.R, 0xFF
			default:
				return fmt.Errorf("display: unsupported pixel depth %d", g.bpp)
			}
		}
	}
	return nil
}

func (fb *Framebuffer) Push(img *image.RGBA) error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.mem == nil {
		return ErrFramebufferClosed
	}
	return encodeFrame(fb.mem, fb.geom, img)
}

// SetBrightness writes percent of max_brightness to the backlight file.
// Without a backlight it does nothing.
func (fb *Framebuffer) SetBrightness(percent int) error {
	if fb.backlight == "" {
		return nil
	}
	v := (ClampBrightness(percent)*fb.maxBacklight + 50) / 100
	return os.WriteFile(fb.backlight, []byte(strconv.Itoa(v)), 0)
}

func (fb *Framebuffer) Close() error {
	fb.mu.Lock()
	defer fb.mu.Unlock()
	if fb.mem == nil {
		return nil
	}
	fb.mem = nil
	if fb.unmap == nil {
		return nil
	}
	return fb.unmap()
}

func (fb *Framebuffer) Size() (int, int) {
	return fb.geom.width, fb.geom.height
}

func (fb *Framebuffer) useBacklight(path string) {
	if path == "" {
		return
	}
	fb.backlight = path
	fb.maxBacklight = 255
	if v, err := readSysfsInt(filepath.Join(filepath.Dir(path), "max_brightness")); err == nil && v > 0 {
		fb.maxBacklight = v
	}
}

package display

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"golang.org/x/sys/unix"
)

// OpenFramebuffer maps cfg.Device read-write. The geometry comes from the
// device's sysfs entry.
func OpenFramebuffer(cfg FramebufferConfig) (*Framebuffer, error) {
	if cfg.Device == "" {
		return nil, errors.New("display: no framebuffer device configured")
	}
	root := cfg.SysfsRoot
	if root == "" {
		root = defaultSysfsRoot
	}

	geom, err := readGeometry(filepath.Join(root, filepath.Base(cfg.Device)))
	if err != nil {
		return nil, fmt.Errorf("display: read %s geometry: %w", cfg.Device, err)
	}

	f, err := os.OpenFile(cfg.Device, os.O_RDWR, 0)
	if err != nil {
		return nil, fmt.Errorf("display: open %s: %w", cfg.Device, err)
	}

	mem, err := unix.Mmap(int(f.Fd()), 0, geom.stride*geom.height, unix.PROT_READ|unix.PROT_WRITE, unix.MAP_SHARED)
	if err != nil {
		f.Close()
		return nil, fmt.Errorf("display: mmap %s: %w", cfg.Device, err)
	}

	fb := &Framebuffer{
		geom: geom,
		mem:  mem,
		unmap: func() error {
			return errors.Join(unix.Munmap(mem), f.Close())
		},
	}
	fb.useBacklight(cfg.Backlight)
	return fb, nil
}

//go:build !linux

package display

import (
	"fmt"
	"runtime"
)

func OpenFramebuffer(cfg FramebufferConfig) (*Framebuffer, error) {
	return nil, fmt.Errorf("display: framebuffer sink not supported on %s", runtime.GOOS)
}

package main

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
)

// streamer posts PNG files to a painterd /frame endpoint.
type streamer struct {
	host   string
	fit    bool
	client *http.Client
	log    *logrus.Entry
}

func (s *streamer) frameURL() string {
	fit := "0"
	if s.fit {
		fit = "1"
	}
	return strings.TrimRight(s.host, "/") + "/frame?fit=" + fit
}

func (s *streamer) send(ctx context.Context, path string) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.frameURL(), bytes.NewReader(raw))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "image/png")

	resp, err := s.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return fmt.Errorf("%s: %s: %s", path, resp.Status, strings.TrimSpace(string(msg)))
	}
	return nil
}

// pngFiles lists the .png files in dir in name order.
func pngFiles(dir string) ([]string, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.png"))
	if err != nil {
		return nil, err
	}
	sort.Strings(files)
	return files, nil
}

// frameInterval is the pause between frames for fps, never below 1ms.
func frameInterval(fps int) time.Duration {
	ms := 1000 / max(1, fps)
	return time.Duration(max(1, ms)) * time.Millisecond
}

// stream sends files in order, pausing between frames, once or until ctx
// is cancelled when loop is set.
func (s *streamer) stream(ctx context.Context, files []string, fps int, loop bool) error {
	interval := frameInterval(fps)
	for pass := 0; ; pass++ {
		for _, path := range files {
			if err := s.send(ctx, path); err != nil {
				return err
			}
			s.log.WithFields(logrus.Fields{
				"file": filepath.Base(path),
				"pass": pass,
			}).Debug("Frame sent")

			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(interval):
			}
		}
		if !loop {
			return nil
		}
	}
}

// Package server exposes a Panel over HTTP.
package server

import (
	"image"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	painter "github.com/epi13/rgbmatrix-painter"
	"github.com/epi13/rgbmatrix-painter/display"
	"github.com/epi13/rgbmatrix-painter/player"
)

// Panel is the part of painter.Panel the HTTP routes drive.
type Panel interface {
	ConvertAndCommit(raw []byte, fit bool) error
	UploadStill(raw []byte) error
	PlayAnimated(raw []byte, opts ...player.PlayOptions) (string, error)
	PlayStrip(raw []byte, cols, rows, delayMs int, opts ...player.PlayOptions) (string, error)
	DecodeCartSheet(raw []byte) (*image.RGBA, error)
	StopPlayback() bool
	Settings() display.Settings
	UpdateSettings(u display.SettingsUpdate) display.Settings
	Snapshot(opts display.SnapshotOptions) ([]byte, error)
	Status() painter.Status
	Clear() error
}

type Options struct {
	// MaxUploadBytes caps every request body. 0 means 16 MiB.
	MaxUploadBytes int64
	Log            *logrus.Entry
}

type Server struct {
	panel     Panel
	maxUpload int64
	log       *logrus.Entry
	mux       *http.ServeMux
}

func New(panel Panel, options ...Options) *Server {
	s := &Server{
		panel:     panel,
		maxUpload: 16 << 20,
		log:       logrus.NewEntry(logrus.StandardLogger()),
		mux:       http.NewServeMux(),
	}
	for _, opts := range options {
		if opts.MaxUploadBytes > 0 {
			s.maxUpload = opts.MaxUploadBytes
		}
		if opts.Log != nil {
			s.log = opts.Log
		}
	}
	s.routes()
	return s
}

func (s *Server) routes() {
	s.mux.HandleFunc("POST /frame", s.handleFrame)
	s.mux.HandleFunc("POST /upload_image", s.handleUploadImage)
	s.mux.HandleFunc("POST /gif", s.handleGIF)
	s.mux.HandleFunc("POST /strip", s.handleStrip)
	s.mux.HandleFunc("POST /p8_sheet", s.handleCartSheet)
	s.mux.HandleFunc("POST /stop", s.handleStop)
	s.mux.HandleFunc("POST /clear", s.handleClear)
	s.mux.HandleFunc("GET /settings", s.handleGetSettings)
	s.mux.HandleFunc("POST /settings", s.handleSetSettings)
	s.mux.HandleFunc("GET /snapshot", s.handleSnapshot)
	s.mux.HandleFunc("GET /status", s.handleStatus)
}

// ServeHTTP caps the request body and logs every request.
func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	start := time.Now()
	rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
	r.Body = http.MaxBytesReader(rec, r.Body, s.maxUpload)

	s.mux.ServeHTTP(rec, r)

	entry := s.log.WithFields(logrus.Fields{
		"method":   r.Method,
		"path":     r.URL.Path,
		"status":   rec.status,
		"duration": time.Since(start).String(),
		"remote":   r.RemoteAddr,
	})
	if rec.status >= http.StatusInternalServerError {
		entry.Warn("Request failed")
	} else {
		entry.Debug("Request served")
	}
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(status int) {
	r.status = status
	r.ResponseWriter.WriteHeader(status)
}

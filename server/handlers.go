package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"image/png"
	"io"
	"math"
	"net/http"
	"strconv"
	"strings"

	"github.com/epi13/rgbmatrix-painter/display"
	"github.com/epi13/rgbmatrix-painter/player"
)

// handleFrame takes a raw image body. fit=1 letterboxes it through the
// full pipeline; anything else stretches it.
func (s *Server) handleFrame(w http.ResponseWriter, r *http.Request) {
	raw, err := io.ReadAll(r.Body)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	fit := r.URL.Query().Get("fit") == "1"
	if err := s.panel.ConvertAndCommit(raw, fit); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, "ok")
}

func (s *Server) handleUploadImage(w http.ResponseWriter, r *http.Request) {
	raw, err := s.formFile(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	if err := s.panel.UploadStill(raw); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, "ok")
}

func (s *Server) handleGIF(w http.ResponseWriter, r *http.Request) {
	raw, err := s.formFile(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	loops, err := formInt(r, "loops", 0)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	id, err := s.panel.PlayAnimated(raw, player.PlayOptions{Loops: loops})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, playing{Status: "playing", RunID: id})
}

func (s *Server) handleStrip(w http.ResponseWriter, r *http.Request) {
	raw, err := s.formFile(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var cols, rows, delay, loops int
	for _, p := range []struct {
		name string
		dst  *int
		def  int
	}{
		{"cols", &cols, 8},
		{"rows", &rows, 1},
		{"delay", &delay, 80},
		{"loops", &loops, 0},
	} {
		if *p.dst, err = formInt(r, p.name, p.def); err != nil {
			s.fail(w, r, err)
			return
		}
	}

	id, err := s.panel.PlayStrip(raw, cols, rows, delay, player.PlayOptions{Loops: loops})
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, playing{Status: "playing", RunID: id})
}

// handleCartSheet returns the cart's sprite sheet as PNG without showing
// it on the panel.
func (s *Server) handleCartSheet(w http.ResponseWriter, r *http.Request) {
	raw, err := s.formFile(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	sheet, err := s.panel.DecodeCartSheet(raw)
	if err != nil {
		s.fail(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, sheet); err != nil {
		s.fail(w, r, err)
		return
	}
	writePNG(w, buf.Bytes())
}

func (s *Server) handleStop(w http.ResponseWriter, r *http.Request) {
	s.panel.StopPlayback()
	writeText(w, "stopped")
}

func (s *Server) handleClear(w http.ResponseWriter, r *http.Request) {
	if err := s.panel.Clear(); err != nil {
		s.fail(w, r, err)
		return
	}
	writeText(w, "ok")
}

func (s *Server) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.panel.Settings())
}

// handleSetSettings applies whichever of gamma and brightness parse. A
// body that is not a JSON object, or a field of the wrong type, is
// ignored rather than rejected.
func (s *Server) handleSetSettings(w http.ResponseWriter, r *http.Request) {
	var body map[string]interface{}
	dec := json.NewDecoder(r.Body)
	dec.UseNumber()
	if err := dec.Decode(&body); err != nil {
		var me *http.MaxBytesError
		if errors.As(err, &me) {
			s.fail(w, r, err)
			return
		}
		body = nil
	}

	var u display.SettingsUpdate
	if g, ok := parseFloat(body["gamma"]); ok {
		u.Gamma = &g
	}
	if b, ok := parseInt(body["brightness"]); ok {
		u.Brightness = &b
	}
	writeJSON(w, s.panel.UpdateSettings(u))
}

func (s *Server) handleSnapshot(w http.ResponseWriter, r *http.Request) {
	var opts display.SnapshotOptions
	q := r.URL.Query()
	if v := q.Get("zoom"); v != "" {
		zoom, err := strconv.Atoi(v)
		if err != nil || zoom < 0 {
			s.fail(w, r, &paramError{name: "zoom", value: v})
			return
		}
		opts.Zoom = zoom
	}
	switch v := q.Get("crt"); v {
	case "", "0", "false":
	case "1", "true":
		opts.CRT = true
	default:
		s.fail(w, r, &paramError{name: "crt", value: v})
		return
	}

	raw, err := s.panel.Snapshot(opts)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writePNG(w, raw)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, s.panel.Status())
}

type playing struct {
	Status string `json:"status"`
	RunID  string `json:"run_id"`
}

// formFile reads the multipart "file" field.
func (s *Server) formFile(r *http.Request) ([]byte, error) {
	if err := r.ParseMultipartForm(s.maxUpload); err != nil {
		var me *http.MaxBytesError
		if errors.As(err, &me) {
			return nil, err
		}
		return nil, errNoFile
	}
	f, _, err := r.FormFile("file")
	if err != nil {
		return nil, errNoFile
	}
	defer f.Close()
	return io.ReadAll(f)
}

func formInt(r *http.Request, name string, def int) (int, error) {
	v := strings.TrimSpace(r.FormValue(name))
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		return 0, &paramError{name: name, value: v}
	}
	return n, nil
}

func parseFloat(v interface{}) (float64, bool) {
	switch v := v.(type) {
	case json.Number:
		f, err := v.Float64()
		return f, err == nil
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// parseInt accepts integers, numeric strings and numbers with a
// fractional part, which are truncated toward zero. Values outside the
// int32 range saturate so that later clamping keeps their sign.
func parseInt(v interface{}) (int, bool) {
	switch v := v.(type) {
	case json.Number:
		f, err := v.Float64()
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return saturate(f), true
	case string:
		n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil && !errors.Is(err, strconv.ErrRange) {
			return 0, false
		}
		return saturate(float64(n)), true
	}
	return 0, false
}

func saturate(f float64) int {
	switch {
	case math.IsNaN(f):
		return 0
	case f >= math.MaxInt32:
		return math.MaxInt32
	case f <= math.MinInt32:
		return math.MinInt32
	}
	return int(f)
}

func writeText(w http.ResponseWriter, msg string) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	io.WriteString(w, msg)
}

func writeJSON(w http.ResponseWriter, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(v)
}

func writePNG(w http.ResponseWriter, raw []byte) {
	w.Header().Set("Content-Type", "image/png")
	w.Header().Set("Content-Length", strconv.Itoa(len(raw)))
	w.WriteHeader(http.StatusOK)
	w.Write(raw)
}

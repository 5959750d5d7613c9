package server

import (
	"errors"
	"fmt"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/epi13/rgbmatrix-painter/source"
)

// paramError is a malformed query or form value.
type paramError struct {
	name  string
	value string
}

func (e *paramError) Error() string {
	return fmt.Sprintf("invalid %s %q", e.name, e.value)
}

var errNoFile = errors.New("no file")

func statusFor(err error) int {
	var (
		pe *paramError
		ve *source.ValidationError
		de *source.DecodeError
		me *http.MaxBytesError
	)
	switch {
	case errors.As(err, &me):
		return http.StatusRequestEntityTooLarge
	case errors.Is(err, errNoFile), errors.As(err, &pe), errors.As(err, &ve):
		return http.StatusBadRequest
	case errors.As(err, &de):
		return http.StatusUnprocessableEntity
	}
	return http.StatusInternalServerError
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.log.WithFields(logrus.Fields{
			"path":  r.URL.Path,
			"error": err.Error(),
		}).Error("Handler error")
	}
	http.Error(w, err.Error(), status)
}

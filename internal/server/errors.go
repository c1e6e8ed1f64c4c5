package server

import (
	"bytes"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/pspoerri/tra2kml/internal/coord"
	"github.com/pspoerri/tra2kml/internal/encode"
	"github.com/pspoerri/tra2kml/internal/export"
	"github.com/pspoerri/tra2kml/internal/logging"
	"github.com/pspoerri/tra2kml/internal/preview"
	"github.com/pspoerri/tra2kml/internal/tra"
	"github.com/pspoerri/tra2kml/internal/track"
)

// errorResponse is the body of every non-2xx response.
type errorResponse struct {
	Code int    `json:"code"`
	Text string `json:"text"`
}

// requestError marks malformed request bodies and parameters.
type requestError struct {
	msg string
	err error
}

func (e *requestError) Error() string {
	if e.err == nil {
		return e.msg
	}
	return e.msg + ": " + e.err.Error()
}

func (e *requestError) Unwrap() error { return e.err }

func badRequest(msg string, err error) error {
	return &requestError{msg: msg, err: err}
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var (
		maxBytes    *http.MaxBytesError
		reqErr      *requestError
		unsupported *coord.UnsupportedSystemError
		transform   *coord.TransformError
		index       *track.IndexError
		truncated   *tra.TruncatedError
	)
	switch {
	case errors.As(err, &maxBytes):
		return http.StatusRequestEntityTooLarge
	case errors.As(err, &transform):
		return http.StatusUnprocessableEntity
	case errors.As(err, &reqErr),
		errors.As(err, &unsupported),
		errors.As(err, &index),
		errors.As(err, &truncated),
		errors.Is(err, track.ErrEmptyInput),
		errors.Is(err, export.ErrEmptySelection),
		errors.Is(err, export.ErrEmptyBatch),
		errors.Is(err, export.ErrUnsupportedFormat),
		errors.Is(err, encode.ErrUnsupportedFormat),
		errors.Is(err, tra.ErrEmptyFile),
		errors.Is(err, tra.ErrNoElements),
		errors.Is(err, preview.ErrNothingToDraw):
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}

// writeJSON encodes v before the status line goes out, so an encoding
// failure still reaches the client as a 500.
func (s *Server) writeJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	var buf bytes.Buffer
	if err := json.NewEncoder(&buf).Encode(v); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to encode response", err, slogPath(r))
		status = http.StatusInternalServerError
		buf.Reset()
		_ = json.NewEncoder(&buf).Encode(errorResponse{Code: status, Text: "internal server error"})
	}
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if _, err := w.Write(buf.Bytes()); err != nil {
		logging.LogError(logging.FromContext(r.Context()), "failed to write response", err, slogPath(r))
	}
}

func (s *Server) writeError(w http.ResponseWriter, r *http.Request, status int, text string) {
	s.writeJSON(w, r, status, errorResponse{Code: status, Text: text})
}

// fail reports err with the status its type maps to. Internal errors are
// logged and not echoed to the client.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.LogError(logging.FromContext(r.Context()), "request failed", err, slogPath(r))
		s.writeError(w, r, status, "internal server error")
		return
	}
	s.writeError(w, r, status, err.Error())
}

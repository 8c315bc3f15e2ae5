// Package httputil holds the JSON response helpers shared by every HTTP surface.
package httputil

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"strconv"
	"time"

	dErrors "mosaic/pkg/domain-errors"
)

// ErrorResponse is the error body written by every service. The gateway reads
// the same shape back when a backing service fails.
type ErrorResponse struct {
	Timestamp time.Time `json:"timestamp"`
	Path      string    `json:"path"`
	Status    int       `json:"status"`
	Message   string    `json:"message"`
}

// WriteJSON writes v as a JSON body with the given status.
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v == nil {
		return
	}
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError maps err to a status and writes an ErrorResponse. Errors that are
// not domain errors, and internal domain errors, never leak their message.
func WriteError(w http.ResponseWriter, r *http.Request, err error) {
	status := http.StatusInternalServerError
	message := "internal error"
	if de, ok := dErrors.As(err); ok {
		status = de.HTTPStatus()
		if de.Code != dErrors.CodeInternal {
			message = de.Message
		}
	}
	WriteJSON(w, status, ErrorResponse{
		Timestamp: time.Now().UTC(),
		Path:      r.URL.Path,
		Status:    status,
		Message:   message,
	})
}

// DecodeJSON decodes the request body into v, rejecting empty and malformed bodies
// with a bad-request domain error.
func DecodeJSON(r *http.Request, v any) error {
	if r.Body == nil {
		return dErrors.New(dErrors.CodeBadRequest, "request body is required")
	}
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		if errors.Is(err, io.EOF) {
			return dErrors.New(dErrors.CodeBadRequest, "request body is required")
		}
		return dErrors.Wrap(err, dErrors.CodeBadRequest, "invalid request body")
	}
	return nil
}

// IntParam parses a required integer value taken from a path or query parameter.
// A malformed value is a bad request; range checks belong to the service.
func IntParam(name, raw string) (int, error) {
	v, err := strconv.Atoi(raw)
	if err != nil {
		return 0, dErrors.Wrap(err, dErrors.CodeBadRequest, "Type mismatch for "+name)
	}
	return v, nil
}

// OptionalIntQuery parses an optional integer query parameter, returning def when absent.
func OptionalIntQuery(r *http.Request, name string, def int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return def, nil
	}
	return IntParam(name, raw)
}

// RequiredIntQuery parses a mandatory integer query parameter.
func RequiredIntQuery(r *http.Request, name string) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return 0, dErrors.New(dErrors.CodeBadRequest, "Required query parameter '"+name+"' is not present")
	}
	return IntParam(name, raw)
}

// Package apijson holds the JSON conventions shared by the RSVP endpoints and their clients.
//
// Error bodies carry a human-readable "error" field; clients also accept "message".
package apijson

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
)

// ErrorBody is the JSON shape of every error response
type ErrorBody struct {
	Error   string `json:"error,omitempty"`
	Message string `json:"message,omitempty"`
}

// WriteJSON writes v with the given status
func WriteJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

// WriteError writes an error body with the given status
func WriteError(w http.ResponseWriter, status int, msg string) {
	WriteJSON(w, status, ErrorBody{Error: msg})
}

// DecodeJSON reads exactly one JSON object of at most maxBytes into dst.
func DecodeJSON(w http.ResponseWriter, r *http.Request, maxBytes int64, dst any) error {
	if r.Body == nil {
		return errors.New("empty body")
	}
	defer func() { _ = r.Body.Close() }()

	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return err
	}
	if err := dec.Decode(&struct{}{}); err != io.EOF {
		return errors.New("extra data after JSON object")
	}
	return nil
}

// ErrorMessage derives a human-readable message from an error response body:
// the "error" field, else the "message" field, else "HTTP <status>".
func ErrorMessage(body []byte, status int) string {
	var eb ErrorBody
	if err := json.Unmarshal(body, &eb); err == nil {
		if msg := strings.TrimSpace(eb.Error); msg != "" {
			return msg
		}
		if msg := strings.TrimSpace(eb.Message); msg != "" {
			return msg
		}
	}
	return fmt.Sprintf("HTTP %d", status)
}

// IsSuccess reports whether status is 2xx
func IsSuccess(status int) bool {
	return status >= 200 && status < 300
}

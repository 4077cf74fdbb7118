package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// ErrUnavailable wraps transport failures: the backend could not be reached
// or the response could not be read.
var ErrUnavailable = errors.New("backend unavailable")

// APIError is a non-2xx backend response.
type APIError struct {
	Status  int
	Message string
	Path    string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("backend %s: %d %s", e.Path, e.Status, e.Message)
}

func newAPIError(status int, path string, body []byte) *APIError {
	return &APIError{Status: status, Message: extractMessage(status, body), Path: path}
}

// extractMessage looks for "message" then "error" in a JSON body. Either may
// be a string or a list of strings. Falls back to the status text.
func extractMessage(status int, body []byte) string {
	var payload struct {
		Message json.RawMessage `json:"message"`
		Error   json.RawMessage `json:"error"`
	}
	if err := json.Unmarshal(body, &payload); err == nil {
		if msg := textOf(payload.Message); msg != "" {
			return msg
		}
		if msg := textOf(payload.Error); msg != "" {
			return msg
		}
	}
	if text := http.StatusText(status); text != "" {
		return text
	}
	return fmt.Sprintf("status %d", status)
}

func textOf(raw json.RawMessage) string {
	if len(raw) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var list []string
	if err := json.Unmarshal(raw, &list); err == nil {
		return strings.TrimSpace(strings.Join(list, "; "))
	}
	var nested struct {
		Message string `json:"message"`
	}
	if err := json.Unmarshal(raw, &nested); err == nil {
		return strings.TrimSpace(nested.Message)
	}
	return ""
}

// StatusOf returns the HTTP status of an APIError, or 0.
func StatusOf(err error) int {
	var apiErr *APIError
	if errors.As(err, &apiErr) {
		return apiErr.Status
	}
	return 0
}

func IsNotFound(err error) bool { return StatusOf(err) == http.StatusNotFound }

func IsUnauthorized(err error) bool {
	s := StatusOf(err)
	return s == http.StatusUnauthorized || s == http.StatusForbidden
}

// UserMessage turns any client error into text fit for a notification.
func UserMessage(err error) string {
	var apiErr *APIError
	switch {
	case err == nil:
		return ""
	case errors.As(err, &apiErr):
		return apiErr.Message
	case errors.Is(err, ErrUnavailable):
		return "The server could not be reached. Please try again."
	case errors.Is(err, context.DeadlineExceeded):
		return "The server took too long to respond. Please try again."
	case errors.Is(err, context.Canceled):
		return "The request was cancelled."
	default:
		return "Something went wrong. Please try again."
	}
}

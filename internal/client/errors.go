package client

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// Messages the server uses for session failures.
const (
	msgIdleTimeout = "Session expired due to inactivity"
)

// FieldError is one validation failure reported by the server.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// APIError is a non-2xx response from the server.
type APIError struct {
	StatusCode int          `json:"-"`
	Message    string       `json:"error"`
	Fields     []FieldError `json:"errors,omitempty"`
	TraceID    string       `json:"trace_id,omitempty"`
}

func (e *APIError) Error() string {
	var b strings.Builder
	fmt.Fprintf(&b, "%d %s", e.StatusCode, e.Message)
	for _, f := range e.Fields {
		fmt.Fprintf(&b, "; %s: %s", f.Field, f.Message)
	}
	return b.String()
}

// IsNotFound reports a 404.
func (e *APIError) IsNotFound() bool { return e.StatusCode == http.StatusNotFound }

// IsUnauthorized reports a 401.
func (e *APIError) IsUnauthorized() bool { return e.StatusCode == http.StatusUnauthorized }

// IsForbidden reports a 403.
func (e *APIError) IsForbidden() bool { return e.StatusCode == http.StatusForbidden }

// IsIdleTimeout reports that the server closed the session for inactivity.
// Refreshing cannot recover from this; the user has to log in again.
func (e *APIError) IsIdleTimeout() bool {
	return e.StatusCode == http.StatusUnauthorized && e.Message == msgIdleTimeout
}

func parseAPIError(status int, body []byte) *APIError {
	apiErr := &APIError{StatusCode: status}
	if err := json.Unmarshal(body, apiErr); err != nil || apiErr.Message == "" {
		apiErr.Message = http.StatusText(status)
	}
	return apiErr
}

package shared

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/redact"
)

// FieldError describes one invalid request field.
type FieldError struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

// ErrorResponse is the body of every non-2xx JSON response.
type ErrorResponse struct {
	Error   string       `json:"error"`
	Errors  []FieldError `json:"errors,omitempty"`
	TraceID string       `json:"trace_id,omitempty"`
}

// MessageResponse is a body carrying only a human-readable message.
type MessageResponse struct {
	Message string `json:"message"`
}

// ResponseOption adjusts RespondWithErrorAndLog.
type ResponseOption func(*errorOptions)

type errorOptions struct {
	warn   bool
	fields []FieldError
}

// WithElevatedLogLevel logs a 4xx at WARN instead of DEBUG.
func WithElevatedLogLevel() ResponseOption {
	return func(o *errorOptions) { o.warn = true }
}

// WithFieldErrors adds per-field details to the body.
func WithFieldErrors(errs []FieldError) ResponseOption {
	return func(o *errorOptions) { o.fields = errs }
}

// RespondWithJSON encodes data as the response body with the given status.
func RespondWithJSON(w http.ResponseWriter, r *http.Request, status int, data any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Error("failed to encode JSON response", slog.Any("error", err))
	}
}

// RespondWithError writes an ErrorResponse without logging a cause.
func RespondWithError(w http.ResponseWriter, r *http.Request, status int, message string) {
	RespondWithErrorAndLog(w, r, status, message, nil)
}

// RespondWithErrorAndLog writes an ErrorResponse carrying userMessage and the
// request's trace ID, and logs err in redacted form. 5xx log at ERROR, 429 and
// elevated 4xx at WARN, everything else at DEBUG.
func RespondWithErrorAndLog(
	w http.ResponseWriter,
	r *http.Request,
	status int,
	userMessage string,
	err error,
	opts ...ResponseOption,
) {
	var o errorOptions
	for _, opt := range opts {
		opt(&o)
	}
	traceID := GetTraceID(r.Context())

	level := slog.LevelDebug
	if status >= http.StatusInternalServerError {
		level = slog.LevelError
	} else if status == http.StatusTooManyRequests || (o.warn && status >= http.StatusBadRequest) {
		level = slog.LevelWarn
	}

	attrs := []slog.Attr{
		slog.String("trace_id", traceID),
		slog.String("method", r.Method),
		slog.String("path", r.URL.Path),
		slog.Int("status_code", status),
		slog.String("user_message", userMessage),
	}
	if err != nil {
		attrs = append(attrs,
			slog.String("error", redact.Error(err)),
			slog.String("error_type", fmt.Sprintf("%T", err)))
	}
	logger.FromContextOrDefault(r.Context(), slog.Default()).
		LogAttrs(r.Context(), level, "API error response", attrs...)

	RespondWithJSON(w, r, status, ErrorResponse{
		Error:   userMessage,
		Errors:  o.fields,
		TraceID: traceID,
	})
}

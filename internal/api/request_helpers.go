package api

import (
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/api/shared"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/service"
)

// Bounds for the due-soon look-ahead, in hours.
const (
	defaultDueSoonHours = 72
	maxDueSoonHours     = 720
)

// getPrincipal extracts the authenticated caller placed in the context by the
// authentication middleware and writes a 401 when it is missing.
func getPrincipal(w http.ResponseWriter, r *http.Request) (*service.Principal, bool) {
	p, ok := shared.GetPrincipal(r.Context())
	if !ok || p.UserID == uuid.Nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Warn("principal not found or invalid in request context")
		HandleAPIError(w, r, domain.ErrUnauthorized, "")
		return nil, false
	}
	return p, true
}

// getPathUUID extracts a UUID from the URL path parameters.
//
// Returns:
//   - (uuid.UUID, nil): The parsed UUID if valid
//   - (uuid.UUID{}, error): A validation error if the parameter is missing or malformed
func getPathUUID(r *http.Request, paramName string) (uuid.UUID, error) {
	pathParam := chi.URLParam(r, paramName)
	if pathParam == "" {
		return uuid.Nil, domain.NewValidationError(paramName, "is required", domain.ErrValidation)
	}

	id, err := uuid.Parse(pathParam)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(paramName, "has invalid format", domain.ErrInvalidID)
	}

	return id, nil
}

// handlePrincipalAndPathUUID is a composite helper that extracts both the principal
// and a UUID path parameter. It writes an error response if either extraction fails.
func handlePrincipalAndPathUUID(
	w http.ResponseWriter,
	r *http.Request,
	paramName string,
) (*service.Principal, uuid.UUID, bool) {
	p, ok := getPrincipal(w, r)
	if !ok {
		return nil, uuid.Nil, false
	}

	pathID, err := getPathUUID(r, paramName)
	if err != nil {
		logger.FromContextOrDefault(r.Context(), slog.Default()).
			Debug("invalid "+paramName, slog.String("value", chi.URLParam(r, paramName)))
		HandleAPIError(w, r, err, "")
		return nil, uuid.Nil, false
	}

	return p, pathID, true
}

// parseTaskFilter reads status, due_before, due_after, limit and offset from the query.
func parseTaskFilter(q url.Values) (domain.TaskFilter, error) {
	var f domain.TaskFilter

	if s := q.Get("status"); s != "" {
		f.Status = domain.TaskStatus(s)
	}

	var err error
	if f.DueBefore, err = parseTimeParam(q, "due_before"); err != nil {
		return f, err
	}
	if f.DueAfter, err = parseTimeParam(q, "due_after"); err != nil {
		return f, err
	}

	if f.Limit, f.Offset, err = parsePagination(q); err != nil {
		return f, err
	}

	return f, f.Validate()
}

// parsePagination reads non-negative limit and offset query parameters.
func parsePagination(q url.Values) (limit, offset int, err error) {
	if limit, err = parseIntParam(q, "limit"); err != nil {
		return 0, 0, err
	}
	if offset, err = parseIntParam(q, "offset"); err != nil {
		return 0, 0, err
	}
	return limit, offset, nil
}

// parseDueSoonWindow reads within_hours (1..720, default 72).
func parseDueSoonWindow(q url.Values) (time.Duration, error) {
	raw := q.Get("within_hours")
	if raw == "" {
		return defaultDueSoonHours * time.Hour, nil
	}
	hours, err := strconv.Atoi(raw)
	if err != nil || hours < 1 || hours > maxDueSoonHours {
		return 0, domain.NewValidationError("within_hours", "must be between 1 and 720", domain.ErrInvalidFormat)
	}
	return time.Duration(hours) * time.Hour, nil
}

func parseIntParam(q url.Values, name string) (int, error) {
	raw := q.Get(name)
	if raw == "" {
		return 0, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < 0 {
		return 0, domain.NewValidationError(name, "must be a non-negative integer", domain.ErrInvalidFormat)
	}
	return n, nil
}

// parseTimeParam accepts RFC 3339 timestamps or plain YYYY-MM-DD dates.
func parseTimeParam(q url.Values, name string) (*time.Time, error) {
	raw := q.Get(name)
	if raw == "" {
		return nil, nil
	}
	for _, layout := range []string{time.RFC3339, time.DateOnly} {
		if t, err := time.Parse(layout, raw); err == nil {
			t = t.UTC()
			return &t, nil
		}
	}
	return nil, domain.NewValidationError(name, "must be an RFC 3339 timestamp or YYYY-MM-DD date", domain.ErrInvalidFormat)
}

package api

import (
	"net/http"

	"github.com/phrazzld/taskman/internal/api/shared"
)

// Health answers liveness probes with a plain "OK".
func Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/plain; charset=utf-8")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte("OK"))
}

// Welcome returns the API root handler reporting version.
func Welcome(version string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		shared.RespondWithJSON(w, r, http.StatusOK, WelcomeResponse{
			Message: "Welcome to the Task Management API",
			Version: version,
		})
	}
}

// NotFound is the JSON 404 for unknown routes.
func NotFound(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusNotFound, "Not found")
}

// MethodNotAllowed is the JSON 405 for known routes hit with the wrong method.
func MethodNotAllowed(w http.ResponseWriter, r *http.Request) {
	shared.RespondWithError(w, r, http.StatusMethodNotAllowed, "Method not allowed")
}

// Package api contains the HTTP handlers for authentication, the caller's own
// tasks and the admin views. Handlers decode and validate request DTOs, call
// the service layer, and map errors to status codes through HandleAPIError so
// that internal details never reach a response body.
package api

package api

import (
	"errors"
	"net/http"
	"strings"

	"github.com/go-playground/validator/v10"
	"github.com/phrazzld/taskman/internal/api/shared"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/service"
	"github.com/phrazzld/taskman/internal/service/auth"
	"github.com/phrazzld/taskman/internal/store"
)

// MapErrorToStatusCode maps internal errors to appropriate HTTP status codes
// based on the error type. This prevents leaking internal error types or
// messages to clients.
func MapErrorToStatusCode(err error) int {
	switch {
	// Authentication errors
	case errors.Is(err, auth.ErrMissingToken),
		errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrExpiredToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrInvalidCredentials),
		errors.Is(err, service.ErrSessionRevoked),
		errors.Is(err, service.ErrSessionIdle),
		errors.Is(err, domain.ErrUnauthorized):
		return http.StatusUnauthorized

	// Authorization errors
	case errors.Is(err, domain.ErrForbidden):
		return http.StatusForbidden

	// Not found errors
	case errors.Is(err, store.ErrUserNotFound),
		errors.Is(err, store.ErrTaskNotFound),
		errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound

	// Bad request errors, duplicate emails included
	case errors.Is(err, store.ErrEmailExists),
		errors.Is(err, store.ErrInvalidEntity),
		errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID):
		return http.StatusBadRequest

	default:
		return http.StatusInternalServerError
	}
}

// GetSafeErrorMessage returns a sanitized, user-friendly error message
// based on the error type. This prevents leaking sensitive internal details.
func GetSafeErrorMessage(err error) string {
	if err == nil {
		return "An unexpected error occurred"
	}

	switch {
	case errors.Is(err, service.ErrSessionIdle):
		return "Session expired due to inactivity"

	case errors.Is(err, service.ErrInvalidCredentials):
		return "Invalid credentials"

	case errors.Is(err, auth.ErrMissingToken):
		return "Not authorized, no token"

	case errors.Is(err, auth.ErrInvalidRefreshToken),
		errors.Is(err, auth.ErrExpiredRefreshToken):
		return "Invalid refresh token"

	case errors.Is(err, auth.ErrExpiredToken):
		return "Not authorized, token expired"

	case errors.Is(err, auth.ErrInvalidToken),
		errors.Is(err, auth.ErrTokenNotYetValid),
		errors.Is(err, auth.ErrWrongTokenType),
		errors.Is(err, service.ErrSessionRevoked):
		return "Not authorized, token invalid"

	case errors.Is(err, domain.ErrUnauthorized):
		return "Not authorized"

	case errors.Is(err, domain.ErrForbidden):
		return "Not authorized, admin access required"

	case errors.Is(err, store.ErrUserNotFound):
		return "User not found"

	case errors.Is(err, store.ErrTaskNotFound):
		return "Task not found"

	case errors.Is(err, store.ErrNotFound):
		return "Not found"

	case errors.Is(err, store.ErrEmailExists):
		return "User with this email already exists"

	case errors.Is(err, store.ErrInvalidEntity):
		return "Invalid entity data"

	case errors.Is(err, domain.ErrValidation),
		errors.Is(err, domain.ErrInvalidFormat),
		errors.Is(err, domain.ErrInvalidID):
		return "Validation failed"

	default:
		return "An unexpected error occurred"
	}
}

// HandleAPIError writes the status and safe message for err.
// A non-empty fallbackMessage replaces the generic 500 message.
// Validation errors carry their field details.
func HandleAPIError(w http.ResponseWriter, r *http.Request, err error, fallbackMessage string) {
	status := MapErrorToStatusCode(err)
	message := GetSafeErrorMessage(err)
	if status == http.StatusInternalServerError && fallbackMessage != "" {
		message = fallbackMessage
	}

	var opts []shared.ResponseOption
	if fieldErrs := FieldErrors(err); len(fieldErrs) > 0 {
		opts = append(opts, shared.WithFieldErrors(fieldErrs))
	}
	if status == http.StatusUnauthorized {
		opts = append(opts, shared.WithElevatedLogLevel())
	}

	shared.RespondWithErrorAndLog(w, r, status, message, err, opts...)
}

// HandleValidationError responds 400 with per-field details for a failed
// request DTO validation.
func HandleValidationError(w http.ResponseWriter, r *http.Request, err error) {
	shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Validation failed", err,
		shared.WithFieldErrors(FieldErrors(err)))
}

// FieldErrors extracts client-safe field errors from validator and domain
// validation errors. Other errors yield nil.
func FieldErrors(err error) []shared.FieldError {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		out := make([]shared.FieldError, 0, len(verrs))
		for _, fe := range verrs {
			out = append(out, shared.FieldError{
				Field:   toSnakeCase(fe.Field()),
				Message: getValidationTagMessage(fe.Tag(), fe.Param()),
			})
		}
		return out
	}

	var derr *domain.ValidationError
	if errors.As(err, &derr) {
		return []shared.FieldError{{Field: derr.Field, Message: derr.Message}}
	}
	return nil
}

// getValidationTagMessage maps validation tags to user-friendly error messages
func getValidationTagMessage(tag, param string) string {
	switch tag {
	case "required":
		return "is required"
	case "email":
		return "must be a valid email"
	case "min":
		return "must be at least " + param + " characters"
	case "max":
		return "must be at most " + param + " characters"
	case "oneof":
		return "must be one of " + strings.ReplaceAll(param, " ", ", ")
	case "uuid":
		return "must be a valid id"
	default:
		return "is invalid"
	}
}

// toSnakeCase turns a Go field name such as DueDate into due_date.
func toSnakeCase(name string) string {
	var b strings.Builder
	for i, r := range name {
		if r >= 'A' && r <= 'Z' {
			if i > 0 {
				b.WriteByte('_')
			}
			r += 'a' - 'A'
		}
		b.WriteRune(r)
	}
	return b.String()
}

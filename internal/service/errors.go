package service

import "errors"

// Sentinels returned by the auth service. All of them surface as 401; store
// and token errors pass through wrapped with %w.
var (
	// ErrInvalidCredentials covers both an unknown email and a wrong
	// password so callers cannot probe for accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrSessionRevoked means the token's session was logged out, expired
	// or deleted.
	ErrSessionRevoked = errors.New("session is no longer valid")

	// ErrSessionIdle means the session sat unused past the idle timeout. It
	// has been revoked by the time this is returned.
	ErrSessionIdle = errors.New("session expired due to inactivity")
)

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
)

// SessionStore persists login sessions.
type SessionStore interface {
	// Create saves a new session. Returns ErrInvalidEntity if the user does not exist.
	Create(ctx context.Context, session *domain.Session) error

	// GetByID returns ErrSessionNotFound for unknown ids.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error)

	// Touch moves LastSeenAt forward to at. It never moves it backwards.
	Touch(ctx context.Context, id uuid.UUID, at time.Time) error

	// Revoke marks the session as ended. Revoking twice is not an error.
	Revoke(ctx context.Context, id uuid.UUID, at time.Time) error

	// RevokeAllForUser ends every open session of the user and returns how many changed.
	RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error)

	// DeleteInactive removes sessions that are revoked, expired at now, or last
	// seen before idleCutoff. It returns the number of rows removed.
	DeleteInactive(ctx context.Context, idleCutoff, now time.Time) (int64, error)

	// WithTx returns a SessionStore bound to the transaction.
	WithTx(tx *sql.Tx) SessionStore
}

package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/store"
)

// SessionStore implements store.SessionStore on SQLite.
type SessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewSessionStore creates a session store. A nil logger falls back to the default.
func NewSessionStore(db store.DBTX, logger *slog.Logger) *SessionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionStore{db: db, logger: logger.With(slog.String("component", "session_store"))}
}

var _ store.SessionStore = (*SessionStore)(nil)

// WithTx implements store.SessionStore.WithTx
func (s *SessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &SessionStore{db: tx, logger: s.logger}
}

// Create implements store.SessionStore.Create
func (s *SessionStore) Create(ctx context.Context, session *domain.Session) error {
	var revokedAt sql.NullTime
	if session.RevokedAt != nil {
		revokedAt = sql.NullTime{Time: session.RevokedAt.UTC(), Valid: true}
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO sessions (id, user_id, created_at, last_seen_at, expires_at, revoked_at)
		VALUES (?, ?, ?, ?, ?, ?)`,
		session.ID,
		session.UserID,
		session.CreatedAt.UTC(),
		session.LastSeenAt.UTC(),
		session.ExpiresAt.UTC(),
		revokedAt,
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("user_id", session.UserID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.SessionStore.GetByID
func (s *SessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	row, err := selectOne[sessionRow](ctx, s.db, store.ErrSessionNotFound, `
		SELECT id, user_id, created_at, last_seen_at, expires_at, revoked_at
		FROM sessions WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// Touch implements store.SessionStore.Touch
func (s *SessionStore) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = MAX(last_seen_at, ?) WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrSessionNotFound)
}

// Revoke implements store.SessionStore.Revoke
func (s *SessionStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = COALESCE(revoked_at, ?) WHERE id = ?`, at.UTC(), id)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrSessionNotFound)
}

// RevokeAllForUser implements store.SessionStore.RevokeAllForUser
func (s *SessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = ? WHERE user_id = ? AND revoked_at IS NULL`, at.UTC(), userID)
	if err != nil {
		return 0, MapError(err)
	}
	return result.RowsAffected()
}

// DeleteInactive implements store.SessionStore.DeleteInactive
func (s *SessionStore) DeleteInactive(ctx context.Context, idleCutoff, now time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE revoked_at IS NOT NULL OR expires_at <= ? OR last_seen_at < ?`,
		now.UTC(), idleCutoff.UTC())
	if err != nil {
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		logger.FromContextOrDefault(ctx, s.logger).Info("deleted inactive sessions", slog.Int64("count", n))
	}
	return n, nil
}

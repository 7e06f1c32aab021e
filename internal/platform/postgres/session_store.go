package postgres

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/store"
)

// PostgresSessionStore implements store.SessionStore on PostgreSQL.
type PostgresSessionStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresSessionStore creates a session store. A nil logger falls back to the default.
func NewPostgresSessionStore(db store.DBTX, logger *slog.Logger) *PostgresSessionStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresSessionStore{
		db:     db,
		logger: logger.With(slog.String("component", "session_store")),
	}
}

var _ store.SessionStore = (*PostgresSessionStore)(nil)

// WithTx implements store.SessionStore.WithTx
func (s *PostgresSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	return &PostgresSessionStore{db: tx, logger: s.logger}
}

// Create implements store.SessionStore.Create
func (s *PostgresSessionStore) Create(ctx context.Context, session *domain.Session) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		INSERT INTO sessions (id, user_id, created_at, last_seen_at, expires_at, revoked_at)
		VALUES ($1, $2, $3, $4, $5, $6)
	`
	_, err := s.db.ExecContext(ctx, query,
		session.ID,
		session.UserID,
		session.CreatedAt,
		session.LastSeenAt,
		session.ExpiresAt,
		session.RevokedAt,
	)
	if err != nil {
		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("user_id", session.UserID.String()))
		return MapError(err)
	}

	return nil
}

// GetByID implements store.SessionStore.GetByID
func (s *PostgresSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	query := `
		SELECT id, user_id, created_at, last_seen_at, expires_at, revoked_at
		FROM sessions
		WHERE id = $1
	`
	var session domain.Session
	var revokedAt sql.NullTime
	err := s.db.QueryRowContext(ctx, query, id).Scan(
		&session.ID,
		&session.UserID,
		&session.CreatedAt,
		&session.LastSeenAt,
		&session.ExpiresAt,
		&revokedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, store.ErrSessionNotFound
		}
		log.Error("failed to get session",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return nil, MapError(err)
	}

	session.CreatedAt = session.CreatedAt.UTC()
	session.LastSeenAt = session.LastSeenAt.UTC()
	session.ExpiresAt = session.ExpiresAt.UTC()
	if revokedAt.Valid {
		t := revokedAt.Time.UTC()
		session.RevokedAt = &t
	}
	return &session, nil
}

// Touch implements store.SessionStore.Touch
func (s *PostgresSessionStore) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET last_seen_at = GREATEST(last_seen_at, $2) WHERE id = $1`,
		id, at.UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to touch session",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSessionNotFound)
}

// Revoke implements store.SessionStore.Revoke
func (s *PostgresSessionStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = COALESCE(revoked_at, $2) WHERE id = $1`,
		id, at.UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to revoke session",
			slog.String("error", err.Error()),
			slog.String("session_id", id.String()))
		return MapError(err)
	}
	return CheckRowsAffected(result, store.ErrSessionNotFound)
}

// RevokeAllForUser implements store.SessionStore.RevokeAllForUser
func (s *PostgresSessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	result, err := s.db.ExecContext(ctx,
		`UPDATE sessions SET revoked_at = $2 WHERE user_id = $1 AND revoked_at IS NULL`,
		userID, at.UTC())
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to revoke user sessions",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return 0, MapError(err)
	}
	return result.RowsAffected()
}

// DeleteInactive implements store.SessionStore.DeleteInactive
func (s *PostgresSessionStore) DeleteInactive(ctx context.Context, idleCutoff, now time.Time) (int64, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx,
		`DELETE FROM sessions WHERE revoked_at IS NOT NULL OR expires_at <= $1 OR last_seen_at < $2`,
		now.UTC(), idleCutoff.UTC())
	if err != nil {
		log.Error("failed to delete inactive sessions", slog.String("error", err.Error()))
		return 0, MapError(err)
	}

	n, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if n > 0 {
		log.Info("deleted inactive sessions", slog.Int64("count", n))
	}
	return n, nil
}

package postgres_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/postgres"
	"github.com/phrazzld/taskman/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var sessionRowColumns = []string{"id", "user_id", "created_at", "last_seen_at", "expires_at", "revoked_at"}

func TestPostgresSessionStore_CreateAndGet(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresSessionStore(db, nil)

	now := time.Now().UTC()
	session := domain.NewSession(uuid.New(), now, 24*time.Hour)

	mock.ExpectExec("INSERT INTO sessions").
		WithArgs(session.ID, session.UserID, session.CreatedAt, session.LastSeenAt, session.ExpiresAt, nil).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Create(context.Background(), session))

	revoked := now.Add(time.Minute)
	mock.ExpectQuery("SELECT .* FROM sessions WHERE id = \\$1").
		WithArgs(session.ID).
		WillReturnRows(sqlmock.NewRows(sessionRowColumns).
			AddRow(session.ID.String(), session.UserID.String(), now, now, session.ExpiresAt, revoked))

	got, err := s.GetByID(context.Background(), session.ID)
	require.NoError(t, err)
	require.NotNil(t, got.RevokedAt)
	assert.True(t, got.IsRevoked())
	assert.Equal(t, session.UserID, got.UserID)
}

func TestPostgresSessionStore_CreateUnknownUser(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresSessionStore(db, nil)

	mock.ExpectExec("INSERT INTO sessions").WillReturnError(&pgconn.PgError{Code: "23503"})

	err := s.Create(context.Background(), domain.NewSession(uuid.New(), time.Now(), time.Hour))
	assert.ErrorIs(t, err, store.ErrInvalidEntity)
}

func TestPostgresSessionStore_GetMissing(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresSessionStore(db, nil)

	mock.ExpectQuery("FROM sessions").WillReturnError(sql.ErrNoRows)

	_, err := s.GetByID(context.Background(), uuid.New())
	assert.ErrorIs(t, err, store.ErrSessionNotFound)
}

func TestPostgresSessionStore_TouchAndRevoke(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresSessionStore(db, nil)
	id := uuid.New()
	at := time.Now().UTC()

	mock.ExpectExec("SET last_seen_at = GREATEST\\(last_seen_at, \\$2\\) WHERE id = \\$1").
		WithArgs(id, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Touch(context.Background(), id, at))

	mock.ExpectExec("SET revoked_at = COALESCE\\(revoked_at, \\$2\\)").
		WithArgs(id, at).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, s.Revoke(context.Background(), id, at))

	mock.ExpectExec("UPDATE sessions SET last_seen_at").WillReturnResult(sqlmock.NewResult(0, 0))
	assert.ErrorIs(t, s.Touch(context.Background(), id, at), store.ErrSessionNotFound)
}

func TestPostgresSessionStore_Bulk(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresSessionStore(db, nil)
	user := uuid.New()
	now := time.Now().UTC()
	cutoff := now.Add(-30 * time.Minute)

	mock.ExpectExec("WHERE user_id = \\$1 AND revoked_at IS NULL").
		WithArgs(user, now).
		WillReturnResult(sqlmock.NewResult(0, 3))
	n, err := s.RevokeAllForUser(context.Background(), user, now)
	require.NoError(t, err)
	assert.EqualValues(t, 3, n)

	mock.ExpectExec("DELETE FROM sessions WHERE revoked_at IS NOT NULL OR expires_at <= \\$1 OR last_seen_at < \\$2").
		WithArgs(now, cutoff).
		WillReturnResult(sqlmock.NewResult(0, 5))
	n, err = s.DeleteInactive(context.Background(), cutoff, now)
	require.NoError(t, err)
	assert.EqualValues(t, 5, n)
}

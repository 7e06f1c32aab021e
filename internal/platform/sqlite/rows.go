package sqlite

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/store"
)

// userRow mirrors the users table.
type userRow struct {
	ID           uuid.UUID `db:"id"`
	Name         string    `db:"name"`
	Email        string    `db:"email"`
	PasswordHash string    `db:"password_hash"`
	Role         string    `db:"role"`
	CreatedAt    time.Time `db:"created_at"`
	UpdatedAt    time.Time `db:"updated_at"`
}

func (r userRow) toDomain() *domain.User {
	return &domain.User{
		ID:             r.ID,
		Name:           r.Name,
		Email:          r.Email,
		HashedPassword: r.PasswordHash,
		Role:           domain.Role(r.Role),
		CreatedAt:      r.CreatedAt.UTC(),
		UpdatedAt:      r.UpdatedAt.UTC(),
	}
}

// taskRow mirrors the tasks table.
type taskRow struct {
	ID          uuid.UUID `db:"id"`
	UserID      uuid.UUID `db:"user_id"`
	Title       string    `db:"title"`
	Description string    `db:"description"`
	Status      string    `db:"status"`
	DueDate     time.Time `db:"due_date"`
	CreatedAt   time.Time `db:"created_at"`
	UpdatedAt   time.Time `db:"updated_at"`
}

func (r taskRow) toDomain() *domain.Task {
	return &domain.Task{
		ID:          r.ID,
		UserID:      r.UserID,
		Title:       r.Title,
		Description: r.Description,
		Status:      domain.TaskStatus(r.Status),
		DueDate:     r.DueDate.UTC(),
		CreatedAt:   r.CreatedAt.UTC(),
		UpdatedAt:   r.UpdatedAt.UTC(),
	}
}

// sessionRow mirrors the sessions table.
type sessionRow struct {
	ID         uuid.UUID    `db:"id"`
	UserID     uuid.UUID    `db:"user_id"`
	CreatedAt  time.Time    `db:"created_at"`
	LastSeenAt time.Time    `db:"last_seen_at"`
	ExpiresAt  time.Time    `db:"expires_at"`
	RevokedAt  sql.NullTime `db:"revoked_at"`
}

func (r sessionRow) toDomain() *domain.Session {
	s := &domain.Session{
		ID:         r.ID,
		UserID:     r.UserID,
		CreatedAt:  r.CreatedAt.UTC(),
		LastSeenAt: r.LastSeenAt.UTC(),
		ExpiresAt:  r.ExpiresAt.UTC(),
	}
	if r.RevokedAt.Valid {
		t := r.RevokedAt.Time.UTC()
		s.RevokedAt = &t
	}
	return s
}

// selectRows runs query on db and scans every row into a slice of T.
func selectRows[T any](ctx context.Context, db store.DBTX, query string, args ...any) ([]T, error) {
	rows, err := db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, MapError(err)
	}
	defer func() { _ = rows.Close() }()

	out := []T{}
	if err := sqlx.StructScan(rows, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// selectOne returns the first row of query, or notFound when there is none.
func selectOne[T any](ctx context.Context, db store.DBTX, notFound error, query string, args ...any) (*T, error) {
	rows, err := selectRows[T](ctx, db, query, args...)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, notFound
	}
	return &rows[0], nil
}

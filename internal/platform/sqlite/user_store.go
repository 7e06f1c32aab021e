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

const userColumns = `id, name, email, password_hash, role, created_at, updated_at`

// UserStore implements store.UserStore on SQLite.
type UserStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewUserStore creates a user store. A nil logger falls back to the default.
func NewUserStore(db store.DBTX, logger *slog.Logger) *UserStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &UserStore{db: db, logger: logger.With(slog.String("component", "user_store"))}
}

var _ store.UserStore = (*UserStore)(nil)

// WithTx implements store.UserStore.WithTx
func (s *UserStore) WithTx(tx *sql.Tx) store.UserStore {
	return &UserStore{db: tx, logger: s.logger}
}

// Create implements store.UserStore.Create
func (s *UserStore) Create(ctx context.Context, user *domain.User) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := user.Validate(); err != nil {
		return err
	}
	if user.HashedPassword == "" {
		return domain.NewValidationError("password", "must be hashed before storage", domain.ErrEmptyHashedPassword)
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO users (`+userColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Name,
		domain.NormalizeEmail(user.Email),
		user.HashedPassword,
		string(user.Role),
		user.CreatedAt.UTC(),
		user.UpdatedAt.UTC(),
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		log.Error("failed to create user",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return MapError(err)
	}

	user.Password = ""
	log.Info("user created successfully", slog.String("user_id", user.ID.String()))
	return nil
}

// GetByID implements store.UserStore.GetByID
func (s *UserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	row, err := selectOne[userRow](ctx, s.db, store.ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetByEmail implements store.UserStore.GetByEmail
func (s *UserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	row, err := selectOne[userRow](ctx, s.db, store.ErrUserNotFound,
		`SELECT `+userColumns+` FROM users WHERE email = ?`, domain.NormalizeEmail(email))
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// List implements store.UserStore.List
func (s *UserStore) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if limit <= 0 {
		limit = 100
	}
	if offset < 0 {
		offset = 0
	}

	rows, err := selectRows[userRow](ctx, s.db,
		`SELECT `+userColumns+` FROM users ORDER BY created_at ASC, id ASC LIMIT ? OFFSET ?`, limit, offset)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list users", slog.String("error", err.Error()))
		return nil, err
	}

	users := make([]*domain.User, len(rows))
	for i, r := range rows {
		users[i] = r.toDomain()
	}
	return users, nil
}

// Update implements store.UserStore.Update
func (s *UserStore) Update(ctx context.Context, user *domain.User) error {
	if err := user.Validate(); err != nil {
		return err
	}
	if user.HashedPassword == "" {
		return domain.NewValidationError("password", "must be hashed before storage", domain.ErrEmptyHashedPassword)
	}

	user.UpdatedAt = time.Now().UTC()
	result, err := s.db.ExecContext(ctx,
		`UPDATE users SET name = ?, email = ?, password_hash = ?, role = ?, updated_at = ? WHERE id = ?`,
		user.Name,
		domain.NormalizeEmail(user.Email),
		user.HashedPassword,
		string(user.Role),
		user.UpdatedAt,
		user.ID,
	)
	if err != nil {
		if IsUniqueViolation(err) {
			return store.ErrEmailExists
		}
		return MapError(err)
	}
	if err := checkRowsAffected(result, store.ErrUserNotFound); err != nil {
		return err
	}

	user.Password = ""
	return nil
}

// Delete implements store.UserStore.Delete
func (s *UserStore) Delete(ctx context.Context, id uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrUserNotFound)
}

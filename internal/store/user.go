package store

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
)

// UserStore persists accounts. Emails are stored lowercased and compared
// case-insensitively; only the bcrypt hash of a password is ever written.
type UserStore interface {
	// Create inserts user. ErrEmailExists on a taken email.
	Create(ctx context.Context, user *domain.User) error

	// GetByID returns ErrUserNotFound when id is unknown.
	GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error)

	// GetByEmail returns ErrUserNotFound when no account uses email.
	GetByEmail(ctx context.Context, email string) (*domain.User, error)

	// List pages through users, oldest first.
	List(ctx context.Context, limit, offset int) ([]*domain.User, error)

	// Update overwrites name, email, role and hash. ErrUserNotFound or
	// ErrEmailExists.
	Update(ctx context.Context, user *domain.User) error

	// Delete removes the user; tasks and sessions go with it by cascade.
	Delete(ctx context.Context, id uuid.UUID) error

	// WithTx binds the store to tx.
	WithTx(tx *sql.Tx) UserStore
}

package store

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
)

// TaskStore defines the interface for task persistence.
//
// Methods taking an ownerID are ownership-scoped: a task belonging to a
// different user is reported as ErrTaskNotFound, exactly like a missing one.
type TaskStore interface {
	// Create saves a new task.
	// Returns domain validation errors, or ErrInvalidEntity if the owner does not exist.
	Create(ctx context.Context, task *domain.Task) error

	// GetByID retrieves a task owned by ownerID.
	GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// GetByIDForUpdate is GetByID that also locks the row until the
	// surrounding transaction ends. Use it on a WithTx store before a
	// read-modify-write.
	GetByIDForUpdate(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error)

	// GetAnyByID retrieves a task regardless of owner. Reserved for admins.
	GetAnyByID(ctx context.Context, id uuid.UUID) (*domain.Task, error)

	// ListByUser returns the owner's tasks matching filter, newest first.
	ListByUser(ctx context.Context, ownerID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error)

	// ListAll returns tasks of every user matching filter, newest first.
	ListAll(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)

	// ListDueBetween returns the owner's open tasks due in [from, to], earliest first.
	ListDueBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*domain.Task, error)

	// Update persists every mutable field of task, scoped by task.UserID.
	Update(ctx context.Context, task *domain.Task) error

	// Delete removes a task owned by ownerID.
	Delete(ctx context.Context, id, ownerID uuid.UUID) error

	// WithTx returns a TaskStore bound to the transaction.
	WithTx(tx *sql.Tx) TaskStore
}

package sqlite

import (
	"context"
	"database/sql"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/store"
)

const taskColumns = `id, user_id, title, description, status, due_date, created_at, updated_at`

// TaskStore implements store.TaskStore on SQLite.
type TaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewTaskStore creates a task store. A nil logger falls back to the default.
func NewTaskStore(db store.DBTX, logger *slog.Logger) *TaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &TaskStore{db: db, logger: logger.With(slog.String("component", "task_store"))}
}

var _ store.TaskStore = (*TaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *TaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &TaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create
func (s *TaskStore) Create(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx,
		`INSERT INTO tasks (`+taskColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		task.DueDate.UTC(),
		task.CreatedAt.UTC(),
		task.UpdatedAt.UTC(),
	)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}
	return nil
}

// GetByID implements store.TaskStore.GetByID
// GetByIDForUpdate is GetByID. SQLite has no row locks; the single-connection
// pool from Open already serializes transactions.
func (s *TaskStore) GetByIDForUpdate(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	return s.GetByID(ctx, id, ownerID)
}

func (s *TaskStore) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	row, err := selectOne[taskRow](ctx, s.db, store.ErrTaskNotFound,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// GetAnyByID implements store.TaskStore.GetAnyByID
func (s *TaskStore) GetAnyByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	row, err := selectOne[taskRow](ctx, s.db, store.ErrTaskNotFound,
		`SELECT `+taskColumns+` FROM tasks WHERE id = ?`, id)
	if err != nil {
		return nil, err
	}
	return row.toDomain(), nil
}

// ListByUser implements store.TaskStore.ListByUser
func (s *TaskStore) ListByUser(ctx context.Context, ownerID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.list(ctx, &ownerID, filter)
}

// ListAll implements store.TaskStore.ListAll
func (s *TaskStore) ListAll(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.list(ctx, nil, filter)
}

func (s *TaskStore) list(ctx context.Context, ownerID *uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter = filter.Normalize()

	var conds []string
	var args []any
	if ownerID != nil {
		conds = append(conds, "user_id = ?")
		args = append(args, *ownerID)
	}
	if filter.Status != "" {
		conds = append(conds, "status = ?")
		args = append(args, string(filter.Status))
	}
	if filter.DueAfter != nil {
		conds = append(conds, "due_date >= ?")
		args = append(args, filter.DueAfter.UTC())
	}
	if filter.DueBefore != nil {
		conds = append(conds, "due_date <= ?")
		args = append(args, filter.DueBefore.UTC())
	}

	query := `SELECT ` + taskColumns + ` FROM tasks`
	if len(conds) > 0 {
		query += ` WHERE ` + strings.Join(conds, " AND ")
	}
	query += ` ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?`
	args = append(args, filter.Limit, filter.Offset)

	return s.query(ctx, query, args...)
}

// ListDueBetween implements store.TaskStore.ListDueBetween
func (s *TaskStore) ListDueBetween(ctx context.Context, ownerID uuid.UUID, from, to time.Time) ([]*domain.Task, error) {
	return s.query(ctx, `
		SELECT `+taskColumns+`
		FROM tasks
		WHERE user_id = ? AND status <> 'completed' AND due_date >= ? AND due_date <= ?
		ORDER BY due_date ASC, id ASC`,
		ownerID, from.UTC(), to.UTC())
}

func (s *TaskStore) query(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	rows, err := selectRows[taskRow](ctx, s.db, query, args...)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, err
	}

	tasks := make([]*domain.Task, len(rows))
	for i, r := range rows {
		tasks[i] = r.toDomain()
	}
	return tasks, nil
}

// Update implements store.TaskStore.Update
func (s *TaskStore) Update(ctx context.Context, task *domain.Task) error {
	if err := task.Validate(); err != nil {
		return err
	}

	result, err := s.db.ExecContext(ctx, `
		UPDATE tasks
		SET title = ?, description = ?, status = ?, due_date = ?, updated_at = ?
		WHERE id = ? AND user_id = ?`,
		task.Title,
		task.Description,
		string(task.Status),
		task.DueDate.UTC(),
		task.UpdatedAt.UTC(),
		task.ID,
		task.UserID,
	)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

// Delete implements store.TaskStore.Delete
func (s *TaskStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = ? AND user_id = ?`, id, ownerID)
	if err != nil {
		return MapError(err)
	}
	return checkRowsAffected(result, store.ErrTaskNotFound)
}

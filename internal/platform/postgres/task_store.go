package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/store"
)

const taskColumns = `id, user_id, title, description, status, due_date, created_at, updated_at`

// PostgresTaskStore implements store.TaskStore on PostgreSQL.
type PostgresTaskStore struct {
	db     store.DBTX
	logger *slog.Logger
}

// NewPostgresTaskStore creates a task store on top of a connection or transaction.
// If logger is nil, a default logger will be used.
func NewPostgresTaskStore(db store.DBTX, logger *slog.Logger) *PostgresTaskStore {
	if db == nil {
		// ALLOW-PANIC: Constructor enforcing required dependency
		panic("db cannot be nil")
	}
	if logger == nil {
		logger = slog.Default()
	}

	return &PostgresTaskStore{
		db:     db,
		logger: logger.With(slog.String("component", "task_store")),
	}
}

var _ store.TaskStore = (*PostgresTaskStore)(nil)

// WithTx implements store.TaskStore.WithTx
func (s *PostgresTaskStore) WithTx(tx *sql.Tx) store.TaskStore {
	return &PostgresTaskStore{db: tx, logger: s.logger}
}

// Create implements store.TaskStore.Create
func (s *PostgresTaskStore) Create(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		log.Warn("task validation failed during create",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return err
	}

	query := `
		INSERT INTO tasks (id, user_id, title, description, status, due_date, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
	`
	_, err := s.db.ExecContext(ctx, query,
		task.ID,
		task.UserID,
		task.Title,
		task.Description,
		string(task.Status),
		task.DueDate,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()),
			slog.String("user_id", task.UserID.String()))
		return MapError(err)
	}

	log.Debug("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", task.UserID.String()))
	return nil
}

// GetByID implements store.TaskStore.GetByID
func (s *PostgresTaskStore) GetByID(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2`
	return s.getOne(ctx, id, s.db.QueryRowContext(ctx, query, id, ownerID))
}

// GetByIDForUpdate implements store.TaskStore.GetByIDForUpdate
func (s *PostgresTaskStore) GetByIDForUpdate(ctx context.Context, id, ownerID uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1 AND user_id = $2 FOR UPDATE`
	return s.getOne(ctx, id, s.db.QueryRowContext(ctx, query, id, ownerID))
}

// GetAnyByID implements store.TaskStore.GetAnyByID
func (s *PostgresTaskStore) GetAnyByID(ctx context.Context, id uuid.UUID) (*domain.Task, error) {
	query := `SELECT ` + taskColumns + ` FROM tasks WHERE id = $1`
	return s.getOne(ctx, id, s.db.QueryRowContext(ctx, query, id))
}

func (s *PostgresTaskStore) getOne(ctx context.Context, id uuid.UUID, row *sql.Row) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := scanTask(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			log.Debug("task not found", slog.String("task_id", id.String()))
			return nil, store.ErrTaskNotFound
		}
		log.Error("failed to get task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return nil, MapError(err)
	}
	return task, nil
}

// ListByUser implements store.TaskStore.ListByUser
func (s *PostgresTaskStore) ListByUser(
	ctx context.Context,
	ownerID uuid.UUID,
	filter domain.TaskFilter,
) ([]*domain.Task, error) {
	return s.list(ctx, &ownerID, filter)
}

// ListAll implements store.TaskStore.ListAll
func (s *PostgresTaskStore) ListAll(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	return s.list(ctx, nil, filter)
}

func (s *PostgresTaskStore) list(
	ctx context.Context,
	ownerID *uuid.UUID,
	filter domain.TaskFilter,
) ([]*domain.Task, error) {
	if err := filter.Validate(); err != nil {
		return nil, err
	}
	filter = filter.Normalize()

	query, args := buildTaskListQuery(ownerID, filter)
	return s.query(ctx, query, args...)
}

// buildTaskListQuery renders the WHERE clause for a filter with numbered placeholders.
func buildTaskListQuery(ownerID *uuid.UUID, filter domain.TaskFilter) (string, []any) {
	var conds []string
	var args []any
	add := func(cond string, arg any) {
		args = append(args, arg)
		conds = append(conds, fmt.Sprintf(cond, len(args)))
	}

	if ownerID != nil {
		add("user_id = $%d", *ownerID)
	}
	if filter.Status != "" {
		add("status = $%d", string(filter.Status))
	}
	if filter.DueAfter != nil {
		add("due_date >= $%d", filter.DueAfter.UTC())
	}
	if filter.DueBefore != nil {
		add("due_date <= $%d", filter.DueBefore.UTC())
	}

	var b strings.Builder
	b.WriteString(`SELECT ` + taskColumns + ` FROM tasks`)
	if len(conds) > 0 {
		b.WriteString(" WHERE ")
		b.WriteString(strings.Join(conds, " AND "))
	}
	args = append(args, filter.Limit, filter.Offset)
	fmt.Fprintf(&b, " ORDER BY created_at DESC, id DESC LIMIT $%d OFFSET $%d", len(args)-1, len(args))

	return b.String(), args
}

// ListDueBetween implements store.TaskStore.ListDueBetween
func (s *PostgresTaskStore) ListDueBetween(
	ctx context.Context,
	ownerID uuid.UUID,
	from, to time.Time,
) ([]*domain.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE user_id = $1 AND status <> 'completed' AND due_date >= $2 AND due_date <= $3
		ORDER BY due_date ASC, id ASC
	`
	return s.query(ctx, query, ownerID, from.UTC(), to.UTC())
}

func (s *PostgresTaskStore) query(ctx context.Context, query string, args ...any) ([]*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		log.Error("failed to query tasks", slog.String("error", err.Error()))
		return nil, MapError(err)
	}
	defer func() {
		if err := rows.Close(); err != nil {
			log.Error("failed to close rows", slog.String("error", err.Error()))
		}
	}()

	tasks := []*domain.Task{}
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			log.Error("failed to scan task row", slog.String("error", err.Error()))
			return nil, err
		}
		tasks = append(tasks, task)
	}
	if err := rows.Err(); err != nil {
		log.Error("error after scanning rows", slog.String("error", err.Error()))
		return nil, err
	}

	return tasks, nil
}

// Update implements store.TaskStore.Update
func (s *PostgresTaskStore) Update(ctx context.Context, task *domain.Task) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	if err := task.Validate(); err != nil {
		return err
	}

	query := `
		UPDATE tasks
		SET title = $1, description = $2, status = $3, due_date = $4, updated_at = $5
		WHERE id = $6 AND user_id = $7
	`
	result, err := s.db.ExecContext(ctx, query,
		task.Title,
		task.Description,
		string(task.Status),
		task.DueDate,
		task.UpdatedAt,
		task.ID,
		task.UserID,
	)
	if err != nil {
		log.Error("failed to update task",
			slog.String("error", err.Error()),
			slog.String("task_id", task.ID.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Debug("task updated", slog.String("task_id", task.ID.String()))
	return nil
}

// Delete implements store.TaskStore.Delete
func (s *PostgresTaskStore) Delete(ctx context.Context, id, ownerID uuid.UUID) error {
	log := logger.FromContextOrDefault(ctx, s.logger)

	result, err := s.db.ExecContext(ctx, `DELETE FROM tasks WHERE id = $1 AND user_id = $2`, id, ownerID)
	if err != nil {
		log.Error("failed to delete task",
			slog.String("error", err.Error()),
			slog.String("task_id", id.String()))
		return MapError(err)
	}

	if err := CheckRowsAffected(result, store.ErrTaskNotFound); err != nil {
		return err
	}

	log.Debug("task deleted", slog.String("task_id", id.String()))
	return nil
}

func scanTask(row rowScanner) (*domain.Task, error) {
	var task domain.Task
	var status string
	err := row.Scan(
		&task.ID,
		&task.UserID,
		&task.Title,
		&task.Description,
		&status,
		&task.DueDate,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	task.Status = domain.TaskStatus(status)
	task.DueDate = task.DueDate.UTC()
	task.CreatedAt = task.CreatedAt.UTC()
	task.UpdatedAt = task.UpdatedAt.UTC()
	return &task, nil
}

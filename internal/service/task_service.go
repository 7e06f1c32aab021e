package service

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/store"
)

// DefaultDueSoonWindow is the look-ahead used when DueSoon gets no window.
const DefaultDueSoonWindow = 72 * time.Hour

// CreateTaskInput carries the fields of a new task.
type CreateTaskInput struct {
	Title       string
	Description string
	Status      domain.TaskStatus
	DueDate     time.Time
}

// TaskService manages tasks on behalf of their owners.
// Every method taking a userID only ever sees that user's tasks.
type TaskService interface {
	// List returns the user's tasks matching filter, newest first.
	List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error)

	// Get returns one of the user's tasks, or store.ErrTaskNotFound.
	Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)

	// Create adds a task owned by the user.
	Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error)

	// Update applies a partial update to one of the user's tasks.
	Update(ctx context.Context, userID, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)

	// Delete removes one of the user's tasks.
	Delete(ctx context.Context, userID, taskID uuid.UUID) error

	// DueSoon returns the user's open tasks due within window from now, earliest first.
	DueSoon(ctx context.Context, userID uuid.UUID, window time.Duration) ([]*domain.Task, error)

	// ListAll returns tasks across all users. Admin only.
	ListAll(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)

	// GetAny returns any task by id. Admin only.
	GetAny(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)
}

type taskService struct {
	db        *sql.DB
	taskStore store.TaskStore
	now       func() time.Time
	logger    *slog.Logger
}

var _ TaskService = (*taskService)(nil)

// NewTaskService creates a TaskService.
func NewTaskService(db *sql.DB, taskStore store.TaskStore, logger *slog.Logger) (TaskService, error) {
	if db == nil || taskStore == nil {
		return nil, domain.NewValidationError("task_service", "missing dependency", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &taskService{
		db:        db,
		taskStore: taskStore,
		now:       time.Now,
		logger:    logger.With(slog.String("component", "task_service")),
	}, nil
}

// List implements TaskService.
func (s *taskService) List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListByUser(ctx, userID, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	return tasks, nil
}

// Get implements TaskService.
func (s *taskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetByID(ctx, taskID, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

// Create implements TaskService.
func (s *taskService) Create(ctx context.Context, userID uuid.UUID, input CreateTaskInput) (*domain.Task, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	task, err := domain.NewTask(userID, input.Title, input.Description, input.Status, input.DueDate)
	if err != nil {
		return nil, err
	}

	if err := s.taskStore.Create(ctx, task); err != nil {
		log.Error("failed to create task",
			slog.String("error", err.Error()),
			slog.String("user_id", userID.String()))
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	log.Info("task created",
		slog.String("task_id", task.ID.String()),
		slog.String("user_id", userID.String()))
	return task, nil
}

// Update implements TaskService.
// The row is locked for the read-modify-write so a concurrent partial update
// waits instead of writing back fields it read before this one committed.
func (s *taskService) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	var updated *domain.Task
	err := store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		txStore := s.taskStore.WithTx(tx)

		task, err := txStore.GetByIDForUpdate(ctx, taskID, userID)
		if err != nil {
			return err
		}
		if update.IsEmpty() {
			updated = task
			return nil
		}
		if err := task.Apply(update); err != nil {
			return err
		}
		if err := txStore.Update(ctx, task); err != nil {
			return err
		}
		updated = task
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Debug("task updated",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	return updated, nil
}

// Delete implements TaskService.
func (s *taskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if err := s.taskStore.Delete(ctx, taskID, userID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("task deleted",
		slog.String("task_id", taskID.String()),
		slog.String("user_id", userID.String()))
	return nil
}

// DueSoon implements TaskService.
func (s *taskService) DueSoon(ctx context.Context, userID uuid.UUID, window time.Duration) ([]*domain.Task, error) {
	if window <= 0 {
		window = DefaultDueSoonWindow
	}
	now := s.now().UTC()

	tasks, err := s.taskStore.ListDueBetween(ctx, userID, now, now.Add(window))
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks due soon: %w", err)
	}
	return tasks, nil
}

// ListAll implements TaskService.
func (s *taskService) ListAll(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	tasks, err := s.taskStore.ListAll(ctx, filter)
	if err != nil {
		return nil, fmt.Errorf("failed to list all tasks: %w", err)
	}
	return tasks, nil
}

// GetAny implements TaskService.
func (s *taskService) GetAny(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	task, err := s.taskStore.GetAnyByID(ctx, taskID)
	if err != nil {
		return nil, fmt.Errorf("failed to get task: %w", err)
	}
	return task, nil
}

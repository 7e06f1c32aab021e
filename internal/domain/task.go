package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/google/uuid"
)

// TaskStatus represents the progress of a task.
type TaskStatus string

// Possible task status values
const (
	TaskStatusPending    TaskStatus = "pending"
	TaskStatusInProgress TaskStatus = "in-progress"
	TaskStatusCompleted  TaskStatus = "completed"
)

// MaxTitleLength bounds task titles to the width of the title column.
const MaxTitleLength = 255

// Common validation errors for Task
var (
	ErrEmptyTaskID     = errors.New("task ID cannot be empty")
	ErrEmptyTaskUserID = errors.New("task user ID cannot be empty")
	ErrEmptyTitle      = errors.New("title cannot be empty")
	ErrTitleTooLong    = errors.New("title must be at most 255 characters")
	ErrInvalidStatus   = errors.New("invalid task status")
	ErrEmptyDueDate    = errors.New("due date is required")
)

// Task is a unit of work tracked for a single owner.
type Task struct {
	ID          uuid.UUID  `json:"id"`
	UserID      uuid.UUID  `json:"user_id"`
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Status      TaskStatus `json:"status"`
	DueDate     time.Time  `json:"due_date"`
	CreatedAt   time.Time  `json:"created_at"`
	UpdatedAt   time.Time  `json:"updated_at"`
}

// NewTask creates a Task owned by userID.
// An empty status defaults to pending.
func NewTask(userID uuid.UUID, title, description string, status TaskStatus, dueDate time.Time) (*Task, error) {
	if status == "" {
		status = TaskStatusPending
	}

	now := time.Now().UTC()
	task := &Task{
		ID:          uuid.New(),
		UserID:      userID,
		Title:       strings.TrimSpace(title),
		Description: description,
		Status:      status,
		DueDate:     dueDate.UTC(),
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := task.Validate(); err != nil {
		return nil, err
	}

	return task, nil
}

// Validate checks if the Task has valid data.
func (t *Task) Validate() error {
	if t.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrEmptyTaskID)
	}

	if t.UserID == uuid.Nil {
		return NewValidationError("user_id", "is required", ErrEmptyTaskUserID)
	}

	if strings.TrimSpace(t.Title) == "" {
		return NewValidationError("title", "is required", ErrEmptyTitle)
	}
	if utf8.RuneCountInString(t.Title) > MaxTitleLength {
		return NewValidationError("title", "must be at most 255 characters", ErrTitleTooLong)
	}

	if !t.Status.Valid() {
		return NewValidationError("status", "must be one of pending, in-progress, completed", ErrInvalidStatus)
	}

	if t.DueDate.IsZero() {
		return NewValidationError("due_date", "is required", ErrEmptyDueDate)
	}

	return nil
}

// TaskUpdate carries a partial update. Nil fields are left untouched.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *TaskStatus
	DueDate     *time.Time
}

// IsEmpty reports whether the update changes nothing.
func (u TaskUpdate) IsEmpty() bool {
	return u.Title == nil && u.Description == nil && u.Status == nil && u.DueDate == nil
}

// Apply copies the provided fields onto the task and re-validates it.
// On validation failure the task is left unchanged.
func (t *Task) Apply(u TaskUpdate) error {
	next := *t
	if u.Title != nil {
		next.Title = strings.TrimSpace(*u.Title)
	}
	if u.Description != nil {
		next.Description = *u.Description
	}
	if u.Status != nil {
		next.Status = *u.Status
	}
	if u.DueDate != nil {
		next.DueDate = u.DueDate.UTC()
	}

	if err := next.Validate(); err != nil {
		return err
	}

	next.UpdatedAt = time.Now().UTC()
	*t = next
	return nil
}

// IsCompleted reports whether the task is done.
func (t *Task) IsCompleted() bool {
	return t.Status == TaskStatusCompleted
}

// IsDueWithin reports whether an open task falls due between now and now+window.
func (t *Task) IsDueWithin(now time.Time, window time.Duration) bool {
	if t.IsCompleted() {
		return false
	}
	return !t.DueDate.Before(now) && !t.DueDate.After(now.Add(window))
}

// Valid reports whether s is a known status.
func (s TaskStatus) Valid() bool {
	switch s {
	case TaskStatusPending, TaskStatusInProgress, TaskStatusCompleted:
		return true
	default:
		return false
	}
}

// TaskFilter narrows task listings. Zero values mean "no constraint".
type TaskFilter struct {
	Status    TaskStatus
	DueBefore *time.Time
	DueAfter  *time.Time
	Limit     int
	Offset    int
}

// Pagination bounds for task listings.
const (
	DefaultTaskLimit = 100
	MaxTaskLimit     = 500
)

// Normalize clamps Limit and Offset into their allowed ranges.
func (f TaskFilter) Normalize() TaskFilter {
	if f.Limit <= 0 {
		f.Limit = DefaultTaskLimit
	}
	if f.Limit > MaxTaskLimit {
		f.Limit = MaxTaskLimit
	}
	if f.Offset < 0 {
		f.Offset = 0
	}
	return f
}

// Validate rejects unknown statuses and inverted date ranges.
func (f TaskFilter) Validate() error {
	if f.Status != "" && !f.Status.Valid() {
		return NewValidationError("status", "must be one of pending, in-progress, completed", ErrInvalidStatus)
	}
	if f.DueBefore != nil && f.DueAfter != nil && f.DueAfter.After(*f.DueBefore) {
		return NewValidationError("due_after", "must not be later than due_before", ErrInvalidFormat)
	}
	return nil
}

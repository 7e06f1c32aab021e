package postgres_test

import (
	"context"
	"database/sql"
	"database/sql/driver"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/postgres"
	"github.com/phrazzld/taskman/internal/service"
	"github.com/phrazzld/taskman/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var taskRowColumns = []string{
	"id", "user_id", "title", "description", "status", "due_date", "created_at", "updated_at",
}

func newTestTask(t *testing.T, owner uuid.UUID) *domain.Task {
	t.Helper()
	task, err := domain.NewTask(owner, "Write report", "quarterly numbers", "", time.Now().Add(48*time.Hour))
	require.NoError(t, err)
	return task
}

func TestPostgresTaskStore_Create(t *testing.T) {
	t.Parallel()

	t.Run("success", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := postgres.NewPostgresTaskStore(db, nil)
		task := newTestTask(t, uuid.New())

		mock.ExpectExec("INSERT INTO tasks").
			WithArgs(task.ID, task.UserID, task.Title, task.Description, "pending",
				sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg()).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Create(context.Background(), task))
	})

	t.Run("unknown owner", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := postgres.NewPostgresTaskStore(db, nil)

		mock.ExpectExec("INSERT INTO tasks").
			WillReturnError(&pgconn.PgError{Code: "23503", ConstraintName: "tasks_user_id_fkey"})

		err := s.Create(context.Background(), newTestTask(t, uuid.New()))
		assert.ErrorIs(t, err, store.ErrInvalidEntity)
	})

	t.Run("validation", func(t *testing.T) {
		t.Parallel()
		db, _ := newMockDB(t)
		s := postgres.NewPostgresTaskStore(db, nil)
		task := newTestTask(t, uuid.New())
		task.Status = "archived"

		assert.ErrorIs(t, s.Create(context.Background(), task), domain.ErrInvalidStatus)
	})
}

func TestPostgresTaskStore_GetByIDIsOwnerScoped(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresTaskStore(db, nil)

	owner, stranger, id := uuid.New(), uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM tasks WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(id.String(), owner.String(), "Mine", "", "in-progress", now, now, now))
	mock.ExpectQuery("SELECT .* FROM tasks WHERE id = \\$1 AND user_id = \\$2").
		WithArgs(id, stranger).
		WillReturnError(sql.ErrNoRows)

	task, err := s.GetByID(context.Background(), id, owner)
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusInProgress, task.Status)
	assert.Equal(t, owner, task.UserID)

	_, err = s.GetByID(context.Background(), id, stranger)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestPostgresTaskStore_GetAnyByID(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresTaskStore(db, nil)
	id := uuid.New()

	mock.ExpectQuery("SELECT .* FROM tasks WHERE id = \\$1$").WithArgs(id).WillReturnError(sql.ErrNoRows)

	_, err := s.GetAnyByID(context.Background(), id)
	assert.ErrorIs(t, err, store.ErrTaskNotFound)
}

func TestPostgresTaskStore_ListByUser(t *testing.T) {
	t.Parallel()

	owner := uuid.New()
	after := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	before := after.Add(7 * 24 * time.Hour)

	tests := []struct {
		name   string
		filter domain.TaskFilter
		query  string
		args   []any
	}{
		{
			name:   "defaults",
			filter: domain.TaskFilter{},
			query:  "FROM tasks WHERE user_id = \\$1 ORDER BY created_at DESC, id DESC LIMIT \\$2 OFFSET \\$3",
			args:   []any{owner, 100, 0},
		},
		{
			name:   "status and paging",
			filter: domain.TaskFilter{Status: domain.TaskStatusCompleted, Limit: 10, Offset: 20},
			query:  "WHERE user_id = \\$1 AND status = \\$2 ORDER BY .* LIMIT \\$3 OFFSET \\$4",
			args:   []any{owner, "completed", 10, 20},
		},
		{
			name:   "due range with oversized limit",
			filter: domain.TaskFilter{DueAfter: &after, DueBefore: &before, Limit: 10000},
			query:  "WHERE user_id = \\$1 AND due_date >= \\$2 AND due_date <= \\$3 ORDER BY .* LIMIT \\$4 OFFSET \\$5",
			args:   []any{owner, after, before, 500, 0},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			db, mock := newMockDB(t)
			s := postgres.NewPostgresTaskStore(db, nil)

			args := make([]driver.Value, len(tt.args))
			for i, a := range tt.args {
				args[i] = a
			}
			mock.ExpectQuery(tt.query).
				WithArgs(args...).
				WillReturnRows(sqlmock.NewRows(taskRowColumns))

			tasks, err := s.ListByUser(context.Background(), owner, tt.filter)
			require.NoError(t, err)
			assert.Empty(t, tasks)
			assert.NotNil(t, tasks)
		})
	}
}

func TestPostgresTaskStore_ListRejectsInvalidFilter(t *testing.T) {
	t.Parallel()
	db, _ := newMockDB(t)
	s := postgres.NewPostgresTaskStore(db, nil)

	_, err := s.ListAll(context.Background(), domain.TaskFilter{Status: "done"})
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestPostgresTaskStore_ListAll(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresTaskStore(db, nil)
	now := time.Now().UTC()

	mock.ExpectQuery("SELECT .* FROM tasks ORDER BY created_at DESC, id DESC LIMIT \\$1 OFFSET \\$2").
		WithArgs(100, 0).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(uuid.NewString(), uuid.NewString(), "A", "", "pending", now, now, now).
			AddRow(uuid.NewString(), uuid.NewString(), "B", "", "completed", now, now, now))

	tasks, err := s.ListAll(context.Background(), domain.TaskFilter{})
	require.NoError(t, err)
	assert.Len(t, tasks, 2)
}

func TestPostgresTaskStore_ListDueBetween(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	s := postgres.NewPostgresTaskStore(db, nil)
	owner := uuid.New()
	from := time.Now().UTC()
	to := from.Add(72 * time.Hour)

	mock.ExpectQuery("WHERE user_id = \\$1 AND status <> 'completed' AND due_date >= \\$2 AND due_date <= \\$3 ORDER BY due_date ASC").
		WithArgs(owner, from, to).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(uuid.NewString(), owner.String(), "Soon", "", "pending", from.Add(time.Hour), from, from))

	tasks, err := s.ListDueBetween(context.Background(), owner, from, to)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Soon", tasks[0].Title)
}

func TestTaskService_UpdateLocksRowBeforeWriting(t *testing.T) {
	t.Parallel()
	db, mock := newMockDB(t)
	svc, err := service.NewTaskService(db, postgres.NewPostgresTaskStore(db, nil), nil)
	require.NoError(t, err)

	owner, id := uuid.New(), uuid.New()
	now := time.Now().UTC()

	mock.ExpectBegin()
	mock.ExpectQuery("SELECT .* FROM tasks WHERE id = \\$1 AND user_id = \\$2 FOR UPDATE$").
		WithArgs(id, owner).
		WillReturnRows(sqlmock.NewRows(taskRowColumns).
			AddRow(id.String(), owner.String(), "Old title", "keep me", "pending", now, now, now))
	mock.ExpectExec("UPDATE tasks .* WHERE id = \\$6 AND user_id = \\$7").
		WithArgs("Old title", "keep me", "completed", sqlmock.AnyArg(), sqlmock.AnyArg(), id, owner).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	completed := domain.TaskStatusCompleted
	task, err := svc.Update(context.Background(), owner, id, domain.TaskUpdate{Status: &completed})
	require.NoError(t, err)
	assert.Equal(t, domain.TaskStatusCompleted, task.Status)
	assert.Equal(t, "Old title", task.Title)
}

func TestPostgresTaskStore_UpdateDelete(t *testing.T) {
	t.Parallel()

	t.Run("update scoped by owner", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := postgres.NewPostgresTaskStore(db, nil)
		task := newTestTask(t, uuid.New())

		mock.ExpectExec("UPDATE tasks .* WHERE id = \\$6 AND user_id = \\$7").
			WithArgs(task.Title, task.Description, "pending", sqlmock.AnyArg(), sqlmock.AnyArg(), task.ID, task.UserID).
			WillReturnResult(sqlmock.NewResult(0, 0))

		assert.ErrorIs(t, s.Update(context.Background(), task), store.ErrTaskNotFound)
	})

	t.Run("delete", func(t *testing.T) {
		t.Parallel()
		db, mock := newMockDB(t)
		s := postgres.NewPostgresTaskStore(db, nil)
		id, owner := uuid.New(), uuid.New()

		mock.ExpectExec("DELETE FROM tasks WHERE id = \\$1 AND user_id = \\$2").
			WithArgs(id, owner).
			WillReturnResult(sqlmock.NewResult(0, 1))

		require.NoError(t, s.Delete(context.Background(), id, owner))
	})
}

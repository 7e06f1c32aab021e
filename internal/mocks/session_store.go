package mocks

import (
	"context"
	"database/sql"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/store"
	"github.com/stretchr/testify/mock"
)

// TestifyMockSessionStore is a mock of store.SessionStore for use with testify/mock
type TestifyMockSessionStore struct {
	mock.Mock
}

var _ store.SessionStore = (*TestifyMockSessionStore)(nil)

// Create is a mock implementation of store.SessionStore.Create
func (m *TestifyMockSessionStore) Create(ctx context.Context, session *domain.Session) error {
	args := m.Called(ctx, session)
	return args.Error(0)
}

// GetByID is a mock implementation of store.SessionStore.GetByID
func (m *TestifyMockSessionStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.Session, error) {
	args := m.Called(ctx, id)
	if session, ok := args.Get(0).(*domain.Session); ok {
		return session, args.Error(1)
	}
	return nil, args.Error(1)
}

// Touch is a mock implementation of store.SessionStore.Touch
func (m *TestifyMockSessionStore) Touch(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// Revoke is a mock implementation of store.SessionStore.Revoke
func (m *TestifyMockSessionStore) Revoke(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// RevokeAllForUser is a mock implementation of store.SessionStore.RevokeAllForUser
func (m *TestifyMockSessionStore) RevokeAllForUser(ctx context.Context, userID uuid.UUID, at time.Time) (int64, error) {
	args := m.Called(ctx, userID, at)
	return args.Get(0).(int64), args.Error(1)
}

// DeleteInactive is a mock implementation of store.SessionStore.DeleteInactive
func (m *TestifyMockSessionStore) DeleteInactive(ctx context.Context, idleCutoff, now time.Time) (int64, error) {
	args := m.Called(ctx, idleCutoff, now)
	return args.Get(0).(int64), args.Error(1)
}

// WithTx is a mock implementation of store.SessionStore.WithTx
func (m *TestifyMockSessionStore) WithTx(tx *sql.Tx) store.SessionStore {
	args := m.Called(tx)
	if ret, ok := args.Get(0).(store.SessionStore); ok {
		return ret
	}
	return m
}

package mocks

import (
	"context"
	"database/sql"
	"slices"
	"sync"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/store"
)

// MockUserStore is an in-memory store.UserStore. Any Fn field that is set
// replaces the in-memory behavior for that method; GetByEmailError, when set,
// is returned by every GetByEmail call.
type MockUserStore struct {
	CreateFn     func(ctx context.Context, user *domain.User) error
	GetByEmailFn func(ctx context.Context, email string) (*domain.User, error)
	GetByIDFn    func(ctx context.Context, id uuid.UUID) (*domain.User, error)
	ListFn       func(ctx context.Context, limit, offset int) ([]*domain.User, error)
	UpdateFn     func(ctx context.Context, user *domain.User) error
	DeleteFn     func(ctx context.Context, id uuid.UUID) error

	GetByEmailError error

	mu      sync.Mutex
	byID    map[uuid.UUID]*domain.User
	byEmail map[string]uuid.UUID
}

var _ store.UserStore = (*MockUserStore)(nil)

func NewMockUserStore() *MockUserStore {
	return &MockUserStore{
		byID:    make(map[uuid.UUID]*domain.User),
		byEmail: make(map[string]uuid.UUID),
	}
}

func (m *MockUserStore) Create(ctx context.Context, user *domain.User) error {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	email := domain.NormalizeEmail(user.Email)
	if _, taken := m.byEmail[email]; taken {
		return store.ErrEmailExists
	}
	m.byID[user.ID] = user
	m.byEmail[email] = user.ID
	return nil
}

func (m *MockUserStore) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	if m.GetByEmailFn != nil {
		return m.GetByEmailFn(ctx, email)
	}
	if m.GetByEmailError != nil {
		return nil, m.GetByEmailError
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id, ok := m.byEmail[domain.NormalizeEmail(email)]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return m.byID[id], nil
}

func (m *MockUserStore) GetByID(ctx context.Context, id uuid.UUID) (*domain.User, error) {
	if m.GetByIDFn != nil {
		return m.GetByIDFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	return user, nil
}

func (m *MockUserStore) List(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, limit, offset)
	}

	m.mu.Lock()
	users := make([]*domain.User, 0, len(m.byID))
	for _, u := range m.byID {
		users = append(users, u)
	}
	m.mu.Unlock()

	slices.SortFunc(users, func(a, b *domain.User) int { return a.CreatedAt.Compare(b.CreatedAt) })
	if offset >= len(users) {
		return []*domain.User{}, nil
	}
	users = users[offset:]
	if limit > 0 && limit < len(users) {
		users = users[:limit]
	}
	return users, nil
}

func (m *MockUserStore) Update(ctx context.Context, user *domain.User) error {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, user)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	old, ok := m.byID[user.ID]
	if !ok {
		return store.ErrUserNotFound
	}
	oldEmail, newEmail := domain.NormalizeEmail(old.Email), domain.NormalizeEmail(user.Email)
	if oldEmail != newEmail {
		if _, taken := m.byEmail[newEmail]; taken {
			return store.ErrEmailExists
		}
		delete(m.byEmail, oldEmail)
		m.byEmail[newEmail] = user.ID
	}
	m.byID[user.ID] = user
	return nil
}

func (m *MockUserStore) Delete(ctx context.Context, id uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, id)
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.byID[id]
	if !ok {
		return store.ErrUserNotFound
	}
	delete(m.byEmail, domain.NormalizeEmail(user.Email))
	delete(m.byID, id)
	return nil
}

// WithTx returns m; the mock has no transactional state.
func (m *MockUserStore) WithTx(*sql.Tx) store.UserStore {
	return m
}

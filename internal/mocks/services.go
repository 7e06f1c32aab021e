package mocks

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/service"
)

// MockAuthService implements service.AuthService for testing
type MockAuthService struct {
	RegisterFn              func(ctx context.Context, name, email, password string) (*service.AuthResult, error)
	LoginFn                 func(ctx context.Context, email, password string) (*service.AuthResult, error)
	RefreshFn               func(ctx context.Context, refreshToken string) (*service.TokenPair, error)
	LogoutFn                func(ctx context.Context, sessionID uuid.UUID) error
	AuthenticateFn          func(ctx context.Context, accessToken string) (*service.Principal, error)
	CurrentUserFn           func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	SweepInactiveSessionsFn func(ctx context.Context) (int64, error)

	// Principal is returned by Authenticate when AuthenticateFn is nil.
	Principal *service.Principal
	// Err is returned by every method without an Fn override.
	Err error
}

var _ service.AuthService = (*MockAuthService)(nil)

// Register implements service.AuthService
func (m *MockAuthService) Register(ctx context.Context, name, email, password string) (*service.AuthResult, error) {
	if m.RegisterFn != nil {
		return m.RegisterFn(ctx, name, email, password)
	}
	return nil, m.Err
}

// Login implements service.AuthService
func (m *MockAuthService) Login(ctx context.Context, email, password string) (*service.AuthResult, error) {
	if m.LoginFn != nil {
		return m.LoginFn(ctx, email, password)
	}
	return nil, m.Err
}

// Refresh implements service.AuthService
func (m *MockAuthService) Refresh(ctx context.Context, refreshToken string) (*service.TokenPair, error) {
	if m.RefreshFn != nil {
		return m.RefreshFn(ctx, refreshToken)
	}
	return nil, m.Err
}

// Logout implements service.AuthService
func (m *MockAuthService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	if m.LogoutFn != nil {
		return m.LogoutFn(ctx, sessionID)
	}
	return m.Err
}

// Authenticate implements service.AuthService
func (m *MockAuthService) Authenticate(ctx context.Context, accessToken string) (*service.Principal, error) {
	if m.AuthenticateFn != nil {
		return m.AuthenticateFn(ctx, accessToken)
	}
	if m.Err != nil {
		return nil, m.Err
	}
	return m.Principal, nil
}

// CurrentUser implements service.AuthService
func (m *MockAuthService) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.CurrentUserFn != nil {
		return m.CurrentUserFn(ctx, userID)
	}
	return nil, m.Err
}

// SweepInactiveSessions implements service.AuthService
func (m *MockAuthService) SweepInactiveSessions(ctx context.Context) (int64, error) {
	if m.SweepInactiveSessionsFn != nil {
		return m.SweepInactiveSessionsFn(ctx)
	}
	return 0, m.Err
}

// MockTaskService implements service.TaskService for testing
type MockTaskService struct {
	ListFn    func(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error)
	GetFn     func(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error)
	CreateFn  func(ctx context.Context, userID uuid.UUID, input service.CreateTaskInput) (*domain.Task, error)
	UpdateFn  func(ctx context.Context, userID, taskID uuid.UUID, update domain.TaskUpdate) (*domain.Task, error)
	DeleteFn  func(ctx context.Context, userID, taskID uuid.UUID) error
	DueSoonFn func(ctx context.Context, userID uuid.UUID, window time.Duration) ([]*domain.Task, error)
	ListAllFn func(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error)
	GetAnyFn  func(ctx context.Context, taskID uuid.UUID) (*domain.Task, error)

	// Default return values
	Task         *domain.Task
	Tasks        []*domain.Task
	DefaultError error
}

var _ service.TaskService = (*MockTaskService)(nil)

// List implements service.TaskService
func (m *MockTaskService) List(ctx context.Context, userID uuid.UUID, filter domain.TaskFilter) ([]*domain.Task, error) {
	if m.ListFn != nil {
		return m.ListFn(ctx, userID, filter)
	}
	return m.Tasks, m.DefaultError
}

// Get implements service.TaskService
func (m *MockTaskService) Get(ctx context.Context, userID, taskID uuid.UUID) (*domain.Task, error) {
	if m.GetFn != nil {
		return m.GetFn(ctx, userID, taskID)
	}
	return m.Task, m.DefaultError
}

// Create implements service.TaskService
func (m *MockTaskService) Create(
	ctx context.Context,
	userID uuid.UUID,
	input service.CreateTaskInput,
) (*domain.Task, error) {
	if m.CreateFn != nil {
		return m.CreateFn(ctx, userID, input)
	}
	return m.Task, m.DefaultError
}

// Update implements service.TaskService
func (m *MockTaskService) Update(
	ctx context.Context,
	userID, taskID uuid.UUID,
	update domain.TaskUpdate,
) (*domain.Task, error) {
	if m.UpdateFn != nil {
		return m.UpdateFn(ctx, userID, taskID, update)
	}
	return m.Task, m.DefaultError
}

// Delete implements service.TaskService
func (m *MockTaskService) Delete(ctx context.Context, userID, taskID uuid.UUID) error {
	if m.DeleteFn != nil {
		return m.DeleteFn(ctx, userID, taskID)
	}
	return m.DefaultError
}

// DueSoon implements service.TaskService
func (m *MockTaskService) DueSoon(ctx context.Context, userID uuid.UUID, window time.Duration) ([]*domain.Task, error) {
	if m.DueSoonFn != nil {
		return m.DueSoonFn(ctx, userID, window)
	}
	return m.Tasks, m.DefaultError
}

// ListAll implements service.TaskService
func (m *MockTaskService) ListAll(ctx context.Context, filter domain.TaskFilter) ([]*domain.Task, error) {
	if m.ListAllFn != nil {
		return m.ListAllFn(ctx, filter)
	}
	return m.Tasks, m.DefaultError
}

// GetAny implements service.TaskService
func (m *MockTaskService) GetAny(ctx context.Context, taskID uuid.UUID) (*domain.Task, error) {
	if m.GetAnyFn != nil {
		return m.GetAnyFn(ctx, taskID)
	}
	return m.Task, m.DefaultError
}

// MockUserService implements service.UserService for testing
type MockUserService struct {
	GetUserFn   func(ctx context.Context, userID uuid.UUID) (*domain.User, error)
	ListUsersFn func(ctx context.Context, limit, offset int) ([]*domain.User, error)

	User         *domain.User
	Users        []*domain.User
	DefaultError error
}

var _ service.UserService = (*MockUserService)(nil)

// GetUser implements service.UserService
func (m *MockUserService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	if m.GetUserFn != nil {
		return m.GetUserFn(ctx, userID)
	}
	return m.User, m.DefaultError
}

// ListUsers implements service.UserService
func (m *MockUserService) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	if m.ListUsersFn != nil {
		return m.ListUsersFn(ctx, limit, offset)
	}
	return m.Users, m.DefaultError
}

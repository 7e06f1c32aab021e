package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/store"
)

// Page bounds for ListUsers.
const (
	DefaultUserLimit = 100
	MaxUserLimit     = 500
)

// UserService backs the admin user views.
type UserService interface {
	GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// ListUsers returns users oldest first. A zero limit means
	// DefaultUserLimit; larger limits are capped at MaxUserLimit.
	ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error)
}

type userService struct {
	users  store.UserStore
	logger *slog.Logger
}

// NewUserService creates a UserService reading from users.
func NewUserService(users store.UserStore, logger *slog.Logger) UserService {
	if logger == nil {
		logger = slog.Default()
	}
	return &userService{
		users:  users,
		logger: logger.With(slog.String("component", "user_service")),
	}
}

func (s *userService) GetUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.users.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

func (s *userService) ListUsers(ctx context.Context, limit, offset int) ([]*domain.User, error) {
	switch {
	case limit <= 0:
		limit = DefaultUserLimit
	case limit > MaxUserLimit:
		limit = MaxUserLimit
	}
	if offset < 0 {
		offset = 0
	}

	users, err := s.users.List(ctx, limit, offset)
	if err != nil {
		logger.FromContextOrDefault(ctx, s.logger).Error("failed to list users",
			slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to list users: %w", err)
	}
	return users, nil
}

package mocks

import (
	"context"
	"time"

	"github.com/phrazzld/taskman/internal/service/auth"
)

// MockJWTService is a canned auth.JWTService. Generate* return Token or
// RefreshToken with Err; Validate* return Claims with ValidateErr. The Fn
// hooks take precedence when set.
type MockJWTService struct {
	GenerateTokenFn        func(ctx context.Context, id auth.Identity) (string, error)
	ValidateTokenFn        func(ctx context.Context, token string) (*auth.Claims, error)
	GenerateRefreshTokenFn func(ctx context.Context, id auth.Identity) (string, error)
	ValidateRefreshTokenFn func(ctx context.Context, token string) (*auth.Claims, error)

	Token        string
	RefreshToken string
	Err          error
	Claims       *auth.Claims
	ValidateErr  error
	// Lifetime defaults to an hour.
	Lifetime time.Duration
}

var _ auth.JWTService = (*MockJWTService)(nil)

func (m *MockJWTService) GenerateToken(ctx context.Context, id auth.Identity) (string, error) {
	if m.GenerateTokenFn != nil {
		return m.GenerateTokenFn(ctx, id)
	}
	return m.Token, m.Err
}

func (m *MockJWTService) GenerateRefreshToken(ctx context.Context, id auth.Identity) (string, error) {
	if m.GenerateRefreshTokenFn != nil {
		return m.GenerateRefreshTokenFn(ctx, id)
	}
	return m.RefreshToken, m.Err
}

func (m *MockJWTService) ValidateToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateTokenFn != nil {
		return m.ValidateTokenFn(ctx, token)
	}
	return m.Claims, m.ValidateErr
}

func (m *MockJWTService) ValidateRefreshToken(ctx context.Context, token string) (*auth.Claims, error) {
	if m.ValidateRefreshTokenFn != nil {
		return m.ValidateRefreshTokenFn(ctx, token)
	}
	return m.Claims, m.ValidateErr
}

func (m *MockJWTService) AccessTokenLifetime() time.Duration {
	if m.Lifetime > 0 {
		return m.Lifetime
	}
	return time.Hour
}

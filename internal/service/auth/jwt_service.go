package auth

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
)

// Token types carried in the "type" claim.
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Identity is what a token asserts about its bearer.
type Identity struct {
	UserID    uuid.UUID
	SessionID uuid.UUID
	Role      domain.Role
}

// JWTService issues and checks the signed tokens handed to clients. Access
// and refresh tokens share a secret but differ in lifetime and "type" claim,
// so neither validates as the other.
type JWTService interface {
	GenerateToken(ctx context.Context, id Identity) (string, error)

	// ValidateToken returns ErrExpiredToken, ErrInvalidToken or
	// ErrWrongTokenType on failure.
	ValidateToken(ctx context.Context, token string) (*Claims, error)

	GenerateRefreshToken(ctx context.Context, id Identity) (string, error)

	// ValidateRefreshToken returns ErrExpiredRefreshToken,
	// ErrInvalidRefreshToken or ErrWrongTokenType on failure.
	ValidateRefreshToken(ctx context.Context, token string) (*Claims, error)

	AccessTokenLifetime() time.Duration
}

// Claims is the decoded payload of a token.
type Claims struct {
	UserID    uuid.UUID   `json:"uid,omitempty"`
	SessionID uuid.UUID   `json:"sid,omitempty"`
	Role      domain.Role `json:"role,omitempty"`
	TokenType string      `json:"type,omitempty"`

	Subject   string    `json:"sub,omitempty"`
	IssuedAt  time.Time `json:"iat,omitempty"`
	ExpiresAt time.Time `json:"exp,omitempty"`
	ID        string    `json:"jti,omitempty"`
}

func (c *Claims) Identity() Identity {
	return Identity{UserID: c.UserID, SessionID: c.SessionID, Role: c.Role}
}

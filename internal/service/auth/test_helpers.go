package auth

import (
	"context"

	"github.com/phrazzld/taskman/internal/config"
)

// DefaultJWTConfig is the auth configuration shared by tests: a fixed secret,
// the cheapest bcrypt cost, and a 30 minute idle timeout.
func DefaultJWTConfig() config.AuthConfig {
	return config.AuthConfig{
		JWTSecret:                   "test-jwt-secret-that-is-32-chars-long",
		BCryptCost:                  4,
		TokenLifetimeMinutes:        60,
		RefreshTokenLifetimeMinutes: 1440,
		IdleTimeoutMinutes:          30,
		SessionTouchIntervalSeconds: 60,
	}
}

// MustCreateTestJWTService builds a JWTService from DefaultJWTConfig.
func MustCreateTestJWTService() JWTService {
	svc, err := NewJWTService(DefaultJWTConfig())
	if err != nil {
		panic("test JWT config rejected: " + err.Error()) // ALLOW-PANIC
	}
	return svc
}

// GenerateAuthHeaderForTesting returns "Bearer <access token>" for id.
func GenerateAuthHeaderForTesting(id Identity) (string, error) {
	token, err := MustCreateTestJWTService().GenerateToken(context.Background(), id)
	if err != nil {
		return "", err
	}
	return "Bearer " + token, nil
}

package middleware

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/api/shared"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/mocks"
	"github.com/phrazzld/taskman/internal/service"
	"github.com/phrazzld/taskman/internal/service/auth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAuthMiddleware_Authenticate(t *testing.T) {
	t.Parallel()

	userID := uuid.New()
	idleAt := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	tests := []struct {
		name            string
		authHeader      string
		authErr         error
		expectedStatus  int
		expectedMessage string
	}{
		{
			name:           "valid token",
			authHeader:     "Bearer valid-token",
			expectedStatus: http.StatusOK,
		},
		{
			name:           "lowercase scheme",
			authHeader:     "bearer valid-token",
			expectedStatus: http.StatusOK,
		},
		{
			name:            "missing auth header",
			authHeader:      "",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, no token",
		},
		{
			name:            "invalid auth format",
			authHeader:      "InvalidFormat",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, no token",
		},
		{
			name:            "empty bearer",
			authHeader:      "Bearer   ",
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, no token",
		},
		{
			name:            "invalid token",
			authHeader:      "Bearer invalid-token",
			authErr:         auth.ErrInvalidToken,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Not authorized, token invalid",
		},
		{
			name:            "idle session",
			authHeader:      "Bearer idle-token",
			authErr:         service.ErrSessionIdle,
			expectedStatus:  http.StatusUnauthorized,
			expectedMessage: "Session expired due to inactivity",
		},
		{
			name:            "unexpected failure",
			authHeader:      "Bearer token",
			authErr:         assert.AnError,
			expectedStatus:  http.StatusInternalServerError,
			expectedMessage: "Authentication error",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			authService := &mocks.MockAuthService{
				AuthenticateFn: func(ctx context.Context, token string) (*service.Principal, error) {
					if tt.authErr != nil {
						return nil, tt.authErr
					}
					assert.Equal(t, "valid-token", token)
					return &service.Principal{
						UserID:        userID,
						SessionID:     uuid.New(),
						Role:          domain.RoleUser,
						IdleExpiresAt: idleAt,
					}, nil
				},
			}

			var gotUserID uuid.UUID
			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				p, ok := shared.GetPrincipal(r.Context())
				require.True(t, ok)
				gotUserID = p.UserID
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/tasks", nil)
			if tt.authHeader != "" {
				req.Header.Set("Authorization", tt.authHeader)
			}
			rr := httptest.NewRecorder()

			NewAuthMiddleware(authService).Authenticate(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusOK {
				assert.Equal(t, userID, gotUserID)
				assert.Equal(t, "2026-01-02T03:04:05Z", rr.Header().Get(IdleExpiresHeader))
				return
			}

			var body shared.ErrorResponse
			require.NoError(t, json.NewDecoder(rr.Body).Decode(&body))
			assert.Equal(t, tt.expectedMessage, body.Error)
			assert.Empty(t, rr.Header().Get(IdleExpiresHeader))
		})
	}
}

func TestRequireRole(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name           string
		principal      *service.Principal
		expectedStatus int
	}{
		{
			name:           "admin allowed",
			principal:      &service.Principal{UserID: uuid.New(), Role: domain.RoleAdmin},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "user forbidden",
			principal:      &service.Principal{UserID: uuid.New(), Role: domain.RoleUser},
			expectedStatus: http.StatusForbidden,
		},
		{
			name:           "unauthenticated",
			expectedStatus: http.StatusUnauthorized,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			next := http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(http.StatusOK)
			})

			req := httptest.NewRequest(http.MethodGet, "/api/admin/users", nil)
			if tt.principal != nil {
				req = req.WithContext(shared.WithPrincipal(req.Context(), tt.principal))
			}
			rr := httptest.NewRecorder()

			RequireRole(domain.RoleAdmin)(next).ServeHTTP(rr, req)

			assert.Equal(t, tt.expectedStatus, rr.Code)
			if tt.expectedStatus == http.StatusForbidden {
				assert.Contains(t, rr.Body.String(), "Not authorized, admin access required")
			}
		})
	}
}

func TestBearerToken(t *testing.T) {
	t.Parallel()

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer abc.def.ghi")
	token, ok := bearerToken(req)
	assert.True(t, ok)
	assert.Equal(t, "abc.def.ghi", token)

	req.Header.Set("Authorization", "Basic dXNlcjpwYXNz")
	_, ok = bearerToken(req)
	assert.False(t, ok)
}

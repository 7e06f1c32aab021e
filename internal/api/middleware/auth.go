package middleware

import (
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/phrazzld/taskman/internal/api"
	"github.com/phrazzld/taskman/internal/api/shared"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/service"
	"github.com/phrazzld/taskman/internal/service/auth"
)

// IdleExpiresHeader tells clients when the current session goes idle unless
// another authenticated request arrives first.
const IdleExpiresHeader = "X-Session-Idle-Expires-At"

// AuthMiddleware authenticates bearer tokens against live sessions.
type AuthMiddleware struct {
	authService service.AuthService
}

// NewAuthMiddleware creates a new AuthMiddleware with the given dependencies.
func NewAuthMiddleware(authService service.AuthService) *AuthMiddleware {
	return &AuthMiddleware{
		authService: authService,
	}
}

// Authenticate validates the bearer token from the Authorization header,
// refreshes the session's activity and adds the caller to the request context.
func (m *AuthMiddleware) Authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			api.HandleAPIError(w, r, auth.ErrMissingToken, "")
			return
		}

		p, err := m.authService.Authenticate(r.Context(), token)
		if err != nil {
			api.HandleAPIError(w, r, err, "Authentication error")
			return
		}

		if !p.IdleExpiresAt.IsZero() {
			w.Header().Set(IdleExpiresHeader, p.IdleExpiresAt.UTC().Format(time.RFC3339))
		}

		ctx := shared.WithPrincipal(r.Context(), p)
		ctx = logger.WithLogger(ctx, logger.FromContextOrDefault(ctx, slog.Default()).
			With(slog.String("user_id", p.UserID.String())))

		next.ServeHTTP(w, r.WithContext(ctx))
	})
}

// RequireRole rejects authenticated callers whose role differs from role.
// It must run after Authenticate.
func RequireRole(role domain.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			p, ok := shared.GetPrincipal(r.Context())
			if !ok {
				api.HandleAPIError(w, r, domain.ErrUnauthorized, "")
				return
			}
			if p.Role != role {
				api.HandleAPIError(w, r, domain.ErrForbidden, "")
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// bearerToken returns the token from an "Authorization: Bearer <token>" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

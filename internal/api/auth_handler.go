package api

import (
	"log/slog"
	"net/http"

	"github.com/phrazzld/taskman/internal/api/shared"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/service"
)

// AuthHandler handles authentication-related API requests.
type AuthHandler struct {
	authService service.AuthService
	logger      *slog.Logger
}

// NewAuthHandler creates a new AuthHandler with the given dependencies.
func NewAuthHandler(authService service.AuthService, logger *slog.Logger) *AuthHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &AuthHandler{
		authService: authService,
		logger:      logger.With(slog.String("component", "auth_handler")),
	}
}

// Register handles POST /api/auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req RegisterRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	res, err := h.authService.Register(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Server error during registration")
		return
	}

	logger.FromContextOrDefault(r.Context(), h.logger).
		Info("user registered", slog.String("user_id", res.User.ID.String()))
	shared.RespondWithJSON(w, r, http.StatusCreated, authResponse(res))
}

// Login handles POST /api/auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req LoginRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	res, err := h.authService.Login(r.Context(), req.Email, req.Password)
	if err != nil {
		HandleAPIError(w, r, err, "Server error during login")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, authResponse(res))
}

// RefreshToken handles POST /api/auth/refresh.
func (h *AuthHandler) RefreshToken(w http.ResponseWriter, r *http.Request) {
	var req RefreshTokenRequest
	if err := shared.DecodeJSON(r, &req); err != nil {
		shared.RespondWithErrorAndLog(w, r, http.StatusBadRequest, "Invalid request format", err)
		return
	}
	if err := shared.ValidateRequest(&req); err != nil {
		HandleValidationError(w, r, err)
		return
	}

	pair, err := h.authService.Refresh(r.Context(), req.RefreshToken)
	if err != nil {
		HandleAPIError(w, r, err, "Failed to refresh token")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, RefreshTokenResponse{
		Token:        pair.AccessToken,
		RefreshToken: pair.RefreshToken,
		ExpiresAt:    formatTime(pair.ExpiresAt),
	})
}

// Me handles GET /api/auth/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	p, ok := getPrincipal(w, r)
	if !ok {
		return
	}

	user, err := h.authService.CurrentUser(r.Context(), p.UserID)
	if err != nil {
		HandleAPIError(w, r, err, "Server error fetching user profile")
		return
	}

	shared.RespondWithJSON(w, r, http.StatusOK, UserEnvelope{User: userToResponse(user)})
}

// Logout handles POST /api/auth/logout by revoking the caller's session.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	p, ok := getPrincipal(w, r)
	if !ok {
		return
	}

	if err := h.authService.Logout(r.Context(), p.SessionID); err != nil {
		HandleAPIError(w, r, err, "Failed to log out")
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func authResponse(res *service.AuthResult) AuthResponse {
	return AuthResponse{
		User:         userToResponse(res.User),
		Token:        res.Tokens.AccessToken,
		RefreshToken: res.Tokens.RefreshToken,
		ExpiresAt:    formatTime(res.Tokens.ExpiresAt),
	}
}

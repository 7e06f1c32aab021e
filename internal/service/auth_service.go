package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/config"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/phrazzld/taskman/internal/service/auth"
	"github.com/phrazzld/taskman/internal/store"
)

// TokenPair is an access token and the refresh token that renews it.
type TokenPair struct {
	AccessToken  string
	RefreshToken string
	ExpiresAt    time.Time
}

// AuthResult is returned by Register and Login.
type AuthResult struct {
	User   *domain.User
	Tokens TokenPair
}

// Principal is the authenticated caller of a request.
type Principal struct {
	UserID        uuid.UUID
	SessionID     uuid.UUID
	Role          domain.Role
	IdleExpiresAt time.Time
}

// IsAdmin reports whether the principal holds the admin role.
func (p Principal) IsAdmin() bool {
	return p.Role == domain.RoleAdmin
}

// PasswordManager hashes new passwords and verifies presented ones.
type PasswordManager interface {
	auth.PasswordHasher
	auth.PasswordVerifier
}

// AuthService handles registration, login and session-backed token authentication.
type AuthService interface {
	// Register creates a user and a first session in one transaction.
	// Returns store.ErrEmailExists when the email is taken.
	Register(ctx context.Context, name, email, password string) (*AuthResult, error)

	// Login verifies credentials and opens a new session.
	// Returns ErrInvalidCredentials for an unknown email or wrong password.
	Login(ctx context.Context, email, password string) (*AuthResult, error)

	// Refresh exchanges a refresh token for a new token pair on the same session.
	Refresh(ctx context.Context, refreshToken string) (*TokenPair, error)

	// Logout revokes the session. Logging out twice is not an error.
	Logout(ctx context.Context, sessionID uuid.UUID) error

	// Authenticate validates an access token against its session and records activity.
	Authenticate(ctx context.Context, accessToken string) (*Principal, error)

	// CurrentUser loads the user behind a principal.
	CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error)

	// SweepInactiveSessions deletes revoked, expired and idle sessions.
	SweepInactiveSessions(ctx context.Context) (int64, error)
}

// AuthServiceOption customizes an AuthService.
type AuthServiceOption func(*authService)

// WithClock replaces the time source, for tests.
func WithClock(now func() time.Time) AuthServiceOption {
	return func(s *authService) { s.now = now }
}

type authService struct {
	db            *sql.DB
	userStore     store.UserStore
	sessionStore  store.SessionStore
	jwtService    auth.JWTService
	passwords     PasswordManager
	idleTimeout   time.Duration
	touchInterval time.Duration
	sessionTTL    time.Duration
	now           func() time.Time
	logger        *slog.Logger
}

var _ AuthService = (*authService)(nil)

// NewAuthService creates an AuthService.
func NewAuthService(
	db *sql.DB,
	userStore store.UserStore,
	sessionStore store.SessionStore,
	jwtService auth.JWTService,
	passwords PasswordManager,
	cfg config.AuthConfig,
	logger *slog.Logger,
	opts ...AuthServiceOption,
) (AuthService, error) {
	if db == nil || userStore == nil || sessionStore == nil || jwtService == nil || passwords == nil {
		return nil, domain.NewValidationError("auth_service", "missing dependency", nil)
	}
	if logger == nil {
		logger = slog.Default()
	}

	s := &authService{
		db:            db,
		userStore:     userStore,
		sessionStore:  sessionStore,
		jwtService:    jwtService,
		passwords:     passwords,
		idleTimeout:   cfg.IdleTimeout(),
		touchInterval: cfg.SessionTouchInterval(),
		sessionTTL:    cfg.RefreshTokenLifetime(),
		now:           time.Now,
		logger:        logger.With(slog.String("component", "auth_service")),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

func (s *authService) clock() time.Time {
	return s.now().UTC()
}

// Register implements AuthService.
func (s *authService) Register(ctx context.Context, name, email, password string) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := domain.NewUser(name, email, password)
	if err != nil {
		return nil, err
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		log.Error("failed to hash password", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}
	user.HashedPassword = hash
	user.Password = ""

	session := domain.NewSession(user.ID, s.clock(), s.sessionTTL)

	err = store.RunInTransaction(ctx, s.db, func(ctx context.Context, tx *sql.Tx) error {
		if err := s.userStore.WithTx(tx).Create(ctx, user); err != nil {
			return err
		}
		return s.sessionStore.WithTx(tx).Create(ctx, session)
	})
	if err != nil {
		if errors.Is(err, store.ErrEmailExists) {
			log.Debug("registration with existing email")
			return nil, store.ErrEmailExists
		}
		log.Error("failed to register user", slog.String("error", err.Error()))
		return nil, fmt.Errorf("failed to register user: %w", err)
	}

	tokens, err := s.issue(ctx, user, session.ID)
	if err != nil {
		return nil, err
	}

	log.Info("user registered", slog.String("user_id", user.ID.String()))
	return &AuthResult{User: user, Tokens: *tokens}, nil
}

// Login implements AuthService.
func (s *authService) Login(ctx context.Context, email, password string) (*AuthResult, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	user, err := s.userStore.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			log.Debug("login for unknown email")
			return nil, ErrInvalidCredentials
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}

	if err := s.passwords.Compare(user.HashedPassword, password); err != nil {
		log.Debug("login with wrong password", slog.String("user_id", user.ID.String()))
		return nil, ErrInvalidCredentials
	}

	session := domain.NewSession(user.ID, s.clock(), s.sessionTTL)
	if err := s.sessionStore.Create(ctx, session); err != nil {
		log.Error("failed to create session",
			slog.String("error", err.Error()),
			slog.String("user_id", user.ID.String()))
		return nil, fmt.Errorf("failed to create session: %w", err)
	}

	tokens, err := s.issue(ctx, user, session.ID)
	if err != nil {
		return nil, err
	}

	log.Info("user logged in",
		slog.String("user_id", user.ID.String()),
		slog.String("session_id", session.ID.String()))
	return &AuthResult{User: user, Tokens: *tokens}, nil
}

// Refresh implements AuthService.
func (s *authService) Refresh(ctx context.Context, refreshToken string) (*TokenPair, error) {
	claims, err := s.jwtService.ValidateRefreshToken(ctx, refreshToken)
	if err != nil {
		return nil, err
	}

	session, err := s.activeSession(ctx, claims)
	if err != nil {
		return nil, err
	}

	user, err := s.sessionUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	if err := s.sessionStore.Touch(ctx, session.ID, s.clock()); err != nil {
		return nil, fmt.Errorf("failed to touch session: %w", err)
	}

	return s.issue(ctx, user, session.ID)
}

// Logout implements AuthService.
func (s *authService) Logout(ctx context.Context, sessionID uuid.UUID) error {
	err := s.sessionStore.Revoke(ctx, sessionID, s.clock())
	if err != nil && !errors.Is(err, store.ErrSessionNotFound) {
		return fmt.Errorf("failed to revoke session: %w", err)
	}

	logger.FromContextOrDefault(ctx, s.logger).Info("session revoked",
		slog.String("session_id", sessionID.String()))
	return nil
}

// Authenticate implements AuthService.
func (s *authService) Authenticate(ctx context.Context, accessToken string) (*Principal, error) {
	claims, err := s.jwtService.ValidateToken(ctx, accessToken)
	if err != nil {
		return nil, err
	}

	session, err := s.activeSession(ctx, claims)
	if err != nil {
		return nil, err
	}

	// Role comes from the user row so a demotion takes effect on the next
	// request rather than when the access token expires.
	user, err := s.sessionUser(ctx, claims.UserID)
	if err != nil {
		return nil, err
	}

	now := s.clock()
	lastSeen := session.LastSeenAt
	if now.Sub(lastSeen) >= s.touchInterval {
		if err := s.sessionStore.Touch(ctx, session.ID, now); err != nil {
			return nil, fmt.Errorf("failed to touch session: %w", err)
		}
		lastSeen = now
	}

	return &Principal{
		UserID:        user.ID,
		SessionID:     session.ID,
		Role:          user.Role,
		IdleExpiresAt: lastSeen.Add(s.idleTimeout),
	}, nil
}

// activeSession loads the claims' session and enforces revocation, the
// absolute expiry and the idle timeout. Idle sessions are revoked on sight.
func (s *authService) activeSession(ctx context.Context, claims *auth.Claims) (*domain.Session, error) {
	log := logger.FromContextOrDefault(ctx, s.logger)

	session, err := s.sessionStore.GetByID(ctx, claims.SessionID)
	if err != nil {
		if errors.Is(err, store.ErrSessionNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to load session: %w", err)
	}

	now := s.clock()
	switch {
	case session.UserID != claims.UserID:
		log.Warn("token session belongs to another user",
			slog.String("session_id", session.ID.String()),
			slog.String("user_id", claims.UserID.String()))
		return nil, ErrSessionRevoked
	case session.IsRevoked(), session.IsExpired(now):
		return nil, ErrSessionRevoked
	case session.IsIdle(now, s.idleTimeout):
		if err := s.sessionStore.Revoke(ctx, session.ID, now); err != nil {
			log.Error("failed to revoke idle session",
				slog.String("error", err.Error()),
				slog.String("session_id", session.ID.String()))
		}
		log.Info("session expired due to inactivity",
			slog.String("session_id", session.ID.String()),
			slog.Time("last_seen_at", session.LastSeenAt))
		return nil, ErrSessionIdle
	}

	return session, nil
}

// sessionUser loads the account behind a session. A deleted account revokes
// the session.
func (s *authService) sessionUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		if errors.Is(err, store.ErrUserNotFound) {
			return nil, ErrSessionRevoked
		}
		return nil, fmt.Errorf("failed to load user: %w", err)
	}
	return user, nil
}

// CurrentUser implements AuthService.
func (s *authService) CurrentUser(ctx context.Context, userID uuid.UUID) (*domain.User, error) {
	user, err := s.userStore.GetByID(ctx, userID)
	if err != nil {
		return nil, fmt.Errorf("failed to retrieve user: %w", err)
	}
	return user, nil
}

// SweepInactiveSessions implements AuthService.
func (s *authService) SweepInactiveSessions(ctx context.Context) (int64, error) {
	now := s.clock()
	n, err := s.sessionStore.DeleteInactive(ctx, now.Add(-s.idleTimeout), now)
	if err != nil {
		return 0, fmt.Errorf("failed to sweep sessions: %w", err)
	}
	return n, nil
}

func (s *authService) issue(ctx context.Context, user *domain.User, sessionID uuid.UUID) (*TokenPair, error) {
	id := auth.Identity{UserID: user.ID, SessionID: sessionID, Role: user.Role}

	access, err := s.jwtService.GenerateToken(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate access token: %w", err)
	}
	refresh, err := s.jwtService.GenerateRefreshToken(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("failed to generate refresh token: %w", err)
	}

	return &TokenPair{
		AccessToken:  access,
		RefreshToken: refresh,
		ExpiresAt:    s.clock().Add(s.jwtService.AccessTokenLifetime()),
	}, nil
}

package service_test

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/phrazzld/taskman/internal/domain"
	"github.com/phrazzld/taskman/internal/service"
	"github.com/phrazzld/taskman/internal/service/auth"
	"github.com/phrazzld/taskman/internal/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewAuthService_MissingDependencies(t *testing.T) {
	t.Parallel()

	_, err := service.NewAuthService(nil, nil, nil, nil, nil, auth.DefaultJWTConfig(), nil)
	assert.ErrorIs(t, err, domain.ErrValidation)
}

func TestAuthService_Register(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, "Ada Lovelace", "  Ada@Example.com ")
	assert.Equal(t, "ada@example.com", res.User.Email)
	assert.Equal(t, domain.RoleUser, res.User.Role)
	assert.NotEmpty(t, res.Tokens.AccessToken)
	assert.NotEmpty(t, res.Tokens.RefreshToken)
	assert.WithinDuration(t, f.clock.Now().Add(time.Hour), res.Tokens.ExpiresAt, time.Second)

	stored, err := f.users.GetByEmail(ctx, "ada@example.com")
	require.NoError(t, err)
	assert.NotEqual(t, "password123", stored.HashedPassword)

	principal, err := f.auth.Authenticate(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, principal.UserID)
	assert.False(t, principal.IsAdmin())
}

func TestAuthService_RegisterErrors(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	f.register(t, "Ada Lovelace", "ada@example.com")

	_, err := f.auth.Register(ctx, "Someone Else", "ADA@example.com", "password123")
	assert.ErrorIs(t, err, store.ErrEmailExists)

	_, err = f.auth.Register(ctx, "A", "short@example.com", "password123")
	assert.ErrorIs(t, err, domain.ErrValidation)

	_, err = f.auth.Register(ctx, "Bob Builder", "not-an-email", "password123")
	assert.ErrorIs(t, err, domain.ErrInvalidEmail)

	_, err = f.auth.Register(ctx, "Bob Builder", "bob@example.com", "123")
	assert.ErrorIs(t, err, domain.ErrPasswordTooShort)

	// A failed registration leaves no partial user behind.
	_, err = f.users.GetByEmail(ctx, "bob@example.com")
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestAuthService_Login(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	registered := f.register(t, "Ada Lovelace", "ada@example.com")

	res, err := f.auth.Login(ctx, "ADA@example.com", "password123")
	require.NoError(t, err)
	assert.Equal(t, registered.User.ID, res.User.ID)

	loginClaims, err := auth.MustCreateTestJWTService().ValidateToken(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)
	registerClaims, err := auth.MustCreateTestJWTService().ValidateToken(ctx, registered.Tokens.AccessToken)
	require.NoError(t, err)
	assert.NotEqual(t, registerClaims.SessionID, loginClaims.SessionID, "each login opens its own session")

	_, err = f.auth.Login(ctx, "ada@example.com", "wrong-password")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)

	_, err = f.auth.Login(ctx, "nobody@example.com", "password123")
	assert.ErrorIs(t, err, service.ErrInvalidCredentials)
}

func TestAuthService_Authenticate(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("rejects a refresh token", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		res := f.register(t, "Ada Lovelace", "ada@example.com")

		_, err := f.auth.Authenticate(ctx, res.Tokens.RefreshToken)
		assert.ErrorIs(t, err, auth.ErrWrongTokenType)
	})

	t.Run("rejects garbage", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)

		_, err := f.auth.Authenticate(ctx, "garbage")
		assert.ErrorIs(t, err, auth.ErrInvalidToken)
	})

	t.Run("rejects a token for an unknown session", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		res := f.register(t, "Ada Lovelace", "ada@example.com")

		token, err := auth.MustCreateTestJWTService().GenerateToken(ctx,
			auth.Identity{UserID: res.User.ID, SessionID: uuid.New(), Role: domain.RoleUser})
		require.NoError(t, err)

		_, err = f.auth.Authenticate(ctx, token)
		assert.ErrorIs(t, err, service.ErrSessionRevoked)
	})

	t.Run("rejects a session owned by someone else", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		ada := f.register(t, "Ada Lovelace", "ada@example.com")
		bob := f.register(t, "Bob Builder", "bob@example.com")

		adaClaims, err := auth.MustCreateTestJWTService().ValidateToken(ctx, ada.Tokens.AccessToken)
		require.NoError(t, err)
		forged, err := auth.MustCreateTestJWTService().GenerateToken(ctx,
			auth.Identity{UserID: bob.User.ID, SessionID: adaClaims.SessionID, Role: domain.RoleUser})
		require.NoError(t, err)

		_, err = f.auth.Authenticate(ctx, forged)
		assert.ErrorIs(t, err, service.ErrSessionRevoked)
	})

	t.Run("reports the idle deadline", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		res := f.register(t, "Ada Lovelace", "ada@example.com")

		start := f.clock.Now()
		principal, err := f.auth.Authenticate(ctx, res.Tokens.AccessToken)
		require.NoError(t, err)
		assert.WithinDuration(t, start.Add(30*time.Minute), principal.IdleExpiresAt, time.Second)
	})
}

func TestAuthService_IdleTimeout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()

	t.Run("activity keeps the session alive", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		res := f.register(t, "Ada Lovelace", "ada@example.com")

		for i := 0; i < 4; i++ {
			f.clock.Advance(20 * time.Minute)
			principal, err := f.auth.Authenticate(ctx, res.Tokens.AccessToken)
			require.NoError(t, err, "request %d", i)
			assert.WithinDuration(t, f.clock.Now().Add(30*time.Minute), principal.IdleExpiresAt, time.Second)
		}
	})

	t.Run("requests inside the touch interval do not extend the deadline", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		res := f.register(t, "Ada Lovelace", "ada@example.com")

		first, err := f.auth.Authenticate(ctx, res.Tokens.AccessToken)
		require.NoError(t, err)

		f.clock.Advance(30 * time.Second)
		second, err := f.auth.Authenticate(ctx, res.Tokens.AccessToken)
		require.NoError(t, err)
		assert.Equal(t, first.IdleExpiresAt.Unix(), second.IdleExpiresAt.Unix())
	})

	t.Run("an idle session expires and stays revoked", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		res := f.register(t, "Ada Lovelace", "ada@example.com")

		f.clock.Advance(31 * time.Minute)
		_, err := f.auth.Authenticate(ctx, res.Tokens.AccessToken)
		assert.ErrorIs(t, err, service.ErrSessionIdle)

		f.clock.Advance(-30 * time.Minute)
		_, err = f.auth.Authenticate(ctx, res.Tokens.AccessToken)
		assert.ErrorIs(t, err, service.ErrSessionRevoked)

		_, err = f.auth.Refresh(ctx, res.Tokens.RefreshToken)
		assert.ErrorIs(t, err, service.ErrSessionRevoked)
	})

	t.Run("refresh after idle timeout fails", func(t *testing.T) {
		t.Parallel()
		f := newFixture(t)
		res := f.register(t, "Ada Lovelace", "ada@example.com")

		f.clock.Advance(45 * time.Minute)
		_, err := f.auth.Refresh(ctx, res.Tokens.RefreshToken)
		assert.ErrorIs(t, err, service.ErrSessionIdle)
	})
}

func TestAuthService_Refresh(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, "Ada Lovelace", "ada@example.com")
	f.clock.Advance(10 * time.Minute)

	pair, err := f.auth.Refresh(ctx, res.Tokens.RefreshToken)
	require.NoError(t, err)
	assert.NotEmpty(t, pair.AccessToken)
	assert.NotEmpty(t, pair.RefreshToken)

	principal, err := f.auth.Authenticate(ctx, pair.AccessToken)
	require.NoError(t, err)
	assert.Equal(t, res.User.ID, principal.UserID)
	assert.WithinDuration(t, f.clock.Now().Add(30*time.Minute), principal.IdleExpiresAt, time.Second)

	_, err = f.auth.Refresh(ctx, res.Tokens.AccessToken)
	assert.ErrorIs(t, err, auth.ErrWrongTokenType)

	_, err = f.auth.Refresh(ctx, "garbage")
	assert.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestAuthService_RefreshAfterUserDeleted(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, "Ada Lovelace", "ada@example.com")
	require.NoError(t, f.users.Delete(ctx, res.User.ID))

	_, err := f.auth.Refresh(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, service.ErrSessionRevoked)
}

func TestAuthService_Logout(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, "Ada Lovelace", "ada@example.com")
	principal, err := f.auth.Authenticate(ctx, res.Tokens.AccessToken)
	require.NoError(t, err)

	require.NoError(t, f.auth.Logout(ctx, principal.SessionID))
	require.NoError(t, f.auth.Logout(ctx, principal.SessionID), "logout is idempotent")
	require.NoError(t, f.auth.Logout(ctx, uuid.New()), "unknown sessions are ignored")

	_, err = f.auth.Authenticate(ctx, res.Tokens.AccessToken)
	assert.ErrorIs(t, err, service.ErrSessionRevoked)

	_, err = f.auth.Refresh(ctx, res.Tokens.RefreshToken)
	assert.ErrorIs(t, err, service.ErrSessionRevoked)
}

func TestAuthService_CurrentUser(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	res := f.register(t, "Ada Lovelace", "ada@example.com")

	user, err := f.auth.CurrentUser(ctx, res.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", user.Name)

	_, err = f.auth.CurrentUser(ctx, uuid.New())
	assert.ErrorIs(t, err, store.ErrUserNotFound)
}

func TestAuthService_SweepInactiveSessions(t *testing.T) {
	t.Parallel()
	f := newFixture(t)
	ctx := context.Background()

	idle := f.register(t, "Ada Lovelace", "ada@example.com")
	f.clock.Advance(20 * time.Minute)
	active := f.register(t, "Bob Builder", "bob@example.com")
	f.clock.Advance(15 * time.Minute)

	n, err := f.auth.SweepInactiveSessions(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	_, err = f.auth.Authenticate(ctx, idle.Tokens.AccessToken)
	assert.ErrorIs(t, err, service.ErrSessionRevoked)

	_, err = f.auth.Authenticate(ctx, active.Tokens.AccessToken)
	assert.NoError(t, err)
}

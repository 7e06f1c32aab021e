package tokenstore

import (
	"bytes"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/phrazzld/taskman/internal/client"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// testWorkFactor keeps scrypt fast in tests.
const testWorkFactor = 10

func newTestStore(t *testing.T, passphrase string) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "nested", FileName)
	s, err := New(path, passphrase, WithWorkFactor(testWorkFactor))
	require.NoError(t, err)
	return s
}

func testCredentials() *Credentials {
	return &Credentials{
		Server:        "http://localhost:8080",
		Email:         "alice@example.com",
		AccessToken:   "access-token-value",
		RefreshToken:  "refresh-token-value",
		ExpiresAt:     time.Date(2030, 1, 1, 12, 0, 0, 0, time.UTC),
		IdleExpiresAt: time.Date(2030, 1, 1, 11, 30, 0, 0, time.UTC),
	}
}

func TestNew_RequiresPathAndPassphrase(t *testing.T) {
	t.Parallel()

	_, err := New("", "pass")
	assert.Error(t, err)
	_, err = New("creds.age", "")
	assert.Error(t, err)
}

func TestStore_SaveLoad(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "correct horse")
	want := testCredentials()
	require.NoError(t, s.Save(want))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, want.Email, got.Email)
	assert.Equal(t, want.AccessToken, got.AccessToken)
	assert.Equal(t, want.RefreshToken, got.RefreshToken)
	assert.True(t, want.ExpiresAt.Equal(got.ExpiresAt))
	assert.True(t, want.IdleExpiresAt.Equal(got.IdleExpiresAt))
}

func TestStore_FileIsEncryptedAndPrivate(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "correct horse")
	require.NoError(t, s.Save(testCredentials()))

	raw, err := os.ReadFile(s.Path())
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(raw, []byte("age-encryption.org/v1")))
	assert.NotContains(t, string(raw), "access-token-value")
	assert.NotContains(t, string(raw), "alice@example.com")

	if runtime.GOOS != "windows" {
		info, err := os.Stat(s.Path())
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
	}
}

func TestStore_LoadMissing(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "pass")
	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestStore_WrongPassphrase(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "right")
	require.NoError(t, s.Save(testCredentials()))

	other, err := New(s.Path(), "wrong")
	require.NoError(t, err)
	_, err = other.Load()
	assert.ErrorIs(t, err, ErrWrongPassphrase)
}

func TestStore_SaveOverwrites(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "pass")
	first := testCredentials()
	require.NoError(t, s.Save(first))

	second := testCredentials()
	second.AccessToken = "rotated"
	require.NoError(t, s.Save(second))

	got, err := s.Load()
	require.NoError(t, err)
	assert.Equal(t, "rotated", got.AccessToken)

	entries, err := os.ReadDir(filepath.Dir(s.Path()))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp files are cleaned up")
}

func TestStore_Clear(t *testing.T) {
	t.Parallel()

	s := newTestStore(t, "pass")
	require.NoError(t, s.Clear(), "clearing nothing is fine")

	require.NoError(t, s.Save(testCredentials()))
	require.NoError(t, s.Clear())

	_, err := s.Load()
	assert.ErrorIs(t, err, ErrNoCredentials)
}

func TestCredentials_Tokens(t *testing.T) {
	t.Parallel()

	c := testCredentials()
	tokens := c.Tokens()
	assert.Equal(t, "access-token-value", tokens.AccessToken)

	c.SetTokens(client.Tokens{AccessToken: "a2", RefreshToken: "r2"})
	assert.Equal(t, "a2", c.AccessToken)
	assert.Equal(t, "r2", c.RefreshToken)
	assert.True(t, c.ExpiresAt.IsZero())
}

func TestCredentials_IdleExpired(t *testing.T) {
	t.Parallel()

	c := testCredentials()
	assert.False(t, c.IdleExpired(c.IdleExpiresAt.Add(-time.Minute)))
	assert.True(t, c.IdleExpired(c.IdleExpiresAt.Add(time.Minute)))

	c.IdleExpiresAt = time.Time{}
	assert.False(t, c.IdleExpired(time.Now()))
}

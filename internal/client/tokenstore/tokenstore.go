// Package tokenstore persists client credentials in a file encrypted with an
// age scrypt passphrase. The file is written atomically with mode 0600.
package tokenstore

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"filippo.io/age"
	"github.com/phrazzld/taskman/internal/client"
)

// FileName is the credentials file name used by DefaultPath.
const FileName = "credentials.age"

var (
	// ErrNoCredentials is returned by Load when nothing has been saved.
	ErrNoCredentials = errors.New("no saved credentials")

	// ErrWrongPassphrase is returned by Load when the file cannot be
	// decrypted with the store's passphrase.
	ErrWrongPassphrase = errors.New("credentials cannot be decrypted with this passphrase")
)

// Credentials is what gets persisted between CLI invocations.
type Credentials struct {
	Server        string    `json:"server"`
	Email         string    `json:"email"`
	AccessToken   string    `json:"access_token"`
	RefreshToken  string    `json:"refresh_token"`
	ExpiresAt     time.Time `json:"expires_at"`
	IdleExpiresAt time.Time `json:"idle_expires_at,omitzero"`
}

// Tokens returns the token part of the credentials.
func (c *Credentials) Tokens() client.Tokens {
	return client.Tokens{
		AccessToken:  c.AccessToken,
		RefreshToken: c.RefreshToken,
		ExpiresAt:    c.ExpiresAt,
	}
}

// SetTokens replaces the token part of the credentials.
func (c *Credentials) SetTokens(t client.Tokens) {
	c.AccessToken = t.AccessToken
	c.RefreshToken = t.RefreshToken
	c.ExpiresAt = t.ExpiresAt
}

// IdleExpired reports whether the server-side idle deadline recorded with the
// credentials has passed.
func (c *Credentials) IdleExpired(now time.Time) bool {
	return !c.IdleExpiresAt.IsZero() && now.After(c.IdleExpiresAt)
}

// Store reads and writes one encrypted credentials file.
type Store struct {
	path       string
	passphrase string
	workFactor int
}

// Option configures a Store.
type Option func(*Store)

// WithWorkFactor sets the scrypt work factor (log2 of N) used when saving.
// Zero keeps age's default.
func WithWorkFactor(logN int) Option {
	return func(s *Store) { s.workFactor = logN }
}

// New creates a Store for path. The passphrase must not be empty.
func New(path, passphrase string, opts ...Option) (*Store, error) {
	if path == "" {
		return nil, errors.New("tokenstore: path is required")
	}
	if passphrase == "" {
		return nil, errors.New("tokenstore: passphrase is required")
	}
	s := &Store{path: path, passphrase: passphrase}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// DefaultPath returns the credentials path under the user config directory.
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("tokenstore: locating config directory: %w", err)
	}
	return filepath.Join(dir, "taskman", FileName), nil
}

// Path returns the file the store reads and writes.
func (s *Store) Path() string { return s.path }

// Save encrypts creds and replaces the credentials file.
func (s *Store) Save(creds *Credentials) error {
	plaintext, err := json.Marshal(creds)
	if err != nil {
		return fmt.Errorf("tokenstore: encoding credentials: %w", err)
	}

	recipient, err := age.NewScryptRecipient(s.passphrase)
	if err != nil {
		return fmt.Errorf("tokenstore: creating recipient: %w", err)
	}
	if s.workFactor > 0 {
		recipient.SetWorkFactor(s.workFactor)
	}

	var ciphertext bytes.Buffer
	w, err := age.Encrypt(&ciphertext, recipient)
	if err != nil {
		return fmt.Errorf("tokenstore: creating encryptor: %w", err)
	}
	if _, err := w.Write(plaintext); err != nil {
		return fmt.Errorf("tokenstore: encrypting credentials: %w", err)
	}
	if err := w.Close(); err != nil {
		return fmt.Errorf("tokenstore: finalizing encryption: %w", err)
	}

	return writeFileAtomic(s.path, ciphertext.Bytes())
}

// Load decrypts the credentials file. It returns ErrNoCredentials when the
// file does not exist and ErrWrongPassphrase when it cannot be decrypted.
func (s *Store) Load() (*Credentials, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, ErrNoCredentials
		}
		return nil, fmt.Errorf("tokenstore: reading credentials: %w", err)
	}

	identity, err := age.NewScryptIdentity(s.passphrase)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: creating identity: %w", err)
	}

	r, err := age.Decrypt(bytes.NewReader(data), identity)
	if err != nil {
		var noMatch *age.NoIdentityMatchError
		if errors.As(err, &noMatch) || errors.Is(err, age.ErrIncorrectIdentity) {
			return nil, ErrWrongPassphrase
		}
		return nil, fmt.Errorf("tokenstore: decrypting credentials: %w", err)
	}

	plaintext, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("tokenstore: decrypting credentials: %w", err)
	}

	var creds Credentials
	if err := json.Unmarshal(plaintext, &creds); err != nil {
		return nil, fmt.Errorf("tokenstore: decoding credentials: %w", err)
	}
	return &creds, nil
}

// Clear removes the credentials file. Clearing an absent file is not an error.
func (s *Store) Clear() error {
	if err := os.Remove(s.path); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return fmt.Errorf("tokenstore: removing credentials: %w", err)
	}
	return nil
}

func writeFileAtomic(path string, data []byte) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("tokenstore: creating directory: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".credentials-*")
	if err != nil {
		return fmt.Errorf("tokenstore: creating temp file: %w", err)
	}
	tmpName := tmp.Name()
	defer func() { _ = os.Remove(tmpName) }()

	if err := tmp.Chmod(0o600); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tokenstore: setting permissions: %w", err)
	}
	if _, err := tmp.Write(data); err != nil {
		_ = tmp.Close()
		return fmt.Errorf("tokenstore: writing credentials: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("tokenstore: writing credentials: %w", err)
	}
	if err := os.Rename(tmpName, path); err != nil {
		return fmt.Errorf("tokenstore: replacing credentials: %w", err)
	}
	return nil
}

package domain

import (
	"errors"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
)

// Role distinguishes regular users from administrators.
type Role string

// Supported roles.
const (
	RoleUser  Role = "user"
	RoleAdmin Role = "admin"
)

// User constraints.
const (
	MinNameLength     = 2
	MaxNameLength     = 50
	MinPasswordLength = 6
	// MaxPasswordLength is bcrypt's input limit.
	MaxPasswordLength = 72
)

// Common validation errors
var (
	ErrEmptyUserID         = errors.New("user ID cannot be empty")
	ErrEmptyName           = errors.New("name cannot be empty")
	ErrInvalidName         = errors.New("name must be between 2 and 50 characters")
	ErrEmptyEmail          = errors.New("email cannot be empty")
	ErrInvalidEmail        = errors.New("invalid email format")
	ErrEmptyPassword       = errors.New("password cannot be empty")
	ErrPasswordTooShort    = errors.New("password must be at least 6 characters long")
	ErrPasswordTooLong     = errors.New("password must be at most 72 characters long")
	ErrEmptyHashedPassword = errors.New("hashed password cannot be empty")
	ErrInvalidRole         = errors.New("invalid role")
)

var emailValidator = validator.New()

// User represents a registered account.
type User struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Email          string    `json:"email"`
	Password       string    `json:"-"` // Plaintext password, used temporarily during registration/updates
	HashedPassword string    `json:"-"`
	Role           Role      `json:"role"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// NewUser creates a regular user with a fresh ID.
// The email is trimmed and lower-cased before validation.
//
// The caller is responsible for hashing the password before storing the user.
func NewUser(name, email, password string) (*User, error) {
	now := time.Now().UTC()
	user := &User{
		ID:        uuid.New(),
		Name:      strings.TrimSpace(name),
		Email:     NormalizeEmail(email),
		Password:  password,
		Role:      RoleUser,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := user.Validate(); err != nil {
		return nil, err
	}

	return user, nil
}

// NormalizeEmail trims and lower-cases an address so lookups are case-insensitive.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// Validate checks if the User has valid data.
func (u *User) Validate() error {
	if u.ID == uuid.Nil {
		return NewValidationError("id", "is required", ErrEmptyUserID)
	}

	if u.Name == "" {
		return NewValidationError("name", "is required", ErrEmptyName)
	}
	if n := utf8.RuneCountInString(u.Name); n < MinNameLength || n > MaxNameLength {
		return NewValidationError("name", "must be between 2 and 50 characters", ErrInvalidName)
	}

	if u.Email == "" {
		return NewValidationError("email", "is required", ErrEmptyEmail)
	}
	if emailValidator.Var(u.Email, "email") != nil {
		return NewValidationError("email", "must be a valid email", ErrInvalidEmail)
	}

	// A plaintext password is only present during creation or a password change;
	// persisted users carry the hash instead.
	if u.Password != "" {
		if len(u.Password) < MinPasswordLength {
			return NewValidationError("password", "must be at least 6 characters", ErrPasswordTooShort)
		}
		if len(u.Password) > MaxPasswordLength {
			return NewValidationError("password", "must be at most 72 characters", ErrPasswordTooLong)
		}
	} else if u.HashedPassword == "" {
		return NewValidationError("password", "is required", ErrEmptyPassword)
	}

	if !u.Role.Valid() {
		return NewValidationError("role", "must be user or admin", ErrInvalidRole)
	}

	return nil
}

// IsAdmin reports whether the user holds the admin role.
func (u *User) IsAdmin() bool {
	return u.Role == RoleAdmin
}

// Valid reports whether r is a known role.
func (r Role) Valid() bool {
	return r == RoleUser || r == RoleAdmin
}

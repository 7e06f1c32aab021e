package mocks

import (
	"github.com/phrazzld/taskman/internal/service/auth"
)

// MockPasswordManager implements auth.PasswordHasher and auth.PasswordVerifier for testing
type MockPasswordManager struct {
	// ShouldSucceed determines whether the password comparison should succeed
	ShouldSucceed bool

	// HashFn allows for custom hashing logic in tests
	HashFn func(password string) (string, error)

	// CompareFn allows for custom comparison logic in tests
	CompareFn func(hashedPassword, password string) error

	// CompareCalledWith stores the arguments passed to Compare for verification
	CompareCalledWith struct {
		HashedPassword string
		Password       string
	}

	// CompareCallCount tracks how many times Compare was called
	CompareCallCount int
}

var (
	_ auth.PasswordHasher   = (*MockPasswordManager)(nil)
	_ auth.PasswordVerifier = (*MockPasswordManager)(nil)
)

// Hash implements the auth.PasswordHasher interface
func (m *MockPasswordManager) Hash(password string) (string, error) {
	if m.HashFn != nil {
		return m.HashFn(password)
	}
	return "hashed:" + password, nil
}

// Compare implements the auth.PasswordVerifier interface
func (m *MockPasswordManager) Compare(hashedPassword, password string) error {
	m.CompareCalledWith.HashedPassword = hashedPassword
	m.CompareCalledWith.Password = password
	m.CompareCallCount++

	if m.CompareFn != nil {
		return m.CompareFn(hashedPassword, password)
	}

	if m.ShouldSucceed {
		return nil
	}
	return auth.ErrPasswordMismatch
}

package store

import (
	"errors"
	"fmt"
)

// Generic sentinels. Implementations return the entity-specific variants
// below, which wrap these, so callers can match at either level.
var (
	ErrNotFound      = errors.New("entity not found")
	ErrDuplicate     = errors.New("entity already exists")
	ErrInvalidEntity = errors.New("invalid entity")
)

var (
	ErrUserNotFound = fmt.Errorf("%w: user", ErrNotFound)

	// ErrTaskNotFound covers both a missing task and one owned by someone
	// else. Ownership-scoped lookups never tell the two apart.
	ErrTaskNotFound = fmt.Errorf("%w: task", ErrNotFound)

	ErrSessionNotFound = fmt.Errorf("%w: session", ErrNotFound)

	// ErrEmailExists is returned by Create and Update on a case-insensitive
	// email collision.
	ErrEmailExists = fmt.Errorf("%w: email", ErrDuplicate)
)

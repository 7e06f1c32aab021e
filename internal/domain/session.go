package domain

import (
	"time"

	"github.com/google/uuid"
)

// Session backs a login. Every token pair references one session so that
// logout, refresh rotation and the inactivity timeout can be enforced on the
// server.
type Session struct {
	ID         uuid.UUID
	UserID     uuid.UUID
	CreatedAt  time.Time
	LastSeenAt time.Time
	ExpiresAt  time.Time
	RevokedAt  *time.Time
}

// NewSession starts a session for userID that lives at most lifetime.
func NewSession(userID uuid.UUID, now time.Time, lifetime time.Duration) *Session {
	now = now.UTC()
	return &Session{
		ID:         uuid.New(),
		UserID:     userID,
		CreatedAt:  now,
		LastSeenAt: now,
		ExpiresAt:  now.Add(lifetime),
	}
}

// IsRevoked reports whether the session was ended explicitly.
func (s *Session) IsRevoked() bool {
	return s.RevokedAt != nil
}

// IsExpired reports whether the absolute lifetime has elapsed.
func (s *Session) IsExpired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// IsIdle reports whether the session has seen no activity for longer than idleTimeout.
func (s *Session) IsIdle(now time.Time, idleTimeout time.Duration) bool {
	return now.Sub(s.LastSeenAt) > idleTimeout
}

// IsActive reports whether the session may still authenticate requests.
func (s *Session) IsActive(now time.Time, idleTimeout time.Duration) bool {
	return !s.IsRevoked() && !s.IsExpired(now) && !s.IsIdle(now, idleTimeout)
}

// IdleDeadline is the instant after which the session counts as idle.
func (s *Session) IdleDeadline(idleTimeout time.Duration) time.Time {
	return s.LastSeenAt.Add(idleTimeout)
}

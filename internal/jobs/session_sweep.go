package jobs

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"
)

// SessionSweeper deletes sessions that can no longer authenticate.
type SessionSweeper interface {
	SweepInactiveSessions(ctx context.Context) (int64, error)
}

// SessionSweepJob removes revoked, expired and idle sessions.
type SessionSweepJob struct {
	id      uuid.UUID
	sweeper SessionSweeper
	logger  *slog.Logger
}

var _ Job = (*SessionSweepJob)(nil)

// NewSessionSweepJob creates a single sweep run.
func NewSessionSweepJob(sweeper SessionSweeper, logger *slog.Logger) *SessionSweepJob {
	if sweeper == nil {
		panic("sweeper cannot be nil") // ALLOW-PANIC
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &SessionSweepJob{id: uuid.New(), sweeper: sweeper, logger: logger}
}

// SessionSweepFactory returns a Factory for use with Runner.Every.
func SessionSweepFactory(sweeper SessionSweeper, logger *slog.Logger) Factory {
	return func() Job { return NewSessionSweepJob(sweeper, logger) }
}

func (j *SessionSweepJob) ID() uuid.UUID { return j.id }

func (j *SessionSweepJob) Type() string { return TypeSessionSweep }

// Execute runs one sweep.
func (j *SessionSweepJob) Execute(ctx context.Context) error {
	n, err := j.sweeper.SweepInactiveSessions(ctx)
	if err != nil {
		return fmt.Errorf("sweep sessions: %w", err)
	}
	if n > 0 {
		j.logger.Info("swept inactive sessions", slog.Int64("count", n))
	} else {
		j.logger.Debug("no inactive sessions to sweep")
	}
	return nil
}

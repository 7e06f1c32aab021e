package jobs

import (
	"context"

	"github.com/google/uuid"
)

// Job types known to the runner.
const (
	TypeSessionSweep = "session_sweep"
)

// Job represents a unit of background work to be processed.
type Job interface {
	// ID returns the job's unique identifier
	ID() uuid.UUID

	// Type returns the job type identifier
	Type() string

	// Execute runs the job logic
	Execute(ctx context.Context) error
}

// Factory builds a fresh Job for every tick of a periodic schedule.
type Factory func() Job

// funcJob adapts a plain function to the Job interface.
type funcJob struct {
	id  uuid.UUID
	typ string
	fn  func(ctx context.Context) error
}

// NewFuncJob wraps fn as a Job of the given type.
func NewFuncJob(jobType string, fn func(ctx context.Context) error) Job {
	return &funcJob{id: uuid.New(), typ: jobType, fn: fn}
}

func (j *funcJob) ID() uuid.UUID                     { return j.id }
func (j *funcJob) Type() string                      { return j.typ }
func (j *funcJob) Execute(ctx context.Context) error { return j.fn(ctx) }

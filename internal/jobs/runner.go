package jobs

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime/debug"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"
)

// ErrRunnerStopped is returned by Submit once Stop has been called.
var ErrRunnerStopped = errors.New("job runner is stopped")

// Config holds configuration for the job runner
type Config struct {
	// WorkerCount determines how many concurrent workers process jobs.
	// If zero or negative, defaults to 1.
	WorkerCount int

	// QueueSize determines the buffer size for the in-memory job queue
	QueueSize int
}

// DefaultConfig returns a Config with reasonable defaults
func DefaultConfig() Config {
	return Config{
		WorkerCount: 2,
		QueueSize:   100,
	}
}

type schedule struct {
	name     string
	interval time.Duration
	factory  Factory
}

// Runner manages background job processing.
type Runner struct {
	config Config
	queue  *Queue
	logger *slog.Logger

	mu        sync.Mutex
	started   bool
	stopped   bool
	schedules []schedule

	// schedCtx stops periodic schedules; jobCtx is handed to executing jobs and
	// is only cancelled when Stop gives up waiting for them.
	schedCtx    context.Context
	cancelSched context.CancelFunc
	jobCtx      context.Context
	cancelJobs  context.CancelFunc

	workers    errgroup.Group
	tickers    errgroup.Group
	errHandler func(job Job, err error)
}

// NewRunner creates a new Runner. Call Start to begin processing.
func NewRunner(config Config, logger *slog.Logger) *Runner {
	if logger == nil {
		logger = slog.Default()
	}
	logger = logger.With(slog.String("component", "job_runner"))

	if config.WorkerCount <= 0 {
		logger.Warn("invalid worker count specified, using default",
			slog.Int("specified_count", config.WorkerCount),
			slog.Int("default_count", 1))
		config.WorkerCount = 1
	}
	if config.QueueSize <= 0 {
		config.QueueSize = DefaultConfig().QueueSize
	}

	schedCtx, cancelSched := context.WithCancel(context.Background())
	jobCtx, cancelJobs := context.WithCancel(context.Background())

	return &Runner{
		config:      config,
		queue:       NewQueue(config.QueueSize, logger),
		logger:      logger,
		schedCtx:    schedCtx,
		cancelSched: cancelSched,
		jobCtx:      jobCtx,
		cancelJobs:  cancelJobs,
		errHandler: func(job Job, err error) {
			logger.Error("job execution failed",
				slog.String("job_id", job.ID().String()),
				slog.String("job_type", job.Type()),
				slog.String("error", err.Error()))
		},
	}
}

// SetErrorHandler replaces the handler called when a job returns an error.
// It must be called before Start.
func (r *Runner) SetErrorHandler(handler func(job Job, err error)) {
	if handler != nil {
		r.errHandler = handler
	}
}

// Submit adds a job to the queue without blocking.
func (r *Runner) Submit(job Job) error {
	r.mu.Lock()
	stopped := r.stopped
	r.mu.Unlock()
	if stopped {
		return ErrRunnerStopped
	}

	if err := r.queue.Enqueue(job); err != nil {
		if errors.Is(err, ErrQueueClosed) {
			return ErrRunnerStopped
		}
		return err
	}
	return nil
}

// Every registers a periodic schedule that submits factory() each interval.
// Schedules registered after Start begin immediately.
func (r *Runner) Every(name string, interval time.Duration, factory Factory) error {
	if interval <= 0 {
		return fmt.Errorf("schedule %q: interval must be positive", name)
	}
	if factory == nil {
		return fmt.Errorf("schedule %q: factory is required", name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRunnerStopped
	}

	s := schedule{name: name, interval: interval, factory: factory}
	r.schedules = append(r.schedules, s)
	if r.started {
		r.tickers.Go(func() error { r.runSchedule(s); return nil })
	}
	return nil
}

// Start launches the workers and any registered schedules.
func (r *Runner) Start() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.stopped {
		return ErrRunnerStopped
	}
	if r.started {
		return nil
	}
	r.started = true

	for i := 0; i < r.config.WorkerCount; i++ {
		id := i
		r.workers.Go(func() error { r.worker(id); return nil })
	}
	for _, s := range r.schedules {
		s := s
		r.tickers.Go(func() error { r.runSchedule(s); return nil })
	}

	r.logger.Info("job runner started",
		slog.Int("workers", r.config.WorkerCount),
		slog.Int("queue_size", r.config.QueueSize),
		slog.Int("schedules", len(r.schedules)))
	return nil
}

// Stop halts schedules, closes the queue and waits for workers to drain the
// jobs already queued. If ctx expires first, running jobs are cancelled and
// ctx's error is returned once the workers exit.
func (r *Runner) Stop(ctx context.Context) error {
	r.mu.Lock()
	if r.stopped {
		r.mu.Unlock()
		return nil
	}
	r.stopped = true
	r.mu.Unlock()

	r.cancelSched()
	_ = r.tickers.Wait()
	r.queue.Close()

	done := make(chan struct{})
	go func() {
		_ = r.workers.Wait()
		close(done)
	}()

	select {
	case <-done:
		r.cancelJobs()
		r.logger.Info("job runner stopped")
		return nil
	case <-ctx.Done():
		r.cancelJobs()
		<-done
		r.logger.Warn("job runner stopped before queue drained", slog.String("error", ctx.Err().Error()))
		return ctx.Err()
	}
}

// worker processes jobs from the queue until it is closed and empty.
func (r *Runner) worker(id int) {
	r.logger.Debug("starting worker", slog.Int("worker_id", id))
	for job := range r.queue.Channel() {
		r.processJob(job, id)
	}
	r.logger.Debug("stopping worker", slog.Int("worker_id", id))
}

// processJob executes a single job, converting panics into errors.
func (r *Runner) processJob(job Job, workerID int) {
	log := r.logger.With(
		slog.String("job_id", job.ID().String()),
		slog.String("job_type", job.Type()),
		slog.Int("worker_id", workerID),
	)

	start := time.Now()
	err := func() (err error) {
		defer func() {
			if rec := recover(); rec != nil {
				err = fmt.Errorf("job panicked: %v", rec)
				log.Error("job panic recovered", slog.String("stack", string(debug.Stack())))
			}
		}()
		return job.Execute(r.jobCtx)
	}()

	if err != nil {
		r.errHandler(job, err)
		return
	}
	log.Debug("job completed", slog.Duration("duration", time.Since(start)))
}

// runSchedule submits a fresh job every interval until the runner stops.
func (r *Runner) runSchedule(s schedule) {
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-r.schedCtx.Done():
			return
		case <-ticker.C:
			job := s.factory()
			if err := r.queue.Enqueue(job); err != nil {
				r.logger.Warn("skipping scheduled job",
					slog.String("schedule", s.name),
					slog.String("job_type", job.Type()),
					slog.String("error", err.Error()))
			}
		}
	}
}

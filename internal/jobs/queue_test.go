package jobs

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

func noopJob() Job {
	return NewFuncJob("noop", func(context.Context) error { return nil })
}

func TestQueue_EnqueueAndConsume(t *testing.T) {
	t.Parallel()

	q := NewQueue(2, discardLogger())
	first, second := noopJob(), noopJob()

	require.NoError(t, q.Enqueue(first))
	require.NoError(t, q.Enqueue(second))
	assert.Equal(t, 2, q.Len())

	assert.Equal(t, first.ID(), (<-q.Channel()).ID())
	assert.Equal(t, second.ID(), (<-q.Channel()).ID())
}

func TestQueue_Full(t *testing.T) {
	t.Parallel()

	q := NewQueue(1, discardLogger())
	require.NoError(t, q.Enqueue(noopJob()))

	err := q.Enqueue(noopJob())
	assert.ErrorIs(t, err, ErrQueueFull)
	assert.Contains(t, err.Error(), "capacity 1")
}

func TestQueue_Close(t *testing.T) {
	t.Parallel()

	q := NewQueue(2, discardLogger())
	job := noopJob()
	require.NoError(t, q.Enqueue(job))

	q.Close()
	q.Close()

	assert.ErrorIs(t, q.Enqueue(noopJob()), ErrQueueClosed)

	got, ok := <-q.Channel()
	require.True(t, ok, "buffered jobs survive close")
	assert.Equal(t, job.ID(), got.ID())

	_, ok = <-q.Channel()
	assert.False(t, ok)
}

func TestNewQueue_NonPositiveSize(t *testing.T) {
	t.Parallel()

	q := NewQueue(0, nil)
	require.NoError(t, q.Enqueue(noopJob()))
	assert.ErrorIs(t, q.Enqueue(noopJob()), ErrQueueFull)
}

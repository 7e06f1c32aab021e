package client

import (
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestIdleTimer_FiresAfterTimeout(t *testing.T) {
	t.Parallel()

	fired := make(chan struct{}, 1)
	timer := NewIdleTimer(30*time.Millisecond, func() { fired <- struct{}{} })
	defer timer.Stop()

	select {
	case <-fired:
	case <-time.After(time.Second):
		t.Fatal("timeout callback not called")
	}
}

func TestIdleTimer_TouchPostpones(t *testing.T) {
	t.Parallel()

	var fired atomic.Bool
	timer := NewIdleTimer(200*time.Millisecond, func() { fired.Store(true) })
	defer timer.Stop()

	for range 4 {
		time.Sleep(50 * time.Millisecond)
		timer.Touch()
	}
	assert.False(t, fired.Load())

	assert.Eventually(t, fired.Load, time.Second, 10*time.Millisecond)
}

func TestIdleTimer_WarningBeforeTimeout(t *testing.T) {
	t.Parallel()

	order := make(chan string, 2)
	timer := NewIdleTimer(60*time.Millisecond,
		func() { order <- "timeout" },
		WithWarning(40*time.Millisecond, func() { order <- "warn" }))
	defer timer.Stop()

	assert.Equal(t, "warn", <-order)
	assert.Equal(t, "timeout", <-order)
}

func TestIdleTimer_InvalidWarningIgnored(t *testing.T) {
	t.Parallel()

	var warned atomic.Bool
	fired := make(chan struct{}, 1)
	timer := NewIdleTimer(20*time.Millisecond,
		func() { fired <- struct{}{} },
		WithWarning(time.Second, func() { warned.Store(true) }))
	defer timer.Stop()

	<-fired
	assert.False(t, warned.Load())
}

func TestIdleTimer_Stop(t *testing.T) {
	t.Parallel()

	var fired atomic.Bool
	timer := NewIdleTimer(20*time.Millisecond, func() { fired.Store(true) })
	timer.Stop()
	timer.Touch()

	time.Sleep(60 * time.Millisecond)
	assert.False(t, fired.Load())
}

func TestNewIdleTimer_PanicsOnNonPositiveTimeout(t *testing.T) {
	t.Parallel()
	assert.Panics(t, func() { NewIdleTimer(0, func() {}) })
}

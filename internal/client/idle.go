package client

import (
	"sync"
	"time"
)

// IdleTimer fires a callback after a period without activity. An optional
// warning callback fires a fixed lead time before the timeout. Touch restarts
// both countdowns; after the timeout fires the timer stays expired until Touch.
type IdleTimer struct {
	timeout   time.Duration
	onTimeout func()

	warnBefore time.Duration
	onWarn     func()

	mu      sync.Mutex
	timer   *time.Timer
	warn    *time.Timer
	stopped bool
}

// IdleOption configures an IdleTimer.
type IdleOption func(*IdleTimer)

// WithWarning calls fn once the timer is within before of timing out.
// Ignored when before is not shorter than the timeout.
func WithWarning(before time.Duration, fn func()) IdleOption {
	return func(t *IdleTimer) {
		t.warnBefore = before
		t.onWarn = fn
	}
}

// NewIdleTimer starts a timer that calls onTimeout after timeout of inactivity.
func NewIdleTimer(timeout time.Duration, onTimeout func(), opts ...IdleOption) *IdleTimer {
	if timeout <= 0 {
		panic("idle timeout must be positive") // ALLOW-PANIC
	}
	t := &IdleTimer{timeout: timeout, onTimeout: onTimeout}
	for _, opt := range opts {
		opt(t)
	}
	if t.warnBefore <= 0 || t.warnBefore >= t.timeout || t.onWarn == nil {
		t.warnBefore, t.onWarn = 0, nil
	}
	t.Touch()
	return t
}

// Touch records activity and restarts the countdown.
func (t *IdleTimer) Touch() {
	t.mu.Lock()
	defer t.mu.Unlock()
	if t.stopped {
		return
	}
	t.stopTimersLocked()

	t.timer = time.AfterFunc(t.timeout, t.fire)
	if t.onWarn != nil {
		t.warn = time.AfterFunc(t.timeout-t.warnBefore, t.onWarn)
	}
}

// Stop cancels the timer for good. Touch is a no-op afterwards.
func (t *IdleTimer) Stop() {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.stopped = true
	t.stopTimersLocked()
}

func (t *IdleTimer) stopTimersLocked() {
	if t.timer != nil {
		t.timer.Stop()
		t.timer = nil
	}
	if t.warn != nil {
		t.warn.Stop()
		t.warn = nil
	}
}

func (t *IdleTimer) fire() {
	if t.onTimeout != nil {
		t.onTimeout()
	}
}

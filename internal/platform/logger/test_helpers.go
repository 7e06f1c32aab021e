package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
)

// TestLogBuffer collects JSON log lines written concurrently by handlers.
type TestLogBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

func (b *TestLogBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

func (b *TestLogBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}

func (b *TestLogBuffer) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf.Reset()
}

// GetLogEntries decodes every record written so far.
func (b *TestLogBuffer) GetLogEntries() ([]map[string]any, error) {
	dec := json.NewDecoder(strings.NewReader(b.String()))
	var entries []map[string]any
	for {
		var entry map[string]any
		err := dec.Decode(&entry)
		if errors.Is(err, io.EOF) {
			return entries, nil
		}
		if err != nil {
			return nil, err
		}
		entries = append(entries, entry)
	}
}

// NewTestLogger returns a debug-level JSON logger writing into a fresh buffer.
// slog.Default is not touched, so parallel tests stay isolated.
func NewTestLogger(t *testing.T) (*TestLogBuffer, *slog.Logger) {
	t.Helper()
	buf := &TestLogBuffer{}
	return buf, slog.New(slog.NewJSONHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

// LogCaptureContext bundles a capturing logger with a context that carries it.
type LogCaptureContext struct {
	Context context.Context
	Logger  *slog.Logger
	Buffer  *TestLogBuffer
}

func NewLogCaptureContext(t *testing.T) *LogCaptureContext {
	t.Helper()
	buf, l := NewTestLogger(t)
	return &LogCaptureContext{Context: WithLogger(context.Background(), l), Logger: l, Buffer: buf}
}

// AssertLogContains reports a test error when content was never logged.
func AssertLogContains(t *testing.T, logBuf *TestLogBuffer, content string) {
	t.Helper()
	if logs := logBuf.String(); !strings.Contains(logs, content) {
		t.Errorf("log output does not contain %q:\n%s", content, logs)
	}
}

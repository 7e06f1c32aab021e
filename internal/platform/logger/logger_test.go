package logger_test

import (
	"context"
	"log/slog"
	"testing"

	"github.com/phrazzld/taskman/internal/config"
	"github.com/phrazzld/taskman/internal/platform/logger"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	t.Parallel()

	tests := []struct {
		input string
		want  slog.Level
		ok    bool
	}{
		{"debug", slog.LevelDebug, true},
		{"INFO", slog.LevelInfo, true},
		{" warn ", slog.LevelWarn, true},
		{"warning", slog.LevelWarn, true},
		{"error", slog.LevelError, true},
		{"verbose", slog.LevelInfo, false},
		{"", slog.LevelInfo, false},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			t.Parallel()
			got, ok := logger.ParseLevel(tt.input)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.ok, ok)
		})
	}
}

func TestSetupWithWriter(t *testing.T) {
	original := slog.Default()
	t.Cleanup(func() { slog.SetDefault(original) })

	buf := &logger.TestLogBuffer{}
	l, err := logger.SetupWithWriter(config.ServerConfig{LogLevel: "warn"}, buf)
	require.NoError(t, err)
	require.NotNil(t, l)

	l.Info("dropped")
	l.Warn("kept", slog.String("component", "test"))
	slog.Error("via default")

	entries, err := buf.GetLogEntries()
	require.NoError(t, err)
	require.Len(t, entries, 2)
	assert.Equal(t, "kept", entries[0]["msg"])
	assert.Equal(t, "test", entries[0]["component"])
	assert.Equal(t, "WARN", entries[0]["level"])
	assert.Equal(t, "via default", entries[1]["msg"])
}

func TestContextLogger(t *testing.T) {
	t.Parallel()

	fallback := slog.New(slog.DiscardHandler)
	assert.Same(t, fallback, logger.FromContextOrDefault(context.Background(), fallback))
	assert.NotNil(t, logger.FromContext(context.Background()))

	capture := logger.NewLogCaptureContext(t)
	got := logger.FromContextOrDefault(capture.Context, fallback)
	assert.Same(t, capture.Logger, got)

	got.Info("request handled", slog.String("trace_id", "abc"))
	logger.AssertLogContains(t, capture.Buffer, `"trace_id":"abc"`)
}

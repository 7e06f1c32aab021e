// Package logger builds the process-wide slog logger and threads
// request-scoped loggers through context.Context.
package logger

// Package logging defines the logging contract used across the server and a
// slog-backed implementation.
package logging

import "context"

// Logger is the minimal structured logging interface the application depends
// on. Implementations must be safe for concurrent use.
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)
	With(args ...any) Logger
}

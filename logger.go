package deq

import (
	"context"
	"log/slog"
)

// Logger defines the interface for queue logging.
// deq uses structured logging with key-value pairs so hosts can route queue
// diagnostics into whatever logging library they already use.
//
// Faults on the command path are never logged at Error level: they are turned
// into "deq error" events and logged at Debug. Suppressed faults (a failing
// listener while an error event is dispatched, a failing observer) are logged
// at Warn.
//
// The Logger interface uses variadic arguments in key-value pairs:
//
//	logger.Info("message", "key1", "value1", "key2", "value2")
//
// NewSlogLogger adapts a *slog.Logger.
type Logger interface {
	// Info logs an informational message with optional key-value pairs.
	//
	// Example:
	//   logger.Info("Queue created", "queue", "main")
	Info(msg string, args ...any)

	// Error logs an error message with optional key-value pairs.
	Error(msg string, args ...any)

	// Warn logs a warning message with optional key-value pairs.
	// Used for faults that are swallowed to guarantee dispatch terminates.
	Warn(msg string, args ...any)

	// Debug logs a debug message with optional key-value pairs.
	//
	// Example:
	//   logger.Debug("Error event emitted", "queue", "main", "type", "ListenerFailure")
	Debug(msg string, args ...any)
}

// SlogLogger adapts a *slog.Logger to Logger
type SlogLogger struct {
	logger *slog.Logger
}

// NewSlogLogger wraps logger. A nil logger uses slog.Default().
func NewSlogLogger(logger *slog.Logger) *SlogLogger {
	if logger == nil {
		logger = slog.Default()
	}
	return &SlogLogger{logger: logger}
}

func (l *SlogLogger) Info(msg string, args ...any)  { l.logger.Info(msg, args...) }
func (l *SlogLogger) Error(msg string, args ...any) { l.logger.Error(msg, args...) }
func (l *SlogLogger) Warn(msg string, args ...any)  { l.logger.Warn(msg, args...) }
func (l *SlogLogger) Debug(msg string, args ...any) { l.logger.Debug(msg, args...) }

// With returns a logger that adds args to every record
func (l *SlogLogger) With(args ...any) *SlogLogger {
	return &SlogLogger{logger: l.logger.With(args...)}
}

// Enabled reports whether the underlying handler emits records at level
func (l *SlogLogger) Enabled(ctx context.Context, level slog.Level) bool {
	return l.logger.Enabled(ctx, level)
}

type noopLogger struct{}

func (noopLogger) Info(string, ...any)  {}
func (noopLogger) Error(string, ...any) {}
func (noopLogger) Warn(string, ...any)  {}
func (noopLogger) Debug(string, ...any) {}

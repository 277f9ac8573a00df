// Package logging is the process-wide structured logger of patchc.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

type contextKey string

const requestIDKey contextKey = "requestID"

// LevelTrace is below debug and shows every compiler state transition.
const LevelTrace = slog.LevelDebug - 4

var (
	logger atomic.Pointer[slog.Logger]

	mu sync.Mutex
	// Generated code goes to stdout, so logs go to stderr.
	output io.Writer = os.Stderr
)

func init() {
	SetLevel(slog.LevelWarn)
}

// SetOutput redirects logging, keeping the compact format at the given level.
func SetOutput(w io.Writer, level slog.Level) {
	mu.Lock()
	output = w
	mu.Unlock()
	SetLevel(level)
}

// SetLevel switches to the compact console format at level.
func SetLevel(level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger.Store(slog.New(NewCompactHandler(output, &slog.HandlerOptions{Level: level})))
}

// SetJSONOutput switches to one JSON object per line, for log collectors.
func SetJSONOutput(level slog.Level) {
	mu.Lock()
	defer mu.Unlock()
	logger.Store(slog.New(slog.NewJSONHandler(output, &slog.HandlerOptions{Level: level})))
}

// WithRequestID adds a request ID to the context
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, requestIDKey, requestID)
}

// GetRequestID retrieves the request ID from context
func GetRequestID(ctx context.Context) string {
	requestID, _ := ctx.Value(requestIDKey).(string)
	return requestID
}

func logCtx(ctx context.Context, level slog.Level, msg string, args []any) {
	l := logger.Load()
	if !l.Enabled(ctx, level) {
		return
	}
	if requestID := GetRequestID(ctx); requestID != "" {
		args = append([]any{"requestID", requestID}, args...)
	}
	l.Log(ctx, level, msg, args...)
}

// Trace logs compiler internals: state transitions and per-file events.
func Trace(msg string, args ...any) {
	logCtx(context.Background(), LevelTrace, msg, args)
}

func TraceContext(ctx context.Context, msg string, args ...any) {
	logCtx(ctx, LevelTrace, msg, args)
}

// Debug logs at DEBUG level (internal component behavior)
func Debug(msg string, args ...any) {
	logCtx(context.Background(), slog.LevelDebug, msg, args)
}

func DebugContext(ctx context.Context, msg string, args ...any) {
	logCtx(ctx, slog.LevelDebug, msg, args)
}

// Info logs at INFO level (user-facing operations)
func Info(msg string, args ...any) {
	logCtx(context.Background(), slog.LevelInfo, msg, args)
}

func InfoContext(ctx context.Context, msg string, args ...any) {
	logCtx(ctx, slog.LevelInfo, msg, args)
}

// Warn logs at WARN level. Failed compilations are reported here.
func Warn(msg string, args ...any) {
	logCtx(context.Background(), slog.LevelWarn, msg, args)
}

func WarnContext(ctx context.Context, msg string, args ...any) {
	logCtx(ctx, slog.LevelWarn, msg, args)
}

// Error logs at ERROR level (the service or watcher stopped)
func Error(msg string, args ...any) {
	logCtx(context.Background(), slog.LevelError, msg, args)
}

func ErrorContext(ctx context.Context, msg string, args ...any) {
	logCtx(ctx, slog.LevelError, msg, args)
}

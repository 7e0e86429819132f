// Package logging provides structured logging built on log/slog, with
// context-key correlation (session id, action name) and redaction of
// sensitive fields before they reach any handler. Modelled directly on the
// teacher's observability.Logger, trading its regex-based message scrubbing
// for internal/redact's structural walk, since this runtime's sensitive
// data arrives as typed action inputs rather than free-form log strings.
package logging

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/ametel01/claw-browser-automation/internal/redact"
)

type ctxKey string

const (
	SessionIDKey ctxKey = "session_id"
	ActionKey    ctxKey = "action"
)

// Config configures a Logger.
type Config struct {
	Level     string // "debug", "info", "warn", "error"
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
}

// Logger wraps an *slog.Logger, injecting session/action correlation from
// context and redacting structured fields before they are logged.
type Logger struct {
	logger *slog.Logger
}

func New(cfg Config) *Logger {
	if cfg.Output == nil {
		cfg.Output = os.Stdout
	}
	if cfg.Level == "" {
		cfg.Level = "info"
	}
	if cfg.Format == "" {
		cfg.Format = "json"
	}

	opts := &slog.HandlerOptions{Level: LevelFromString(cfg.Level), AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	return &Logger{logger: slog.New(handler)}
}

func LevelFromString(s string) slog.Level {
	switch strings.ToLower(s) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func WithSessionID(ctx context.Context, sessionID string) context.Context {
	return context.WithValue(ctx, SessionIDKey, sessionID)
}

func WithAction(ctx context.Context, action string) context.Context {
	return context.WithValue(ctx, ActionKey, action)
}

func (l *Logger) Debug(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelDebug, msg, args...)
}
func (l *Logger) Info(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelInfo, msg, args...)
}
func (l *Logger) Warn(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelWarn, msg, args...)
}
func (l *Logger) Error(ctx context.Context, msg string, args ...any) {
	l.log(ctx, slog.LevelError, msg, args...)
}

func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	attrs := make([]any, 0, len(args)+4)

	if sessionID, ok := ctx.Value(SessionIDKey).(string); ok && sessionID != "" {
		attrs = append(attrs, "session_id", sessionID)
	}
	if action, ok := ctx.Value(ActionKey).(string); ok && action != "" {
		attrs = append(attrs, "action", action)
	}

	for i := 0; i < len(args); i++ {
		attrs = append(attrs, redactArg(args[i]))
	}

	l.logger.Log(ctx, level, msg, attrs...)
}

// redactArg redacts map-shaped args (the common case: a "fields" or "input"
// key carrying a map[string]any) and leaves everything else untouched — a
// bare string argument is either a key name or a scalar, not user input.
func redactArg(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return redact.Map(val, redact.TypedText)
	default:
		return v
	}
}

// WithFields returns a Logger with the given attributes attached to every
// subsequent record.
func (l *Logger) WithFields(args ...any) *Logger {
	return &Logger{logger: l.logger.With(args...)}
}

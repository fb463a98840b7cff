package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/google/uuid"
)

type contextKey string

const (
	correlationIDKey contextKey = "correlation_id"
	loggerKey        contextKey = "logger"
)

// LogLevelEnvKey selects the minimum level: debug, info (default), warn, error.
const LogLevelEnvKey = "LOG_LEVEL"

type Logger struct {
	*slog.Logger
}

// NewLoggerWithJSONOutput writes JSON lines to stdout at the LOG_LEVEL level.
func NewLoggerWithJSONOutput() *Logger {
	return NewLogger(os.Stdout, ParseLevel(os.Getenv(LogLevelEnvKey)))
}

func NewLogger(w io.Writer, level slog.Level) *Logger {
	handler := slog.NewJSONHandler(w, &slog.HandlerOptions{Level: level})
	return &Logger{Logger: slog.New(handler)}
}

var defaultLogger = sync.OnceValue(NewLoggerWithJSONOutput)

func ParseLevel(raw string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(raw)) {
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

// WithCorrelationID returns a child logger tagged with the correlation ID in
// ctx, or with a fresh one when ctx has none.
func (l *Logger) WithCorrelationID(ctx context.Context) *Logger {
	id, ok := CorrelationIDFromContext(ctx)
	if !ok {
		id = GenerateCorrelationID()
	}
	return &Logger{Logger: l.With(string(correlationIDKey), id)}
}

func GenerateCorrelationID() string {
	return uuid.NewString()
}

func ContextWithCorrelationID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, correlationIDKey, id)
}

func CorrelationIDFromContext(ctx context.Context) (string, bool) {
	if ctx == nil {
		return "", false
	}
	id, ok := ctx.Value(correlationIDKey).(string)
	return id, ok && id != ""
}

// ContextWithLogger stores the request-scoped logger handlers retrieve with
// GetLoggerInstanceFromContext.
func ContextWithLogger(ctx context.Context, logger *Logger) context.Context {
	return context.WithValue(ctx, loggerKey, logger)
}

// GetLoggerInstanceFromContext prefers the logger stored by ContextWithLogger.
// Otherwise it tags fallbackLogger (or the process default) with the context's
// correlation ID.
func GetLoggerInstanceFromContext(ctx context.Context, fallbackLogger *Logger) *Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(*Logger); ok && l != nil {
			return l
		}
	}

	base := fallbackLogger
	if base == nil {
		base = defaultLogger()
	}
	if ctx == nil {
		return base
	}
	return base.WithCorrelationID(ctx)
}

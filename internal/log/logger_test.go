package log

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	assert.Equal(t, slog.LevelDebug, ParseLevel("DEBUG"))
	assert.Equal(t, slog.LevelWarn, ParseLevel(" warning "))
	assert.Equal(t, slog.LevelError, ParseLevel("error"))
	assert.Equal(t, slog.LevelInfo, ParseLevel(""))
	assert.Equal(t, slog.LevelInfo, ParseLevel("verbose"))
}

func TestWithCorrelationID_UsesContextValue(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelInfo)

	ctx := ContextWithCorrelationID(context.Background(), "req-123")
	logger.WithCorrelationID(ctx).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.Equal(t, "req-123", line["correlation_id"])
	assert.Equal(t, "hello", line["msg"])
}

func TestGetLoggerInstanceFromContext_PrefersInjectedLogger(t *testing.T) {
	injected := NewLogger(&bytes.Buffer{}, slog.LevelInfo)
	ctx := ContextWithLogger(context.Background(), injected)

	assert.Same(t, injected, GetLoggerInstanceFromContext(ctx, NewLoggerWithJSONOutput()))
}

func TestGetLoggerInstanceFromContext_FallsBack(t *testing.T) {
	fallback := NewLogger(&bytes.Buffer{}, slog.LevelInfo)

	assert.Same(t, fallback, GetLoggerInstanceFromContext(nil, fallback))
	assert.NotNil(t, GetLoggerInstanceFromContext(context.Background(), fallback))
}

func TestWithCorrelationID_GeneratesWhenMissing(t *testing.T) {
	var buf bytes.Buffer
	NewLogger(&buf, slog.LevelInfo).WithCorrelationID(context.Background()).Info("hello")

	var line map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &line))
	assert.NotEmpty(t, line["correlation_id"])
}

func TestCorrelationIDFromContext(t *testing.T) {
	_, ok := CorrelationIDFromContext(context.Background())
	assert.False(t, ok)

	_, ok = CorrelationIDFromContext(ContextWithCorrelationID(context.Background(), ""))
	assert.False(t, ok, "an empty id is treated as missing")

	id, ok := CorrelationIDFromContext(ContextWithCorrelationID(context.Background(), "signup-1"))
	assert.True(t, ok)
	assert.Equal(t, "signup-1", id)
}

func TestNewLogger_RespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(&buf, slog.LevelWarn)

	logger.Info("dropped")
	assert.Zero(t, buf.Len())

	logger.Warn("kept")
	assert.Contains(t, buf.String(), `"msg":"kept"`)
}

func TestGetLoggerInstanceFromContext_DefaultIsShared(t *testing.T) {
	assert.Same(t, GetLoggerInstanceFromContext(nil, nil), GetLoggerInstanceFromContext(nil, nil))
}

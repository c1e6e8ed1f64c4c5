package logging

import (
	"bytes"
	"context"
	"errors"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLevel(t *testing.T) {
	tests := map[string]slog.Level{
		"debug":   slog.LevelDebug,
		"DEBUG":   slog.LevelDebug,
		"info":    slog.LevelInfo,
		" warn ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"error":   slog.LevelError,
		"":        slog.LevelInfo,
		"verbose": slog.LevelInfo,
	}
	for in, want := range tests {
		assert.Equal(t, want, ParseLevel(in), "ParseLevel(%q)", in)
	}
}

func TestSetup(t *testing.T) {
	prev := slog.Default()
	t.Cleanup(func() { slog.SetDefault(prev) })

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		logger := Setup("debug", "json", &buf)
		require.NotNil(t, logger)

		slog.Debug("hello", "points", 3)
		out := buf.String()
		assert.Contains(t, out, `"msg":"hello"`)
		assert.Contains(t, out, `"points":3`)
	})

	t.Run("text respects level", func(t *testing.T) {
		var buf bytes.Buffer
		Setup("warn", "text", &buf)

		slog.Info("quiet")
		slog.Warn("loud")
		out := buf.String()
		assert.NotContains(t, out, "quiet")
		assert.Contains(t, out, "msg=loud")
	})
}

func TestLogError(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogError(logger, "transform failed", errors.New("boom"), slog.String("system", "gk4"))

	out := buf.String()
	assert.Contains(t, out, `"level":"ERROR"`)
	assert.Contains(t, out, `"msg":"transform failed"`)
	assert.Contains(t, out, `"error":"boom"`)
	assert.Contains(t, out, `"system":"gk4"`)

	assert.NotPanics(t, func() { LogError(nil, "ignored", errors.New("x")) })
}

func TestLogOperation(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogOperation(logger, "track_normalized",
		slog.Int("records", 12),
		slog.Duration("duration", 0))
	out := buf.String()
	assert.Contains(t, out, `"msg":"track_normalized"`)
	assert.Contains(t, out, `"records":12`)
	assert.NotContains(t, out, "duration")

	buf.Reset()
	LogOperation(logger, "export", slog.Duration("duration", 2*time.Millisecond))
	assert.Contains(t, buf.String(), `"duration"`)
}

func TestLogHTTPRequest(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	LogHTTPRequest(logger, "POST", "/api/transform", 200, 1.5, slog.String("system", "wgs84"))

	out := buf.String()
	assert.Contains(t, out, `"msg":"http_request"`)
	assert.Contains(t, out, `"method":"POST"`)
	assert.Contains(t, out, `"path":"/api/transform"`)
	assert.Contains(t, out, `"status":200`)
	assert.Contains(t, out, `"duration_ms":1.5`)
}

func TestContextLogger(t *testing.T) {
	var buf bytes.Buffer
	logger := NewStructuredLogger(&buf, slog.LevelInfo)

	ctx := WithLogger(context.Background(), logger)
	assert.Same(t, logger, FromContext(ctx))
	assert.Same(t, slog.Default(), FromContext(context.Background()))
}

func TestDiscard(t *testing.T) {
	logger := Discard()
	assert.False(t, logger.Enabled(context.Background(), slog.LevelError))
}

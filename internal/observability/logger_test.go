package observability

import (
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected slog.Level
	}{
		{"debug", "debug", slog.LevelDebug},
		{"info", "info", slog.LevelInfo},
		{"warn", "warn", slog.LevelWarn},
		{"warning alias", "warning", slog.LevelWarn},
		{"error", "error", slog.LevelError},
		{"mixed case", "DEBUG", slog.LevelDebug},
		{"unknown falls back to info", "verbose", slog.LevelInfo},
		{"empty falls back to info", "", slog.LevelInfo},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, parseLogLevel(tt.input))
		})
	}
}

func TestNewLogger(t *testing.T) {
	t.Run("json handler by default", func(t *testing.T) {
		logger := NewLogger("info", "json")
		require.NotNil(t, logger)
		_, ok := logger.Handler().(*slog.JSONHandler)
		assert.True(t, ok)
	})

	t.Run("text handler on request", func(t *testing.T) {
		logger := NewLogger("info", "text")
		_, ok := logger.Handler().(*slog.TextHandler)
		assert.True(t, ok)
	})

	t.Run("level threshold applies", func(t *testing.T) {
		logger := NewLogger("warn", "json")
		ctx := context.Background()
		assert.False(t, logger.Enabled(ctx, slog.LevelInfo))
		assert.True(t, logger.Enabled(ctx, slog.LevelWarn))
	})
}

// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package logger

import (
	"bytes"
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestParseLogLevel(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    LogLevel
		wantErr bool
	}{
		{"debug", "debug", DebugLevel, false},
		{"debug uppercase", "DEBUG", DebugLevel, false},
		{"info", "info", InfoLevel, false},
		{"empty defaults to info", "", InfoLevel, false},
		{"warn", "warn", WarnLevel, false},
		{"warning alias", "warning", WarnLevel, false},
		{"error", "error", ErrorLevel, false},
		{"invalid", "loud", InfoLevel, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLogLevel(tt.input)
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestLogLevel_zapLevel(t *testing.T) {
	assert.Equal(t, zapcore.DebugLevel, DebugLevel.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, InfoLevel.zapLevel())
	assert.Equal(t, zapcore.WarnLevel, WarnLevel.zapLevel())
	assert.Equal(t, zapcore.ErrorLevel, ErrorLevel.zapLevel())
	assert.Equal(t, zapcore.InfoLevel, LogLevel("bogus").zapLevel())
}

func TestNewLogger_WritesAtLevel(t *testing.T) {
	var buf bytes.Buffer
	l := NewLogger(WarnLevel, &buf)

	l.Info("hidden")
	l.Warn("shown")
	require.NoError(t, l.Sync())

	out := buf.String()
	assert.NotContains(t, out, "hidden")
	assert.Contains(t, out, "shown")
	assert.Contains(t, out, "WARN")
}

func TestFromContext(t *testing.T) {
	t.Run("stored logger is returned", func(t *testing.T) {
		var buf bytes.Buffer
		l := NewLogger(DebugLevel, &buf)
		ctx := WithLogger(context.Background(), l)
		assert.Same(t, l, FromContext(ctx))
	})

	t.Run("missing logger falls back to no-op", func(t *testing.T) {
		l := FromContext(context.Background())
		require.NotNil(t, l)
		assert.False(t, l.Core().Enabled(zapcore.ErrorLevel))
	})
}

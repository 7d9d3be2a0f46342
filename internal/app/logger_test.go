package app

import (
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"
)

func TestNewLoggerDefaults(t *testing.T) {
	t.Setenv("LOG_LEVEL", "")

	prod := NewLogger("production")
	require.True(t, prod.Core().Enabled(zapcore.InfoLevel))
	require.False(t, prod.Core().Enabled(zapcore.DebugLevel))

	dev := NewLogger("development")
	require.True(t, dev.Core().Enabled(zapcore.DebugLevel))
}

func TestNewLoggerLevelOverride(t *testing.T) {
	t.Setenv("LOG_LEVEL", "error")

	logger := NewLogger("development")
	require.True(t, logger.Core().Enabled(zapcore.ErrorLevel))
	require.False(t, logger.Core().Enabled(zapcore.InfoLevel))
}

func TestNewLoggerIgnoresInvalidLevel(t *testing.T) {
	t.Setenv("LOG_LEVEL", "loud")

	logger := NewLogger("production")
	require.True(t, logger.Core().Enabled(zapcore.InfoLevel))
}

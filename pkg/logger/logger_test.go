package logger

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func TestNew(t *testing.T) {
	logger := New()
	assert.NotNil(t, logger)
	assert.NotNil(t, logger.info)
	assert.NotNil(t, logger.error)
	assert.NotNil(t, logger.warn)
	assert.NotNil(t, logger.debug)
}

func TestNewWithLevel_UnknownLevelDoesNotPanic(t *testing.T) {
	logger := NewWithLevel("loud")
	assert.NotPanics(t, func() {
		logger.Info("User %s logged in with ID %d", "john", 123)
		logger.Error("Failed to process request %d: %s", 404, "not found")
		logger.Warn("Warning: %s count is %d", "items", 5)
	})
}

func TestLogger_Formatting(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	logger := FromZap(zap.New(core))

	logger.Info("listing %s created by %s", "car-1", "user-1")
	logger.Warn("retry %d", 2)
	logger.Error("failed: %v", "boom")
	logger.Debug("debug %t", true)

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)
	assert.Equal(t, "listing car-1 created by user-1", entries[0].Message)
	assert.Equal(t, zapcore.WarnLevel, entries[1].Level)
	assert.Equal(t, "failed: boom", entries[2].Message)
	assert.Equal(t, zapcore.DebugLevel, entries[3].Level)
}

func TestLogger_With(t *testing.T) {
	core, logs := observer.New(zapcore.InfoLevel)
	logger := FromZap(zap.New(core)).With("component", "syndication")

	logger.Info("posted")

	require.Equal(t, 1, logs.Len())
	assert.Equal(t, "syndication", logs.All()[0].ContextMap()["component"])
}

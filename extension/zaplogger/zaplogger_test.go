package zaplogger_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/get-eventually/booking/extension/zaplogger"
	"github.com/get-eventually/booking/logger"
)

func TestLogger(t *testing.T) {
	core, logs := observer.New(zapcore.DebugLevel)
	l := zaplogger.Wrap(zap.New(core)).Named("repository")

	l.Debug("debug message", logger.With("stream", "BookingAggregate/1"))
	l.Info("info message")
	l.Warn("warn message")
	l.Error("error message", logger.Err(errors.New("boom")))

	entries := logs.AllUntimed()
	require.Len(t, entries, 4)

	assert.Equal(t, zapcore.DebugLevel, entries[0].Level)
	assert.Equal(t, "repository", entries[0].LoggerName)
	assert.Equal(t, "BookingAggregate/1", entries[0].ContextMap()["stream"])

	assert.Equal(t, zapcore.WarnLevel, entries[2].Level)

	assert.Equal(t, zapcore.ErrorLevel, entries[3].Level)
	assert.Equal(t, "boom", entries[3].ContextMap()["error"])
}

package log

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zapcore"

	"github.com/eduhub/eduhub-backend/internal/config"
)

func TestLevelDerivedFromEnv(t *testing.T) {
	dev, err := NewLogger(&config.Config{Env: "dev"})
	require.NoError(t, err)
	assert.True(t, dev.Core().Enabled(zapcore.DebugLevel))

	prod, err := NewLogger(&config.Config{Env: "prod"})
	require.NoError(t, err)
	assert.False(t, prod.Core().Enabled(zapcore.DebugLevel))
	assert.True(t, prod.Core().Enabled(zapcore.InfoLevel))
}

func TestLevelOverride(t *testing.T) {
	logger, err := NewLogger(&config.Config{Env: "dev", LogLevel: "warn"})
	require.NoError(t, err)
	assert.False(t, logger.Core().Enabled(zapcore.InfoLevel))
	assert.True(t, logger.Core().Enabled(zapcore.WarnLevel))

	_, err = NewLogger(&config.Config{Env: "dev", LogLevel: "loud"})
	assert.Error(t, err)
}

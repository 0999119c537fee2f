package log

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/eduhub/eduhub-backend/internal/config"
)

// NewLogger builds a zap logger from the app config: JSON at info level
// in prod, colored console at debug level in dev. EDU_LOG_LEVEL
// overrides the level in either environment.
func NewLogger(cfg *config.Config) (*zap.Logger, error) {
	var zc zap.Config

	if cfg.IsProd() {
		zc = zap.NewProductionConfig()
		zc.Level = zap.NewAtomicLevelAt(zap.InfoLevel)
	} else {
		zc = zap.NewDevelopmentConfig()
		zc.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	if cfg.LogLevel != "" {
		level, err := zapcore.ParseLevel(cfg.LogLevel)
		if err != nil {
			return nil, err
		}
		zc.Level = zap.NewAtomicLevelAt(level)
	}

	zc.EncoderConfig.TimeKey = "timestamp"
	zc.EncoderConfig.EncodeTime = zapcore.RFC3339TimeEncoder

	return zc.Build()
}

func NewSugar(cfg *config.Config) (*zap.SugaredLogger, error) {
	logger, err := NewLogger(cfg)
	if err != nil {
		return nil, err
	}
	return logger.Sugar(), nil
}

package config

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// InitLogger builds a development-encoded zap logger at the given level.
// The caller owns the logger and is responsible for Sync on shutdown.
// Unrecognized level strings fall back to info.
func InitLogger(logLevelStr string) (*zap.Logger, error) {
	level, err := zapcore.ParseLevel(logLevelStr)
	if err != nil {
		level = zapcore.InfoLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(level)
	return cfg.Build()
}

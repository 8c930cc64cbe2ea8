// Package logger builds the structured logger shared by every mediacat
// subsystem. It centralizes the single place where a zap configuration is
// assembled so that storage, index, recovery, and engine code can all accept
// a *zap.SugaredLogger through their Config structs instead of reaching for
// a package-global.
package logger

import (
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New builds a *zap.SugaredLogger scoped to the given service name.
//
// By default it uses zap's production configuration (JSON encoding, info
// level). Setting MEDIACAT_DEBUG to any non-empty value switches to a
// development configuration with console encoding and debug level, which is
// considerably friendlier while iterating against the storage engine.
func New(service string) *zap.SugaredLogger {
	var cfg zap.Config
	if os.Getenv("MEDIACAT_DEBUG") != "" {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		cfg = zap.NewProductionConfig()
	}

	log, err := cfg.Build()
	if err != nil {
		// Falling back to a no-op logger keeps engine construction from
		// failing on a logging misconfiguration alone.
		log = zap.NewNop()
	}

	return log.Sugar().With("service", service)
}

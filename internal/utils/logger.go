// utils/logger.go
package utils

import (
	"os"

	"github.com/Conversly/whatsapp-assistant/internal/config"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Zlog is the process-wide logger. It discards everything until InitLogger runs.
var Zlog = zap.NewNop()

func InitLogger(cfg *config.Config) func() {
	logLevel := cfg.LogLevel
	if logLevel == "" {
		logLevel = "info"
	}

	var lvl zapcore.Level
	if err := lvl.Set(logLevel); err != nil {
		lvl = zapcore.InfoLevel
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "timestamp"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	stdoutCore := zapcore.NewCore(
		zapcore.NewJSONEncoder(encCfg),
		zapcore.AddSync(os.Stdout),
		lvl,
	)

	Zlog = zap.New(stdoutCore, zap.AddCaller(), zap.AddStacktrace(zapcore.ErrorLevel)).
		With(zap.String("service", cfg.ServiceName), zap.String("environment", cfg.Environment))

	return func() { _ = Zlog.Sync() }
}

package churn

import (
	"fmt"
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// NewLogger builds the process logger. Output goes to stderr in the configured
// encoding; every extra sink receives the same entries in console form.
func NewLogger(cfg LogConfig, sinks ...io.Writer) (*zap.Logger, error) {
	level := zap.NewAtomicLevel()
	name := strings.TrimSpace(cfg.Level)
	if name == "" {
		name = "info"
	}
	if err := level.UnmarshalText([]byte(name)); err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", name, err)
	}

	encCfg := zap.NewProductionEncoderConfig()
	encCfg.TimeKey = "ts"
	encCfg.EncodeTime = zapcore.ISO8601TimeEncoder

	var primary zapcore.Encoder
	if strings.EqualFold(strings.TrimSpace(cfg.Format), "json") {
		primary = zapcore.NewJSONEncoder(encCfg)
	} else {
		primary = zapcore.NewConsoleEncoder(encCfg)
	}
	cores := []zapcore.Core{
		zapcore.NewCore(primary, zapcore.Lock(os.Stderr), level),
	}
	for _, sink := range sinks {
		if sink == nil {
			continue
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewConsoleEncoder(encCfg), zapcore.AddSync(sink), level))
	}
	return zap.New(zapcore.NewTee(cores...)), nil
}

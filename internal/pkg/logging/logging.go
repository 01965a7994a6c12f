package logging

import (
	"fmt"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// DefaultConfig returns the zap production config used by the db2023
// command line tools.
func DefaultConfig() zap.Config {
	logConf := zap.NewProductionConfig()
	logConf.Sampling = nil
	logConf.EncoderConfig.TimeKey = "time"
	logConf.EncoderConfig.LevelKey = "severity"
	logConf.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	logConf.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder

	return logConf
}

func ParseLevel(l string) (zapcore.Level, error) {
	switch strings.ToLower(strings.TrimSpace(l)) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	case "fatal":
		return zapcore.FatalLevel, nil
	default:
		return 0, fmt.Errorf("unrecognised log level %q", l)
	}
}

// NewLogger builds a logger at the named level ("debug", "info", "warn",
// "error", "fatal").
func NewLogger(level string) (*zap.Logger, error) {
	l, err := ParseLevel(level)
	if err != nil {
		return nil, err
	}
	conf := DefaultConfig()
	conf.Level = zap.NewAtomicLevelAt(l)
	return conf.Build()
}

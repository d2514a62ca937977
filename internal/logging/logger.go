// Package logging provides the structured logging interface used throughout
// the inventory engine, its scheduler, and its CLI shell.
package logging

import (
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// EngineLogger is the structured logging interface every engine subsystem is
// constructed with. Nothing in internal/engine reaches for a package-level
// logger: it is always injected, so tests can swap in a no-op implementation.
type EngineLogger interface {
	Debug(msg string, fields ...zap.Field)
	Info(msg string, fields ...zap.Field)
	Warn(msg string, fields ...zap.Field)
	Error(msg string, err error, fields ...zap.Field)
	With(fields ...zap.Field) EngineLogger
	Sync() error
}

// Logger implements EngineLogger using zap.
type Logger struct {
	logger *zap.Logger
}

// Config controls logger construction.
type Config struct {
	Level       string `mapstructure:"level" validate:"omitempty,oneof=debug info warn error"`
	Format      string `mapstructure:"format" validate:"omitempty,oneof=json console"`
	Output      string `mapstructure:"output"`
	Development bool   `mapstructure:"development"`
}

// New creates a structured logger based on configuration.
func New(cfg Config) (EngineLogger, error) {
	level, err := parseLogLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("invalid log level: %w", err)
	}

	var encoderConfig zapcore.EncoderConfig
	if cfg.Development {
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
	}
	encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder

	var encoder zapcore.Encoder
	switch strings.ToLower(cfg.Format) {
	case "json":
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	case "console", "":
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	default:
		return nil, fmt.Errorf("unsupported log format: %s", cfg.Format)
	}

	var writeSyncer zapcore.WriteSyncer
	switch strings.ToLower(cfg.Output) {
	case "stdout", "":
		writeSyncer = zapcore.AddSync(os.Stdout)
	case "stderr":
		writeSyncer = zapcore.AddSync(os.Stderr)
	default:
		file, err := os.OpenFile(cfg.Output, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
		if err != nil {
			return nil, fmt.Errorf("failed to open log file: %w", err)
		}
		writeSyncer = zapcore.AddSync(file)
	}

	core := zapcore.NewCore(encoder, writeSyncer, level)

	var options []zap.Option
	if cfg.Development {
		options = append(options, zap.Development(), zap.AddCaller())
	}

	return &Logger{logger: zap.New(core, options...)}, nil
}

// NewNop returns a logger that discards everything, for tests.
func NewNop() EngineLogger {
	return &Logger{logger: zap.NewNop()}
}

// NewDefault returns a console logger at info level.
func NewDefault() EngineLogger {
	l, err := New(Config{Level: "info", Format: "console", Output: "stdout", Development: true})
	if err != nil {
		return NewNop()
	}
	return l
}

func (l *Logger) Debug(msg string, fields ...zap.Field) { l.logger.Debug(msg, fields...) }
func (l *Logger) Info(msg string, fields ...zap.Field)  { l.logger.Info(msg, fields...) }
func (l *Logger) Warn(msg string, fields ...zap.Field)  { l.logger.Warn(msg, fields...) }

func (l *Logger) Error(msg string, err error, fields ...zap.Field) {
	allFields := make([]zap.Field, 0, len(fields)+1)
	if err != nil {
		allFields = append(allFields, zap.Error(err))
	}
	allFields = append(allFields, fields...)
	l.logger.Error(msg, allFields...)
}

func (l *Logger) With(fields ...zap.Field) EngineLogger {
	return &Logger{logger: l.logger.With(fields...)}
}

func (l *Logger) Sync() error { return l.logger.Sync() }

func parseLogLevel(level string) (zapcore.Level, error) {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel, nil
	case "info", "":
		return zapcore.InfoLevel, nil
	case "warn", "warning":
		return zapcore.WarnLevel, nil
	case "error":
		return zapcore.ErrorLevel, nil
	default:
		return zapcore.InfoLevel, fmt.Errorf("unknown log level: %s", level)
	}
}

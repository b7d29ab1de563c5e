package medialibrary

import (
	"io"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gopkg.in/natefinch/lumberjack.v2"
)

// LogLevel defines the level of logging
type LogLevel int

const (
	// LogLevelNone means no logging
	LogLevelNone LogLevel = iota
	// LogLevelError logs only errors
	LogLevelError
	// LogLevelWarning logs warnings and errors
	LogLevelWarning
	// LogLevelInfo logs info, warnings, and errors
	LogLevelInfo
	// LogLevelDebug logs everything
	LogLevelDebug
)

// ParseLogLevel maps "none", "error", "warn", "info" and "debug" to a
// LogLevel. Unknown names map to LogLevelInfo.
func ParseLogLevel(name string) LogLevel {
	switch strings.ToLower(name) {
	case "none", "off":
		return LogLevelNone
	case "error":
		return LogLevelError
	case "warn", "warning":
		return LogLevelWarning
	case "debug":
		return LogLevelDebug
	default:
		return LogLevelInfo
	}
}

func (l LogLevel) zapLevel() zapcore.Level {
	switch l {
	case LogLevelNone:
		return zapcore.FatalLevel + 1
	case LogLevelError:
		return zapcore.ErrorLevel
	case LogLevelWarning:
		return zapcore.WarnLevel
	case LogLevelDebug:
		return zapcore.DebugLevel
	default:
		return zapcore.InfoLevel
	}
}

// Logger defines the interface for logging
type Logger interface {
	Debug(format string, args ...interface{})
	Info(format string, args ...interface{})
	Warning(format string, args ...interface{})
	Error(format string, args ...interface{})
	SetLevel(level LogLevel)
	GetLevel() LogLevel
}

// LoggerConfig configures the zap logger. File enables a rotated log file
// next to console output.
type LoggerConfig struct {
	Level LogLevel
	// Console receives human readable output, stdout when nil.
	Console    io.Writer
	File       string
	MaxSizeMB  int
	MaxBackups int
	MaxAgeDays int
	Compress   bool
}

// DefaultLogger implements the Logger interface on top of zap
type DefaultLogger struct {
	level  LogLevel
	atom   zap.AtomicLevel
	logger *zap.SugaredLogger
}

// NewDefaultLogger creates a console logger with the specified log level
func NewDefaultLogger(level LogLevel) *DefaultLogger {
	return NewLogger(LoggerConfig{Level: level})
}

// NewLogger creates a logger writing to stdout and, when cfg.File is set,
// to a lumberjack-rotated file
func NewLogger(cfg LoggerConfig) *DefaultLogger {
	atom := zap.NewAtomicLevelAt(cfg.Level.zapLevel())

	encoderCfg := zap.NewProductionEncoderConfig()
	encoderCfg.EncodeTime = zapcore.ISO8601TimeEncoder
	encoderCfg.EncodeLevel = zapcore.CapitalLevelEncoder

	var console io.Writer = os.Stdout
	if cfg.Console != nil {
		console = cfg.Console
	}

	cores := []zapcore.Core{
		zapcore.NewCore(zapcore.NewConsoleEncoder(encoderCfg), zapcore.AddSync(console), atom),
	}

	if cfg.File != "" {
		writer := &lumberjack.Logger{
			Filename:   cfg.File,
			MaxSize:    cfg.MaxSizeMB,
			MaxBackups: cfg.MaxBackups,
			MaxAge:     cfg.MaxAgeDays,
			Compress:   cfg.Compress,
		}
		cores = append(cores, zapcore.NewCore(zapcore.NewJSONEncoder(encoderCfg), zapcore.AddSync(writer), atom))
	}

	return newDefaultLogger(zap.New(zapcore.NewTee(cores...)), atom, cfg.Level)
}

// NewLoggerFromZap wraps an existing zap logger. The level only filters
// on top of the core's own level.
func NewLoggerFromZap(z *zap.Logger, level LogLevel) *DefaultLogger {
	atom := zap.NewAtomicLevelAt(level.zapLevel())
	return newDefaultLogger(z.WithOptions(zap.IncreaseLevel(atom)), atom, level)
}

func newDefaultLogger(z *zap.Logger, atom zap.AtomicLevel, level LogLevel) *DefaultLogger {
	return &DefaultLogger{
		level:  level,
		atom:   atom,
		logger: z.Named("medialibrary").Sugar(),
	}
}

// Debug logs debug messages
func (l *DefaultLogger) Debug(format string, args ...interface{}) {
	l.logger.Debugf(format, args...)
}

// Info logs informational messages
func (l *DefaultLogger) Info(format string, args ...interface{}) {
	l.logger.Infof(format, args...)
}

// Warning logs warning messages
func (l *DefaultLogger) Warning(format string, args ...interface{}) {
	l.logger.Warnf(format, args...)
}

// Error logs error messages
func (l *DefaultLogger) Error(format string, args ...interface{}) {
	l.logger.Errorf(format, args...)
}

// SetLevel sets the logging level
func (l *DefaultLogger) SetLevel(level LogLevel) {
	l.level = level
	l.atom.SetLevel(level.zapLevel())
}

// GetLevel returns the current logging level
func (l *DefaultLogger) GetLevel() LogLevel {
	return l.level
}

// Sync flushes buffered log entries
func (l *DefaultLogger) Sync() error {
	return l.logger.Sync()
}

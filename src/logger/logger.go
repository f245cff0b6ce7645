package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// -----------------------------------------------------------------------------

// Logger provides structured logging functionality
type Logger struct {
	name   string
	logger zerolog.Logger
}

// levelProvider is satisfied by config types that carry a log level.
type levelProvider interface {
	GetLogLevel() string
}

// -----------------------------------------------------------------------------

// NewLogger creates a new Logger instance. config may be nil, in which case
// the level defaults to INFO.
func NewLogger(config interface{}, name string) *Logger {
	level := "INFO"
	if lp, ok := config.(levelProvider); ok && lp.GetLogLevel() != "" {
		level = lp.GetLogLevel()
	}
	return NewLoggerWithOutput(zerolog.ConsoleWriter{Out: os.Stdout, TimeFormat: time.DateTime}, level, name)
}

// NewLoggerWithOutput creates a logger writing to w at the given level.
func NewLoggerWithOutput(w io.Writer, level string, name string) *Logger {
	zl := zerolog.New(w).
		Level(parseLevel(level)).
		With().
		Timestamp().
		Str("component", name).
		Logger()
	return &Logger{name: name, logger: zl}
}

// NewSilentLogger discards all output
func NewSilentLogger() *Logger {
	return &Logger{name: "silent", logger: zerolog.Nop()}
}

// Named returns a child logger sharing output and level.
func (l *Logger) Named(name string) *Logger {
	return &Logger{name: name, logger: l.logger.With().Str("component", name).Logger()}
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToUpper(level) {
	case "DEBUG":
		return zerolog.DebugLevel
	case "WARNING", "WARN":
		return zerolog.WarnLevel
	case "ERROR":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// -----------------------------------------------------------------------------

// Debug logs diagnostic messages
func (l *Logger) Debug(format string, args ...interface{}) {
	l.logger.Debug().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Warning logs recoverable problems
func (l *Logger) Warning(format string, args ...interface{}) {
	l.logger.Warn().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Info logs informational messages
func (l *Logger) Info(format string, args ...interface{}) {
	l.logger.Info().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Error logs error messages
func (l *Logger) Error(format string, args ...interface{}) {
	l.logger.Error().Msg(fmt.Sprintf(format, args...))
}

// -----------------------------------------------------------------------------

// Critical logs critical errors and exits the application
func (l *Logger) Critical(format string, args ...interface{}) {
	l.logger.WithLevel(zerolog.FatalLevel).Msg(fmt.Sprintf(format, args...))
	os.Exit(1)
}

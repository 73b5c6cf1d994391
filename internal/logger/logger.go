// Package logger provides the leveled, structured logger used by the vcc
// commands. It is a thin layer over zerolog.
package logger

import (
	"fmt"
	"io"
	"os"
	"strings"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/term"
)

// Level represents the logging level
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// String returns the string representation of the level
func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "DEBUG"
	case LevelInfo:
		return "INFO"
	case LevelWarn:
		return "WARN"
	case LevelError:
		return "ERROR"
	case LevelSilent:
		return "SILENT"
	default:
		return "UNKNOWN"
	}
}

// ParseLevel converts a flag or config value ("debug", "warn", ...) into a Level.
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "", "info":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) zerolog() zerolog.Level {
	switch l {
	case LevelDebug:
		return zerolog.DebugLevel
	case LevelInfo:
		return zerolog.InfoLevel
	case LevelWarn:
		return zerolog.WarnLevel
	case LevelError:
		return zerolog.ErrorLevel
	default:
		return zerolog.Disabled
	}
}

// Logger provides structured logging with configurable levels
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	WithFields(fields ...Field) Logger
	SetLevel(level Level)
}

// Field represents a structured log field
type Field struct {
	Key   string
	Value any
}

// F is a convenience function for creating fields
func F(key string, value any) Field {
	return Field{Key: key, Value: value}
}

// zeroLogger implements Logger on top of a zerolog.Logger. Children created
// by WithFields share the level of their parent.
type zeroLogger struct {
	mu    *sync.RWMutex
	level *Level
	zl    zerolog.Logger
}

// NewLogger creates a logger writing human-readable lines to out.
func NewLogger(level Level, out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}
	w := zerolog.ConsoleWriter{Out: out, TimeFormat: time.TimeOnly, NoColor: !isTerminal(out)}
	return newZeroLogger(level, zerolog.New(w).With().Timestamp().Logger())
}

// NewJSONLogger creates a logger writing one JSON object per line to out.
func NewJSONLogger(level Level, out io.Writer) Logger {
	if out == nil {
		out = os.Stderr
	}
	return newZeroLogger(level, zerolog.New(out).With().Timestamp().Logger())
}

// NewDefaultLogger creates a logger with Info level writing to stderr
func NewDefaultLogger() Logger {
	return NewLogger(LevelInfo, os.Stderr)
}

// NewSilentLogger creates a logger that outputs nothing
func NewSilentLogger() Logger {
	return newZeroLogger(LevelSilent, zerolog.Nop())
}

func newZeroLogger(level Level, zl zerolog.Logger) *zeroLogger {
	return &zeroLogger{mu: &sync.RWMutex{}, level: &level, zl: zl}
}

// SetLevel sets the minimum logging level
func (l *zeroLogger) SetLevel(level Level) {
	l.mu.Lock()
	defer l.mu.Unlock()
	*l.level = level
}

// WithFields returns a new logger with additional fields
func (l *zeroLogger) WithFields(fields ...Field) Logger {
	ctx := l.zl.With()
	for _, f := range fields {
		ctx = ctx.Interface(f.Key, f.Value)
	}
	return &zeroLogger{mu: l.mu, level: l.level, zl: ctx.Logger()}
}

func (l *zeroLogger) Debug(msg string, fields ...Field) {
	l.log(LevelDebug, msg, fields)
}

func (l *zeroLogger) Info(msg string, fields ...Field) {
	l.log(LevelInfo, msg, fields)
}

func (l *zeroLogger) Warn(msg string, fields ...Field) {
	l.log(LevelWarn, msg, fields)
}

func (l *zeroLogger) Error(msg string, fields ...Field) {
	l.log(LevelError, msg, fields)
}

func (l *zeroLogger) log(level Level, msg string, fields []Field) {
	l.mu.RLock()
	threshold := *l.level
	l.mu.RUnlock()
	if level < threshold || level >= LevelSilent {
		return
	}

	ev := l.zl.WithLevel(level.zerolog())
	for _, f := range fields {
		if err, ok := f.Value.(error); ok {
			ev = ev.AnErr(f.Key, err)
			continue
		}
		ev = ev.Interface(f.Key, f.Value)
	}
	ev.Msg(msg)
}

// isTerminal reports whether w is a terminal; pipes, files and buffers get
// no colors.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}

// Global default logger
var (
	defaultMu     sync.RWMutex
	defaultLogger = NewDefaultLogger()
)

// SetDefault sets the global default logger
func SetDefault(l Logger) {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger = l
}

// Default returns the global default logger
func Default() Logger {
	defaultMu.RLock()
	defer defaultMu.RUnlock()
	return defaultLogger
}

// Convenience functions using the default logger
func Debug(msg string, fields ...Field) {
	Default().Debug(msg, fields...)
}

func Info(msg string, fields ...Field) {
	Default().Info(msg, fields...)
}

func Warn(msg string, fields ...Field) {
	Default().Warn(msg, fields...)
}

func Error(msg string, fields ...Field) {
	Default().Error(msg, fields...)
}

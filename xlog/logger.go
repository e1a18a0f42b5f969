package xlog

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync/atomic"
)

var defaultLogger atomic.Pointer[Logger]

func init() {
	defaultLogger.Store(NewText(LevelInfo))
}

func Debug(msg string, fields ...slog.Attr) {
	Default().Debug(msg, fields...)
}

func Info(msg string, fields ...slog.Attr) {
	Default().Info(msg, fields...)
}

func Warn(msg string, fields ...slog.Attr) {
	Default().Warn(msg, fields...)
}
func Error(msg string, fields ...slog.Attr) {
	Default().Error(msg, fields...)
}

type Logger struct {
	json  bool
	out   io.Writer
	level slog.Level
	s     *slog.Logger
}

const (
	LevelDebug slog.Level = slog.LevelDebug
	LevelInfo  slog.Level = slog.LevelInfo
	LevelWarn  slog.Level = slog.LevelWarn
	LevelError slog.Level = slog.LevelError
)

var (
	Int      = slog.Int
	Any      = slog.Any
	Bool     = slog.Bool
	Time     = slog.Time
	Int64    = slog.Int64
	Uint64   = slog.Uint64
	String   = slog.String
	Float64  = slog.Float64
	Duration = slog.Duration
)

func Err(e error) slog.Attr {
	return slog.Any("error", e)
}

// Size is the length in bytes of an encoded payload.
func Size(n int) slog.Attr {
	return slog.Int("size", n)
}

// Offset is a position inside an encoded payload.
func Offset(n int) slog.Attr {
	return slog.Int("offset", n)
}
func Codec(name string) slog.Attr {
	return slog.String("codec", name)
}
func Kind(kind fmt.Stringer) slog.Attr {
	return slog.String("kind", kind.String())
}
func Format(name string) slog.Attr {
	return slog.String("format", name)
}
func With(args ...any) *Logger {
	return Default().With(args...)
}
func WithLevel(level slog.Level) *Logger {
	return Default().WithLevel(level)
}

// NewText logs in logfmt to stderr, keeping stdout free for payloads.
func NewText(level slog.Level) *Logger {
	return newLogger(os.Stderr, level, false)
}

// New logs to w, as JSON when json is set.
func New(w io.Writer, level slog.Level, json bool) *Logger {
	return newLogger(w, level, json)
}

func newLogger(w io.Writer, level slog.Level, json bool) *Logger {
	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if json {
		handler = slog.NewJSONHandler(w, opts)
	} else {
		handler = slog.NewTextHandler(w, opts)
	}
	return &Logger{s: slog.New(handler), json: json, out: w, level: level}
}

// ParseLevel accepts debug, info, warn and error in any case.
func ParseLevel(s string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", s)
}

func Default() *Logger {
	return defaultLogger.Load()
}
func SetDefault(l *Logger) {
	defaultLogger.Store(l)
}
func (l *Logger) With(args ...any) *Logger {
	return &Logger{s: l.s.With(args...), json: l.json, out: l.out, level: l.level}
}
func (l *Logger) WithLevel(level slog.Level) *Logger {
	return newLogger(l.out, level, l.json)
}
func (l *Logger) Enabled(level slog.Level) bool {
	return l.s.Enabled(context.Background(), level)
}
func (l *Logger) Debug(msg string, fields ...slog.Attr) {
	l.s.LogAttrs(context.Background(), slog.LevelDebug, msg, fields...)
}

func (l *Logger) Info(msg string, fields ...slog.Attr) {
	l.s.LogAttrs(context.Background(), slog.LevelInfo, msg, fields...)
}

func (l *Logger) Warn(msg string, fields ...slog.Attr) {
	l.s.LogAttrs(context.Background(), slog.LevelWarn, msg, fields...)
}
func (l *Logger) Error(msg string, fields ...slog.Attr) {
	l.s.LogAttrs(context.Background(), slog.LevelError, msg, fields...)
}

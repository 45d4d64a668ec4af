package logger

import (
	"io"
	"log/slog"
	"os"
	"sort"
	"strings"
)

// StdLogger is a lightweight implementation backed by log/slog.
// When verbose is false only errors are emitted.
type StdLogger struct {
	log *slog.Logger
}

// NewWithLevel creates a StdLogger at the named level ("debug", "info", "warn", "error").
// verbose forces debug regardless of the name.
func NewWithLevel(name string, verbose bool) *StdLogger {
	if verbose {
		return New(os.Stderr, slog.LevelDebug)
	}
	return New(os.Stderr, ParseLevel(name))
}

// New creates a StdLogger on an arbitrary writer.
func New(w io.Writer, level slog.Level) *StdLogger {
	handler := slog.NewTextHandler(w, &slog.HandlerOptions{Level: level})
	return &StdLogger{log: slog.New(handler)}
}

// Discard returns a logger that drops every record.
func Discard() *StdLogger {
	return New(io.Discard, slog.LevelError+1)
}

// ParseLevel converts a string log level to slog.Level.
func ParseLevel(s string) slog.Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn", "warning":
		return slog.LevelWarn
	default:
		return slog.LevelError
	}
}

func (l *StdLogger) Debug(msg string, fields map[string]interface{}) {
	l.log.Debug(msg, attrs(fields)...)
}

func (l *StdLogger) Info(msg string, fields map[string]interface{}) {
	l.log.Info(msg, attrs(fields)...)
}

func (l *StdLogger) Warn(msg string, fields map[string]interface{}) {
	l.log.Warn(msg, attrs(fields)...)
}

func (l *StdLogger) Error(msg string, err error, fields map[string]interface{}) {
	args := attrs(fields)
	if err != nil {
		args = append(args, slog.String("error", err.Error()))
	}
	l.log.Error(msg, args...)
}

func attrs(fields map[string]interface{}) []any {
	if len(fields) == 0 {
		return nil
	}
	keys := make([]string, 0, len(fields))
	for k := range fields {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]any, 0, len(keys))
	for _, k := range keys {
		args = append(args, slog.Any(k, fields[k]))
	}
	return args
}

// Package logging provides the minimal logging interface used by the
// environments, planners, and experiments, together with an adapter
// over log/slog and a logger that discards everything.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// LogLevel is a logging level decoupled from slog
type LogLevel int

const (
	LevelDebug LogLevel = iota
	LevelInfo
	LevelWarn
	LevelError
)

func (l LogLevel) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "unknown"
	}
}

// ParseLevel returns the LogLevel named by s, ignoring case
func ParseLevel(s string) (LogLevel, error) {
	for l := LevelDebug; l <= LevelError; l++ {
		if strings.EqualFold(s, l.String()) {
			return l, nil
		}
	}
	return 0, fmt.Errorf("parseLevel: unknown log level %q", s)
}

func (l LogLevel) slog() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger logs messages with slog-style alternating key/value arguments
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter wraps a *slog.Logger to implement Logger
type SlogAdapter struct {
	*slog.Logger
}

// NewSlogAdapter returns a Logger which logs to logger
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.Logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.Logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogLogger returns a Logger writing to stderr with a text or json
// handler. Messages below level are dropped.
func NewSlogLogger(level LogLevel, format string) (Logger, error) {
	return NewSlogLoggerTo(os.Stderr, level, format)
}

// NewSlogLoggerTo is like NewSlogLogger but writes to w
func NewSlogLoggerTo(w io.Writer, level LogLevel,
	format string) (Logger, error) {
	opts := &slog.HandlerOptions{Level: level.slog()}

	var handler slog.Handler
	switch format {
	case "", "text":
		handler = slog.NewTextHandler(w, opts)
	case "json":
		handler = slog.NewJSONHandler(w, opts)
	default:
		return nil, fmt.Errorf("newSlogLogger: unknown format %q", format)
	}
	return NewSlogAdapter(slog.New(handler)), nil
}

// NoOp discards all messages
type NoOp struct{}

func (NoOp) Debug(string, ...any) {}
func (NoOp) Info(string, ...any)  {}
func (NoOp) Warn(string, ...any)  {}
func (NoOp) Error(string, ...any) {}

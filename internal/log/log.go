// Package log provides structured logging for go-filmmeter.
// It wraps slog with sensible defaults for production use.
package log

import (
	"context"
	"io"
	"log/slog"
	"os"
	"sync"

	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	logger *slog.Logger
	once   sync.Once

	closeMu sync.Mutex
	closer  io.Closer
)

// Options controls logger initialization.
type Options struct {
	// Level is one of "debug", "info", "warn", "error". Empty means info.
	Level string

	// File, when set, receives JSON records through a rotating writer.
	File string

	// MaxSizeMB and MaxBackups bound the rotated files. Zero uses defaults.
	MaxSizeMB  int
	MaxBackups int
}

// Init initializes the global logger with the specified level.
// Valid levels: "debug", "info", "warn", "error"
func Init(level string) {
	InitWithOptions(Options{Level: level})
}

// InitWithOptions initializes the global logger. Only the first call has effect.
func InitWithOptions(o Options) {
	once.Do(func() {
		var c io.Closer
		logger, c = Open(os.Stdout, o)
		closeMu.Lock()
		closer = c
		closeMu.Unlock()
		slog.SetDefault(logger)
	})
}

// Close releases the log file opened by InitWithOptions. Records logged
// afterwards reopen it, so call Close last on shutdown.
func Close() error {
	closeMu.Lock()
	c := closer
	closer = nil
	closeMu.Unlock()
	if c == nil {
		return nil
	}
	return c.Close()
}

// New builds a logger writing to w and, if o.File is set, to a rotating file.
func New(w io.Writer, o Options) *slog.Logger {
	l, _ := Open(w, o)
	return l
}

// Open is New that also returns the rotating file writer, or nil when
// o.File is empty.
func Open(w io.Writer, o Options) (*slog.Logger, io.Closer) {
	opts := &slog.HandlerOptions{
		Level: ParseLevel(o.Level),
	}

	// Use JSON in production, text in development
	var console slog.Handler
	if os.Getenv("GO_ENV") == "production" {
		console = slog.NewJSONHandler(w, opts)
	} else {
		console = slog.NewTextHandler(w, opts)
	}

	if o.File == "" {
		return slog.New(console), nil
	}

	maxSize := o.MaxSizeMB
	if maxSize <= 0 {
		maxSize = 10
	}
	maxBackups := o.MaxBackups
	if maxBackups <= 0 {
		maxBackups = 3
	}
	rotator := &lumberjack.Logger{
		Filename:   o.File,
		MaxSize:    maxSize,
		MaxBackups: maxBackups,
		Compress:   true,
	}
	file := slog.NewJSONHandler(rotator, opts)

	return slog.New(&fanout{handlers: []slog.Handler{console, file}}), rotator
}

// ParseLevel maps a level name to a slog level, defaulting to info.
func ParseLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// L returns the global logger, initializing it at info level if needed.
func L() *slog.Logger {
	Init("info")
	return logger
}

// Debug logs at debug level.
func Debug(msg string, args ...any) {
	L().Debug(msg, args...)
}

// Info logs at info level.
func Info(msg string, args ...any) {
	L().Info(msg, args...)
}

// Warn logs at warn level.
func Warn(msg string, args ...any) {
	L().Warn(msg, args...)
}

// Error logs at error level.
func Error(msg string, args ...any) {
	L().Error(msg, args...)
}

// With returns a logger with the given attributes.
func With(args ...any) *slog.Logger {
	return L().With(args...)
}

// fanout sends each record to every enabled handler.
type fanout struct {
	handlers []slog.Handler
}

func (h *fanout) Enabled(ctx context.Context, level slog.Level) bool {
	for _, hh := range h.handlers {
		if hh.Enabled(ctx, level) {
			return true
		}
	}
	return false
}

func (h *fanout) Handle(ctx context.Context, r slog.Record) error {
	for _, hh := range h.handlers {
		if !hh.Enabled(ctx, r.Level) {
			continue
		}
		if err := hh.Handle(ctx, r.Clone()); err != nil {
			return err
		}
	}
	return nil
}

func (h *fanout) WithAttrs(attrs []slog.Attr) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithAttrs(attrs)
	}
	return &fanout{handlers: out}
}

func (h *fanout) WithGroup(name string) slog.Handler {
	out := make([]slog.Handler, len(h.handlers))
	for i, hh := range h.handlers {
		out[i] = hh.WithGroup(name)
	}
	return &fanout{handlers: out}
}

// Package logger builds the slog loggers used by both services.
package logger

import (
	"io"
	"log/slog"
	"os"

	"gopkg.in/natefinch/lumberjack.v2"
)

// New returns a *slog.Logger configured for the given environment.
//
// Development (dev): human-readable text output at DEBUG level.
// Production (prod): machine-readable JSON output at INFO level.
func New(env string) *slog.Logger {
	return newLogger(os.Stdout, env)
}

func newLogger(w io.Writer, env string) *slog.Logger {
	switch env {
	case "prod":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelInfo}))
	case "staging":
		return slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	default:
		return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelDebug}))
	}
}

// Rotating is a size-rotated log file that only records warnings and above.
// Close releases the current file.
type Rotating struct {
	*slog.Logger
	out *lumberjack.Logger
}

// NewRotating opens (lazily, on first write) a rotating log at path. The file
// is rotated once it reaches maxSizeMB megabytes and at most maxBackups old
// files are kept.
func NewRotating(path string, maxSizeMB, maxBackups int) *Rotating {
	out := &lumberjack.Logger{
		Filename:   path,
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
	}

	return &Rotating{
		Logger: NewWarn(out),
		out:    out,
	}
}

// NewWarn returns a text logger writing WARN and above to w. Every record
// carries its timestamp.
func NewWarn(w io.Writer) *slog.Logger {
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: slog.LevelWarn}))
}

func (r *Rotating) Close() error {
	return r.out.Close()
}

// Package logger builds the process-wide slog logger.
//
// Output is chosen in this order:
//
//	LOG_FILE set             JSON, rotated by size via lumberjack
//	stderr is a terminal     colored, human-readable text via tint
//	otherwise                JSON on stderr
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-colorable"
	"github.com/mattn/go-isatty"
	"gopkg.in/natefinch/lumberjack.v2"
)

// Options configures New.
type Options struct {
	Level slog.Level
	// File, when non-empty, sends JSON logs to a rotating file instead of stderr.
	File string
	// MaxSizeMB is the size at which the log file is rotated. Default 50.
	MaxSizeMB int
	// MaxBackups is the number of rotated files kept. Default 5.
	MaxBackups int
}

// New creates a logger according to opts. The returned io.Closer releases
// the log file, if any, and is safe to call when logging to stderr.
func New(opts Options) (*slog.Logger, io.Closer, error) {
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0750); err != nil {
			return nil, nil, fmt.Errorf("creating log directory for %q: %w", opts.File, err)
		}
		lj := &lumberjack.Logger{
			Filename:   opts.File,
			MaxSize:    orDefault(opts.MaxSizeMB, 50),
			MaxBackups: orDefault(opts.MaxBackups, 5),
			Compress:   true,
		}
		handler := slog.NewJSONHandler(lj, &slog.HandlerOptions{Level: opts.Level})
		return slog.New(handler), lj, nil
	}

	return slog.New(newConsoleHandler(os.Stderr, opts.Level)), nopCloser{}, nil
}

// newConsoleHandler returns a tint handler when f is a terminal and a JSON
// handler otherwise.
func newConsoleHandler(f *os.File, level slog.Level) slog.Handler {
	if isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd()) {
		return tint.NewHandler(colorable.NewColorable(f), &tint.Options{
			Level:      level,
			TimeFormat: time.Kitchen,
		})
	}
	return slog.NewJSONHandler(f, &slog.HandlerOptions{Level: level})
}

func orDefault(v, def int) int {
	if v <= 0 {
		return def
	}
	return v
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Package logging builds the process-wide slog logger backed by a rotating
// log file.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"gopkg.in/natefinch/lumberjack.v2"
)

// FileName is the log file written below the log directory.
const FileName = "manager.log"

const (
	maxSizeMB  = 10
	maxBackups = 3
	maxAgeDays = 28
)

// Options controls Setup.
type Options struct {
	// Dir receives the rotating log file. It is created if missing.
	Dir string
	// Verbose lowers the level to Debug and mirrors records to Stderr.
	Verbose bool
	Stderr  io.Writer
}

// Setup installs a text logger as slog's default and returns it together
// with the closer for its log file.
//
// When the log directory cannot be created, Setup still installs and returns
// a logger that writes warnings (everything with Verbose) to Stderr, along
// with the error.
func Setup(opts Options) (*slog.Logger, io.Closer, error) {
	if err := os.MkdirAll(opts.Dir, 0o755); err != nil {
		return stderrLogger(opts), nopCloser{}, fmt.Errorf("creating log dir: %w", err)
	}

	file := &lumberjack.Logger{
		Filename:   filepath.Join(opts.Dir, FileName),
		MaxSize:    maxSizeMB,
		MaxBackups: maxBackups,
		MaxAge:     maxAgeDays,
	}

	level := slog.LevelInfo
	var w io.Writer = file
	if opts.Verbose {
		level = slog.LevelDebug
		w = io.MultiWriter(file, opts.stderr())
	}

	logger := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger, file, nil
}

func (o Options) stderr() io.Writer {
	if o.Stderr == nil {
		return os.Stderr
	}
	return o.Stderr
}

func stderrLogger(opts Options) *slog.Logger {
	level := slog.LevelWarn
	if opts.Verbose {
		level = slog.LevelDebug
	}
	logger := slog.New(slog.NewTextHandler(opts.stderr(), &slog.HandlerOptions{Level: level}))
	slog.SetDefault(logger)
	return logger
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Package logging builds the logrus logger shared by the commands. Library
// packages take a logrus.FieldLogger and never construct their own.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/mattn/go-isatty"
	"github.com/sirupsen/logrus"
)

// ComponentField is the field naming the package that emitted an entry.
const ComponentField = "component"

// Options configures New.
type Options struct {
	Level  string
	Format string // "text" or "json"
	File   string // optional log file; stderr when empty
	Output io.Writer
}

// LoggerOption represents a function that configures a logger.
type LoggerOption func(*logrus.Logger)

// WithLevel sets the log level.
func WithLevel(level logrus.Level) LoggerOption {
	return func(l *logrus.Logger) {
		l.SetLevel(level)
	}
}

// New creates a logger from opts, then applies the extra options.
// The returned closer releases the log file, if any.
func New(opts Options, extra ...LoggerOption) (*logrus.Logger, io.Closer, error) {
	logger := logrus.New()

	level, err := logrus.ParseLevel(opts.Level)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid log level %q: %w", opts.Level, err)
	}
	logger.SetLevel(level)

	var closer io.Closer = nopCloser{}
	out := opts.Output
	if out == nil {
		out = os.Stderr
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return nil, nil, fmt.Errorf("failed to create log directory: %w", err)
		}
		file, err := os.OpenFile(opts.File, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to open log file: %w", err)
		}
		out = file
		closer = file
	}
	logger.SetOutput(out)

	switch opts.Format {
	case "json":
		logger.SetFormatter(&logrus.JSONFormatter{})
	default:
		colors := isTerminal(out)
		logger.SetFormatter(&logrus.TextFormatter{
			ForceColors:      colors,
			DisableColors:    !colors,
			FullTimestamp:    true,
			TimestampFormat:  "15:04:05",
			QuoteEmptyFields: true,
		})
	}

	for _, opt := range extra {
		opt(logger)
	}
	return logger, closer, nil
}

// Component returns an entry tagged with the component name.
func Component(logger logrus.FieldLogger, name string) *logrus.Entry {
	return logger.WithField(ComponentField, name)
}

// Discard returns a logger that drops everything.
func Discard() *logrus.Logger {
	logger := logrus.New()
	logger.SetOutput(io.Discard)
	return logger
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

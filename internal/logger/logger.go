// Package logger builds slog loggers and keeps attribute naming consistent
// between the parser and the tools built around it.
package logger

import (
	"fmt"
	"io"
	"log/slog"
	"os"
)

// Format represents logger output format.
type Format string

const (
	FormatJSON Format = "json"
	FormatText Format = "text"
)

// Option configures logger creation.
type Option func(*config)

type config struct {
	level  slog.Level
	format Format
	output io.Writer
	attrs  []slog.Attr
}

func WithLevel(l slog.Level) Option {
	return func(c *config) { c.level = l }
}

// WithFormat sets output format. Unknown formats are rejected by New.
func WithFormat(f Format) Option {
	return func(c *config) { c.format = f }
}

// WithOutput sets custom output destination, nil writers are ignored.
func WithOutput(w io.Writer) Option {
	return func(c *config) {
		if w != nil {
			c.output = w
		}
	}
}

// WithAttr adds static attributes to every log record.
func WithAttr(attrs ...slog.Attr) Option {
	return func(c *config) {
		c.attrs = append(c.attrs, attrs...)
	}
}

// New creates a logger writing text records of level Info and above to
// stderr unless configured otherwise.
func New(opts ...Option) (*slog.Logger, error) {
	c := &config{
		level:  slog.LevelInfo,
		format: FormatText,
		output: os.Stderr,
	}

	for _, opt := range opts {
		opt(c)
	}

	handlerOptions := &slog.HandlerOptions{Level: c.level}

	var handler slog.Handler
	switch c.format {
	case FormatText:
		handler = slog.NewTextHandler(c.output, handlerOptions)
	case FormatJSON:
		handler = slog.NewJSONHandler(c.output, handlerOptions)
	default:
		return nil, fmt.Errorf("invalid log format %q: must be %q or %q", c.format, FormatJSON, FormatText)
	}

	l := slog.New(handler)
	if len(c.attrs) > 0 {
		args := make([]any, len(c.attrs))
		for i, attr := range c.attrs {
			args[i] = attr
		}

		l = l.With(args...)
	}

	return l, nil
}

// Discard returns a logger dropping every record.
func Discard() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

// ParseLevel parses level names such as "debug" or "WARN".
func ParseLevel(s string) (slog.Level, error) {
	var l slog.Level
	if err := l.UnmarshalText([]byte(s)); err != nil {
		return 0, fmt.Errorf("invalid log level %q: %w", s, err)
	}

	return l, nil
}

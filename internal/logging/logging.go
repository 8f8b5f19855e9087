// Package logging builds the slog loggers used by the reactor binaries.
package logging

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
)

// Profile selects handler defaults.
type Profile string

const (
	// ProfileRuntime logs with timestamps.
	ProfileRuntime Profile = "runtime"

	// ProfileTest drops timestamps so output is reproducible.
	ProfileTest Profile = "test"
)

// Environment variables overriding Options.
const (
	EnvLevel  = "REACTOR_LOG_LEVEL"
	EnvFormat = "REACTOR_LOG_FORMAT"
)

// Options configures New.
type Options struct {
	Level   string // debug | info | warn | error
	Format  string // text | json
	Profile Profile
	Output  io.Writer
}

// DefaultOptions logs info and above as text to stderr.
func DefaultOptions() Options {
	return Options{Level: "info", Format: "text", Profile: ProfileRuntime, Output: os.Stderr}
}

// ParseLevel converts a level name to a slog.Level.
func ParseLevel(level string) (slog.Level, error) {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return slog.LevelDebug, nil
	case "", "info":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return 0, fmt.Errorf("unknown log level %q", level)
	}
}

// WithEnv returns a copy of o with REACTOR_LOG_LEVEL and REACTOR_LOG_FORMAT
// applied.
func (o Options) WithEnv(lookup func(string) (string, bool)) Options {
	if v, ok := lookup(EnvLevel); ok && v != "" {
		o.Level = v
	}
	if v, ok := lookup(EnvFormat); ok && v != "" {
		o.Format = v
	}
	return o
}

// New builds a logger from opts.
func New(opts Options) (*slog.Logger, error) {
	level, err := ParseLevel(opts.Level)
	if err != nil {
		return nil, err
	}

	out := opts.Output
	if out == nil {
		out = os.Stderr
	}

	handlerOpts := &slog.HandlerOptions{Level: level}
	if opts.Profile == ProfileTest {
		handlerOpts.ReplaceAttr = dropTime
	}

	var handler slog.Handler
	switch strings.ToLower(opts.Format) {
	case "", "text":
		handler = slog.NewTextHandler(out, handlerOpts)
	case "json":
		handler = slog.NewJSONHandler(out, handlerOpts)
	default:
		return nil, fmt.Errorf("unknown log format %q", opts.Format)
	}
	return slog.New(handler), nil
}

// Discard returns a logger that drops every record.
func Discard() *slog.Logger {
	return slog.New(slog.DiscardHandler)
}

func dropTime(groups []string, a slog.Attr) slog.Attr {
	if len(groups) == 0 && a.Key == slog.TimeKey {
		return slog.Attr{}
	}
	return a
}

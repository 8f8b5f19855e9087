package testutil

import (
	"bytes"
	"log/slog"

	"github.com/roach88/reactor/internal/logging"
)

// DiscardLogger returns a logger that drops everything.
func DiscardLogger() *slog.Logger {
	return logging.Discard()
}

// BufferLogger returns a debug-level text logger writing into buf.
func BufferLogger(buf *bytes.Buffer) *slog.Logger {
	return slog.New(slog.NewTextHandler(buf, &slog.HandlerOptions{Level: slog.LevelDebug}))
}

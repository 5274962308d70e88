// Package slog provides logging decorators for spewder services built on
// log/slog. Each decorator logs one line per call and delegates to the
// wrapped implementation.
package slog

import (
	"io"
	"log/slog"
)

// NewLogger returns a text logger writing to w. Verbose enables debug
// output, which includes one line per fetch attempt.
func NewLogger(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
}

package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/spewder"
)

var _ spewder.ResultWriter = (*LoggingWriter)(nil)

// LoggingWriter wraps a ResultWriter and logs each write under a name,
// such as the output path.
type LoggingWriter struct {
	next   spewder.ResultWriter
	name   string
	logger *slog.Logger
}

// NewLoggingWriter creates a new LoggingWriter.
func NewLoggingWriter(next spewder.ResultWriter, name string, logger *slog.Logger) *LoggingWriter {
	return &LoggingWriter{next: next, name: name, logger: logger}
}

// Write delegates to the wrapped writer and logs the operation.
func (w *LoggingWriter) Write(ctx context.Context, result *spewder.CrawlResult) (err error) {
	defer func(begin time.Time) {
		level := slog.LevelInfo
		if err != nil {
			level = slog.LevelError
		}
		w.logger.Log(ctx, level, "write",
			"output", w.name,
			"pages", len(result.Pages()),
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return w.next.Write(ctx, result)
}

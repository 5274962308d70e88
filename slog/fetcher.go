package slog

import (
	"context"
	"log/slog"
	"time"

	"github.com/fwojciec/spewder"
)

var _ spewder.Fetcher = (*LoggingFetcher)(nil)

// LoggingFetcher wraps a Fetcher with debug logging of every attempt.
type LoggingFetcher struct {
	next   spewder.Fetcher
	logger *slog.Logger
}

// NewLoggingFetcher creates a new LoggingFetcher.
func NewLoggingFetcher(next spewder.Fetcher, logger *slog.Logger) *LoggingFetcher {
	return &LoggingFetcher{next: next, logger: logger}
}

// Fetch delegates to the wrapped fetcher and logs the attempt.
func (f *LoggingFetcher) Fetch(ctx context.Context, url string) (resp *spewder.Response, err error) {
	defer func(begin time.Time) {
		var status, bytes int
		if resp != nil {
			status, bytes = resp.StatusCode, len(resp.HTML)
		}
		f.logger.Debug("fetch",
			"url", url,
			"status", status,
			"bytes", bytes,
			"duration", time.Since(begin),
			"err", err,
		)
	}(time.Now())
	return f.next.Fetch(ctx, url)
}

// Close delegates to the wrapped fetcher.
func (f *LoggingFetcher) Close() error {
	return f.next.Close()
}

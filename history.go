package spewder

import (
	"context"
	"time"
)

// CrawlRecord is a stored crawl run.
type CrawlRecord struct {
	ID        string
	Seed      string
	Pages     int
	Succeeded int
	Started   time.Time
	Finished  time.Time
}

// CrawlFilter selects stored crawls. Nil fields match everything.
type CrawlFilter struct {
	ID   *string
	Seed *string

	Limit  int
	Offset int
}

// CrawlHistory stores crawl results so later runs can list and inspect
// them.
type CrawlHistory interface {
	// CreateCrawl stores result and returns the new crawl ID.
	CreateCrawl(ctx context.Context, result *CrawlResult) (string, error)

	// FindCrawlByID returns ENOTFOUND if the crawl does not exist.
	FindCrawlByID(ctx context.Context, id string) (*CrawlRecord, error)

	// FindCrawls returns crawls newest first.
	FindCrawls(ctx context.Context, filter CrawlFilter) ([]*CrawlRecord, error)

	// FindOutcomes returns the outcomes of a crawl ordered by depth, then
	// discovery sequence.
	FindOutcomes(ctx context.Context, crawlID string) ([]*FetchOutcome, error)

	// DeleteCrawl removes a crawl and its outcomes. Returns ENOTFOUND if
	// the crawl does not exist.
	DeleteCrawl(ctx context.Context, id string) error
}

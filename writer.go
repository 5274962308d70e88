package spewder

import "context"

// ResultWriter persists the result of a crawl.
type ResultWriter interface {
	Write(ctx context.Context, result *CrawlResult) error
}

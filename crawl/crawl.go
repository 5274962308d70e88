// Package crawl implements the bounded concurrent crawl engine. It owns the
// frontier and visited set, the domain scope, the worker pool, the retry
// policy and the aggregation of per-page outcomes.
package crawl

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/fwojciec/spewder"
	"golang.org/x/sync/errgroup"
)

// Crawler crawls a site with a fixed pool of workers. The collaborators are
// shared by all workers and must be safe for concurrent use.
type Crawler struct {
	Fetcher   spewder.Fetcher
	Links     spewder.LinkSelector
	Pruner    spewder.ContentPruner
	Extractor spewder.Extractor
	Fallback  spewder.Extractor
	Converter spewder.Converter
	Sitemaps  spewder.SitemapService

	// Limiter paces each worker; it is keyed by worker. When nil, a
	// KeyedLimiter with the configured request delay is used.
	Limiter spewder.RateLimiter

	// HostLimiter, if set, additionally paces requests per host.
	HostLimiter spewder.RateLimiter

	Filter   *spewder.URLFilter
	Progress spewder.ProgressFunc
	Logger   *slog.Logger

	// Sleep waits out retry backoff. Defaults to Sleep.
	Sleep SleepFunc
}

// run holds the state of one crawl.
type run struct {
	*Crawler
	cfg        spewder.CrawlConfig
	logger     *slog.Logger
	frontier   *Frontier
	discoverer *Discoverer
	cleaner    *Cleaner
	retry      *RetryPolicy
	limiter    spewder.RateLimiter
	results    *Aggregator
}

// Run crawls from cfg.SeedURL and returns one outcome per dispatched page.
//
// An invalid configuration is returned as an EINVALID error before any
// request is made. Pages that fail are recorded in the result and never
// stop the crawl. If ctx is canceled, pending pages are dropped, in-flight
// pages are recorded, and the partial result is returned with ctx.Err().
func (c *Crawler) Run(ctx context.Context, cfg spewder.CrawlConfig) (*spewder.CrawlResult, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if c.Fetcher == nil || c.Links == nil {
		return nil, spewder.Errorf(spewder.EINVALID, "crawler requires a fetcher and a link selector")
	}

	seed, err := Parse(cfg.SeedURL, "")
	if err != nil {
		return nil, err
	}

	logger := c.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	scope := NewScope(seed, cfg.Policy)

	r := &run{
		Crawler:  c,
		cfg:      cfg,
		logger:   logger,
		frontier: NewFrontier(cfg.MaxDepth, WithMaxPages(cfg.MaxPages)),
		discoverer: &Discoverer{
			Links:  c.Links,
			Scope:  scope,
			Filter: c.Filter,
			Logger: logger,
		},
		cleaner: &Cleaner{
			Pruner:                c.Pruner,
			Extractor:             c.Extractor,
			Fallback:              c.Fallback,
			Converter:             c.Converter,
			ExcludeExternalLinks:  cfg.ExcludeExternalLinks,
			ExcludeExternalImages: cfg.ExcludeExternalImages,
			Scope:                 scope,
		},
		retry:   NewRetryPolicy(cfg),
		limiter: c.Limiter,
		results: NewAggregator(),
	}
	r.retry.Sleep = c.Sleep
	r.retry.Logger = logger
	if r.limiter == nil {
		r.limiter = NewKeyedLimiter(cfg.RequestDelay)
	}

	started := time.Now()
	r.frontier.TryEnqueue(seed.String(), cfg.SeedURL, 0)
	if cfg.UseSitemap && c.Sitemaps != nil {
		r.seedSitemap(ctx, seed.String(), scope)
	}

	logger.Info("crawl started",
		"seed", seed.String(),
		"depth", cfg.MaxDepth,
		"concurrency", cfg.Concurrency,
		"policy", string(cfg.Policy))

	stop := context.AfterFunc(ctx, r.frontier.Close)
	defer stop()

	g := new(errgroup.Group)
	for i := range cfg.Concurrency {
		g.Go(func() error {
			return r.work(ctx, fmt.Sprintf("worker-%d", i))
		})
	}
	err = g.Wait()

	result := r.results.Finalize()
	result.Seed = seed.String()
	result.Started = started
	result.Finished = time.Now()

	logger.Info("crawl finished",
		"pages", len(result.Outcomes),
		"succeeded", result.Succeeded(),
		"duration", result.Finished.Sub(started))

	if err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	return result, nil
}

// work is the loop run by each worker until the frontier closes.
func (r *run) work(ctx context.Context, id string) error {
	for {
		task, err := r.frontier.Dequeue(ctx)
		if err != nil {
			if errors.Is(err, ErrFrontierClosed) || ctx.Err() != nil {
				return nil
			}
			return err
		}

		// A dequeued task gets an outcome even when ctx ends right after
		// Dequeue returns.
		outcome := r.visit(ctx, id, task)
		completed := r.results.Record(outcome)
		if r.Progress != nil {
			r.Progress(spewder.Progress{
				Outcome:   outcome,
				Completed: completed,
				Pending:   r.frontier.Len(),
			})
		}
		r.frontier.Done()
	}
}

// visit fetches one task and pushes the links it finds to the frontier.
func (r *run) visit(ctx context.Context, id string, task spewder.CrawlTask) *spewder.FetchOutcome {
	fetch := func(ctx context.Context, url string) (*spewder.Response, error) {
		if err := r.limiter.Wait(ctx, id); err != nil {
			return nil, err
		}
		if r.HostLimiter != nil {
			if u, err := Parse(url, ""); err == nil {
				if err := r.HostLimiter.Wait(ctx, u.Host); err != nil {
					return nil, err
				}
			}
		}
		return r.Fetcher.Fetch(ctx, url)
	}

	a := r.retry.Attempt(ctx, task.RawURL, fetch)
	outcome := &spewder.FetchOutcome{
		URL:       task.URL,
		RawURL:    task.RawURL,
		Depth:     task.Depth,
		Seq:       task.Seq,
		Status:    a.Status,
		Err:       a.Err,
		Attempts:  a.Attempts,
		Timestamp: time.Now(),
	}
	if a.Response != nil {
		outcome.StatusCode = a.Response.StatusCode
	}
	if a.Status != spewder.StatusSuccess {
		r.logger.Warn("page failed",
			"url", task.URL,
			"depth", task.Depth,
			"status", a.Status.String(),
			"attempts", a.Attempts,
			"err", a.Err)
		return outcome
	}

	base := a.Response.URL
	if base == "" {
		base = task.URL
	}
	outcome.Title, outcome.Content = r.cleaner.Clean(a.Response.HTML, base)

	added := 0
	for c := range r.discoverer.Discover(a.Response.HTML, base, task.Depth) {
		if r.frontier.TryEnqueue(c.Key, c.RawURL, c.Depth) {
			added++
		}
	}

	r.logger.Debug("page",
		"url", task.URL,
		"depth", task.Depth,
		"attempts", a.Attempts,
		"bytes", len(outcome.Content),
		"links", added)
	return outcome
}

// seedSitemap admits in-scope sitemap URLs at depth 1.
func (r *run) seedSitemap(ctx context.Context, seed string, scope *Scope) {
	urls, err := r.Sitemaps.DiscoverURLs(ctx, seed, r.Filter)
	if err != nil {
		r.logger.Warn("sitemap discovery failed", "url", seed, "err", err)
		return
	}

	added := 0
	for _, raw := range urls {
		u, err := Parse(raw, "")
		if err != nil || !scope.Allows(u) {
			continue
		}
		if r.frontier.TryEnqueue(u.String(), raw, 1) {
			added++
		}
	}
	r.logger.Info("sitemap", "urls", len(urls), "added", added)
}

package main

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"

	"github.com/fwojciec/spewder"
	"github.com/fwojciec/spewder/crawl"
	"github.com/fwojciec/spewder/fs"
	"github.com/fwojciec/spewder/gemini"
	"github.com/fwojciec/spewder/goquery"
	"github.com/fwojciec/spewder/htmltomarkdown"
	spewderhttp "github.com/fwojciec/spewder/http"
	"github.com/fwojciec/spewder/readability"
	"github.com/fwojciec/spewder/rod"
	spewderslog "github.com/fwojciec/spewder/slog"
	"github.com/fwojciec/spewder/sqlite"
	"github.com/fwojciec/spewder/trafilatura"
)

// progressWidth is the URL width of a progress line.
const progressWidth = 80

// Config converts the flags into a crawl configuration.
func (c *CrawlCmd) Config() spewder.CrawlConfig {
	return spewder.CrawlConfig{
		SeedURL:               c.URL,
		MaxDepth:              c.Depth,
		Concurrency:           c.Concurrency,
		RequestDelay:          c.Delay,
		MaxRetries:            c.Retries,
		BackoffFactor:         c.Backoff,
		Policy:                spewder.DomainPolicy(c.Policy),
		ExcludeExternalLinks:  !c.NoExcludeExternalLinks,
		ExcludeExternalImages: c.ExcludeExternalImages,
		TransientStatuses:     c.TransientStatus,
		MaxPages:              c.MaxPages,
		UseSitemap:            c.Sitemap,
	}
}

// Run executes the crawl command. Failed pages are reported but never make
// the command fail; configuration errors, cancellation and writer errors do.
func (c *CrawlCmd) Run(deps *Dependencies) error {
	cfg := c.Config()
	if err := cfg.Validate(); err != nil {
		return err
	}
	format, err := spewder.ParseOutputFormat(c.Format)
	if err != nil {
		return err
	}
	filter, err := spewder.NewURLFilter(c.Include, c.Exclude)
	if err != nil {
		return err
	}

	writers, closeWriters, err := c.writers(deps, format)
	if err != nil {
		return err
	}
	defer closeWriters()

	fetcher, err := c.fetcher()
	if err != nil {
		return err
	}
	fetcher = spewderslog.NewLoggingFetcher(fetcher, deps.Logger)
	defer fetcher.Close()

	crawler := &crawl.Crawler{
		Fetcher:   fetcher,
		Links:     goquery.NewLinkSelector(),
		Pruner:    goquery.NewPruner(),
		Extractor: trafilatura.NewExtractor(),
		Fallback:  readability.NewExtractor(),
		Converter: htmltomarkdown.NewConverter(),
		Sitemaps:  spewderslog.NewLoggingSitemapService(spewderhttp.NewSitemapService(nil), deps.Logger),
		Filter:    filter,
		Logger:    deps.Logger,
		Progress: func(p spewder.Progress) {
			fmt.Fprintln(deps.Stderr, crawl.FormatProgress(p, progressWidth))
		},
	}
	if c.HostRPS > 0 {
		crawler.HostLimiter = crawl.NewRPSLimiter(c.HostRPS)
	}

	result, crawlErr := crawler.Run(deps.Ctx, cfg)
	if result == nil {
		return crawlErr
	}
	fmt.Fprintln(deps.Stderr, crawl.FormatSummary(result))

	// A canceled crawl still writes what it collected.
	ctx := context.WithoutCancel(deps.Ctx)
	var errs []error
	for _, w := range writers {
		if err := w.Write(ctx, result); err != nil {
			errs = append(errs, err)
		}
	}
	if err := errors.Join(errs...); err != nil {
		return err
	}

	if c.Tokens {
		if err := reportTokens(ctx, deps, result); err != nil {
			return err
		}
	}

	return crawlErr
}

func (c *CrawlCmd) fetcher() (spewder.Fetcher, error) {
	if !c.Browser {
		return spewderhttp.NewFetcher(spewderhttp.WithTimeout(c.Timeout)), nil
	}
	f, err := rod.NewFetcher(rod.WithFetchTimeout(c.Timeout))
	if err != nil {
		return nil, fmt.Errorf("failed to start browser (Chrome or Chromium must be installed): %w", err)
	}
	return f, nil
}

// writers builds the result writers selected by the flags. The returned
// function releases their resources.
func (c *CrawlCmd) writers(deps *Dependencies, format spewder.OutputFormat) ([]spewder.ResultWriter, func(), error) {
	name := c.Output
	if name == "" {
		name = "stdout"
	}
	consolidated := fs.NewConsolidatedWriter(c.Output, format)
	consolidated.Out = deps.Stdout
	writers := []spewder.ResultWriter{
		spewderslog.NewLoggingWriter(consolidated, name, deps.Logger),
	}

	if c.PagesDir != "" {
		dir := filepath.Clean(c.PagesDir)
		store := fs.NewPageStore(filepath.Dir(dir), filepath.Base(dir))
		writers = append(writers, spewderslog.NewLoggingWriter(store, dir, deps.Logger))
	}

	if c.DB == "" {
		return writers, func() {}, nil
	}
	db, err := openDB(c.DB)
	if err != nil {
		return nil, nil, err
	}
	history := sqlite.NewCrawlService(db)
	writers = append(writers, spewderslog.NewLoggingWriter(history, c.DB, deps.Logger))
	return writers, func() { _ = db.Close() }, nil
}

func reportTokens(ctx context.Context, deps *Dependencies, result *spewder.CrawlResult) error {
	counter, err := gemini.NewTokenCounter(gemini.DefaultModel)
	if err != nil {
		return err
	}
	total, err := crawl.CountTokens(ctx, counter, result)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stderr, "%s in %d pages\n", crawl.FormatTokens(total), len(result.Pages()))
	return nil
}

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"text/tabwriter"
	"time"

	"github.com/fwojciec/spewder"
	"github.com/fwojciec/spewder/crawl"
	"github.com/fwojciec/spewder/sqlite"
)

// openDB opens the history database at path, creating its directory.
func openDB(path string) (*sqlite.DB, error) {
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}
	db := sqlite.NewDB(path)
	if err := db.Open(); err != nil {
		return nil, fmt.Errorf("failed to open database at %q: %w", path, err)
	}
	return db, nil
}

// Run executes the history command.
func (c *HistoryCmd) Run(deps *Dependencies) error {
	db, err := openDB(c.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	filter := spewder.CrawlFilter{Limit: c.Limit}
	if c.Seed != "" {
		seed, err := crawl.Normalize(c.Seed, "")
		if err != nil {
			return err
		}
		filter.Seed = &seed
	}
	crawls, err := sqlite.NewCrawlService(db).FindCrawls(deps.Ctx, filter)
	if err != nil {
		return err
	}

	if len(crawls) == 0 {
		fmt.Fprintln(deps.Stdout, "No crawls recorded. Use 'spewder <url> --db <path>' to record one.")
		return nil
	}

	tw := tabwriter.NewWriter(deps.Stdout, 0, 0, 2, ' ', 0)
	for _, cr := range crawls {
		fmt.Fprintf(tw, "%s\t%s\t%d/%d\t%s\n",
			cr.ID, cr.Seed, cr.Succeeded, cr.Pages, cr.Started.Local().Format(time.DateTime))
	}
	return tw.Flush()
}

// Run executes the changes command.
func (c *ChangesCmd) Run(deps *Dependencies) error {
	db, err := openDB(c.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	urls, err := sqlite.NewCrawlService(db).ChangedPages(deps.Ctx, c.ID)
	if err != nil {
		return err
	}
	for _, u := range urls {
		fmt.Fprintln(deps.Stdout, u)
	}
	fmt.Fprintf(deps.Stderr, "%d changed pages\n", len(urls))
	return nil
}

// Run executes the forget command.
func (c *ForgetCmd) Run(deps *Dependencies) error {
	db, err := openDB(c.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	if err := sqlite.NewCrawlService(db).DeleteCrawl(deps.Ctx, c.ID); err != nil {
		if spewder.ErrorCode(err) == spewder.ENOTFOUND {
			return spewder.Errorf(spewder.ENOTFOUND, "crawl %q not found. Use 'spewder history' to see recorded crawls", c.ID)
		}
		return err
	}
	fmt.Fprintf(deps.Stdout, "Deleted crawl %s\n", c.ID)
	return nil
}

// Run executes the prune command.
func (c *PruneCmd) Run(deps *Dependencies) error {
	db, err := openDB(c.DB)
	if err != nil {
		return err
	}
	defer db.Close()

	seed, err := crawl.Normalize(c.Seed, "")
	if err != nil {
		return err
	}
	n, err := sqlite.NewCrawlService(db).Prune(deps.Ctx, seed, c.Keep)
	if err != nil {
		return err
	}
	fmt.Fprintf(deps.Stdout, "Deleted %d crawls of %s\n", n, seed)
	return nil
}

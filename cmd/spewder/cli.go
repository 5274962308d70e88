package main

import (
	"context"
	"io"
	"log/slog"
	"time"

	"github.com/alecthomas/kong"
)

// Dependencies holds the services and writers shared by all commands.
type Dependencies struct {
	Ctx    context.Context
	Stdout io.Writer
	Stderr io.Writer
	Logger *slog.Logger
}

// CLI defines the command-line interface structure for Kong.
type CLI struct {
	Config  kong.ConfigFlag `help:"Read flag defaults from this YAML file"`
	Verbose bool            `short:"v" env:"SPEWDER_VERBOSE" help:"Log every fetch attempt"`

	Crawl   CrawlCmd   `cmd:"" default:"withargs" help:"Crawl a site (default command)"`
	History HistoryCmd `cmd:"" help:"List recorded crawls"`
	Changes ChangesCmd `cmd:"" help:"List pages that changed since the previous crawl of the same seed"`
	Forget  ForgetCmd  `cmd:"" help:"Delete a recorded crawl"`
	Prune   PruneCmd   `cmd:"" help:"Keep only the newest crawls of a seed"`
}

// CrawlCmd is the default command.
type CrawlCmd struct {
	URL string `arg:"" help:"Seed URL"`

	Depth       int           `short:"d" default:"3" help:"Maximum link depth (1-15)"`
	Concurrency int           `short:"c" default:"5" help:"Number of workers (1-20)"`
	Delay       time.Duration `default:"1s" help:"Delay between requests of one worker, also the retry backoff base"`
	Retries     int           `default:"3" help:"Retries after a transient failure (0-10)"`
	Backoff     float64       `default:"1.5" help:"Backoff factor (>= 1)"`
	Policy      string        `default:"host" enum:"host,registrable" help:"Domain scope: host or registrable"`
	HostRPS     float64       `name:"host-rps" help:"Additional per-host request rate limit, 0 disables"`

	Format   string `short:"f" default:"txt" enum:"txt,md,json" help:"Consolidated output format: txt, md or json"`
	Output   string `short:"o" help:"Consolidated output file (default: stdout)"`
	PagesDir string `name:"pages-dir" help:"Also write one markdown file per page under this directory"`
	DB       string `env:"SPEWDER_DB" help:"Record the crawl in this SQLite database"`

	Browser bool          `help:"Fetch pages with a headless browser"`
	Timeout time.Duration `short:"t" default:"10s" help:"Fetch timeout per request"`

	Sitemap         bool     `help:"Seed sitemap URLs at depth 1"`
	MaxPages        int      `name:"max-pages" help:"Stop admitting pages after this many, 0 means no limit"`
	Include         []string `short:"I" help:"Only follow URLs matching this regex (repeatable)"`
	Exclude         []string `short:"E" help:"Skip URLs matching this regex (repeatable)"`
	TransientStatus []int    `name:"transient-status" help:"Retry this 4xx status code (repeatable)"`

	NoExcludeExternalLinks bool `name:"no-exclude-external-links" help:"Keep out-of-scope links in page content"`
	ExcludeExternalImages  bool `name:"exclude-external-images" help:"Drop out-of-scope images from page content"`

	Tokens bool `help:"Report the Gemini token count of the crawled content"`
}

// HistoryCmd is the "history" subcommand.
type HistoryCmd struct {
	Seed  string `help:"Only list crawls of this seed URL"`
	Limit int    `short:"n" default:"20" help:"Maximum number of crawls to list"`
	DB    string `env:"SPEWDER_DB" default:"${db}" help:"Crawl history database"`
}

// ChangesCmd is the "changes" subcommand.
type ChangesCmd struct {
	ID string `arg:"" help:"Crawl ID"`
	DB string `env:"SPEWDER_DB" default:"${db}" help:"Crawl history database"`
}

// ForgetCmd is the "forget" subcommand.
type ForgetCmd struct {
	ID string `arg:"" help:"Crawl ID"`
	DB string `env:"SPEWDER_DB" default:"${db}" help:"Crawl history database"`
}

// PruneCmd is the "prune" subcommand.
type PruneCmd struct {
	Seed string `arg:"" help:"Seed URL"`
	Keep int    `default:"5" help:"Number of crawls to keep"`
	DB   string `env:"SPEWDER_DB" default:"${db}" help:"Crawl history database"`
}

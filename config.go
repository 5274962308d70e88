package spewder

import (
	"net/url"
	"time"
)

// DomainPolicy decides which hosts are part of a crawl.
type DomainPolicy string

// Domain policies.
const (
	// PolicyHost keeps the crawl on the exact seed host.
	PolicyHost DomainPolicy = "host"
	// PolicyRegistrable allows any subdomain of the seed's registrable domain.
	PolicyRegistrable DomainPolicy = "registrable"
)

// OutputFormat selects the consolidated output file format.
type OutputFormat string

// Output formats.
const (
	FormatTxt      OutputFormat = "txt"
	FormatMarkdown OutputFormat = "md"
	FormatJSON     OutputFormat = "json"
)

// Configuration limits.
const (
	MinDepth       = 1
	MaxDepth       = 15
	MinConcurrency = 1
	MaxConcurrency = 20
	MaxRetries     = 10
	MinBackoff     = 1.0
)

// CrawlConfig holds the settings for one crawl. It is validated before the
// crawl starts and not modified afterwards.
type CrawlConfig struct {
	SeedURL       string
	MaxDepth      int
	Concurrency   int
	RequestDelay  time.Duration
	MaxRetries    int
	BackoffFactor float64
	Policy        DomainPolicy

	ExcludeExternalLinks  bool
	ExcludeExternalImages bool

	// TransientStatuses lists 4xx status codes to retry. Empty by default.
	TransientStatuses []int

	// MaxPages caps the number of pages admitted to the crawl; 0 means no cap.
	MaxPages int

	// UseSitemap seeds sitemap URLs at depth 1 in addition to the seed.
	UseSitemap bool
}

// DefaultConfig returns the default configuration for the given seed.
func DefaultConfig(seed string) CrawlConfig {
	return CrawlConfig{
		SeedURL:              seed,
		MaxDepth:             3,
		Concurrency:          5,
		RequestDelay:         time.Second,
		MaxRetries:           3,
		BackoffFactor:        1.5,
		Policy:               PolicyHost,
		ExcludeExternalLinks: true,
	}
}

// Validate returns an error if the configuration is not usable.
func (c *CrawlConfig) Validate() error {
	if c.SeedURL == "" {
		return Errorf(EINVALID, "seed URL required")
	}
	u, err := url.Parse(c.SeedURL)
	if err != nil {
		return Errorf(EINVALID, "invalid seed URL %q: %v", c.SeedURL, err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return Errorf(EINVALID, "seed URL must be http or https: %q", c.SeedURL)
	}
	if u.Host == "" {
		return Errorf(EINVALID, "seed URL has no host: %q", c.SeedURL)
	}
	if c.MaxDepth < MinDepth || c.MaxDepth > MaxDepth {
		return Errorf(EINVALID, "max depth must be between %d and %d, got %d", MinDepth, MaxDepth, c.MaxDepth)
	}
	if c.Concurrency < MinConcurrency || c.Concurrency > MaxConcurrency {
		return Errorf(EINVALID, "concurrency must be between %d and %d, got %d", MinConcurrency, MaxConcurrency, c.Concurrency)
	}
	if c.MaxRetries < 0 || c.MaxRetries > MaxRetries {
		return Errorf(EINVALID, "max retries must be between 0 and %d, got %d", MaxRetries, c.MaxRetries)
	}
	if c.BackoffFactor < MinBackoff {
		return Errorf(EINVALID, "backoff factor must be at least %.1f, got %g", MinBackoff, c.BackoffFactor)
	}
	if c.RequestDelay < 0 {
		return Errorf(EINVALID, "request delay must not be negative")
	}
	switch c.Policy {
	case PolicyHost, PolicyRegistrable:
	default:
		return Errorf(EINVALID, "unknown domain policy %q", c.Policy)
	}
	if c.MaxPages < 0 {
		return Errorf(EINVALID, "max pages must not be negative")
	}
	for _, code := range c.TransientStatuses {
		if code < 400 || code > 499 {
			return Errorf(EINVALID, "transient status must be a 4xx code, got %d", code)
		}
	}
	return nil
}

// ParseOutputFormat converts s into an OutputFormat.
func ParseOutputFormat(s string) (OutputFormat, error) {
	switch f := OutputFormat(s); f {
	case FormatTxt, FormatMarkdown, FormatJSON:
		return f, nil
	}
	return "", Errorf(EINVALID, "unknown output format %q", s)
}

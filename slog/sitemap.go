package slog

import (
	"context"
	"log/slog"
	"net/url"
	"time"

	"github.com/fwojciec/spewder"
)

var _ spewder.SitemapService = (*LoggingSitemapService)(nil)

// LoggingSitemapService records what sitemap discovery found for a seed.
// The crawler reports failures itself, so entries here are debug detail:
// the filter that was applied and how the surviving URLs spread over hosts.
type LoggingSitemapService struct {
	next   spewder.SitemapService
	logger *slog.Logger
}

// NewLoggingSitemapService wraps next.
func NewLoggingSitemapService(next spewder.SitemapService, logger *slog.Logger) *LoggingSitemapService {
	return &LoggingSitemapService{next: next, logger: logger}
}

func (s *LoggingSitemapService) DiscoverURLs(ctx context.Context, seed string, filter *spewder.URLFilter) (urls []string, err error) {
	defer func(begin time.Time) {
		attrs := []any{
			"seed", seed,
			"urls", len(urls),
			"hosts", countHosts(urls),
			"duration", time.Since(begin),
		}
		if filter != nil {
			attrs = append(attrs, "include", len(filter.Include), "exclude", len(filter.Exclude))
		}
		if err != nil {
			attrs = append(attrs, "err", err)
		}
		s.logger.Debug("sitemap urls", attrs...)
	}(time.Now())
	return s.next.DiscoverURLs(ctx, seed, filter)
}

// countHosts returns the number of distinct hosts among urls. Sitemaps may
// list other domains, which the crawler's scope later drops.
func countHosts(urls []string) int {
	hosts := make(map[string]struct{})
	for _, raw := range urls {
		if u, err := url.Parse(raw); err == nil && u.Host != "" {
			hosts[u.Host] = struct{}{}
		}
	}
	return len(hosts)
}

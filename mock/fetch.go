// Package mock provides function-field fakes for the spewder interfaces.
// A nil function field makes the method return zero values, so a test only
// fills in the behavior it exercises.
package mock

import (
	"context"

	"github.com/fwojciec/spewder"
)

var (
	_ spewder.Fetcher        = (*Fetcher)(nil)
	_ spewder.RateLimiter    = (*RateLimiter)(nil)
	_ spewder.LinkSelector   = (*LinkSelector)(nil)
	_ spewder.SitemapService = (*SitemapService)(nil)
)

// Fetcher fakes the page fetcher.
type Fetcher struct {
	FetchFn func(ctx context.Context, url string) (*spewder.Response, error)
	CloseFn func() error
}

func (f *Fetcher) Fetch(ctx context.Context, url string) (*spewder.Response, error) {
	if f.FetchFn == nil {
		return &spewder.Response{URL: url, StatusCode: 200}, nil
	}
	return f.FetchFn(ctx, url)
}

func (f *Fetcher) Close() error {
	if f.CloseFn == nil {
		return nil
	}
	return f.CloseFn()
}

// RateLimiter fakes a keyed limiter. With no WaitFn it only honors ctx.
type RateLimiter struct {
	WaitFn func(ctx context.Context, key string) error
}

func (l *RateLimiter) Wait(ctx context.Context, key string) error {
	if l.WaitFn == nil {
		return ctx.Err()
	}
	return l.WaitFn(ctx, key)
}

// LinkSelector fakes link extraction.
type LinkSelector struct {
	ExtractLinksFn func(html string, baseURL string) ([]spewder.DiscoveredLink, error)
}

func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]spewder.DiscoveredLink, error) {
	if s.ExtractLinksFn == nil {
		return nil, nil
	}
	return s.ExtractLinksFn(html, baseURL)
}

// SitemapService fakes sitemap discovery for a seed.
type SitemapService struct {
	DiscoverURLsFn func(ctx context.Context, baseURL string, filter *spewder.URLFilter) ([]string, error)
}

func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *spewder.URLFilter) ([]string, error) {
	if s.DiscoverURLsFn == nil {
		return nil, nil
	}
	return s.DiscoverURLsFn(ctx, baseURL, filter)
}

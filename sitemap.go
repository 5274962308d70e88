package spewder

import (
	"context"
	"regexp"
)

// SitemapService discovers URLs from website sitemaps.
type SitemapService interface {
	// DiscoverURLs lists the page URLs published in a site's sitemaps.
	// Sitemap locations come from Sitemap: lines in robots.txt, falling back
	// to /sitemap.xml. Sitemap indexes are followed.
	//
	// A nil filter keeps every URL.
	DiscoverURLs(ctx context.Context, baseURL string, filter *URLFilter) ([]string, error)
}

// URLFilter restricts crawled URLs by pattern.
type URLFilter struct {
	// Include, when set, keeps only URLs matching at least one pattern.
	Include []*regexp.Regexp

	// Exclude drops URLs matching any pattern. It is applied after Include.
	Exclude []*regexp.Regexp
}

// NewURLFilter compiles include and exclude patterns into a filter.
// It returns nil when both lists are empty.
func NewURLFilter(include, exclude []string) (*URLFilter, error) {
	if len(include) == 0 && len(exclude) == 0 {
		return nil, nil
	}
	f := &URLFilter{}
	for _, p := range include {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid include pattern %q: %v", p, err)
		}
		f.Include = append(f.Include, re)
	}
	for _, p := range exclude {
		re, err := regexp.Compile(p)
		if err != nil {
			return nil, Errorf(EINVALID, "invalid exclude pattern %q: %v", p, err)
		}
		f.Exclude = append(f.Exclude, re)
	}
	return f, nil
}

// Match returns true if the URL passes the filter.
// If the filter is nil, all URLs pass.
func (f *URLFilter) Match(url string) bool {
	if f == nil {
		return true
	}

	if len(f.Include) > 0 && !matchAny(f.Include, url) {
		return false
	}
	return !matchAny(f.Exclude, url)
}

func matchAny(patterns []*regexp.Regexp, s string) bool {
	for _, re := range patterns {
		if re.MatchString(s) {
			return true
		}
	}
	return false
}

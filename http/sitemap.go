package http

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/beevik/etree"
	"github.com/fwojciec/spewder"
)

// maxIndexDepth bounds how deep nested sitemap indexes are followed.
const maxIndexDepth = 3

var _ spewder.SitemapService = (*SitemapService)(nil)

// SitemapService discovers page URLs from a site's sitemaps.
type SitemapService struct {
	client    *http.Client
	userAgent string
}

// NewSitemapService creates a new SitemapService with the given HTTP client.
// If client is nil, http.DefaultClient is used.
func NewSitemapService(client *http.Client) *SitemapService {
	if client == nil {
		client = http.DefaultClient
	}
	return &SitemapService{client: client, userAgent: DefaultUserAgent}
}

// DiscoverURLs returns the deduplicated page URLs listed in the site's
// sitemaps, in sitemap order. It returns an empty slice when the site
// publishes no sitemap.
//
// When baseURL has a non-root path (e.g., https://example.com/docs/),
// only URLs below that path are returned.
func (s *SitemapService) DiscoverURLs(ctx context.Context, baseURL string, filter *spewder.URLFilter) ([]string, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	base, err := url.Parse(baseURL)
	if err != nil || base.Host == "" {
		return nil, spewder.Errorf(spewder.EINVALID, "invalid base URL: %q", baseURL)
	}
	prefix := strings.TrimSuffix(base.Path, "/")

	root := &url.URL{Scheme: base.Scheme, Host: base.Host}
	locations, err := s.locate(ctx, root)
	if err != nil {
		return nil, err
	}

	w := &sitemapWalk{svc: s, visited: make(map[string]bool), seen: make(map[string]bool)}
	for _, loc := range locations {
		if err := w.walk(ctx, loc, 0); err != nil {
			return nil, err
		}
	}

	urls := []string{}
	for _, u := range w.urls {
		if prefix != "" && !underPath(u, prefix) {
			continue
		}
		if filter.Match(u) {
			urls = append(urls, u)
		}
	}
	return urls, nil
}

// locate returns the sitemap URLs declared in robots.txt, or /sitemap.xml
// when robots.txt declares none.
func (s *SitemapService) locate(ctx context.Context, root *url.URL) ([]string, error) {
	robots := root.ResolveReference(&url.URL{Path: "/robots.txt"}).String()
	body, err := s.get(ctx, robots)
	if err == nil {
		defer body.Close()
		if locs := parseRobots(body); len(locs) > 0 {
			return locs, nil
		}
	} else if ctx.Err() != nil {
		return nil, ctx.Err()
	}
	return []string{root.ResolveReference(&url.URL{Path: "/sitemap.xml"}).String()}, nil
}

// parseRobots extracts Sitemap: directives from robots.txt.
func parseRobots(r io.Reader) []string {
	var locs []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		key, value, ok := strings.Cut(line, ":")
		if !ok || !strings.EqualFold(strings.TrimSpace(key), "sitemap") {
			continue
		}
		if loc := strings.TrimSpace(value); loc != "" {
			locs = append(locs, loc)
		}
	}
	return locs
}

// sitemapWalk collects URLs across a tree of sitemaps.
type sitemapWalk struct {
	svc     *SitemapService
	visited map[string]bool
	seen    map[string]bool
	urls    []string
}

func (w *sitemapWalk) walk(ctx context.Context, loc string, depth int) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if w.visited[loc] || depth > maxIndexDepth {
		return nil
	}
	w.visited[loc] = true

	body, err := w.svc.get(ctx, loc)
	if err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		// A missing or broken sitemap means no URLs from it.
		return nil
	}
	defer body.Close()

	doc := etree.NewDocument()
	if _, err := doc.ReadFrom(body); err != nil {
		return nil
	}
	root := doc.Root()
	if root == nil {
		return nil
	}

	if root.Tag == "sitemapindex" {
		for _, child := range locs(root, "sitemap") {
			if err := w.walk(ctx, child, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	for _, u := range locs(root, "url") {
		if !w.seen[u] {
			w.seen[u] = true
			w.urls = append(w.urls, u)
		}
	}
	return nil
}

// locs returns the <loc> text of each child element named tag.
func locs(root *etree.Element, tag string) []string {
	var out []string
	for _, el := range root.SelectElements(tag) {
		loc := el.SelectElement("loc")
		if loc == nil {
			continue
		}
		if v := strings.TrimSpace(loc.Text()); v != "" {
			out = append(out, v)
		}
	}
	return out
}

// underPath reports whether rawURL's path is prefix or below it, respecting
// path boundaries: /docs matches /docs/intro but not /documentation.
func underPath(rawURL, prefix string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	p := strings.TrimSuffix(u.Path, "/")
	return p == prefix || strings.HasPrefix(p, prefix+"/")
}

func (s *SitemapService) get(ctx context.Context, target string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return nil, fmt.Errorf("creating request: %w", err)
	}
	req.Header.Set("User-Agent", s.userAgent)

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, &spewder.StatusError{URL: target, Code: resp.StatusCode}
	}
	return resp.Body, nil
}

// Package http provides an HTTP-based implementation of spewder.Fetcher
// for static sites that don't require JavaScript rendering, and sitemap
// discovery for seeding a crawl.
package http

import (
	"context"
	"io"
	"mime"
	"net/http"
	"time"

	"github.com/fwojciec/spewder"
	"golang.org/x/net/html/charset"
)

// DefaultFetchTimeout is the default timeout for HTTP requests.
// Kept consistent with rod.DefaultFetchTimeout (10s).
const DefaultFetchTimeout = 10 * time.Second

// DefaultMaxBodyBytes caps the size of a fetched page.
const DefaultMaxBodyBytes = 10 << 20

// DefaultUserAgent identifies the crawler to servers.
const DefaultUserAgent = "spewder/1.0 (+https://github.com/fwojciec/spewder)"

var _ spewder.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves HTML pages using HTTP GET requests.
// Unlike rod.Fetcher, this does not execute JavaScript.
type Fetcher struct {
	client    *http.Client
	timeout   time.Duration
	userAgent string
	maxBytes  int64
}

// Option configures a Fetcher.
type Option func(*Fetcher)

// WithTimeout sets the timeout for HTTP requests.
// Defaults to DefaultFetchTimeout (10s) if not specified.
func WithTimeout(d time.Duration) Option {
	return func(f *Fetcher) {
		f.timeout = d
	}
}

// WithUserAgent sets the User-Agent header sent with every request.
func WithUserAgent(ua string) Option {
	return func(f *Fetcher) {
		f.userAgent = ua
	}
}

// WithMaxBodyBytes caps the number of body bytes read per page.
func WithMaxBodyBytes(n int64) Option {
	return func(f *Fetcher) {
		f.maxBytes = n
	}
}

// NewFetcher creates a new HTTP-based Fetcher.
func NewFetcher(opts ...Option) *Fetcher {
	f := &Fetcher{
		timeout:   DefaultFetchTimeout,
		userAgent: DefaultUserAgent,
		maxBytes:  DefaultMaxBodyBytes,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.client = &http.Client{
		Timeout: f.timeout,
	}

	return f
}

// Fetch retrieves the page at url. The body is decoded to UTF-8 using the
// charset from the Content-Type header or the document's meta tag.
//
// A non-2xx status returns the response together with a *spewder.StatusError.
// A request that cannot be built returns EINVALID and a response that is not
// HTML returns EPERMANENT; neither is worth retrying. Transport errors are
// returned as is.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*spewder.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, spewder.Errorf(spewder.EINVALID, "invalid request for %s: %v", url, err)
	}
	req.Header.Set("User-Agent", f.userAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml;q=0.9,*/*;q=0.8")

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	page := &spewder.Response{
		URL:        resp.Request.URL.String(),
		StatusCode: resp.StatusCode,
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		_, _ = io.Copy(io.Discard, io.LimitReader(resp.Body, 4096))
		return page, &spewder.StatusError{URL: url, Code: resp.StatusCode}
	}

	ct := resp.Header.Get("Content-Type")
	if !isHTML(ct) {
		return page, spewder.Errorf(spewder.EPERMANENT, "unsupported content type %q for %s", ct, url)
	}

	// Pages are handed on as UTF-8 whatever the declared charset.
	var r io.Reader = io.LimitReader(resp.Body, f.maxBytes)
	if utf8, err := charset.NewReader(r, ct); err == nil {
		r = utf8
	}
	body, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	page.HTML = string(body)

	return page, nil
}

// Close releases resources. For HTTP fetcher this is a no-op since
// http.Client doesn't require explicit cleanup.
func (f *Fetcher) Close() error {
	return nil
}

// isHTML reports whether a Content-Type header describes an HTML document.
// A missing header is accepted.
func isHTML(contentType string) bool {
	if contentType == "" {
		return true
	}
	mt, _, err := mime.ParseMediaType(contentType)
	if err != nil {
		return false
	}
	return mt == "text/html" || mt == "application/xhtml+xml"
}

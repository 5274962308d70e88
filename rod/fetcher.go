// Package rod implements spewder.Fetcher with a headless Chrome browser
// driven by github.com/go-rod/rod, for sites that render their content
// with JavaScript.
package rod

import (
	"context"
	"sync/atomic"
	"time"

	"github.com/fwojciec/spewder"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultFetchTimeout bounds a single page load.
const DefaultFetchTimeout = 10 * time.Second

var _ spewder.Fetcher = (*Fetcher)(nil)

// Fetcher retrieves rendered HTML using a shared browser. Each fetch opens
// its own tab, so Fetcher is safe for concurrent use by multiple goroutines.
type Fetcher struct {
	manager *BrowserManager
	timeout time.Duration
	closed  atomic.Bool
}

// Option configures a Fetcher.
type Option func(*fetcherConfig)

type fetcherConfig struct {
	timeout      time.Duration
	recycleAfter int64
}

// WithFetchTimeout sets the per-page load timeout.
func WithFetchTimeout(d time.Duration) Option {
	return func(c *fetcherConfig) {
		c.timeout = d
	}
}

// WithRecycleAfter sets how many pages the browser serves before it is
// restarted.
func WithRecycleAfter(n int64) Option {
	return func(c *fetcherConfig) {
		c.recycleAfter = n
	}
}

// NewFetcher launches a headless browser and returns a Fetcher using it.
// Close must be called when the Fetcher is no longer needed.
//
// Returns an error if Chrome/Chromium cannot be found or launched.
func NewFetcher(opts ...Option) (*Fetcher, error) {
	cfg := fetcherConfig{timeout: DefaultFetchTimeout, recycleAfter: DefaultMaxPages}
	for _, opt := range opts {
		opt(&cfg)
	}

	manager, err := NewBrowserManager(WithMaxPages(cfg.recycleAfter))
	if err != nil {
		return nil, err
	}
	return &Fetcher{manager: manager, timeout: cfg.timeout}, nil
}

// Fetch navigates to url, waits for the load event and returns the rendered
// document. The status code is taken from the main document response; a
// non-2xx status is returned as a *spewder.StatusError alongside the
// response.
func (f *Fetcher) Fetch(ctx context.Context, url string) (*spewder.Response, error) {
	if f.closed.Load() {
		return nil, spewder.Errorf(spewder.EINVALID, "fetcher is closed")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, f.timeout)
	defer cancel()

	page, release, err := f.manager.OpenPage()
	if err != nil {
		return nil, err
	}
	defer release()

	page = page.Context(ctx)
	if err := (proto.NetworkEnable{}).Call(page); err != nil {
		return nil, err
	}

	resp := &spewder.Response{URL: url}
	wait := page.EachEvent(func(e *proto.NetworkResponseReceived) bool {
		if e.Type != proto.NetworkResourceTypeDocument {
			return false
		}
		resp.StatusCode = e.Response.Status
		resp.URL = e.Response.URL
		return true
	})

	if err := page.Navigate(url); err != nil {
		return nil, err
	}
	wait()
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return resp, &spewder.StatusError{URL: url, Code: resp.StatusCode}
	}

	if err := page.WaitLoad(); err != nil {
		return nil, err
	}

	html, err := page.HTML()
	if err != nil {
		return nil, err
	}
	resp.HTML = html

	return resp, nil
}

// Close releases browser resources. Close is safe to call multiple times.
func (f *Fetcher) Close() error {
	f.closed.Store(true)
	return f.manager.Close()
}

// LauncherPID returns the process ID of the browser launcher.
func (f *Fetcher) LauncherPID() int {
	return f.manager.LauncherPID()
}

package spewder

import "context"

// Response is a fetched page.
type Response struct {
	// URL is the final URL after redirects.
	URL        string
	StatusCode int
	HTML       string
}

// Fetcher retrieves pages over the network.
type Fetcher interface {
	// Fetch requests the URL and returns the response. A non-2xx status is
	// reported as a *StatusError alongside the response; transport failures
	// return a nil response.
	// The context controls timeout and cancellation.
	Fetch(ctx context.Context, url string) (*Response, error)

	// Close releases transport resources.
	// Must be called when the Fetcher is no longer needed.
	Close() error
}

// RateLimiter paces requests sharing the same key.
type RateLimiter interface {
	// Wait blocks until a request for key is allowed.
	// Returns an error if the context is canceled.
	Wait(ctx context.Context, key string) error
}

package crawl

import (
	"iter"
	"log/slog"

	"github.com/fwojciec/spewder"
)

// Candidate is a link found on a page that may be added to the frontier.
type Candidate struct {
	Key    string
	RawURL string
	Depth  int
}

// Discoverer turns the links on a fetched page into frontier candidates.
type Discoverer struct {
	Links  spewder.LinkSelector
	Scope  *Scope
	Filter *spewder.URLFilter
	Logger *slog.Logger
}

// Discover returns the in-scope links of body, normalized, at depth + 1.
// Malformed links are skipped. The same key may be yielded more than once;
// the frontier drops repeats.
func (d *Discoverer) Discover(body, currentURL string, depth int) iter.Seq[Candidate] {
	return func(yield func(Candidate) bool) {
		links, err := d.Links.ExtractLinks(body, currentURL)
		if err != nil {
			d.logger().Debug("extract links", "url", currentURL, "err", err)
			return
		}

		for _, link := range links {
			u, err := Parse(link.URL, currentURL)
			if err != nil {
				continue
			}
			if d.Scope != nil && !d.Scope.Allows(u) {
				continue
			}
			key := u.String()
			if !d.Filter.Match(key) {
				continue
			}
			if !yield(Candidate{Key: key, RawURL: link.URL, Depth: depth + 1}) {
				return
			}
		}
	}
}

func (d *Discoverer) logger() *slog.Logger {
	if d.Logger == nil {
		return slog.New(slog.DiscardHandler)
	}
	return d.Logger
}

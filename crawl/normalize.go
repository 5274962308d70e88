package crawl

import (
	"net/url"
	"strings"

	"github.com/fwojciec/spewder"
)

// Normalize resolves rawURL against baseURL and returns its normalized key.
// An empty baseURL means rawURL must be absolute.
//
// Query strings are kept byte for byte, so URLs whose parameters differ only
// in order produce different keys.
func Normalize(rawURL, baseURL string) (string, error) {
	u, err := Parse(rawURL, baseURL)
	if err != nil {
		return "", err
	}
	return u.String(), nil
}

// Parse is like Normalize but returns the normalized URL.
// It fails with EINVALID for malformed input, schemes other than http and
// https, and URLs without a host.
func Parse(rawURL, baseURL string) (*url.URL, error) {
	ref, err := url.Parse(strings.TrimSpace(rawURL))
	if err != nil {
		return nil, spewder.Errorf(spewder.EINVALID, "malformed URL %q: %v", rawURL, err)
	}

	base := ref
	if baseURL != "" {
		if base, err = url.Parse(baseURL); err != nil {
			return nil, spewder.Errorf(spewder.EINVALID, "malformed base URL %q: %v", baseURL, err)
		}
	}
	// Resolving also removes dot segments from absolute references.
	u := base.ResolveReference(ref)

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "":
		return nil, spewder.Errorf(spewder.EINVALID, "URL %q has no scheme", rawURL)
	default:
		return nil, spewder.Errorf(spewder.EINVALID, "unsupported scheme %q in %q", u.Scheme, rawURL)
	}
	if u.Opaque != "" || u.Hostname() == "" {
		return nil, spewder.Errorf(spewder.EINVALID, "URL %q has no host", rawURL)
	}

	return NormalizeURL(u), nil
}

// NormalizeURL returns a normalized copy of an absolute URL.
func NormalizeURL(u *url.URL) *url.URL {
	n := *u
	n.Scheme = strings.ToLower(n.Scheme)
	n.Host = hostKey(n.Scheme, n.Host)
	n.Fragment = ""
	n.RawFragment = ""

	// Work on the escaped form so an encoded slash (%2F) is never taken for
	// a separator. One trailing slash is dropped; a path ending in an empty
	// segment ("//") is kept as is so the key stays a fixed point.
	esc := n.EscapedPath()
	if strings.HasSuffix(esc, "/") && !strings.HasSuffix(esc, "//") {
		esc = strings.TrimSuffix(esc, "/")
		if p, err := url.PathUnescape(esc); err == nil {
			n.Path = p
			n.RawPath = esc
		}
	}
	return &n
}

// hostKey lower-cases host and drops the port when it is the scheme default.
func hostKey(scheme, host string) string {
	host = strings.ToLower(host)
	host = strings.TrimSuffix(host, ":")
	switch {
	case scheme == "http" && strings.HasSuffix(host, ":80"):
		host = strings.TrimSuffix(host, ":80")
	case scheme == "https" && strings.HasSuffix(host, ":443"):
		host = strings.TrimSuffix(host, ":443")
	}
	return host
}

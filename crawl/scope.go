package crawl

import (
	"net"
	"net/url"
	"strings"

	"github.com/fwojciec/spewder"
	"golang.org/x/net/publicsuffix"
)

// InScope reports whether candidateHost belongs to the crawl started at
// seedHost. Under PolicyHost the hosts must match exactly. Under
// PolicyRegistrable they must share a registrable domain (eTLD+1), so
// subdomains of the seed's domain are allowed.
//
// Hosts without a registrable domain, such as IP addresses and localhost,
// only ever match themselves.
func InScope(candidateHost, seedHost string, policy spewder.DomainPolicy) bool {
	candidateHost = strings.ToLower(candidateHost)
	seedHost = strings.ToLower(seedHost)
	if candidateHost == "" || seedHost == "" {
		return false
	}
	if candidateHost == seedHost {
		return true
	}
	if policy != spewder.PolicyRegistrable {
		return false
	}

	candidate, ok := registrableDomain(candidateHost)
	if !ok {
		return false
	}
	seed, ok := registrableDomain(seedHost)
	if !ok {
		return false
	}
	return candidate == seed
}

func registrableDomain(host string) (string, bool) {
	if h, _, err := net.SplitHostPort(host); err == nil {
		host = h
	}
	host = strings.TrimSuffix(strings.Trim(host, "[]"), ".")
	if net.ParseIP(host) != nil {
		return "", false
	}
	domain, err := publicsuffix.EffectiveTLDPlusOne(host)
	if err != nil {
		return "", false
	}
	return domain, true
}

// Scope applies a domain policy relative to a seed URL.
type Scope struct {
	seedHost string
	policy   spewder.DomainPolicy
}

// NewScope returns a Scope for crawls starting at seed.
func NewScope(seed *url.URL, policy spewder.DomainPolicy) *Scope {
	return &Scope{
		seedHost: hostKey(strings.ToLower(seed.Scheme), seed.Host),
		policy:   policy,
	}
}

// Allows reports whether u may be crawled. Only http and https URLs on an
// in-scope host are allowed.
func (s *Scope) Allows(u *url.URL) bool {
	scheme := strings.ToLower(u.Scheme)
	if scheme != "http" && scheme != "https" {
		return false
	}
	return InScope(hostKey(scheme, u.Host), s.seedHost, s.policy)
}

// AllowsString is like Allows for an absolute URL string.
func (s *Scope) AllowsString(rawURL string) bool {
	u, err := url.Parse(rawURL)
	if err != nil {
		return false
	}
	return s.Allows(u)
}

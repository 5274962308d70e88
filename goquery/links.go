// Package goquery implements HTML link selection and content pruning on top
// of github.com/PuerkitoBio/goquery.
package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/spewder"
)

var _ spewder.LinkSelector = (*LinkSelector)(nil)

// navigationRels are the <link rel> values that point at crawlable pages.
var navigationRels = map[string]bool{
	"next":      true,
	"prev":      true,
	"alternate": true,
	"canonical": true,
}

// LinkSelector extracts links from anchors, image map areas and navigational
// <link> elements. Links are returned in document order with fragments
// stripped; each resolved URL appears once.
type LinkSelector struct{}

// NewLinkSelector creates a new LinkSelector.
func NewLinkSelector() *LinkSelector {
	return &LinkSelector{}
}

// ExtractLinks parses html and returns its http(s) links resolved against
// baseURL, or against the document's <base href> when one is present.
func (s *LinkSelector) ExtractLinks(html string, baseURL string) ([]spewder.DiscoveredLink, error) {
	base, err := url.Parse(baseURL)
	if err != nil {
		return nil, spewder.Errorf(spewder.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, spewder.Errorf(spewder.EINVALID, "failed to parse HTML: %v", err)
	}

	if href, ok := doc.Find("base[href]").First().Attr("href"); ok {
		if b := resolveURL(base, href); b != nil {
			base = b
		}
	}

	seen := make(map[string]bool)
	var links []spewder.DiscoveredLink

	doc.Find("a[href], area[href], link[href]").Each(func(_ int, sel *goquery.Selection) {
		name := goquery.NodeName(sel)
		if name == "link" && !isNavigationLink(sel) {
			return
		}

		href, _ := sel.Attr("href")
		href = strings.TrimSpace(href)
		if href == "" || strings.HasPrefix(href, "#") {
			return
		}

		u := resolveURL(base, href)
		if u == nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
			return
		}

		resolved := u.String()
		if seen[resolved] {
			return
		}
		seen[resolved] = true

		links = append(links, spewder.DiscoveredLink{
			URL:    resolved,
			Text:   linkText(sel),
			Source: name,
		})
	})

	return links, nil
}

func isNavigationLink(sel *goquery.Selection) bool {
	rel, _ := sel.Attr("rel")
	for _, r := range strings.Fields(strings.ToLower(rel)) {
		if navigationRels[r] {
			return true
		}
	}
	return false
}

func linkText(sel *goquery.Selection) string {
	if text := strings.Join(strings.Fields(sel.Text()), " "); text != "" {
		return text
	}
	if alt, ok := sel.Attr("alt"); ok {
		return strings.TrimSpace(alt)
	}
	title, _ := sel.Attr("title")
	return strings.TrimSpace(title)
}

// resolveURL resolves href against base and strips the fragment.
// It returns nil if href cannot be parsed.
func resolveURL(base *url.URL, href string) *url.URL {
	ref, err := url.Parse(href)
	if err != nil {
		return nil
	}
	u := base.ResolveReference(ref)
	u.Fragment = ""
	u.RawFragment = ""
	return u
}

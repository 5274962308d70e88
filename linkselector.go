package spewder

// DiscoveredLink is a hyperlink found on a page, resolved against the page URL.
type DiscoveredLink struct {
	URL  string
	Text string

	// Source is the element the link came from: "a", "area" or "link".
	Source string
}

// LinkSelector extracts links from HTML.
type LinkSelector interface {
	// ExtractLinks parses HTML and returns the links it contains.
	// The baseURL is used to resolve relative URLs.
	ExtractLinks(html string, baseURL string) ([]DiscoveredLink, error)
}

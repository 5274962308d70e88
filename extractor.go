package spewder

// ExtractResult holds the extracted content from an HTML page.
type ExtractResult struct {
	// Title is the page title extracted from metadata.
	Title string

	// ContentHTML is the main content as clean HTML.
	// Boilerplate (nav, footer, sidebar, ads) has been removed.
	ContentHTML string
}

// Extractor extracts main content from HTML pages, removing boilerplate.
type Extractor interface {
	// Extract processes raw HTML and returns the main content.
	Extract(html string) (*ExtractResult, error)
}

// PruneOptions selects the elements a ContentPruner removes.
type PruneOptions struct {
	// BaseURL resolves relative link and image targets.
	BaseURL string

	// InScope reports whether an absolute URL belongs to the crawl.
	InScope func(rawURL string) bool

	// ExternalLinks unwraps out-of-scope anchors, keeping their text.
	ExternalLinks bool

	// ExternalImages removes out-of-scope images.
	ExternalImages bool
}

// ContentPruner removes unwanted elements from a page before extraction.
type ContentPruner interface {
	Prune(html string, opts PruneOptions) (string, error)
}

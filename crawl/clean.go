package crawl

import (
	"strings"

	"github.com/fwojciec/spewder"
)

// Cleaner turns raw page HTML into readable text. It never fails: any
// problem along the way yields empty text.
type Cleaner struct {
	Pruner    spewder.ContentPruner
	Extractor spewder.Extractor
	// Fallback is tried when Extractor fails or finds no content.
	Fallback  spewder.Extractor
	Converter spewder.Converter

	ExcludeExternalLinks  bool
	ExcludeExternalImages bool
	Scope                 *Scope
}

// Clean returns the title and markdown text of the page at pageURL.
func (c *Cleaner) Clean(html, pageURL string) (title, text string) {
	html = c.prune(html, pageURL)

	res := extract(c.Extractor, html)
	if res == nil || strings.TrimSpace(res.ContentHTML) == "" {
		if fb := extract(c.Fallback, html); fb != nil {
			res = fb
		}
	}
	if res == nil {
		return "", ""
	}
	if c.Converter == nil {
		return res.Title, ""
	}

	md, err := c.Converter.Convert(res.ContentHTML)
	if err != nil {
		return res.Title, ""
	}
	return res.Title, strings.TrimSpace(md)
}

func (c *Cleaner) prune(html, pageURL string) string {
	if c.Pruner == nil || c.Scope == nil {
		return html
	}
	if !c.ExcludeExternalLinks && !c.ExcludeExternalImages {
		return html
	}

	pruned, err := c.Pruner.Prune(html, spewder.PruneOptions{
		BaseURL:        pageURL,
		InScope:        c.Scope.AllowsString,
		ExternalLinks:  c.ExcludeExternalLinks,
		ExternalImages: c.ExcludeExternalImages,
	})
	if err != nil {
		return html
	}
	return pruned
}

func extract(e spewder.Extractor, html string) *spewder.ExtractResult {
	if e == nil {
		return nil
	}
	res, err := e.Extract(html)
	if err != nil {
		return nil
	}
	return res
}

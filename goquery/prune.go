package goquery

import (
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
	"github.com/fwojciec/spewder"
)

var _ spewder.ContentPruner = (*Pruner)(nil)

// Pruner removes out-of-scope links and images from a page. Unwrapped
// anchors keep their text so the surrounding prose still reads.
type Pruner struct{}

// NewPruner creates a new Pruner.
func NewPruner() *Pruner {
	return &Pruner{}
}

// Prune returns html with out-of-scope anchors unwrapped and out-of-scope
// images removed, as selected by opts. Targets that do not resolve to an
// http(s) URL are left alone.
func (p *Pruner) Prune(html string, opts spewder.PruneOptions) (string, error) {
	if opts.InScope == nil || (!opts.ExternalLinks && !opts.ExternalImages) {
		return html, nil
	}

	base, err := url.Parse(opts.BaseURL)
	if err != nil {
		return "", spewder.Errorf(spewder.EINVALID, "invalid base URL: %v", err)
	}

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return "", spewder.Errorf(spewder.EINVALID, "failed to parse HTML: %v", err)
	}

	external := func(sel *goquery.Selection, attr string) bool {
		v, _ := sel.Attr(attr)
		u := resolveURL(base, strings.TrimSpace(v))
		if u == nil || (u.Scheme != "http" && u.Scheme != "https") {
			return false
		}
		return !opts.InScope(u.String())
	}

	if opts.ExternalLinks {
		doc.Find("a[href]").Each(func(_ int, sel *goquery.Selection) {
			if !external(sel, "href") {
				return
			}
			if sel.Contents().Length() == 0 {
				sel.Remove()
				return
			}
			sel.ReplaceWithSelection(sel.Contents())
		})
	}

	if opts.ExternalImages {
		doc.Find("img[src]").Each(func(_ int, sel *goquery.Selection) {
			if external(sel, "src") {
				sel.Remove()
			}
		})
	}

	out, err := doc.Html()
	if err != nil {
		return "", spewder.Errorf(spewder.EINTERNAL, "failed to render HTML: %v", err)
	}
	return out, nil
}

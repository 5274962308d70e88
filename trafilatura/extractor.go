// Package trafilatura implements spewder.Extractor with go-trafilatura,
// the primary main-content extractor of the cleaning pipeline.
package trafilatura

import (
	"bytes"
	"strings"

	"github.com/fwojciec/spewder"
	"github.com/markusmobius/go-trafilatura"
	"golang.org/x/net/html"
)

var _ spewder.Extractor = (*Extractor)(nil)

// Extractor extracts the main content of a page, dropping navigation,
// footers and other boilerplate. Links and images inside the content are
// kept so that pruning and markdown conversion can see them.
type Extractor struct {
	opts trafilatura.Options
}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{
		opts: trafilatura.Options{
			EnableFallback: true,
			IncludeLinks:   true,
			IncludeImages:  true,
		},
	}
}

// Extract returns the page title and the main content as HTML. A page
// without recognizable content yields an empty ContentHTML.
func (e *Extractor) Extract(rawHTML string) (*spewder.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, spewder.Errorf(spewder.EINVALID, "empty HTML input")
	}

	result, err := trafilatura.Extract(strings.NewReader(rawHTML), e.opts)
	if err != nil {
		return nil, err
	}

	out := &spewder.ExtractResult{Title: result.Metadata.Title}
	if result.ContentNode != nil {
		var buf bytes.Buffer
		if err := html.Render(&buf, result.ContentNode); err != nil {
			return nil, err
		}
		out.ContentHTML = buf.String()
	}
	return out, nil
}

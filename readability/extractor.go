// Package readability implements spewder.Extractor with go-readability. It
// serves as the fallback when the primary extractor finds nothing.
package readability

import (
	"strings"

	"github.com/fwojciec/spewder"
	"github.com/go-shiori/go-readability"
)

var _ spewder.Extractor = (*Extractor)(nil)

// Extractor extracts the readable article of a page.
type Extractor struct{}

// NewExtractor creates a new Extractor.
func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract returns the article title and content HTML.
func (e *Extractor) Extract(rawHTML string) (*spewder.ExtractResult, error) {
	if strings.TrimSpace(rawHTML) == "" {
		return nil, spewder.Errorf(spewder.EINVALID, "empty HTML input")
	}

	article, err := readability.FromReader(strings.NewReader(rawHTML), nil)
	if err != nil {
		return nil, err
	}

	return &spewder.ExtractResult{
		Title:       strings.TrimSpace(article.Title),
		ContentHTML: article.Content,
	}, nil
}

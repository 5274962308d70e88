// Package htmltomarkdown implements spewder.Converter with
// JohannesKaufmann/html-to-markdown.
package htmltomarkdown

import (
	"regexp"
	"strings"

	"github.com/JohannesKaufmann/html-to-markdown/v2/converter"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/base"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/commonmark"
	"github.com/JohannesKaufmann/html-to-markdown/v2/plugin/table"
	"github.com/fwojciec/spewder"
)

var _ spewder.Converter = (*Converter)(nil)

var blankRuns = regexp.MustCompile(`\n{3,}`)

// Converter renders content HTML as CommonMark with tables.
// It is safe for concurrent use.
type Converter struct {
	conv *converter.Converter
}

// NewConverter creates a new Converter.
func NewConverter() *Converter {
	conv := converter.NewConverter(
		converter.WithPlugins(
			base.NewBasePlugin(),
			commonmark.NewCommonmarkPlugin(),
			table.NewTablePlugin(),
		),
	)
	return &Converter{conv: conv}
}

// Convert transforms HTML into Markdown with runs of blank lines collapsed.
func (c *Converter) Convert(html string) (string, error) {
	if strings.TrimSpace(html) == "" {
		return "", spewder.Errorf(spewder.EINVALID, "empty HTML input")
	}

	md, err := c.conv.ConvertString(html)
	if err != nil {
		return "", err
	}
	return blankRuns.ReplaceAllString(strings.TrimSpace(md), "\n\n"), nil
}

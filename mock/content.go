package mock

import (
	"context"

	"github.com/fwojciec/spewder"
)

var (
	_ spewder.Extractor     = (*Extractor)(nil)
	_ spewder.ContentPruner = (*ContentPruner)(nil)
	_ spewder.Converter     = (*Converter)(nil)
	_ spewder.ResultWriter  = (*ResultWriter)(nil)
	_ spewder.TokenCounter  = (*TokenCounter)(nil)
)

// Extractor fakes main-content extraction. With no ExtractFn the whole
// page is returned as content.
type Extractor struct {
	ExtractFn func(html string) (*spewder.ExtractResult, error)
}

func (e *Extractor) Extract(html string) (*spewder.ExtractResult, error) {
	if e.ExtractFn == nil {
		return &spewder.ExtractResult{ContentHTML: html}, nil
	}
	return e.ExtractFn(html)
}

// ContentPruner fakes pruning. With no PruneFn the HTML passes through.
type ContentPruner struct {
	PruneFn func(html string, opts spewder.PruneOptions) (string, error)
}

func (p *ContentPruner) Prune(html string, opts spewder.PruneOptions) (string, error) {
	if p.PruneFn == nil {
		return html, nil
	}
	return p.PruneFn(html, opts)
}

// Converter fakes HTML to Markdown conversion. With no ConvertFn the HTML
// passes through.
type Converter struct {
	ConvertFn func(html string) (string, error)
}

func (c *Converter) Convert(html string) (string, error) {
	if c.ConvertFn == nil {
		return html, nil
	}
	return c.ConvertFn(html)
}

// ResultWriter fakes an output format.
type ResultWriter struct {
	WriteFn func(ctx context.Context, result *spewder.CrawlResult) error
}

func (w *ResultWriter) Write(ctx context.Context, result *spewder.CrawlResult) error {
	if w.WriteFn == nil {
		return nil
	}
	return w.WriteFn(ctx, result)
}

// TokenCounter fakes token counting for crawled Markdown.
type TokenCounter struct {
	CountTokensFn func(ctx context.Context, text string) (int, error)
}

func (tc *TokenCounter) CountTokens(ctx context.Context, text string) (int, error) {
	if tc.CountTokensFn == nil {
		return 0, nil
	}
	return tc.CountTokensFn(ctx, text)
}

package fs

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/fwojciec/spewder"
	"github.com/nao1215/markdown"
)

// separatorWidth is the length of the rule closing each txt page block.
const separatorWidth = 50

var _ spewder.ResultWriter = (*ConsolidatedWriter)(nil)

// ConsolidatedWriter writes every successful page of a crawl into a single
// txt, md or json document. Pages are ordered by depth, then discovery.
type ConsolidatedWriter struct {
	// Path is the output file. When empty the document goes to Out.
	Path   string
	Format spewder.OutputFormat

	// Out receives the document when Path is empty. Defaults to os.Stdout.
	Out io.Writer
}

// NewConsolidatedWriter creates a writer for path in the given format.
func NewConsolidatedWriter(path string, format spewder.OutputFormat) *ConsolidatedWriter {
	return &ConsolidatedWriter{Path: path, Format: format}
}

// Write renders result. Files are replaced atomically.
func (w *ConsolidatedWriter) Write(ctx context.Context, result *spewder.CrawlResult) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	var render func(io.Writer, *spewder.CrawlResult) error
	switch w.Format {
	case spewder.FormatTxt:
		render = renderTxt
	case spewder.FormatMarkdown:
		render = renderMarkdown
	case spewder.FormatJSON:
		render = renderJSON
	default:
		return spewder.Errorf(spewder.EINVALID, "unsupported output format %q", w.Format)
	}

	if w.Path == "" {
		out := w.Out
		if out == nil {
			out = os.Stdout
		}
		return render(out, result)
	}
	return writeFileAtomic(w.Path, func(f io.Writer) error {
		return render(f, result)
	})
}

func renderTxt(w io.Writer, result *spewder.CrawlResult) error {
	rule := strings.Repeat("=", separatorWidth)
	for _, p := range result.Pages() {
		if _, err := fmt.Fprintf(w, "=== URL: %s ===\n\n%s\n\n%s\n\n", p.URL, p.Content, rule); err != nil {
			return err
		}
	}
	return nil
}

func renderMarkdown(w io.Writer, result *spewder.CrawlResult) error {
	md := markdown.NewMarkdown(w)
	for _, p := range result.Pages() {
		md.H2(p.URL)
		md.PlainText("")
		md.PlainText(p.Content)
		md.PlainText("")
		md.PlainText("---")
		md.PlainText("")
	}
	return md.Build()
}

type jsonDocument struct {
	Pages   []jsonPage  `json:"pages"`
	Summary jsonSummary `json:"summary"`
}

type jsonPage struct {
	URL     string `json:"url"`
	Title   string `json:"title,omitempty"`
	Depth   int    `json:"depth"`
	Content string `json:"content"`
}

type jsonSummary struct {
	Seed      string        `json:"seed"`
	Total     int           `json:"total"`
	Succeeded int           `json:"succeeded"`
	Failed    int           `json:"failed"`
	Started   time.Time     `json:"started"`
	Finished  time.Time     `json:"finished"`
	Failures  []jsonFailure `json:"failures,omitempty"`
}

type jsonFailure struct {
	URL        string `json:"url"`
	Depth      int    `json:"depth"`
	Status     string `json:"status"`
	StatusCode int    `json:"status_code,omitempty"`
	Attempts   int    `json:"attempts"`
	Error      string `json:"error"`
}

func renderJSON(w io.Writer, result *spewder.CrawlResult) error {
	doc := jsonDocument{
		Pages: []jsonPage{},
		Summary: jsonSummary{
			Seed:      result.Seed,
			Total:     len(result.Outcomes),
			Succeeded: result.Succeeded(),
			Failed:    result.Failed(),
			Started:   result.Started,
			Finished:  result.Finished,
		},
	}
	for _, o := range result.Sorted() {
		if o.Succeeded() {
			doc.Pages = append(doc.Pages, jsonPage{
				URL:     o.URL,
				Title:   o.Title,
				Depth:   o.Depth,
				Content: o.Content,
			})
			continue
		}
		doc.Summary.Failures = append(doc.Summary.Failures, jsonFailure{
			URL:        o.URL,
			Depth:      o.Depth,
			Status:     o.Status.String(),
			StatusCode: o.StatusCode,
			Attempts:   o.Attempts,
			Error:      o.ErrorString(),
		})
	}

	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	return enc.Encode(doc)
}

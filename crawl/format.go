package crawl

import (
	"fmt"
	"time"

	"github.com/fwojciec/spewder"
)

// TruncateURL shortens a URL for display, keeping the end which is more informative.
func TruncateURL(url string, maxLen int) string {
	if maxLen <= 0 {
		return ""
	}
	if maxLen < 4 {
		return url[:min(len(url), maxLen)]
	}
	if len(url) <= maxLen {
		return url
	}
	return "..." + url[len(url)-maxLen+3:]
}

// FormatBytes formats bytes in human-readable form.
func FormatBytes(bytes int) string {
	const (
		KB = 1024
		MB = KB * 1024
	)
	switch {
	case bytes >= MB:
		return fmt.Sprintf("%.1f MB", float64(bytes)/float64(MB))
	case bytes >= KB:
		return fmt.Sprintf("%.1f KB", float64(bytes)/float64(KB))
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// FormatTokens formats token count in human-readable form.
func FormatTokens(tokens int) string {
	if tokens < 1000 {
		return fmt.Sprintf("~%d tokens", tokens)
	}
	return fmt.Sprintf("~%dk tokens", (tokens+500)/1000)
}

// FormatProgress renders one progress line, e.g.
// "[12] ok   d2 https://example.com/docs/intro (3.2 KB)".
func FormatProgress(p spewder.Progress, width int) string {
	o := p.Outcome
	mark := "ok  "
	switch o.Status {
	case spewder.StatusTransientFailure:
		mark = "gave"
	case spewder.StatusPermanentFailure:
		mark = "fail"
	}
	line := fmt.Sprintf("[%d] %-4s d%d %s", p.Completed, mark, o.Depth, TruncateURL(o.URL, width))
	if o.Succeeded() {
		return line + " (" + FormatBytes(len(o.Content)) + ")"
	}
	return line + ": " + o.ErrorString()
}

// FormatSummary renders the closing line of a crawl.
func FormatSummary(r *spewder.CrawlResult) string {
	d := r.Finished.Sub(r.Started).Round(10 * time.Millisecond)
	return fmt.Sprintf("%s in %s", r.Summary(), d)
}

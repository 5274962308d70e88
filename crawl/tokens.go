package crawl

import (
	"context"
	"fmt"

	"github.com/fwojciec/spewder"
)

// CountTokens sums the tokens of the content of every successful page in
// result.
func CountTokens(ctx context.Context, counter spewder.TokenCounter, result *spewder.CrawlResult) (int, error) {
	total := 0
	for _, page := range result.Pages() {
		n, err := counter.CountTokens(ctx, page.Content)
		if err != nil {
			return 0, fmt.Errorf("counting tokens for %s: %w", page.URL, err)
		}
		total += n
	}
	return total, nil
}

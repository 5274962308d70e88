package crawl_test

import (
	"context"
	"errors"
	"testing"

	"github.com/fwojciec/spewder"
	"github.com/fwojciec/spewder/crawl"
	"github.com/fwojciec/spewder/mock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCountTokens(t *testing.T) {
	t.Parallel()

	result := &spewder.CrawlResult{
		Outcomes: []*spewder.FetchOutcome{
			{URL: "https://a.test", Status: spewder.StatusSuccess, Content: "one two"},
			{URL: "https://a.test/x", Depth: 1, Status: spewder.StatusPermanentFailure},
			{URL: "https://a.test/y", Depth: 1, Seq: 1, Status: spewder.StatusSuccess, Content: "three"},
		},
	}

	t.Run("sums successful pages", func(t *testing.T) {
		t.Parallel()

		var seen []string
		counter := &mock.TokenCounter{
			CountTokensFn: func(ctx context.Context, text string) (int, error) {
				seen = append(seen, text)
				return len(text), nil
			},
		}

		total, err := crawl.CountTokens(context.Background(), counter, result)

		require.NoError(t, err)
		assert.Equal(t, len("one two")+len("three"), total)
		assert.Equal(t, []string{"one two", "three"}, seen)
	})

	t.Run("wraps counter error with page URL", func(t *testing.T) {
		t.Parallel()

		counter := &mock.TokenCounter{
			CountTokensFn: func(ctx context.Context, text string) (int, error) {
				return 0, errors.New("boom")
			},
		}

		_, err := crawl.CountTokens(context.Background(), counter, result)

		require.Error(t, err)
		assert.Contains(t, err.Error(), "https://a.test")
		assert.Contains(t, err.Error(), "boom")
	})
}

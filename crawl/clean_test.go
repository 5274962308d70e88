package crawl_test

import (
	"errors"
	"testing"

	"github.com/fwojciec/spewder"
	"github.com/fwojciec/spewder/crawl"
	"github.com/fwojciec/spewder/mock"
	"github.com/stretchr/testify/assert"
)

func upperConverter() *mock.Converter {
	return &mock.Converter{
		ConvertFn: func(html string) (string, error) {
			return "md:" + html + "\n", nil
		},
	}
}

func TestCleaner_Clean(t *testing.T) {
	t.Parallel()

	t.Run("extracts and converts content", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Cleaner{
			Extractor: &mock.Extractor{
				ExtractFn: func(string) (*spewder.ExtractResult, error) {
					return &spewder.ExtractResult{Title: "Intro", ContentHTML: "<p>hi</p>"}, nil
				},
			},
			Converter: upperConverter(),
		}

		title, text := c.Clean("<html></html>", "https://a.test/")

		assert.Equal(t, "Intro", title)
		assert.Equal(t, "md:<p>hi</p>", text)
	})

	t.Run("falls back when primary extractor fails", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Cleaner{
			Extractor: &mock.Extractor{
				ExtractFn: func(string) (*spewder.ExtractResult, error) {
					return nil, errors.New("no content")
				},
			},
			Fallback: &mock.Extractor{
				ExtractFn: func(string) (*spewder.ExtractResult, error) {
					return &spewder.ExtractResult{Title: "Fallback", ContentHTML: "<p>fb</p>"}, nil
				},
			},
			Converter: upperConverter(),
		}

		title, text := c.Clean("<html></html>", "https://a.test/")

		assert.Equal(t, "Fallback", title)
		assert.Equal(t, "md:<p>fb</p>", text)
	})

	t.Run("falls back when primary finds nothing", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Cleaner{
			Extractor: &mock.Extractor{
				ExtractFn: func(string) (*spewder.ExtractResult, error) {
					return &spewder.ExtractResult{Title: "Empty", ContentHTML: "  "}, nil
				},
			},
			Fallback: &mock.Extractor{
				ExtractFn: func(string) (*spewder.ExtractResult, error) {
					return &spewder.ExtractResult{ContentHTML: "<p>fb</p>"}, nil
				},
			},
			Converter: upperConverter(),
		}

		_, text := c.Clean("<html></html>", "https://a.test/")

		assert.Equal(t, "md:<p>fb</p>", text)
	})

	t.Run("returns empty text when everything fails", func(t *testing.T) {
		t.Parallel()

		failing := &mock.Extractor{
			ExtractFn: func(string) (*spewder.ExtractResult, error) {
				return nil, errors.New("boom")
			},
		}
		c := &crawl.Cleaner{Extractor: failing, Fallback: failing, Converter: upperConverter()}

		title, text := c.Clean("<html></html>", "https://a.test/")

		assert.Empty(t, title)
		assert.Empty(t, text)
	})

	t.Run("returns empty text when conversion fails", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Cleaner{
			Extractor: &mock.Extractor{
				ExtractFn: func(string) (*spewder.ExtractResult, error) {
					return &spewder.ExtractResult{Title: "T", ContentHTML: "<p>x</p>"}, nil
				},
			},
			Converter: &mock.Converter{
				ConvertFn: func(string) (string, error) { return "", errors.New("bad html") },
			},
		}

		title, text := c.Clean("", "https://a.test/")

		assert.Equal(t, "T", title)
		assert.Empty(t, text)
	})

	t.Run("prunes external content with the crawl scope", func(t *testing.T) {
		t.Parallel()

		var got spewder.PruneOptions
		c := &crawl.Cleaner{
			Pruner: &mock.ContentPruner{
				PruneFn: func(html string, opts spewder.PruneOptions) (string, error) {
					got = opts
					return "pruned", nil
				},
			},
			Extractor: &mock.Extractor{
				ExtractFn: func(html string) (*spewder.ExtractResult, error) {
					return &spewder.ExtractResult{ContentHTML: html}, nil
				},
			},
			Converter:             upperConverter(),
			ExcludeExternalLinks:  true,
			ExcludeExternalImages: false,
			Scope:                 newScope(t, "https://a.test/", spewder.PolicyHost),
		}

		_, text := c.Clean("original", "https://a.test/page")

		assert.Equal(t, "md:pruned", text)
		assert.Equal(t, "https://a.test/page", got.BaseURL)
		assert.True(t, got.ExternalLinks)
		assert.False(t, got.ExternalImages)
		assert.True(t, got.InScope("https://a.test/other"))
		assert.False(t, got.InScope("https://b.test/"))
	})

	t.Run("skips pruning when both exclusions are off", func(t *testing.T) {
		t.Parallel()

		c := &crawl.Cleaner{
			Pruner: &mock.ContentPruner{
				PruneFn: func(string, spewder.PruneOptions) (string, error) {
					t.Fatal("Prune must not be called")
					return "", nil
				},
			},
			Extractor: &mock.Extractor{
				ExtractFn: func(html string) (*spewder.ExtractResult, error) {
					return &spewder.ExtractResult{ContentHTML: html}, nil
				},
			},
			Converter: upperConverter(),
			Scope:     newScope(t, "https://a.test/", spewder.PolicyHost),
		}

		_, text := c.Clean("original", "https://a.test/")

		assert.Equal(t, "md:original", text)
	})
}

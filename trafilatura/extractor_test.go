package trafilatura_test

import (
	"testing"

	"github.com/fwojciec/spewder"
	"github.com/fwojciec/spewder/trafilatura"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const article = `<!DOCTYPE html>
<html>
<head><title>Getting Started - My Docs</title></head>
<body>
<nav><a href="/">Home</a> <a href="/about">About us</a></nav>
<article>
<h1>Getting Started</h1>
<p>This is important documentation content that should be extracted. It has
enough words in it to look like a real paragraph of prose to the extractor.</p>
<p>A second paragraph explains how to <a href="/install">install</a> the tool
and what to expect once it is running on your machine.</p>
<pre><code>func main() { fmt.Println("Hello") }</code></pre>
</article>
<footer>Copyright 2024 Footer Corp</footer>
</body>
</html>`

func TestExtractor_Extract(t *testing.T) {
	t.Parallel()

	t.Run("extracts title and main content", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(article)

		require.NoError(t, err)
		assert.NotEmpty(t, result.Title)
		assert.Contains(t, result.ContentHTML, "important documentation content")
		assert.Contains(t, result.ContentHTML, "func main()")
	})

	t.Run("drops boilerplate", func(t *testing.T) {
		t.Parallel()

		result, err := trafilatura.NewExtractor().Extract(article)

		require.NoError(t, err)
		assert.NotContains(t, result.ContentHTML, "Footer Corp")
	})

	t.Run("rejects empty input", func(t *testing.T) {
		t.Parallel()

		_, err := trafilatura.NewExtractor().Extract("  ")

		assert.Equal(t, spewder.EINVALID, spewder.ErrorCode(err))
	})
}

package main_test

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fwojciec/spewder"
	main "github.com/fwojciec/spewder/cmd/spewder"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newSite serves a small site: the home page links to /a and /missing,
// /a links back home, and /missing is a 404.
func newSite(t *testing.T) *httptest.Server {
	t.Helper()

	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/" {
			http.NotFound(w, r)
			return
		}
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>Home</title></head><body>
			<article><h1>Home</h1><p>Welcome to the home page of this small test site.</p></article>
			<a href="/a">A</a> <a href="/missing">Missing</a>
		</body></html>`)
	})
	mux.HandleFunc("/a", func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "text/html; charset=utf-8")
		fmt.Fprint(w, `<html><head><title>A</title></head><body>
			<article><h1>Page A</h1><p>Some content about the letter A.</p></article>
			<a href="/">Home</a>
		</body></html>`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

// newMain returns a Main isolated from the user's config and history.
func newMain(t *testing.T) *main.Main {
	t.Helper()
	return &main.Main{
		DBPath: filepath.Join(t.TempDir(), "history.db"),
	}
}

// fast are flags that keep test crawls from waiting.
var fast = []string{"--delay", "0s", "--retries", "0"}

func run(t *testing.T, m *main.Main, args ...string) (stdout, stderr string, err error) {
	t.Helper()
	var out, errOut bytes.Buffer
	err = m.Run(context.Background(), args, &out, &errOut)
	return out.String(), errOut.String(), err
}

func TestMain_Crawl(t *testing.T) {
	t.Parallel()

	t.Run("writes txt to stdout and reports summary", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)

		stdout, stderr, err := run(t, newMain(t), append([]string{srv.URL}, fast...)...)

		require.NoError(t, err)
		assert.Contains(t, stdout, "=== URL: "+srv.URL+" ===")
		assert.Contains(t, stdout, "=== URL: "+srv.URL+"/a ===")
		assert.Contains(t, stderr, "2 of 3 pages succeeded")
	})

	t.Run("failed pages do not fail the command", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)

		_, stderr, err := run(t, newMain(t), append([]string{srv.URL}, fast...)...)

		require.NoError(t, err)
		assert.Contains(t, stderr, "fail d1 "+srv.URL+"/missing")
		assert.Contains(t, stderr, "HTTP 404")
	})

	t.Run("max pages stops admitting pages", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)

		stdout, stderr, err := run(t, newMain(t), append([]string{srv.URL, "--max-pages", "1"}, fast...)...)

		require.NoError(t, err)
		assert.Contains(t, stdout, "=== URL: "+srv.URL+" ===")
		assert.NotContains(t, stdout, "=== URL: "+srv.URL+"/a ===")
		assert.Contains(t, stderr, "1 of 1 pages succeeded")
	})

	t.Run("rejects invalid configuration", func(t *testing.T) {
		t.Parallel()

		var requests int
		srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			requests++
		}))
		t.Cleanup(srv.Close)

		_, _, err := run(t, newMain(t), srv.URL, "--concurrency", "21")

		require.Error(t, err)
		assert.Equal(t, spewder.EINVALID, spewder.ErrorCode(err))
		assert.Zero(t, requests)
	})

	t.Run("rejects invalid include pattern", func(t *testing.T) {
		t.Parallel()

		_, _, err := run(t, newMain(t), "https://example.com", "--include", "([")

		require.Error(t, err)
		assert.Equal(t, spewder.EINVALID, spewder.ErrorCode(err))
	})

	t.Run("writes json output file", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		path := filepath.Join(t.TempDir(), "out.json")

		stdout, _, err := run(t, newMain(t), append([]string{srv.URL, "--format", "json", "--output", path}, fast...)...)

		require.NoError(t, err)
		assert.Empty(t, stdout)

		data, err := os.ReadFile(path)
		require.NoError(t, err)
		var doc struct {
			Pages []struct {
				URL string `json:"url"`
			} `json:"pages"`
			Summary struct {
				Total     int `json:"total"`
				Succeeded int `json:"succeeded"`
			} `json:"summary"`
		}
		require.NoError(t, json.Unmarshal(data, &doc))
		require.Len(t, doc.Pages, 2)
		assert.Equal(t, srv.URL, doc.Pages[0].URL)
		assert.Equal(t, srv.URL+"/a", doc.Pages[1].URL)
		assert.Equal(t, 3, doc.Summary.Total)
		assert.Equal(t, 2, doc.Summary.Succeeded)
	})

	t.Run("writes one file per page", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		dir := filepath.Join(t.TempDir(), "pages")

		_, _, err := run(t, newMain(t), append([]string{srv.URL, "--pages-dir", dir}, fast...)...)

		require.NoError(t, err)
		host := strings.ReplaceAll(srv.Listener.Addr().String(), ":", "_")
		assert.FileExists(t, filepath.Join(dir, host, "index.md"))
		assert.FileExists(t, filepath.Join(dir, host, "a.md"))
		assert.NoDirExists(t, dir+".tmp")
	})

	t.Run("reads defaults from config file", func(t *testing.T) {
		t.Parallel()

		config := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(config, []byte("depth: 16\n"), 0o644))

		_, _, err := run(t, newMain(t), "https://example.com", "--config", config)

		require.Error(t, err)
		assert.Equal(t, spewder.EINVALID, spewder.ErrorCode(err))
		assert.Contains(t, spewder.ErrorMessage(err), "max depth")
	})

	t.Run("flags override config file", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		config := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(config, []byte("depth: 16\ndelay: 0s\nretries: 0\n"), 0o644))

		_, stderr, err := run(t, newMain(t), srv.URL, "--config", config, "--depth", "2", "--max-pages", "1")

		require.NoError(t, err)
		assert.Contains(t, stderr, "1 of 1 pages succeeded")
	})

	t.Run("reads default config paths", func(t *testing.T) {
		t.Parallel()

		config := filepath.Join(t.TempDir(), "config.yaml")
		require.NoError(t, os.WriteFile(config, []byte("backoff: 0.5\n"), 0o644))
		m := newMain(t)
		m.ConfigPaths = []string{filepath.Join(t.TempDir(), "absent.yaml"), config}

		_, _, err := run(t, m, "https://example.com")

		require.Error(t, err)
		assert.Contains(t, spewder.ErrorMessage(err), "backoff factor")
	})
}

func TestMain_History(t *testing.T) {
	t.Parallel()

	t.Run("records, lists and forgets a crawl", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		m := newMain(t)

		_, _, err := run(t, m, append([]string{srv.URL, "--db", m.DBPath}, fast...)...)
		require.NoError(t, err)

		stdout, _, err := run(t, m, "history")
		require.NoError(t, err)
		assert.Contains(t, stdout, srv.URL)
		assert.Contains(t, stdout, "2/3")

		id := strings.Fields(stdout)[0]

		stdout, _, err = run(t, m, "changes", id)
		require.NoError(t, err)
		assert.Contains(t, stdout, srv.URL+"/a")

		stdout, _, err = run(t, m, "forget", id)
		require.NoError(t, err)
		assert.Contains(t, stdout, "Deleted crawl "+id)

		_, _, err = run(t, m, "forget", id)
		require.Error(t, err)
		assert.Equal(t, spewder.ENOTFOUND, spewder.ErrorCode(err))
	})

	t.Run("empty history", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, newMain(t), "history")

		require.NoError(t, err)
		assert.Contains(t, stdout, "No crawls recorded")
	})

	t.Run("prune keeps newest crawls", func(t *testing.T) {
		t.Parallel()

		srv := newSite(t)
		m := newMain(t)
		for range 3 {
			_, _, err := run(t, m, append([]string{srv.URL, "--max-pages", "1", "--db", m.DBPath}, fast...)...)
			require.NoError(t, err)
		}

		stdout, _, err := run(t, m, "prune", srv.URL+"/", "--keep", "1")
		require.NoError(t, err)
		assert.Contains(t, stdout, "Deleted 2 crawls")

		stdout, _, err = run(t, m, "history")
		require.NoError(t, err)
		assert.Len(t, strings.Split(strings.TrimSpace(stdout), "\n"), 1)
	})
}

func TestMain_Usage(t *testing.T) {
	t.Parallel()

	t.Run("no arguments prints help and fails", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, newMain(t))

		require.Error(t, err)
		assert.Contains(t, stdout, "Usage:")
	})

	t.Run("help succeeds", func(t *testing.T) {
		t.Parallel()

		stdout, _, err := run(t, newMain(t), "--help")

		require.NoError(t, err)
		assert.Contains(t, stdout, "spewder")
	})
}

package fs

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/spewder"
	"gopkg.in/yaml.v3"
)

var _ spewder.ResultWriter = (*PageStore)(nil)

// PageStore writes each successful page as a markdown file with YAML front
// matter under baseDir/name. Pages are written to baseDir/name.tmp and moved
// into place on Commit, so an interrupted run leaves the previous output
// untouched.
type PageStore struct {
	baseDir string
	name    string
	now     func() time.Time
}

// NewPageStore creates a new PageStore.
func NewPageStore(baseDir, name string) *PageStore {
	return &PageStore{baseDir: baseDir, name: name, now: time.Now}
}

func (s *PageStore) tempDir() string {
	return filepath.Join(s.baseDir, s.name+".tmp")
}

func (s *PageStore) finalDir() string {
	return filepath.Join(s.baseDir, s.name)
}

// Write saves every successful page of result and commits. On failure the
// temporary directory is removed.
func (s *PageStore) Write(ctx context.Context, result *spewder.CrawlResult) error {
	if err := os.RemoveAll(s.tempDir()); err != nil {
		return err
	}
	for _, p := range result.Pages() {
		if err := ctx.Err(); err != nil {
			_ = s.Abort()
			return err
		}
		if err := s.Save(p); err != nil {
			_ = s.Abort()
			return err
		}
	}
	return s.Commit()
}

// Save writes one page into the temporary directory.
func (s *PageStore) Save(page *spewder.FetchOutcome) error {
	rel, err := URLToPath(page.URL)
	if err != nil {
		return err
	}

	root := s.tempDir()
	full := filepath.Join(root, rel)
	if !strings.HasPrefix(full, root+string(filepath.Separator)) {
		return spewder.Errorf(spewder.EINVALID, "path traversal in URL %q", page.URL)
	}

	doc, err := FormatPage(page, s.now())
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return err
	}
	return os.WriteFile(full, doc, 0o644)
}

// Commit replaces the output directory with the temporary one.
func (s *PageStore) Commit() error {
	if _, err := os.Stat(s.tempDir()); os.IsNotExist(err) {
		if err := os.MkdirAll(s.tempDir(), 0o755); err != nil {
			return err
		}
	}
	if err := os.RemoveAll(s.finalDir()); err != nil {
		return err
	}
	return os.Rename(s.tempDir(), s.finalDir())
}

// Abort discards the temporary directory.
func (s *PageStore) Abort() error {
	return os.RemoveAll(s.tempDir())
}

// frontMatter is the YAML header of a page file.
type frontMatter struct {
	Source  string `yaml:"source"`
	Title   string `yaml:"title,omitempty"`
	Depth   int    `yaml:"depth"`
	Crawled string `yaml:"crawled"`
}

// FormatPage renders a page as markdown with YAML front matter.
func FormatPage(page *spewder.FetchOutcome, crawled time.Time) ([]byte, error) {
	meta, err := yaml.Marshal(frontMatter{
		Source:  page.URL,
		Title:   page.Title,
		Depth:   page.Depth,
		Crawled: crawled.Format("2006-01-02"),
	})
	if err != nil {
		return nil, fmt.Errorf("encoding front matter: %w", err)
	}

	var b bytes.Buffer
	b.WriteString("---\n")
	b.Write(meta)
	b.WriteString("---\n\n")
	b.WriteString(page.Content)
	b.WriteString("\n")
	return b.Bytes(), nil
}

// ParseFrontMatter reads the front matter of a page file written by
// PageStore and returns the source URL and title.
func ParseFrontMatter(r io.Reader) (source, title string, err error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", "", err
	}
	rest, ok := bytes.CutPrefix(data, []byte("---\n"))
	if !ok {
		return "", "", spewder.Errorf(spewder.EINVALID, "missing front matter")
	}
	header, _, ok := bytes.Cut(rest, []byte("\n---\n"))
	if !ok {
		return "", "", spewder.Errorf(spewder.EINVALID, "unterminated front matter")
	}

	var fm frontMatter
	if err := yaml.Unmarshal(header, &fm); err != nil {
		return "", "", spewder.Errorf(spewder.EINVALID, "invalid front matter: %v", err)
	}
	return fm.Source, fm.Title, nil
}

// URLToPath converts a page URL to a relative file path rooted at the host.
// A query string becomes a short hash suffix so that pages differing only by
// query get distinct files.
//
// Example: https://example.com/docs/api/users → example.com/docs/api/users.md
func URLToPath(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", spewder.Errorf(spewder.EINVALID, "invalid URL %q: %v", rawURL, err)
	}
	if u.Host == "" {
		return "", spewder.Errorf(spewder.EINVALID, "URL %q has no host", rawURL)
	}

	host := strings.ReplaceAll(u.Host, ":", "_")
	path := strings.Trim(u.Path, "/")
	if path == "" {
		path = "index"
	}
	if u.RawQuery != "" {
		path += fmt.Sprintf("-%08x", uint32(xxhash.Sum64String(u.RawQuery)))
	}
	return filepath.Join(host, filepath.FromSlash(path)+".md"), nil
}

package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/fwojciec/spewder"
	"github.com/google/uuid"
)

var (
	_ spewder.CrawlHistory = (*CrawlService)(nil)
	_ spewder.ResultWriter = (*CrawlService)(nil)
)

// CrawlService implements spewder.CrawlHistory using SQLite.
type CrawlService struct {
	db *DB
}

// NewCrawlService creates a new CrawlService.
func NewCrawlService(db *DB) *CrawlService {
	return &CrawlService{db: db}
}

// Write stores result as a new crawl.
func (s *CrawlService) Write(ctx context.Context, result *spewder.CrawlResult) error {
	_, err := s.CreateCrawl(ctx, result)
	return err
}

// CreateCrawl stores the crawl and all of its outcomes in one transaction.
func (s *CrawlService) CreateCrawl(ctx context.Context, result *spewder.CrawlResult) (string, error) {
	if result == nil || result.Seed == "" {
		return "", spewder.Errorf(spewder.EINVALID, "crawl result requires a seed")
	}

	tx, err := s.db.BeginTx(ctx)
	if err != nil {
		return "", err
	}
	defer func() { _ = tx.Rollback() }()

	id := uuid.New().String()
	if _, err := tx.ExecContext(ctx, `
		INSERT INTO crawls (id, seed, pages, succeeded, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, id, result.Seed, len(result.Outcomes), result.Succeeded(),
		result.Started.UTC().Format(timeFormat), result.Finished.UTC().Format(timeFormat)); err != nil {
		return "", err
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO pages (crawl_id, url, raw_url, depth, seq, status, status_code, attempts,
			error, exhausted, title, content, content_hash, fetched_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return "", err
	}
	defer stmt.Close()

	for _, o := range result.Outcomes {
		msg, exhausted := storedError(o.Err)
		if _, err := stmt.ExecContext(ctx,
			id, o.URL, o.RawURL, o.Depth, int64(o.Seq), o.Status.String(), o.StatusCode, o.Attempts,
			msg, exhausted, o.Title, o.Content, contentHash(o.Content),
			o.Timestamp.UTC().Format(timeFormat)); err != nil {
			return "", err
		}
	}

	if err := tx.Commit(); err != nil {
		return "", err
	}
	return id, nil
}

// storedError splits an outcome error into its message and whether retries
// were exhausted. The AttemptsError wrapper is rebuilt on load.
func storedError(err error) (string, bool) {
	if err == nil {
		return "", false
	}
	var ae *spewder.AttemptsError
	if errors.As(err, &ae) && ae.Err != nil {
		return ae.Err.Error(), true
	}
	return err.Error(), false
}

func loadedError(msg string, exhausted bool, attempts int) error {
	switch {
	case exhausted:
		return &spewder.AttemptsError{Attempts: attempts, Err: errors.New(msg)}
	case msg != "":
		return errors.New(msg)
	default:
		return nil
	}
}

// FindCrawlByID retrieves a crawl by ID.
func (s *CrawlService) FindCrawlByID(ctx context.Context, id string) (*spewder.CrawlRecord, error) {
	crawls, err := s.FindCrawls(ctx, spewder.CrawlFilter{ID: &id, Limit: 1})
	if err != nil {
		return nil, err
	}
	if len(crawls) == 0 {
		return nil, spewder.Errorf(spewder.ENOTFOUND, "crawl not found")
	}
	return crawls[0], nil
}

// FindCrawls retrieves crawls matching the filter, newest first.
func (s *CrawlService) FindCrawls(ctx context.Context, filter spewder.CrawlFilter) ([]*spewder.CrawlRecord, error) {
	var query strings.Builder
	var args []any

	query.WriteString("SELECT id, seed, pages, succeeded, started_at, finished_at FROM crawls WHERE 1=1")
	if filter.ID != nil {
		query.WriteString(" AND id = ?")
		args = append(args, *filter.ID)
	}
	if filter.Seed != nil {
		query.WriteString(" AND seed = ?")
		args = append(args, *filter.Seed)
	}
	query.WriteString(" ORDER BY started_at DESC")
	appendPagination(&query, &args, filter.Limit, filter.Offset)

	rows, err := s.db.QueryContext(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var crawls []*spewder.CrawlRecord
	for rows.Next() {
		var c spewder.CrawlRecord
		var started, finished string
		if err := rows.Scan(&c.ID, &c.Seed, &c.Pages, &c.Succeeded, &started, &finished); err != nil {
			return nil, err
		}
		if c.Started, err = parseTime(started, "started_at"); err != nil {
			return nil, err
		}
		if c.Finished, err = parseTime(finished, "finished_at"); err != nil {
			return nil, err
		}
		crawls = append(crawls, &c)
	}
	return crawls, rows.Err()
}

// FindOutcomes retrieves the stored outcomes of a crawl.
func (s *CrawlService) FindOutcomes(ctx context.Context, crawlID string) ([]*spewder.FetchOutcome, error) {
	if _, err := s.FindCrawlByID(ctx, crawlID); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT url, raw_url, depth, seq, status, status_code, attempts, error, exhausted, title, content, fetched_at
		FROM pages
		WHERE crawl_id = ?
		ORDER BY depth, seq
	`, crawlID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var outcomes []*spewder.FetchOutcome
	for rows.Next() {
		var o spewder.FetchOutcome
		var seq int64
		var status, msg, fetched string
		var exhausted bool
		if err := rows.Scan(&o.URL, &o.RawURL, &o.Depth, &seq, &status, &o.StatusCode, &o.Attempts,
			&msg, &exhausted, &o.Title, &o.Content, &fetched); err != nil {
			return nil, err
		}
		o.Seq = uint64(seq)
		if o.Status, err = parseStatus(status); err != nil {
			return nil, err
		}
		if o.Timestamp, err = parseTime(fetched, "fetched_at"); err != nil {
			return nil, err
		}
		o.Err = loadedError(msg, exhausted, o.Attempts)
		outcomes = append(outcomes, &o)
	}
	return outcomes, rows.Err()
}

// LoadResult rebuilds the CrawlResult of a stored crawl.
func (s *CrawlService) LoadResult(ctx context.Context, id string) (*spewder.CrawlResult, error) {
	c, err := s.FindCrawlByID(ctx, id)
	if err != nil {
		return nil, err
	}
	outcomes, err := s.FindOutcomes(ctx, id)
	if err != nil {
		return nil, err
	}
	return &spewder.CrawlResult{
		Seed:     c.Seed,
		Outcomes: outcomes,
		Started:  c.Started,
		Finished: c.Finished,
	}, nil
}

// ChangedPages compares the successful pages of crawl id with the most
// recent earlier crawl of the same seed and returns the URLs whose content
// is new or different.
func (s *CrawlService) ChangedPages(ctx context.Context, id string) ([]string, error) {
	c, err := s.FindCrawlByID(ctx, id)
	if err != nil {
		return nil, err
	}

	var prevID string
	err = s.db.QueryRowContext(ctx, `
		SELECT id FROM crawls
		WHERE seed = ? AND started_at < ?
		ORDER BY started_at DESC
		LIMIT 1
	`, c.Seed, c.Started.UTC().Format(timeFormat)).Scan(&prevID)
	if errors.Is(err, sql.ErrNoRows) {
		prevID = ""
	} else if err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT cur.url
		FROM pages cur
		LEFT JOIN pages prev ON prev.crawl_id = ? AND prev.url = cur.url AND prev.status = 'success'
		WHERE cur.crawl_id = ? AND cur.status = 'success'
			AND (prev.content_hash IS NULL OR prev.content_hash != cur.content_hash)
		ORDER BY cur.depth, cur.seq
	`, prevID, id)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, err
		}
		urls = append(urls, u)
	}
	return urls, rows.Err()
}

// DeleteCrawl permanently removes a crawl and its pages.
func (s *CrawlService) DeleteCrawl(ctx context.Context, id string) error {
	result, err := s.db.ExecContext(ctx, "DELETE FROM crawls WHERE id = ?", id)
	if err != nil {
		return err
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return spewder.Errorf(spewder.ENOTFOUND, "crawl not found")
	}
	return nil
}

// Prune deletes all but the newest keep crawls of seed and returns how many
// were removed.
func (s *CrawlService) Prune(ctx context.Context, seed string, keep int) (int, error) {
	if keep < 0 {
		return 0, spewder.Errorf(spewder.EINVALID, "keep must not be negative")
	}
	result, err := s.db.ExecContext(ctx, `
		DELETE FROM crawls
		WHERE seed = ? AND id NOT IN (
			SELECT id FROM crawls WHERE seed = ? ORDER BY started_at DESC LIMIT ?
		)
	`, seed, seed, keep)
	if err != nil {
		return 0, err
	}
	n, err := result.RowsAffected()
	return int(n), err
}

package sqlite

import (
	"fmt"
	"strings"
	"time"

	"github.com/cespare/xxhash/v2"
	"github.com/fwojciec/spewder"
)

// timeFormat is fixed width so stored timestamps sort lexically.
const timeFormat = "2006-01-02T15:04:05.000000000Z07:00"

// parseTime parses a stored timestamp.
func parseTime(value, fieldName string) (time.Time, error) {
	t, err := time.Parse(timeFormat, value)
	if err != nil {
		return time.Time{}, fmt.Errorf("failed to parse %s: %w", fieldName, err)
	}
	return t, nil
}

// appendPagination appends LIMIT and OFFSET clauses to a query builder if values are > 0.
func appendPagination(query *strings.Builder, args *[]any, limit, offset int) {
	if limit > 0 {
		query.WriteString(" LIMIT ?")
		*args = append(*args, limit)
	} else if offset > 0 {
		query.WriteString(" LIMIT -1")
	}
	if offset > 0 {
		query.WriteString(" OFFSET ?")
		*args = append(*args, offset)
	}
}

// contentHash returns the xxhash of content as hex, or "" for no content.
func contentHash(content string) string {
	if content == "" {
		return ""
	}
	return fmt.Sprintf("%016x", xxhash.Sum64String(content))
}

func parseStatus(s string) (spewder.Status, error) {
	for _, st := range []spewder.Status{spewder.StatusSuccess, spewder.StatusTransientFailure, spewder.StatusPermanentFailure} {
		if st.String() == s {
			return st, nil
		}
	}
	return 0, fmt.Errorf("unknown status %q", s)
}

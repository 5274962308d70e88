package spewder

import (
	"errors"
	"fmt"
	"sort"
	"time"
)

// CrawlTask is a unit of work held by the frontier. URL is the normalized
// key used for deduplication; RawURL is the string as it was discovered.
type CrawlTask struct {
	URL    string
	RawURL string
	Depth  int

	// Seq is the discovery sequence number assigned when the task was
	// admitted. Together with Depth it gives a stable ordering.
	Seq uint64
}

// Status classifies the result of fetching a page.
type Status int

// Fetch statuses.
const (
	StatusSuccess Status = iota
	StatusTransientFailure
	StatusPermanentFailure
)

func (s Status) String() string {
	switch s {
	case StatusSuccess:
		return "success"
	case StatusTransientFailure:
		return "transient"
	case StatusPermanentFailure:
		return "permanent"
	default:
		return fmt.Sprintf("Status(%d)", int(s))
	}
}

// FetchOutcome is the single record produced for each dispatched task.
type FetchOutcome struct {
	URL    string
	RawURL string
	Depth  int
	Seq    uint64

	Status     Status
	StatusCode int // last HTTP status seen, 0 if none

	Title   string
	Content string // cleaned text, empty on failure

	Err       error
	Attempts  int
	Timestamp time.Time
}

// Succeeded reports whether the page was fetched successfully.
func (o *FetchOutcome) Succeeded() bool {
	return o.Status == StatusSuccess
}

// Exhausted reports whether the page failed transiently on every attempt.
func (o *FetchOutcome) Exhausted() bool {
	var ae *AttemptsError
	return o.Status == StatusTransientFailure && errors.As(o.Err, &ae)
}

// ErrorString returns the outcome error text, or "" on success.
func (o *FetchOutcome) ErrorString() string {
	if o.Err == nil {
		return ""
	}
	return o.Err.Error()
}

// CrawlResult holds one outcome per dispatched task, in completion order.
type CrawlResult struct {
	Seed     string
	Outcomes []*FetchOutcome
	Started  time.Time
	Finished time.Time
}

// Succeeded returns the number of successful outcomes.
func (r *CrawlResult) Succeeded() int {
	n := 0
	for _, o := range r.Outcomes {
		if o.Succeeded() {
			n++
		}
	}
	return n
}

// Failed returns the number of failed outcomes.
func (r *CrawlResult) Failed() int {
	return len(r.Outcomes) - r.Succeeded()
}

// Summary returns a one-line human readable summary of the crawl.
func (r *CrawlResult) Summary() string {
	return fmt.Sprintf("%d of %d pages succeeded", r.Succeeded(), len(r.Outcomes))
}

// Sorted returns a copy of the outcomes ordered by depth, then discovery
// sequence. Use it when output must not depend on worker scheduling.
func (r *CrawlResult) Sorted() []*FetchOutcome {
	out := make([]*FetchOutcome, len(r.Outcomes))
	copy(out, r.Outcomes)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Depth != out[j].Depth {
			return out[i].Depth < out[j].Depth
		}
		return out[i].Seq < out[j].Seq
	})
	return out
}

// Pages returns the successful outcomes in stable order.
func (r *CrawlResult) Pages() []*FetchOutcome {
	var pages []*FetchOutcome
	for _, o := range r.Sorted() {
		if o.Succeeded() {
			pages = append(pages, o)
		}
	}
	return pages
}

// Progress reports a completed page during a crawl.
type Progress struct {
	Outcome   *FetchOutcome
	Completed int
	Pending   int
}

// ProgressFunc is called each time a page completes.
type ProgressFunc func(Progress)

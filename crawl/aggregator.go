package crawl

import (
	"sync"

	"github.com/fwojciec/spewder"
)

// Aggregator collects outcomes from concurrent workers. Outcomes are kept
// in the order they were recorded.
type Aggregator struct {
	mu        sync.Mutex
	outcomes  []*spewder.FetchOutcome
	finalized bool
}

// NewAggregator returns an empty Aggregator.
func NewAggregator() *Aggregator {
	return &Aggregator{}
}

// Record appends o and returns the number of outcomes recorded so far.
// It is safe to call from multiple goroutines.
func (a *Aggregator) Record(o *spewder.FetchOutcome) int {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.finalized {
		panic("crawl: Aggregator.Record called after Finalize")
	}
	a.outcomes = append(a.outcomes, o)
	return len(a.outcomes)
}

// Finalize returns the recorded outcomes. It must be called once, after
// every worker has stopped.
func (a *Aggregator) Finalize() *spewder.CrawlResult {
	a.mu.Lock()
	defer a.mu.Unlock()

	a.finalized = true
	return &spewder.CrawlResult{Outcomes: a.outcomes}
}

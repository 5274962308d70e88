package crawl

import (
	"container/heap"
	"context"
	"errors"
	"sync"

	"github.com/fwojciec/spewder"
	"github.com/fwojciec/spewder/bloom"
)

// ErrFrontierClosed is returned by Dequeue once no task is pending and no
// task is in flight, so no further work can appear.
var ErrFrontierClosed = errors.New("frontier closed")

// Bloom filter sizing for the visited set.
const (
	defaultExpectedURLs = 10000
	defaultFPRate       = 0.001
)

// Frontier holds the tasks waiting to be fetched and the set of keys that
// have ever been admitted. It is safe for concurrent use by multiple
// goroutines.
//
// Pending tasks are dispatched in (depth, sequence) order. The frontier
// closes exactly when the queue is empty and no dispatched task is still in
// flight.
type Frontier struct {
	mu   sync.Mutex
	cond *sync.Cond

	maxDepth int
	maxPages int

	// The bloom filter answers "definitely new" without touching the map.
	seen    *bloom.Filter
	visited map[string]struct{}
	pending map[string]*taskItem
	queue   taskHeap

	seq      uint64
	inflight int
	closed   bool
}

// FrontierOption configures a Frontier.
type FrontierOption func(*Frontier)

// WithMaxPages caps the number of tasks the frontier admits over its
// lifetime. Zero means no cap.
func WithMaxPages(n int) FrontierOption {
	return func(f *Frontier) {
		f.maxPages = n
	}
}

// WithExpectedURLs sizes the visited-set bloom filter.
func WithExpectedURLs(n uint) FrontierOption {
	return func(f *Frontier) {
		f.seen = bloom.NewFilter(n, defaultFPRate)
	}
}

// NewFrontier creates an empty Frontier admitting tasks up to maxDepth.
func NewFrontier(maxDepth int, opts ...FrontierOption) *Frontier {
	f := &Frontier{
		maxDepth: maxDepth,
		visited:  make(map[string]struct{}),
		pending:  make(map[string]*taskItem),
	}
	f.cond = sync.NewCond(&f.mu)
	for _, opt := range opts {
		opt(f)
	}
	if f.seen == nil {
		f.seen = bloom.NewFilter(defaultExpectedURLs, defaultFPRate)
	}
	heap.Init(&f.queue)
	return f
}

// TryEnqueue admits a task for key at depth. It returns true iff the depth
// is within bounds and key has never been admitted before; the visited-set
// insert and the enqueue happen atomically.
//
// If key is still waiting in the queue at a greater depth, the queued task
// is moved up to depth and TryEnqueue returns false.
func (f *Frontier) TryEnqueue(key, rawURL string, depth int) bool {
	if depth < 0 || depth > f.maxDepth {
		return false
	}

	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return false
	}

	if f.seen.Test(key) {
		if _, ok := f.visited[key]; ok {
			if item, ok := f.pending[key]; ok && depth < item.task.Depth {
				item.task.Depth = depth
				heap.Fix(&f.queue, item.index)
			}
			return false
		}
	}

	if f.maxPages > 0 && len(f.visited) >= f.maxPages {
		return false
	}

	f.seen.Add(key)
	f.visited[key] = struct{}{}

	item := &taskItem{task: spewder.CrawlTask{
		URL:    key,
		RawURL: rawURL,
		Depth:  depth,
		Seq:    f.seq,
	}}
	f.seq++
	heap.Push(&f.queue, item)
	f.pending[key] = item

	f.cond.Signal()
	return true
}

// Dequeue blocks until a task is available and marks it in flight. It
// returns ErrFrontierClosed when the frontier has closed, or the context
// error if ctx is done first.
func (f *Frontier) Dequeue(ctx context.Context) (spewder.CrawlTask, error) {
	stop := context.AfterFunc(ctx, func() {
		f.mu.Lock()
		defer f.mu.Unlock()
		f.cond.Broadcast()
	})
	defer stop()

	f.mu.Lock()
	defer f.mu.Unlock()

	for {
		if err := ctx.Err(); err != nil {
			return spewder.CrawlTask{}, err
		}
		if f.closed {
			return spewder.CrawlTask{}, ErrFrontierClosed
		}
		if f.queue.Len() > 0 {
			item, _ := heap.Pop(&f.queue).(*taskItem)
			delete(f.pending, item.task.URL)
			f.inflight++
			return item.task, nil
		}
		if f.inflight == 0 {
			f.closeLocked()
			return spewder.CrawlTask{}, ErrFrontierClosed
		}
		f.cond.Wait()
	}
}

// Done reports that a dequeued task has finished. Every Dequeue must be
// matched by exactly one Done.
func (f *Frontier) Done() {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.inflight <= 0 {
		panic("crawl: Frontier.Done called without a matching Dequeue")
	}
	f.inflight--
	if f.inflight == 0 && f.queue.Len() == 0 {
		f.closeLocked()
	}
}

// Close closes the frontier immediately, dropping pending tasks. Tasks
// already in flight may still call Done.
func (f *Frontier) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closeLocked()
}

func (f *Frontier) closeLocked() {
	f.closed = true
	f.cond.Broadcast()
}

// Closed reports whether the frontier has closed.
func (f *Frontier) Closed() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.closed
}

// Len returns the number of pending tasks.
func (f *Frontier) Len() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.queue.Len()
}

// InFlight returns the number of dispatched tasks not yet marked Done.
func (f *Frontier) InFlight() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.inflight
}

// Seen reports whether key has ever been admitted.
func (f *Frontier) Seen(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.visited[key]
	return ok
}

// Visited returns the number of keys ever admitted.
func (f *Frontier) Visited() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.visited)
}

type taskItem struct {
	task  spewder.CrawlTask
	index int
}

// taskHeap implements heap.Interface ordered by depth, then sequence.
type taskHeap []*taskItem

func (h taskHeap) Len() int { return len(h) }

func (h taskHeap) Less(i, j int) bool {
	if h[i].task.Depth != h[j].task.Depth {
		return h[i].task.Depth < h[j].task.Depth
	}
	return h[i].task.Seq < h[j].task.Seq
}

func (h taskHeap) Swap(i, j int) {
	h[i], h[j] = h[j], h[i]
	h[i].index = i
	h[j].index = j
}

func (h *taskHeap) Push(x any) {
	item, _ := x.(*taskItem)
	item.index = len(*h)
	*h = append(*h, item)
}

func (h *taskHeap) Pop() any {
	old := *h
	n := len(old)
	item := old[n-1]
	old[n-1] = nil
	*h = old[0 : n-1]
	return item
}

package crawl_test

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/fwojciec/spewder"
	"github.com/fwojciec/spewder/crawl"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFrontier_TryEnqueue_rejects_duplicate_keys(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(3)

	assert.True(t, f.TryEnqueue("https://a.test/x", "https://a.test/x", 1))
	assert.False(t, f.TryEnqueue("https://a.test/x", "https://a.test/x/", 1))
	assert.False(t, f.TryEnqueue("https://a.test/x", "https://a.test/x#top", 2))
	assert.Equal(t, 1, f.Len())
	assert.Equal(t, 1, f.Visited())
	assert.True(t, f.Seen("https://a.test/x"))
	assert.False(t, f.Seen("https://a.test/y"))
}

func TestFrontier_TryEnqueue_enforces_depth_bound(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(2)

	assert.True(t, f.TryEnqueue("https://a.test", "https://a.test", 0))
	assert.True(t, f.TryEnqueue("https://a.test/two", "https://a.test/two", 2))
	assert.False(t, f.TryEnqueue("https://a.test/three", "https://a.test/three", 3))
	assert.False(t, f.TryEnqueue("https://a.test/neg", "https://a.test/neg", -1))

	// A rejected key is not marked visited.
	assert.False(t, f.Seen("https://a.test/three"))
}

func TestFrontier_Dequeue_orders_by_depth_then_sequence(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(5)
	f.TryEnqueue("d2-a", "d2-a", 2)
	f.TryEnqueue("d1-a", "d1-a", 1)
	f.TryEnqueue("d2-b", "d2-b", 2)
	f.TryEnqueue("d0", "d0", 0)
	f.TryEnqueue("d1-b", "d1-b", 1)

	var got []string
	for range 5 {
		task, err := f.Dequeue(context.Background())
		require.NoError(t, err)
		got = append(got, task.URL)
	}

	assert.Equal(t, []string{"d0", "d1-a", "d1-b", "d2-a", "d2-b"}, got)
}

func TestFrontier_TryEnqueue_assigns_increasing_sequence_numbers(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(5)
	f.TryEnqueue("a", "raw-a", 1)
	f.TryEnqueue("b", "raw-b", 1)

	first, err := f.Dequeue(context.Background())
	require.NoError(t, err)
	second, err := f.Dequeue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, spewder.CrawlTask{URL: "a", RawURL: "raw-a", Depth: 1, Seq: 0}, first)
	assert.Equal(t, spewder.CrawlTask{URL: "b", RawURL: "raw-b", Depth: 1, Seq: 1}, second)
}

func TestFrontier_TryEnqueue_promotes_pending_key_to_lower_depth(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(5)
	f.TryEnqueue("shallow", "shallow", 1)
	f.TryEnqueue("page", "page", 3)

	assert.False(t, f.TryEnqueue("page", "page", 2), "promotion is not a new admission")
	assert.False(t, f.TryEnqueue("page", "page", 4), "a deeper rediscovery changes nothing")

	_, err := f.Dequeue(context.Background())
	require.NoError(t, err)
	task, err := f.Dequeue(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "page", task.URL)
	assert.Equal(t, 2, task.Depth)
}

func TestFrontier_TryEnqueue_admits_each_key_once_under_concurrency(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(3)

	var admitted atomic.Int64
	var wg sync.WaitGroup
	for range 50 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := range 100 {
				key := fmt.Sprintf("https://a.test/page/%d", i)
				if f.TryEnqueue(key, key, 1) {
					admitted.Add(1)
				}
			}
		}()
	}
	wg.Wait()

	assert.Equal(t, int64(100), admitted.Load())
	assert.Equal(t, 100, f.Len())
}

func TestFrontier_WithMaxPages_caps_admissions(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(3, crawl.WithMaxPages(2))

	assert.True(t, f.TryEnqueue("a", "a", 0))
	assert.True(t, f.TryEnqueue("b", "b", 1))
	assert.False(t, f.TryEnqueue("c", "c", 1))
	assert.False(t, f.Seen("c"))
}

func TestFrontier_Dequeue_closes_when_queue_empty_and_nothing_in_flight(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(3)
	f.TryEnqueue("seed", "seed", 0)

	task, err := f.Dequeue(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "seed", task.URL)
	assert.Equal(t, 1, f.InFlight())

	errCh := make(chan error, 1)
	go func() {
		_, err := f.Dequeue(context.Background())
		errCh <- err
	}()

	// The second dequeue must wait while the seed is in flight.
	select {
	case err := <-errCh:
		t.Fatalf("Dequeue returned early: %v", err)
	case <-time.After(50 * time.Millisecond):
	}

	f.Done()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, crawl.ErrFrontierClosed)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not return after the frontier closed")
	}
	assert.True(t, f.Closed())
	assert.Equal(t, 0, f.InFlight())
}

func TestFrontier_Dequeue_receives_work_discovered_by_in_flight_task(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(3)
	f.TryEnqueue("seed", "seed", 0)
	_, err := f.Dequeue(context.Background())
	require.NoError(t, err)

	taskCh := make(chan spewder.CrawlTask, 1)
	go func() {
		task, err := f.Dequeue(context.Background())
		if err == nil {
			taskCh <- task
		}
	}()

	time.Sleep(20 * time.Millisecond)
	require.True(t, f.TryEnqueue("child", "child", 1))
	f.Done()

	select {
	case task := <-taskCh:
		assert.Equal(t, "child", task.URL)
		assert.False(t, f.Closed())
	case <-time.After(time.Second):
		t.Fatal("waiting Dequeue did not receive the new task")
	}
}

func TestFrontier_Dequeue_on_empty_frontier_closes_immediately(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(3)

	_, err := f.Dequeue(context.Background())

	assert.ErrorIs(t, err, crawl.ErrFrontierClosed)
	assert.False(t, f.TryEnqueue("late", "late", 0), "closed frontier admits nothing")
}

func TestFrontier_Dequeue_returns_context_error(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(3)
	f.TryEnqueue("seed", "seed", 0)
	_, err := f.Dequeue(context.Background())
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() {
		_, err := f.Dequeue(ctx)
		errCh <- err
	}()

	time.Sleep(20 * time.Millisecond)
	cancel()

	select {
	case err := <-errCh:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("Dequeue did not observe cancellation")
	}
}

func TestFrontier_Close_drops_pending_tasks(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(3)
	f.TryEnqueue("a", "a", 0)
	f.TryEnqueue("b", "b", 1)

	f.Close()

	_, err := f.Dequeue(context.Background())
	assert.ErrorIs(t, err, crawl.ErrFrontierClosed)
}

func TestFrontier_Done_without_Dequeue_panics(t *testing.T) {
	t.Parallel()

	f := crawl.NewFrontier(3)

	assert.Panics(t, f.Done)
}

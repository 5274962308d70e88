package rod

import (
	"fmt"
	"sync"

	"github.com/fwojciec/spewder"
	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
)

// DefaultMaxPages is the default number of tabs a browser opens before it
// is restarted.
const DefaultMaxPages = 75

// BrowserManager hands out tabs of one shared headless browser to
// concurrent workers. After maxPages tabs the browser is restarted; a
// restart waits until every open tab has been released, so no worker loses
// its page mid-load.
//
// BrowserManager is safe for concurrent use.
type BrowserManager struct {
	mu       sync.Mutex
	drained  *sync.Cond
	browser  *rod.Browser
	launcher *launcher.Launcher
	served   int64
	open     int
	maxPages int64
	closed   bool
}

// ManagerOption configures a BrowserManager.
type ManagerOption func(*BrowserManager)

// WithMaxPages sets the number of tabs after which the browser is
// restarted. Zero disables restarts.
func WithMaxPages(n int64) ManagerOption {
	return func(bm *BrowserManager) {
		bm.maxPages = n
	}
}

// NewBrowserManager launches a headless browser. Close must be called when
// the BrowserManager is no longer needed.
func NewBrowserManager(opts ...ManagerOption) (*BrowserManager, error) {
	bm := &BrowserManager{maxPages: DefaultMaxPages}
	bm.drained = sync.NewCond(&bm.mu)
	for _, opt := range opts {
		opt(bm)
	}

	b, l, err := launch()
	if err != nil {
		return nil, err
	}
	bm.browser, bm.launcher = b, l
	return bm, nil
}

// OpenPage opens a blank tab. The returned release function closes the tab
// and must be called exactly once.
func (bm *BrowserManager) OpenPage() (*rod.Page, func(), error) {
	bm.mu.Lock()
	for !bm.closed && bm.exhausted() && bm.open > 0 {
		bm.drained.Wait()
	}
	if bm.closed {
		bm.mu.Unlock()
		return nil, nil, spewder.Errorf(spewder.EINVALID, "browser is closed")
	}
	if bm.exhausted() {
		bm.restart()
	}
	browser := bm.browser
	bm.served++
	bm.open++
	bm.mu.Unlock()

	page, err := browser.Page(proto.TargetCreateTarget{})
	if err != nil {
		bm.release()
		return nil, nil, fmt.Errorf("opening tab: %w", err)
	}

	var once sync.Once
	return page, func() {
		once.Do(func() {
			_ = page.Close()
			bm.release()
		})
	}, nil
}

func (bm *BrowserManager) release() {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	bm.open--
	if bm.open == 0 {
		bm.drained.Broadcast()
	}
}

// exhausted reports whether the current browser has served its quota.
// Must be called with mu held.
func (bm *BrowserManager) exhausted() bool {
	return bm.maxPages > 0 && bm.served >= bm.maxPages
}

// restart replaces the browser with a fresh one. If the launch fails the
// old browser keeps serving and the count is reset so the next attempt
// happens after another maxPages tabs. Must be called with mu held and no
// tabs open.
func (bm *BrowserManager) restart() {
	bm.served = 0
	b, l, err := launch()
	if err != nil {
		return
	}
	_ = bm.shutdown()
	bm.browser, bm.launcher = b, l
}

// Close releases browser resources. Tabs still open are closed with the
// browser. Close is safe to call multiple times.
func (bm *BrowserManager) Close() error {
	bm.mu.Lock()
	defer bm.mu.Unlock()

	if bm.closed {
		return nil
	}
	bm.closed = true
	bm.drained.Broadcast()
	return bm.shutdown()
}

// shutdown stops the current browser and launcher. Must be called with mu
// held.
func (bm *BrowserManager) shutdown() error {
	var err error
	if bm.browser != nil {
		err = bm.browser.Close()
		bm.browser = nil
	}
	if bm.launcher != nil {
		bm.launcher.Kill()
		bm.launcher = nil
	}
	return err
}

// LauncherPID returns the process ID of the browser launcher, or 0 after
// Close.
func (bm *BrowserManager) LauncherPID() int {
	bm.mu.Lock()
	defer bm.mu.Unlock()
	if bm.launcher == nil {
		return 0
	}
	return bm.launcher.PID()
}

func launch() (*rod.Browser, *launcher.Launcher, error) {
	l := launcher.New().
		Set("disable-background-timer-throttling").
		Set("disable-backgrounding-occluded-windows").
		Set("disable-renderer-backgrounding").
		Set("disable-dev-shm-usage").
		Set("disable-hang-monitor").
		Leakless(true).
		Headless(true)

	u, err := l.Launch()
	if err != nil {
		return nil, nil, fmt.Errorf("launching browser: %w", err)
	}

	b := rod.New().ControlURL(u)
	if err := b.Connect(); err != nil {
		l.Kill()
		return nil, nil, fmt.Errorf("connecting to browser: %w", err)
	}
	return b, l, nil
}

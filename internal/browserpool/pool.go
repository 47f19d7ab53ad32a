package browserpool

import (
	"context"
	"fmt"
	"slices"
	"sync"
	"time"

	"github.com/user/seo-audit-service/internal/repository"
	"github.com/user/seo-audit-service/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Options configures the pool.
type Options struct {
	MaxBrowsers       int
	MaxTabsPerBrowser int
	NavigationTimeout time.Duration
}

// Stats is a point-in-time view of the pool.
type Stats struct {
	TotalBrowsers  int `json:"total_browsers"`
	ActiveBrowsers int `json:"active_browsers"`
	MaxBrowsers    int `json:"max_browsers"`
}

// launchCall is a browser start in progress. Its slot counts toward
// MaxBrowsers until it finishes.
type launchCall struct {
	done chan struct{}
	err  error
}

type entry struct {
	id      int
	browser Browser
	alive   bool
}

// isAlive must be called with the pool lock held.
func (e *entry) isAlive() bool {
	if !e.alive {
		return false
	}
	select {
	case <-e.browser.Disconnected():
		return false
	default:
		return true
	}
}

// Pool owns a bounded set of browser processes and lends tabs from them
// in round-robin order.
type Pool struct {
	launcher Launcher
	opts     Options
	desktop  Profile
	mobile   Profile
	logger   *zap.Logger

	mu        sync.Mutex
	entries   []*entry
	launching []*launchCall
	next      int
	nextID    int
	closed    bool
	done      chan struct{}
}

// New creates an empty pool. The first browser is launched on first use.
func New(launcher Launcher, opts Options, logger *zap.Logger) *Pool {
	if opts.MaxBrowsers <= 0 {
		opts.MaxBrowsers = 3
	}
	if opts.MaxTabsPerBrowser <= 0 {
		opts.MaxTabsPerBrowser = 5
	}
	if opts.NavigationTimeout <= 0 {
		opts.NavigationTimeout = 30 * time.Second
	}
	return &Pool{
		launcher: launcher,
		opts:     opts,
		desktop:  DesktopProfile(opts.NavigationTimeout),
		mobile:   MobileProfile(opts.NavigationTimeout),
		logger:   logger,
		done:     make(chan struct{}),
	}
}

// AcquireTab returns a desktop tab with heavy resources blocked, and the
// browser it belongs to. The caller must close the tab.
func (p *Pool) AcquireTab(ctx context.Context) (Tab, Browser, error) {
	return p.acquire(ctx, p.desktop)
}

// AcquireMobileTab returns a tab emulating a touch phone without resource blocking.
func (p *Pool) AcquireMobileTab(ctx context.Context) (Tab, Browser, error) {
	return p.acquire(ctx, p.mobile)
}

func (p *Pool) acquire(ctx context.Context, profile Profile) (Tab, Browser, error) {
	e, err := p.nextEntry(ctx)
	if err != nil {
		return nil, nil, err
	}

	p.trimTabs(e)

	tab, err := e.browser.NewTab(ctx, profile)
	if err != nil {
		p.markDead(e)
		return nil, nil, fmt.Errorf("open %s tab: %w", profile.Name, err)
	}
	return tab, e.browser, nil
}

// nextEntry prunes dead entries, self-heals an empty pool and advances the
// round-robin index. Chrome starts outside the lock; callers that find the
// pool empty wait for the launch already in flight instead of starting
// another.
func (p *Pool) nextEntry(ctx context.Context) (*entry, error) {
	for {
		p.mu.Lock()
		if p.closed {
			p.mu.Unlock()
			return nil, repository.ErrPoolClosed
		}

		p.pruneLocked()
		if len(p.entries) > 0 {
			if p.next >= len(p.entries) {
				p.next = 0
			}
			e := p.entries[p.next]
			p.next = (p.next + 1) % len(p.entries)
			p.mu.Unlock()
			return e, nil
		}

		if len(p.launching) > 0 {
			call := p.launching[0]
			p.mu.Unlock()
			select {
			case <-call.done:
			case <-ctx.Done():
				return nil, ctx.Err()
			}
			if call.err != nil {
				return nil, call.err
			}
			continue
		}

		call := p.reserveLocked()
		p.mu.Unlock()
		if err := p.launch(ctx, call); err != nil {
			return nil, err
		}
	}
}

// Expand launches one more browser if the pool is below its maximum.
// Launches already in flight count toward the maximum.
func (p *Pool) Expand(ctx context.Context) error {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return repository.ErrPoolClosed
	}
	p.pruneLocked()
	if len(p.entries)+len(p.launching) >= p.opts.MaxBrowsers {
		p.mu.Unlock()
		p.logger.Debug("browser pool at capacity, expand skipped", zap.Int("max_browsers", p.opts.MaxBrowsers))
		return nil
	}
	call := p.reserveLocked()
	p.mu.Unlock()
	return p.launch(ctx, call)
}

func (p *Pool) reserveLocked() *launchCall {
	call := &launchCall{done: make(chan struct{})}
	p.launching = append(p.launching, call)
	return call
}

// launch starts a browser for a reserved slot without holding the lock and
// adds it to the pool. A browser that finishes starting after Shutdown is
// closed right away.
func (p *Pool) launch(ctx context.Context, call *launchCall) error {
	defer close(call.done)

	start := time.Now()
	b, err := p.launcher.Launch(ctx)

	p.mu.Lock()
	p.launching = slices.DeleteFunc(p.launching, func(c *launchCall) bool { return c == call })
	if err != nil {
		p.mu.Unlock()
		call.err = fmt.Errorf("%w: %w", repository.ErrBrowserLaunch, err)
		return call.err
	}
	if p.closed {
		p.mu.Unlock()
		if cerr := b.Close(); cerr != nil {
			p.logger.Debug("browser close failed", zap.Error(cerr))
		}
		call.err = repository.ErrPoolClosed
		return call.err
	}

	p.nextID++
	e := &entry{id: p.nextID, browser: b, alive: true}
	p.entries = append(p.entries, e)
	size := len(p.entries)
	metrics.BrowserPoolSize.Set(float64(size))
	p.mu.Unlock()

	go p.watch(e)

	p.logger.Info("browser launched",
		zap.Int("browser_id", e.id),
		zap.Int("pool_size", size),
		zap.Duration("startup_time", time.Since(start)),
	)
	return nil
}

// watch removes the entry as soon as its process disconnects.
func (p *Pool) watch(e *entry) {
	select {
	case <-e.browser.Disconnected():
		p.remove(e)
	case <-p.done:
	}
}

// remove drops a disconnected entry and tears its process down. An entry
// already pruned was closed by pruneLocked and is left alone.
func (p *Pool) remove(e *entry) {
	p.mu.Lock()
	e.alive = false
	found := false
	for i, cur := range p.entries {
		if cur == e {
			p.entries = append(p.entries[:i], p.entries[i+1:]...)
			if p.next > i {
				p.next--
			}
			found = true
			break
		}
	}
	metrics.BrowserPoolSize.Set(float64(len(p.entries)))
	p.mu.Unlock()

	if found {
		p.logger.Warn("browser disconnected, removed from pool", zap.Int("browser_id", e.id))
		go p.closeBrowser(e)
	}
}

// markDead flags an entry after an observed failure. It is pruned on next acquire.
func (p *Pool) markDead(e *entry) {
	p.mu.Lock()
	defer p.mu.Unlock()
	e.alive = false
}

func (p *Pool) pruneLocked() {
	kept := p.entries[:0]
	for _, e := range p.entries {
		if e.isAlive() {
			kept = append(kept, e)
			continue
		}
		e.alive = false
		go p.closeBrowser(e)
	}
	for i := len(kept); i < len(p.entries); i++ {
		p.entries[i] = nil
	}
	if len(kept) != len(p.entries) {
		p.next = 0
	}
	p.entries = kept
	metrics.BrowserPoolSize.Set(float64(len(p.entries)))
}

// trimTabs closes the oldest tabs above the per-browser cap. Failures are logged.
func (p *Pool) trimTabs(e *entry) {
	tabs := e.browser.Tabs()
	excess := len(tabs) - p.opts.MaxTabsPerBrowser
	for i := 0; i < excess; i++ {
		if err := tabs[i].Close(); err != nil {
			p.logger.Warn("failed to close excess tab", zap.Int("browser_id", e.id), zap.Error(err))
		}
	}
}

func (p *Pool) closeBrowser(e *entry) {
	if err := e.browser.Close(); err != nil {
		p.logger.Debug("browser close failed", zap.Int("browser_id", e.id), zap.Error(err))
	}
}

// Shutdown closes every browser and empties the pool. Later acquires fail
// with ErrPoolClosed.
func (p *Pool) Shutdown() {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	entries := p.entries
	p.entries = nil
	p.next = 0
	close(p.done)
	p.mu.Unlock()

	metrics.BrowserPoolSize.Set(0)

	eg := new(errgroup.Group)
	eg.SetLimit(4)
	for _, e := range entries {
		eg.Go(func() error {
			if err := e.browser.Close(); err != nil {
				p.logger.Warn("failed to close browser", zap.Int("browser_id", e.id), zap.Error(err))
			}
			return nil
		})
	}
	_ = eg.Wait()

	p.logger.Info("browser pool shut down", zap.Int("browsers_closed", len(entries)))
}

// Stats counts live browsers and those with at least one open tab.
// Launches still in flight are not counted.
func (p *Pool) Stats() Stats {
	p.mu.Lock()
	defer p.mu.Unlock()

	s := Stats{MaxBrowsers: p.opts.MaxBrowsers}
	for _, e := range p.entries {
		if !e.isAlive() {
			continue
		}
		s.TotalBrowsers++
		if len(e.browser.Tabs()) > 0 {
			s.ActiveBrowsers++
		}
	}
	return s
}

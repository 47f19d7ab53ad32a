package chromedp_browser

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/chromedp/cdproto/emulation"
	"github.com/chromedp/cdproto/fetch"
	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"github.com/user/seo-audit-service/internal/browserpool"
	"github.com/user/seo-audit-service/internal/repository"
)

// Browser is a Chrome process driven over the DevTools protocol.
type Browser struct {
	ctx         context.Context
	cancel      context.CancelFunc
	allocCancel context.CancelFunc
	lost        <-chan struct{}
	userAgent   string

	mu        sync.Mutex
	tabs      []*Tab
	closeOnce sync.Once
	closeErr  error
}

// NewTab opens a target in this browser and applies the profile to it.
func (b *Browser) NewTab(ctx context.Context, profile browserpool.Profile) (browserpool.Tab, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	tabCtx, tabCancel := chromedp.NewContext(b.ctx)

	if len(profile.BlockResources) > 0 {
		chromedp.ListenTarget(tabCtx, func(ev any) {
			paused, ok := ev.(*fetch.EventRequestPaused)
			if !ok {
				return
			}
			// Event handlers must not block the target's event loop.
			go func() {
				_ = chromedp.Run(tabCtx, fetch.FailRequest(paused.RequestID, network.ErrorReasonBlockedByClient))
			}()
		})
	}

	userAgent := profile.UserAgent
	if !profile.Mobile && b.userAgent != "" {
		userAgent = b.userAgent
	}

	var viewportOpts []chromedp.EmulateViewportOption
	if profile.Mobile {
		viewportOpts = append(viewportOpts, chromedp.EmulateMobile)
	}
	if profile.Touch {
		viewportOpts = append(viewportOpts, chromedp.EmulateTouch)
	}

	actions := []chromedp.Action{
		emulation.SetUserAgentOverride(userAgent),
		chromedp.EmulateViewport(profile.Width, profile.Height, viewportOpts...),
	}
	if len(profile.BlockResources) > 0 {
		patterns := make([]*fetch.RequestPattern, 0, len(profile.BlockResources))
		for _, r := range profile.BlockResources {
			patterns = append(patterns, &fetch.RequestPattern{
				ResourceType: network.ResourceType(r),
				RequestStage: fetch.RequestStageRequest,
			})
		}
		actions = append(actions, fetch.Enable().WithPatterns(patterns))
	}

	if err := chromedp.Run(tabCtx, actions...); err != nil {
		tabCancel()
		return nil, fmt.Errorf("configure tab: %w", err)
	}

	t := &Tab{ctx: tabCtx, cancel: tabCancel, browser: b, timeout: profile.NavigationTimeout}
	b.mu.Lock()
	b.tabs = append(b.tabs, t)
	b.mu.Unlock()
	return t, nil
}

// Tabs returns the open tabs, oldest first.
func (b *Browser) Tabs() []browserpool.Tab {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]browserpool.Tab, len(b.tabs))
	for i, t := range b.tabs {
		out[i] = t
	}
	return out
}

func (b *Browser) Disconnected() <-chan struct{} {
	return b.lost
}

// Close terminates the process. Safe to call more than once.
func (b *Browser) Close() error {
	b.closeOnce.Do(func() {
		b.closeErr = chromedp.Cancel(b.ctx)
		if errors.Is(b.closeErr, context.Canceled) {
			b.closeErr = nil
		}
		b.cancel()
		b.allocCancel()
	})
	return b.closeErr
}

func (b *Browser) forget(t *Tab) {
	b.mu.Lock()
	defer b.mu.Unlock()
	for i, cur := range b.tabs {
		if cur == t {
			b.tabs = append(b.tabs[:i], b.tabs[i+1:]...)
			return
		}
	}
}

// Tab is one browser target.
type Tab struct {
	ctx     context.Context
	cancel  context.CancelFunc
	browser *Browser
	timeout time.Duration

	closeOnce sync.Once
	closeErr  error
}

// Navigate loads url within the profile's navigation timeout and returns
// the main document status.
func (t *Tab) Navigate(ctx context.Context, url string) (int, error) {
	navCtx, cancel := t.bounded(ctx)
	defer cancel()

	resp, err := chromedp.RunResponse(navCtx, chromedp.Navigate(url))
	if err != nil {
		if errors.Is(navCtx.Err(), context.DeadlineExceeded) {
			return 0, fmt.Errorf("%w: %s", repository.ErrPageTimeout, url)
		}
		return 0, fmt.Errorf("%w: %s: %w", repository.ErrNavigationFailed, url, err)
	}
	if resp == nil {
		return 0, nil
	}
	return int(resp.Status), nil
}

// HTML returns the serialized document after scripts have run.
func (t *Tab) HTML(ctx context.Context) (string, error) {
	runCtx, cancel := t.bounded(ctx)
	defer cancel()

	var html string
	if err := chromedp.Run(runCtx, chromedp.OuterHTML("html", &html, chromedp.ByQuery)); err != nil {
		return "", fmt.Errorf("read html: %w", err)
	}
	return html, nil
}

func (t *Tab) Evaluate(ctx context.Context, js string, out any) error {
	runCtx, cancel := t.bounded(ctx)
	defer cancel()
	return chromedp.Run(runCtx, chromedp.Evaluate(js, out))
}

// Close closes the target. Safe to call more than once.
func (t *Tab) Close() error {
	t.closeOnce.Do(func() {
		t.closeErr = chromedp.Cancel(t.ctx)
		if errors.Is(t.closeErr, context.Canceled) {
			t.closeErr = nil
		}
		t.cancel()
		t.browser.forget(t)
	})
	return t.closeErr
}

// bounded derives a context from the tab that also ends when ctx ends
// or the navigation timeout elapses.
func (t *Tab) bounded(ctx context.Context) (context.Context, context.CancelFunc) {
	var (
		runCtx context.Context
		cancel context.CancelFunc
	)
	if t.timeout > 0 {
		runCtx, cancel = context.WithTimeout(t.ctx, t.timeout)
	} else {
		runCtx, cancel = context.WithCancel(t.ctx)
	}
	stop := context.AfterFunc(ctx, cancel)
	return runCtx, func() {
		stop()
		cancel()
	}
}

package chromedp_browser

import (
	"context"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"github.com/user/seo-audit-service/internal/browserpool"
	"go.uber.org/zap"
)

// LauncherOptions configures Chrome processes started by the Launcher.
type LauncherOptions struct {
	ChromePath string
	Headless   bool
	Rotator    *Rotator
}

// Launcher starts headless Chrome processes through a chromedp exec allocator.
type Launcher struct {
	opts   LauncherOptions
	logger *zap.Logger
}

// NewLauncher creates a Launcher.
func NewLauncher(opts LauncherOptions, logger *zap.Logger) *Launcher {
	return &Launcher{opts: opts, logger: logger}
}

// AllocatorOptions returns the exec allocator flags shared by pooled and
// disposable Chrome processes.
func AllocatorOptions(chromePath string, headless bool) []chromedp.ExecAllocatorOption {
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
		chromedp.Flag("disable-blink-features", "AutomationControlled"),
	)
	if chromePath != "" {
		opts = append(opts, chromedp.ExecPath(chromePath))
	}
	return opts
}

// Launch starts a browser process and waits until it accepts commands.
func (l *Launcher) Launch(ctx context.Context) (browserpool.Browser, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	opts := AllocatorOptions(l.opts.ChromePath, l.opts.Headless)
	userAgent := l.opts.Rotator.UserAgent()
	if userAgent != "" {
		opts = append(opts, chromedp.UserAgent(userAgent))
	}
	proxy := l.opts.Rotator.NextProxy()
	if proxy != "" {
		opts = append(opts, chromedp.ProxyServer(proxy))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)

	start := time.Now()
	// The first Run allocates the process. It must not carry a deadline,
	// otherwise the browser dies with it.
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("start chrome: %w", err)
	}

	c := chromedp.FromContext(browserCtx)
	b := &Browser{
		ctx:         browserCtx,
		cancel:      browserCancel,
		allocCancel: allocCancel,
		lost:        c.Browser.LostConnection,
		userAgent:   userAgent,
	}

	l.logger.Debug("chrome started",
		zap.Duration("startup_time", time.Since(start)),
		zap.Bool("proxied", proxy != ""),
	)
	return b, nil
}

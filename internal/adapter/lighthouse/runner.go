package lighthouse

import (
	"bytes"
	"context"
	"fmt"
	"net"
	"os/exec"
	"strconv"
	"strings"

	"github.com/chromedp/chromedp"
	"github.com/user/seo-audit-service/internal/adapter/chromedp_browser"
	"github.com/user/seo-audit-service/internal/performance"
	"github.com/user/seo-audit-service/internal/repository"
	"go.uber.org/zap"
)

// Runner runs the Lighthouse CLI against a Chrome process started for that
// single run. The process is torn down before Run returns.
type Runner struct {
	binary     string
	chromePath string
	logger     *zap.Logger
}

// NewRunner creates a Runner. binary defaults to "lighthouse" on PATH.
func NewRunner(binary, chromePath string, logger *zap.Logger) *Runner {
	if binary == "" {
		binary = "lighthouse"
	}
	return &Runner{binary: binary, chromePath: chromePath, logger: logger}
}

// Run launches Chrome on a free debugging port and audits url with it.
func (r *Runner) Run(ctx context.Context, url string, profile performance.Profile) ([]byte, error) {
	port, err := freePort()
	if err != nil {
		return nil, fmt.Errorf("%w: reserve debugging port: %w", repository.ErrLighthouse, err)
	}

	opts := append(chromedp_browser.AllocatorOptions(r.chromePath, true),
		chromedp.Flag("remote-debugging-port", strconv.Itoa(port)),
	)
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	defer allocCancel()
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	defer browserCancel()

	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("%w: start chrome: %w", repository.ErrLighthouse, err)
	}
	defer func() {
		if err := chromedp.Cancel(browserCtx); err != nil {
			r.logger.Debug("disposable chrome close failed", zap.Error(err))
		}
	}()

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, r.binary, Args(url, port, profile)...)
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%w: %s run: %w: %s", repository.ErrLighthouse, profile.Strategy, err, lastLine(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// Args builds the Lighthouse CLI arguments for one run.
func Args(url string, port int, p performance.Profile) []string {
	formFactor := "desktop"
	if p.Mobile {
		formFactor = "mobile"
	}
	return []string{
		url,
		"--port=" + strconv.Itoa(port),
		"--output=json",
		"--output-path=stdout",
		"--quiet",
		"--only-categories=" + strings.Join(performance.Categories, ","),
		"--form-factor=" + formFactor,
		"--screenEmulation.mobile=" + strconv.FormatBool(p.Mobile),
		"--screenEmulation.width=" + strconv.Itoa(p.ScreenWidth),
		"--screenEmulation.height=" + strconv.Itoa(p.ScreenHeight),
		"--screenEmulation.deviceScaleFactor=" + formatFloat(p.DeviceScaleFactor),
		"--throttling-method=simulate",
		"--throttling.rttMs=" + formatFloat(p.RTTMs),
		"--throttling.throughputKbps=" + formatFloat(p.ThroughputKbps),
		"--throttling.cpuSlowdownMultiplier=" + formatFloat(p.CPUSlowdown),
	}
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func freePort() (int, error) {
	l, err := net.Listen("tcp", "127.0.0.1:0")
	if err != nil {
		return 0, err
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}

func lastLine(s string) string {
	s = strings.TrimSpace(s)
	if i := strings.LastIndexByte(s, '\n'); i >= 0 {
		return s[i+1:]
	}
	return s
}

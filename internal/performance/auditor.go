package performance

import (
	"context"
	"fmt"
	"time"

	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/pkg/metrics"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
)

// Runner executes one Lighthouse run and returns the raw JSON report.
// Implementations own a disposable browser and must tear it down before returning.
type Runner interface {
	Run(ctx context.Context, url string, profile Profile) ([]byte, error)
}

// Result holds both runs. Either side may be nil with its error set.
type Result struct {
	Desktop    *entity.PerformanceResult
	Mobile     *entity.PerformanceResult
	DesktopErr error
	MobileErr  error
}

// Auditor runs desktop and mobile Lighthouse audits.
type Auditor struct {
	runner  Runner
	timeout time.Duration
	logger  *zap.Logger
}

// NewAuditor creates an Auditor. timeout bounds each run; zero means no bound.
func NewAuditor(runner Runner, timeout time.Duration, logger *zap.Logger) *Auditor {
	return &Auditor{runner: runner, timeout: timeout, logger: logger}
}

// RunBothAudits runs the desktop and mobile audits concurrently. A failure
// of one side never discards the other.
func (a *Auditor) RunBothAudits(ctx context.Context, url string) Result {
	var res Result
	var g errgroup.Group
	g.Go(func() error {
		res.Desktop, res.DesktopErr = a.RunAudit(ctx, url, DesktopProfile)
		return nil
	})
	g.Go(func() error {
		res.Mobile, res.MobileErr = a.RunAudit(ctx, url, MobileProfile)
		return nil
	})
	_ = g.Wait()
	return res
}

// RunAudit performs a single run and normalizes its report.
func (a *Auditor) RunAudit(ctx context.Context, url string, profile Profile) (*entity.PerformanceResult, error) {
	if a.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.timeout)
		defer cancel()
	}

	start := time.Now()
	strategy := string(profile.Strategy)

	raw, err := a.runner.Run(ctx, url, profile)
	if err != nil {
		metrics.LighthouseRunsTotal.WithLabelValues(strategy, "failed").Inc()
		a.logger.Warn("lighthouse run failed",
			zap.String("url", url),
			zap.String("strategy", strategy),
			zap.Error(err),
		)
		return nil, err
	}

	result, err := Normalize(raw, profile.Strategy)
	if err != nil {
		metrics.LighthouseRunsTotal.WithLabelValues(strategy, "invalid").Inc()
		return nil, fmt.Errorf("normalize %s report: %w", strategy, err)
	}

	metrics.LighthouseRunsTotal.WithLabelValues(strategy, "success").Inc()
	a.logger.Debug("lighthouse run finished",
		zap.String("url", url),
		zap.String("strategy", strategy),
		zap.Int("performance", result.Scores.Performance),
		zap.Duration("duration", time.Since(start)),
	)
	return result, nil
}

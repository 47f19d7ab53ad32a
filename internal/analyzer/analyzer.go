package analyzer

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/user/seo-audit-service/internal/browserpool"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/performance"
	"go.uber.org/zap"
)

// TabProvider lends configured browser tabs.
type TabProvider interface {
	AcquireTab(ctx context.Context) (browserpool.Tab, browserpool.Browser, error)
	AcquireMobileTab(ctx context.Context) (browserpool.Tab, browserpool.Browser, error)
}

// PerformanceAuditor runs Lighthouse for a URL.
type PerformanceAuditor interface {
	RunBothAudits(ctx context.Context, url string) performance.Result
}

// Check names used as keys of PageAnalysisResult.CheckErrors.
const (
	CheckSEO                = "seo"
	CheckAccessibility      = "accessibility"
	CheckLinks              = "links"
	CheckImages             = "images"
	CheckContent            = "content"
	CheckMobile             = "mobile"
	CheckPerformanceDesktop = "performance_desktop"
	CheckPerformanceMobile  = "performance_mobile"
)

// checks holds the per-page check functions. Tests swap them out.
type checks struct {
	seo           func(p *page) (entity.SEOData, error)
	accessibility func(p *page) ([]entity.AccessibilityIssue, error)
	links         func(ctx context.Context, p *page) ([]entity.BrokenLink, error)
	images        func(p *page) ([]entity.ImageIssue, error)
	content       func(p *page) (entity.ContentAnalysis, error)
}

// Analyzer runs the multi-check pipeline for one URL at a time.
type Analyzer struct {
	tabs   TabProvider
	perf   PerformanceAuditor
	checks checks
	logger *zap.Logger
	now    func() time.Time
}

// New creates an Analyzer. perf may be nil, in which case performance
// analysis is skipped even when requested.
func New(tabs TabProvider, links *LinkChecker, perf PerformanceAuditor, logger *zap.Logger) *Analyzer {
	if links == nil {
		links = NewLinkChecker(LinkCheckerOptions{}, logger)
	}
	return &Analyzer{
		tabs: tabs,
		perf: perf,
		checks: checks{
			seo:           extractSEO,
			accessibility: checkAccessibility,
			links:         links.Check,
			images:        checkImages,
			content:       checkContent,
		},
		logger: logger,
		now:    time.Now,
	}
}

// Analyze loads url in a pooled tab and runs extraction plus every check
// enabled in cfg. A failing check degrades to its empty result and is
// recorded in CheckErrors; only tab, navigation and HTML failures fail the page.
func (a *Analyzer) Analyze(ctx context.Context, pageURL string, cfg entity.AuditConfig) (*entity.PageAnalysisResult, error) {
	tab, _, err := a.tabs.AcquireTab(ctx)
	if err != nil {
		return nil, fmt.Errorf("acquire tab: %w", err)
	}
	release := a.releaser(tab, pageURL)
	defer release()

	start := time.Now()
	status, err := tab.Navigate(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	loadTime := time.Since(start)

	html, err := tab.HTML(ctx)
	if err != nil {
		return nil, fmt.Errorf("read rendered html: %w", err)
	}
	// Everything else works on the parsed copy.
	release()

	doc, err := goquery.NewDocumentFromReader(strings.NewReader(html))
	if err != nil {
		return nil, fmt.Errorf("parse html: %w", err)
	}
	p := newPage(pageURL, doc)

	result := &entity.PageAnalysisResult{
		URL:           pageURL,
		StatusCode:    status,
		LoadTimeMS:    loadTime.Milliseconds(),
		Accessibility: []entity.AccessibilityIssue{},
		BrokenLinks:   []entity.BrokenLink{},
		ImageIssues:   []entity.ImageIssue{},
		CheckErrors:   map[string]string{},
	}

	result.SEO = runCheck(a, result, CheckSEO, emptySEO(), func() (entity.SEOData, error) {
		return a.checks.seo(p)
	})
	if cfg.CheckAccessibility {
		result.Accessibility = runCheck(a, result, CheckAccessibility, []entity.AccessibilityIssue{}, func() ([]entity.AccessibilityIssue, error) {
			return a.checks.accessibility(p)
		})
	}
	if cfg.CheckLinks {
		result.BrokenLinks = runCheck(a, result, CheckLinks, []entity.BrokenLink{}, func() ([]entity.BrokenLink, error) {
			return a.checks.links(ctx, p)
		})
	}
	if cfg.CheckImages {
		result.ImageIssues = runCheck(a, result, CheckImages, []entity.ImageIssue{}, func() ([]entity.ImageIssue, error) {
			return a.checks.images(p)
		})
	}
	if cfg.CheckContent {
		result.Content = runCheck(a, result, CheckContent, entity.ContentAnalysis{}, func() (entity.ContentAnalysis, error) {
			return a.checks.content(p)
		})
	}
	if cfg.IncludeMobile {
		result.MobileCheck = runCheck(a, result, CheckMobile, (*entity.MobileAnalysis)(nil), func() (*entity.MobileAnalysis, error) {
			return a.checkMobile(ctx, pageURL)
		})
	}
	if cfg.AnalyzePerformance && a.perf != nil {
		perf := a.perf.RunBothAudits(ctx, pageURL)
		result.Desktop, result.Mobile = perf.Desktop, perf.Mobile
		if perf.DesktopErr != nil {
			a.recordCheckError(result, CheckPerformanceDesktop, perf.DesktopErr)
		}
		if perf.MobileErr != nil {
			a.recordCheckError(result, CheckPerformanceMobile, perf.MobileErr)
		}
	}

	if len(result.CheckErrors) == 0 {
		result.CheckErrors = nil
	}
	result.AnalyzedAt = a.now()
	return result, nil
}

// runCheck calls fn and substitutes def when it fails or panics.
func runCheck[T any](a *Analyzer, res *entity.PageAnalysisResult, name string, def T, fn func() (T, error)) (out T) {
	defer func() {
		if r := recover(); r != nil {
			a.recordCheckError(res, name, fmt.Errorf("panic: %v", r))
			out = def
		}
	}()
	v, err := fn()
	if err != nil {
		a.recordCheckError(res, name, err)
		return def
	}
	return v
}

func (a *Analyzer) recordCheckError(res *entity.PageAnalysisResult, name string, err error) {
	a.logger.Warn("check degraded",
		zap.String("url", res.URL),
		zap.String("check", name),
		zap.Error(err),
	)
	res.CheckErrors[name] = err.Error()
}

// releaser returns an idempotent close for tab. Close failures are logged.
func (a *Analyzer) releaser(tab browserpool.Tab, pageURL string) func() {
	var once sync.Once
	return func() {
		once.Do(func() {
			if err := tab.Close(); err != nil {
				a.logger.Debug("tab close failed", zap.String("url", pageURL), zap.Error(err))
			}
		})
	}
}

func emptySEO() entity.SEOData {
	return entity.SEOData{
		H1:          []string{},
		H2:          []string{},
		H3:          []string{},
		OpenGraph:   map[string]string{},
		TwitterCard: map[string]string{},
		Issues:      []entity.SEOIssue{},
	}
}

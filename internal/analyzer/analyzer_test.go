package analyzer

import (
	"context"
	"encoding/json"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/seo-audit-service/internal/browserpool"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/performance"
	"go.uber.org/zap"
)

const samplePage = `<!DOCTYPE html>
<html lang="en">
<head>
	<title>Handmade Ceramic Mugs and Bowls for Every Kitchen</title>
	<meta name="description" content="Shop handmade ceramic mugs and bowls.">
	<meta name="keywords" content="ceramics, mugs">
	<meta name="robots" content="index, follow">
	<meta property="og:title" content="Handmade Ceramics">
	<meta name="twitter:card" content="summary">
	<link rel="canonical" href="https://shop.example.com/">
	<link rel="alternate" hreflang="de" href="https://shop.example.com/de/">
	<link rel="alternate" hreflang="fr" href="https://shop.example.com/fr/">
	<script type="application/ld+json">{"@type":"Store"}</script>
</head>
<body>
	<h1>Ceramics</h1>
	<h2>Mugs</h2><h2>Bowls</h2>
	<h3>Care</h3>
	<p>Our mugs are thrown by hand. Every piece is unique!</p>
	<img src="/a.jpg" alt="A blue mug" width="100" height="100">
	<img src="/b.jpg">
	<a href="/about">About</a>
	<a href="https://www.shop.example.com/contact">Contact</a>
	<a href="https://partner.example.org/">Partner</a>
	<a href="mailto:hi@example.com">Mail</a>
	<script>var hidden = "not counted words here";</script>
</body>
</html>`

type fakeTab struct {
	html        string
	navErr      error
	htmlErr     error
	status      int
	probe       mobileProbe
	closes      atomic.Int32
	navigations atomic.Int32
}

func (t *fakeTab) Navigate(ctx context.Context, url string) (int, error) {
	t.navigations.Add(1)
	if t.navErr != nil {
		return 0, t.navErr
	}
	if t.status == 0 {
		return 200, nil
	}
	return t.status, nil
}

func (t *fakeTab) HTML(ctx context.Context) (string, error) {
	if t.htmlErr != nil {
		return "", t.htmlErr
	}
	return t.html, nil
}

func (t *fakeTab) Evaluate(ctx context.Context, js string, out any) error {
	b, err := json.Marshal(t.probe)
	if err != nil {
		return err
	}
	return json.Unmarshal(b, out)
}

func (t *fakeTab) Close() error {
	t.closes.Add(1)
	return errors.New("close errors are swallowed")
}

type fakeTabs struct {
	desktop *fakeTab
	mobile  *fakeTab
	err     error
}

func (f *fakeTabs) AcquireTab(ctx context.Context) (browserpool.Tab, browserpool.Browser, error) {
	if f.err != nil {
		return nil, nil, f.err
	}
	return f.desktop, nil, nil
}

func (f *fakeTabs) AcquireMobileTab(ctx context.Context) (browserpool.Tab, browserpool.Browser, error) {
	if f.mobile == nil {
		return nil, nil, errors.New("no mobile tab")
	}
	return f.mobile, nil, nil
}

type fakePerf struct {
	res performance.Result
}

func (f *fakePerf) RunBothAudits(ctx context.Context, url string) performance.Result { return f.res }

func allChecks() entity.AuditConfig {
	return entity.AuditConfig{
		CheckSEO:           true,
		CheckAccessibility: true,
		CheckLinks:         true,
		CheckImages:        true,
		CheckContent:       true,
		IncludeMobile:      true,
	}
}

func TestAnalyzeClosesTabOnceWhenEveryCheckFails(t *testing.T) {
	tab := &fakeTab{html: samplePage}
	a := New(&fakeTabs{desktop: tab}, nil, nil, zap.NewNop())
	boom := errors.New("boom")
	a.checks = checks{
		seo:           func(*page) (entity.SEOData, error) { return entity.SEOData{}, boom },
		accessibility: func(*page) ([]entity.AccessibilityIssue, error) { panic("accessibility exploded") },
		links:         func(context.Context, *page) ([]entity.BrokenLink, error) { return nil, boom },
		images:        func(*page) ([]entity.ImageIssue, error) { return nil, boom },
		content:       func(*page) (entity.ContentAnalysis, error) { return entity.ContentAnalysis{}, boom },
	}

	res, err := a.Analyze(context.Background(), "https://shop.example.com/", allChecks())
	require.NoError(t, err)
	assert.Equal(t, int32(1), tab.closes.Load())

	assert.Equal(t, "https://shop.example.com/", res.URL)
	assert.Equal(t, 200, res.StatusCode)
	assert.Empty(t, res.SEO.Issues)
	assert.Empty(t, res.Accessibility)
	assert.Empty(t, res.BrokenLinks)
	assert.Empty(t, res.ImageIssues)
	assert.Nil(t, res.MobileCheck)
	for _, name := range []string{CheckSEO, CheckAccessibility, CheckLinks, CheckImages, CheckContent, CheckMobile} {
		assert.Contains(t, res.CheckErrors, name)
	}
	assert.Contains(t, res.CheckErrors[CheckAccessibility], "panic")
}

func TestAnalyzeClosesTabOnceOnNavigationAndHTMLFailures(t *testing.T) {
	navFail := &fakeTab{navErr: errors.New("net::ERR_NAME_NOT_RESOLVED")}
	a := New(&fakeTabs{desktop: navFail}, nil, nil, zap.NewNop())
	_, err := a.Analyze(context.Background(), "https://nope.invalid/", allChecks())
	require.Error(t, err)
	assert.Equal(t, int32(1), navFail.closes.Load())

	htmlFail := &fakeTab{htmlErr: errors.New("target closed")}
	a = New(&fakeTabs{desktop: htmlFail}, nil, nil, zap.NewNop())
	_, err = a.Analyze(context.Background(), "https://example.com/", allChecks())
	require.Error(t, err)
	assert.Equal(t, int32(1), htmlFail.closes.Load())
}

func TestAnalyzeAcquireFailure(t *testing.T) {
	a := New(&fakeTabs{err: errors.New("pool closed")}, nil, nil, zap.NewNop())
	_, err := a.Analyze(context.Background(), "https://example.com/", allChecks())
	assert.ErrorContains(t, err, "acquire tab")
}

func TestAnalyzeRunsOnlyEnabledChecks(t *testing.T) {
	tab := &fakeTab{html: samplePage}
	a := New(&fakeTabs{desktop: tab}, nil, nil, zap.NewNop())

	res, err := a.Analyze(context.Background(), "https://shop.example.com/", entity.AuditConfig{CheckSEO: true})
	require.NoError(t, err)

	assert.Equal(t, "Handmade Ceramic Mugs and Bowls for Every Kitchen", res.SEO.Title)
	assert.Empty(t, res.Accessibility)
	assert.Empty(t, res.ImageIssues)
	assert.Zero(t, res.Content.WordCount)
	assert.Nil(t, res.MobileCheck)
	assert.Nil(t, res.CheckErrors)
	assert.False(t, res.AnalyzedAt.IsZero())
}

func TestAnalyzeMobileAndPerformance(t *testing.T) {
	desktop := &fakeTab{html: samplePage}
	mobile := &fakeTab{probe: mobileProbe{HasViewport: true, Viewport: "width=device-width, initial-scale=1", ScrollWidth: 375, ClientWidth: 375}}
	perf := &fakePerf{res: performance.Result{
		Desktop:   &entity.PerformanceResult{Strategy: entity.StrategyDesktop},
		MobileErr: errors.New("lighthouse timed out"),
	}}
	a := New(&fakeTabs{desktop: desktop, mobile: mobile}, nil, perf, zap.NewNop())

	cfg := entity.AuditConfig{IncludeMobile: true, AnalyzePerformance: true}
	res, err := a.Analyze(context.Background(), "https://shop.example.com/", cfg)
	require.NoError(t, err)

	require.NotNil(t, res.MobileCheck)
	assert.True(t, res.MobileCheck.MobileFriendly)
	assert.Equal(t, int32(1), mobile.closes.Load())
	assert.Equal(t, int32(1), desktop.closes.Load())

	require.NotNil(t, res.Desktop)
	assert.Nil(t, res.Mobile)
	assert.Contains(t, res.CheckErrors, CheckPerformanceMobile)
	assert.NotContains(t, res.CheckErrors, CheckPerformanceDesktop)
}

func TestMobileResult(t *testing.T) {
	assert.False(t, mobileResult(mobileProbe{}).MobileFriendly)
	overflow := mobileResult(mobileProbe{HasViewport: true, Viewport: "width=device-width", ScrollWidth: 900, ClientWidth: 375})
	assert.True(t, overflow.HorizontalScroll)
	assert.False(t, overflow.MobileFriendly)
	fixed := mobileResult(mobileProbe{HasViewport: true, Viewport: "width=1024", ScrollWidth: 375, ClientWidth: 375})
	assert.False(t, fixed.MobileFriendly)
}

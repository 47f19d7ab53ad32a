package usecase

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
	"go.uber.org/zap"
)

func newProcessor(repo repository.JobRepository, an PageAnalyzer, disc URLDiscoverer) (*AuditProcessor, *recordingPublisher, *mapCache) {
	pub := &recordingPublisher{}
	cache := newMapCache()
	return NewAuditProcessor(repo, cache, pub, an, disc, DefaultMaxPages, zap.NewNop()), pub, cache
}

func TestProcessAuditSinglePageSEOOnly(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	cfg := entity.AuditConfig{Pages: []string{"https://example.com"}, CheckSEO: true}
	seedJob(repo, "job-1", cfg)

	an := &fakeAnalyzer{}
	p, pub, cache := newProcessor(repo, an, NewDiscoverer(nil, 5, zap.NewNop()))

	require.NoError(t, p.ProcessAudit(ctx, "job-1", cfg))

	job, err := repo.FindByID(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Equal(t, 100, job.Results.Progress)
	require.NotNil(t, job.Results.Report)
	assert.Len(t, job.Results.Report.Pages, 1)
	assert.NotNil(t, job.CompletedAt)
	assert.NotNil(t, job.Results.CompletedAt)
	assert.Empty(t, job.Results.Error)

	assert.Equal(t, []entity.JobStatus{entity.JobStatusRunning, entity.JobStatusCompleted}, repo.statuses())
	assert.Equal(t, []int{100}, repo.progressWrites())

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, EventAuditCompleted, events[0].Type)
	assert.Equal(t, 1, events[0].PagesAnalyzed)

	cached, err := cache.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, cached.Status)
}

func TestProcessAuditSitemapSampleIsCappedAtThree(t *testing.T) {
	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/sitemap.xml" {
			http.NotFound(w, r)
			return
		}
		var b strings.Builder
		b.WriteString(`<?xml version="1.0" encoding="UTF-8"?><urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">`)
		for i := 1; i <= 10; i++ {
			fmt.Fprintf(&b, "<url><loc>%s/page-%d</loc></url>", srv.URL, i)
		}
		b.WriteString("</urlset>")
		_, _ = w.Write([]byte(b.String()))
	}))
	defer srv.Close()

	ctx := context.Background()
	cfg := entity.AuditConfig{URL: srv.URL, CheckSEO: true}
	disc := NewDiscoverer(srv.Client(), 5, zap.NewNop())
	require.Len(t, disc.Discover(ctx, cfg), 5)

	repo := newRecordingRepo()
	seedJob(repo, "job-2", cfg)
	an := &fakeAnalyzer{}
	p, _, _ := newProcessor(repo, an, disc)

	require.NoError(t, p.ProcessAudit(ctx, "job-2", cfg))

	assert.Equal(t, []string{srv.URL + "/page-1", srv.URL + "/page-2", srv.URL + "/page-3"}, an.called())
	job, err := repo.FindByID(ctx, "job-2")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Len(t, job.Results.Report.Pages, 3)
	assert.Equal(t, []int{33, 67, 100}, repo.progressWrites())
}

func TestProcessAuditOnlyPageFailsStillCompletes(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	cfg := entity.AuditConfig{Pages: []string{"https://down.example.com"}}
	seedJob(repo, "job-3", cfg)

	an := &fakeAnalyzer{fail: map[string]error{"https://down.example.com": repository.ErrNavigationFailed}}
	p, pub, _ := newProcessor(repo, an, staticDiscoverer(cfg.Pages))

	require.NoError(t, p.ProcessAudit(ctx, "job-3", cfg))

	job, err := repo.FindByID(ctx, "job-3")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	require.NotNil(t, job.Results.Report)
	assert.Empty(t, job.Results.Report.Pages)
	assert.Zero(t, job.Results.Progress)
	assert.Equal(t, 0, job.Results.Report.Overview.PagesAnalyzed)
	assert.Equal(t, EventAuditCompleted, pub.all()[0].Type)
}

func TestProcessAuditProgressIsMonotonic(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	urls := []string{"https://a.example", "https://b.example", "https://c.example", "https://d.example"}
	cfg := entity.AuditConfig{Pages: urls}
	seedJob(repo, "job-4", cfg)

	an := &fakeAnalyzer{fail: map[string]error{"https://b.example": repository.ErrPageTimeout}}
	p, _, _ := newProcessor(repo, an, staticDiscoverer(urls))

	require.NoError(t, p.ProcessAudit(ctx, "job-4", cfg))

	writes := repo.progressWrites()
	assert.Equal(t, []int{33, 67}, writes)
	for i, w := range writes {
		assert.GreaterOrEqual(t, w, 0)
		assert.LessOrEqual(t, w, 100)
		if i > 0 {
			assert.GreaterOrEqual(t, w, writes[i-1])
		}
	}
	assert.Len(t, an.called(), 3, "d.example is beyond the page cap")

	job, _ := repo.FindByID(ctx, "job-4")
	assert.Len(t, job.Results.Report.Pages, 2)
	assert.Equal(t, 67, job.Results.Progress)
}

func TestProcessAuditPanicMarksFailed(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	cfg := entity.AuditConfig{Pages: []string{"https://a.example"}}
	seedJob(repo, "job-5", cfg)

	an := &fakeAnalyzer{panic: "https://a.example"}
	p, pub, _ := newProcessor(repo, an, staticDiscoverer(cfg.Pages))

	err := p.ProcessAudit(ctx, "job-5", cfg)
	require.ErrorContains(t, err, "analyzer exploded")

	job, err := repo.FindByID(ctx, "job-5")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, job.Status)
	assert.Contains(t, job.Results.Error, "analyzer exploded")
	assert.NotNil(t, job.Results.FailedAt)
	assert.Nil(t, job.Results.Report)

	events := pub.all()
	require.Len(t, events, 1)
	assert.Equal(t, EventAuditFailed, events[0].Type)
	assert.Equal(t, []entity.JobStatus{entity.JobStatusRunning, entity.JobStatusFailed}, repo.statuses())
}

func TestProcessAuditCanceledContextFails(t *testing.T) {
	repo := newRecordingRepo()
	cfg := entity.AuditConfig{Pages: []string{"https://a.example"}}
	seedJob(repo, "job-6", cfg)
	p, _, _ := newProcessor(repo, &fakeAnalyzer{}, staticDiscoverer(cfg.Pages))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := p.ProcessAudit(ctx, "job-6", cfg)
	require.ErrorIs(t, err, context.Canceled)

	job, _ := repo.FindByID(context.Background(), "job-6")
	assert.Equal(t, entity.JobStatusFailed, job.Status)
}

func TestProcessAuditTerminalStatusWrittenOnce(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	cfg := entity.AuditConfig{Pages: []string{"https://a.example"}}
	seedJob(repo, "job-7", cfg)
	p, pub, _ := newProcessor(repo, &fakeAnalyzer{}, staticDiscoverer(cfg.Pages))

	require.NoError(t, p.ProcessAudit(ctx, "job-7", cfg))
	err := p.ProcessAudit(ctx, "job-7", cfg)
	require.ErrorIs(t, err, repository.ErrInvalidTransition)

	job, _ := repo.FindByID(ctx, "job-7")
	assert.Equal(t, entity.JobStatusCompleted, job.Status)
	assert.Empty(t, job.Results.Error)
	assert.Len(t, pub.all(), 1)
}

func TestProcessAuditMissingJob(t *testing.T) {
	p, pub, _ := newProcessor(newRecordingRepo(), &fakeAnalyzer{}, staticDiscoverer{"https://a.example"})
	err := p.ProcessAudit(context.Background(), "nope", entity.AuditConfig{})
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
	assert.Empty(t, pub.all())
}

func TestProgress(t *testing.T) {
	assert.Equal(t, 0, progress(0, 0))
	assert.Equal(t, 33, progress(1, 3))
	assert.Equal(t, 67, progress(2, 3))
	assert.Equal(t, 100, progress(3, 3))
	assert.Equal(t, 50, progress(1, 2))
}

func TestErrorType(t *testing.T) {
	assert.Equal(t, "timeout", errorType(fmt.Errorf("x: %w", repository.ErrPageTimeout)))
	assert.Equal(t, "navigation", errorType(repository.ErrNavigationFailed))
	assert.Equal(t, "browser_launch", errorType(repository.ErrBrowserLaunch))
	assert.Equal(t, "unknown", errorType(errBoom))
}

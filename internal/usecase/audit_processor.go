package usecase

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/user/seo-audit-service/internal/aggregator"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
	"github.com/user/seo-audit-service/pkg/metrics"
	"go.uber.org/zap"
)

// DefaultMaxPages caps how many discovered URLs one audit analyzes.
const DefaultMaxPages = 3

// Lifecycle event types.
const (
	EventAuditCompleted = "audit.completed"
	EventAuditFailed    = "audit.failed"
)

// PageAnalyzer produces the result for a single URL.
type PageAnalyzer interface {
	Analyze(ctx context.Context, url string, cfg entity.AuditConfig) (*entity.PageAnalysisResult, error)
}

// AuditProcessor drives one audit job from pending to a terminal status.
type AuditProcessor struct {
	repo       repository.JobRepository
	cache      repository.JobStatusCache
	events     repository.EventPublisher
	analyzer   PageAnalyzer
	discoverer URLDiscoverer
	maxPages   int
	logger     *zap.Logger
	now        func() time.Time
}

// NewAuditProcessor wires the processor. cache and events may be nil.
func NewAuditProcessor(
	repo repository.JobRepository,
	cache repository.JobStatusCache,
	events repository.EventPublisher,
	analyzer PageAnalyzer,
	discoverer URLDiscoverer,
	maxPages int,
	logger *zap.Logger,
) *AuditProcessor {
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}
	return &AuditProcessor{
		repo:       repo,
		cache:      cache,
		events:     events,
		analyzer:   analyzer,
		discoverer: discoverer,
		maxPages:   maxPages,
		logger:     logger,
		now:        time.Now,
	}
}

// Handle adapts ProcessAudit to the dispatcher.
func (p *AuditProcessor) Handle(ctx context.Context, task AuditTask) {
	_ = p.ProcessAudit(ctx, task.JobID, task.Config)
}

// ProcessAudit runs the audit for jobID. Individual page failures are
// skipped. Anything else that goes wrong, including a panic, marks the job
// failed and is returned.
func (p *AuditProcessor) ProcessAudit(ctx context.Context, jobID string, cfg entity.AuditConfig) (err error) {
	start := p.now()
	log := p.logger.With(zap.String("job_id", jobID))

	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("audit panicked: %v", r)
		}
		if err != nil {
			log.Error("audit failed", zap.Error(err))
			p.fail(ctx, jobID, err)
		}
	}()

	urls := p.discoverer.Discover(ctx, cfg)
	if _, err := p.transition(ctx, jobID, entity.JobStatusRunning, nil); err != nil {
		return fmt.Errorf("mark running: %w", err)
	}

	targets := urls[:min(len(urls), p.maxPages)]
	log.Info("audit started", zap.Int("discovered", len(urls)), zap.Int("analyzing", len(targets)))

	pages := make([]entity.PageAnalysisResult, 0, len(targets))
	for _, u := range targets {
		if err := ctx.Err(); err != nil {
			return err
		}
		res, ok := p.analyzePage(ctx, log, u, cfg)
		if !ok {
			continue
		}
		pages = append(pages, *res)
		if err := p.setProgress(ctx, jobID, progress(len(pages), len(targets))); err != nil {
			return fmt.Errorf("write progress: %w", err)
		}
	}

	report := aggregator.Aggregate(pages, cfg)
	finished := p.now()
	job, err := p.transition(ctx, jobID, entity.JobStatusCompleted, func(r *entity.JobResults) {
		r.Report = &report
		r.ProcessingTimeMS = finished.Sub(start).Milliseconds()
		r.CompletedAt = &finished
	})
	if err != nil {
		return fmt.Errorf("mark completed: %w", err)
	}

	metrics.AuditJobsTotal.WithLabelValues(string(entity.JobStatusCompleted)).Inc()
	log.Info("audit completed",
		zap.Int("pages_analyzed", len(pages)),
		zap.Int("score", report.Overview.Score),
		zap.Int64("processing_time_ms", job.Results.ProcessingTimeMS),
	)
	p.publish(ctx, entity.AuditEvent{
		Type:          EventAuditCompleted,
		JobID:         jobID,
		Status:        entity.JobStatusCompleted,
		PagesAnalyzed: len(pages),
		OverallScore:  report.Overview.Score,
		OccurredAt:    finished,
	})
	return nil
}

func (p *AuditProcessor) analyzePage(ctx context.Context, log *zap.Logger, pageURL string, cfg entity.AuditConfig) (*entity.PageAnalysisResult, bool) {
	start := time.Now()
	res, err := p.analyzer.Analyze(ctx, pageURL, cfg)
	metrics.PageAnalysisDuration.Observe(time.Since(start).Seconds())
	if err != nil {
		metrics.PageAnalysesTotal.WithLabelValues("failed", errorType(err)).Inc()
		log.Warn("page analysis failed, skipping", zap.String("url", pageURL), zap.Error(err))
		return nil, false
	}
	metrics.PageAnalysesTotal.WithLabelValues("success", "").Inc()
	log.Debug("page analyzed", zap.String("url", pageURL), zap.Duration("duration", time.Since(start)))
	return res, true
}

// progress is round(done/total*100), or 0 without targets.
func progress(done, total int) int {
	if total <= 0 {
		return 0
	}
	return int(math.Round(float64(done) / float64(total) * 100))
}

func errorType(err error) string {
	switch {
	case errors.Is(err, repository.ErrPageTimeout), errors.Is(err, context.DeadlineExceeded):
		return "timeout"
	case errors.Is(err, repository.ErrNavigationFailed):
		return "navigation"
	case errors.Is(err, repository.ErrBrowserLaunch):
		return "browser_launch"
	case errors.Is(err, repository.ErrPoolClosed):
		return "pool_closed"
	case errors.Is(err, context.Canceled):
		return "canceled"
	default:
		return "unknown"
	}
}

// setProgress raises the stored progress to pct. It never lowers it.
func (p *AuditProcessor) setProgress(ctx context.Context, jobID string, pct int) error {
	job, err := p.repo.FindByID(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status != entity.JobStatusRunning {
		return fmt.Errorf("%w: progress update while %s", repository.ErrInvalidTransition, job.Status)
	}
	results := job.Results
	results.Progress = max(results.Progress, min(pct, 100))
	patch := entity.JobPatch{Results: &results}
	if err := p.repo.Update(ctx, jobID, patch); err != nil {
		return err
	}
	patch.Apply(job, p.now())
	p.cacheJob(ctx, job)
	return nil
}

// transition moves the job to status after checking the state machine.
// mutate, when set, edits the results written with the new status.
func (p *AuditProcessor) transition(ctx context.Context, jobID string, status entity.JobStatus, mutate func(*entity.JobResults)) (*entity.AuditJob, error) {
	job, err := p.repo.FindByID(ctx, jobID)
	if err != nil {
		return nil, err
	}
	if !entity.CanTransition(job.Status, status) {
		return nil, fmt.Errorf("%w: %s -> %s", repository.ErrInvalidTransition, job.Status, status)
	}

	patch := entity.JobPatch{Status: &status}
	if mutate != nil {
		results := job.Results
		mutate(&results)
		patch.Results = &results
	}
	if status.IsTerminal() {
		now := p.now()
		patch.CompletedAt = &now
	}
	if err := p.repo.Update(ctx, jobID, patch); err != nil {
		return nil, err
	}
	patch.Apply(job, p.now())
	p.cacheJob(ctx, job)
	return job, nil
}

// fail records cause on the job. It runs detached from ctx cancellation so a
// canceled audit still reaches a terminal status.
func (p *AuditProcessor) fail(ctx context.Context, jobID string, cause error) {
	ctx = context.WithoutCancel(ctx)
	failedAt := p.now()
	_, err := p.transition(ctx, jobID, entity.JobStatusFailed, func(r *entity.JobResults) {
		r.Error = cause.Error()
		r.FailedAt = &failedAt
	})
	if err != nil {
		p.logger.Error("could not mark audit failed", zap.String("job_id", jobID), zap.Error(err))
		return
	}
	metrics.AuditJobsTotal.WithLabelValues(string(entity.JobStatusFailed)).Inc()
	p.publish(ctx, entity.AuditEvent{
		Type:       EventAuditFailed,
		JobID:      jobID,
		Status:     entity.JobStatusFailed,
		Error:      cause.Error(),
		OccurredAt: failedAt,
	})
}

func (p *AuditProcessor) cacheJob(ctx context.Context, job *entity.AuditJob) {
	if p.cache == nil {
		return
	}
	if err := p.cache.Set(ctx, job); err != nil {
		p.logger.Warn("status cache write failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

func (p *AuditProcessor) publish(ctx context.Context, ev entity.AuditEvent) {
	if p.events == nil {
		return
	}
	if err := p.events.Publish(ctx, ev); err != nil {
		p.logger.Warn("publish audit event failed", zap.String("job_id", ev.JobID), zap.String("type", ev.Type), zap.Error(err))
	}
}

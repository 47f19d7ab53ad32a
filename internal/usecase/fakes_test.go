package usecase

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/user/seo-audit-service/internal/adapter/memory"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
)

// recordingRepo wraps the in-memory repository and remembers every patch.
type recordingRepo struct {
	*memory.AuditJobRepoImpl

	mu        sync.Mutex
	patches   []entity.JobPatch
	updateErr error
}

func newRecordingRepo() *recordingRepo {
	return &recordingRepo{AuditJobRepoImpl: memory.NewAuditJobRepo()}
}

func (r *recordingRepo) Update(ctx context.Context, id string, patch entity.JobPatch) error {
	r.mu.Lock()
	if r.updateErr != nil {
		err := r.updateErr
		r.mu.Unlock()
		return err
	}
	r.patches = append(r.patches, patch)
	r.mu.Unlock()
	return r.AuditJobRepoImpl.Update(ctx, id, patch)
}

// progressWrites returns the progress of every patch written while running.
func (r *recordingRepo) progressWrites() []int {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []int
	for _, p := range r.patches {
		if p.Status == nil && p.Results != nil {
			out = append(out, p.Results.Progress)
		}
	}
	return out
}

func (r *recordingRepo) statuses() []entity.JobStatus {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []entity.JobStatus
	for _, p := range r.patches {
		if p.Status != nil {
			out = append(out, *p.Status)
		}
	}
	return out
}

func seedJob(repo repository.JobRepository, id string, cfg entity.AuditConfig) {
	now := time.Now()
	_ = repo.Create(context.Background(), &entity.AuditJob{
		ID:        id,
		Status:    entity.JobStatusPending,
		Config:    cfg,
		CreatedAt: now,
		UpdatedAt: now,
	})
}

type fakeAnalyzer struct {
	mu    sync.Mutex
	calls []string
	fail  map[string]error
	panic string
}

func (f *fakeAnalyzer) Analyze(ctx context.Context, url string, cfg entity.AuditConfig) (*entity.PageAnalysisResult, error) {
	f.mu.Lock()
	f.calls = append(f.calls, url)
	f.mu.Unlock()
	if f.panic != "" && url == f.panic {
		panic("analyzer exploded")
	}
	if err := f.fail[url]; err != nil {
		return nil, err
	}
	return &entity.PageAnalysisResult{
		URL:        url,
		StatusCode: 200,
		SEO:        entity.SEOData{Title: "Title of " + url, Score: 80},
	}, nil
}

func (f *fakeAnalyzer) called() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

type staticDiscoverer []string

func (s staticDiscoverer) Discover(context.Context, entity.AuditConfig) []string { return s }

type recordingPublisher struct {
	mu     sync.Mutex
	events []entity.AuditEvent
}

func (p *recordingPublisher) Publish(ctx context.Context, ev entity.AuditEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, ev)
	return nil
}

func (p *recordingPublisher) Close() error { return nil }

func (p *recordingPublisher) all() []entity.AuditEvent {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]entity.AuditEvent(nil), p.events...)
}

type mapCache struct {
	mu   sync.Mutex
	jobs map[string]entity.AuditJob
	err  error
}

func newMapCache() *mapCache { return &mapCache{jobs: map[string]entity.AuditJob{}} }

func (c *mapCache) Set(ctx context.Context, job *entity.AuditJob) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.jobs[job.ID] = *job
	return nil
}

func (c *mapCache) Get(ctx context.Context, id string) (*entity.AuditJob, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.err != nil {
		return nil, c.err
	}
	job, ok := c.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	return &job, nil
}

type fakeQueue struct {
	tasks []AuditTask
	err   error
}

func (q *fakeQueue) Enqueue(task AuditTask) error {
	if q.err != nil {
		return q.err
	}
	q.tasks = append(q.tasks, task)
	return nil
}

var errBoom = errors.New("boom")

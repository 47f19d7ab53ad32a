package memory

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
)

// AuditJobRepoImpl keeps jobs in process memory. It is used when no
// PostgreSQL URL is configured; jobs are lost on restart.
type AuditJobRepoImpl struct {
	mu   sync.RWMutex
	jobs map[string]*entity.AuditJob
	now  func() time.Time
}

func NewAuditJobRepo() *AuditJobRepoImpl {
	return &AuditJobRepoImpl{
		jobs: make(map[string]*entity.AuditJob),
		now:  time.Now,
	}
}

func (r *AuditJobRepoImpl) Create(ctx context.Context, job *entity.AuditJob) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.jobs[job.ID]; exists {
		return fmt.Errorf("audit job %s already exists", job.ID)
	}
	cp := *job
	r.jobs[job.ID] = &cp
	return nil
}

// FindByID returns a copy so callers cannot mutate stored state.
func (r *AuditJobRepoImpl) FindByID(ctx context.Context, id string) (*entity.AuditJob, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	job, ok := r.jobs[id]
	if !ok {
		return nil, repository.ErrJobNotFound
	}
	cp := *job
	return &cp, nil
}

func (r *AuditJobRepoImpl) Update(ctx context.Context, id string, patch entity.JobPatch) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	job, ok := r.jobs[id]
	if !ok {
		return repository.ErrJobNotFound
	}
	patch.Apply(job, r.now())
	return nil
}

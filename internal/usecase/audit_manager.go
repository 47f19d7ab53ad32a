package usecase

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
	"github.com/user/seo-audit-service/pkg/metrics"
	"go.uber.org/zap"
)

// TaskQueue accepts audits for background processing.
type TaskQueue interface {
	Enqueue(task AuditTask) error
}

// AuditManager defines the interface for submitting and polling audits.
type AuditManager interface {
	Submit(ctx context.Context, cfg entity.AuditConfig) (*entity.AuditJob, error)
	GetStatus(ctx context.Context, id string) (*entity.AuditJob, error)
}

type auditManagerUseCase struct {
	repo       repository.JobRepository
	cache      repository.JobStatusCache
	queue      TaskQueue
	startDelay time.Duration
	logger     *zap.Logger
	now        func() time.Time
	newID      func() string
}

// NewAuditManager creates a new AuditManager use case. cache may be nil.
func NewAuditManager(
	repo repository.JobRepository,
	cache repository.JobStatusCache,
	queue TaskQueue,
	startDelay time.Duration,
	logger *zap.Logger,
) AuditManager {
	return &auditManagerUseCase{
		repo:       repo,
		cache:      cache,
		queue:      queue,
		startDelay: startDelay,
		logger:     logger,
		now:        time.Now,
		newID:      uuid.NewString,
	}
}

// Submit persists a pending job and schedules it. The job is returned even
// when scheduling fails, in which case it has already been marked failed.
func (uc *auditManagerUseCase) Submit(ctx context.Context, cfg entity.AuditConfig) (*entity.AuditJob, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	now := uc.now()
	job := &entity.AuditJob{
		ID:        uc.newID(),
		Status:    entity.JobStatusPending,
		Config:    cfg,
		Results:   entity.JobResults{Progress: 0},
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := uc.repo.Create(ctx, job); err != nil {
		return nil, fmt.Errorf("failed to create audit job: %w", err)
	}
	uc.cacheJob(ctx, job)

	err := uc.queue.Enqueue(AuditTask{JobID: job.ID, Config: cfg, NotBefore: now.Add(uc.startDelay)})
	if err == nil {
		uc.logger.Info("audit submitted", zap.String("job_id", job.ID), zap.String("url", cfg.SeedURL()), zap.Int("pages", len(cfg.Pages)))
		return job, nil
	}

	uc.logger.Error("failed to schedule audit", zap.String("job_id", job.ID), zap.Error(err))
	failedAt := uc.now()
	status := entity.JobStatusFailed
	patch := entity.JobPatch{
		Status:      &status,
		Results:     &entity.JobResults{Error: err.Error(), FailedAt: &failedAt},
		CompletedAt: &failedAt,
	}
	if uerr := uc.repo.Update(ctx, job.ID, patch); uerr != nil {
		uc.logger.Error("failed to mark unscheduled audit failed", zap.String("job_id", job.ID), zap.Error(uerr))
	} else {
		patch.Apply(job, failedAt)
		uc.cacheJob(ctx, job)
	}
	metrics.AuditJobsTotal.WithLabelValues(string(entity.JobStatusFailed)).Inc()
	return job, err
}

// GetStatus reads the status cache first and falls back to the repository.
func (uc *auditManagerUseCase) GetStatus(ctx context.Context, id string) (*entity.AuditJob, error) {
	if uc.cache != nil {
		job, err := uc.cache.Get(ctx, id)
		if err == nil {
			return job, nil
		}
		if !errors.Is(err, repository.ErrJobNotFound) {
			uc.logger.Warn("status cache read failed", zap.String("job_id", id), zap.Error(err))
		}
	}
	return uc.repo.FindByID(ctx, id)
}

func (uc *auditManagerUseCase) cacheJob(ctx context.Context, job *entity.AuditJob) {
	if uc.cache == nil {
		return
	}
	if err := uc.cache.Set(ctx, job); err != nil {
		uc.logger.Warn("status cache write failed", zap.String("job_id", job.ID), zap.Error(err))
	}
}

package repository

import (
	"context"

	"github.com/user/seo-audit-service/internal/entity"
)

// JobRepository defines the persistence contract for audit jobs.
type JobRepository interface {
	// Create stores a new job. The ID must already be assigned.
	Create(ctx context.Context, job *entity.AuditJob) error
	// FindByID returns ErrJobNotFound when no job has the given id.
	FindByID(ctx context.Context, id string) (*entity.AuditJob, error)
	// Update applies the patch to status, results and completion time only.
	Update(ctx context.Context, id string, patch entity.JobPatch) error
}

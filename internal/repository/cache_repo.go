package repository

import (
	"context"
	"time"

	"github.com/user/seo-audit-service/internal/entity"
)

// JobStatusCache keeps a short-lived copy of job state for status polling.
type JobStatusCache interface {
	Set(ctx context.Context, job *entity.AuditJob) error
	// Get returns ErrJobNotFound on a cache miss.
	Get(ctx context.Context, id string) (*entity.AuditJob, error)
}

// LinkProbeCache remembers link probe outcomes so repeated audits skip the network.
type LinkProbeCache interface {
	// Get returns found=false when the URL has not been probed recently.
	Get(ctx context.Context, url string) (status int, found bool, err error)
	Put(ctx context.Context, url string, status int, ttl time.Duration) error
}

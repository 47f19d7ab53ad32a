package redis

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
)

const jobStatusPrefix = "audit:job:"

// StatusCacheImpl stores job snapshots in Redis for status polling.
type StatusCacheImpl struct {
	client *redis.Client
	ttl    time.Duration
}

// NewStatusCache creates a Redis-backed JobStatusCache.
func NewStatusCache(client *redis.Client, ttl time.Duration) *StatusCacheImpl {
	return &StatusCacheImpl{client: client, ttl: ttl}
}

// Set writes the job snapshot to Redis.
func (s *StatusCacheImpl) Set(ctx context.Context, job *entity.AuditJob) error {
	payload, err := json.Marshal(job)
	if err != nil {
		return err
	}
	return s.client.Set(ctx, jobStatusPrefix+job.ID, payload, s.ttl).Err()
}

// Get reads the job snapshot from Redis.
func (s *StatusCacheImpl) Get(ctx context.Context, id string) (*entity.AuditJob, error) {
	val, err := s.client.Get(ctx, jobStatusPrefix+id).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, repository.ErrJobNotFound
		}
		return nil, err
	}

	var job entity.AuditJob
	if err := json.Unmarshal([]byte(val), &job); err != nil {
		return nil, err
	}
	return &job, nil
}

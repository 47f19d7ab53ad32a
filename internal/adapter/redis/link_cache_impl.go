package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/user/seo-audit-service/pkg/utils"
)

const linkProbePrefix = "linkprobe:"

// LinkCacheImpl provides a concrete implementation for the LinkProbeCache interface using Redis.
type LinkCacheImpl struct {
	client *redis.Client
}

// NewLinkCache creates a new instance of LinkCacheImpl.
func NewLinkCache(client *redis.Client) *LinkCacheImpl {
	return &LinkCacheImpl{client: client}
}

// generateKey creates a consistent Redis key for a given URL by hashing it.
func (r *LinkCacheImpl) generateKey(url string) string {
	return fmt.Sprintf("%s%s", linkProbePrefix, utils.HashURL(url))
}

// Get returns the cached probe status for url.
func (r *LinkCacheImpl) Get(ctx context.Context, url string) (int, bool, error) {
	val, err := r.client.Get(ctx, r.generateKey(url)).Result()
	if errors.Is(err, redis.Nil) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	status, err := strconv.Atoi(val)
	if err != nil {
		return 0, false, fmt.Errorf("corrupt link probe entry: %w", err)
	}
	return status, true, nil
}

// Put stores the probe status with an expiry. A zero status records a
// network failure.
func (r *LinkCacheImpl) Put(ctx context.Context, url string, status int, ttl time.Duration) error {
	return r.client.SetEx(ctx, r.generateKey(url), strconv.Itoa(status), ttl).Err()
}

package redis

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
)

func newTestClient(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return client, mr
}

func TestLinkCacheRoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewLinkCache(client)
	ctx := context.Background()

	_, found, err := cache.Get(ctx, "https://example.com/missing")
	require.NoError(t, err)
	assert.False(t, found)

	require.NoError(t, cache.Put(ctx, "https://example.com/404", 404, time.Hour))
	status, found, err := cache.Get(ctx, "https://example.com/404")
	require.NoError(t, err)
	assert.True(t, found)
	assert.Equal(t, 404, status)

	mr.FastForward(2 * time.Hour)
	_, found, err = cache.Get(ctx, "https://example.com/404")
	require.NoError(t, err)
	assert.False(t, found)
}

func TestStatusCacheRoundTrip(t *testing.T) {
	client, mr := newTestClient(t)
	cache := NewStatusCache(client, time.Minute)
	ctx := context.Background()

	_, err := cache.Get(ctx, "job-1")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)

	job := &entity.AuditJob{
		ID:      "job-1",
		Status:  entity.JobStatusRunning,
		Results: entity.JobResults{Progress: 67},
	}
	require.NoError(t, cache.Set(ctx, job))

	got, err := cache.Get(ctx, "job-1")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusRunning, got.Status)
	assert.Equal(t, 67, got.Results.Progress)
	assert.True(t, mr.Exists(jobStatusPrefix+"job-1"))

	mr.FastForward(2 * time.Minute)
	_, err = cache.Get(ctx, "job-1")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}

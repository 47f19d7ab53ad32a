package usecase

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
	"go.uber.org/zap"
)

func newManager(repo repository.JobRepository, cache repository.JobStatusCache, q TaskQueue) *auditManagerUseCase {
	m := NewAuditManager(repo, cache, q, time.Second, zap.NewNop()).(*auditManagerUseCase)
	fixed := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	m.now = func() time.Time { return fixed }
	m.newID = func() string { return "11111111-2222-3333-4444-555555555555" }
	return m
}

func TestSubmitPersistsPendingAndSchedules(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	cache := newMapCache()
	q := &fakeQueue{}
	m := newManager(repo, cache, q)

	cfg := entity.AuditConfig{URL: "https://example.com", CheckSEO: true}
	job, err := m.Submit(ctx, cfg)
	require.NoError(t, err)

	assert.Equal(t, "11111111-2222-3333-4444-555555555555", job.ID)
	assert.Equal(t, entity.JobStatusPending, job.Status)
	assert.Zero(t, job.Results.Progress)

	stored, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPending, stored.Status)
	assert.Equal(t, cfg, stored.Config)

	require.Len(t, q.tasks, 1)
	assert.Equal(t, job.ID, q.tasks[0].JobID)
	assert.Equal(t, m.now().Add(time.Second), q.tasks[0].NotBefore)

	cached, err := cache.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusPending, cached.Status)
}

func TestSubmitRejectsInvalidConfig(t *testing.T) {
	repo := newRecordingRepo()
	q := &fakeQueue{}
	m := newManager(repo, nil, q)

	_, err := m.Submit(context.Background(), entity.AuditConfig{URL: "not a url"})
	require.ErrorIs(t, err, entity.ErrInvalidConfig)
	assert.Empty(t, q.tasks)

	_, err = repo.FindByID(context.Background(), "11111111-2222-3333-4444-555555555555")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}

func TestSubmitQueueFullMarksJobFailed(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	cache := newMapCache()
	m := newManager(repo, cache, &fakeQueue{err: repository.ErrQueueFull})

	job, err := m.Submit(ctx, entity.AuditConfig{URL: "https://example.com"})
	require.ErrorIs(t, err, repository.ErrQueueFull)
	require.NotNil(t, job)

	stored, err := repo.FindByID(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, stored.Status)
	assert.Equal(t, repository.ErrQueueFull.Error(), stored.Results.Error)
	assert.NotNil(t, stored.Results.FailedAt)

	cached, err := cache.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusFailed, cached.Status)
}

func TestGetStatusPrefersCache(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	cache := newMapCache()
	m := newManager(repo, cache, &fakeQueue{})

	seedJob(repo, "job", entity.AuditConfig{})
	require.NoError(t, cache.Set(ctx, &entity.AuditJob{ID: "job", Status: entity.JobStatusRunning, Results: entity.JobResults{Progress: 33}}))

	job, err := m.GetStatus(ctx, "job")
	require.NoError(t, err)
	assert.Equal(t, entity.JobStatusRunning, job.Status)
	assert.Equal(t, 33, job.Results.Progress)
}

func TestGetStatusFallsBackToRepository(t *testing.T) {
	ctx := context.Background()
	repo := newRecordingRepo()
	seedJob(repo, "job", entity.AuditConfig{})

	broken := newMapCache()
	broken.err = errBoom
	for _, cache := range []repository.JobStatusCache{nil, newMapCache(), broken} {
		m := newManager(repo, cache, &fakeQueue{})
		job, err := m.GetStatus(ctx, "job")
		require.NoError(t, err)
		assert.Equal(t, entity.JobStatusPending, job.Status)
	}

	m := newManager(repo, newMapCache(), &fakeQueue{})
	_, err := m.GetStatus(ctx, "missing")
	assert.ErrorIs(t, err, repository.ErrJobNotFound)
}

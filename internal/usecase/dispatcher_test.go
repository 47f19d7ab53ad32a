package usecase

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/user/seo-audit-service/internal/repository"
	"go.uber.org/zap"
)

func TestDispatcherRunsTasks(t *testing.T) {
	var mu sync.Mutex
	seen := map[string]bool{}
	var wg sync.WaitGroup
	wg.Add(5)

	d := NewDispatcher(2, 10, func(ctx context.Context, task AuditTask) {
		mu.Lock()
		seen[task.JobID] = true
		mu.Unlock()
		wg.Done()
	}, zap.NewNop())
	d.Start()
	defer d.Stop(context.Background())

	for _, id := range []string{"a", "b", "c", "d", "e"} {
		require.NoError(t, d.Enqueue(AuditTask{JobID: id}))
	}
	wg.Wait()

	mu.Lock()
	defer mu.Unlock()
	assert.Len(t, seen, 5)
}

func TestDispatcherHonorsNotBefore(t *testing.T) {
	started := make(chan time.Time, 1)
	d := NewDispatcher(1, 1, func(ctx context.Context, task AuditTask) {
		started <- time.Now()
	}, zap.NewNop())
	d.Start()
	defer d.Stop(context.Background())

	notBefore := time.Now().Add(150 * time.Millisecond)
	require.NoError(t, d.Enqueue(AuditTask{JobID: "delayed", NotBefore: notBefore}))

	select {
	case at := <-started:
		assert.False(t, at.Before(notBefore))
	case <-time.After(2 * time.Second):
		t.Fatal("task never started")
	}
}

func TestDispatcherQueueFull(t *testing.T) {
	d := NewDispatcher(1, 2, func(context.Context, AuditTask) {}, zap.NewNop())

	require.NoError(t, d.Enqueue(AuditTask{JobID: "1"}))
	require.NoError(t, d.Enqueue(AuditTask{JobID: "2"}))
	assert.ErrorIs(t, d.Enqueue(AuditTask{JobID: "3"}), repository.ErrQueueFull)
}

func TestDispatcherStop(t *testing.T) {
	release := make(chan struct{})
	running := make(chan struct{})
	finished := make(chan struct{})
	d := NewDispatcher(1, 4, func(ctx context.Context, task AuditTask) {
		close(running)
		<-release
		close(finished)
	}, zap.NewNop())
	d.Start()
	require.NoError(t, d.Enqueue(AuditTask{JobID: "long"}))
	<-running

	stopped := make(chan struct{})
	go func() {
		d.Stop(context.Background())
		close(stopped)
	}()

	select {
	case <-stopped:
		t.Fatal("Stop returned while an audit was running")
	case <-time.After(50 * time.Millisecond):
	}
	close(release)
	<-stopped
	<-finished

	assert.ErrorIs(t, d.Enqueue(AuditTask{JobID: "late"}), repository.ErrQueueFull)
	d.Stop(context.Background())
}

func TestDispatcherStopDeadlineCancelsRunningAudit(t *testing.T) {
	running := make(chan struct{})
	var sawCancel bool
	d := NewDispatcher(1, 1, func(ctx context.Context, task AuditTask) {
		close(running)
		<-ctx.Done()
		sawCancel = true
	}, zap.NewNop())
	d.Start()
	require.NoError(t, d.Enqueue(AuditTask{JobID: "stuck"}))
	<-running

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	d.Stop(ctx)
	assert.True(t, sawCancel)
}

func TestDispatcherSurvivesHandlerPanic(t *testing.T) {
	done := make(chan string, 2)
	d := NewDispatcher(1, 2, func(ctx context.Context, task AuditTask) {
		if task.JobID == "bad" {
			panic("boom")
		}
		done <- task.JobID
	}, zap.NewNop())
	d.Start()
	defer d.Stop(context.Background())

	require.NoError(t, d.Enqueue(AuditTask{JobID: "bad"}))
	require.NoError(t, d.Enqueue(AuditTask{JobID: "good"}))
	select {
	case id := <-done:
		assert.Equal(t, "good", id)
	case <-time.After(2 * time.Second):
		t.Fatal("worker died after panic")
	}
}

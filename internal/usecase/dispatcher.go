package usecase

import (
	"context"
	"sync"
	"time"

	"github.com/user/seo-audit-service/internal/entity"
	"github.com/user/seo-audit-service/internal/repository"
	"github.com/user/seo-audit-service/pkg/metrics"
	"go.uber.org/zap"
)

// AuditTask is one queued audit. Workers hold it until NotBefore.
type AuditTask struct {
	JobID     string
	Config    entity.AuditConfig
	NotBefore time.Time
}

// TaskHandler runs a dequeued task.
type TaskHandler func(ctx context.Context, task AuditTask)

// Dispatcher manages the worker pool that runs audits.
type Dispatcher struct {
	handler   TaskHandler
	workers   int
	logger    *zap.Logger
	taskQueue chan AuditTask
	stopChan  chan struct{}
	wg        sync.WaitGroup

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	started bool
	stopped bool
}

func NewDispatcher(workers, queueSize int, handler TaskHandler, logger *zap.Logger) *Dispatcher {
	if workers <= 0 {
		workers = 1
	}
	if queueSize <= 0 {
		queueSize = workers * 2
	}
	ctx, cancel := context.WithCancel(context.Background())
	return &Dispatcher{
		handler:   handler,
		workers:   workers,
		logger:    logger,
		taskQueue: make(chan AuditTask, queueSize),
		stopChan:  make(chan struct{}),
		ctx:       ctx,
		cancel:    cancel,
	}
}

// Start launches the workers. Calling it more than once has no effect.
func (d *Dispatcher) Start() {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.started || d.stopped {
		return
	}
	d.started = true
	for i := 0; i < d.workers; i++ {
		d.wg.Add(1)
		go d.worker(i)
	}
}

// Enqueue adds a task without blocking. It returns ErrQueueFull when the
// buffer is full or the dispatcher has stopped.
func (d *Dispatcher) Enqueue(task AuditTask) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.stopped {
		return repository.ErrQueueFull
	}
	select {
	case d.taskQueue <- task:
		metrics.AuditQueueDepth.Set(float64(len(d.taskQueue)))
		return nil
	default:
		return repository.ErrQueueFull
	}
}

// Stop stops accepting tasks and waits for running audits to finish. When
// ctx expires first, running audits are canceled and Stop still waits for
// them to record their outcome. Queued tasks that never started are dropped.
func (d *Dispatcher) Stop(ctx context.Context) {
	d.mu.Lock()
	if d.stopped {
		d.mu.Unlock()
		return
	}
	d.stopped = true
	close(d.stopChan)
	d.mu.Unlock()

	done := make(chan struct{})
	go func() {
		d.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
	case <-ctx.Done():
		d.logger.Warn("dispatcher stop deadline reached, canceling running audits")
		d.cancel()
		<-done
	}
	d.cancel()
	if n := len(d.taskQueue); n > 0 {
		d.logger.Warn("dropping queued audits on shutdown", zap.Int("count", n))
	}
	metrics.AuditQueueDepth.Set(0)
}

func (d *Dispatcher) worker(id int) {
	defer d.wg.Done()
	for {
		select {
		case task := <-d.taskQueue:
			metrics.AuditQueueDepth.Set(float64(len(d.taskQueue)))
			if !d.waitUntil(task.NotBefore) {
				return
			}
			d.run(id, task)
		case <-d.stopChan:
			return
		}
	}
}

// waitUntil sleeps until t. It returns false when the dispatcher stops first.
func (d *Dispatcher) waitUntil(t time.Time) bool {
	wait := time.Until(t)
	if wait <= 0 {
		return true
	}
	timer := time.NewTimer(wait)
	defer timer.Stop()
	select {
	case <-timer.C:
		return true
	case <-d.stopChan:
		return false
	}
}

func (d *Dispatcher) run(id int, task AuditTask) {
	defer func() {
		if r := recover(); r != nil {
			d.logger.Error("audit handler panicked", zap.Int("worker", id), zap.String("job_id", task.JobID), zap.Any("panic", r))
		}
	}()
	d.logger.Debug("worker picked up audit", zap.Int("worker", id), zap.String("job_id", task.JobID))
	d.handler(d.ctx, task)
}

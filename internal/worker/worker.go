package worker

import (
	"context"
	"log/slog"
	"sync"
)

// Task is a function that represents a background job
type Task func(ctx context.Context) error

// Pool runs tasks on a fixed number of goroutines off the request path
type Pool struct {
	taskQueue chan Task
	wg        sync.WaitGroup

	// mu guards closed and the close of taskQueue against in-flight sends
	mu     sync.RWMutex
	closed bool

	ctx       context.Context
	cancel    context.CancelFunc
	logger    *slog.Logger
}

// NewPool starts size workers with a queue of queueSize pending tasks
func NewPool(size, queueSize int, logger *slog.Logger) *Pool {
	if size < 1 {
		size = 1
	}
	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		taskQueue: make(chan Task, queueSize),
		ctx:       ctx,
		cancel:    cancel,
		logger:    logger,
	}

	for range size {
		p.wg.Add(1)
		go p.startWorker()
	}

	return p
}

func (p *Pool) startWorker() {
	defer p.wg.Done()
	for task := range p.taskQueue {
		if err := task(p.ctx); err != nil {
			p.logger.Warn("worker task failed", "error", err)
		}
	}
}

// Submit enqueues t. It returns false when the pool is shutting down or the
// queue is full; the task is dropped and the caller decides what to do.
func (p *Pool) Submit(t Task) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.closed {
		p.logger.Warn("task submitted during shutdown, dropping")
		return false
	}
	select {
	case p.taskQueue <- t:
		return true
	default:
		p.logger.Warn("task queue full, dropping task")
		return false
	}
}

// Shutdown stops accepting tasks and waits for queued ones to finish, or for
// ctx to end, whichever comes first
func (p *Pool) Shutdown(ctx context.Context) {
	p.mu.Lock()
	if p.closed {
		p.mu.Unlock()
		return
	}
	p.closed = true
	close(p.taskQueue)
	p.mu.Unlock()

	done := make(chan struct{})
	go func() {
		p.wg.Wait()
		close(done)
	}()

	select {
	case <-done:
	case <-ctx.Done():
		p.cancel()
		<-done
	}
	p.cancel()
}

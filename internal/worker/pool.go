// Package worker provides a bounded goroutine pool for upstream lookups.
package worker

import (
	"context"
	"errors"
	"sync"

	"github.com/ewilliams-labs/moodmatch/internal/logging"
)

// ErrStopped is returned when work is offered to a stopped pool.
var ErrStopped = errors.New("worker: pool stopped")

// Job is a unit of work run on a pool goroutine.
type Job func()

// Pool runs jobs on a fixed number of goroutines fed by a bounded queue.
type Pool struct {
	jobs    chan Job
	wg      sync.WaitGroup
	workers int

	mu      sync.RWMutex
	stopped bool
	once    sync.Once
}

// NewPool creates a pool with the given worker count and queue size.
func NewPool(workers int, queueSize int) *Pool {
	if workers < 1 {
		workers = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &Pool{jobs: make(chan Job, queueSize), workers: workers}
}

// Workers is the number of goroutines Start launches.
func (p *Pool) Workers() int {
	return p.workers
}

// Start launches the worker goroutines.
func (p *Pool) Start() {
	for i := 0; i < p.workers; i++ {
		p.wg.Add(1)
		go func() {
			defer p.wg.Done()
			for job := range p.jobs {
				job()
			}
		}()
	}
}

// Stop closes the queue and waits for queued jobs to finish.
func (p *Pool) Stop() {
	p.once.Do(func() {
		p.mu.Lock()
		p.stopped = true
		close(p.jobs)
		p.mu.Unlock()
		p.wg.Wait()
	})
}

// Submit queues a job without blocking. It reports false when the job was dropped.
func (p *Pool) Submit(job Job) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return false
	}
	select {
	case p.jobs <- job:
		return true
	default:
		logging.Warn().Int("queue", cap(p.jobs)).Msg("worker: queue full, dropping job")
		return false
	}
}

// Map runs fn for every index in [0, n) on the pool and waits for all of them.
// Each call owns slot i of whatever the caller is filling, so no locking is
// needed between tasks. When ctx ends before every task is queued the
// remaining indexes are skipped and ctx's error is returned after the queued
// ones finish. Map must not be called from inside a pool job.
func (p *Pool) Map(ctx context.Context, n int, fn func(ctx context.Context, i int)) error {
	if n <= 0 {
		return nil
	}

	p.mu.RLock()
	defer p.mu.RUnlock()
	if p.stopped {
		return ErrStopped
	}

	var wg sync.WaitGroup
	var enqueueErr error
enqueue:
	for i := 0; i < n; i++ {
		if err := ctx.Err(); err != nil {
			enqueueErr = err
			break
		}
		idx := i
		wg.Add(1)
		job := func() {
			defer wg.Done()
			fn(ctx, idx)
		}
		select {
		case p.jobs <- job:
		case <-ctx.Done():
			wg.Done()
			enqueueErr = ctx.Err()
			break enqueue
		}
	}
	wg.Wait()
	return enqueueErr
}

// Package pool runs a fixed number of homogeneous workers, each fed through
// its own inbox.
package pool

import (
	"context"
	"errors"
	"fmt"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"github.com/zjrosen/haul/internal/events"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/task"
)

// DefaultSize is the number of workers when Config.Size is unset.
const DefaultSize = 2

// ErrPoolClosed is returned when dispatching to a closed pool.
var ErrPoolClosed = errors.New("worker pool is closed")

// ErrUnknownWorker is returned when dispatching to a worker ID outside the pool.
var ErrUnknownWorker = errors.New("unknown worker")

// Config holds configuration for the worker pool.
type Config struct {
	Size     int         // Number of workers (default: 2)
	Executor Executor    // Performs each task's work
	Events   events.Sink // Receives every worker's events
}

// Pool owns a fixed set of workers. The registry from WorkerID to inbox is
// built once in New and never changes.
type Pool struct {
	workers []*Worker
	ctx     context.Context
	cancel  context.CancelFunc
	closed  atomic.Bool
	wg      sync.WaitGroup
}

// New starts cfg.Size workers, each blocked on its inbox.
func New(cfg Config) (*Pool, error) {
	if cfg.Executor == nil {
		return nil, fmt.Errorf("worker pool has no executor configured")
	}
	if cfg.Events == nil {
		return nil, fmt.Errorf("worker pool has no event sink configured")
	}
	if cfg.Size <= 0 {
		cfg.Size = DefaultSize
	}

	ctx, cancel := context.WithCancel(context.Background())
	p := &Pool{
		workers: make([]*Worker, cfg.Size),
		ctx:     ctx,
		cancel:  cancel,
	}

	for i := range p.workers {
		w := newWorker(events.WorkerID(i), cfg.Executor, cfg.Events)
		p.workers[i] = w
		p.wg.Add(1)
		go p.runWorker(w)
	}

	log.Debug(log.CatPool, "Worker pool started", "size", cfg.Size)
	return p, nil
}

func (p *Pool) runWorker(w *Worker) {
	defer p.wg.Done()
	defer func() {
		// A crashed worker breaks the pool-size invariant; log and keep
		// panicking rather than respawn it.
		if r := recover(); r != nil {
			log.Error(log.CatPool, "Worker panic",
				"worker", w.ID,
				"panic", r,
				"stack", string(debug.Stack()))
			panic(r)
		}
	}()
	w.run(p.ctx)
}

// Size returns the number of workers.
func (p *Pool) Size() int {
	return len(p.workers)
}

// Dispatch hands t to the given worker. The caller is responsible for only
// dispatching to idle workers.
func (p *Pool) Dispatch(id events.WorkerID, t task.Task) error {
	if p.closed.Load() {
		return ErrPoolClosed
	}
	w := p.Worker(id)
	if w == nil {
		return fmt.Errorf("%w: %s", ErrUnknownWorker, id)
	}
	if err := w.inbox.Send(t); err != nil {
		return fmt.Errorf("dispatching %s to %s: %w", t.ID, id, err)
	}
	return nil
}

// Worker returns the worker with the given ID, or nil if out of range.
func (p *Pool) Worker(id events.WorkerID) *Worker {
	if id < 0 || int(id) >= len(p.workers) {
		return nil
	}
	return p.workers[id]
}

// Workers returns all workers ordered by ID.
func (p *Pool) Workers() []*Worker {
	out := make([]*Worker, len(p.workers))
	copy(out, p.workers)
	return out
}

// Close stops every worker and waits for them to exit. In-flight tasks are
// abandoned without emitting a terminal event. Only process teardown calls
// this; the control loop never does.
func (p *Pool) Close() {
	if p.closed.Swap(true) {
		return
	}
	log.Debug(log.CatPool, "Closing worker pool", "size", len(p.workers))
	now := time.Now()
	for _, w := range p.Workers() {
		if id, startedAt, ok := w.CurrentTask(); ok {
			log.Info(log.CatPool, "Abandoning in-flight task",
				"worker", w.ID, "task", id, "elapsed", now.Sub(startedAt), "processed", w.Processed())
			continue
		}
		log.Debug(log.CatPool, "Worker stopping", "worker", w.ID, "status", w.Status(), "processed", w.Processed())
	}
	p.cancel()
	for _, w := range p.workers {
		w.inbox.Close()
	}
	p.wg.Wait()
}

package pool

import (
	"context"
	"sync"
	"time"

	"github.com/zjrosen/haul/internal/events"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/queue"
	"github.com/zjrosen/haul/internal/task"
)

// WorkerStatus is a worker's position in its Idle -> Busy -> Idle cycle.
type WorkerStatus int

const (
	// WorkerIdle means the worker is blocked waiting for a task.
	WorkerIdle WorkerStatus = iota
	// WorkerBusy means the worker is executing a task.
	WorkerBusy
	// WorkerStopped means the worker goroutine has exited (pool closed).
	WorkerStopped
)

func (s WorkerStatus) String() string {
	switch s {
	case WorkerIdle:
		return "idle"
	case WorkerBusy:
		return "busy"
	case WorkerStopped:
		return "stopped"
	default:
		return "unknown"
	}
}

// Worker executes one task at a time from its private inbox and reports
// progress to the shared event sink. It never chooses its own work.
type Worker struct {
	ID    events.WorkerID
	inbox *queue.Mailbox[task.Task]
	exec  Executor
	sink  events.Sink

	mu            sync.RWMutex
	status        WorkerStatus
	taskID        task.ID
	taskStartedAt time.Time
	processed     int
}

func newWorker(id events.WorkerID, exec Executor, sink events.Sink) *Worker {
	return &Worker{
		ID:     id,
		inbox:  queue.NewMailbox[task.Task](),
		exec:   exec,
		sink:   sink,
		status: WorkerIdle,
	}
}

// Status returns the worker's current status.
func (w *Worker) Status() WorkerStatus {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.status
}

// CurrentTask returns the task being executed and when it started.
// ok is false unless the worker is busy.
func (w *Worker) CurrentTask() (id task.ID, startedAt time.Time, ok bool) {
	w.mu.RLock()
	defer w.mu.RUnlock()
	if w.status != WorkerBusy {
		return 0, time.Time{}, false
	}
	return w.taskID, w.taskStartedAt, true
}

// Processed returns how many tasks reached a terminal event on this worker.
func (w *Worker) Processed() int {
	w.mu.RLock()
	defer w.mu.RUnlock()
	return w.processed
}

func (w *Worker) setBusy(id task.ID) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = WorkerBusy
	w.taskID = id
	w.taskStartedAt = time.Now()
}

func (w *Worker) setIdle(finished bool) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = WorkerIdle
	w.taskStartedAt = time.Time{}
	if finished {
		w.processed++
	}
}

func (w *Worker) setStopped() {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.status = WorkerStopped
}

// run blocks on the inbox until ctx ends or the inbox is closed.
func (w *Worker) run(ctx context.Context) {
	defer w.setStopped()
	for {
		t, err := w.inbox.ReceiveContext(ctx)
		if err != nil {
			return
		}
		w.setBusy(t.ID)
		finished := w.process(ctx, t)
		w.setIdle(finished)
	}
}

// process executes t and emits its events. It returns false when the task
// was abandoned because the pool is shutting down.
func (w *Worker) process(ctx context.Context, t task.Task) bool {
	log.Debug(log.CatPool, "Task started", "worker", w.ID, "task", t.ID, "name", t.Name)

	last := -1.0
	report := func(percent float64) {
		if percent > 100 {
			percent = 100
		}
		// Progress must never go backwards for a task.
		if percent <= last {
			return
		}
		last = percent
		events.Emit(w.sink, events.ProgressUpdate{Worker: w.ID, Task: t.ID, Percent: percent})
	}

	err := w.exec.Execute(ctx, t, report)
	if ctx.Err() != nil {
		log.Debug(log.CatPool, "Task abandoned at shutdown", "worker", w.ID, "task", t.ID)
		return false
	}
	if err != nil {
		log.ErrorErr(log.CatPool, "Task failed", err, "worker", w.ID, "task", t.ID, "name", t.Name)
		events.Emit(w.sink, events.TaskError{Worker: w.ID, Task: t.ID, Message: err.Error()})
		return true
	}

	log.Debug(log.CatPool, "Task finished", "worker", w.ID, "task", t.ID)
	events.Emit(w.sink, events.TaskDone{Worker: w.ID, Task: t.ID})
	return true
}

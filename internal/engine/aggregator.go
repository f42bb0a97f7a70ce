package engine

import (
	"context"
	"fmt"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/zjrosen/haul/internal/events"
	"github.com/zjrosen/haul/internal/keys"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/task"
	"github.com/zjrosen/haul/internal/tracing"
)

// Config holds the Aggregator's collaborators and policies.
type Config struct {
	Backlog  *task.Backlog
	Pool     Dispatcher
	Events   Receiver
	Renderer Renderer
	Notifier Notifier

	// IsQuit reports whether an Input key ends the run.
	// Default: keys.DefaultKeyMap().IsQuit.
	IsQuit func(key string) bool

	// ErrorPolicy decides whether a worker whose task failed gets more work.
	ErrorPolicy ErrorPolicy

	// CoalesceProgress skips the redraw after a ProgressUpdate. The next
	// Tick redraws instead.
	CoalesceProgress bool

	// Tracer records a span per task. Default: no-op.
	Tracer trace.Tracer

	// Clock returns the current time. Default: time.Now.
	Clock func() time.Time
}

// Aggregator is the control loop. It is not safe for concurrent use: Start,
// Handle and Run must be called from a single goroutine.
type Aggregator struct {
	backlog  *task.Backlog
	pool     Dispatcher
	events   Receiver
	renderer Renderer
	notifier Notifier
	isQuit   func(string) bool
	policy   ErrorPolicy
	coalesce bool
	tracer   trace.Tracer
	now      func() time.Time

	ctx        context.Context
	inProgress map[events.WorkerID]task.InProgress
	spans      map[events.WorkerID]trace.Span
	total      int
	completed  int
	errored    int
	failures   []Failure
	outcome    Outcome
}

// New validates cfg and returns an Aggregator ready to Start.
func New(cfg Config) (*Aggregator, error) {
	if cfg.Backlog == nil {
		return nil, fmt.Errorf("aggregator has no backlog configured")
	}
	if cfg.Pool == nil {
		return nil, fmt.Errorf("aggregator has no worker pool configured")
	}
	if cfg.Events == nil {
		return nil, fmt.Errorf("aggregator has no event source configured")
	}
	if cfg.Renderer == nil {
		return nil, fmt.Errorf("aggregator has no renderer configured")
	}
	if cfg.Notifier == nil {
		return nil, fmt.Errorf("aggregator has no notifier configured")
	}

	if cfg.IsQuit == nil {
		cfg.IsQuit = keys.DefaultKeyMap().IsQuit
	}
	if cfg.Tracer == nil {
		cfg.Tracer = noop.NewTracerProvider().Tracer("noop")
	}
	if cfg.Clock == nil {
		cfg.Clock = time.Now
	}

	return &Aggregator{
		backlog:    cfg.Backlog,
		pool:       cfg.Pool,
		events:     cfg.Events,
		renderer:   cfg.Renderer,
		notifier:   cfg.Notifier,
		isQuit:     cfg.IsQuit,
		policy:     cfg.ErrorPolicy,
		coalesce:   cfg.CoalesceProgress,
		tracer:     cfg.Tracer,
		now:        cfg.Clock,
		ctx:        context.Background(),
		inProgress: make(map[events.WorkerID]task.InProgress, cfg.Pool.Size()),
		spans:      make(map[events.WorkerID]trace.Span, cfg.Pool.Size()),
		total:      cfg.Backlog.Len(),
	}, nil
}

// Run starts the pool and processes events until the run completes, stalls,
// or the user quits. Quitting does not wait for in-flight tasks.
//
// A closed event source returns ErrEventSourceClosed; a failed dispatch
// returns the dispatch error. Both are fatal to the run.
func (a *Aggregator) Run(ctx context.Context) (Result, error) {
	ctx, span := a.tracer.Start(ctx, tracing.SpanRun, trace.WithAttributes(
		attribute.Int(tracing.AttrRunTotal, a.total),
		attribute.Int(tracing.AttrRunWorkers, a.pool.Size()),
		attribute.String(tracing.AttrPolicy, a.policy.String()),
	))
	a.ctx = ctx
	defer func() {
		a.abandonSpans()
		span.SetAttributes(attribute.String(tracing.AttrRunOutcome, a.outcome.String()))
		span.End()
	}()

	log.Info(log.CatEngine, "Run started",
		"tasks", a.total, "workers", a.pool.Size(), "policy", a.policy)

	outcome, err := a.Start()
	if err != nil {
		span.SetStatus(codes.Error, err.Error())
		return a.Result(), err
	}

	for outcome == OutcomeRunning {
		ev, err := a.events.Receive()
		if err != nil {
			log.ErrorErr(log.CatEngine, "Event source closed mid-run", err)
			err = fmt.Errorf("%w: %v", ErrEventSourceClosed, err)
			span.SetStatus(codes.Error, err.Error())
			return a.Result(), err
		}

		outcome, err = a.Handle(ev)
		if err != nil {
			span.SetStatus(codes.Error, err.Error())
			return a.Result(), err
		}
	}

	log.Info(log.CatEngine, "Run finished",
		"outcome", outcome, "completed", a.completed, "errored", a.errored, "pending", a.backlog.Len())
	return a.Result(), nil
}

// Start gives each worker its first task. With an empty backlog the run is
// complete immediately.
func (a *Aggregator) Start() (Outcome, error) {
	for i := 0; i < a.pool.Size(); i++ {
		id := events.WorkerID(i)
		if err := a.feed(id); err != nil {
			return a.outcome, err
		}
	}

	if a.finished() {
		return a.complete(), nil
	}
	a.renderer.Render(a.Snapshot())
	return OutcomeRunning, nil
}

// Handle processes one event and reports whether the run should continue.
func (a *Aggregator) Handle(ev events.Event) (Outcome, error) {
	if a.outcome != OutcomeRunning {
		return a.outcome, nil
	}

	switch ev := ev.(type) {
	case events.Input:
		if a.isQuit(ev.Key) {
			log.Info(log.CatEngine, "Quit requested", "key", ev.Key, "inProgress", len(a.inProgress))
			a.outcome = OutcomeQuit
			return a.outcome, nil
		}

	case events.Resize:
		a.renderer.Resize(ev.Width, ev.Height)

	case events.Tick:

	case events.ProgressUpdate:
		a.progress(ev)
		if a.coalesce {
			return OutcomeRunning, nil
		}

	case events.TaskDone:
		entry, ok := a.release(ev.Worker, ev.Task, ev.Kind())
		if ok {
			a.completed++
			elapsed := entry.Elapsed(a.now())
			a.endSpan(ev.Worker, "")
			log.Debug(log.CatEngine, "Task done", "worker", ev.Worker, "task", entry.Name, "elapsed", elapsed)
			a.notifier.TaskCompleted(entry.Name, elapsed)

			if err := a.feed(ev.Worker); err != nil {
				return a.outcome, err
			}
		}

	case events.TaskError:
		entry, ok := a.release(ev.Worker, ev.Task, ev.Kind())
		if ok {
			a.errored++
			a.failures = append(a.failures, Failure{Task: entry.ID, Name: entry.Name, Message: ev.Message})
			a.endSpan(ev.Worker, ev.Message)
			log.Warn(log.CatEngine, "Task failed", "worker", ev.Worker, "task", entry.Name, "error", ev.Message)
			a.notifier.TaskFailed(entry.Name, ev.Message)

			if a.policy == ErrorPolicyRefeed {
				if err := a.feed(ev.Worker); err != nil {
					return a.outcome, err
				}
			}
		}

	default:
		panic(fmt.Sprintf("engine: unhandled event type %T", ev))
	}

	if a.finished() {
		return a.complete(), nil
	}
	if a.stalled() {
		return a.stall(), nil
	}

	a.renderer.Render(a.Snapshot())
	return OutcomeRunning, nil
}

// feed dispatches the next pending task to worker. With an empty backlog the
// worker stays idle.
func (a *Aggregator) feed(worker events.WorkerID) error {
	t, ok := a.backlog.Next()
	if !ok {
		log.Debug(log.CatEngine, "Worker idle", "worker", worker)
		return nil
	}

	a.inProgress[worker] = task.Claim(t, a.now())
	a.startSpan(worker, t)

	if err := a.pool.Dispatch(worker, t); err != nil {
		log.ErrorErr(log.CatEngine, "Dispatch failed", err, "worker", worker, "task", t.Name)
		return fmt.Errorf("dispatching %s to %s: %w", t.ID, worker, err)
	}
	log.Debug(log.CatEngine, "Task dispatched", "worker", worker, "task", t.Name, "id", t.ID)
	return nil
}

// release removes worker's entry if it still holds taskID.
func (a *Aggregator) release(worker events.WorkerID, taskID task.ID, kind string) (task.InProgress, bool) {
	entry, ok := a.inProgress[worker]
	if !ok || entry.ID != taskID {
		a.stale(worker, taskID, kind)
		return task.InProgress{}, false
	}
	delete(a.inProgress, worker)
	return entry, true
}

func (a *Aggregator) progress(ev events.ProgressUpdate) {
	entry, ok := a.inProgress[ev.Worker]
	if !ok || entry.ID != ev.Task {
		a.stale(ev.Worker, ev.Task, ev.Kind())
		return
	}
	if ev.Percent <= entry.Progress {
		return
	}
	entry.Progress = min(ev.Percent, 100)
	a.inProgress[ev.Worker] = entry
}

func (a *Aggregator) stale(worker events.WorkerID, taskID task.ID, kind string) {
	log.Debug(log.CatEngine, "Ignoring stale event", "event", kind, "worker", worker, "task", taskID)
	if span, ok := a.spans[worker]; ok {
		span.AddEvent(tracing.EventStaleIgnored, trace.WithAttributes(
			attribute.String("event.kind", kind),
			attribute.Int(tracing.AttrTaskID, int(taskID)),
		))
	}
}

func (a *Aggregator) finished() bool {
	return len(a.inProgress) == 0 && a.backlog.Len() == 0
}

// stalled is only reachable under ErrorPolicyLeaveIdle, when every worker
// has failed and pending tasks have nobody to run them.
func (a *Aggregator) stalled() bool {
	return len(a.inProgress) == 0 && a.backlog.Len() > 0
}

func (a *Aggregator) complete() Outcome {
	a.outcome = OutcomeComplete
	a.notifier.RunCompleted(a.Stats())
	return a.outcome
}

func (a *Aggregator) stall() Outcome {
	a.outcome = OutcomeStalled
	log.Warn(log.CatEngine, "Run stalled: no worker left to take pending tasks", "pending", a.backlog.Len())
	a.notifier.RunStalled(a.Stats())
	return a.outcome
}

func (a *Aggregator) startSpan(worker events.WorkerID, t task.Task) {
	attrs := []attribute.KeyValue{
		attribute.Int(tracing.AttrTaskID, int(t.ID)),
		attribute.String(tracing.AttrTaskName, t.Name),
		attribute.Int64(tracing.AttrTaskSize, int64(t.Size)),
		attribute.Int(tracing.AttrWorkerID, int(worker)),
	}
	if t.URL != "" {
		attrs = append(attrs, attribute.String(tracing.AttrTaskURL, t.URL))
	}
	_, span := a.tracer.Start(a.ctx, tracing.SpanTask, trace.WithAttributes(attrs...))
	span.AddEvent(tracing.EventTaskDispatched)
	a.spans[worker] = span
}

// endSpan closes worker's task span. A non-empty failure marks it errored.
func (a *Aggregator) endSpan(worker events.WorkerID, failure string) {
	span, ok := a.spans[worker]
	if !ok {
		return
	}
	delete(a.spans, worker)
	if failure != "" {
		span.SetAttributes(attribute.String(tracing.AttrErrorMsg, failure))
		span.SetStatus(codes.Error, failure)
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// abandonSpans closes spans for tasks still running when the loop exits.
func (a *Aggregator) abandonSpans() {
	for worker, span := range a.spans {
		span.SetStatus(codes.Unset, "abandoned")
		span.End()
		delete(a.spans, worker)
	}
}

// Stats returns the current counters.
func (a *Aggregator) Stats() Stats {
	return Stats{
		Pending:    a.backlog.Len(),
		InProgress: len(a.inProgress),
		Completed:  a.completed,
		Errored:    a.errored,
		Total:      a.total,
	}
}

// Snapshot copies the current state for rendering.
func (a *Aggregator) Snapshot() Snapshot {
	snap := Snapshot{
		Pending:   a.backlog.Len(),
		Completed: a.completed,
		Errored:   a.errored,
		Total:     a.total,
	}
	if len(a.inProgress) > 0 {
		snap.InProgress = make([]task.InProgress, 0, len(a.inProgress))
		for i := 0; i < a.pool.Size(); i++ {
			if entry, ok := a.inProgress[events.WorkerID(i)]; ok {
				snap.InProgress = append(snap.InProgress, entry)
			}
		}
	}
	return snap
}

// InProgress returns the task worker is running, if any.
func (a *Aggregator) InProgress(worker events.WorkerID) (task.InProgress, bool) {
	entry, ok := a.inProgress[worker]
	return entry, ok
}

// Result returns the run's outcome so far.
func (a *Aggregator) Result() Result {
	failures := make([]Failure, len(a.failures))
	copy(failures, a.failures)
	return Result{
		Outcome:  a.outcome,
		Stats:    a.Stats(),
		Failures: failures,
	}
}

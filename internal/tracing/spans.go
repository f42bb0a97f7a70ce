package tracing

// Span attribute keys.
const (
	AttrRunID      = "run.id"
	AttrRunTotal   = "run.total"
	AttrRunWorkers = "run.workers"
	AttrRunOutcome = "run.outcome"
	AttrTaskID     = "task.id"
	AttrTaskName   = "task.name"
	AttrTaskSize   = "task.size"
	AttrTaskURL    = "task.url"
	AttrWorkerID   = "worker.id"
	AttrErrorMsg   = "error.message"
	AttrPolicy     = "engine.error_policy"
)

// Span names.
const (
	SpanRun  = "haul.run"
	SpanTask = "haul.task"
)

// Span event names.
const (
	EventTaskDispatched = "task.dispatched"
	EventTaskProgress   = "task.progress"
	EventStaleIgnored   = "event.stale"
)

package pool

import (
	"context"

	"github.com/zjrosen/haul/internal/task"
)

// Executor performs a task's work. It calls report with the percentage done
// (0..100) as work proceeds and returns nil on success. Any error is the
// task's failure; the worker reports it and carries on.
//
// Implementations must return promptly once ctx is cancelled.
type Executor interface {
	Execute(ctx context.Context, t task.Task, report func(percent float64)) error
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, t task.Task, report func(percent float64)) error

// Execute calls f.
func (f ExecutorFunc) Execute(ctx context.Context, t task.Task, report func(percent float64)) error {
	return f(ctx, t, report)
}

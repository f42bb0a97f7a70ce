package executor

import (
	"context"

	"github.com/zjrosen/haul/internal/task"
)

// Auto downloads tasks that carry a URL and simulates the rest, so one
// manifest can mix both.
type Auto struct {
	Simulated *Simulated
	Download  *Download
}

// Execute implements pool.Executor.
func (a *Auto) Execute(ctx context.Context, t task.Task, report func(percent float64)) error {
	if t.URL != "" && a.Download != nil {
		return a.Download.Execute(ctx, t, report)
	}
	return a.Simulated.Execute(ctx, t, report)
}

// Package executor provides the pool's task executors: a simulated
// installer that works through a task's size in timed chunks, and an HTTP
// downloader.
package executor

import (
	"context"
	"time"

	"github.com/zjrosen/haul/internal/task"
)

const (
	// DefaultChunkUnits is the most work units processed per step.
	DefaultChunkUnits = 10
	// DefaultUnitDelay is the simulated cost of one work unit.
	DefaultUnitDelay = 15 * time.Millisecond
)

// Simulated pretends to install a package by sleeping UnitDelay per unit,
// ChunkUnits at a time, reporting progress after each chunk.
type Simulated struct {
	ChunkUnits uint
	UnitDelay  time.Duration
}

// NewSimulated returns a Simulated executor with default pacing.
func NewSimulated() *Simulated {
	return &Simulated{ChunkUnits: DefaultChunkUnits, UnitDelay: DefaultUnitDelay}
}

// Execute implements pool.Executor.
func (s *Simulated) Execute(ctx context.Context, t task.Task, report func(percent float64)) error {
	chunk := s.ChunkUnits
	if chunk == 0 {
		chunk = DefaultChunkUnits
	}

	remaining := t.Size
	for remaining > 0 {
		step := min(remaining, chunk)
		if err := sleep(ctx, time.Duration(step)*s.UnitDelay); err != nil {
			return err
		}
		remaining -= step
		report(float64((t.Size - remaining) * 100 / t.Size))
	}
	return nil
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

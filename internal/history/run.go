package history

import (
	"errors"
	"time"

	"github.com/zjrosen/haul/internal/engine"
)

// ErrRunNotFound is returned when no run has the requested ID.
var ErrRunNotFound = errors.New("run not found")

// Task result statuses.
const (
	StatusDone  = "done"
	StatusError = "error"
)

// Run is one invocation of `haul run`.
type Run struct {
	ID          string
	Manifest    string
	Workers     int
	ErrorPolicy string
	Outcome     string
	Stats       engine.Stats
	StartedAt   time.Time
	FinishedAt  *time.Time
}

// Finished reports whether the run reached a recorded outcome.
func (r Run) Finished() bool {
	return r.FinishedAt != nil
}

// Duration is the wall time between start and finish, zero while running.
func (r Run) Duration() time.Duration {
	if r.FinishedAt == nil {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// TaskResult is one task's terminal state within a run.
type TaskResult struct {
	RunID      string
	Name       string
	Status     string
	Message    string
	Elapsed    time.Duration
	FinishedAt time.Time
}

// RunRepository stores runs and their task results.
type RunRepository interface {
	Create(run *Run) error
	Finish(id, outcome string, stats engine.Stats, at time.Time) error
	AddResult(result TaskResult) error
	Get(id string) (*Run, error)
	Recent(limit int) ([]Run, error)
	Results(runID string) ([]TaskResult, error)
}

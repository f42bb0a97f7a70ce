// Package task defines the unit of work haul schedules and the backlog that
// hands tasks out in order.
package task

import (
	"fmt"
	"time"
)

// ID identifies a task for the lifetime of a run.
type ID int

func (id ID) String() string {
	return fmt.Sprintf("task-%d", int(id))
}

// Task is one independently completable unit of work. It is immutable once
// created.
type Task struct {
	ID   ID
	Name string
	// Size is the amount of work in units. For downloads it is the expected
	// byte count, or 0 when unknown.
	Size uint
	// URL is fetched by the download executor. Empty for simulated work.
	URL string
	// Installable marks downloaded artifacts for the post-run installer.
	Installable bool
}

// InProgress is a task that a worker has claimed.
type InProgress struct {
	ID        ID
	Name      string
	StartedAt time.Time
	Progress  float64 // percent, 0..100
}

// Claim records that t has started at now.
func Claim(t Task, now time.Time) InProgress {
	return InProgress{
		ID:        t.ID,
		Name:      t.Name,
		StartedAt: now,
	}
}

// Elapsed returns the time since the task was claimed.
func (p InProgress) Elapsed(now time.Time) time.Duration {
	return now.Sub(p.StartedAt)
}

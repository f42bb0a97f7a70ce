package engine

import "github.com/zjrosen/haul/internal/task"

// Stats counts tasks by state. Pending+InProgress+Completed+Errored always
// equals Total.
type Stats struct {
	Pending    int
	InProgress int
	Completed  int
	Errored    int
	Total      int
}

// Done is the number of tasks in a terminal state.
func (s Stats) Done() int {
	return s.Completed + s.Errored
}

// Conserved reports whether every task is accounted for exactly once.
func (s Stats) Conserved() bool {
	return s.Pending+s.InProgress+s.Completed+s.Errored == s.Total
}

// Snapshot is a read-only copy of run state handed to a Renderer.
type Snapshot struct {
	Pending    int
	InProgress []task.InProgress // ordered by worker ID
	Completed  int
	Errored    int
	Total      int
}

// Stats returns the snapshot's counters.
func (s Snapshot) Stats() Stats {
	return Stats{
		Pending:    s.Pending,
		InProgress: len(s.InProgress),
		Completed:  s.Completed,
		Errored:    s.Errored,
		Total:      s.Total,
	}
}

// Failure records a task that ended in TaskError.
type Failure struct {
	Task    task.ID
	Name    string
	Message string
}

// Result is what Run returns.
type Result struct {
	Outcome  Outcome
	Stats    Stats
	Failures []Failure
}

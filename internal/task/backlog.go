package task

// Backlog is the ordered set of tasks no worker has claimed yet.
// It is not safe for concurrent use; the control loop owns it.
type Backlog struct {
	pending []Task
}

// NewBacklog creates a backlog holding a copy of tasks in order.
func NewBacklog(tasks []Task) *Backlog {
	pending := make([]Task, len(tasks))
	copy(pending, tasks)
	return &Backlog{pending: pending}
}

// Next removes and returns the head of the backlog.
// Returns false when the backlog is empty.
func (b *Backlog) Next() (Task, bool) {
	if len(b.pending) == 0 {
		return Task{}, false
	}
	t := b.pending[0]
	b.pending[0] = Task{}
	b.pending = b.pending[1:]
	return t, true
}

// Len returns the number of pending tasks.
func (b *Backlog) Len() int {
	return len(b.pending)
}

// Pending returns a copy of the pending tasks in dispatch order.
func (b *Backlog) Pending() []Task {
	out := make([]Task, len(b.pending))
	copy(out, b.pending)
	return out
}

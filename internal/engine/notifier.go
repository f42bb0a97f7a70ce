package engine

import "time"

// MultiNotifier fans every notification out to each Notifier in order.
type MultiNotifier []Notifier

var _ Notifier = MultiNotifier(nil)

func (m MultiNotifier) TaskCompleted(name string, elapsed time.Duration) {
	for _, n := range m {
		n.TaskCompleted(name, elapsed)
	}
}

func (m MultiNotifier) TaskFailed(name, message string) {
	for _, n := range m {
		n.TaskFailed(name, message)
	}
}

func (m MultiNotifier) RunCompleted(stats Stats) {
	for _, n := range m {
		n.RunCompleted(stats)
	}
}

func (m MultiNotifier) RunStalled(stats Stats) {
	for _, n := range m {
		n.RunStalled(stats)
	}
}

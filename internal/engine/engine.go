// Package engine is haul's control loop. The Aggregator is the single
// consumer of every worker and input event, the only owner of the backlog and
// the in-progress registry, and the only component that dispatches work.
//
// Collaborators are reached through small interfaces so the loop can be
// driven deterministically in tests:
//
//	Dispatcher  delivers a task to one worker's inbox (pool.Pool)
//	Receiver    yields the next event (queue.Mailbox[events.Event])
//	Renderer    draws a Snapshot (tui.Inline, tui.Plain)
//	Notifier    receives completion and failure lines (tui, history)
package engine

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/zjrosen/haul/internal/events"
	"github.com/zjrosen/haul/internal/task"
)

// ErrEventSourceClosed is returned by Run when the event mailbox closes
// before the run ends. Nothing can make progress after that.
var ErrEventSourceClosed = errors.New("event source closed")

// ErrUnknownErrorPolicy is returned by ParseErrorPolicy.
var ErrUnknownErrorPolicy = errors.New("unknown error policy")

// Dispatcher hands a task to a specific worker.
type Dispatcher interface {
	Size() int
	Dispatch(worker events.WorkerID, t task.Task) error
}

// Receiver blocks until the next event arrives.
type Receiver interface {
	Receive() (events.Event, error)
}

// Renderer draws the current state.
type Renderer interface {
	Render(snap Snapshot)
	Resize(width, height int)
}

// Notifier receives one call per terminal task and one when the run ends.
type Notifier interface {
	TaskCompleted(name string, elapsed time.Duration)
	TaskFailed(name, message string)
	RunCompleted(stats Stats)
	RunStalled(stats Stats)
}

// Outcome is how a run ended.
type Outcome int

const (
	// OutcomeRunning means the loop should keep receiving.
	OutcomeRunning Outcome = iota
	// OutcomeComplete means every task reached a terminal state.
	OutcomeComplete
	// OutcomeQuit means the user pressed a quit key.
	OutcomeQuit
	// OutcomeStalled means tasks remain pending but no worker will take them.
	OutcomeStalled
)

func (o Outcome) String() string {
	switch o {
	case OutcomeRunning:
		return "running"
	case OutcomeComplete:
		return "complete"
	case OutcomeQuit:
		return "quit"
	case OutcomeStalled:
		return "stalled"
	default:
		return "unknown"
	}
}

// ErrorPolicy decides what happens to a worker after its task fails.
type ErrorPolicy int

const (
	// ErrorPolicyLeaveIdle leaves the worker idle for the rest of the run.
	ErrorPolicyLeaveIdle ErrorPolicy = iota
	// ErrorPolicyRefeed gives the worker the next pending task, as after a success.
	ErrorPolicyRefeed
)

func (p ErrorPolicy) String() string {
	switch p {
	case ErrorPolicyLeaveIdle:
		return "leave-idle"
	case ErrorPolicyRefeed:
		return "refeed"
	default:
		return "unknown"
	}
}

// ParseErrorPolicy maps a config value to an ErrorPolicy. Empty means
// leave-idle.
func ParseErrorPolicy(s string) (ErrorPolicy, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "leave-idle":
		return ErrorPolicyLeaveIdle, nil
	case "refeed":
		return ErrorPolicyRefeed, nil
	default:
		return ErrorPolicyLeaveIdle, fmt.Errorf("%w: %q (want leave-idle or refeed)", ErrUnknownErrorPolicy, s)
	}
}

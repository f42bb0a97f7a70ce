// Package events defines the messages that flow from workers and the input
// listener into the control loop.
//
// Event is a closed union: only the types in this file implement it. The
// control loop switches over them exhaustively and treats any other type as
// a programming error.
package events

import (
	"fmt"

	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/task"
)

// WorkerID identifies a pool slot. IDs run from 0 to pool size - 1.
type WorkerID int

func (id WorkerID) String() string {
	return fmt.Sprintf("worker-%d", int(id))
}

// Event is one message for the control loop.
type Event interface {
	// Kind names the variant for logs.
	Kind() string
	isEvent()
}

// Input is a key press, e.g. "q" or "ctrl+c".
type Input struct {
	Key string
}

// Tick is the heartbeat that bounds redraw latency.
type Tick struct{}

// Resize reports new terminal dimensions.
type Resize struct {
	Width  int
	Height int
}

// ProgressUpdate reports a task's completion percentage.
type ProgressUpdate struct {
	Worker  WorkerID
	Task    task.ID
	Percent float64
}

// TaskDone reports that a worker finished its task.
type TaskDone struct {
	Worker WorkerID
	Task   task.ID
}

// TaskError reports that a worker abandoned its task.
type TaskError struct {
	Worker  WorkerID
	Task    task.ID
	Message string
}

func (Input) Kind() string          { return "input" }
func (Tick) Kind() string           { return "tick" }
func (Resize) Kind() string         { return "resize" }
func (ProgressUpdate) Kind() string { return "progress" }
func (TaskDone) Kind() string       { return "done" }
func (TaskError) Kind() string      { return "error" }

func (Input) isEvent()          {}
func (Tick) isEvent()           {}
func (Resize) isEvent()         {}
func (ProgressUpdate) isEvent() {}
func (TaskDone) isEvent()       {}
func (TaskError) isEvent()      {}

// Sink accepts events. *queue.Mailbox[Event] is the production Sink.
type Sink interface {
	Send(Event) error
}

// Emit sends ev to sink. A failed send means the control loop's channel is
// gone; no producer can continue after that, so Emit panics.
func Emit(sink Sink, ev Event) {
	if err := sink.Send(ev); err != nil {
		log.ErrorErr(log.CatEngine, "Event channel disconnected", err, "event", ev.Kind())
		panic(fmt.Sprintf("haul: event channel disconnected while sending %s event: %v", ev.Kind(), err))
	}
}

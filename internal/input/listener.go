// Package input turns raw terminal input into control-loop events and
// produces the periodic Tick.
package input

import (
	"context"
	"errors"
	"time"

	"github.com/zjrosen/haul/internal/events"
	"github.com/zjrosen/haul/internal/log"
	"github.com/zjrosen/haul/internal/queue"
)

// DefaultTick is the heartbeat interval.
const DefaultTick = 200 * time.Millisecond

// Raw is an unprocessed terminal message. Exactly one of Key or Resize is set.
type Raw struct {
	Key    string
	Resize *events.Resize
}

// KeyRaw wraps a key name.
func KeyRaw(key string) Raw { return Raw{Key: key} }

// ResizeRaw wraps new terminal dimensions.
func ResizeRaw(width, height int) Raw {
	return Raw{Resize: &events.Resize{Width: width, Height: height}}
}

// Listener converts raw input into Input and Resize events and emits a Tick
// whenever Tick has elapsed since the last one.
type Listener struct {
	Tick   time.Duration
	Source *queue.Mailbox[Raw] // nil when there is no interactive terminal
	now    func() time.Time
}

// NewListener creates a Listener reading from source. A non-positive tick
// uses DefaultTick.
func NewListener(tick time.Duration, source *queue.Mailbox[Raw]) *Listener {
	if tick <= 0 {
		tick = DefaultTick
	}
	return &Listener{Tick: tick, Source: source, now: time.Now}
}

// Run loops until ctx is cancelled. Events go to sink through events.Emit,
// so a closed sink is fatal.
func (l *Listener) Run(ctx context.Context, sink events.Sink) {
	now := l.now
	if now == nil {
		now = time.Now
	}
	tick := l.Tick
	if tick <= 0 {
		tick = DefaultTick
	}

	source := l.Source
	lastTick := now()
	log.Debug(log.CatInput, "Input listener started", "tick", tick)

	for {
		wait := tick - now().Sub(lastTick)
		if wait < 0 {
			wait = 0
		}

		raw, err := receive(ctx, source, wait)
		if ctx.Err() != nil {
			log.Debug(log.CatInput, "Input listener stopped")
			return
		}
		switch {
		case err == nil:
			emitRaw(sink, raw)
			if !drain(source, sink) {
				source = nil
			}
		case errors.Is(err, queue.ErrClosed):
			log.Debug(log.CatInput, "Raw input source closed")
			source = nil
		}

		if now().Sub(lastTick) >= tick {
			events.Emit(sink, events.Tick{})
			lastTick = now()
		}
	}
}

// receive waits up to d for one raw message. With no source it just sleeps.
// A timeout is reported as context.DeadlineExceeded.
func receive(ctx context.Context, source *queue.Mailbox[Raw], d time.Duration) (Raw, error) {
	waitCtx, cancel := context.WithTimeout(ctx, d)
	defer cancel()

	if source == nil {
		<-waitCtx.Done()
		return Raw{}, waitCtx.Err()
	}
	return source.ReceiveContext(waitCtx)
}

// drain translates everything currently buffered in source. It returns false
// once source is closed and empty.
func drain(source *queue.Mailbox[Raw], sink events.Sink) bool {
	for {
		raw, ok, err := source.TryReceive()
		if err != nil {
			return false
		}
		if !ok {
			return true
		}
		emitRaw(sink, raw)
	}
}

func emitRaw(sink events.Sink, raw Raw) {
	switch {
	case raw.Resize != nil:
		events.Emit(sink, *raw.Resize)
	case raw.Key != "":
		events.Emit(sink, events.Input{Key: raw.Key})
	}
}

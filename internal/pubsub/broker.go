package pubsub

import (
	"context"
	"sync"
	"time"
)

const defaultBufferSize = 64

// OverflowPolicy decides what Publish does when a subscriber's buffer is full.
type OverflowPolicy int

const (
	// DropNewest discards the event being published.
	DropNewest OverflowPolicy = iota
	// DropOldest evicts the oldest buffered event to make room. Suits payloads
	// that are complete states, where only the latest one matters.
	DropOldest
)

// Broker is a generic pub/sub event broker.
// Publish never blocks; what happens on a full subscriber depends on the
// broker's OverflowPolicy.
type Broker[T any] struct {
	subs       map[chan Event[T]]struct{}
	mu         sync.RWMutex
	done       chan struct{}
	bufferSize int
	overflow   OverflowPolicy
}

// NewBroker creates a new broker with the default buffer size (64).
func NewBroker[T any]() *Broker[T] {
	return NewBrokerWithBuffer[T](defaultBufferSize)
}

// NewBrokerWithBuffer creates a new broker with a custom buffer size.
func NewBrokerWithBuffer[T any](size int) *Broker[T] {
	return newBroker[T](size, DropNewest)
}

// NewLatestBroker creates a broker whose subscribers hold at most size events
// and always receive the most recent ones.
func NewLatestBroker[T any](size int) *Broker[T] {
	return newBroker[T](size, DropOldest)
}

func newBroker[T any](size int, overflow OverflowPolicy) *Broker[T] {
	if size <= 0 {
		size = 1
	}
	return &Broker[T]{
		subs:       make(map[chan Event[T]]struct{}),
		done:       make(chan struct{}),
		bufferSize: size,
		overflow:   overflow,
	}
}

// Subscribe creates a new subscription channel.
// The channel is automatically closed when ctx is cancelled.
func (b *Broker[T]) Subscribe(ctx context.Context) <-chan Event[T] {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		ch := make(chan Event[T])
		close(ch)
		return ch
	default:
	}

	sub := make(chan Event[T], b.bufferSize)
	b.subs[sub] = struct{}{}

	go func() {
		select {
		case <-ctx.Done():
		case <-b.done:
			return
		}
		b.mu.Lock()
		defer b.mu.Unlock()

		select {
		case <-b.done:
			return // Already closed
		default:
		}

		delete(b.subs, sub)
		close(sub)
	}()

	return sub
}

// Publish sends an event to all subscribers without blocking.
func (b *Broker[T]) Publish(eventType EventType, payload T) {
	b.mu.RLock()
	defer b.mu.RUnlock()

	select {
	case <-b.done:
		return
	default:
	}

	event := Event[T]{
		Type:      eventType,
		Payload:   payload,
		Timestamp: time.Now(),
	}

	for sub := range b.subs {
		b.deliver(sub, event)
	}
}

func (b *Broker[T]) deliver(sub chan Event[T], event Event[T]) {
	select {
	case sub <- event:
		return
	default:
	}
	if b.overflow == DropNewest {
		return
	}
	// Evict one stale event, then retry once. A concurrent reader may have
	// already made room, in which case the eviction receive falls through.
	select {
	case <-sub:
	default:
	}
	select {
	case sub <- event:
	default:
	}
}

// Close shuts down the broker and all subscriber channels.
func (b *Broker[T]) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()

	select {
	case <-b.done:
		return // Already closed
	default:
	}

	close(b.done)
	for sub := range b.subs {
		close(sub)
	}
	b.subs = nil
}

// SubscriberCount returns the number of active subscribers.
func (b *Broker[T]) SubscriberCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.subs)
}

// Package queue provides the unbounded FIFO mailboxes that connect haul's
// goroutines.
package queue

import (
	"context"
	"errors"
	"sync"
)

// ErrClosed is returned when sending to a closed mailbox, or receiving from
// one that is closed and drained.
var ErrClosed = errors.New("mailbox closed")

// Mailbox is an unbounded multi-producer, single-consumer FIFO queue.
// Send never blocks. Values from one producer are received in the order that
// producer sent them; across producers the order is arrival order.
//
// Only one goroutine may receive at a time.
type Mailbox[T any] struct {
	mu      sync.Mutex
	entries []T
	closed  bool
	ready   chan struct{} // holds a token while entries may be non-empty
}

// NewMailbox creates an empty, open mailbox.
func NewMailbox[T any]() *Mailbox[T] {
	return &Mailbox[T]{ready: make(chan struct{}, 1)}
}

// Send appends v to the back of the mailbox.
func (m *Mailbox[T]) Send(v T) error {
	m.mu.Lock()
	if m.closed {
		m.mu.Unlock()
		return ErrClosed
	}
	m.entries = append(m.entries, v)
	m.mu.Unlock()

	m.wake()
	return nil
}

func (m *Mailbox[T]) wake() {
	select {
	case m.ready <- struct{}{}:
	default:
	}
}

// TryReceive removes the front value without blocking.
// ok is false when the mailbox is empty; err is ErrClosed once the mailbox is
// closed and empty.
func (m *Mailbox[T]) TryReceive() (v T, ok bool, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if len(m.entries) == 0 {
		if m.closed {
			return v, false, ErrClosed
		}
		return v, false, nil
	}

	v = m.entries[0]
	var zero T
	m.entries[0] = zero
	m.entries = m.entries[1:]
	if len(m.entries) == 0 {
		m.entries = nil
	}
	return v, true, nil
}

// Receive blocks until a value is available. Values still buffered when the
// mailbox is closed are delivered before ErrClosed.
func (m *Mailbox[T]) Receive() (T, error) {
	for {
		v, ok, err := m.TryReceive()
		if ok || err != nil {
			return v, err
		}
		<-m.ready
	}
}

// ReceiveContext is Receive bounded by ctx. It returns ctx.Err() when ctx
// ends first.
func (m *Mailbox[T]) ReceiveContext(ctx context.Context) (T, error) {
	for {
		v, ok, err := m.TryReceive()
		if ok || err != nil {
			return v, err
		}
		select {
		case <-m.ready:
		case <-ctx.Done():
			var zero T
			return zero, ctx.Err()
		}
	}
}

// Len returns the number of buffered values.
func (m *Mailbox[T]) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.entries)
}

// Close rejects further sends and wakes a blocked receiver. Idempotent.
func (m *Mailbox[T]) Close() {
	m.mu.Lock()
	m.closed = true
	m.mu.Unlock()
	m.wake()
}

package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"
)

func TestMailbox_FIFO(t *testing.T) {
	m := NewMailbox[int]()

	for i := 0; i < 5; i++ {
		if err := m.Send(i); err != nil {
			t.Fatalf("Send(%d) failed: %v", i, err)
		}
	}

	if m.Len() != 5 {
		t.Errorf("expected len 5, got %d", m.Len())
	}

	for i := 0; i < 5; i++ {
		v, err := m.Receive()
		if err != nil {
			t.Fatalf("Receive %d failed: %v", i, err)
		}
		if v != i {
			t.Errorf("Receive %d: expected %d, got %d", i, i, v)
		}
	}

	if m.Len() != 0 {
		t.Errorf("expected empty mailbox, got len %d", m.Len())
	}
}

func TestMailbox_TryReceiveEmpty(t *testing.T) {
	m := NewMailbox[string]()

	v, ok, err := m.TryReceive()
	if ok || err != nil || v != "" {
		t.Errorf("expected (\"\", false, nil), got (%q, %v, %v)", v, ok, err)
	}
}

func TestMailbox_ReceiveBlocksUntilSend(t *testing.T) {
	m := NewMailbox[string]()
	got := make(chan string, 1)

	go func() {
		v, err := m.Receive()
		if err != nil {
			t.Errorf("Receive failed: %v", err)
		}
		got <- v
	}()

	select {
	case v := <-got:
		t.Fatalf("Receive returned %q before any send", v)
	case <-time.After(20 * time.Millisecond):
	}

	if err := m.Send("hello"); err != nil {
		t.Fatalf("Send failed: %v", err)
	}

	select {
	case v := <-got:
		if v != "hello" {
			t.Errorf("expected hello, got %q", v)
		}
	case <-time.After(time.Second):
		t.Fatal("Receive did not wake up")
	}
}

func TestMailbox_SendAfterClose(t *testing.T) {
	m := NewMailbox[int]()
	m.Close()
	m.Close() // idempotent

	if err := m.Send(1); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed, got %v", err)
	}
}

func TestMailbox_CloseDrainsThenFails(t *testing.T) {
	m := NewMailbox[int]()
	_ = m.Send(1)
	_ = m.Send(2)
	m.Close()

	for _, want := range []int{1, 2} {
		v, err := m.Receive()
		if err != nil || v != want {
			t.Fatalf("expected (%d, nil), got (%d, %v)", want, v, err)
		}
	}

	if _, err := m.Receive(); !errors.Is(err, ErrClosed) {
		t.Errorf("expected ErrClosed after drain, got %v", err)
	}
}

func TestMailbox_CloseWakesReceiver(t *testing.T) {
	m := NewMailbox[int]()
	errc := make(chan error, 1)

	go func() {
		_, err := m.Receive()
		errc <- err
	}()

	time.Sleep(10 * time.Millisecond)
	m.Close()

	select {
	case err := <-errc:
		if !errors.Is(err, ErrClosed) {
			t.Errorf("expected ErrClosed, got %v", err)
		}
	case <-time.After(time.Second):
		t.Fatal("Close did not wake the receiver")
	}
}

func TestMailbox_ReceiveContextCancelled(t *testing.T) {
	m := NewMailbox[int]()
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	_, err := m.ReceiveContext(ctx)
	if !errors.Is(err, context.DeadlineExceeded) {
		t.Errorf("expected deadline exceeded, got %v", err)
	}
}

func TestMailbox_PerProducerOrder(t *testing.T) {
	type msg struct {
		producer int
		seq      int
	}
	const producers = 4
	const perProducer = 500

	m := NewMailbox[msg]()
	var wg sync.WaitGroup
	for p := 0; p < producers; p++ {
		wg.Add(1)
		go func(p int) {
			defer wg.Done()
			for i := 0; i < perProducer; i++ {
				_ = m.Send(msg{producer: p, seq: i})
			}
		}(p)
	}

	last := make([]int, producers)
	for i := range last {
		last[i] = -1
	}
	for i := 0; i < producers*perProducer; i++ {
		v, err := m.Receive()
		if err != nil {
			t.Fatalf("Receive failed: %v", err)
		}
		if v.seq != last[v.producer]+1 {
			t.Fatalf("producer %d: expected seq %d, got %d", v.producer, last[v.producer]+1, v.seq)
		}
		last[v.producer] = v.seq
	}
	wg.Wait()
}

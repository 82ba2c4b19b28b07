package eventbus

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func TestDeliversToSubscribers(t *testing.T) {
	b := New()
	defer b.Close(context.Background())

	got := make(chan Event, 1)
	b.Subscribe(EventTypeResourceLoaded, func(e Event) {
		got <- e
	})

	b.Publish(Event{
		Type: EventTypeResourceLoaded,
		Data: map[string]interface{}{"url": "https://example.com/a.lua"},
	})

	select {
	case e := <-got:
		if e.Data["url"] != "https://example.com/a.lua" {
			t.Errorf("unexpected event data: %v", e.Data)
		}
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received event")
	}
}

func TestIgnoresUnsubscribedTypes(t *testing.T) {
	b := NewWithConfig(1, 4)
	defer b.Close(context.Background())

	got := make(chan Event, 1)
	b.Subscribe(EventTypeBatchFailed, func(e Event) {
		got <- e
	})

	b.Publish(Event{Type: EventTypeResourceLoading})

	select {
	case <-got:
		t.Error("handler fired for a type it never subscribed to")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestCloseDrainsQueuedEvents(t *testing.T) {
	b := NewWithConfig(2, 100)

	var handled int64
	b.Subscribe(EventTypeResourceLoaded, func(Event) {
		atomic.AddInt64(&handled, 1)
	})

	const total = 50
	for i := 0; i < total; i++ {
		b.Publish(Event{Type: EventTypeResourceLoaded})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	b.Close(ctx)

	if n := atomic.LoadInt64(&handled); n != total {
		t.Errorf("expected %d handled events after close, got %d", total, n)
	}
}

func TestPublishDuringCloseDoesNotPanic(t *testing.T) {
	b := NewWithConfig(2, 4)
	b.Subscribe(EventTypeResourceLoaded, func(Event) {})

	var wg sync.WaitGroup
	start := make(chan struct{})
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			<-start
			for j := 0; j < 200; j++ {
				b.Publish(Event{Type: EventTypeResourceLoaded})
			}
		}()
	}

	close(start)
	b.Close(context.Background())
	wg.Wait()

	// Publish after close must also stay safe, events are simply dropped.
	b.Publish(Event{Type: EventTypeResourceLoaded})
}

func TestCloseIsIdempotent(t *testing.T) {
	b := New()
	b.Close(context.Background())
	b.Close(context.Background())
}

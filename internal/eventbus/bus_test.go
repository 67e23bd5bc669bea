package eventbus

import (
	"testing"
	"time"
)

func recvWithTimeout(t *testing.T, ch <-chan Event) Event {
	t.Helper()
	select {
	case ev := <-ch:
		return ev
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishDeliversToSubscriber(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	defer sub.Unsubscribe()

	b.Publish(Event{Kind: KindStatusChange, Payload: StatusChangePayload{ID: "a"}})

	ev := recvWithTimeout(t, sub.Events())
	if ev.Kind != KindStatusChange {
		t.Errorf("Kind = %v, want KindStatusChange", ev.Kind)
	}
}

func TestPublishFansOutToMultipleSubscribers(t *testing.T) {
	b := New()
	sub1 := b.Subscribe()
	sub2 := b.Subscribe()
	defer sub1.Unsubscribe()
	defer sub2.Unsubscribe()

	b.Publish(Event{Kind: KindQueueUpdate})

	recvWithTimeout(t, sub1.Events())
	recvWithTimeout(t, sub2.Events())
}

func TestPublishWithNoSubscribersDoesNotBlock(t *testing.T) {
	b := New()
	done := make(chan struct{})
	go func() {
		b.Publish(Event{Kind: KindError})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked with no subscribers")
	}
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	sub.Unsubscribe()

	done := make(chan struct{})
	go func() {
		b.Publish(Event{Kind: KindStatusChange})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked after Unsubscribe")
	}
}

// TestProgressDropsOldestWhenFull floods a subscriber's progress buffer
// without draining it, then checks that publishing never blocks and that
// the most recent progress event is still the one eventually delivered.
func TestProgressDropsOldestWhenFull(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	defer sub.Unsubscribe()

	const flood = progressBufferSize * 4
	done := make(chan struct{})
	go func() {
		for i := 0; i < flood; i++ {
			b.Publish(Event{
				Kind:    KindProgress,
				Payload: ProgressPayload{ID: "a", Progress: ProgressDetails{Percentage: float64(i)}},
			})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("flooding progress events blocked")
	}

	var last Event
	draining := true
	for draining {
		select {
		case ev := <-sub.Events():
			last = ev
		case <-time.After(100 * time.Millisecond):
			draining = false
		}
	}
	payload, ok := last.Payload.(ProgressPayload)
	if !ok {
		t.Fatalf("last event payload = %#v, want ProgressPayload", last.Payload)
	}
	if payload.Progress.Percentage != float64(flood-1) {
		t.Errorf("last delivered percentage = %v, want %v", payload.Progress.Percentage, flood-1)
	}
}

// TestReliableEventsNeverDropped publishes far more status-change events
// than the progress buffer size and checks every single one is delivered.
func TestReliableEventsNeverDropped(t *testing.T) {
	b := New()
	sub := b.Subscribe()
	defer sub.Unsubscribe()

	const count = progressBufferSize * 4
	for i := 0; i < count; i++ {
		b.Publish(Event{Kind: KindStatusChange})
	}

	received := 0
	for received < count {
		select {
		case <-sub.Events():
			received++
		case <-time.After(time.Second):
			t.Fatalf("only received %d/%d reliable events", received, count)
		}
	}
}

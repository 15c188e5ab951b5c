package eventbus

import (
	"testing"
	"time"

	"pkt.systems/termdeck/schema"
)

func TestSubscribeAndPublish(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("alice")
	defer cancel()

	event := schema.WorkspaceEvent{UserID: "alice", Type: schema.TabEventCreated, TabID: "tab-1", Seq: 1}
	bus.OnWorkspaceEvent(event)

	select {
	case got := <-ch:
		if got.Type != schema.TabEventCreated {
			t.Fatalf("expected created event, got %v", got.Type)
		}
		if got.UserID != event.UserID || got.TabID != event.TabID || got.Seq != 1 {
			t.Fatalf("unexpected payload: %+v", got)
		}
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("timed out waiting for event")
	}
}

func TestPublishIsScopedToUser(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("bob")
	defer cancel()

	bus.OnWorkspaceEvent(schema.WorkspaceEvent{UserID: "alice", Type: schema.TabEventClosed})
	select {
	case got := <-ch:
		t.Fatalf("bob received alice's event: %+v", got)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestUnsubscribeClosesChannel(t *testing.T) {
	bus := New(nil)
	ch, cancel := bus.Subscribe("alice")
	if bus.Subscribers("alice") != 1 {
		t.Fatalf("expected one subscriber")
	}
	cancel()
	if _, ok := <-ch; ok {
		t.Fatalf("expected channel to be closed")
	}
	if bus.Subscribers("alice") != 0 {
		t.Fatalf("expected subscriber to be removed")
	}
}

func TestPublishDoesNotBlockWhenFull(t *testing.T) {
	bus := New(nil)
	bus.depth = 1
	_, cancel := bus.Subscribe("alice")
	defer cancel()

	var sendCh chan Event
	bus.mu.Lock()
	for ch := range bus.subs["alice"] {
		sendCh = ch
		break
	}
	bus.mu.Unlock()
	if sendCh == nil {
		t.Fatalf("expected subscriber channel")
	}
	sendCh <- Event{Type: schema.TabEventCreated}
	done := make(chan struct{})
	go func() {
		bus.OnWorkspaceEvent(schema.WorkspaceEvent{UserID: "alice"})
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(500 * time.Millisecond):
		t.Fatalf("publish blocked on full channel")
	}
}

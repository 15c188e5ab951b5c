package eventbus

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

// Event carries a workspace change to UI subscribers.
type Event = schema.WorkspaceEvent

// Bus fanouts events to per-user subscribers. Publishing never blocks: a
// subscriber whose buffer is full misses the event and is expected to
// resynchronise from the next one, which carries the full workspace.
type Bus struct {
	mu    sync.Mutex
	subs  map[schema.UserID]map[chan Event]struct{}
	log   pslog.Logger
	depth int
}

// New constructs a Bus.
func New(logger pslog.Logger) *Bus {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Bus{
		subs:  make(map[schema.UserID]map[chan Event]struct{}),
		log:   logger,
		depth: 256,
	}
}

// Subscribe registers a subscriber for the user and returns a channel + cancel.
func (b *Bus) Subscribe(userID schema.UserID) (<-chan Event, func()) {
	if b == nil {
		return nil, func() {}
	}
	ch := make(chan Event, b.depth)
	b.mu.Lock()
	userSubs := b.subs[userID]
	if userSubs == nil {
		userSubs = make(map[chan Event]struct{})
		b.subs[userID] = userSubs
	}
	userSubs[ch] = struct{}{}
	count := len(userSubs)
	b.mu.Unlock()
	if b.log != nil {
		b.log.With("user", userID).Debug("eventbus subscribe", "subs", count)
	}
	return ch, func() {
		b.mu.Lock()
		if subs := b.subs[userID]; subs != nil {
			delete(subs, ch)
			if len(subs) == 0 {
				delete(b.subs, userID)
			}
		}
		b.mu.Unlock()
		close(ch)
		if b.log != nil {
			b.log.With("user", userID).Debug("eventbus unsubscribe")
		}
	}
}

// OnWorkspaceEvent publishes a workspace event to the user's subscribers.
func (b *Bus) OnWorkspaceEvent(event schema.WorkspaceEvent) {
	b.publish(event.UserID, event)
}

// Subscribers returns the number of live subscriptions for the user.
func (b *Bus) Subscribers(userID schema.UserID) int {
	if b == nil {
		return 0
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.subs[userID])
}

func (b *Bus) publish(userID schema.UserID, event Event) {
	if b == nil {
		return
	}
	b.mu.Lock()
	userSubs := b.subs[userID]
	subs := make([]chan Event, 0, len(userSubs))
	for sub := range userSubs {
		subs = append(subs, sub)
	}
	b.mu.Unlock()
	if len(subs) == 0 {
		return
	}
	dropped := 0
	for _, sub := range subs {
		select {
		case sub <- event:
		default:
			dropped++
		}
	}
	if dropped > 0 && b.log != nil {
		b.log.With("user", userID).Trace("eventbus dropped", "count", dropped, "seq", event.Seq)
	}
}

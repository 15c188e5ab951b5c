// Package notify runs the follow-ups a workspace mutation asks for once the
// caller has made the new state visible.
package notify

import (
	"context"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/schema"
)

// Handler reacts to one deferred effect.
type Handler func(ctx context.Context, effect schema.Effect)

// Queue holds effects until Flush. Handlers are registered per signal.
type Queue struct {
	mu       sync.Mutex
	pending  []schema.Effect
	handlers map[schema.Signal][]Handler
	log      pslog.Logger
}

// NewQueue constructs an empty queue.
func NewQueue(logger pslog.Logger) *Queue {
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &Queue{
		handlers: make(map[schema.Signal][]Handler),
		log:      logger,
	}
}

// On registers a handler for a signal.
func (q *Queue) On(signal schema.Signal, handler Handler) {
	if handler == nil {
		return
	}
	q.mu.Lock()
	q.handlers[signal] = append(q.handlers[signal], handler)
	q.mu.Unlock()
}

// Defer enqueues effects for the next Flush.
func (q *Queue) Defer(effects ...schema.Effect) {
	if len(effects) == 0 {
		return
	}
	q.mu.Lock()
	q.pending = append(q.pending, effects...)
	q.mu.Unlock()
}

// Pending returns the number of queued effects.
func (q *Queue) Pending() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.pending)
}

// Flush runs every queued effect in enqueue order and returns how many ran.
// Effects deferred by a handler wait for the next Flush.
func (q *Queue) Flush(ctx context.Context) int {
	q.mu.Lock()
	batch := q.pending
	q.pending = nil
	handlers := make(map[schema.Signal][]Handler, len(q.handlers))
	for signal, list := range q.handlers {
		handlers[signal] = append([]Handler(nil), list...)
	}
	q.mu.Unlock()

	for _, effect := range batch {
		list := handlers[effect.Signal]
		if len(list) == 0 {
			q.log.Trace("notify effect unhandled", "signal", effect.Signal, "tab", effect.TabID)
			continue
		}
		for _, handler := range list {
			handler(ctx, effect)
		}
	}
	if len(batch) > 0 {
		q.log.Trace("notify flushed", "effects", len(batch))
	}
	return len(batch)
}

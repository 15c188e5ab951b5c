package core

import "pkt.systems/termdeck/schema"

// EventSink receives workspace events from the core service. It is called
// after the mutation is committed and outside the service lock.
type EventSink interface {
	OnWorkspaceEvent(event schema.WorkspaceEvent)
}

package schema

// WorkspaceEventType describes what changed in a workspace.
type WorkspaceEventType string

const (
	// TabEventCreated indicates a tab was created or duplicated.
	TabEventCreated WorkspaceEventType = "tab_created"
	// TabEventClosed indicates a tab was closed.
	TabEventClosed WorkspaceEventType = "tab_closed"
	// TabEventActivated indicates the active tab changed.
	TabEventActivated WorkspaceEventType = "tab_activated"
	// TabEventRenamed indicates a tab title changed.
	TabEventRenamed WorkspaceEventType = "tab_renamed"
	// TabEventReordered indicates the tab order changed.
	TabEventReordered WorkspaceEventType = "tab_reordered"
	// PaneEventSplit indicates a pane was added to a tab.
	PaneEventSplit WorkspaceEventType = "pane_split"
	// PaneEventClosed indicates a pane was removed from a tab.
	PaneEventClosed WorkspaceEventType = "pane_closed"
	// PaneEventFocused indicates the active pane of a tab changed.
	PaneEventFocused WorkspaceEventType = "pane_focused"
	// PaneEventConnection indicates a pane connection flag changed.
	PaneEventConnection WorkspaceEventType = "pane_connection"
)

// WorkspaceEvent is published after every applied mutation. Workspace is
// the complete state after the change.
type WorkspaceEvent struct {
	UserID    UserID
	Type      WorkspaceEventType
	TabID     TabID
	PaneID    PaneID
	Seq       uint64
	Workspace WorkspaceSnapshot
}

// Signal names a follow-up a caller runs once the new state is visible.
type Signal string

const (
	// SignalSelectionChanged asks the UI to refresh whatever depends on the
	// active tab (focus, terminal resize) after a close moved the selection.
	SignalSelectionChanged Signal = "selection_changed"
	// SignalLayoutChanged asks the UI to re-measure pane geometry.
	SignalLayoutChanged Signal = "layout_changed"
)

// Effect is a deferred follow-up produced by a mutation.
type Effect struct {
	Signal Signal
	UserID UserID
	TabID  TabID
}

package schema

// PaneSnapshot is a read-only view of a pane.
type PaneSnapshot struct {
	ID        PaneID
	SessionID SessionID
	Host      Host
	Type      PaneType
	Connected bool
}

// TabSnapshot is a read-only view of tab state for transports.
//
// SessionID, Host and Type mirror the first pane. Connected is true only
// when every pane is connected.
type TabSnapshot struct {
	ID         TabID
	Title      TabTitle
	Panes      []PaneSnapshot
	ActivePane PaneID
	Layout     SplitLayout
	SessionID  SessionID
	Host       Host
	Type       PaneType
	Connected  bool
	Active     bool
}

// Pane returns the pane with the given id.
func (t TabSnapshot) Pane(id PaneID) (PaneSnapshot, bool) {
	for _, pane := range t.Panes {
		if pane.ID == id {
			return pane, true
		}
	}
	return PaneSnapshot{}, false
}

// WorkspaceSnapshot is the ordered tab list of a user plus the selection.
// Seq increases with every applied mutation.
type WorkspaceSnapshot struct {
	UserID    UserID
	Tabs      []TabSnapshot
	ActiveTab TabID
	Seq       uint64
}

// Tab returns the tab with the given id.
func (w WorkspaceSnapshot) Tab(id TabID) (TabSnapshot, bool) {
	for _, tab := range w.Tabs {
		if tab.ID == id {
			return tab, true
		}
	}
	return TabSnapshot{}, false
}

// Active returns the active tab, if any.
func (w WorkspaceSnapshot) Active() (TabSnapshot, bool) {
	if w.ActiveTab == "" {
		return TabSnapshot{}, false
	}
	return w.Tab(w.ActiveTab)
}

// IndexOf returns the position of the tab in the order, or -1.
func (w WorkspaceSnapshot) IndexOf(id TabID) int {
	for i, tab := range w.Tabs {
		if tab.ID == id {
			return i
		}
	}
	return -1
}

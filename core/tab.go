package core

import "pkt.systems/termdeck/schema"

// pane is one terminal surface inside a tab.
type pane struct {
	ID        schema.PaneID
	SessionID schema.SessionID
	Host      schema.Host
	Type      schema.PaneType
	Connected bool
}

func newPane(host schema.Host, paneType schema.PaneType) pane {
	return pane{
		ID:        nextPaneID(),
		SessionID: nextSessionID(),
		Host:      host,
		Type:      paneType,
	}
}

func (p pane) snapshot() schema.PaneSnapshot {
	return schema.PaneSnapshot{
		ID:        p.ID,
		SessionID: p.SessionID,
		Host:      p.Host,
		Type:      p.Type,
		Connected: p.Connected,
	}
}

// tab is an immutable value. Mutations build a new tab through the with*
// helpers, which always end in derive.
type tab struct {
	ID         schema.TabID
	Title      schema.TabTitle
	panes      []pane
	activePane schema.PaneID
	layout     schema.SplitLayout

	// Mirrors of panes[0] and the aggregate connection flag.
	sessionID schema.SessionID
	host      schema.Host
	paneType  schema.PaneType
	connected bool
}

func newTab(title schema.TabTitle, first pane) tab {
	return tab{
		ID:         nextTabID(),
		Title:      title,
		panes:      []pane{first},
		activePane: first.ID,
		layout:     schema.LayoutNone,
	}.derive()
}

// derive recomputes every field that is a function of the pane list.
func (t tab) derive() tab {
	if len(t.panes) == 1 {
		t.layout = schema.LayoutNone
	} else if t.layout == schema.LayoutNone || t.layout == "" {
		t.layout = schema.LayoutVertical
	}
	if t.paneIndex(t.activePane) < 0 {
		t.activePane = t.panes[0].ID
	}
	first := t.panes[0]
	t.sessionID = first.SessionID
	t.host = first.Host
	t.paneType = first.Type
	t.connected = true
	for _, p := range t.panes {
		t.connected = t.connected && p.Connected
	}
	return t
}

func (t tab) paneIndex(id schema.PaneID) int {
	for i, p := range t.panes {
		if p.ID == id {
			return i
		}
	}
	return -1
}

// sourcePane is the pane a split copies from: the active pane, or the first
// pane if the active id went stale.
func (t tab) sourcePane() pane {
	if idx := t.paneIndex(t.activePane); idx >= 0 {
		return t.panes[idx]
	}
	return t.panes[0]
}

func (t tab) withTitle(title schema.TabTitle) tab {
	t.Title = title
	return t
}

func (t tab) withSplit(direction schema.SplitLayout, added pane) tab {
	panes := make([]pane, 0, len(t.panes)+1)
	panes = append(panes, t.panes...)
	t.panes = append(panes, added)
	t.activePane = added.ID
	t.layout = direction
	return t.derive()
}

// withoutPane removes the pane at idx. The caller guarantees at least two
// panes. If the removed pane was active the neighbour before it, or the new
// first pane, becomes active.
func (t tab) withoutPane(idx int) tab {
	removed := t.panes[idx].ID
	panes := make([]pane, 0, len(t.panes)-1)
	panes = append(panes, t.panes[:idx]...)
	t.panes = append(panes, t.panes[idx+1:]...)
	if t.activePane == removed {
		t.activePane = t.panes[max(0, idx-1)].ID
	}
	return t.derive()
}

func (t tab) withActivePane(id schema.PaneID) tab {
	t.activePane = id
	return t
}

func (t tab) withConnection(idx int, connected bool) tab {
	panes := make([]pane, len(t.panes))
	copy(panes, t.panes)
	panes[idx].Connected = connected
	t.panes = panes
	return t.derive()
}

// Snapshot returns a transport-friendly view of the tab.
func (t tab) Snapshot(active bool) schema.TabSnapshot {
	panes := make([]schema.PaneSnapshot, len(t.panes))
	for i, p := range t.panes {
		panes[i] = p.snapshot()
	}
	return schema.TabSnapshot{
		ID:         t.ID,
		Title:      t.Title,
		Panes:      panes,
		ActivePane: t.activePane,
		Layout:     t.layout,
		SessionID:  t.sessionID,
		Host:       t.host,
		Type:       t.paneType,
		Connected:  t.connected,
		Active:     active,
	}
}

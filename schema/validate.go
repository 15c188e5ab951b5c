package schema

import (
	"errors"
	"fmt"
)

// ErrInvariant wraps every workspace consistency violation.
var ErrInvariant = errors.New("workspace invariant violated")

// ValidateWorkspace checks the structural rules every workspace must obey
// and returns all violations joined.
func ValidateWorkspace(ws WorkspaceSnapshot) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvariant}, args...)...))
	}
	if len(ws.Tabs) == 0 && ws.ActiveTab != "" {
		fail("active tab %q set with no tabs", ws.ActiveTab)
	}
	if len(ws.Tabs) > 0 {
		if ws.ActiveTab == "" {
			fail("no active tab with %d tabs", len(ws.Tabs))
		} else if ws.IndexOf(ws.ActiveTab) < 0 {
			fail("active tab %q not in workspace", ws.ActiveTab)
		}
	}
	tabIDs := make(map[TabID]struct{}, len(ws.Tabs))
	paneIDs := make(map[PaneID]struct{})
	sessions := make(map[SessionID]struct{})
	for _, tab := range ws.Tabs {
		if _, dup := tabIDs[tab.ID]; dup {
			fail("duplicate tab id %q", tab.ID)
		}
		tabIDs[tab.ID] = struct{}{}
		if tab.Active != (tab.ID == ws.ActiveTab) {
			fail("tab %q active flag mismatch", tab.ID)
		}
		if err := ValidateTab(tab); err != nil {
			errs = append(errs, err)
		}
		for _, pane := range tab.Panes {
			if _, dup := paneIDs[pane.ID]; dup {
				fail("duplicate pane id %q", pane.ID)
			}
			paneIDs[pane.ID] = struct{}{}
			if _, dup := sessions[pane.SessionID]; dup {
				fail("duplicate session id %q", pane.SessionID)
			}
			sessions[pane.SessionID] = struct{}{}
		}
	}
	return errors.Join(errs...)
}

// ValidateTab checks the derived fields of a single tab.
func ValidateTab(tab TabSnapshot) error {
	var errs []error
	fail := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: tab %q: "+format, append([]any{ErrInvariant, tab.ID}, args...)...))
	}
	if len(tab.Panes) == 0 {
		fail("has no panes")
		return errors.Join(errs...)
	}
	if _, ok := tab.Pane(tab.ActivePane); !ok {
		fail("active pane %q not in tab", tab.ActivePane)
	}
	if (tab.Layout == LayoutNone) != (len(tab.Panes) == 1) {
		fail("layout %q with %d panes", tab.Layout, len(tab.Panes))
	}
	first := tab.Panes[0]
	if tab.SessionID != first.SessionID || tab.Host != first.Host || tab.Type != first.Type {
		fail("mirror fields differ from first pane")
	}
	connected := true
	for _, pane := range tab.Panes {
		connected = connected && pane.Connected
	}
	if tab.Connected != connected {
		fail("connected=%v but panes aggregate to %v", tab.Connected, connected)
	}
	return errors.Join(errs...)
}

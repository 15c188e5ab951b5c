package schema

import (
	"fmt"
	"strings"
)

// Shortcut binds a UI action to a key chord.
type Shortcut struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Key         string `json:"key"`
	Meta        bool   `json:"metaKey"`
	Shift       bool   `json:"shiftKey"`
	Alt         bool   `json:"altKey"`
	Category    string `json:"category"`
}

// RecordID implements Record.
func (s Shortcut) RecordID() string { return s.ID }

// WithRecordID implements Record.
func (s Shortcut) WithRecordID(id string) Shortcut {
	s.ID = id
	return s
}

// Display renders the chord the way menus show it, for example ⌘⇧E.
func (s Shortcut) Display() string {
	var b strings.Builder
	if s.Meta {
		b.WriteString("⌘")
	}
	if s.Shift {
		b.WriteString("⇧")
	}
	if s.Alt {
		b.WriteString("⌥")
	}
	b.WriteString(strings.ToUpper(s.Key))
	return b.String()
}

// ShortcutPatch carries the fields of a partial shortcut update.
type ShortcutPatch struct {
	Key   *string
	Meta  *bool
	Shift *bool
	Alt   *bool
}

// Apply merges the set fields of the patch into the shortcut.
func (p ShortcutPatch) Apply(s Shortcut) Shortcut {
	if p.Key != nil {
		s.Key = *p.Key
	}
	if p.Meta != nil {
		s.Meta = *p.Meta
	}
	if p.Shift != nil {
		s.Shift = *p.Shift
	}
	if p.Alt != nil {
		s.Alt = *p.Alt
	}
	return s
}

// DefaultShortcuts returns the built-in key bindings.
func DefaultShortcuts() []Shortcut {
	out := []Shortcut{
		{ID: "close-tab", Name: "Close Tab", Description: "Close the current tab", Key: "w", Meta: true, Category: "tabs"},
		{ID: "quit-app", Name: "Quit Application", Description: "Quit the application", Key: "q", Meta: true, Category: "general"},
		{ID: "clear-terminal", Name: "Clear Terminal", Description: "Clear the terminal screen", Key: "k", Meta: true, Category: "terminal"},
		{ID: "duplicate-session", Name: "Duplicate Session", Description: "Duplicate the current session", Key: "d", Meta: true, Shift: true, Category: "tabs"},
		{ID: "split-vertical", Name: "Split Vertical", Description: "Split the current pane vertically", Key: "e", Meta: true, Shift: true, Category: "panes"},
		{ID: "host-selector", Name: "Host Selector", Description: "Open the host selector", Key: "e", Meta: true, Category: "general"},
		{ID: "new-terminal", Name: "New Local Terminal", Description: "Open a new local terminal", Key: "t", Meta: true, Category: "tabs"},
		{ID: "toggle-sidebar", Name: "Toggle Sidebar", Description: "Show or hide the sidebar", Key: ",", Meta: true, Category: "general"},
		{ID: "previous-tab", Name: "Previous Tab", Description: "Switch to the previous tab", Key: "[", Meta: true, Category: "tabs"},
		{ID: "next-tab", Name: "Next Tab", Description: "Switch to the next tab", Key: "]", Meta: true, Category: "tabs"},
	}
	for i := 1; i <= 9; i++ {
		out = append(out, Shortcut{
			ID:          fmt.Sprintf("tab-%d", i),
			Name:        fmt.Sprintf("Tab %d", i),
			Description: fmt.Sprintf("Switch to tab %d", i),
			Key:         fmt.Sprintf("%d", i),
			Meta:        true,
			Category:    "tabs",
		})
	}
	return out
}

package schema

// UserID identifies a user in the system.
type UserID string

// TabID identifies a tab in a workspace.
type TabID string

// TabTitle is the user-facing title of a tab.
type TabTitle string

// PaneID identifies a pane inside a tab.
type PaneID string

// SessionID identifies the terminal session bound to a pane.
type SessionID string

// ThemeName identifies a UI theme.
type ThemeName string

// PaneType selects what a pane shows.
type PaneType string

const (
	// PaneTerminal is an interactive shell pane.
	PaneTerminal PaneType = "terminal"
	// PaneSFTP is a file transfer pane.
	PaneSFTP PaneType = "sftp"
)

// Valid reports whether the pane type is known.
func (t PaneType) Valid() bool {
	return t == PaneTerminal || t == PaneSFTP
}

// SplitLayout describes how the panes of a tab are arranged.
type SplitLayout string

const (
	// LayoutNone means the tab shows a single pane.
	LayoutNone SplitLayout = "none"
	// LayoutVertical places panes side by side.
	LayoutVertical SplitLayout = "vertical"
	// LayoutHorizontal stacks panes on top of each other.
	LayoutHorizontal SplitLayout = "horizontal"
)

// ParseSplitDirection maps user input to a split direction. Empty input
// selects vertical.
func ParseSplitDirection(value string) (SplitLayout, error) {
	switch value {
	case "", "v", "vertical":
		return LayoutVertical, nil
	case "h", "horizontal":
		return LayoutHorizontal, nil
	default:
		return "", ErrInvalidDirection
	}
}

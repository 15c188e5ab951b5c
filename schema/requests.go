package schema

// Tab lifecycle.

// CreateTabRequest describes a request to open a new tab on a host.
type CreateTabRequest struct {
	UserID UserID
	Host   Host
	// Title defaults to the host display name.
	Title TabTitle
	// Type defaults to PaneTerminal.
	Type PaneType
}

// CreateTabResponse reports the created tab.
type CreateTabResponse struct {
	Result
	Tab TabSnapshot
}

// CloseTabRequest describes a request to close a tab.
type CloseTabRequest struct {
	UserID UserID
	TabID  TabID
}

// CloseTabResponse reports the closed tab and the new selection.
type CloseTabResponse struct {
	Result
	Tab       TabSnapshot
	ActiveTab TabID
}

// RenameTabRequest describes a request to retitle a tab.
type RenameTabRequest struct {
	UserID UserID
	TabID  TabID
	Title  TabTitle
}

// RenameTabResponse reports the renamed tab.
type RenameTabResponse struct {
	Result
	Tab TabSnapshot
}

// DuplicateTabRequest describes a request to open a copy of a tab.
type DuplicateTabRequest struct {
	UserID UserID
	TabID  TabID
}

// DuplicateTabResponse reports the new tab.
type DuplicateTabResponse struct {
	Result
	Tab TabSnapshot
}

// ReorderTabsRequest replaces the tab order. Order must contain every open
// tab exactly once.
type ReorderTabsRequest struct {
	UserID UserID
	Order  []TabID
}

// ReorderTabsResponse reports the resulting workspace.
type ReorderTabsResponse struct {
	Result
	Workspace WorkspaceSnapshot
}

// ActivateTabRequest selects a tab.
type ActivateTabRequest struct {
	UserID UserID
	TabID  TabID
}

// ActivateTabResponse reports the selected tab.
type ActivateTabResponse struct {
	Result
	Tab TabSnapshot
}

// CycleTabRequest moves the selection by Step positions, wrapping around.
type CycleTabRequest struct {
	UserID UserID
	Step   int
}

// CycleTabResponse reports the selected tab.
type CycleTabResponse struct {
	Result
	Tab TabSnapshot
}

// SelectTabIndexRequest selects the tab at a 1-based position.
type SelectTabIndexRequest struct {
	UserID UserID
	Index  int
}

// SelectTabIndexResponse reports the selected tab.
type SelectTabIndexResponse struct {
	Result
	Tab TabSnapshot
}

// Panes.

// SplitPaneRequest adds a pane next to the active pane of a tab.
type SplitPaneRequest struct {
	UserID UserID
	TabID  TabID
	// Direction defaults to LayoutVertical.
	Direction SplitLayout
}

// SplitPaneResponse reports the tab and the new pane.
type SplitPaneResponse struct {
	Result
	Tab  TabSnapshot
	Pane PaneSnapshot
}

// ClosePaneRequest removes a pane from a tab.
type ClosePaneRequest struct {
	UserID UserID
	TabID  TabID
	PaneID PaneID
}

// ClosePaneResponse reports the tab after the pane was removed.
type ClosePaneResponse struct {
	Result
	Tab TabSnapshot
}

// SetActivePaneRequest focuses a pane of a tab.
type SetActivePaneRequest struct {
	UserID UserID
	TabID  TabID
	PaneID PaneID
}

// SetActivePaneResponse reports the tab after the focus change.
type SetActivePaneResponse struct {
	Result
	Tab TabSnapshot
}

// UpdatePaneConnectionRequest records connection feedback for a pane.
type UpdatePaneConnectionRequest struct {
	UserID    UserID
	TabID     TabID
	PaneID    PaneID
	Connected bool
}

// UpdatePaneConnectionResponse reports the tab after the update.
type UpdatePaneConnectionResponse struct {
	Result
	Tab TabSnapshot
}

// Queries.

// GetWorkspaceRequest asks for the current workspace of a user.
type GetWorkspaceRequest struct {
	UserID UserID
}

// GetWorkspaceResponse carries the workspace snapshot.
type GetWorkspaceResponse struct {
	Workspace WorkspaceSnapshot
}

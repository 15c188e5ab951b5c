package core

import (
	"context"

	"pkt.systems/termdeck/schema"
)

// Service is the transport-agnostic API for managing per-user workspaces of
// tabs and panes.
//
// Mutations return an error only for malformed requests. Requests that name
// a missing tab or pane, or that would break a workspace rule, come back
// with an Ignored result and leave state untouched.
type Service interface {
	CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error)
	CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error)
	RenameTab(ctx context.Context, req schema.RenameTabRequest) (schema.RenameTabResponse, error)
	DuplicateTab(ctx context.Context, req schema.DuplicateTabRequest) (schema.DuplicateTabResponse, error)
	ReorderTabs(ctx context.Context, req schema.ReorderTabsRequest) (schema.ReorderTabsResponse, error)
	ActivateTab(ctx context.Context, req schema.ActivateTabRequest) (schema.ActivateTabResponse, error)
	CycleTab(ctx context.Context, req schema.CycleTabRequest) (schema.CycleTabResponse, error)
	SelectTabIndex(ctx context.Context, req schema.SelectTabIndexRequest) (schema.SelectTabIndexResponse, error)
	SplitPane(ctx context.Context, req schema.SplitPaneRequest) (schema.SplitPaneResponse, error)
	ClosePane(ctx context.Context, req schema.ClosePaneRequest) (schema.ClosePaneResponse, error)
	SetActivePane(ctx context.Context, req schema.SetActivePaneRequest) (schema.SetActivePaneResponse, error)
	UpdatePaneConnection(ctx context.Context, req schema.UpdatePaneConnectionRequest) (schema.UpdatePaneConnectionResponse, error)
	GetWorkspace(ctx context.Context, req schema.GetWorkspaceRequest) (schema.GetWorkspaceResponse, error)
}

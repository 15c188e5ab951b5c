package core

import (
	"context"
	"errors"
	"strings"
	"sync"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/internal/logx"
	"pkt.systems/termdeck/schema"
)

// service implements the core service behavior.
type service struct {
	cfg        schema.ServiceConfig
	sink       EventSink
	settings   SettingsSource
	logger     pslog.Logger
	mu         sync.Mutex
	workspaces map[schema.UserID]*workspace
}

// workspace is the registry of one user: ordered tabs plus the selection.
type workspace struct {
	tabs   []tab
	active schema.TabID
	seq    uint64
}

// NewService constructs the core service implementation.
func NewService(cfg schema.ServiceConfig, deps ServiceDeps) (Service, error) {
	normalized, err := schema.NormalizeServiceConfig(cfg)
	if err != nil {
		return nil, err
	}
	logger := deps.Logger
	if logger == nil {
		logger = pslog.Ctx(context.Background())
	}
	return &service{
		cfg:        normalized,
		sink:       deps.EventSink,
		settings:   deps.Settings,
		logger:     logger,
		workspaces: make(map[schema.UserID]*workspace),
	}, nil
}

func (s *service) CreateTab(ctx context.Context, req schema.CreateTabRequest) (schema.CreateTabResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.CreateTabResponse{}, err
	}
	paneType, err := s.paneType(req.Type)
	if err != nil {
		return schema.CreateTabResponse{}, err
	}
	log := logx.WithHost(logx.WithUser(ctx, userID), req.Host)
	nextToActive := s.openNextToActive()

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	if s.atTabLimitLocked(ws) {
		s.mu.Unlock()
		return schema.CreateTabResponse{Result: s.ignored(log, "service tab create ignored", schema.ErrTabLimit)}, nil
	}
	created := ws.open(req.Host, tabTitle(req.Title, req.Host), paneType, nextToActive)
	event := s.commitLocked(userID, ws, schema.TabEventCreated, created.ID, created.activePane)
	snap := created.Snapshot(true)
	s.mu.Unlock()

	s.emit(event)
	log.Info("service tab created", "tab", created.ID, "title", created.Title, "pane", created.activePane, "type", paneType)
	return schema.CreateTabResponse{Result: schema.AppliedResult(), Tab: snap}, nil
}

func (s *service) CloseTab(ctx context.Context, req schema.CloseTabRequest) (schema.CloseTabResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.CloseTabResponse{}, err
	}
	log := logx.WithUserTab(ctx, userID, req.TabID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	k := ws.indexOf(req.TabID)
	if k < 0 {
		s.mu.Unlock()
		return schema.CloseTabResponse{Result: s.ignored(log, "service tab close ignored", schema.ErrTabNotFound)}, nil
	}
	closed := ws.tabs[k]
	wasActive := ws.active == req.TabID
	ws.tabs = removeTab(ws.tabs, k)
	var effects []schema.Effect
	if wasActive {
		// k is the position the closed tab held, so min(k, n-1) is the tab
		// that slid into its place or the new last tab.
		ws.active = ""
		if n := len(ws.tabs); n > 0 {
			ws.active = ws.tabs[min(k, n-1)].ID
		}
		effects = append(effects, schema.Effect{Signal: schema.SignalSelectionChanged, UserID: userID, TabID: ws.active})
	}
	active := ws.active
	event := s.commitLocked(userID, ws, schema.TabEventClosed, req.TabID, "")
	s.mu.Unlock()

	s.emit(event)
	log.Info("service tab closed", "was_active", wasActive, "active_tab", active, "tabs", len(event.Workspace.Tabs))
	return schema.CloseTabResponse{
		Result:    schema.AppliedResult(effects...),
		Tab:       closed.Snapshot(false),
		ActiveTab: active,
	}, nil
}

func (s *service) RenameTab(ctx context.Context, req schema.RenameTabRequest) (schema.RenameTabResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.RenameTabResponse{}, err
	}
	log := logx.WithUserTab(ctx, userID, req.TabID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	k := ws.indexOf(req.TabID)
	if k < 0 {
		s.mu.Unlock()
		return schema.RenameTabResponse{Result: s.ignored(log, "service tab rename ignored", schema.ErrTabNotFound)}, nil
	}
	renamed := ws.tabs[k].withTitle(req.Title)
	ws.tabs[k] = renamed
	event := s.commitLocked(userID, ws, schema.TabEventRenamed, renamed.ID, "")
	snap := renamed.Snapshot(ws.active == renamed.ID)
	s.mu.Unlock()

	s.emit(event)
	log.Info("service tab renamed", "title", req.Title)
	return schema.RenameTabResponse{Result: schema.AppliedResult(), Tab: snap}, nil
}

func (s *service) DuplicateTab(ctx context.Context, req schema.DuplicateTabRequest) (schema.DuplicateTabResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.DuplicateTabResponse{}, err
	}
	log := logx.WithUserTab(ctx, userID, req.TabID)
	nextToActive := s.openNextToActive()

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	k := ws.indexOf(req.TabID)
	if k < 0 {
		s.mu.Unlock()
		return schema.DuplicateTabResponse{Result: s.ignored(log, "service tab duplicate ignored", schema.ErrTabNotFound)}, nil
	}
	if s.atTabLimitLocked(ws) {
		s.mu.Unlock()
		return schema.DuplicateTabResponse{Result: s.ignored(log, "service tab duplicate ignored", schema.ErrTabLimit)}, nil
	}
	source := ws.tabs[k]
	created := ws.open(source.host, tabTitle("", source.host), s.cfg.DefaultPaneType, nextToActive)
	event := s.commitLocked(userID, ws, schema.TabEventCreated, created.ID, created.activePane)
	snap := created.Snapshot(true)
	s.mu.Unlock()

	s.emit(event)
	log.Info("service tab duplicated", "new_tab", created.ID)
	return schema.DuplicateTabResponse{Result: schema.AppliedResult(), Tab: snap}, nil
}

func (s *service) ReorderTabs(ctx context.Context, req schema.ReorderTabsRequest) (schema.ReorderTabsResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.ReorderTabsResponse{}, err
	}
	log := logx.WithUser(ctx, userID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	reordered, ok := ws.permute(req.Order)
	if !ok {
		current := s.snapshotLocked(userID, ws)
		s.mu.Unlock()
		return schema.ReorderTabsResponse{
			Result:    s.ignored(log, "service tab reorder ignored", schema.ErrInvalidOrder),
			Workspace: current,
		}, nil
	}
	ws.tabs = reordered
	event := s.commitLocked(userID, ws, schema.TabEventReordered, "", "")
	s.mu.Unlock()

	s.emit(event)
	log.Info("service tabs reordered", "order", req.Order)
	return schema.ReorderTabsResponse{Result: schema.AppliedResult(), Workspace: event.Workspace}, nil
}

func (s *service) ActivateTab(ctx context.Context, req schema.ActivateTabRequest) (schema.ActivateTabResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.ActivateTabResponse{}, err
	}
	log := logx.WithUserTab(ctx, userID, req.TabID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	k := ws.indexOf(req.TabID)
	if k < 0 {
		s.mu.Unlock()
		return schema.ActivateTabResponse{Result: s.ignored(log, "service tab activate ignored", schema.ErrTabNotFound)}, nil
	}
	event, snap := s.activateLocked(userID, ws, k)
	s.mu.Unlock()

	s.emit(event)
	log.Debug("service tab activated")
	return schema.ActivateTabResponse{Result: schema.AppliedResult(), Tab: snap}, nil
}

func (s *service) CycleTab(ctx context.Context, req schema.CycleTabRequest) (schema.CycleTabResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.CycleTabResponse{}, err
	}
	if req.Step == 0 {
		return schema.CycleTabResponse{}, schema.ErrInvalidRequest
	}
	log := logx.WithUser(ctx, userID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	n := len(ws.tabs)
	if n == 0 {
		s.mu.Unlock()
		return schema.CycleTabResponse{Result: s.ignored(log, "service tab cycle ignored", schema.ErrNoTabs)}, nil
	}
	current := max(ws.indexOf(ws.active), 0)
	next := ((current+req.Step)%n + n) % n
	event, snap := s.activateLocked(userID, ws, next)
	s.mu.Unlock()

	s.emit(event)
	log.Debug("service tab cycled", "step", req.Step, "tab", snap.ID)
	return schema.CycleTabResponse{Result: schema.AppliedResult(), Tab: snap}, nil
}

func (s *service) SelectTabIndex(ctx context.Context, req schema.SelectTabIndexRequest) (schema.SelectTabIndexResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.SelectTabIndexResponse{}, err
	}
	log := logx.WithUser(ctx, userID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	if req.Index < 1 || req.Index > len(ws.tabs) {
		s.mu.Unlock()
		return schema.SelectTabIndexResponse{Result: s.ignored(log, "service tab select ignored", schema.ErrTabNotFound)}, nil
	}
	event, snap := s.activateLocked(userID, ws, req.Index-1)
	s.mu.Unlock()

	s.emit(event)
	log.Debug("service tab selected", "index", req.Index, "tab", snap.ID)
	return schema.SelectTabIndexResponse{Result: schema.AppliedResult(), Tab: snap}, nil
}

func (s *service) SplitPane(ctx context.Context, req schema.SplitPaneRequest) (schema.SplitPaneResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.SplitPaneResponse{}, err
	}
	direction, err := schema.ParseSplitDirection(string(req.Direction))
	if err != nil {
		return schema.SplitPaneResponse{}, err
	}
	log := logx.WithUserTab(ctx, userID, req.TabID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	k := ws.indexOf(req.TabID)
	if k < 0 {
		s.mu.Unlock()
		return schema.SplitPaneResponse{Result: s.ignored(log, "service pane split ignored", schema.ErrTabNotFound)}, nil
	}
	source := ws.tabs[k].sourcePane()
	added := newPane(source.Host, source.Type)
	split := ws.tabs[k].withSplit(direction, added)
	ws.tabs[k] = split
	event := s.commitLocked(userID, ws, schema.PaneEventSplit, split.ID, added.ID)
	snap := split.Snapshot(ws.active == split.ID)
	s.mu.Unlock()

	s.emit(event)
	log.Info("service pane split", "pane", added.ID, "source_pane", source.ID, "layout", direction, "panes", len(snap.Panes))
	return schema.SplitPaneResponse{Result: schema.AppliedResult(), Tab: snap, Pane: added.snapshot()}, nil
}

func (s *service) ClosePane(ctx context.Context, req schema.ClosePaneRequest) (schema.ClosePaneResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.ClosePaneResponse{}, err
	}
	log := logx.WithPane(logx.WithUserTab(ctx, userID, req.TabID), req.PaneID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	k := ws.indexOf(req.TabID)
	if k < 0 {
		s.mu.Unlock()
		return schema.ClosePaneResponse{Result: s.ignored(log, "service pane close ignored", schema.ErrTabNotFound)}, nil
	}
	current := ws.tabs[k]
	if len(current.panes) <= 1 {
		snap := current.Snapshot(ws.active == current.ID)
		s.mu.Unlock()
		return schema.ClosePaneResponse{Result: s.ignored(log, "service pane close ignored", schema.ErrLastPane), Tab: snap}, nil
	}
	idx := current.paneIndex(req.PaneID)
	if idx < 0 {
		snap := current.Snapshot(ws.active == current.ID)
		s.mu.Unlock()
		return schema.ClosePaneResponse{Result: s.ignored(log, "service pane close ignored", schema.ErrPaneNotFound), Tab: snap}, nil
	}
	reduced := current.withoutPane(idx)
	ws.tabs[k] = reduced
	event := s.commitLocked(userID, ws, schema.PaneEventClosed, reduced.ID, req.PaneID)
	snap := reduced.Snapshot(ws.active == reduced.ID)
	s.mu.Unlock()

	s.emit(event)
	log.Info("service pane closed", "active_pane", snap.ActivePane, "layout", snap.Layout, "panes", len(snap.Panes))
	effect := schema.Effect{Signal: schema.SignalLayoutChanged, UserID: userID, TabID: snap.ID}
	return schema.ClosePaneResponse{Result: schema.AppliedResult(effect), Tab: snap}, nil
}

func (s *service) SetActivePane(ctx context.Context, req schema.SetActivePaneRequest) (schema.SetActivePaneResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.SetActivePaneResponse{}, err
	}
	log := logx.WithPane(logx.WithUserTab(ctx, userID, req.TabID), req.PaneID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	k := ws.indexOf(req.TabID)
	if k < 0 {
		s.mu.Unlock()
		return schema.SetActivePaneResponse{Result: s.ignored(log, "service pane focus ignored", schema.ErrTabNotFound)}, nil
	}
	if ws.tabs[k].paneIndex(req.PaneID) < 0 {
		snap := ws.tabs[k].Snapshot(ws.active == req.TabID)
		s.mu.Unlock()
		return schema.SetActivePaneResponse{Result: s.ignored(log, "service pane focus ignored", schema.ErrPaneNotFound), Tab: snap}, nil
	}
	focused := ws.tabs[k].withActivePane(req.PaneID)
	ws.tabs[k] = focused
	event := s.commitLocked(userID, ws, schema.PaneEventFocused, focused.ID, req.PaneID)
	snap := focused.Snapshot(ws.active == focused.ID)
	s.mu.Unlock()

	s.emit(event)
	log.Debug("service pane focused")
	return schema.SetActivePaneResponse{Result: schema.AppliedResult(), Tab: snap}, nil
}

func (s *service) UpdatePaneConnection(ctx context.Context, req schema.UpdatePaneConnectionRequest) (schema.UpdatePaneConnectionResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.UpdatePaneConnectionResponse{}, err
	}
	log := logx.WithPane(logx.WithUserTab(ctx, userID, req.TabID), req.PaneID)

	s.mu.Lock()
	ws := s.workspaceLocked(userID)
	k := ws.indexOf(req.TabID)
	if k < 0 {
		s.mu.Unlock()
		return schema.UpdatePaneConnectionResponse{Result: s.ignored(log, "service pane connection ignored", schema.ErrTabNotFound)}, nil
	}
	idx := ws.tabs[k].paneIndex(req.PaneID)
	if idx < 0 {
		snap := ws.tabs[k].Snapshot(ws.active == req.TabID)
		s.mu.Unlock()
		return schema.UpdatePaneConnectionResponse{Result: s.ignored(log, "service pane connection ignored", schema.ErrPaneNotFound), Tab: snap}, nil
	}
	updated := ws.tabs[k].withConnection(idx, req.Connected)
	ws.tabs[k] = updated
	event := s.commitLocked(userID, ws, schema.PaneEventConnection, updated.ID, req.PaneID)
	snap := updated.Snapshot(ws.active == updated.ID)
	s.mu.Unlock()

	s.emit(event)
	log.Info("service pane connection", "connected", req.Connected, "tab_connected", snap.Connected)
	return schema.UpdatePaneConnectionResponse{Result: schema.AppliedResult(), Tab: snap}, nil
}

func (s *service) GetWorkspace(ctx context.Context, req schema.GetWorkspaceRequest) (schema.GetWorkspaceResponse, error) {
	userID, err := checkRequest(ctx, req.UserID)
	if err != nil {
		return schema.GetWorkspaceResponse{}, err
	}
	s.mu.Lock()
	ws := s.workspaces[userID]
	if ws == nil {
		s.mu.Unlock()
		return schema.GetWorkspaceResponse{Workspace: schema.WorkspaceSnapshot{UserID: userID, Tabs: []schema.TabSnapshot{}}}, nil
	}
	snap := s.snapshotLocked(userID, ws)
	s.mu.Unlock()
	logx.WithUser(ctx, userID).Trace("service workspace read", "tabs", len(snap.Tabs), "seq", snap.Seq)
	return schema.GetWorkspaceResponse{Workspace: snap}, nil
}

func (s *service) workspaceLocked(userID schema.UserID) *workspace {
	ws := s.workspaces[userID]
	if ws == nil {
		ws = &workspace{}
		s.workspaces[userID] = ws
	}
	return ws
}

func (s *service) activateLocked(userID schema.UserID, ws *workspace, idx int) (schema.WorkspaceEvent, schema.TabSnapshot) {
	ws.active = ws.tabs[idx].ID
	event := s.commitLocked(userID, ws, schema.TabEventActivated, ws.active, "")
	return event, ws.tabs[idx].Snapshot(true)
}

// commitLocked bumps the sequence and captures the event to publish once
// the lock is released.
func (s *service) commitLocked(userID schema.UserID, ws *workspace, eventType schema.WorkspaceEventType, tabID schema.TabID, paneID schema.PaneID) schema.WorkspaceEvent {
	ws.seq++
	snap := s.snapshotLocked(userID, ws)
	if s.cfg.CheckInvariants {
		if err := schema.ValidateWorkspace(snap); err != nil {
			s.logger.Error("service workspace invariant violated", "user", userID, "event", eventType, "err", err)
		}
	}
	return schema.WorkspaceEvent{
		UserID:    userID,
		Type:      eventType,
		TabID:     tabID,
		PaneID:    paneID,
		Seq:       ws.seq,
		Workspace: snap,
	}
}

func (s *service) snapshotLocked(userID schema.UserID, ws *workspace) schema.WorkspaceSnapshot {
	tabs := make([]schema.TabSnapshot, len(ws.tabs))
	for i, t := range ws.tabs {
		tabs[i] = t.Snapshot(t.ID == ws.active)
	}
	return schema.WorkspaceSnapshot{
		UserID:    userID,
		Tabs:      tabs,
		ActiveTab: ws.active,
		Seq:       ws.seq,
	}
}

func (s *service) emit(event schema.WorkspaceEvent) {
	if s.sink == nil {
		return
	}
	s.sink.OnWorkspaceEvent(event)
}

func (s *service) ignored(log pslog.Logger, msg string, reason error) schema.Result {
	log.Debug(msg, "reason", reason)
	return schema.IgnoredResult(reason)
}

func (s *service) atTabLimitLocked(ws *workspace) bool {
	return s.cfg.MaxTabs > 0 && len(ws.tabs) >= s.cfg.MaxTabs
}

func (s *service) openNextToActive() bool {
	if s.settings == nil {
		return false
	}
	return s.settings.Settings().OpenTabsNextToActive
}

func (s *service) paneType(requested schema.PaneType) (schema.PaneType, error) {
	if requested == "" {
		return s.cfg.DefaultPaneType, nil
	}
	if !requested.Valid() {
		return "", schema.ErrInvalidPaneType
	}
	return requested, nil
}

// open creates a tab on host and makes it active. The tab is appended, or
// placed right after the active tab when nextToActive is set.
func (ws *workspace) open(host schema.Host, title schema.TabTitle, paneType schema.PaneType, nextToActive bool) tab {
	created := newTab(title, newPane(host, paneType))
	pos := len(ws.tabs)
	if nextToActive {
		if idx := ws.indexOf(ws.active); idx >= 0 {
			pos = idx + 1
		}
	}
	tabs := make([]tab, 0, len(ws.tabs)+1)
	tabs = append(tabs, ws.tabs[:pos]...)
	tabs = append(tabs, created)
	ws.tabs = append(tabs, ws.tabs[pos:]...)
	ws.active = created.ID
	return created
}

func (ws *workspace) indexOf(id schema.TabID) int {
	if id == "" {
		return -1
	}
	for i, t := range ws.tabs {
		if t.ID == id {
			return i
		}
	}
	return -1
}

// permute returns the tabs in the given order, or false unless order names
// every tab exactly once.
func (ws *workspace) permute(order []schema.TabID) ([]tab, bool) {
	if len(order) != len(ws.tabs) {
		return nil, false
	}
	out := make([]tab, 0, len(order))
	seen := make(map[schema.TabID]struct{}, len(order))
	for _, id := range order {
		if _, dup := seen[id]; dup {
			return nil, false
		}
		seen[id] = struct{}{}
		idx := ws.indexOf(id)
		if idx < 0 {
			return nil, false
		}
		out = append(out, ws.tabs[idx])
	}
	return out, true
}

func checkRequest(ctx context.Context, userID schema.UserID) (schema.UserID, error) {
	if ctx == nil {
		return "", errors.New("missing context")
	}
	return normalizeUserID(userID)
}

func normalizeUserID(userID schema.UserID) (schema.UserID, error) {
	if err := schema.ValidateUserID(userID); err != nil {
		return "", schema.ErrInvalidUser
	}
	return userID, nil
}

func tabTitle(title schema.TabTitle, host schema.Host) schema.TabTitle {
	if trimmed := strings.TrimSpace(string(title)); trimmed != "" {
		return schema.TabTitle(trimmed)
	}
	return schema.TabTitle(host.DisplayName())
}

func removeTab(tabs []tab, idx int) []tab {
	out := make([]tab, 0, len(tabs)-1)
	out = append(out, tabs[:idx]...)
	return append(out, tabs[idx+1:]...)
}

package command

import (
	"bytes"
	"context"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/internal/notify"
	"pkt.systems/termdeck/internal/persist"
	"pkt.systems/termdeck/schema"
)

const alice = schema.UserID("alice")

type fakeCatalog struct {
	hosts    []schema.Host
	keys     []schema.PrivateKey
	snippets []schema.Snippet
}

func (f *fakeCatalog) Hosts() ([]schema.Host, error) { return f.hosts, nil }

func (f *fakeCatalog) FindHost(ref string) (schema.Host, error) {
	for _, host := range f.hosts {
		if host.ID == ref || strings.EqualFold(host.Name, ref) {
			return host, nil
		}
	}
	return schema.Host{}, schema.ErrRecordNotFound
}

func (f *fakeCatalog) Keys() ([]schema.PrivateKey, error)     { return f.keys, nil }
func (f *fakeCatalog) Snippets() ([]schema.Snippet, error)    { return f.snippets, nil }
func (f *fakeCatalog) Shortcuts() ([]schema.Shortcut, error) { return schema.DefaultShortcuts(), nil }

type harness struct {
	handler *Handler
	service core.Service
	effects *notify.Queue
	prefs   *persist.PrefsStore
}

func newHarness(t *testing.T) *harness {
	t.Helper()
	prefs, err := persist.OpenPrefs(filepath.Join(t.TempDir(), "prefs.json"), nil)
	if err != nil {
		t.Fatalf("open prefs: %v", err)
	}
	svc, err := core.NewService(schema.ServiceConfig{CheckInvariants: true}, core.ServiceDeps{Settings: prefs})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	effects := notify.NewQueue(nil)
	catalog := &fakeCatalog{
		hosts: []schema.Host{
			{ID: "h-prod", Name: "prod", Address: "10.0.0.1", Username: "deploy"},
			{ID: "h-db", Name: "db", Address: "10.0.0.2", Port: 2222},
		},
		snippets: []schema.Snippet{{ID: "s1", Name: "disk", Command: "df -h"}},
	}
	return &harness{
		handler: NewHandler(svc, HandlerConfig{Catalog: catalog, Prefs: prefs, Effects: effects}),
		service: svc,
		effects: effects,
		prefs:   prefs,
	}
}

func (h *harness) run(t *testing.T, line string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	handled, err := h.handler.Handle(context.Background(), alice, &out, line)
	if !handled {
		t.Fatalf("expected %q to be handled", line)
	}
	return out.String(), err
}

func (h *harness) mustRun(t *testing.T, line string) string {
	t.Helper()
	out, err := h.run(t, line)
	if err != nil {
		t.Fatalf("%s: %v", line, err)
	}
	return out
}

func (h *harness) workspace(t *testing.T) schema.WorkspaceSnapshot {
	t.Helper()
	resp, err := h.service.GetWorkspace(context.Background(), schema.GetWorkspaceRequest{UserID: alice})
	if err != nil {
		t.Fatalf("get workspace: %v", err)
	}
	return resp.Workspace
}

func titles(ws schema.WorkspaceSnapshot) string {
	names := make([]string, 0, len(ws.Tabs))
	for _, tab := range ws.Tabs {
		names = append(names, string(tab.Title))
	}
	return strings.Join(names, ",")
}

func TestHandleNewOpensSavedHost(t *testing.T) {
	h := newHarness(t)
	out := h.mustRun(t, "/new prod")
	if !strings.Contains(out, "tab opened: prod") {
		t.Fatalf("unexpected output %q", out)
	}
	ws := h.workspace(t)
	active, ok := ws.Active()
	if !ok || active.Host.ID != "h-prod" || active.Type != schema.PaneTerminal {
		t.Fatalf("unexpected active tab %+v", active)
	}

	h.mustRun(t, "new db sftp")
	active, _ = h.workspace(t).Active()
	if active.Type != schema.PaneSFTP || active.Title != "db" {
		t.Fatalf("expected sftp tab on db, got %+v", active)
	}
}

func TestHandleNewUnknownHost(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(t, "new staging"); err == nil || !strings.Contains(err.Error(), "host not found") {
		t.Fatalf("expected host not found, got %v", err)
	}
	if _, err := h.run(t, "new prod vnc"); err == nil || !strings.Contains(err.Error(), "usage: new") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestHandleLocalDoesNotNeedCatalog(t *testing.T) {
	svc, err := core.NewService(schema.ServiceConfig{}, core.ServiceDeps{})
	if err != nil {
		t.Fatalf("new service: %v", err)
	}
	handler := NewHandler(svc, HandlerConfig{})
	if _, err := handler.Handle(context.Background(), alice, nil, "local"); err != nil {
		t.Fatalf("local: %v", err)
	}
	if _, err := handler.Handle(context.Background(), alice, nil, "hosts"); err == nil {
		t.Fatalf("expected hosts to fail without a catalog")
	}
}

func TestHandleCloseActiveDefersSelectionEffect(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "new prod")
	h.mustRun(t, "new db")
	out := h.mustRun(t, "close")
	if !strings.Contains(out, "tab closed: db") {
		t.Fatalf("unexpected output %q", out)
	}
	if h.effects.Pending() != 1 {
		t.Fatalf("expected one pending effect, got %d", h.effects.Pending())
	}
	var got []schema.Effect
	h.effects.On(schema.SignalSelectionChanged, func(_ context.Context, effect schema.Effect) {
		got = append(got, effect)
	})
	h.effects.Flush(context.Background())
	ws := h.workspace(t)
	if len(got) != 1 || got[0].TabID != ws.ActiveTab || titles(ws) != "prod" {
		t.Fatalf("unexpected effects %+v for workspace %+v", got, ws)
	}
}

func TestHandleCloseInactiveHasNoEffect(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "new prod")
	h.mustRun(t, "new db")
	h.mustRun(t, "close 1")
	if h.effects.Pending() != 0 {
		t.Fatalf("expected no effects, got %d", h.effects.Pending())
	}
	if _, err := h.run(t, "close 5"); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range, got %v", err)
	}
}

func TestHandleRenameUsesRemainder(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "new prod")
	h.mustRun(t, "rename . prod primary")
	if got := titles(h.workspace(t)); got != "prod primary" {
		t.Fatalf("unexpected titles %q", got)
	}
	if _, err := h.run(t, "rename 4 staging"); err == nil || !strings.Contains(err.Error(), "out of range") {
		t.Fatalf("expected out of range, got %v", err)
	}
	if _, err := h.run(t, "rename 1"); err == nil || !strings.Contains(err.Error(), "usage: rename") {
		t.Fatalf("expected usage error, got %v", err)
	}
}

func TestHandleMoveAndOrder(t *testing.T) {
	h := newHarness(t)
	for _, line := range []string{"new prod", "new db", "local"} {
		h.mustRun(t, line)
	}
	h.mustRun(t, "move 3 1")
	if got := titles(h.workspace(t)); got != "local,prod,db" {
		t.Fatalf("unexpected order after move %q", got)
	}
	h.mustRun(t, "move local 9")
	if got := titles(h.workspace(t)); got != "prod,db,local" {
		t.Fatalf("unexpected order after move to end %q", got)
	}
	_, err := h.run(t, "order db prod")
	if !errors.Is(err, schema.ErrInvalidOrder) {
		t.Fatalf("expected ErrInvalidOrder, got %v", err)
	}
	h.mustRun(t, "order db local prod")
	if got := titles(h.workspace(t)); got != "db,local,prod" {
		t.Fatalf("unexpected order %q", got)
	}
}

func TestHandleTabSelection(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "new prod")
	h.mustRun(t, "new db")
	h.mustRun(t, "tab 1")
	if active, _ := h.workspace(t).Active(); active.Title != "prod" {
		t.Fatalf("expected prod active, got %q", active.Title)
	}
	h.mustRun(t, "next")
	if active, _ := h.workspace(t).Active(); active.Title != "db" {
		t.Fatalf("expected db active, got %q", active.Title)
	}
	h.mustRun(t, "next")
	if active, _ := h.workspace(t).Active(); active.Title != "prod" {
		t.Fatalf("expected wrap to prod, got %q", active.Title)
	}
	h.mustRun(t, "tab db")
	if active, _ := h.workspace(t).Active(); active.Title != "db" {
		t.Fatalf("expected db active, got %q", active.Title)
	}
	if _, err := h.run(t, "tab 7"); !errors.Is(err, schema.ErrTabNotFound) {
		t.Fatalf("expected ErrTabNotFound, got %v", err)
	}
}

func TestHandleDuplicate(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "new db sftp")
	h.mustRun(t, "dup")
	ws := h.workspace(t)
	if len(ws.Tabs) != 2 || ws.Tabs[1].Host.ID != "h-db" || ws.Tabs[1].Type != schema.PaneTerminal {
		t.Fatalf("unexpected duplicate %+v", ws.Tabs)
	}
}

func TestHandlePaneCommands(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "new prod")
	out := h.mustRun(t, "split h")
	if !strings.Contains(out, "horizontal, 2 panes") {
		t.Fatalf("unexpected split output %q", out)
	}
	if h.effects.Pending() != 0 {
		t.Fatalf("split must not defer effects")
	}
	active, _ := h.workspace(t).Active()
	first := active.Panes[0].ID

	h.mustRun(t, "focus 1")
	if active, _ = h.workspace(t).Active(); active.ActivePane != first {
		t.Fatalf("expected first pane focused, got %s", active.ActivePane)
	}
	if _, err := h.run(t, "focus pane-does-not-exist"); !errors.Is(err, schema.ErrPaneNotFound) {
		t.Fatalf("expected ErrPaneNotFound, got %v", err)
	}

	h.mustRun(t, "pclose 2")
	if h.effects.Pending() != 1 {
		t.Fatalf("expected layout effect, got %d", h.effects.Pending())
	}
	if _, err := h.run(t, "pclose ."); !errors.Is(err, schema.ErrLastPane) {
		t.Fatalf("expected ErrLastPane, got %v", err)
	}
}

func TestHandleConnectionAggregates(t *testing.T) {
	h := newHarness(t)
	h.mustRun(t, "new prod")
	h.mustRun(t, "split")
	h.mustRun(t, "connect 1")
	out := h.mustRun(t, "connect 2")
	if !strings.Contains(out, "(tab connected)") {
		t.Fatalf("expected tab connected, got %q", out)
	}
	out = h.mustRun(t, "disconnect 1")
	if !strings.Contains(out, "(tab disconnected)") {
		t.Fatalf("expected tab disconnected, got %q", out)
	}
}

func TestHandleTabsListing(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun(t, "tabs"); !strings.Contains(out, "no tabs open") {
		t.Fatalf("unexpected empty listing %q", out)
	}
	h.mustRun(t, "new prod")
	h.mustRun(t, "new db")
	out := h.mustRun(t, "tabs")
	if !strings.Contains(out, "* 2) db") || !strings.Contains(out, "  1) prod") {
		t.Fatalf("unexpected listing %q", out)
	}
	if !strings.Contains(out, "deploy@10.0.0.1") || !strings.Contains(out, "10.0.0.2:2222") {
		t.Fatalf("expected pane targets in listing %q", out)
	}
}

func TestHandleRecordListings(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun(t, "hosts"); !strings.Contains(out, "prod") || !strings.Contains(out, "local") {
		t.Fatalf("unexpected hosts %q", out)
	}
	if out := h.mustRun(t, "snippets"); !strings.Contains(out, "disk: df -h") {
		t.Fatalf("unexpected snippets %q", out)
	}
	if out := h.mustRun(t, "keys"); !strings.Contains(out, "no private keys") {
		t.Fatalf("unexpected keys %q", out)
	}
	if out := h.mustRun(t, "shortcuts"); !strings.Contains(out, "⌘W") {
		t.Fatalf("unexpected shortcuts %q", out)
	}
}

func TestHandleThemeAndSettings(t *testing.T) {
	h := newHarness(t)
	if out := h.mustRun(t, "theme"); !strings.Contains(out, "theme: dark") {
		t.Fatalf("unexpected theme output %q", out)
	}
	h.mustRun(t, "theme light")
	if h.prefs.Theme() != "light" {
		t.Fatalf("expected light theme persisted, got %q", h.prefs.Theme())
	}
	if _, err := h.run(t, "theme neon"); !errors.Is(err, schema.ErrInvalidTheme) {
		t.Fatalf("expected ErrInvalidTheme, got %v", err)
	}
	if out := h.mustRun(t, "settings"); !strings.Contains(out, "scrollback") {
		t.Fatalf("unexpected settings %q", out)
	}
}

func TestHandleQuitUnknownAndBlank(t *testing.T) {
	h := newHarness(t)
	if _, err := h.run(t, "quit"); !errors.Is(err, ErrQuit) {
		t.Fatalf("expected ErrQuit, got %v", err)
	}
	if _, err := h.run(t, "frobnicate"); err == nil || !strings.Contains(err.Error(), "unknown command") {
		t.Fatalf("expected unknown command, got %v", err)
	}
	handled, err := h.handler.Handle(context.Background(), alice, nil, "  ")
	if handled || err != nil {
		t.Fatalf("expected blank line to be unhandled, got %v %v", handled, err)
	}
	var nilCtx context.Context
	if _, err := h.handler.Handle(nilCtx, alice, nil, "tabs"); err == nil {
		t.Fatalf("expected missing context error")
	}
}

func TestHandleAuditLog(t *testing.T) {
	var buf bytes.Buffer
	logger := pslog.NewWithOptions(&buf, pslog.Options{
		Mode:     pslog.ModeStructured,
		NoColor:  true,
		MinLevel: pslog.DebugLevel,
	})
	ctx := pslog.ContextWithLogger(context.Background(), logger)
	h := newHarness(t)
	if _, err := h.handler.Handle(ctx, alice, nil, "new prod"); err != nil {
		t.Fatalf("new: %v", err)
	}
	if !strings.Contains(buf.String(), "audit command") {
		t.Fatalf("expected audit log entry, got %q", buf.String())
	}

	buf.Reset()
	h.handler.cfg.DisableAuditLogging = true
	if _, err := h.handler.Handle(ctx, alice, nil, "tabs"); err != nil {
		t.Fatalf("tabs: %v", err)
	}
	if strings.Contains(buf.String(), "audit command") {
		t.Fatalf("expected audit logging to be disabled, got %q", buf.String())
	}
}

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"pkt.systems/termdeck/internal/logx"
	"pkt.systems/termdeck/schema"
)

func (h *Handler) handleNew(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	if len(cmd.Args) < 1 || len(cmd.Args) > 2 {
		return fmt.Errorf("usage: new <host> [terminal|sftp]")
	}
	host, err := h.resolveHost(cmd.Args[0])
	if err != nil {
		return err
	}
	paneType := schema.PaneType("")
	if len(cmd.Args) == 2 {
		paneType = schema.PaneType(strings.ToLower(cmd.Args[1]))
		if !paneType.Valid() {
			return fmt.Errorf("usage: new <host> [terminal|sftp]")
		}
	}
	return h.openTab(ctx, userID, out, host, paneType)
}

func (h *Handler) resolveHost(ref string) (schema.Host, error) {
	if strings.EqualFold(ref, "local") {
		return schema.LocalHost(), nil
	}
	if h.cfg.Catalog == nil {
		return schema.Host{}, errors.New("host catalog not configured")
	}
	host, err := h.cfg.Catalog.FindHost(ref)
	if errors.Is(err, schema.ErrRecordNotFound) {
		return schema.Host{}, fmt.Errorf("host not found: %s", ref)
	}
	return host, err
}

func (h *Handler) openTab(ctx context.Context, userID schema.UserID, out io.Writer, host schema.Host, paneType schema.PaneType) error {
	log := logx.WithHost(logx.WithUser(ctx, userID), host)
	resp, err := h.service.CreateTab(ctx, schema.CreateTabRequest{
		UserID: userID,
		Host:   host,
		Type:   paneType,
	})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, "new", resp.Result); err != nil {
		return err
	}
	log.Info("command new completed", "tab", resp.Tab.ID, "type", resp.Tab.Type)
	_, err = fmt.Fprintf(out, "tab opened: %s (%s, %s)\n", resp.Tab.Title, resp.Tab.ID, resp.Tab.Type)
	return err
}

func (h *Handler) handleClose(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	if len(cmd.Args) > 1 {
		return fmt.Errorf("usage: close [tab]")
	}
	tab, err := h.resolveTab(ctx, userID, argOr(cmd.Args, 0, "."))
	if err != nil {
		return err
	}
	resp, err := h.service.CloseTab(ctx, schema.CloseTabRequest{UserID: userID, TabID: tab.ID})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, "close", resp.Result); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "tab closed: %s\n", resp.Tab.Title)
	return err
}

func (h *Handler) handleRename(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	title := remainderAfterTokens(cmd.Raw, 2)
	if len(cmd.Args) < 2 || title == "" {
		return fmt.Errorf("usage: rename <tab> <title>")
	}
	tab, err := h.resolveTab(ctx, userID, cmd.Args[0])
	if err != nil {
		return err
	}
	resp, err := h.service.RenameTab(ctx, schema.RenameTabRequest{UserID: userID, TabID: tab.ID, Title: schema.TabTitle(title)})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, "rename", resp.Result); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "tab renamed: %s\n", resp.Tab.Title)
	return err
}

func (h *Handler) handleDuplicate(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	if len(cmd.Args) > 1 {
		return fmt.Errorf("usage: dup [tab]")
	}
	tab, err := h.resolveTab(ctx, userID, argOr(cmd.Args, 0, "."))
	if err != nil {
		return err
	}
	resp, err := h.service.DuplicateTab(ctx, schema.DuplicateTabRequest{UserID: userID, TabID: tab.ID})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, "dup", resp.Result); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "tab opened: %s (%s, %s)\n", resp.Tab.Title, resp.Tab.ID, resp.Tab.Type)
	return err
}

func (h *Handler) handleMove(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	if len(cmd.Args) != 2 {
		return fmt.Errorf("usage: move <tab> <position>")
	}
	pos, err := strconv.Atoi(cmd.Args[1])
	if err != nil || pos < 1 {
		return fmt.Errorf("usage: move <tab> <position>")
	}
	ws, err := h.workspace(ctx, userID)
	if err != nil {
		return err
	}
	tab, err := resolveTabRef(cmd.Args[0], ws)
	if err != nil {
		return err
	}
	order := make([]schema.TabID, 0, len(ws.Tabs))
	for _, t := range ws.Tabs {
		if t.ID != tab.ID {
			order = append(order, t.ID)
		}
	}
	at := min(pos-1, len(order))
	order = append(order[:at], append([]schema.TabID{tab.ID}, order[at:]...)...)
	return h.reorder(ctx, userID, out, order)
}

func (h *Handler) handleOrder(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	if len(cmd.Args) == 0 {
		return fmt.Errorf("usage: order <tab>...")
	}
	ws, err := h.workspace(ctx, userID)
	if err != nil {
		return err
	}
	order := make([]schema.TabID, 0, len(cmd.Args))
	for _, ref := range cmd.Args {
		tab, err := resolveTabRef(ref, ws)
		if err != nil {
			return err
		}
		order = append(order, tab.ID)
	}
	return h.reorder(ctx, userID, out, order)
}

func (h *Handler) reorder(ctx context.Context, userID schema.UserID, out io.Writer, order []schema.TabID) error {
	resp, err := h.service.ReorderTabs(ctx, schema.ReorderTabsRequest{UserID: userID, Order: order})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, "order", resp.Result); err != nil {
		return err
	}
	return writeWorkspace(out, resp.Workspace)
}

func (h *Handler) handleTab(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	if len(cmd.Args) != 1 {
		return fmt.Errorf("usage: tab <n|id>")
	}
	var tab schema.TabSnapshot
	if idx, err := strconv.Atoi(cmd.Args[0]); err == nil {
		resp, err := h.service.SelectTabIndex(ctx, schema.SelectTabIndexRequest{UserID: userID, Index: idx})
		if err != nil {
			return err
		}
		if err := h.settle(ctx, "tab", resp.Result); err != nil {
			return err
		}
		tab = resp.Tab
	} else {
		target, err := h.resolveTab(ctx, userID, cmd.Args[0])
		if err != nil {
			return err
		}
		resp, err := h.service.ActivateTab(ctx, schema.ActivateTabRequest{UserID: userID, TabID: target.ID})
		if err != nil {
			return err
		}
		if err := h.settle(ctx, "tab", resp.Result); err != nil {
			return err
		}
		tab = resp.Tab
	}
	_, err := fmt.Fprintf(out, "tab selected: %s\n", tab.Title)
	return err
}

func (h *Handler) cycle(ctx context.Context, userID schema.UserID, out io.Writer, step int) error {
	resp, err := h.service.CycleTab(ctx, schema.CycleTabRequest{UserID: userID, Step: step})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, "cycle", resp.Result); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "tab selected: %s\n", resp.Tab.Title)
	return err
}

func (h *Handler) handleTabs(ctx context.Context, userID schema.UserID, out io.Writer) error {
	ws, err := h.workspace(ctx, userID)
	if err != nil {
		return err
	}
	return writeWorkspace(out, ws)
}

func (h *Handler) workspace(ctx context.Context, userID schema.UserID) (schema.WorkspaceSnapshot, error) {
	resp, err := h.service.GetWorkspace(ctx, schema.GetWorkspaceRequest{UserID: userID})
	if err != nil {
		return schema.WorkspaceSnapshot{}, err
	}
	return resp.Workspace, nil
}

func (h *Handler) resolveTab(ctx context.Context, userID schema.UserID, ref string) (schema.TabSnapshot, error) {
	ws, err := h.workspace(ctx, userID)
	if err != nil {
		return schema.TabSnapshot{}, err
	}
	return resolveTabRef(ref, ws)
}

// resolveTabRef accepts "." for the active tab, a 1-based position, a tab id
// or a case-insensitive title.
func resolveTabRef(ref string, ws schema.WorkspaceSnapshot) (schema.TabSnapshot, error) {
	if ref == "." || ref == "" {
		tab, ok := ws.Active()
		if !ok {
			return schema.TabSnapshot{}, errors.New("no active tab")
		}
		return tab, nil
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		if idx <= 0 || idx > len(ws.Tabs) {
			return schema.TabSnapshot{}, fmt.Errorf("tab index out of range")
		}
		return ws.Tabs[idx-1], nil
	}
	if tab, ok := ws.Tab(schema.TabID(ref)); ok {
		return tab, nil
	}
	for _, tab := range ws.Tabs {
		if strings.EqualFold(string(tab.Title), ref) {
			return tab, nil
		}
	}
	return schema.TabSnapshot{}, fmt.Errorf("tab not found: %s", ref)
}

func argOr(args []string, idx int, fallback string) string {
	if idx < len(args) {
		return args[idx]
	}
	return fallback
}

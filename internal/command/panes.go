package command

import (
	"context"
	"fmt"
	"io"
	"strconv"

	"pkt.systems/termdeck/schema"
)

func (h *Handler) handleSplit(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	if len(cmd.Args) > 2 {
		return fmt.Errorf("usage: split [v|h] [tab]")
	}
	var direction schema.SplitLayout
	tabRef := "."
	for _, arg := range cmd.Args {
		if parsed, err := schema.ParseSplitDirection(arg); err == nil && direction == "" {
			direction = parsed
			continue
		}
		tabRef = arg
	}
	tab, err := h.resolveTab(ctx, userID, tabRef)
	if err != nil {
		return err
	}
	resp, err := h.service.SplitPane(ctx, schema.SplitPaneRequest{UserID: userID, TabID: tab.ID, Direction: direction})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, "split", resp.Result); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "pane opened: %s (%s, %d panes)\n", resp.Pane.ID, resp.Tab.Layout, len(resp.Tab.Panes))
	return err
}

func (h *Handler) handleClosePane(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	if len(cmd.Args) < 1 || len(cmd.Args) > 2 {
		return fmt.Errorf("usage: pclose <pane> [tab]")
	}
	tab, pane, err := h.resolvePane(ctx, userID, cmd.Args[0], argOr(cmd.Args, 1, "."))
	if err != nil {
		return err
	}
	resp, err := h.service.ClosePane(ctx, schema.ClosePaneRequest{UserID: userID, TabID: tab.ID, PaneID: pane})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, "pclose", resp.Result); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "pane closed: %s (%d left)\n", pane, len(resp.Tab.Panes))
	return err
}

func (h *Handler) handleFocus(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command) error {
	if len(cmd.Args) < 1 || len(cmd.Args) > 2 {
		return fmt.Errorf("usage: focus <pane> [tab]")
	}
	tab, pane, err := h.resolvePane(ctx, userID, cmd.Args[0], argOr(cmd.Args, 1, "."))
	if err != nil {
		return err
	}
	resp, err := h.service.SetActivePane(ctx, schema.SetActivePaneRequest{UserID: userID, TabID: tab.ID, PaneID: pane})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, "focus", resp.Result); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "pane focused: %s\n", resp.Tab.ActivePane)
	return err
}

func (h *Handler) handleConnection(ctx context.Context, userID schema.UserID, out io.Writer, cmd Command, connected bool) error {
	if len(cmd.Args) > 2 {
		return fmt.Errorf("usage: %s [pane] [tab]", cmd.Name)
	}
	tab, pane, err := h.resolvePane(ctx, userID, argOr(cmd.Args, 0, "."), argOr(cmd.Args, 1, "."))
	if err != nil {
		return err
	}
	resp, err := h.service.UpdatePaneConnection(ctx, schema.UpdatePaneConnectionRequest{
		UserID:    userID,
		TabID:     tab.ID,
		PaneID:    pane,
		Connected: connected,
	})
	if err != nil {
		return err
	}
	if err := h.settle(ctx, cmd.Name, resp.Result); err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "pane %s: %s (tab %s)\n", pane, connectionLabel(connected), connectionLabel(resp.Tab.Connected))
	return err
}

func (h *Handler) resolvePane(ctx context.Context, userID schema.UserID, paneRef, tabRef string) (schema.TabSnapshot, schema.PaneID, error) {
	tab, err := h.resolveTab(ctx, userID, tabRef)
	if err != nil {
		return schema.TabSnapshot{}, "", err
	}
	pane, err := resolvePaneRef(paneRef, tab)
	if err != nil {
		return schema.TabSnapshot{}, "", err
	}
	return tab, pane, nil
}

// resolvePaneRef accepts "." for the focused pane, a 1-based position or a
// pane id. Unknown ids are passed through so the service can reject them.
func resolvePaneRef(ref string, tab schema.TabSnapshot) (schema.PaneID, error) {
	if ref == "." || ref == "" {
		return tab.ActivePane, nil
	}
	if idx, err := strconv.Atoi(ref); err == nil {
		if idx <= 0 || idx > len(tab.Panes) {
			return "", fmt.Errorf("pane index out of range")
		}
		return tab.Panes[idx-1].ID, nil
	}
	return schema.PaneID(ref), nil
}

func connectionLabel(connected bool) string {
	if connected {
		return "connected"
	}
	return "disconnected"
}

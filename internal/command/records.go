package command

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"pkt.systems/termdeck/schema"
)

func (h *Handler) handleHosts(out io.Writer) error {
	if h.cfg.Catalog == nil {
		return errors.New("host catalog not configured")
	}
	hosts, err := h.cfg.Catalog.Hosts()
	if err != nil {
		return err
	}
	lines := []string{"Hosts", "  local  (this machine)"}
	for _, host := range hosts {
		lines = append(lines, fmt.Sprintf("  %s  %s  [%s]", host.DisplayName(), host.Target(), host.ID))
	}
	return writeLines(out, lines)
}

func (h *Handler) handleKeys(out io.Writer) error {
	if h.cfg.Catalog == nil {
		return errors.New("host catalog not configured")
	}
	keys, err := h.cfg.Catalog.Keys()
	if err != nil {
		return err
	}
	lines := []string{"Private keys"}
	if len(keys) == 0 {
		lines = append(lines, "  no private keys")
	}
	for _, key := range keys {
		where := key.Path
		if key.Vaulted {
			where = "vault"
		}
		lines = append(lines, fmt.Sprintf("  %s  %s  %s  [%s]", key.Name, key.Type, where, key.ID))
	}
	return writeLines(out, lines)
}

func (h *Handler) handleSnippets(out io.Writer) error {
	if h.cfg.Catalog == nil {
		return errors.New("host catalog not configured")
	}
	snippets, err := h.cfg.Catalog.Snippets()
	if err != nil {
		return err
	}
	lines := []string{"Snippets"}
	if len(snippets) == 0 {
		lines = append(lines, "  no snippets")
	}
	for _, snippet := range snippets {
		lines = append(lines, fmt.Sprintf("  %s: %s", snippet.Name, snippet.Command))
	}
	return writeLines(out, lines)
}

func (h *Handler) handleShortcuts(out io.Writer) error {
	if h.cfg.Catalog == nil {
		return errors.New("host catalog not configured")
	}
	shortcuts, err := h.cfg.Catalog.Shortcuts()
	if err != nil {
		return err
	}
	lines := []string{"Shortcuts"}
	for _, sc := range shortcuts {
		lines = append(lines, fmt.Sprintf("  %-8s %s", sc.Display(), sc.Name))
	}
	return writeLines(out, lines)
}

func (h *Handler) handleTheme(out io.Writer, cmd Command) error {
	if h.cfg.Prefs == nil {
		return errors.New("preferences not configured")
	}
	if len(cmd.Args) == 0 {
		_, err := fmt.Fprintf(out, "theme: %s (available: %s)\n", h.cfg.Prefs.Theme(), strings.Join(themeNames(), ", "))
		return err
	}
	if len(cmd.Args) > 1 {
		return fmt.Errorf("usage: theme [name]")
	}
	theme, err := h.cfg.Prefs.SetTheme(cmd.Args[0])
	if err != nil {
		return err
	}
	_, err = fmt.Fprintf(out, "theme set to: %s\n", theme)
	return err
}

func (h *Handler) handleSettings(out io.Writer) error {
	if h.cfg.Prefs == nil {
		return errors.New("preferences not configured")
	}
	s := h.cfg.Prefs.Settings()
	return writeLines(out, []string{
		"Settings",
		fmt.Sprintf("  autoStartLocalTerminal  %t", s.AutoStartLocalTerminal),
		fmt.Sprintf("  autoCopyOnSelect        %t", s.AutoCopyOnSelect),
		fmt.Sprintf("  scrollback              %d", s.Scrollback),
		fmt.Sprintf("  openTabsNextToActive    %t", s.OpenTabsNextToActive),
		fmt.Sprintf("  searchDirection         %s", s.SearchDirection),
	})
}

// FormatWorkspace renders the tab list with panes, marking the active tab and
// focused pane.
func FormatWorkspace(ws schema.WorkspaceSnapshot) []string {
	if len(ws.Tabs) == 0 {
		return []string{"no tabs open"}
	}
	lines := make([]string, 0, len(ws.Tabs)*2)
	for i, tab := range ws.Tabs {
		marker := " "
		if tab.ID == ws.ActiveTab {
			marker = "*"
		}
		lines = append(lines, fmt.Sprintf("%s %d) %s  %s  %s  %s  [%s]", marker, i+1, tab.Title, tab.Type, tab.Layout, connectionLabel(tab.Connected), tab.ID))
		for j, pane := range tab.Panes {
			focus := " "
			if pane.ID == tab.ActivePane {
				focus = ">"
			}
			lines = append(lines, fmt.Sprintf("     %s %d. %s  %s  %s", focus, j+1, pane.ID, pane.Host.Target(), connectionLabel(pane.Connected)))
		}
	}
	return lines
}

func writeWorkspace(out io.Writer, ws schema.WorkspaceSnapshot) error {
	return writeLines(out, FormatWorkspace(ws))
}

func writeLines(out io.Writer, lines []string) error {
	for _, line := range lines {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

package command

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/internal/logx"
	"pkt.systems/termdeck/internal/notify"
	"pkt.systems/termdeck/internal/version"
	"pkt.systems/termdeck/schema"
)

// ErrQuit is returned when the user asks to end the console session.
var ErrQuit = errors.New("quit")

// HostCatalog is the read side of the saved record catalog.
type HostCatalog interface {
	Hosts() ([]schema.Host, error)
	FindHost(ref string) (schema.Host, error)
	Keys() ([]schema.PrivateKey, error)
	Snippets() ([]schema.Snippet, error)
	Shortcuts() ([]schema.Shortcut, error)
}

// PreferenceStore exposes theme and settings.
type PreferenceStore interface {
	Theme() schema.ThemeName
	SetTheme(name string) (schema.ThemeName, error)
	Settings() schema.Settings
}

// HandlerConfig configures console command behavior.
type HandlerConfig struct {
	Catalog HostCatalog
	Prefs   PreferenceStore
	// Effects receives the follow-ups of applied mutations. The caller
	// flushes it once the command output has been written.
	Effects             *notify.Queue
	DisableAuditLogging bool
}

// Handler routes console commands to service operations.
type Handler struct {
	service core.Service
	cfg     HandlerConfig
}

// NewHandler constructs a command handler.
func NewHandler(service core.Service, cfg HandlerConfig) *Handler {
	return &Handler{service: service, cfg: cfg}
}

// Handle parses input and executes it, writing human readable output to out.
// It reports false when the line held no command.
func (h *Handler) Handle(ctx context.Context, userID schema.UserID, out io.Writer, input string) (bool, error) {
	if ctx == nil {
		return false, errors.New("missing context")
	}
	if out == nil {
		out = io.Discard
	}
	cmd, ok := Parse(input)
	if !ok {
		return false, nil
	}
	baseLog := logx.WithUser(ctx, userID)
	ctx = logx.ContextWithUserLogger(ctx, baseLog, userID)
	if !h.cfg.DisableAuditLogging {
		baseLog.Debug("audit command", "command", strings.TrimSpace(input))
	}
	log := baseLog.With("command", cmd.Name, "args", len(cmd.Args))
	log.Info("command request")
	var err error
	switch cmd.Name {
	case "":
		log.Warn("command rejected", "reason", "empty")
		return true, fmt.Errorf("invalid command")
	case "help", "?":
		err = h.handleHelp(out)
	case "new", "open":
		err = h.handleNew(ctx, userID, out, cmd)
	case "local":
		err = h.openTab(ctx, userID, out, schema.LocalHost(), schema.PaneTerminal)
	case "close":
		err = h.handleClose(ctx, userID, out, cmd)
	case "rename":
		err = h.handleRename(ctx, userID, out, cmd)
	case "dup", "duplicate":
		err = h.handleDuplicate(ctx, userID, out, cmd)
	case "move":
		err = h.handleMove(ctx, userID, out, cmd)
	case "order":
		err = h.handleOrder(ctx, userID, out, cmd)
	case "tab":
		err = h.handleTab(ctx, userID, out, cmd)
	case "next":
		err = h.cycle(ctx, userID, out, 1)
	case "prev":
		err = h.cycle(ctx, userID, out, -1)
	case "tabs", "ls":
		err = h.handleTabs(ctx, userID, out)
	case "split":
		err = h.handleSplit(ctx, userID, out, cmd)
	case "pclose":
		err = h.handleClosePane(ctx, userID, out, cmd)
	case "focus":
		err = h.handleFocus(ctx, userID, out, cmd)
	case "connect":
		err = h.handleConnection(ctx, userID, out, cmd, true)
	case "disconnect":
		err = h.handleConnection(ctx, userID, out, cmd, false)
	case "hosts":
		err = h.handleHosts(out)
	case "keys":
		err = h.handleKeys(out)
	case "snippets":
		err = h.handleSnippets(out)
	case "shortcuts":
		err = h.handleShortcuts(out)
	case "theme":
		err = h.handleTheme(out, cmd)
	case "settings":
		err = h.handleSettings(out)
	case "version":
		_, err = fmt.Fprintln(out, version.Get().String())
	case "quit", "exit", "logout":
		return true, ErrQuit
	default:
		log.Warn("command rejected", "reason", "unknown")
		return true, fmt.Errorf("unknown command: %s", cmd.Name)
	}
	if err != nil {
		log.Warn("command failed", "err", err)
		return true, err
	}
	log.Info("command completed")
	return true, nil
}

// settle defers the effects of an applied result, or turns an ignored one
// into an error carrying its reason.
func (h *Handler) settle(ctx context.Context, op string, res schema.Result) error {
	if !res.Applied() {
		pslog.Ctx(ctx).Debug("command ignored", "op", op, "reason", res.Reason)
		if res.Reason == nil {
			return fmt.Errorf("%s ignored", op)
		}
		return fmt.Errorf("%s: %w", op, res.Reason)
	}
	if h.cfg.Effects != nil {
		h.cfg.Effects.Defer(res.Effects...)
	}
	return nil
}

func (h *Handler) handleHelp(out io.Writer) error {
	for _, line := range helpLines() {
		if _, err := fmt.Fprintln(out, line); err != nil {
			return err
		}
	}
	return nil
}

func helpLines() []string {
	return []string{
		"Commands (the leading / is optional)",
		"  new <host> [sftp]         open a tab on a saved host (or \"local\")",
		"  local                     open a local terminal tab",
		"  close [tab]               close a tab",
		"  rename <tab> <title>      retitle a tab",
		"  dup [tab]                 open a copy of a tab",
		"  move <tab> <position>     move a tab to a 1-based position",
		"  order <tab>...            set the full tab order",
		"  tab <n|id>                select a tab",
		"  next, prev                cycle through tabs",
		"  tabs                      list tabs and panes",
		"  split [v|h] [tab]         split the active pane",
		"  pclose <pane> [tab]       close a pane",
		"  focus <pane> [tab]        focus a pane",
		"  connect [pane] [tab]      mark a pane connected",
		"  disconnect [pane] [tab]   mark a pane disconnected",
		"  hosts, keys, snippets     list saved records",
		"  shortcuts                 list keyboard shortcuts",
		"  theme [name]              show or set the theme (" + strings.Join(themeNames(), ", ") + ")",
		"  settings                  show settings",
		"  version                   show version information",
		"  quit                      end the session",
		"Tabs are referenced by 1-based position, id, title or \".\" for the active tab.",
		"Panes are referenced by 1-based position, id or \".\" for the focused pane.",
	}
}

func themeNames() []string {
	themes := schema.AvailableThemes()
	names := make([]string, 0, len(themes))
	for _, theme := range themes {
		names = append(names, string(theme))
	}
	return names
}

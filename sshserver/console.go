package sshserver

import (
	"context"
	"errors"
	"io"
	"strings"
	"sync"

	gliderssh "github.com/gliderlabs/ssh"
	"golang.org/x/term"

	"pkt.systems/pslog"
	"pkt.systems/termdeck/core"
	"pkt.systems/termdeck/internal/command"
	"pkt.systems/termdeck/internal/eventbus"
	"pkt.systems/termdeck/internal/notify"
	"pkt.systems/termdeck/schema"
)

type consoleConfig struct {
	Service  core.Service
	Handlers HandlerFactory
	Prefs    Preferences
	UserID   schema.UserID
	Prompt   string
	Events   <-chan eventbus.Event
}

// console is a line oriented workspace shell. Command output is written
// above the prompt, followed by the tab bar whenever the workspace changed.
type console struct {
	cfg  consoleConfig
	term *term.Terminal

	handler CommandHandler
	effects *notify.Queue

	mu        sync.Mutex
	width     int
	height    int
	lastSeq   uint64
	busy      bool
	tabWindow int
}

func newConsole(rw io.ReadWriter, cfg consoleConfig) *console {
	return &console{
		cfg:    cfg,
		term:   term.NewTerminal(rw, cfg.Prompt),
		width:  80,
		height: 24,
	}
}

func (c *console) SetSize(width, height int) {
	if width <= 0 {
		width = 80
	}
	if height <= 0 {
		height = 24
	}
	c.mu.Lock()
	c.width = width
	c.height = height
	c.mu.Unlock()
	_ = c.term.SetSize(width, height)
}

func (c *console) size() (int, int) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.width, c.height
}

func (c *console) log(ctx context.Context) pslog.Logger {
	return pslog.Ctx(ctx).With("user", c.cfg.UserID)
}

func (c *console) Run(ctx context.Context, winCh <-chan gliderssh.Window) error {
	if ctx == nil {
		ctx = context.Background()
	}
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	c.effects = notify.NewQueue(pslog.Ctx(ctx))
	c.effects.On(schema.SignalSelectionChanged, c.onSelectionChanged)
	c.effects.On(schema.SignalLayoutChanged, c.onLayoutChanged)
	c.handler = c.cfg.Handlers(c.effects)

	go c.watch(ctx, winCh)

	width, height := c.size()
	c.log(ctx).Info("console session start", "width", width, "height", height)
	c.write("termdeck console, type \"help\" for commands\n")
	c.autoStart(ctx)
	c.refresh(ctx, true)

	for {
		line, err := c.term.ReadLine()
		if err != nil {
			if errors.Is(err, io.EOF) {
				return nil
			}
			return err
		}
		if c.execute(ctx, line) {
			return nil
		}
	}
}

// execute runs one line and reports whether the console should exit.
func (c *console) execute(ctx context.Context, line string) bool {
	c.setBusy(true)
	defer c.setBusy(false)
	handled, err := c.handler.Handle(ctx, c.cfg.UserID, c.term, line)
	if errors.Is(err, command.ErrQuit) {
		c.log(ctx).Info("console quit")
		return true
	}
	if err != nil {
		theme := c.theme()
		c.write(ansiFgRGB(theme.ErrorFG) + "error: " + sanitizeOutputLine(err.Error()) + ansiReset + "\n")
	}
	if handled {
		c.refresh(ctx, false)
	}
	c.effects.Flush(ctx)
	return false
}

func (c *console) autoStart(ctx context.Context) {
	if c.cfg.Prefs == nil || !c.cfg.Prefs.Settings().AutoStartLocalTerminal {
		return
	}
	ws, err := c.workspace(ctx)
	if err != nil || len(ws.Tabs) > 0 {
		return
	}
	c.execute(ctx, "local")
}

func (c *console) watch(ctx context.Context, winCh <-chan gliderssh.Window) {
	events := c.cfg.Events
	for {
		select {
		case <-ctx.Done():
			return
		case win, ok := <-winCh:
			if !ok {
				winCh = nil
				continue
			}
			c.SetSize(win.Width, win.Height)
			c.log(ctx).Debug("console resize", "width", win.Width, "height", win.Height)
		case ev, ok := <-events:
			if !ok {
				events = nil
				continue
			}
			c.onEvent(ev)
		}
	}
}

// onEvent renders changes made by other consoles of the same user. Events
// that arrive while a local command runs are covered by the refresh that
// follows it.
func (c *console) onEvent(ev eventbus.Event) {
	c.mu.Lock()
	if c.busy || ev.Seq <= c.lastSeq {
		c.mu.Unlock()
		return
	}
	c.lastSeq = ev.Seq
	c.mu.Unlock()
	theme := c.theme()
	notice := ansiFgRGB(theme.MetaFG) + "· " + string(ev.Type)
	if ev.TabID != "" {
		notice += " " + string(ev.TabID)
	}
	c.write(notice + ansiReset + "\n" + c.renderBar(ev.Workspace))
}

func (c *console) onSelectionChanged(ctx context.Context, effect schema.Effect) {
	if effect.TabID == "" {
		c.write("no tabs open\n")
		return
	}
	c.renderTabPanes(ctx, effect.TabID)
}

func (c *console) onLayoutChanged(ctx context.Context, effect schema.Effect) {
	c.renderTabPanes(ctx, effect.TabID)
}

func (c *console) renderTabPanes(ctx context.Context, tabID schema.TabID) {
	ws, err := c.workspace(ctx)
	if err != nil {
		return
	}
	tab, ok := ws.Tab(tabID)
	if !ok {
		return
	}
	width, height := c.size()
	lines := renderPanes(tab, width, paneAreaHeight(height))
	if len(lines) == 0 {
		return
	}
	c.write(strings.Join(lines, "\n") + "\n")
}

func paneAreaHeight(height int) int {
	return min(max(height/3, 5), 12)
}

// refresh redraws the tab bar when the workspace changed since the last
// draw, or unconditionally when force is set.
func (c *console) refresh(ctx context.Context, force bool) {
	ws, err := c.workspace(ctx)
	if err != nil {
		c.log(ctx).Warn("console refresh failed", "err", err)
		return
	}
	c.mu.Lock()
	if !force && ws.Seq == c.lastSeq {
		c.mu.Unlock()
		return
	}
	c.lastSeq = ws.Seq
	c.mu.Unlock()
	c.write(c.renderBar(ws))
}

func (c *console) renderBar(ws schema.WorkspaceSnapshot) string {
	theme := c.theme()
	c.mu.Lock()
	width := c.width
	bar, start := renderTabBar(ws.Tabs, ws.ActiveTab, width, theme, c.tabWindow)
	c.tabWindow = start
	c.mu.Unlock()
	return bar + "\n" + renderStatusLine(ws, width, theme) + "\n"
}

func (c *console) workspace(ctx context.Context) (schema.WorkspaceSnapshot, error) {
	resp, err := c.cfg.Service.GetWorkspace(ctx, schema.GetWorkspaceRequest{UserID: c.cfg.UserID})
	if err != nil {
		return schema.WorkspaceSnapshot{}, err
	}
	return resp.Workspace, nil
}

func (c *console) theme() tuiTheme {
	if c.cfg.Prefs == nil {
		return themeForName("")
	}
	return themeForName(c.cfg.Prefs.Theme())
}

func (c *console) setBusy(busy bool) {
	c.mu.Lock()
	c.busy = busy
	c.mu.Unlock()
}

func (c *console) write(text string) {
	_, _ = io.WriteString(c.term, text)
}

package sshserver

import (
	"strings"
	"testing"

	"pkt.systems/termdeck/schema"
)

func TestRenderTabBarFullWidth(t *testing.T) {
	tabs := []schema.TabSnapshot{
		{ID: "tab1", Title: "alpha"},
		{ID: "tab2", Title: "beta"},
	}
	theme := themeForName("dark")
	line, _ := renderTabBar(tabs, "tab2", 40, theme, 0)
	if got := visibleWidth(line); got != 40 {
		t.Fatalf("expected tab bar width 40, got %d", got)
	}
	if !strings.Contains(line, ansiBgRGB(theme.TabActiveBG)) {
		t.Fatalf("expected active tab background color sequence")
	}
	if !strings.HasSuffix(line, ansiReset) {
		t.Fatalf("expected tab bar to reset styles")
	}
}

func TestRenderTabBarIndicators(t *testing.T) {
	theme := themeForName("dark")
	tabs := []schema.TabSnapshot{
		{ID: "tab1", Title: "alpha"},
		{ID: "tab2", Title: "beta"},
		{ID: "tab3", Title: "gamma"},
		{ID: "tab4", Title: "delta"},
		{ID: "tab5", Title: "epsilon"},
	}
	line, _ := renderTabBar(tabs, "tab3", 20, theme, 0)
	if !strings.Contains(line, "<") {
		t.Fatalf("expected left indicator for hidden tabs")
	}
	if !strings.Contains(line, ">") {
		t.Fatalf("expected right indicator for hidden tabs")
	}

	line, _ = renderTabBar(tabs, "tab1", 20, theme, 0)
	if strings.Contains(line, "<") {
		t.Fatalf("did not expect left indicator when at first tab")
	}
	if !strings.Contains(line, ">") {
		t.Fatalf("expected right indicator when more tabs exist")
	}

	line, _ = renderTabBar(tabs, "tab5", 20, theme, 0)
	if !strings.Contains(line, "<") {
		t.Fatalf("expected left indicator when more tabs exist")
	}
	if strings.Contains(line, ">") {
		t.Fatalf("did not expect right indicator when at last tab")
	}
}

func TestRenderTabBarWindowShift(t *testing.T) {
	theme := themeForName("dark")
	tabs := []schema.TabSnapshot{
		{ID: "tab1", Title: "one"},
		{ID: "tab2", Title: "two"},
		{ID: "tab3", Title: "three"},
		{ID: "tab4", Title: "four"},
		{ID: "tab5", Title: "five"},
	}
	start := 0
	_, start = renderTabBar(tabs, "tab1", 20, theme, start)
	if start != 0 {
		t.Fatalf("expected window start 0, got %d", start)
	}
	_, start = renderTabBar(tabs, "tab2", 20, theme, start)
	if start != 0 {
		t.Fatalf("expected window start to stay 0, got %d", start)
	}
	_, start = renderTabBar(tabs, "tab3", 20, theme, start)
	if start != 1 {
		t.Fatalf("expected window to shift right to 1, got %d", start)
	}
	_, start = renderTabBar(tabs, "tab4", 20, theme, start)
	if start != 2 {
		t.Fatalf("expected window to shift right to 2, got %d", start)
	}
	_, start = renderTabBar(tabs, "tab5", 20, theme, start)
	if start != 3 {
		t.Fatalf("expected window to shift right to 3, got %d", start)
	}
	_, start = renderTabBar(tabs, "tab2", 20, theme, start)
	if start != 1 {
		t.Fatalf("expected window to shift left to 1, got %d", start)
	}
}

func TestRenderTabBarMarksConnectionAndPanes(t *testing.T) {
	tabs := []schema.TabSnapshot{
		{ID: "tab-1", Title: "prod", Connected: true, Panes: []schema.PaneSnapshot{{ID: "p1"}, {ID: "p2"}}},
		{ID: "tab-2", Title: "db", Type: schema.PaneSFTP, Panes: []schema.PaneSnapshot{{ID: "p1"}}},
	}
	line, _ := renderTabBar(tabs, "tab-1", 60, themeForName("dark"), 0)
	plain := sanitizeOutputLine(line)
	for _, want := range []string{"● prod ×2", "○ sftp:db "} {
		if !strings.Contains(plain, want) {
			t.Fatalf("expected %q in tab bar %q", want, plain)
		}
	}
	if visibleWidth(line) != 60 {
		t.Fatalf("expected tab bar width 60, got %d", visibleWidth(line))
	}
}

func TestTrimANSIToWidthKeepsEscapes(t *testing.T) {
	got := trimANSIToWidth("\x1b[1mab\x1b]0;title\x07cd\x1b[0m", 3)
	if got != "\x1b[1mab\x1b]0;title\x07c" {
		t.Fatalf("unexpected trim %q", got)
	}
	if visibleWidth(got) != 3 {
		t.Fatalf("expected width 3, got %d", visibleWidth(got))
	}
}

func TestSanitizeOutputLineStripsAnsiAndControl(t *testing.T) {
	input := "\x1b[2Jhello\rworld\x1b[0m"
	got := sanitizeOutputLine(input)
	if strings.Contains(got, "\x1b") {
		t.Fatalf("expected ANSI escapes removed, got %q", got)
	}
	if strings.Contains(got, "\r") {
		t.Fatalf("expected carriage returns removed, got %q", got)
	}
	if got != "helloworld" {
		t.Fatalf("unexpected sanitize result: %q", got)
	}
}

func TestRenderTabBarUsesIDWhenUntitled(t *testing.T) {
	line, _ := renderTabBar([]schema.TabSnapshot{{ID: "tab-7"}}, "tab-7", 30, themeForName("light"), 0)
	if !strings.Contains(line, " tab-7 ") {
		t.Fatalf("expected id label, got %q", line)
	}
}

func TestTruncateName(t *testing.T) {
	if got := truncateName("production-east", 10); got != "productio…" {
		t.Fatalf("unexpected truncation %q", got)
	}
	if got := truncateName("db", 10); got != "db" {
		t.Fatalf("unexpected short name %q", got)
	}
}

func TestRenderStatusLine(t *testing.T) {
	theme := themeForName("dark")
	ws := schema.WorkspaceSnapshot{
		Tabs: []schema.TabSnapshot{
			{ID: "tab-1", Title: "prod", Type: schema.PaneTerminal, Host: schema.Host{Address: "10.0.0.1", Username: "root"}, Connected: true},
			{ID: "tab-2", Title: "db", Type: schema.PaneSFTP},
		},
		ActiveTab: "tab-1",
	}
	line := sanitizeOutputLine(renderStatusLine(ws, 80, theme))
	for _, want := range []string{"prod", "1/2", "terminal", "root@10.0.0.1", "connected"} {
		if !strings.Contains(line, want) {
			t.Fatalf("expected %q in status line %q", want, line)
		}
	}
	if got := visibleWidth(renderStatusLine(ws, 12, theme)); got > 12 {
		t.Fatalf("status line width %d exceeds limit", got)
	}
	empty := sanitizeOutputLine(renderStatusLine(schema.WorkspaceSnapshot{}, 80, theme))
	if !strings.Contains(empty, "no tabs open") {
		t.Fatalf("unexpected empty status %q", empty)
	}
}

package sshserver

import (
	"strings"
	"testing"
	"unicode/utf8"

	"pkt.systems/termdeck/schema"
)

func TestSplitRectsCoversArea(t *testing.T) {
	cases := []struct {
		layout schema.SplitLayout
		n      int
	}{
		{schema.LayoutVertical, 3},
		{schema.LayoutHorizontal, 4},
		{schema.LayoutVertical, 1},
	}
	for _, tc := range cases {
		rects := splitRects(tc.layout, tc.n, 80, 10)
		if len(rects) != tc.n {
			t.Fatalf("%s/%d: expected %d rects, got %d", tc.layout, tc.n, tc.n, len(rects))
		}
		area := 0
		for _, r := range rects {
			area += r.w * r.h
		}
		if area != 80*10 {
			t.Fatalf("%s/%d: rects cover %d cells", tc.layout, tc.n, area)
		}
	}
	rects := splitRects(schema.LayoutVertical, 3, 80, 10)
	if rects[0].w != 27 || rects[1].w != 27 || rects[2].w != 26 || rects[2].x != 54 {
		t.Fatalf("unexpected vertical split %+v", rects)
	}
	rects = splitRects(schema.LayoutHorizontal, 2, 80, 9)
	if rects[0].h != 5 || rects[1].y != 5 || rects[1].w != 80 {
		t.Fatalf("unexpected horizontal split %+v", rects)
	}
	if splitRects(schema.LayoutVertical, 0, 80, 10) != nil {
		t.Fatalf("expected no rects for zero panes")
	}
}

func TestRenderPanesMarksFocus(t *testing.T) {
	tab := schema.TabSnapshot{
		ID:     "tab-1",
		Layout: schema.LayoutVertical,
		Panes: []schema.PaneSnapshot{
			{ID: "pane-1", Host: schema.Host{Address: "10.0.0.1"}, Type: schema.PaneTerminal, Connected: true},
			{ID: "pane-2", Host: schema.LocalHost(), Type: schema.PaneTerminal},
		},
		ActivePane: "pane-2",
	}
	lines := renderPanes(tab, 60, 6)
	if len(lines) != 6 {
		t.Fatalf("expected 6 lines, got %d", len(lines))
	}
	for i, line := range lines {
		if got := utf8.RuneCountInString(line); got != 60 {
			t.Fatalf("line %d has width %d", i, got)
		}
	}
	if !strings.HasPrefix(lines[0], "┌") || !strings.Contains(lines[0], "┏") {
		t.Fatalf("expected plain then heavy border, got %q", lines[0])
	}
	joined := strings.Join(lines, "\n")
	for _, want := range []string{"1 pane-1", "2 pane-2", "10.0.0.1", "local", "● connected", "○ disconnected"} {
		if !strings.Contains(joined, want) {
			t.Fatalf("expected %q in panes:\n%s", want, joined)
		}
	}
}

func TestRenderPanesClipsTinyAreas(t *testing.T) {
	tab := schema.TabSnapshot{
		Panes:      []schema.PaneSnapshot{{ID: "pane-1"}},
		ActivePane: "pane-1",
	}
	lines := renderPanes(tab, 1, 1)
	if len(lines) != 1 || lines[0] != " " {
		t.Fatalf("unexpected tiny render %q", lines)
	}
	if renderPanes(tab, 0, 5) != nil {
		t.Fatalf("expected nil for zero width")
	}
}

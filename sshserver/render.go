package sshserver

import (
	"strconv"
	"strings"
	"unicode/utf8"

	"pkt.systems/termdeck/schema"
)

const tabNameLimit = 10

// tabLabel is one rendered tab: styled text plus the number of cells it
// occupies.
type tabLabel struct {
	text  string
	width int
}

// newTabLabel renders " ● title ×n " where the dot shows the aggregate
// connection state and ×n the pane count of a split tab. Inactive tabs dim
// the title; the active tab is bold.
func newTabLabel(tab schema.TabSnapshot, active bool, theme tuiTheme) tabLabel {
	name := string(tab.Title)
	if name == "" {
		name = string(tab.ID)
	}
	name = truncateName(sanitizeOutputLine(name), tabNameLimit)
	if tab.Type == schema.PaneSFTP {
		name = "sftp:" + name
	}
	if n := len(tab.Panes); n > 1 {
		name += " ×" + strconv.Itoa(n)
	}

	bg, fg := theme.TabInactiveBG, theme.TabInactiveFG
	if active {
		bg, fg = theme.TabActiveBG, theme.TabActiveFG
	}
	dot, dotFG := "○", theme.DisconnectedFG
	if tab.Connected {
		dot, dotFG = "●", theme.ConnectedFG
	}
	base := ansiBgRGB(bg) + ansiFgRGB(fg)
	if active {
		base += ansiBold
	}
	plain := " " + dot + " " + name + " "
	return tabLabel{
		text:  base + " " + ansiFgRGB(dotFG) + dot + ansiFgRGB(fg) + " " + name + " ",
		width: utf8.RuneCountInString(plain),
	}
}

// tabSpan is the half-open range of tabs drawn on the bar.
type tabSpan struct {
	start, end int
}

// spanFrom packs labels left to right starting at start. A cell is kept for
// each overflow arrow and at least one label is always shown.
func spanFrom(widths []int, start, width int) tabSpan {
	n := len(widths)
	avail := width
	if start > 0 {
		avail--
	}
	used, end := 0, start
	for end < n && (end == start || used+widths[end] <= avail) {
		used += widths[end]
		end++
	}
	for end < n && end-start > 1 && used > avail-1 {
		end--
		used -= widths[end]
	}
	return tabSpan{start: start, end: end}
}

// spanTo packs labels right to left so that the tab before end is the last
// one shown.
func spanTo(widths []int, end, width int) tabSpan {
	avail := width
	if end < len(widths) {
		avail--
	}
	used, start := 0, end
	for start > 0 && (start == end || used+widths[start-1] <= avail) {
		start--
		used += widths[start]
	}
	for start > 0 && end-start > 1 && used > avail-1 {
		used -= widths[start]
		start++
	}
	return tabSpan{start: start, end: end}
}

// visibleSpan keeps the previous window when the active tab is still inside
// it and otherwise scrolls just far enough to reveal it.
func visibleSpan(widths []int, active, prevStart, width int) tabSpan {
	n := len(widths)
	total := 0
	for _, w := range widths {
		total += w
	}
	if total <= width {
		return tabSpan{start: 0, end: n}
	}
	prevStart = min(max(prevStart, 0), n-1)
	if active < prevStart {
		return spanFrom(widths, active, width)
	}
	span := spanFrom(widths, prevStart, width)
	if active >= span.end {
		span = spanTo(widths, active+1, width)
	}
	return span
}

// renderTabBar draws the tab bar and returns the first visible tab so the
// caller can keep the window stable across redraws.
func renderTabBar(tabs []schema.TabSnapshot, active schema.TabID, width int, theme tuiTheme, windowStart int) (string, int) {
	if width <= 0 {
		width = 80
	}
	barStyle := ansiBgRGB(theme.TabBarBG) + ansiFgRGB(theme.TabInactiveFG)
	arrowStyle := barStyle + ansiBold

	var b strings.Builder
	b.WriteString(barStyle)
	if len(tabs) == 0 {
		b.WriteString(ansiBgRGB(theme.TabInactiveBG) + " no tabs " + barStyle)
		return padBar(b.String(), width, ""), 0
	}

	labels := make([]tabLabel, len(tabs))
	widths := make([]int, len(tabs))
	activeIndex := 0
	for i, tab := range tabs {
		isActive := tab.ID == active
		if isActive {
			activeIndex = i
		}
		labels[i] = newTabLabel(tab, isActive, theme)
		widths[i] = labels[i].width
	}
	span := visibleSpan(widths, activeIndex, windowStart, width)
	if span.start > 0 {
		b.WriteString(arrowStyle + "<" + barStyle)
	}
	for _, label := range labels[span.start:span.end] {
		b.WriteString(label.text + barStyle)
	}
	right := ""
	if span.end < len(tabs) {
		right = arrowStyle + ">" + barStyle
	}
	return padBar(b.String(), width, right), span.start
}

// padBar fills line to width with the bar background, keeping the last
// cell for right when it is set.
func padBar(line string, width int, right string) string {
	room := width
	if right != "" {
		room--
		line = trimANSIToWidth(line, room)
	}
	if visible := visibleWidth(line); visible < room {
		line += strings.Repeat(" ", room-visible)
	}
	return trimANSIToWidth(line+right, width) + ansiReset
}

func truncateName(name string, limit int) string {
	if limit <= 0 || utf8.RuneCountInString(name) <= limit {
		return name
	}
	runes := []rune(name)
	if limit == 1 {
		return string(runes[:1])
	}
	return string(runes[:limit-1]) + "…"
}

// renderStatusLine renders the one-line summary shown under the tab bar.
func renderStatusLine(ws schema.WorkspaceSnapshot, width int, theme tuiTheme) string {
	tab, ok := ws.Active()
	if !ok {
		return trimANSIToWidth(ansiFgRGB(theme.MetaFG)+"no tabs open, type \"local\" or \"new <host>\""+ansiReset, width) + ansiReset
	}
	idx := ws.IndexOf(tab.ID) + 1
	state := ansiFgRGB(theme.DisconnectedFG) + "disconnected"
	if tab.Connected {
		state = ansiFgRGB(theme.ConnectedFG) + "connected"
	}
	var b strings.Builder
	b.WriteString(ansiFgRGB(theme.MetaFG))
	b.WriteString(sanitizeOutputLine(string(tab.Title)))
	b.WriteString(" · ")
	b.WriteString(strconv.Itoa(idx) + "/" + strconv.Itoa(len(ws.Tabs)))
	b.WriteString(" · ")
	b.WriteString(string(tab.Type))
	b.WriteString(" · ")
	b.WriteString(sanitizeOutputLine(tab.Host.Target()))
	b.WriteString(" · ")
	b.WriteString(state)
	return trimANSIToWidth(b.String(), width) + ansiReset
}

// walkANSI calls fn with each escape sequence and each rune of text in
// order until fn returns false.
func walkANSI(text string, fn func(piece string, escape bool) bool) {
	for i := 0; i < len(text); {
		var end int
		escape := text[i] == 0x1b
		if escape {
			end = escapeEnd(text, i)
		} else {
			_, size := utf8.DecodeRuneInString(text[i:])
			end = i + size
		}
		if !fn(text[i:end], escape) {
			return
		}
		i = end
	}
}

// escapeEnd returns the index just past the escape sequence starting at i.
// CSI runs to its final byte, OSC to BEL or ST, anything else is two bytes.
func escapeEnd(text string, i int) int {
	i++
	if i >= len(text) {
		return i
	}
	switch text[i] {
	case '[':
		for i++; i < len(text); i++ {
			if c := text[i]; c >= 0x40 && c <= 0x7e {
				return i + 1
			}
		}
		return i
	case ']':
		for i++; i < len(text); i++ {
			if text[i] == 0x07 {
				return i + 1
			}
			if text[i] == 0x1b && i+1 < len(text) && text[i+1] == '\\' {
				return i + 2
			}
		}
		return i
	}
	return i + 1
}

// sanitizeOutputLine drops escapes and control characters from text that
// came from records or errors before it is written to the console.
func sanitizeOutputLine(text string) string {
	var b strings.Builder
	walkANSI(text, func(piece string, escape bool) bool {
		if escape {
			return true
		}
		r, _ := utf8.DecodeRuneInString(piece)
		switch {
		case r == '\t':
			b.WriteString("    ")
		case r == utf8.RuneError && len(piece) == 1, r < 0x20, r == 0x7f:
		default:
			b.WriteString(piece)
		}
		return true
	})
	return b.String()
}

func visibleWidth(text string) int {
	width := 0
	walkANSI(text, func(_ string, escape bool) bool {
		if !escape {
			width++
		}
		return true
	})
	return width
}

// trimANSIToWidth cuts text after width visible cells, keeping the escapes
// that precede the cut.
func trimANSIToWidth(text string, width int) string {
	if width <= 0 {
		return ""
	}
	var b strings.Builder
	visible := 0
	walkANSI(text, func(piece string, escape bool) bool {
		if !escape {
			if visible >= width {
				return false
			}
			visible++
		}
		b.WriteString(piece)
		return true
	})
	return b.String()
}

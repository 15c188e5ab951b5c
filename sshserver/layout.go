package sshserver

import (
	"strconv"
	"unicode/utf8"

	"pkt.systems/termdeck/schema"
)

type rect struct {
	x, y, w, h int
}

// splitRects divides a width x height area among n panes. Vertical layouts
// place panes side by side, horizontal layouts stack them. Leftover cells go
// to the leading panes.
func splitRects(layout schema.SplitLayout, n, width, height int) []rect {
	if n <= 0 || width <= 0 || height <= 0 {
		return nil
	}
	if n == 1 || layout == schema.LayoutNone || layout == "" {
		return []rect{{x: 0, y: 0, w: width, h: height}}
	}
	rects := make([]rect, 0, n)
	span := width
	if layout == schema.LayoutHorizontal {
		span = height
	}
	base, extra := span/n, span%n
	offset := 0
	for i := 0; i < n; i++ {
		size := base
		if i < extra {
			size++
		}
		if layout == schema.LayoutHorizontal {
			rects = append(rects, rect{x: 0, y: offset, w: width, h: size})
		} else {
			rects = append(rects, rect{x: offset, y: 0, w: size, h: height})
		}
		offset += size
	}
	return rects
}

type boxStyle struct {
	h, v, tl, tr, bl, br rune
}

var (
	plainBox   = boxStyle{h: '─', v: '│', tl: '┌', tr: '┐', bl: '└', br: '┘'}
	focusedBox = boxStyle{h: '━', v: '┃', tl: '┏', tr: '┓', bl: '┗', br: '┛'}
)

// renderPanes draws the panes of a tab as boxes. The focused pane gets a
// heavy border. Each box lists position, pane id, target and state.
func renderPanes(tab schema.TabSnapshot, width, height int) []string {
	if width <= 0 || height <= 0 || len(tab.Panes) == 0 {
		return nil
	}
	grid := make([][]rune, height)
	for y := range grid {
		grid[y] = make([]rune, width)
		for x := range grid[y] {
			grid[y][x] = ' '
		}
	}
	rects := splitRects(tab.Layout, len(tab.Panes), width, height)
	for i, r := range rects {
		pane := tab.Panes[i]
		style := plainBox
		if pane.ID == tab.ActivePane {
			style = focusedBox
		}
		drawBox(grid, r, style)
		state := "○ disconnected"
		if pane.Connected {
			state = "● connected"
		}
		label := []string{
			strconv.Itoa(i+1) + " " + string(pane.ID),
			sanitizeOutputLine(pane.Host.Target()),
			string(pane.Type) + " " + state,
		}
		for row, text := range label {
			writeText(grid, r.x+1, r.y+1+row, r.x+r.w-1, r.y+r.h-1, text)
		}
	}
	lines := make([]string, height)
	for y, row := range grid {
		lines[y] = string(row)
	}
	return lines
}

func drawBox(grid [][]rune, r rect, style boxStyle) {
	if r.w < 2 || r.h < 2 {
		return
	}
	right, bottom := r.x+r.w-1, r.y+r.h-1
	for x := r.x + 1; x < right; x++ {
		grid[r.y][x] = style.h
		grid[bottom][x] = style.h
	}
	for y := r.y + 1; y < bottom; y++ {
		grid[y][r.x] = style.v
		grid[y][right] = style.v
	}
	grid[r.y][r.x] = style.tl
	grid[r.y][right] = style.tr
	grid[bottom][r.x] = style.bl
	grid[bottom][right] = style.br
}

// writeText writes text at (x, y), clipped to columns before maxX and rows
// before maxY.
func writeText(grid [][]rune, x, y, maxX, maxY int, text string) {
	if y >= maxY || y >= len(grid) {
		return
	}
	for len(text) > 0 && x < maxX && x < len(grid[y]) {
		r, size := utf8.DecodeRuneInString(text)
		grid[y][x] = r
		text = text[size:]
		x++
	}
}

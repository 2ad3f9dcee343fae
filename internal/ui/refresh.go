package ui

import (
	"strconv"

	"github.com/charmbracelet/bubbles/table"
	"github.com/mattn/go-runewidth"

	"sheetview/internal/view"
)

const (
	maxColWidth = 40
	minColWidth = 4
	padR        = 1
)

// refreshTable pushes the active panel's page into the table widget.
func (m *Model) refreshTable() {
	p := m.panel()
	res := p.res
	if len(res.Headers) == 0 {
		m.tbl.SetRows(nil)
		m.tbl.SetColumns(nil)
		return
	}
	widths := m.naturalWidths(res)
	vis := m.visibleRange(widths)

	edit, editing := p.engine.Editing()
	numW := len(strconv.Itoa(res.Offset() + len(res.Rows)))
	cs := make([]table.Column, 0, len(vis)+1)
	cs = append(cs, table.Column{Title: "#", Width: max(numW, 1)})
	for _, c := range vis {
		cs = append(cs, table.Column{Title: m.headerTitle(res, c), Width: widths[c]})
	}

	rows := make([]table.Row, 0, len(res.Rows))
	for i, r := range res.Rows {
		row := make(table.Row, 0, len(vis)+1)
		row = append(row, strconv.Itoa(res.Offset()+i+1))
		for _, c := range vis {
			v := r.Cell(c).String()
			if editing && edit.RowIndex == i && edit.ColIndex == c {
				v = m.editor.Value() + "▏"
			}
			row = append(row, v)
		}
		rows = append(rows, row)
	}
	// columns first: the table renders rows against the current column count
	m.tbl.SetRows(nil)
	m.tbl.SetColumns(cs)
	m.tbl.SetRows(rows)
	if p.cursor >= len(rows) {
		p.cursor = max(len(rows)-1, 0)
	}
	m.tbl.SetCursor(p.cursor)
}

func (m *Model) headerTitle(res view.Result, c int) string {
	p := m.panel()
	title := res.Headers[c]
	if col, dir := p.engine.Sort(); col == c {
		if dir == view.Desc {
			title += " ▼"
		} else {
			title += " ▲"
		}
	}
	if c == p.selCol {
		return "«" + title + "»"
	}
	return title
}

// naturalWidths sizes each column to its header and the visible page,
// within [minColWidth, maxColWidth].
func (m *Model) naturalWidths(res view.Result) []int {
	w := make([]int, len(res.Headers))
	for i, h := range res.Headers {
		// room for the sort arrow and selection marks
		w[i] = runewidth.StringWidth(h) + 4
	}
	for _, r := range res.Rows {
		for i := range w {
			if n := runewidth.StringWidth(r.Cell(i).String()); n > w[i] {
				w[i] = n
			}
		}
	}
	for i := range w {
		w[i] = min(max(w[i], minColWidth), maxColWidth)
	}
	return w
}

// visibleRange returns the column indexes that fit the terminal, scrolling
// colOffset so the selected column stays on screen.
func (m *Model) visibleRange(widths []int) []int {
	p := m.panel()
	width := m.termWidth
	if width <= 0 {
		width = 120
	}
	avail := width - 6 - padR // row number column
	fits := func(from int) int {
		used, n := 0, 0
		for i := from; i < len(widths); i++ {
			need := widths[i] + padR
			if n > 0 && used+need > avail {
				break
			}
			used += need
			n++
		}
		return n
	}
	if m.colOffset > p.selCol {
		m.colOffset = p.selCol
	}
	for m.colOffset < p.selCol && m.colOffset+fits(m.colOffset) <= p.selCol {
		m.colOffset++
	}
	if m.colOffset >= len(widths) {
		m.colOffset = 0
	}
	n := fits(m.colOffset)
	out := make([]int, 0, n)
	for i := m.colOffset; i < m.colOffset+n; i++ {
		out = append(out, i)
	}
	return out
}

package ui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"sheetview/internal/model"
)

func (m *Model) View() string {
	if m.quitting {
		return ""
	}
	v := lipgloss.JoinVertical(lipgloss.Left,
		m.renderTabs(),
		m.renderSource(),
		m.renderBody(),
		m.renderFooter(),
		m.renderStats(),
		m.renderBottom(),
	)
	if m.modalActive {
		// Dim the background content while keeping it visible
		dimmed := lipgloss.NewStyle().Faint(true).Render(v)
		v = overlay(dimmed, m.renderModal())
	}
	return v
}

func (m *Model) renderTabs() string {
	tab := func(t model.Tab, title string, p *panel) string {
		if p.loading {
			title += " " + m.spin.View()
		}
		st := m.styles.TabInactive
		if m.active == t {
			st = m.styles.TabActive
		}
		s := st.Render(title)
		if p.syncing() {
			s += " " + m.styles.Live.Render("● LIVE")
		}
		return s
	}
	return tab(model.TabGoogle, "Google Sheets", &m.google.panel) + "   " +
		tab(model.TabLocal, "Local file", &m.local.panel)
}

func (m *Model) renderSource() string {
	var parts []string
	if m.active == model.TabGoogle {
		g := m.google
		src := g.cfg.SheetInput
		if src == "" {
			src = "(none, press u)"
		}
		parts = append(parts, "sheet: "+truncateRunes(src, 60))
		if g.cfg.TabName != "" {
			parts = append(parts, "tab: "+g.cfg.TabName)
		}
		if g.cfg.AutoSync {
			parts = append(parts, fmt.Sprintf("auto sync: %s", g.syncer.Interval()))
		}
	} else {
		l := m.local
		name := l.fileName
		if name == "" {
			name = "(none, press o)"
		}
		parts = append(parts, "file: "+name)
		if len(l.sheets) > 0 {
			parts = append(parts, fmt.Sprintf("sheet %d/%d: %s", l.active+1, len(l.sheets), l.sheets[l.active]))
		}
		if l.watching != nil {
			parts = append(parts, "following appends")
		}
	}
	if t := m.panel().lastSynced; !t.IsZero() {
		parts = append(parts, "synced "+humanize.RelTime(t, m.now(), "ago", "from now"))
	}
	return m.styles.Status.Render(strings.Join(parts, " | "))
}

func (m *Model) renderBody() string {
	p := m.panel()
	if p.res.Empty {
		h := max(m.tbl.Height(), 3)
		msg := "No data loaded. Press u to set a Google Sheet, or o to open a local file."
		if m.active == model.TabLocal && len(m.local.sheets) > 0 {
			msg = "This sheet has no data. Use [ and ] to switch sheets."
		}
		return lipgloss.NewStyle().Height(h).Render(m.styles.Empty.Render(msg))
	}
	return m.tbl.View()
}

func (m *Model) renderFooter() string {
	p := m.panel()
	res := p.res
	if res.Empty {
		return ""
	}
	parts := []string{fmt.Sprintf("page %d/%d", res.Page+1, max(res.Pages, 1))}
	if res.Total != len(p.data.Rows) {
		parts = append(parts, fmt.Sprintf("%s of %s rows", humanize.Comma(int64(res.Total)), humanize.Comma(int64(len(p.data.Rows)))))
	} else {
		parts = append(parts, humanize.Comma(int64(res.Total))+" rows")
	}
	if col, dir := p.engine.Sort(); col >= 0 && col < len(res.Headers) {
		parts = append(parts, fmt.Sprintf("sort: %s %s", res.Headers[col], dir))
	}
	if q := p.engine.Query(); q != "" {
		parts = append(parts, fmt.Sprintf("search: %q", q))
	}
	if e := p.engine.Expr(); e != "" {
		parts = append(parts, "filter: "+e)
	}
	if res.Total == 0 {
		parts = append(parts, "no matching rows")
	}
	return m.styles.Status.Render(strings.Join(parts, " | "))
}

func (m *Model) renderStats() string {
	s := model.ComputeStats(m.google.snapshot(), m.local.snapshot())
	line := fmt.Sprintf(" %s | google %d×%d | local %d×%d | total %s rows ",
		s.Label, s.GoogleRows, s.GoogleCols, s.LocalRows, s.LocalCols, humanize.Comma(int64(s.TotalRows)))
	st := m.styles.StatsBar
	if m.termWidth > 0 {
		st = st.Width(m.termWidth)
	}
	return st.Render(line)
}

func (m *Model) renderBottom() string {
	switch {
	case m.inputKind != inputNone:
		return m.input.View() + m.styles.Help.Render("    [enter]=apply [esc]=cancel")
	case m.editing():
		return m.styles.Help.Render("editing cell    [enter]=save [esc]=cancel")
	case m.toastText != "":
		return m.styles.Toast[m.toastKind].Render(m.toastText)
	}
	return m.styles.Help.Render("[?]=help [/]=search [s]=sort [enter]=edit [n/p]=page [tab]=switch source")
}

func (m *Model) editing() bool {
	_, ok := m.panel().engine.Editing()
	return ok
}

func (m *Model) renderHelp() string {
	// Build an organized, navigable help menu
	if len(m.helpItems) == 0 {
		m.helpItems = m.buildHelpItems()
	}
	if m.helpSel < 0 {
		m.helpSel = 0
	}
	if m.helpSel >= len(m.helpItems) {
		m.helpSel = len(m.helpItems) - 1
	}
	lines := []string{"Shortcuts:"}
	currentGroup := ""
	lineIndexOfSel := 0
	for i, it := range m.helpItems {
		if it.group != currentGroup {
			currentGroup = it.group
			lines = append(lines, "")
			lines = append(lines, currentGroup+":")
		}
		prefix := "  "
		if i == m.helpSel {
			prefix = "> "
			lineIndexOfSel = len(lines)
		}
		lines = append(lines, fmt.Sprintf("%s[%s] %s", prefix, keyLabel(it.key), it.text))
	}
	// Adjust viewport to keep selection visible
	if m.modalVP.Height > 0 {
		top := m.modalVP.YOffset
		bottom := top + m.modalVP.Height - 1
		if lineIndexOfSel <= top {
			m.modalVP.YOffset = max(lineIndexOfSel-1, 0)
		} else if lineIndexOfSel >= bottom {
			m.modalVP.YOffset = max(lineIndexOfSel-m.modalVP.Height+2, 0)
		}
	}
	return m.styles.Help.Render(strings.Join(lines, "\n"))
}

func (m *Model) openHelpModal() {
	m.helpItems = m.buildHelpItems()
	m.helpSel = 0
	m.openModal(modalHelp, "Help", m.renderHelp())
}

func (m *Model) openModal(kind modalKind, title, body string) {
	m.modalActive = true
	m.modalKind = kind
	m.modalTitle = title
	m.modalBody = body
	m.resizeModal()
}

func (m *Model) resizeModal() {
	w := max(m.termWidth-6, 20)
	h := max(m.termHeight-6, 5)
	m.modalVP = viewport.New(w-4, h-4)
	m.modalVP.SetContent(m.modalBody)
	if m.modalKind == modalLogs {
		m.modalVP.GotoBottom()
	}
}

func (m *Model) renderModal() string {
	content := ""
	switch m.modalKind {
	case modalHelp:
		m.modalVP.SetContent(m.renderHelp())
		content = m.modalVP.View() + "\n[esc]=close  [enter]=run"
	case modalLogs:
		p := m.panel()
		header := []string{
			"Status:",
			fmt.Sprintf("tab: %s  rows: %d  columns: %d", m.active, len(p.data.Rows), len(p.data.Headers)),
			fmt.Sprintf("google sync: %v  local sync: %v", m.google.syncing(), m.local.syncing()),
		}
		h := m.styles.Help.Render(strings.Join(header, "\n"))
		content = h + "\n" + m.modalVP.View() + "\n[esc/enter]=close  [c]=copy"
	default:
		content = m.modalVP.View() + "\n[esc/enter]=close  [c]=copy"
	}
	boxW := max(m.termWidth-6, 20)
	title := m.styles.PopupTitle.Render(m.modalTitle)
	body := m.styles.PopupBox.Width(boxW).Render(title + "\n" + content)
	return lipgloss.Place(m.termWidth, m.termHeight, lipgloss.Center, lipgloss.Center, body)
}

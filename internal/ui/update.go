package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"

	"sheetview/internal/ai"
	"sheetview/internal/export"
	"sheetview/internal/model"
	"sheetview/internal/sheetref"
	"sheetview/internal/util/logx"
)

func (m *Model) buildHelpItems() []helpItem {
	km := m.keymap
	items := []helpItem{
		{group: "Navigation", text: "Previous row", key: tea.Key{Type: tea.KeyUp}},
		{group: "Navigation", text: "Next row", key: tea.Key{Type: tea.KeyDown}},
		{group: "Navigation", text: "Previous column", key: km.ColLeft},
		{group: "Navigation", text: "Next column", key: km.ColRight},
		{group: "Navigation", text: "Next page", key: km.NextPage},
		{group: "Navigation", text: "Previous page", key: km.PrevPage},
		{group: "Navigation", text: "First page", key: km.FirstPage},
		{group: "Navigation", text: "Last page", key: km.LastPage},
		{group: "Navigation", text: "Switch source tab", key: km.NextTab},

		{group: "Table", text: "Search all columns", key: km.Search},
		{group: "Table", text: "Filter by expression", key: km.Filter},
		{group: "Table", text: "Sort by selected column", key: km.Sort},
		{group: "Table", text: "Edit selected cell", key: km.Edit},
		{group: "Table", text: "Copy selected cell", key: km.CopyCell},

		{group: "Google Sheets", text: "Sheet URL or ID", key: km.SheetInput},
		{group: "Google Sheets", text: "Tab name", key: km.TabName},

		{group: "Local file", text: "Open file", key: km.OpenFile},
		{group: "Local file", text: "Previous sheet", key: km.PrevSheet},
		{group: "Local file", text: "Next sheet", key: km.NextSheet},
		{group: "Local file", text: "Clear file", key: km.ClearFile},

		{group: "Control", text: "Reload", key: km.Fetch},
		{group: "Control", text: "Toggle auto sync", key: km.AutoSync},
		{group: "Control", text: "Export CSV", key: km.ExportCSV},
		{group: "Control", text: "Export XLSX", key: km.ExportXLSX},
		{group: "Control", text: "Application logs", key: km.AppLogs},
		{group: "Control", text: "Help", key: km.Help},
		{group: "Control", text: "Quit", key: km.Quit},

		{group: "AI", text: "Summarize data (OpenAI)", key: km.Summarize},
	}
	return items
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.termWidth, m.termHeight = msg.Width, msg.Height
		// tabs, source line, footer, stats bar, bottom line
		m.tbl.SetHeight(max(msg.Height-5, 3))
		m.tbl.SetWidth(msg.Width)
		m.refreshTable()
		if m.modalActive {
			m.resizeModal()
		}
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC {
			m.quitting = true
			return m, tea.Quit
		}
		if m.modalActive {
			return m, m.updateModal(msg)
		}
		if m.inputKind != inputNone {
			return m, m.updateInput(msg)
		}
		if _, ok := m.panel().engine.Editing(); ok {
			return m, m.updateEditor(msg)
		}
		return m, m.updateKeys(msg)
	case toastMsg:
		return m, m.toast(msg.text, msg.kind)
	case toastExpireMsg:
		if msg.id == m.toastID {
			m.toastText = ""
		}
		return m, nil
	case spinner.TickMsg:
		if !m.google.loading && !m.local.loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spin, cmd = m.spin.Update(msg)
		return m, cmd
	case googleLoadedMsg:
		return m, m.onGoogleLoaded(msg)
	case localLoadedMsg:
		return m, m.onLocalLoaded(msg)
	case syncTickMsg:
		return m, m.onSyncTick(msg.tab)
	case fileChangedMsg:
		return m, m.onFileChanged(msg.path)
	case summaryMsg:
		if msg.err != nil {
			logx.Warnf("openai: summary failed: %v", msg.err)
			return m, m.toast(fmt.Sprintf("Summary failed: %v", msg.err), toastError)
		}
		m.openModal(modalSummary, "Data summary", msg.summary.String())
		return m, nil
	}
	return m, nil
}

func (m *Model) updateKeys(msg tea.KeyMsg) tea.Cmd {
	km := m.keymap
	p := m.panel()
	switch {
	case keyMatches(msg, km.NextTab), keyMatches(msg, km.PrevTab):
		if m.active == model.TabGoogle {
			m.setActive(model.TabLocal)
		} else {
			m.setActive(model.TabGoogle)
		}
		return nil
	case keyMatches(msg, km.Search):
		m.openInput(inputSearch, p.engine.Query())
		return nil
	case keyMatches(msg, km.Filter):
		m.openInput(inputExpr, p.engine.Expr())
		return nil
	case keyMatches(msg, km.ColLeft):
		if p.selCol > 0 {
			p.selCol--
			m.refreshTable()
		}
		return nil
	case keyMatches(msg, km.ColRight):
		if p.selCol+1 < len(p.res.Headers) {
			p.selCol++
			m.refreshTable()
		}
		return nil
	case keyMatches(msg, km.Sort):
		if len(p.res.Headers) > 0 {
			p.engine.ToggleSort(p.selCol)
			m.recompute()
		}
		return nil
	case keyMatches(msg, km.Edit):
		return m.beginEdit()
	case keyMatches(msg, km.NextPage):
		p.engine.Next(p.res.Pages)
		p.cursor = 0
		m.recompute()
		return nil
	case keyMatches(msg, km.PrevPage):
		p.engine.Prev(p.res.Pages)
		p.cursor = 0
		m.recompute()
		return nil
	case keyMatches(msg, km.FirstPage):
		p.engine.First(p.res.Pages)
		p.cursor = 0
		m.recompute()
		return nil
	case keyMatches(msg, km.LastPage):
		p.engine.Last(p.res.Pages)
		p.cursor = 0
		m.recompute()
		return nil
	case keyMatches(msg, km.SheetInput):
		m.setActive(model.TabGoogle)
		m.openInput(inputSheet, m.google.cfg.SheetInput)
		return nil
	case keyMatches(msg, km.TabName):
		m.setActive(model.TabGoogle)
		m.openInput(inputTab, m.google.cfg.TabName)
		return nil
	case keyMatches(msg, km.OpenFile):
		m.setActive(model.TabLocal)
		m.openInput(inputFile, m.local.path)
		return nil
	case keyMatches(msg, km.Fetch):
		return m.reload()
	case keyMatches(msg, km.AutoSync):
		return m.toggleSync()
	case keyMatches(msg, km.PrevSheet), keyMatches(msg, km.NextSheet):
		if m.active != model.TabLocal {
			return nil
		}
		d := 1
		if keyMatches(msg, km.PrevSheet) {
			d = -1
		}
		return m.withSpinner(m.switchSheet(m.local.active + d))
	case keyMatches(msg, km.ClearFile):
		if m.active != model.TabLocal || (m.local.fileName == "" && m.local.data.Empty()) {
			return nil
		}
		return m.clearLocal()
	case keyMatches(msg, km.ExportCSV):
		return m.exportActive("csv")
	case keyMatches(msg, km.ExportXLSX):
		return m.exportActive("xlsx")
	case keyMatches(msg, km.CopyCell):
		return m.copyCell()
	case keyMatches(msg, km.Summarize):
		return m.summarize()
	case keyMatches(msg, km.AppLogs):
		m.openModal(modalLogs, "Application Logs", strings.Join(logx.Tail(logModalLines), "\n"))
		return nil
	case keyMatches(msg, km.Help):
		m.openHelpModal()
		return nil
	case keyMatches(msg, km.Quit):
		m.quitting = true
		return tea.Quit
	case msg.Type == tea.KeyEsc:
		// esc drops search and expression filter
		if p.engine.Query() != "" || p.engine.Expr() != "" {
			p.engine.SetQuery("")
			p.engine.ClearExpr()
			m.recompute()
		}
		return nil
	}
	var cmd tea.Cmd
	m.tbl, cmd = m.tbl.Update(msg)
	p.cursor = m.tbl.Cursor()
	return cmd
}

// recompute re-runs the active view and repaints.
func (m *Model) recompute() {
	m.panel().compute()
	m.refreshTable()
}

func (m *Model) openInput(kind inputKind, value string) {
	m.inputKind = kind
	m.inputPrev = value
	m.input.Prompt = inputPrompt(kind)
	m.input.SetValue(value)
	m.input.CursorEnd()
	m.input.Focus()
}

func inputPrompt(kind inputKind) string {
	switch kind {
	case inputSearch:
		return "search: "
	case inputExpr:
		return "filter expr: "
	case inputSheet:
		return "sheet url or id: "
	case inputTab:
		return "tab name: "
	case inputFile:
		return "open file: "
	}
	return "> "
}

func (m *Model) closeInput() {
	m.inputKind = inputNone
	m.input.Blur()
}

func (m *Model) updateInput(msg tea.KeyMsg) tea.Cmd {
	p := m.panel()
	kind := m.inputKind
	switch msg.Type {
	case tea.KeyEsc:
		if kind == inputSearch {
			p.engine.SetQuery(m.inputPrev)
			m.recompute()
		}
		m.closeInput()
		return nil
	case tea.KeyEnter:
		val := strings.TrimSpace(m.input.Value())
		m.closeInput()
		return m.applyInput(kind, val)
	}
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	if kind == inputSearch {
		// search narrows as you type
		p.engine.SetQuery(m.input.Value())
		m.recompute()
	}
	return cmd
}

func (m *Model) applyInput(kind inputKind, val string) tea.Cmd {
	p := m.panel()
	switch kind {
	case inputExpr:
		if err := p.engine.SetExpr(val); err != nil {
			return m.toast(fmt.Sprintf("Invalid filter: %v", err), toastError)
		}
		m.recompute()
	case inputSheet, inputTab:
		c := m.google.cfg
		if kind == inputSheet {
			c.SheetInput = val
		} else {
			c.TabName = val
		}
		cmd := m.updateConfig(c)
		if c.SheetInput == "" {
			return cmd
		}
		return tea.Batch(cmd, m.withSpinner(m.fetchGoogle(false)))
	case inputFile:
		if val == "" {
			return nil
		}
		return m.withSpinner(m.openLocal(val, false))
	}
	return nil
}

func (m *Model) beginEdit() tea.Cmd {
	p := m.panel()
	if !p.engine.BeginEdit(p.res, m.tbl.Cursor(), p.selCol) {
		return nil
	}
	ed, _ := p.engine.Editing()
	p.cursor = m.tbl.Cursor()
	m.editor.SetValue(ed.Pending)
	m.editor.CursorEnd()
	m.editor.Focus()
	m.refreshTable()
	return nil
}

func (m *Model) updateEditor(msg tea.KeyMsg) tea.Cmd {
	p := m.panel()
	switch msg.Type {
	case tea.KeyEsc:
		p.engine.Cancel()
		m.editor.Blur()
		m.refreshTable()
		return nil
	case tea.KeyEnter:
		return m.commitEdit()
	case tea.KeyUp, tea.KeyDown:
		// leaving the cell commits, then the move happens
		cmd := m.commitEdit()
		m.tbl, _ = m.tbl.Update(msg)
		p.cursor = m.tbl.Cursor()
		return cmd
	}
	var cmd tea.Cmd
	m.editor, cmd = m.editor.Update(msg)
	p.engine.SetPending(m.editor.Value())
	m.refreshTable()
	return cmd
}

func (m *Model) commitEdit() tea.Cmd {
	p := m.panel()
	m.editor.Blur()
	rows, ok := p.engine.Commit(p.data)
	if !ok {
		logx.Debugf("ui: edit dropped, row no longer in %s data", m.active)
		m.refreshTable()
		return nil
	}
	if m.active == model.TabGoogle {
		snap := m.google.snapshot()
		snap.Rows = rows
		m.replaceGoogle(snap)
		return nil
	}
	l := m.local
	if l.hasWorkbook() && l.active < len(l.wb.Sheets) {
		// keep the in-memory workbook in step so a sheet round trip keeps edits
		sheets := append([]model.Sheet(nil), l.wb.Sheets...)
		sheets[l.active].Rows = rows
		l.wb = model.Workbook{Sheets: sheets}
	}
	snap := l.snapshot()
	snap.Rows = rows
	m.replaceLocal(snap)
	return nil
}

func (m *Model) reload() tea.Cmd {
	if m.active == model.TabGoogle {
		return m.withSpinner(m.fetchGoogle(false))
	}
	if m.local.path == "" {
		return m.toast("No file to reload", toastInfo)
	}
	return m.withSpinner(m.readLocal(m.local.path, false, -1))
}

func (m *Model) toggleSync() tea.Cmd {
	if m.active == model.TabLocal {
		if m.local.syncing() {
			m.stopLocalSync()
			return m.toast("Auto sync off", toastInfo)
		}
		if cmd := m.startLocalSync(); cmd != nil {
			return cmd
		}
		return m.toast(fmt.Sprintf("Auto sync every %s", m.local.syncer.Interval()), toastInfo)
	}
	c := m.google.cfg
	c.AutoSync = !c.AutoSync
	cmd := m.updateConfig(c)
	switch {
	case !c.AutoSync:
		return tea.Batch(cmd, m.toast("Auto sync off", toastInfo))
	case sheetref.ResolveID(c.SheetInput) == "":
		return tea.Batch(cmd, m.toast("Auto sync will start once a sheet is set", toastInfo))
	}
	return tea.Batch(cmd, m.toast(fmt.Sprintf("Auto sync every %s", m.google.syncer.Interval()), toastInfo))
}

func (m *Model) activeSheetName() string {
	if m.active == model.TabGoogle {
		if m.google.sheetName != "" {
			return m.google.sheetName
		}
	} else if l := m.local; l.active < len(l.sheets) {
		return l.sheets[l.active]
	}
	return defaultSheetName
}

// exportActive writes the active panel's full data, ignoring search, filter
// and sort.
func (m *Model) exportActive(ext string) tea.Cmd {
	p := m.panel()
	path, err := export.ToFile(m.cfg.ExportDir, ext, m.activeSheetName(), p.data, m.now())
	if err != nil {
		if errors.Is(err, export.ErrNoData) {
			return m.toast("Nothing to export", toastInfo)
		}
		logx.Errorf("export: %v", err)
		return m.toast(fmt.Sprintf("Export failed: %v", err), toastError)
	}
	logx.Infof("export: wrote %d rows to %s", len(p.data.Rows), path)
	return m.toast(fmt.Sprintf("Exported %d rows to %s", len(p.data.Rows), path), toastSuccess)
}

func (m *Model) copyCell() tea.Cmd {
	p := m.panel()
	i := m.tbl.Cursor()
	if i < 0 || i >= len(p.res.Rows) || len(p.res.Headers) == 0 {
		return nil
	}
	v := p.res.Rows[i].Cell(p.selCol).String()
	if err := clipboard.WriteAll(v); err != nil {
		logx.Debugf("clipboard: %v, falling back to OSC52", err)
		copyToClipboard(v)
	}
	return m.toast("Copied to clipboard", toastInfo)
}

func (m *Model) summarize() tea.Cmd {
	if !m.ai.Enabled() {
		return m.toast(ai.ErrDisabled.Error(), toastInfo)
	}
	p := m.panel()
	if p.data.Empty() {
		return m.toast("Nothing to summarize", toastInfo)
	}
	client, ctx := m.ai, m.ctx
	headers, rows := p.data.Headers, p.data.Rows
	logx.Infof("openai: summarizing %d rows", len(rows))
	return tea.Batch(
		m.toast("Summarizing with OpenAI...", toastInfo),
		func() tea.Msg {
			s, err := client.Summarize(ctx, headers, rows)
			return summaryMsg{summary: s, err: err}
		},
	)
}

func (m *Model) updateModal(msg tea.KeyMsg) tea.Cmd {
	if m.modalKind == modalHelp {
		switch {
		case msg.Type == tea.KeyUp:
			if m.helpSel > 0 {
				m.helpSel--
				m.modalVP.SetContent(m.renderHelp())
			}
		case msg.Type == tea.KeyDown:
			if m.helpSel+1 < len(m.helpItems) {
				m.helpSel++
				m.modalVP.SetContent(m.renderHelp())
			}
		case msg.Type == tea.KeyEnter:
			if len(m.helpItems) > 0 {
				it := m.helpItems[m.helpSel]
				m.modalActive = false
				return keyCmd(it.key)
			}
		case msg.Type == tea.KeyEsc || msg.String() == "q" || msg.String() == "?":
			m.modalActive = false
		}
		return nil
	}
	switch {
	case msg.Type == tea.KeyEsc || msg.Type == tea.KeyEnter || msg.String() == "q":
		m.modalActive = false
		return nil
	case msg.String() == "c":
		copyToClipboard(m.modalBody)
		return m.toast("Copied to clipboard", toastInfo)
	}
	var cmd tea.Cmd
	m.modalVP, cmd = m.modalVP.Update(msg)
	return cmd
}

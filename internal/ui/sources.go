package ui

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"sheetview/internal/ingest"
	"sheetview/internal/model"
	"sheetview/internal/normalize"
	"sheetview/internal/parse"
	"sheetview/internal/sheetref"
	"sheetview/internal/util/logx"
	"sheetview/internal/view"
)

const defaultSheetName = "Sheet1"

// fetchGoogle loads the configured sheet. Silent loads neither toast nor
// show the spinner.
func (m *Model) fetchGoogle(silent bool) tea.Cmd {
	g := m.google
	ref := sheetref.Resolve(g.cfg.SheetInput, g.cfg.TabName)
	if !ref.Valid() {
		if silent {
			return nil
		}
		return m.toast(ingest.ErrEmptyReference.Error(), toastError)
	}
	ctx, seq := g.begin(m.ctx)
	if !silent {
		g.loading = true
	}
	name := ref.Tab
	if name == "" {
		name = defaultSheetName
	}
	fetcher := m.fetch
	logx.Debugf("google: load #%d %s silent=%v", seq, ref, silent)
	return func() tea.Msg {
		text, err := fetcher.Fetch(ctx, ref)
		if err != nil {
			return googleLoadedMsg{seq: seq, silent: silent, err: err}
		}
		data := normalize.CSV(parse.CSV(text))
		return googleLoadedMsg{seq: seq, silent: silent, data: data, sheetName: name}
	}
}

func (m *Model) onGoogleLoaded(msg googleLoadedMsg) tea.Cmd {
	g := m.google
	if !g.finish(msg.seq) {
		return nil
	}
	if msg.err != nil {
		if errors.Is(msg.err, context.Canceled) {
			return nil
		}
		if msg.silent {
			logx.Warnf("google: sync failed: %v", msg.err)
			return nil
		}
		logx.Errorf("google: fetch failed: %v", msg.err)
		return m.toast(msg.err.Error(), toastError)
	}
	g.lastSynced = m.now()
	if msg.data.Empty() {
		// nothing parsed: keep what is on screen
		logx.Infof("google: empty sheet, keeping previous data")
		return nil
	}
	rows := msg.data.Rows
	if slices.Equal(g.data.Headers, msg.data.Headers) {
		rows = model.CarryKeys(g.data.Rows, rows)
	}
	m.replaceGoogle(model.GoogleSnapshot{Headers: msg.data.Headers, Rows: rows, SheetName: msg.sheetName})
	logx.Infof("google: %d rows, %d columns", len(msg.data.Rows), len(msg.data.Headers))
	if msg.silent {
		return nil
	}
	return m.toast(fmt.Sprintf("Successfully loaded %d rows", len(msg.data.Rows)), toastSuccess)
}

// openLocal reads a file picked by path. autoSync turns on interval re-reads
// (and CSV append following) once the file has loaded.
func (m *Model) openLocal(path string, autoSync bool) tea.Cmd {
	path = strings.TrimSpace(path)
	if path == "" {
		return nil
	}
	if abs, err := filepath.Abs(path); err == nil {
		path = abs
	}
	if err := ingest.CheckExtension(path); err != nil {
		return m.toast(err.Error(), toastError)
	}
	l := m.local
	if path != l.path {
		l.stopSync()
		l.stopWatch()
	}
	cmd := m.readLocal(path, false, 0)
	if autoSync {
		l.pendingSync = true
	}
	return cmd
}

func (m *Model) readLocal(path string, silent bool, prefer int) tea.Cmd {
	l := m.local
	ctx, seq := l.begin(m.ctx)
	if !silent {
		l.loading = true
	}
	return func() tea.Msg {
		wb, err := ingest.ReadWorkbook(path)
		if ctx.Err() != nil {
			err = ctx.Err()
		}
		return localLoadedMsg{seq: seq, silent: silent, path: path, prefer: prefer, wb: wb, err: err}
	}
}

func (m *Model) onLocalLoaded(msg localLoadedMsg) tea.Cmd {
	l := m.local
	if !l.finish(msg.seq) {
		return nil
	}
	if msg.err != nil {
		l.pendingSync = false
		if errors.Is(msg.err, context.Canceled) {
			return nil
		}
		if msg.silent {
			logx.Warnf("local: sync failed: %v", msg.err)
			return nil
		}
		logx.Errorf("local: read failed: %v", msg.err)
		return m.toast(msg.err.Error(), toastError)
	}
	sameFile := msg.path == l.path
	active := msg.prefer
	if active < 0 {
		active = l.active
	}
	if active >= len(msg.wb.Sheets) {
		active = 0
	}
	if !sameFile {
		l.engine = view.New()
		l.selCol, l.cursor = 0, 0
	} else if active == l.active && active < len(msg.wb.Sheets) && slices.Equal(l.data.Headers, msg.wb.Sheets[active].Headers) {
		model.CarryKeys(l.data.Rows, msg.wb.Sheets[active].Rows)
	}
	l.wb = msg.wb
	l.lastSynced = m.now()
	snap := model.LocalSnapshot{
		Headers:     []string{},
		Rows:        []model.Row{},
		FileName:    filepath.Base(msg.path),
		Path:        msg.path,
		Sheets:      msg.wb.Names(),
		ActiveSheet: active,
	}
	if len(msg.wb.Sheets) > 0 {
		s := msg.wb.Sheets[active]
		snap.Headers, snap.Rows = s.Headers, s.Rows
	}
	m.replaceLocal(snap)

	var cmds []tea.Cmd
	if l.pendingSync {
		l.pendingSync = false
		cmds = append(cmds, m.startLocalSync())
	}
	if !msg.silent {
		cmds = append(cmds, m.toast(fmt.Sprintf("Loaded %q: %d sheet(s), %d rows", snap.FileName, len(msg.wb.Sheets), msg.wb.TotalRows()), toastSuccess))
	}
	return tea.Batch(cmds...)
}

// switchSheet activates sheet i. With the workbook in memory this is a
// reference swap; otherwise the file is read again.
func (m *Model) switchSheet(i int) tea.Cmd {
	l := m.local
	if i < 0 || i >= len(l.sheets) || i == l.active {
		return nil
	}
	if !l.hasWorkbook() {
		if l.path == "" {
			return m.toast("open the file again to switch sheets", toastInfo)
		}
		return m.readLocal(l.path, false, i)
	}
	s := l.wb.Sheets[i]
	l.engine.First(0)
	l.cursor = 0
	snap := l.snapshot()
	snap.Headers, snap.Rows, snap.ActiveSheet = s.Headers, s.Rows, i
	m.replaceLocal(snap)
	return nil
}

func (m *Model) clearLocal() tea.Cmd {
	l := m.local
	l.stopSync()
	l.stopWatch()
	if l.cancel != nil {
		l.cancel()
		l.cancel = nil
	}
	l.loading = false
	l.wb = model.Workbook{}
	l.engine = view.New()
	l.selCol, l.cursor = 0, 0
	m.replaceLocal(model.LocalSnapshot{Headers: []string{}, Rows: []model.Row{}, Sheets: []string{}})
	return m.toast("File cleared", toastInfo)
}

// startLocalSync re-reads the open file on the sync interval and, for CSV,
// also as soon as lines are appended.
func (m *Model) startLocalSync() tea.Cmd {
	l := m.local
	if l.path == "" {
		return m.toast("open a file by path to enable auto sync", toastError)
	}
	l.syncer.Start(m.ctx)
	if ingest.CanWatch(l.path) && l.watching == nil {
		ctx, cancel := context.WithCancel(m.ctx)
		ticks, err := ingest.Watch(ctx, l.path)
		if err != nil {
			cancel()
			logx.Warnf("local: watch %s: %v", l.path, err)
		} else {
			l.watching = cancel
			path := l.path
			go func() {
				for range ticks {
					m.post(fileChangedMsg{path: path})
				}
			}()
		}
	}
	logx.Infof("local: auto sync on for %s", l.path)
	return nil
}

func (m *Model) stopLocalSync() {
	m.local.stopSync()
	m.local.stopWatch()
	logx.Infof("local: auto sync off")
}

func (m *Model) onSyncTick(tab model.Tab) tea.Cmd {
	switch tab {
	case model.TabGoogle:
		g := m.google
		if !g.syncing() || g.inFlight() {
			return nil
		}
		return m.fetchGoogle(true)
	case model.TabLocal:
		l := m.local
		if !l.syncing() || l.inFlight() || l.path == "" {
			return nil
		}
		return m.readLocal(l.path, true, -1)
	}
	return nil
}

func (m *Model) onFileChanged(path string) tea.Cmd {
	l := m.local
	if path != l.path || l.watching == nil || l.inFlight() {
		return nil
	}
	return m.readLocal(path, true, -1)
}

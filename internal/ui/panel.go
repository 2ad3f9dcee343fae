package ui

import (
	"context"
	"time"

	"sheetview/internal/autosync"
	"sheetview/internal/model"
	"sheetview/internal/util/logx"
	"sheetview/internal/view"
)

// panel is the state shared by both data sources: the owned table, its view
// engine and the bookkeeping for loads and auto sync.
type panel struct {
	tab    model.Tab
	data   model.TableData
	engine *view.Engine
	res    view.Result
	selCol int
	cursor int

	// seq numbers loads; only the completion of the latest one is applied
	seq    uint64
	cancel context.CancelFunc

	loading    bool
	lastSynced time.Time
	syncer     *autosync.Syncer
}

func newPanel(tab model.Tab) panel {
	return panel{
		tab:    tab,
		data:   model.TableData{Headers: []string{}, Rows: []model.Row{}},
		engine: view.New(),
	}
}

// begin starts a new load, canceling the one in flight.
func (p *panel) begin(parent context.Context) (context.Context, uint64) {
	if p.cancel != nil {
		p.cancel()
	}
	p.seq++
	ctx, cancel := context.WithCancel(parent)
	p.cancel = cancel
	return ctx, p.seq
}

func (p *panel) inFlight() bool { return p.cancel != nil }

// finish reports whether the completion of load seq should be applied.
func (p *panel) finish(seq uint64) bool {
	if seq != p.seq {
		logx.Debugf("%s: dropping stale load #%d (latest #%d)", p.tab, seq, p.seq)
		return false
	}
	if p.cancel != nil {
		p.cancel()
		p.cancel = nil
	}
	p.loading = false
	return true
}

func (p *panel) compute() view.Result {
	p.res = p.engine.Compute(p.data)
	if n := len(p.res.Headers); p.selCol >= n {
		p.selCol = max(n-1, 0)
	}
	if p.cursor >= len(p.res.Rows) {
		p.cursor = max(len(p.res.Rows)-1, 0)
	}
	return p.res
}

func (p *panel) stopSync() {
	if p.syncer != nil {
		p.syncer.Stop()
	}
}

func (p *panel) syncing() bool { return p.syncer != nil && p.syncer.Running() }

type googlePanel struct {
	panel
	cfg       model.SyncConfig
	sheetName string
}

func (g *googlePanel) snapshot() model.GoogleSnapshot {
	return model.GoogleSnapshot{Headers: g.data.Headers, Rows: g.data.Rows, SheetName: g.sheetName}
}

// replace swaps in a whole new snapshot at once.
func (g *googlePanel) replace(s model.GoogleSnapshot) {
	g.data = model.TableData{Headers: s.Headers, Rows: s.Rows}
	g.sheetName = s.SheetName
}

type localPanel struct {
	panel
	// wb is the whole workbook when the file was read this session; after a
	// restart only the active sheet survives
	wb       model.Workbook
	fileName string
	path     string
	sheets   []string
	active   int
	watching context.CancelFunc
	// pendingSync starts auto sync once the load in flight lands
	pendingSync bool
}

func (l *localPanel) snapshot() model.LocalSnapshot {
	return model.LocalSnapshot{
		Headers:     l.data.Headers,
		Rows:        l.data.Rows,
		FileName:    l.fileName,
		Path:        l.path,
		Sheets:      l.sheets,
		ActiveSheet: l.active,
	}
}

func (l *localPanel) replace(s model.LocalSnapshot) {
	l.data = model.TableData{Headers: s.Headers, Rows: s.Rows}
	l.fileName = s.FileName
	l.path = s.Path
	l.sheets = s.Sheets
	l.active = s.ActiveSheet
}

// hasWorkbook reports whether every listed sheet is in memory.
func (l *localPanel) hasWorkbook() bool {
	return len(l.sheets) > 0 && len(l.wb.Sheets) == len(l.sheets)
}

func (l *localPanel) stopWatch() {
	if l.watching != nil {
		l.watching()
		l.watching = nil
	}
}

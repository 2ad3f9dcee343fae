package ui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"sheetview/internal/ai"
	"sheetview/internal/autosync"
	"sheetview/internal/config"
	"sheetview/internal/ingest"
	"sheetview/internal/model"
	"sheetview/internal/sheetref"
	"sheetview/internal/store"
	"sheetview/internal/util/logx"
)

// Deps are the collaborators the UI does not build itself.
type Deps struct {
	Store *store.Store
	Fetch *ingest.Fetcher
	AI    *ai.Client
	Now   func() time.Time
}

func initialModel(ctx context.Context, cfg *config.Config, deps Deps) *Model {
	m := &Model{
		ctx:    ctx,
		cfg:    cfg,
		store:  deps.Store,
		fetch:  deps.Fetch,
		ai:     deps.AI,
		now:    deps.Now,
		active: model.TabGoogle,
		styles: NewStyles(cfg.Theme == config.ThemeDark),
		keymap: DefaultKeyMap(),
		input:  textinput.New(),
		editor: textinput.New(),
		spin:   spinner.New(),
	}
	if m.now == nil {
		m.now = time.Now
	}
	if m.fetch == nil {
		m.fetch = ingest.NewFetcher(cfg.FetchTimeout)
	}
	m.spin.Spinner = spinner.Dot
	m.input.CharLimit = 1024
	m.editor.Prompt = ""
	m.editor.CharLimit = 4096
	m.modalVP = viewport.New(80, 20)

	m.tbl = table.New(table.WithFocused(true), table.WithHeight(20), table.WithKeyMap(tableKeys()))
	ts := table.DefaultStyles()
	ts.Header = lipgloss.NewStyle().PaddingRight(1).Bold(true)
	ts.Cell = lipgloss.NewStyle().PaddingRight(1)
	ts.Selected = m.styles.TableStyles.Selected
	m.tbl.SetStyles(ts)

	g := &googlePanel{panel: newPanel(model.TabGoogle)}
	l := &localPanel{panel: newPanel(model.TabLocal)}
	g.syncer = autosync.New(cfg.SyncInterval, func(context.Context) { m.post(syncTickMsg{tab: model.TabGoogle}) })
	l.syncer = autosync.New(cfg.SyncInterval, func(context.Context) { m.post(syncTickMsg{tab: model.TabLocal}) })
	m.google, m.local = g, l

	m.restore()
	m.refreshTable()
	return m
}

// restore loads persisted state, then lets explicit flags override it.
func (m *Model) restore() {
	st := store.DefaultState()
	if m.store != nil {
		st = m.store.LoadState()
	}
	m.active = st.ActiveTab
	m.google.replace(st.Google)
	m.google.cfg = st.GoogleConfig
	m.local.replace(st.Local)

	if m.cfg.SheetFromFlag || (m.cfg.SheetInput != "" && m.google.cfg.SheetInput == "") {
		m.google.cfg.SheetInput = m.cfg.SheetInput
		m.google.cfg.TabName = m.cfg.TabName
	}
	if m.cfg.AutoSync {
		m.google.cfg.AutoSync = true
	}
	if m.cfg.FileFromFlag {
		m.active = model.TabLocal
	}
	m.google.compute()
	m.local.compute()
}

func Run(ctx context.Context, cfg *config.Config, deps Deps) error {
	m := initialModel(ctx, cfg, deps)
	p := tea.NewProgram(m, tea.WithContext(ctx), tea.WithAltScreen())
	m.send = p.Send
	_, err := p.Run()
	m.shutdown()
	return err
}

func (m *Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.reconcileGoogleSync()}
	if m.cfg.FileFromFlag && m.cfg.FilePath != "" {
		cmds = append(cmds, m.withSpinner(m.openLocal(m.cfg.FilePath, m.cfg.Watch)))
	} else if m.cfg.SheetFromFlag && sheetref.ResolveID(m.google.cfg.SheetInput) != "" {
		cmds = append(cmds, m.withSpinner(m.fetchGoogle(false)))
	}
	return tea.Batch(cmds...)
}

// post hands a message to the program without blocking the caller. Timer
// goroutines use it so that stopping a timer from Update can never wait on
// a send that Update itself would have to receive.
func (m *Model) post(msg tea.Msg) {
	if m.send != nil {
		go m.send(msg)
	}
}

func (m *Model) shutdown() {
	m.google.stopSync()
	m.local.stopSync()
	m.local.stopWatch()
	if m.google.cancel != nil {
		m.google.cancel()
	}
	if m.local.cancel != nil {
		m.local.cancel()
	}
	if m.store != nil {
		if err := m.store.Close(); err != nil {
			logx.Warnf("store: close: %v", err)
		}
	}
}

func (m *Model) panel() *panel {
	if m.active == model.TabLocal {
		return &m.local.panel
	}
	return &m.google.panel
}

func (m *Model) replaceGoogle(s model.GoogleSnapshot) {
	m.google.replace(s)
	m.google.compute()
	m.persist(store.KeyGoogleData, m.google.snapshot())
	m.refreshTable()
}

func (m *Model) replaceLocal(s model.LocalSnapshot) {
	m.local.replace(s)
	m.local.compute()
	m.persist(store.KeyLocalData, m.local.snapshot())
	m.refreshTable()
}

// updateConfig is the only writer of the Google sync configuration.
func (m *Model) updateConfig(c model.SyncConfig) tea.Cmd {
	prev := m.google.cfg
	m.google.cfg = c
	m.persist(store.KeyGoogleConfig, c)
	if prev.SheetInput != c.SheetInput || prev.TabName != c.TabName {
		// reconfiguring restarts a running timer against the new source
		m.google.stopSync()
	}
	return m.reconcileGoogleSync()
}

// reconcileGoogleSync starts or stops the Google timer to match the
// configuration. Syncing needs a resolvable sheet reference.
func (m *Model) reconcileGoogleSync() tea.Cmd {
	g := m.google
	want := g.cfg.AutoSync && sheetref.ResolveID(g.cfg.SheetInput) != ""
	switch {
	case want && !g.syncing():
		g.syncer.Start(m.ctx)
		logx.Infof("google: auto sync every %s", g.syncer.Interval())
	case !want && g.syncing():
		g.syncer.Stop()
		logx.Infof("google: auto sync stopped")
	}
	return nil
}

func (m *Model) setActive(t model.Tab) {
	if m.active == t {
		return
	}
	m.panel().cursor = m.tbl.Cursor()
	m.active = t
	m.colOffset = 0
	m.persist(store.KeyActiveTab, t)
	m.refreshTable()
}

func (m *Model) persist(key string, v any) {
	if m.store == nil {
		return
	}
	if err := m.store.Save(key, v); err != nil {
		logx.Errorf("persist %s: %v", key, err)
	}
}

func (m *Model) toast(text string, kind toastKind) tea.Cmd {
	m.toastID++
	m.toastText, m.toastKind = text, kind
	id := m.toastID
	return tea.Tick(toastTTL, func(time.Time) tea.Msg { return toastExpireMsg{id: id} })
}

func (m *Model) withSpinner(cmd tea.Cmd) tea.Cmd {
	if cmd == nil {
		return nil
	}
	return tea.Batch(cmd, m.spin.Tick)
}

package ui

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/xuri/excelize/v2"

	"sheetview/internal/config"
	"sheetview/internal/ingest"
	"sheetview/internal/model"
	"sheetview/internal/store"
	"sheetview/internal/util/logx"
)

var fixedNow = time.Date(2024, 3, 5, 12, 0, 0, 0, time.UTC)

func newTestModel(t *testing.T, deps Deps) *Model {
	t.Helper()
	cfg := &config.Config{
		SyncInterval: time.Hour,
		FetchTimeout: 5 * time.Second,
		Theme:        config.ThemeDark,
		ExportDir:    t.TempDir(),
	}
	if deps.Now == nil {
		deps.Now = func() time.Time { return fixedNow }
	}
	m := initialModel(context.Background(), cfg, deps)
	m.Update(tea.WindowSizeMsg{Width: 160, Height: 40})
	t.Cleanup(func() {
		m.google.stopSync()
		m.local.stopSync()
		m.local.stopWatch()
	})
	return m
}

func runes(s string) tea.KeyMsg { return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)} }

func press(m *Model, msgs ...tea.KeyMsg) {
	for _, k := range msgs {
		m.Update(k)
	}
}

func rowsOf(headers []string, recs ...[]string) model.GoogleSnapshot {
	rows := make([]model.Row, len(recs))
	for i, r := range recs {
		cells := make([]model.Cell, len(r))
		for j, v := range r {
			cells[j] = model.Str(v)
		}
		rows[i] = model.NewRow(cells)
	}
	return model.GoogleSnapshot{Headers: headers, Rows: rows, SheetName: "Sheet1"}
}

func writeTwoSheetWorkbook(t *testing.T) string {
	t.Helper()
	f := excelize.NewFile()
	defer f.Close()
	if err := f.SetSheetName("Sheet1", "A"); err != nil {
		t.Fatalf("rename: %v", err)
	}
	if _, err := f.NewSheet("B"); err != nil {
		t.Fatalf("new sheet: %v", err)
	}
	_ = f.SetCellValue("A", "A1", "Item")
	_ = f.SetCellValue("A", "B1", "Qty")
	for i := 0; i < 10; i++ {
		_ = f.SetCellValue("A", fmt.Sprintf("A%d", i+2), fmt.Sprintf("item-%d", i))
		_ = f.SetCellValue("A", fmt.Sprintf("B%d", i+2), i)
	}
	path := filepath.Join(t.TempDir(), "book.xlsx")
	if err := f.SaveAs(path); err != nil {
		t.Fatalf("save: %v", err)
	}
	return path
}

func loadLocal(t *testing.T, m *Model, path string) {
	t.Helper()
	cmd := m.openLocal(path, false)
	if cmd == nil {
		t.Fatalf("openLocal returned no command")
	}
	msg, ok := cmd().(localLoadedMsg)
	if !ok {
		t.Fatalf("expected localLoadedMsg")
	}
	if msg.err != nil {
		t.Fatalf("read: %v", msg.err)
	}
	m.Update(msg)
}

func TestSheetSwitchShowsEmptyStateAndRestores(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.setActive(model.TabLocal)
	loadLocal(t, m, writeTwoSheetWorkbook(t))

	l := m.local
	if got := len(l.res.Rows); got != 10 || l.res.Empty {
		t.Fatalf("sheet A: %d rows, empty=%v", got, l.res.Empty)
	}
	if len(l.sheets) != 2 || l.fileName != "book.xlsx" {
		t.Fatalf("sheets=%v file=%q", l.sheets, l.fileName)
	}
	seq := l.seq

	press(m, runes("]"))
	if l.active != 1 || !l.res.Empty {
		t.Fatalf("sheet B: active=%d empty=%v", l.active, l.res.Empty)
	}
	press(m, runes("["))
	if l.active != 0 || len(l.res.Rows) != 10 {
		t.Fatalf("back to A: active=%d rows=%d", l.active, len(l.res.Rows))
	}
	if l.seq != seq {
		t.Fatalf("switching sheets started a load: seq %d -> %d", seq, l.seq)
	}
	if l.loading {
		t.Fatalf("switching sheets left the panel loading")
	}
}

func TestStaleLocalLoadIsDropped(t *testing.T) {
	m := newTestModel(t, Deps{})
	path := writeTwoSheetWorkbook(t)
	first := m.openLocal(path, false)
	second := m.readLocal(path, false, 1)

	stale := first().(localLoadedMsg)
	m.Update(stale)
	if m.local.fileName != "" {
		t.Fatalf("stale load applied: %q", m.local.fileName)
	}
	if !errors.Is(stale.err, context.Canceled) {
		t.Fatalf("superseded load should report cancellation, got %v", stale.err)
	}
	m.Update(second())
	if m.local.fileName != "book.xlsx" || m.local.active != 1 {
		t.Fatalf("latest load not applied: file=%q active=%d", m.local.fileName, m.local.active)
	}
}

func TestGoogleFetchAndStaleCompletion(t *testing.T) {
	body := `"Name","Amount"` + "\n" + `"a","1"` + "\n" + `"b","2"`
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, body)
	}))
	defer srv.Close()
	fetcher := &ingest.Fetcher{Client: srv.Client(), Base: srv.URL, MaxBytes: ingest.DefaultMaxBytes}
	m := newTestModel(t, Deps{Fetch: fetcher})
	m.google.cfg = model.SyncConfig{SheetInput: "sheet123"}

	m.fetchGoogle(false) // superseded by the next call
	latest := m.fetchGoogle(false)
	if !m.google.loading {
		t.Fatalf("non-silent fetch should set loading")
	}
	m.Update(latest())
	if got := len(m.google.data.Rows); got != 2 {
		t.Fatalf("rows = %d, want 2", got)
	}
	if m.google.sheetName != defaultSheetName {
		t.Fatalf("sheet name = %q", m.google.sheetName)
	}
	if !m.google.lastSynced.Equal(fixedNow) {
		t.Fatalf("lastSynced = %v", m.google.lastSynced)
	}
	if m.toastText != "Successfully loaded 2 rows" {
		t.Fatalf("toast = %q", m.toastText)
	}

	// the older request lands last and must not win
	m.Update(googleLoadedMsg{seq: 1, data: rowsOf([]string{"Other"}, []string{"x"}).Table()})
	if got := m.google.data.Headers; len(got) != 2 || got[0] != "Name" {
		t.Fatalf("stale completion replaced data: %v", got)
	}
}

func TestSilentFailureIsQuiet(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.replaceGoogle(rowsOf([]string{"A"}, []string{"1"}))
	_, seq := m.google.begin(context.Background())
	_, cmd := m.Update(googleLoadedMsg{seq: seq, silent: true, err: errors.New("HTTP 500")})
	if cmd != nil || m.toastText != "" {
		t.Fatalf("silent failure surfaced: toast=%q", m.toastText)
	}
	if len(m.google.data.Rows) != 1 {
		t.Fatalf("silent failure dropped data")
	}
}

func TestEmptyFetchKeepsDataButMarksSynced(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.replaceGoogle(rowsOf([]string{"A"}, []string{"1"}))
	_, seq := m.google.begin(context.Background())
	m.Update(googleLoadedMsg{seq: seq, silent: true, data: model.TableData{}})
	if len(m.google.data.Rows) != 1 {
		t.Fatalf("empty result replaced data")
	}
	if m.google.lastSynced.IsZero() {
		t.Fatalf("lastSynced not updated")
	}
}

func TestFetchWithoutReferenceToasts(t *testing.T) {
	m := newTestModel(t, Deps{})
	if cmd := m.fetchGoogle(false); cmd == nil {
		t.Fatalf("expected a toast command")
	}
	if m.toastText != ingest.ErrEmptyReference.Error() || m.toastKind != toastError {
		t.Fatalf("toast = %q (%v)", m.toastText, m.toastKind)
	}
	if m.google.seq != 0 {
		t.Fatalf("invalid reference started a load")
	}
	if m.fetchGoogle(true) != nil {
		t.Fatalf("silent fetch without reference should do nothing")
	}
}

func TestEditAfterDescendingSortHitsSourceRow(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.replaceGoogle(rowsOf([]string{"Name", "Amount"},
		[]string{"a", "10"},
		[]string{"b", "30"},
		[]string{"c", "20"},
	))
	press(m,
		tea.KeyMsg{Type: tea.KeyRight},
		runes("s"), runes("s"), // Amount, descending
	)
	if got := m.google.res.Rows[0].Cell(0).String(); got != "b" {
		t.Fatalf("first row after desc sort = %q, want b", got)
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if !m.editing() {
		t.Fatalf("enter did not start editing")
	}
	press(m, tea.KeyMsg{Type: tea.KeyCtrlU}, runes("9"), runes("9"), tea.KeyMsg{Type: tea.KeyEnter})
	if m.editing() {
		t.Fatalf("enter did not commit")
	}
	got := m.google.data.Rows
	if got[1].Cell(1).String() != "99" {
		t.Fatalf("source row b = %v", got[1].Strings())
	}
	if got[0].Cell(1).String() != "10" || got[2].Cell(1).String() != "20" {
		t.Fatalf("other rows changed: %v %v", got[0].Strings(), got[2].Strings())
	}
	// still sorted descending over the new value
	if m.google.res.Rows[0].Cell(1).String() != "99" {
		t.Fatalf("view not recomputed after commit")
	}
}

func TestSilentSyncDuringEditKeepsEdit(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.replaceGoogle(rowsOf([]string{"Name", "Amount"}, []string{"a", "1"}, []string{"b", "2"}))
	press(m, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyCtrlU}, runes("z"))

	// the same sheet comes back with fresh row keys
	_, seq := m.google.begin(context.Background())
	m.Update(googleLoadedMsg{seq: seq, silent: true, sheetName: "Sheet1",
		data: rowsOf([]string{"Name", "Amount"}, []string{"a", "1"}, []string{"b", "2"}).Table()})
	if !m.editing() {
		t.Fatalf("sync ended the edit")
	}
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.google.data.Rows[0].Strings(); got[0] != "z" || got[1] != "1" {
		t.Fatalf("edit lost across sync: %v", got)
	}
	if m.toastText != "" {
		t.Fatalf("unexpected toast %q", m.toastText)
	}
}

func TestEditOnChangedRowDropsQuietly(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.replaceGoogle(rowsOf([]string{"Name"}, []string{"a"}, []string{"b"}))
	press(m, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyCtrlU}, runes("z"))

	_, seq := m.google.begin(context.Background())
	m.Update(googleLoadedMsg{seq: seq, silent: true, sheetName: "Sheet1",
		data: rowsOf([]string{"Name"}, []string{"a2"}, []string{"b"}).Table()})
	_, cmd := m.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd != nil || m.toastText != "" {
		t.Fatalf("dropped edit surfaced: toast=%q", m.toastText)
	}
	if m.editing() {
		t.Fatalf("edit mode should end")
	}
	if got := rowStrings(m.google.data.Rows); got != "a2,b" {
		t.Fatalf("rows = %s", got)
	}
}

func TestLocalResyncDuringEditKeepsEdit(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.setActive(model.TabLocal)
	path := writeTwoSheetWorkbook(t)
	loadLocal(t, m, path)
	press(m, tea.KeyMsg{Type: tea.KeyEnter}, tea.KeyMsg{Type: tea.KeyCtrlU}, runes("pen"))

	msg, ok := m.readLocal(path, true, -1)().(localLoadedMsg)
	if !ok || msg.err != nil {
		t.Fatalf("re-read: %+v", msg)
	}
	m.Update(msg)
	press(m, tea.KeyMsg{Type: tea.KeyEnter})
	if got := m.local.data.Rows[0].Cell(0).String(); got != "pen" {
		t.Fatalf("edit lost across re-read: %q", got)
	}
	if got := m.local.wb.Sheets[0].Rows[0].Cell(0).String(); got != "pen" {
		t.Fatalf("workbook copy not updated: %q", got)
	}
}

func TestLogsModalShowsNewestLines(t *testing.T) {
	m := newTestModel(t, Deps{})
	for i := 0; i < logModalLines+10; i++ {
		logx.Infof("line %d", i)
	}
	press(m, runes("L"))
	if !m.modalActive || m.modalKind != modalLogs {
		t.Fatalf("logs modal not open")
	}
	lines := strings.Split(m.modalBody, "\n")
	if len(lines) != logModalLines {
		t.Fatalf("modal lines = %d, want %d", len(lines), logModalLines)
	}
	want := fmt.Sprintf("line %d", logModalLines+9)
	if !strings.HasSuffix(lines[len(lines)-1], want) {
		t.Fatalf("last line %q, want suffix %q", lines[len(lines)-1], want)
	}
}

func rowStrings(rows []model.Row) string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = strings.Join(r.Strings(), "|")
	}
	return strings.Join(out, ",")
}

func TestEscCancelsEdit(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.replaceGoogle(rowsOf([]string{"Name"}, []string{"a"}))
	press(m, tea.KeyMsg{Type: tea.KeyEnter}, runes("x"), tea.KeyMsg{Type: tea.KeyEsc})
	if m.editing() || m.google.data.Rows[0].Cell(0).String() != "a" {
		t.Fatalf("esc should discard the edit")
	}
}

func TestSearchInputNarrowsAndEscRestores(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.replaceGoogle(rowsOf([]string{"Name"}, []string{"apple"}, []string{"banana"}, []string{"cherry"}))
	press(m, runes("/"), runes("a"), runes("n"))
	if m.google.res.Total != 1 {
		t.Fatalf("search total = %d, want 1", m.google.res.Total)
	}
	press(m, tea.KeyMsg{Type: tea.KeyEsc})
	if m.inputKind != inputNone || m.google.engine.Query() != "" || m.google.res.Total != 3 {
		t.Fatalf("esc did not restore: query=%q total=%d", m.google.engine.Query(), m.google.res.Total)
	}
}

func TestPagingKeys(t *testing.T) {
	m := newTestModel(t, Deps{})
	recs := make([][]string, 60)
	for i := range recs {
		recs[i] = []string{fmt.Sprint(i)}
	}
	m.replaceGoogle(rowsOf([]string{"N"}, recs...))
	press(m, runes("n"))
	if m.google.res.Page != 1 || m.google.res.Rows[0].Cell(0).String() != "25" {
		t.Fatalf("next page: page=%d", m.google.res.Page)
	}
	press(m, runes("G"))
	if m.google.res.Page != 2 || len(m.google.res.Rows) != 10 {
		t.Fatalf("last page: page=%d rows=%d", m.google.res.Page, len(m.google.res.Rows))
	}
	press(m, runes("n"))
	if m.google.res.Page != 2 {
		t.Fatalf("next past the end moved to %d", m.google.res.Page)
	}
	press(m, runes("g"))
	if m.google.res.Page != 0 {
		t.Fatalf("first page: page=%d", m.google.res.Page)
	}
}

func TestGoogleSyncFollowsConfig(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.updateConfig(model.SyncConfig{AutoSync: true})
	if m.google.syncing() {
		t.Fatalf("sync started without a sheet")
	}
	m.updateConfig(model.SyncConfig{SheetInput: "sheet123", AutoSync: true})
	if !m.google.syncing() {
		t.Fatalf("sync not started")
	}
	m.updateConfig(model.SyncConfig{SheetInput: "other456", AutoSync: true})
	if !m.google.syncing() {
		t.Fatalf("reconfiguring should restart, not stop, the timer")
	}
	m.updateConfig(model.SyncConfig{SheetInput: "", AutoSync: true})
	if m.google.syncing() {
		t.Fatalf("losing the sheet should stop sync")
	}
}

func TestSyncTickSkippedWhileLoading(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.updateConfig(model.SyncConfig{SheetInput: "sheet123", AutoSync: true})
	m.google.begin(context.Background())
	if cmd := m.onSyncTick(model.TabGoogle); cmd != nil {
		t.Fatalf("tick should be skipped while a load is in flight")
	}
	m.updateConfig(model.SyncConfig{SheetInput: "sheet123"})
	m.google.finish(m.google.seq)
	if cmd := m.onSyncTick(model.TabGoogle); cmd != nil {
		t.Fatalf("tick after stop should be ignored")
	}
}

func TestStatePersistsAcrossSessions(t *testing.T) {
	st, err := store.Open(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer st.Close()

	m := newTestModel(t, Deps{Store: st})
	m.updateConfig(model.SyncConfig{SheetInput: "sheet123", TabName: "Q1"})
	m.replaceGoogle(rowsOf([]string{"Name"}, []string{"a"}, []string{"b"}))
	m.setActive(model.TabLocal)

	m2 := newTestModel(t, Deps{Store: st})
	if m2.active != model.TabLocal {
		t.Fatalf("active tab = %v", m2.active)
	}
	if m2.google.cfg.SheetInput != "sheet123" || m2.google.cfg.TabName != "Q1" {
		t.Fatalf("config = %+v", m2.google.cfg)
	}
	if len(m2.google.data.Rows) != 2 || m2.google.data.Rows[1].Cell(0).String() != "b" {
		t.Fatalf("rows not restored: %d", len(m2.google.data.Rows))
	}
}

func TestClearLocal(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.setActive(model.TabLocal)
	loadLocal(t, m, writeTwoSheetWorkbook(t))
	press(m, runes("x"))
	if m.local.fileName != "" || !m.local.res.Empty || len(m.local.sheets) != 0 {
		t.Fatalf("clear left state behind: %q %v", m.local.fileName, m.local.sheets)
	}
	if m.toastText != "File cleared" {
		t.Fatalf("toast = %q", m.toastText)
	}
}

func TestExportWritesFullData(t *testing.T) {
	m := newTestModel(t, Deps{})
	m.replaceGoogle(rowsOf([]string{"Name"}, []string{"b"}, []string{"a"}))
	press(m, runes("s"), runes("e"))
	if m.toastKind != toastSuccess {
		t.Fatalf("export toast = %q", m.toastText)
	}
	want := filepath.Join(m.cfg.ExportDir, fmt.Sprintf("exported_data_%d.csv", fixedNow.UnixMilli()))
	if m.toastText != fmt.Sprintf("Exported 2 rows to %s", want) {
		t.Fatalf("toast = %q", m.toastText)
	}
}

func TestViewRendersEmptyState(t *testing.T) {
	m := newTestModel(t, Deps{})
	if v := m.View(); !containsAll(v, "Google Sheets", "No data loaded") {
		t.Fatalf("empty view:\n%s", v)
	}
	m.replaceGoogle(rowsOf([]string{"Name"}, []string{"apple"}))
	if v := m.View(); !containsAll(v, "apple", "page 1/1") {
		t.Fatalf("table view:\n%s", v)
	}
}

func containsAll(s string, subs ...string) bool {
	plain := stripANSI(s)
	for _, sub := range subs {
		if !strings.Contains(plain, sub) {
			return false
		}
	}
	return true
}

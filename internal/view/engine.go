// Package view holds the per-table presentation state: search, sort,
// pagination and single-cell editing over an immutable source table.
package view

import (
	"slices"
	"strings"

	"sheetview/internal/filter"
	"sheetview/internal/model"
)

const PageSize = 25

type Direction int

const (
	Asc Direction = iota
	Desc
)

func (d Direction) String() string {
	if d == Desc {
		return "desc"
	}
	return "asc"
}

// EditState is the cell currently being edited. RowIndex and ColIndex
// address the displayed page; RowKey ties it to the source row.
type EditState struct {
	RowIndex int
	ColIndex int
	RowKey   string
	Pending  string
}

// Result is one computed view over a table.
type Result struct {
	Headers []string
	Rows    []model.Row // current page
	Total   int         // rows after filtering
	Page    int
	Pages   int
	Empty   bool // no headers: render the empty state instead of a table
}

// Offset is the view-order index of the first row on the page.
func (r Result) Offset() int { return r.Page * PageSize }

type Engine struct {
	criteria filter.Criteria
	eval     *filter.Evaluator
	sortCol  int
	sortDir  Direction
	page     int
	edit     *EditState
}

func New() *Engine {
	return &Engine{sortCol: -1}
}

func (e *Engine) Query() string          { return e.criteria.Query }
func (e *Engine) Expr() string           { return e.criteria.Expr }
func (e *Engine) Page() int              { return e.page }
func (e *Engine) Sort() (int, Direction) { return e.sortCol, e.sortDir }

// SetQuery changes the search text and goes back to the first page.
func (e *Engine) SetQuery(q string) {
	e.criteria.Query = q
	e.eval = nil
	e.page = 0
}

// SetExpr installs an expression filter. An invalid expression leaves the
// previous one in place.
func (e *Engine) SetExpr(expr string) error {
	c := e.criteria
	c.Expr = expr
	ev, err := filter.NewEvaluator(c)
	if err != nil {
		return err
	}
	e.criteria, e.eval = c, ev
	e.page = 0
	return nil
}

// ClearExpr drops the expression filter.
func (e *Engine) ClearExpr() {
	e.criteria.Expr = ""
	e.eval = nil
	e.page = 0
}

// ToggleSort sorts by col ascending, or flips direction when col is already
// the sort column.
func (e *Engine) ToggleSort(col int) {
	if e.sortCol == col {
		if e.sortDir == Asc {
			e.sortDir = Desc
		} else {
			e.sortDir = Asc
		}
		return
	}
	e.sortCol = col
	e.sortDir = Asc
}

func (e *Engine) ClearSort() {
	e.sortCol = -1
	e.sortDir = Asc
}

func (e *Engine) evaluator() *filter.Evaluator {
	if e.eval == nil {
		ev, err := filter.NewEvaluator(e.criteria)
		if err != nil {
			// Expr was validated in SetExpr; fall back to the query alone.
			ev, _ = filter.NewEvaluator(filter.Criteria{Query: e.criteria.Query})
		}
		e.eval = ev
	}
	return e.eval
}

// Ordered returns the view order: filtered and sorted, before paging.
func (e *Engine) Ordered(d model.TableData) []model.Row {
	ev := e.evaluator()
	rows := d.Rows
	if ev.Active() {
		rows = make([]model.Row, 0, len(d.Rows))
		for _, r := range d.Rows {
			if ev.Match(d.Headers, r) {
				rows = append(rows, r)
			}
		}
	}
	if e.sortCol < 0 || e.sortCol >= len(d.Headers) {
		return rows
	}
	sorted := slices.Clone(rows)
	col, dir := e.sortCol, e.sortDir
	slices.SortStableFunc(sorted, func(a, b model.Row) int {
		c := Compare(a.Cell(col), b.Cell(col))
		if dir == Desc {
			return -c
		}
		return c
	})
	return sorted
}

// Compute filters, sorts and pages d. The page index is clamped to the
// available pages.
func (e *Engine) Compute(d model.TableData) Result {
	res := Result{Headers: d.Headers, Empty: d.Empty()}
	if res.Empty {
		res.Rows = []model.Row{}
		return res
	}
	ordered := e.Ordered(d)
	res.Total = len(ordered)
	res.Pages = (res.Total + PageSize - 1) / PageSize
	e.page = clamp(e.page, res.Pages)
	res.Page = e.page
	start := e.page * PageSize
	end := min(start+PageSize, res.Total)
	if start > end {
		start = end
	}
	res.Rows = ordered[start:end]
	return res
}

// Compare orders two cells: numerically when both are numbers, otherwise
// case-insensitively by text.
func Compare(a, b model.Cell) int {
	fa, okA := a.Float()
	fb, okB := b.Float()
	if okA && okB {
		switch {
		case fa < fb:
			return -1
		case fa > fb:
			return 1
		}
		return 0
	}
	return strings.Compare(strings.ToLower(a.String()), strings.ToLower(b.String()))
}

func clamp(page, pages int) int {
	if pages <= 0 || page < 0 {
		return 0
	}
	if page > pages-1 {
		return pages - 1
	}
	return page
}

func (e *Engine) First(pages int) { e.page = 0 }

func (e *Engine) Prev(pages int) {
	if e.page > 0 {
		e.page = clamp(e.page-1, pages)
	}
}

func (e *Engine) Next(pages int) {
	if e.page < pages-1 {
		e.page = clamp(e.page+1, pages)
	}
}

func (e *Engine) Last(pages int) { e.page = clamp(pages-1, pages) }

func (e *Engine) CanPrev() bool          { return e.page > 0 }
func (e *Engine) CanNext(pages int) bool { return e.page < pages-1 }

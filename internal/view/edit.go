package view

import (
	"slices"

	"sheetview/internal/model"
)

// BeginEdit puts the cell at (rowIndex, colIndex) of the displayed page into
// edit mode, replacing any edit in progress. The pending value starts as the
// cell's current text.
func (e *Engine) BeginEdit(res Result, rowIndex, colIndex int) bool {
	if rowIndex < 0 || rowIndex >= len(res.Rows) || colIndex < 0 || colIndex >= len(res.Headers) {
		return false
	}
	r := res.Rows[rowIndex]
	e.edit = &EditState{
		RowIndex: rowIndex,
		ColIndex: colIndex,
		RowKey:   r.Key,
		Pending:  r.Cell(colIndex).String(),
	}
	return true
}

func (e *Engine) Editing() (EditState, bool) {
	if e.edit == nil {
		return EditState{}, false
	}
	return *e.edit, true
}

func (e *Engine) SetPending(v string) {
	if e.edit != nil {
		e.edit.Pending = v
	}
}

func (e *Engine) Cancel() { e.edit = nil }

// Commit writes the pending value into the source row it was started on and
// returns the new row collection. The source slice and its rows are never
// modified: the edited row and the row slice are both copied. When the row
// can no longer be found (the source was replaced meanwhile) the edit is
// dropped and ok is false. Edit mode ends either way.
func (e *Engine) Commit(d model.TableData) (rows []model.Row, ok bool) {
	if e.edit == nil {
		return nil, false
	}
	ed := *e.edit
	e.edit = nil
	idx := slices.IndexFunc(d.Rows, func(r model.Row) bool { return r.Key == ed.RowKey })
	if idx < 0 || ed.ColIndex < 0 || ed.ColIndex >= len(d.Headers) {
		return nil, false
	}
	rows = slices.Clone(d.Rows)
	cells := model.Fit(rows[idx].Cells, len(d.Headers))
	cells[ed.ColIndex] = model.Str(ed.Pending)
	rows[idx] = model.Row{Key: rows[idx].Key, Cells: cells}
	return rows, true
}

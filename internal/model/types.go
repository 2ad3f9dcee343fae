package model

import (
	"bytes"
	"encoding/json"
	"math"
	"slices"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

type CellKind uint8

const (
	CellEmpty CellKind = iota
	CellString
	CellNumber
)

// Cell is a single table value: empty, a string or a number.
type Cell struct {
	Kind CellKind
	Str  string
	Num  float64
}

func Str(s string) Cell     { return Cell{Kind: CellString, Str: s} }
func Number(f float64) Cell { return Cell{Kind: CellNumber, Num: f} }
func Empty() Cell           { return Cell{} }

func (c Cell) String() string {
	switch c.Kind {
	case CellString:
		return c.Str
	case CellNumber:
		return strconv.FormatFloat(c.Num, 'f', -1, 64)
	default:
		return ""
	}
}

// Blank reports whether the cell renders as nothing once trimmed.
func (c Cell) Blank() bool {
	return strings.TrimSpace(c.String()) == ""
}

// Float returns the numeric value of the cell, parsing string cells.
// Empty cells and non-numeric text are not numbers.
func (c Cell) Float() (float64, bool) {
	switch c.Kind {
	case CellNumber:
		return c.Num, !math.IsNaN(c.Num)
	case CellString:
		s := strings.TrimSpace(c.Str)
		if s == "" {
			return 0, false
		}
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || math.IsNaN(f) {
			return 0, false
		}
		return f, true
	}
	return 0, false
}

func (c Cell) MarshalJSON() ([]byte, error) {
	switch c.Kind {
	case CellString:
		return json.Marshal(c.Str)
	case CellNumber:
		if math.IsNaN(c.Num) || math.IsInf(c.Num, 0) {
			return []byte("null"), nil
		}
		return json.Marshal(c.Num)
	default:
		return []byte("null"), nil
	}
}

func (c *Cell) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || string(b) == "null" {
		*c = Empty()
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		*c = Str(s)
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		// booleans and other scalars degrade to their text form
		*c = Str(string(b))
		return nil
	}
	*c = Number(f)
	return nil
}

// Row is one table row. Key is a synthetic id assigned when the row is
// created; it survives filtering, sorting and paging and is what edits use
// to find their way back to the source row.
type Row struct {
	Key   string
	Cells []Cell
}

func NewKey() string { return uuid.NewString() }

// NewRow builds a keyed row from cells.
func NewRow(cells []Cell) Row {
	return Row{Key: NewKey(), Cells: cells}
}

func (r Row) Cell(i int) Cell {
	if i < 0 || i >= len(r.Cells) {
		return Empty()
	}
	return r.Cells[i]
}

func (r Row) Strings() []string {
	out := make([]string, len(r.Cells))
	for i, c := range r.Cells {
		out[i] = c.String()
	}
	return out
}

type TableData struct {
	Headers []string
	Rows    []Row
}

func (t TableData) Empty() bool { return len(t.Headers) == 0 }

// RowsJSON is the persisted form of rows: a plain matrix without keys.
func RowsJSON(rows []Row) [][]Cell {
	out := make([][]Cell, len(rows))
	for i, r := range rows {
		out[i] = r.Cells
	}
	return out
}

// KeyRows gives every row of a matrix a fresh key and fits it to width
// (padding with empty strings, truncating extras). width < 0 keeps rows as is.
func KeyRows(matrix [][]Cell, width int) []Row {
	out := make([]Row, 0, len(matrix))
	for _, cells := range matrix {
		out = append(out, NewRow(Fit(cells, width)))
	}
	return out
}

// CarryKeys gives each row of next the key of the row of prev at the same
// position when both hold the same cells, so a re-read of unchanged data
// keeps the rows an edit may be pointing at. next is updated in place.
func CarryKeys(prev, next []Row) []Row {
	for i := range next {
		if i >= len(prev) {
			break
		}
		if slices.Equal(prev[i].Cells, next[i].Cells) {
			next[i].Key = prev[i].Key
		}
	}
	return next
}

func Fit(cells []Cell, width int) []Cell {
	if width < 0 {
		return cells
	}
	out := make([]Cell, width)
	for i := 0; i < width; i++ {
		if i < len(cells) {
			out[i] = cells[i]
		} else {
			out[i] = Str("")
		}
	}
	return out
}

type Sheet struct {
	Name    string
	Headers []string
	Rows    []Row
}

func (s Sheet) Table() TableData { return TableData{Headers: s.Headers, Rows: s.Rows} }

type Workbook struct {
	Sheets []Sheet
}

func (w Workbook) Names() []string {
	out := make([]string, len(w.Sheets))
	for i, s := range w.Sheets {
		out[i] = s.Name
	}
	return out
}

func (w Workbook) TotalRows() int {
	n := 0
	for _, s := range w.Sheets {
		n += len(s.Rows)
	}
	return n
}

// SyncConfig is the user-editable configuration of the Google panel.
type SyncConfig struct {
	SheetInput string `json:"sheetInput"`
	TabName    string `json:"tabName"`
	AutoSync   bool   `json:"autoSync"`
}

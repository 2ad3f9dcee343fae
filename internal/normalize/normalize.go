// Package normalize reconciles raw sheet matrices into the uniform
// headers-plus-rows shape the table view works with.
package normalize

import (
	"fmt"
	"strings"
	"time"

	"sheetview/internal/model"
)

// DateLayout renders date cells as day, abbreviated month and year.
const DateLayout = "02 Jan 2006"

// RawSheet is a sheet as read from a file, before normalization. The first
// row is the header row.
type RawSheet struct {
	Name  string
	Cells [][]model.Cell
}

func FormatDate(t time.Time) string { return t.Format(DateLayout) }

// Matrix normalizes a raw matrix whose first row holds the headers.
//
// Fully blank data rows are dropped. A column survives if it has a header
// or at least one non-blank data cell; surviving columns without a header
// are named "Column N" after their position among surviving columns. The
// column range is the widest row, like a workbook sheet's used range. Every
// output row is as wide as the header row.
func Matrix(raw [][]model.Cell) model.TableData {
	if len(raw) == 0 {
		return model.TableData{Headers: []string{}, Rows: []model.Row{}}
	}
	data := make([][]model.Cell, 0, len(raw)-1)
	for _, r := range raw[1:] {
		if !blankRow(r) {
			data = append(data, r)
		}
	}
	width := len(raw[0])
	for _, r := range data {
		if len(r) > width {
			width = len(r)
		}
	}

	headers := make([]string, 0, width)
	kept := make([]int, 0, width)
	for ci := 0; ci < width; ci++ {
		h := ""
		if ci < len(raw[0]) {
			h = strings.TrimSpace(raw[0][ci].String())
		}
		if h == "" && !columnHasData(data, ci) {
			continue
		}
		kept = append(kept, ci)
		if h == "" {
			h = fmt.Sprintf("Column %d", len(kept))
		}
		headers = append(headers, h)
	}

	rows := make([]model.Row, 0, len(data))
	for _, r := range data {
		cells := make([]model.Cell, len(kept))
		for i, ci := range kept {
			if ci < len(r) && r[ci].Kind != model.CellEmpty {
				cells[i] = r[ci]
			} else {
				cells[i] = model.Str("")
			}
		}
		rows = append(rows, model.NewRow(cells))
	}
	return model.TableData{Headers: headers, Rows: rows}
}

// CSV normalizes parsed CSV rows; missing values become empty strings and
// cells past the header row's width are dropped.
func CSV(rows [][]string) model.TableData {
	raw := make([][]model.Cell, len(rows))
	for i, r := range rows {
		if i > 0 && len(r) > len(rows[0]) {
			r = r[:len(rows[0])]
		}
		cells := make([]model.Cell, len(r))
		for j, v := range r {
			cells[j] = model.Str(v)
		}
		raw[i] = cells
	}
	return Matrix(raw)
}

// Workbook normalizes every sheet independently, keeping sheet order.
func Workbook(sheets []RawSheet) model.Workbook {
	wb := model.Workbook{Sheets: make([]model.Sheet, 0, len(sheets))}
	for _, s := range sheets {
		t := Matrix(s.Cells)
		wb.Sheets = append(wb.Sheets, model.Sheet{Name: s.Name, Headers: t.Headers, Rows: t.Rows})
	}
	return wb
}

func blankRow(r []model.Cell) bool {
	for _, c := range r {
		if !c.Blank() {
			return false
		}
	}
	return true
}

func columnHasData(rows [][]model.Cell, ci int) bool {
	for _, r := range rows {
		if ci < len(r) && !r[ci].Blank() {
			return true
		}
	}
	return false
}

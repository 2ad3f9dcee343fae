package ingest

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/extrame/xls"
	"github.com/xuri/excelize/v2"

	"sheetview/internal/model"
	"sheetview/internal/normalize"
	"sheetview/internal/parse"
	"sheetview/internal/util/logx"
)

var Extensions = []string{".xlsx", ".xls", ".csv"}

type UnsupportedFileError struct {
	Name string
}

func (e *UnsupportedFileError) Error() string {
	return fmt.Sprintf("please upload a valid Excel (%s) or CSV file", strings.Join(Extensions, ", "))
}

// FormatError wraps a reader failure for a file that had an accepted
// extension but could not be decoded.
type FormatError struct {
	Name string
	Err  error
}

func (e *FormatError) Error() string {
	return fmt.Sprintf("failed to parse the file %s: %v", e.Name, e.Err)
}

func (e *FormatError) Unwrap() error { return e.Err }

func CheckExtension(name string) error {
	ext := strings.ToLower(filepath.Ext(name))
	for _, x := range Extensions {
		if ext == x {
			return nil
		}
	}
	return &UnsupportedFileError{Name: name}
}

// ReadWorkbook reads and normalizes every sheet of the file at path.
func ReadWorkbook(path string) (model.Workbook, error) {
	if err := CheckExtension(path); err != nil {
		return model.Workbook{}, err
	}
	f, err := os.Open(path)
	if err != nil {
		return model.Workbook{}, err
	}
	defer f.Close()
	return ReadWorkbookFrom(filepath.Base(path), f)
}

// ReadWorkbookFrom is ReadWorkbook over an already open reader; name picks
// the format and names the sheet of CSV input.
func ReadWorkbookFrom(name string, r io.ReadSeeker) (wb model.Workbook, err error) {
	if err := CheckExtension(name); err != nil {
		return model.Workbook{}, err
	}
	defer func() {
		// the binary readers panic on some malformed input
		if rec := recover(); rec != nil {
			wb, err = model.Workbook{}, &FormatError{Name: name, Err: fmt.Errorf("%v", rec)}
		}
	}()
	var raw []normalize.RawSheet
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		raw, err = readCSV(name, r)
	case ".xls":
		raw, err = readXLS(r)
	default:
		raw, err = readXLSX(r)
	}
	if err != nil {
		return model.Workbook{}, &FormatError{Name: name, Err: err}
	}
	wb = normalize.Workbook(raw)
	logx.Infof("ingest: %s: %d sheets, %d rows", name, len(wb.Sheets), wb.TotalRows())
	return wb, nil
}

func readCSV(name string, r io.Reader) ([]normalize.RawSheet, error) {
	b, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	// Excel writes a BOM in front of UTF-8 CSV
	b = bytes.TrimPrefix(b, []byte("\xef\xbb\xbf"))
	rows := parse.CSV(string(b))
	cells := make([][]model.Cell, len(rows))
	for i, r := range rows {
		cells[i] = make([]model.Cell, len(r))
		for j, v := range r {
			cells[i][j] = model.Str(v)
		}
	}
	stem := strings.TrimSuffix(name, filepath.Ext(name))
	return []normalize.RawSheet{{Name: stem, Cells: cells}}, nil
}

func readXLS(r io.ReadSeeker) ([]normalize.RawSheet, error) {
	book, err := xls.OpenReader(r, "utf-8")
	if err != nil {
		return nil, err
	}
	out := make([]normalize.RawSheet, 0, book.NumSheets())
	for i := 0; i < book.NumSheets(); i++ {
		sh := book.GetSheet(i)
		if sh == nil {
			continue
		}
		rs := normalize.RawSheet{Name: sh.Name}
		for ri := 0; ri <= int(sh.MaxRow); ri++ {
			row := sh.Row(ri)
			if row == nil {
				rs.Cells = append(rs.Cells, nil)
				continue
			}
			cells := make([]model.Cell, 0, row.LastCol())
			for ci := 0; ci < row.LastCol(); ci++ {
				cells = append(cells, xlsCell(row.Col(ci)))
			}
			rs.Cells = append(rs.Cells, cells)
		}
		out = append(out, trimLeadingEmpty(rs))
	}
	return out, nil
}

func xlsCell(v string) model.Cell {
	if v == "" {
		return model.Empty()
	}
	if f, err := strconv.ParseFloat(v, 64); err == nil {
		return model.Number(f)
	}
	return model.Str(v)
}

// trimLeadingEmpty drops empty rows above the first populated row so the
// header is the first row with content, like the xlsx reader.
func trimLeadingEmpty(rs normalize.RawSheet) normalize.RawSheet {
	for len(rs.Cells) > 0 && len(rs.Cells[0]) == 0 {
		rs.Cells = rs.Cells[1:]
	}
	return rs
}

func readXLSX(r io.Reader) ([]normalize.RawSheet, error) {
	f, err := excelize.OpenReader(r)
	if err != nil {
		return nil, err
	}
	defer f.Close()
	date1904 := false
	if props, err := f.GetWorkbookProps(); err == nil && props.Date1904 != nil {
		date1904 = *props.Date1904
	}
	sheets := f.GetSheetList()
	out := make([]normalize.RawSheet, 0, len(sheets))
	for _, name := range sheets {
		rows, err := f.GetRows(name, excelize.Options{RawCellValue: true})
		if err != nil {
			return nil, fmt.Errorf("sheet %q: %w", name, err)
		}
		rs := normalize.RawSheet{Name: name, Cells: make([][]model.Cell, len(rows))}
		for ri, row := range rows {
			cells := make([]model.Cell, len(row))
			for ci, v := range row {
				cells[ci] = xlsxCell(f, name, ci+1, ri+1, v, date1904)
			}
			rs.Cells[ri] = cells
		}
		out = append(out, rs)
	}
	return out, nil
}

func xlsxCell(f *excelize.File, sheet string, col, row int, raw string, date1904 bool) model.Cell {
	if raw == "" {
		return model.Empty()
	}
	ref, err := excelize.CoordinatesToCellName(col, row)
	if err != nil {
		return model.Str(raw)
	}
	typ, err := f.GetCellType(sheet, ref)
	if err != nil {
		return model.Str(raw)
	}
	switch typ {
	case excelize.CellTypeBool:
		if raw == "1" || strings.EqualFold(raw, "true") {
			return model.Str("TRUE")
		}
		return model.Str("FALSE")
	case excelize.CellTypeUnset, excelize.CellTypeNumber, excelize.CellTypeDate:
		num, err := strconv.ParseFloat(raw, 64)
		if err != nil {
			return model.Str(raw)
		}
		if typ == excelize.CellTypeDate || isDateStyle(f, sheet, ref) {
			if t, err := excelize.ExcelDateToTime(num, date1904); err == nil {
				return model.Str(normalize.FormatDate(t))
			}
		}
		return model.Number(num)
	default:
		return model.Str(raw)
	}
}

func isDateStyle(f *excelize.File, sheet, ref string) bool {
	idx, err := f.GetCellStyle(sheet, ref)
	if err != nil || idx == 0 {
		return false
	}
	st, err := f.GetStyle(idx)
	if err != nil || st == nil {
		return false
	}
	if st.CustomNumFmt != nil {
		return IsDateFormat(*st.CustomNumFmt)
	}
	return IsDateNumFmt(st.NumFmt)
}

// IsDateNumFmt reports whether a built-in number format id renders a date.
func IsDateNumFmt(id int) bool {
	switch {
	case id >= 14 && id <= 22,
		id >= 27 && id <= 36,
		id >= 45 && id <= 47,
		id >= 50 && id <= 58:
		return true
	}
	return false
}

// IsDateFormat reports whether a custom format code contains date tokens
// outside quoted literals and bracketed sections. Pure time formats such as
// "h:mm" or "[h]:mm:ss" are not dates.
func IsDateFormat(code string) bool {
	// only the positive section matters
	if i := sectionEnd(code); i >= 0 {
		code = code[:i]
	}
	code = strings.ToLower(code)
	inQuote, inBracket, escaped := false, false, false
	for i := 0; i < len(code); i++ {
		c := code[i]
		switch {
		case escaped:
			escaped = false
		case c == '\\':
			escaped = true
		case c == '"':
			inQuote = !inQuote
		case inQuote:
		case c == '[':
			inBracket = true
		case c == ']':
			inBracket = false
		case inBracket:
		case c == 'd' || c == 'y':
			return true
		case c == 'm':
			// "mmm" and longer are month names; shorter runs are minutes
			// unless a d or y token shows up as well
			n := 1
			for i+n < len(code) && code[i+n] == 'm' {
				n++
			}
			if n >= 3 {
				return true
			}
			i += n - 1
		}
	}
	return false
}

func sectionEnd(code string) int {
	inQuote := false
	for i, r := range code {
		switch {
		case r == '"':
			inQuote = !inQuote
		case r == ';' && !inQuote:
			return i
		}
	}
	return -1
}

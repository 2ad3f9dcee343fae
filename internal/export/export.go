package export

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"sheetview/internal/model"
)

const Prefix = "exported_data"

var ErrNoData = errors.New("no data to export")

// CSV writes headers then rows with every field quoted and inner quotes
// doubled. Records are separated by \n with no trailing newline.
func CSV(w io.Writer, data model.TableData) error {
	if data.Empty() {
		return ErrNoData
	}
	bw := bufio.NewWriter(w)
	writeRecord(bw, data.Headers)
	for _, r := range data.Rows {
		bw.WriteByte('\n')
		writeRecord(bw, r.Strings())
	}
	return bw.Flush()
}

func writeRecord(w *bufio.Writer, fields []string) {
	for i, f := range fields {
		if i > 0 {
			w.WriteByte(',')
		}
		w.WriteByte('"')
		w.WriteString(strings.ReplaceAll(f, `"`, `""`))
		w.WriteByte('"')
	}
}

// XLSX writes data to a single-sheet workbook at path. Number cells stay
// numbers.
func XLSX(path, sheetName string, data model.TableData) error {
	if data.Empty() {
		return ErrNoData
	}
	f := excelize.NewFile()
	defer f.Close()
	sheet := f.GetSheetName(0)
	if name := sanitizeSheetName(sheetName); name != "" && name != sheet {
		if err := f.SetSheetName(sheet, name); err != nil {
			return err
		}
		sheet = name
	}
	for i, h := range data.Headers {
		cell, err := excelize.CoordinatesToCellName(i+1, 1)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return err
		}
	}
	for ri, r := range data.Rows {
		for ci, c := range r.Cells {
			if c.Kind == model.CellEmpty {
				continue
			}
			cell, err := excelize.CoordinatesToCellName(ci+1, ri+2)
			if err != nil {
				return err
			}
			var v any = c.Str
			if c.Kind == model.CellNumber {
				v = c.Num
			}
			if err := f.SetCellValue(sheet, cell, v); err != nil {
				return err
			}
		}
	}
	return f.SaveAs(path)
}

// Excel sheet names are at most 31 chars and exclude : \ / ? * [ ].
func sanitizeSheetName(s string) string {
	s = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`:\/?*[]`, r) {
			return '_'
		}
		return r
	}, strings.TrimSpace(s))
	if r := []rune(s); len(r) > 31 {
		s = string(r[:31])
	}
	return s
}

func FileName(prefix, ext string, now time.Time) string {
	return fmt.Sprintf("%s_%d.%s", prefix, now.UnixMilli(), strings.TrimPrefix(ext, "."))
}

// ToFile exports data into dir using a timestamped name and returns the
// written path. ext is "csv" or "xlsx".
func ToFile(dir, ext, sheetName string, data model.TableData, now time.Time) (string, error) {
	if data.Empty() {
		return "", ErrNoData
	}
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, FileName(Prefix, ext, now))
	switch ext {
	case "csv":
		f, err := os.Create(path)
		if err != nil {
			return "", err
		}
		if err := CSV(f, data); err != nil {
			f.Close()
			return "", err
		}
		if err := f.Close(); err != nil {
			return "", err
		}
	case "xlsx":
		if err := XLSX(path, sheetName, data); err != nil {
			return "", err
		}
	default:
		return "", fmt.Errorf("unknown export format %q", ext)
	}
	return path, nil
}

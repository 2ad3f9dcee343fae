package model

import "encoding/json"

type Tab string

const (
	TabGoogle Tab = "google"
	TabLocal  Tab = "local"
)

// GoogleSnapshot is the persisted state of the Google Sheets panel.
type GoogleSnapshot struct {
	Headers   []string
	Rows      []Row
	SheetName string
}

func (g GoogleSnapshot) Table() TableData { return TableData{Headers: g.Headers, Rows: g.Rows} }

// LocalSnapshot is the persisted state of the local file panel.
type LocalSnapshot struct {
	Headers     []string
	Rows        []Row
	FileName    string
	Path        string
	Sheets      []string
	ActiveSheet int
}

func (l LocalSnapshot) Table() TableData { return TableData{Headers: l.Headers, Rows: l.Rows} }

type googleJSON struct {
	Headers   []string `json:"headers"`
	Rows      [][]Cell `json:"rows"`
	SheetName string   `json:"sheetName"`
}

func (g GoogleSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(googleJSON{Headers: nonNil(g.Headers), Rows: RowsJSON(g.Rows), SheetName: g.SheetName})
}

func (g *GoogleSnapshot) UnmarshalJSON(b []byte) error {
	var j googleJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	*g = GoogleSnapshot{Headers: nonNil(j.Headers), Rows: KeyRows(j.Rows, len(j.Headers)), SheetName: j.SheetName}
	return nil
}

type localJSON struct {
	Headers     []string `json:"headers"`
	Rows        [][]Cell `json:"rows"`
	FileName    string   `json:"fileName"`
	Path        string   `json:"path,omitempty"`
	Sheets      []string `json:"sheets"`
	ActiveSheet int      `json:"activeSheet"`
}

func (l LocalSnapshot) MarshalJSON() ([]byte, error) {
	return json.Marshal(localJSON{
		Headers:     nonNil(l.Headers),
		Rows:        RowsJSON(l.Rows),
		FileName:    l.FileName,
		Path:        l.Path,
		Sheets:      nonNil(l.Sheets),
		ActiveSheet: l.ActiveSheet,
	})
}

func (l *LocalSnapshot) UnmarshalJSON(b []byte) error {
	var j localJSON
	if err := json.Unmarshal(b, &j); err != nil {
		return err
	}
	active := j.ActiveSheet
	if active < 0 || active >= len(j.Sheets) {
		active = 0
	}
	*l = LocalSnapshot{
		Headers:     nonNil(j.Headers),
		Rows:        KeyRows(j.Rows, len(j.Headers)),
		FileName:    j.FileName,
		Path:        j.Path,
		Sheets:      nonNil(j.Sheets),
		ActiveSheet: active,
	}
	return nil
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// Stats aggregates row/column counts across both panels.
type Stats struct {
	GoogleRows int
	GoogleCols int
	LocalRows  int
	LocalCols  int
	TotalRows  int
	Sources    int
	Label      string
}

func ComputeStats(g GoogleSnapshot, l LocalSnapshot) Stats {
	s := Stats{
		GoogleRows: len(g.Rows),
		GoogleCols: len(g.Headers),
		LocalRows:  len(l.Rows),
		LocalCols:  len(l.Headers),
	}
	s.TotalRows = s.GoogleRows + s.LocalRows
	if s.GoogleRows > 0 {
		s.Sources++
	}
	if s.LocalRows > 0 {
		s.Sources++
	}
	switch {
	case s.GoogleRows > 0 && s.LocalRows > 0:
		s.Label = "Google Sheets + Local file"
	case s.GoogleRows > 0:
		s.Label = "Google Sheets"
	case s.LocalRows > 0:
		s.Label = "Local file"
	default:
		s.Label = "No data loaded"
	}
	return s
}

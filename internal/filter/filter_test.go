package filter

import (
	"testing"

	"sheetview/internal/model"
)

func row(vals ...string) model.Row {
	cells := make([]model.Cell, len(vals))
	for i, v := range vals {
		cells[i] = model.Str(v)
	}
	return model.NewRow(cells)
}

func TestQueryIsCaseInsensitiveSubstring(t *testing.T) {
	ev, err := NewEvaluator(Criteria{Query: "LIC"})
	if err != nil {
		t.Fatal(err)
	}
	headers := []string{"name", "city"}
	if !ev.Match(headers, row("Alice", "Pune")) {
		t.Fatalf("expected match")
	}
	if ev.Match(headers, row("Bob", "Delhi")) {
		t.Fatalf("unexpected match")
	}
}

func TestEmptyQueryPassesAll(t *testing.T) {
	ev, _ := NewEvaluator(Criteria{})
	if ev.Active() {
		t.Fatalf("empty criteria should be inactive")
	}
	if !ev.Match(nil, row()) {
		t.Fatalf("empty query must pass")
	}
}

func TestNumberCellsMatchByText(t *testing.T) {
	ev, _ := NewEvaluator(Criteria{Query: "2.5"})
	r := model.NewRow([]model.Cell{model.Number(12.5)})
	if !ev.Match([]string{"n"}, r) {
		t.Fatalf("number cell should match its text form")
	}
}

func TestExpr(t *testing.T) {
	ev, err := NewEvaluator(Criteria{Expr: "[Unit Price] > 10 && city == 'Pune'"})
	if err != nil {
		t.Fatal(err)
	}
	headers := []string{"Unit Price", "city"}
	if !ev.Match(headers, row("12", "Pune")) {
		t.Fatalf("expected match")
	}
	if ev.Match(headers, row("8", "Pune")) {
		t.Fatalf("unexpected match")
	}
	if _, err := NewEvaluator(Criteria{Expr: "(("}); err == nil {
		t.Fatalf("expected compile error")
	}
}

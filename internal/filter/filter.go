package filter

import (
	"strings"

	"github.com/Knetic/govaluate"

	"sheetview/internal/model"
)

type Criteria struct {
	Query string // case-insensitive substring over every cell
	Expr  string // govaluate expression; headers are parameter names, e.g. [Unit Price] > 10
}

type Evaluator struct {
	query string
	expr  *govaluate.EvaluableExpression
}

func NewEvaluator(c Criteria) (*Evaluator, error) {
	ev := &Evaluator{query: strings.ToLower(c.Query)}
	if strings.TrimSpace(c.Expr) != "" {
		expr, err := govaluate.NewEvaluableExpression(c.Expr)
		if err != nil {
			return nil, err
		}
		ev.expr = expr
	}
	return ev, nil
}

// Active reports whether the evaluator filters anything at all.
func (e *Evaluator) Active() bool {
	return e != nil && (strings.TrimSpace(e.query) != "" || e.expr != nil)
}

func (e *Evaluator) Match(headers []string, row model.Row) bool {
	if e == nil {
		return true
	}
	if strings.TrimSpace(e.query) != "" {
		hit := false
		for _, c := range row.Cells {
			if strings.Contains(strings.ToLower(c.String()), e.query) {
				hit = true
				break
			}
		}
		if !hit {
			return false
		}
	}
	if e.expr != nil {
		params := make(map[string]any, len(headers))
		for i, h := range headers {
			c := row.Cell(i)
			if f, ok := c.Float(); ok {
				params[h] = f
			} else {
				params[h] = c.String()
			}
		}
		result, err := e.expr.Evaluate(params)
		if err != nil {
			return false
		}
		b, ok := result.(bool)
		if !ok || !b {
			return false
		}
	}
	return true
}

// Package parse reads the CSV dialect produced by spreadsheet
// "publish to web" exports.
package parse

import (
	"strings"
	"unicode"
)

// CSV splits text into rows of cells.
//
// Quoted fields may contain commas, newlines and doubled quotes. Cells are
// trimmed of surrounding whitespace outside quoted regions. Rows whose cells
// are all blank are dropped. An unterminated quote runs to end of input.
func CSV(text string) [][]string {
	p := csvState{lo: -1, hi: -1}
	for i := 0; i < len(text); i++ {
		ch := text[i]
		if p.quoted {
			switch {
			case ch == '"' && i+1 < len(text) && text[i+1] == '"':
				p.cell.WriteByte('"')
				i++
			case ch == '"':
				p.quoted = false
				p.hi = p.cell.Len()
			default:
				p.cell.WriteByte(ch)
			}
			continue
		}
		switch {
		case ch == '"':
			p.quoted = true
			if p.lo < 0 {
				p.lo = p.cell.Len()
			}
			p.hi = -1
		case ch == ',':
			p.endCell()
		case ch == '\n':
			p.endRow()
		case ch == '\r' && i+1 < len(text) && text[i+1] == '\n':
			p.endRow()
			i++
		default:
			p.cell.WriteByte(ch)
		}
	}
	p.endRow()
	return p.rows
}

type csvState struct {
	rows   [][]string
	row    []string
	cell   strings.Builder
	quoted bool
	// byte offsets of the first quoted region start and last quoted
	// region end within cell; whitespace inside [lo, hi) is kept.
	lo, hi int
}

func (p *csvState) endCell() {
	p.row = append(p.row, p.finishCell())
	p.cell.Reset()
	p.lo, p.hi = -1, -1
}

func (p *csvState) finishCell() string {
	s := p.cell.String()
	if p.lo < 0 {
		return strings.TrimSpace(s)
	}
	hi := p.hi
	if hi < p.lo {
		// unterminated quote
		hi = len(s)
	}
	left := strings.TrimLeftFunc(s[:p.lo], unicode.IsSpace)
	right := strings.TrimRightFunc(s[hi:], unicode.IsSpace)
	return left + s[p.lo:hi] + right
}

func (p *csvState) endRow() {
	p.endCell()
	keep := false
	for _, c := range p.row {
		if strings.TrimSpace(c) != "" {
			keep = true
			break
		}
	}
	if keep {
		p.rows = append(p.rows, p.row)
	}
	p.row = nil
}

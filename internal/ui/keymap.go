package ui

import (
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/table"
	tea "github.com/charmbracelet/bubbletea"
)

type KeyMap struct {
	NextTab    tea.Key
	PrevTab    tea.Key
	Search     tea.Key
	Filter     tea.Key
	ColLeft    tea.Key
	ColRight   tea.Key
	Sort       tea.Key
	Edit       tea.Key
	NextPage   tea.Key
	PrevPage   tea.Key
	FirstPage  tea.Key
	LastPage   tea.Key
	SheetInput tea.Key
	TabName    tea.Key
	Fetch      tea.Key
	AutoSync   tea.Key
	OpenFile   tea.Key
	PrevSheet  tea.Key
	NextSheet  tea.Key
	ClearFile  tea.Key
	ExportCSV  tea.Key
	ExportXLSX tea.Key
	CopyCell   tea.Key
	Summarize  tea.Key
	AppLogs    tea.Key
	Help       tea.Key
	Quit       tea.Key
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		NextTab:    tea.Key{Type: tea.KeyTab},
		PrevTab:    tea.Key{Type: tea.KeyShiftTab},
		Search:     tea.Key{Type: tea.KeyRunes, Runes: []rune{'/'}},
		Filter:     tea.Key{Type: tea.KeyRunes, Runes: []rune{'f'}},
		ColLeft:    tea.Key{Type: tea.KeyLeft},
		ColRight:   tea.Key{Type: tea.KeyRight},
		Sort:       tea.Key{Type: tea.KeyRunes, Runes: []rune{'s'}},
		Edit:       tea.Key{Type: tea.KeyEnter},
		NextPage:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'n'}},
		PrevPage:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'p'}},
		FirstPage:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'g'}},
		LastPage:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'G'}},
		SheetInput: tea.Key{Type: tea.KeyRunes, Runes: []rune{'u'}},
		TabName:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'t'}},
		Fetch:      tea.Key{Type: tea.KeyRunes, Runes: []rune{'r'}},
		AutoSync:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'a'}},
		OpenFile:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'o'}},
		PrevSheet:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'['}},
		NextSheet:  tea.Key{Type: tea.KeyRunes, Runes: []rune{']'}},
		ClearFile:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'x'}},
		ExportCSV:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'e'}},
		ExportXLSX: tea.Key{Type: tea.KeyRunes, Runes: []rune{'E'}},
		CopyCell:   tea.Key{Type: tea.KeyRunes, Runes: []rune{'c'}},
		Summarize:  tea.Key{Type: tea.KeyRunes, Runes: []rune{'i'}},
		AppLogs:    tea.Key{Type: tea.KeyRunes, Runes: []rune{'L'}},
		Help:       tea.Key{Type: tea.KeyRunes, Runes: []rune{'?'}},
		Quit:       tea.Key{Type: tea.KeyRunes, Runes: []rune{'q'}},
	}
}

func keyMatches(msg tea.KeyMsg, k tea.Key) bool {
	if k.Type != tea.KeyRunes {
		return msg.Type == k.Type
	}
	if len(k.Runes) > 0 {
		return msg.String() == string(k.Runes)
	}
	return false
}

// tableKeys leaves only arrow and paging keys to the table widget; letters
// belong to the app keymap.
func tableKeys() table.KeyMap {
	return table.KeyMap{
		LineUp:       key.NewBinding(key.WithKeys("up", "k")),
		LineDown:     key.NewBinding(key.WithKeys("down", "j")),
		PageUp:       key.NewBinding(key.WithKeys("pgup")),
		PageDown:     key.NewBinding(key.WithKeys("pgdown")),
		HalfPageUp:   key.NewBinding(key.WithDisabled()),
		HalfPageDown: key.NewBinding(key.WithDisabled()),
		GotoTop:      key.NewBinding(key.WithKeys("home")),
		GotoBottom:   key.NewBinding(key.WithKeys("end")),
	}
}

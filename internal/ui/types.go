package ui

import (
	"context"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/table"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"

	"sheetview/internal/ai"
	"sheetview/internal/config"
	"sheetview/internal/ingest"
	"sheetview/internal/model"
	"sheetview/internal/store"
)

type modalKind int

const (
	modalNone modalKind = iota
	modalHelp
	modalLogs
	modalSummary
)

type inputKind int

const (
	inputNone inputKind = iota
	inputSearch
	inputExpr
	inputSheet
	inputTab
	inputFile
)

type toastKind int

const (
	toastInfo toastKind = iota
	toastSuccess
	toastError
)

const toastTTL = 4 * time.Second

// logModalLines bounds the log modal to the newest lines.
const logModalLines = 200

type Model struct {
	ctx   context.Context
	cfg   *config.Config
	store *store.Store // nil: persistence disabled
	fetch *ingest.Fetcher
	ai    *ai.Client
	now   func() time.Time
	// send posts a message from a background goroutine; set once the
	// program exists
	send func(tea.Msg)

	active model.Tab
	google *googlePanel
	local  *localPanel

	// UI
	tbl        table.Model
	styles     Styles
	keymap     KeyMap
	input      textinput.Model
	inputKind  inputKind
	inputPrev  string // value to restore on esc
	editor     textinput.Model
	spin       spinner.Model
	termWidth  int
	termHeight int
	colOffset  int

	// toast
	toastText string
	toastKind toastKind
	toastID   int

	// Modal popup
	modalActive bool
	modalKind   modalKind
	modalVP     viewport.Model
	modalTitle  string
	modalBody   string

	// Help menu state
	helpItems []helpItem
	helpSel   int

	quitting bool
}

type helpItem struct {
	group string
	text  string
	key   tea.Key
}

type toastMsg struct {
	text string
	kind toastKind
}

type toastExpireMsg struct{ id int }

type googleLoadedMsg struct {
	seq       uint64
	silent    bool
	data      model.TableData
	sheetName string
	err       error
}

type localLoadedMsg struct {
	seq    uint64
	silent bool
	path   string
	prefer int // sheet index to activate; -1 keeps the current one
	wb     model.Workbook
	err    error
}

type syncTickMsg struct{ tab model.Tab }

type fileChangedMsg struct{ path string }

type summaryMsg struct {
	summary ai.Summary
	err     error
}

func keyCmd(k tea.Key) tea.Cmd {
	return func() tea.Msg {
		if k.Type == tea.KeyRunes {
			return tea.KeyMsg{Type: k.Type, Runes: k.Runes}
		}
		return tea.KeyMsg{Type: k.Type}
	}
}

func keyLabel(k tea.Key) string {
	switch k.Type {
	case tea.KeyRunes:
		if len(k.Runes) == 1 {
			r := k.Runes[0]
			if r == ' ' {
				return "space"
			}
			return string(r)
		}
		return strings.ToLower(string(k.Runes))
	case tea.KeyEnter:
		return "enter"
	case tea.KeyEsc:
		return "esc"
	case tea.KeyTab:
		return "tab"
	case tea.KeyShiftTab:
		return "shift-tab"
	case tea.KeyLeft:
		return "left"
	case tea.KeyRight:
		return "right"
	case tea.KeyUp:
		return "up"
	case tea.KeyDown:
		return "down"
	default:
		return strings.ToLower(k.String())
	}
}

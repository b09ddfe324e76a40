// Package view turns a quiz snapshot into what a client draws: colours,
// progress label and the 3x3 cell layout.
package view

import (
	"strconv"

	"github.com/robalobadob/memorygrid/internal/quiz"
)

// Palette.
const (
	BaseStart      = "#e6f3ff" // page background at position 0
	BaseDefault    = "#ffffff"
	FlashCorrect   = "#32CD32"
	FlashIncorrect = "#ffdddd"
	CellDefault    = "#ff4444"
	CellDefaultFG  = "#ffffff"
	CellRevealed   = "#87CEEB"
	CellRevealedFG = "#000000"
	Celebration    = "linear-gradient(to right, red, orange, yellow, green, blue, indigo, violet)"

	Title   = "Memory Study Game"
	Caption = "Use numpad keys (1-9) or click/tap the boxes to select words"
)

// Rainbow lists the celebration gradient stops, left to right.
var Rainbow = []string{"red", "orange", "yellow", "green", "blue", "indigo", "violet"}

// VisualOrder maps a visual slot (row-major, top-left first) to the
// logical grid index drawn there. The bottom row holds cells 0..2 so the
// layout mirrors a numeric keypad; keys still map to logical indices.
var VisualOrder = [quiz.GridSize]int{6, 7, 8, 3, 4, 5, 0, 1, 2}

// Cell is one drawn tile.
type Cell struct {
	Slot       int    `json:"slot"`  // visual slot, row-major
	Index      int    `json:"index"` // logical grid index to send back on click
	Key        string `json:"key"`   // digit key selecting this cell
	Word       string `json:"word"`
	Background string `json:"background"`
	Color      string `json:"color"`
	Revealed   bool   `json:"revealed"`
}

// Page is the complete drawable state.
type Page struct {
	Title       string     `json:"title"`
	Progress    string     `json:"progress"`
	Position    int        `json:"position"`
	Length      int        `json:"length"`
	Phase       quiz.Phase `json:"phase"`
	Background  string     `json:"background"`
	Celebrating bool       `json:"celebrating"`
	Cells       []Cell     `json:"cells"`
	Caption     string     `json:"caption"`
}

// Build renders a snapshot.
func Build(s quiz.Snapshot) Page {
	p := Page{
		Title:       Title,
		Progress:    Progress(s.Position, s.Length),
		Position:    s.Position,
		Length:      s.Length,
		Phase:       s.Phase,
		Background:  Background(s),
		Celebrating: s.Celebrating(),
		Cells:       make([]Cell, 0, quiz.GridSize),
		Caption:     Caption,
	}
	for slot, idx := range VisualOrder {
		c := Cell{
			Slot:       slot,
			Index:      idx,
			Key:        strconv.Itoa(idx + 1),
			Word:       s.Grid[idx],
			Background: CellDefault,
			Color:      CellDefaultFG,
		}
		if idx == s.Reveal {
			c.Background, c.Color, c.Revealed = CellRevealed, CellRevealedFG, true
		}
		p.Cells = append(p.Cells, c)
	}
	return p
}

// Progress formats the 1-based progress label.
func Progress(position, length int) string {
	return strconv.Itoa(position+1) + "/" + strconv.Itoa(length)
}

// Base returns the resting page colour for a position.
func Base(position int) string {
	if position == 0 {
		return BaseStart
	}
	return BaseDefault
}

// Background returns the page background for the current phase.
func Background(s quiz.Snapshot) string {
	switch s.Phase {
	case quiz.PhaseCelebration:
		return Celebration
	case quiz.PhaseCorrect:
		return FlashCorrect
	case quiz.PhaseIncorrect:
		return FlashIncorrect
	default:
		return Base(s.Position)
	}
}

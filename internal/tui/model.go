// Package tui is the terminal client: a bubbletea program drawing the
// same Page as the browser and forwarding digit keys to the session.
package tui

import (
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/robalobadob/memorygrid/internal/quiz"
	"github.com/robalobadob/memorygrid/internal/session"
	"github.com/robalobadob/memorygrid/internal/view"
)

// rainbowHex gives terminal colours for the celebration stops.
var rainbowHex = map[string]string{
	"red":    "#ff0000",
	"orange": "#ffa500",
	"yellow": "#ffff00",
	"green":  "#008000",
	"blue":   "#0000ff",
	"indigo": "#4b0082",
	"violet": "#ee82ee",
}

const cellWidth = 20

type snapshotMsg quiz.Snapshot

type closedMsg struct{}

// Model is the bubbletea model for one session.
type Model struct {
	sess *session.Session
	sub  *session.Subscription
	page view.Page
	err  error

	title lipgloss.Style
	hint  lipgloss.Style
}

// New subscribes to sess. Close releases the subscription.
func New(sess *session.Session) *Model {
	return &Model{
		sess:  sess,
		sub:   sess.Subscribe(4),
		page:  view.Build(sess.Snapshot()),
		title: lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#000000")),
		hint:  lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")),
	}
}

// Close detaches the model from the session.
func (m *Model) Close() { m.sub.Close() }

// Err reports why the program stopped, if the session failed.
func (m *Model) Err() error { return m.err }

// Page returns the last drawn page.
func (m *Model) Page() view.Page { return m.page }

func (m *Model) Init() tea.Cmd { return m.wait() }

// wait blocks on the subscription and turns the next snapshot into a msg.
func (m *Model) wait() tea.Cmd {
	ch := m.sub.C
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return closedMsg{}
		}
		return snapshotMsg(snap)
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "q", "esc":
			m.Close()
			return m, tea.Quit
		}
		// Digits select; everything else is ignored by the session.
		// Invalid cells cannot come from a key, so any error means the
		// session is gone.
		if _, _, _, err := m.sess.Key(msg.String()); err != nil {
			m.err = err
			m.Close()
			return m, tea.Quit
		}
		return m, nil

	case snapshotMsg:
		m.page = view.Build(quiz.Snapshot(msg))
		return m, m.wait()

	case closedMsg:
		return m, tea.Quit
	}
	return m, nil
}

func (m *Model) View() string {
	var b strings.Builder

	b.WriteString(m.banner())
	b.WriteString("\n\n")
	b.WriteString(m.hint.Render("Progress: " + m.page.Progress))
	b.WriteString("\n\n")

	for row := 0; row < 3; row++ {
		cells := make([]string, 0, 3)
		for col := 0; col < 3; col++ {
			cells = append(cells, renderCell(m.page.Cells[row*3+col]))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}
	b.WriteString("\n")
	b.WriteString(m.hint.Render("Press 1-9 to pick a word, q to quit"))

	bg := m.page.Background
	if m.page.Celebrating {
		bg = view.BaseDefault
	}
	return lipgloss.NewStyle().
		Background(lipgloss.Color(bg)).
		Padding(1, 2).
		Render(b.String())
}

// banner renders the title, striped through the rainbow while celebrating.
func (m *Model) banner() string {
	if !m.page.Celebrating {
		return m.title.Render(m.page.Title)
	}
	parts := make([]string, 0, len(view.Rainbow))
	for _, name := range view.Rainbow {
		parts = append(parts, lipgloss.NewStyle().
			Background(lipgloss.Color(rainbowHex[name])).
			Render("    "))
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, parts...) + " " + m.title.Render(m.page.Title)
}

func renderCell(c view.Cell) string {
	return lipgloss.NewStyle().
		Width(cellWidth).
		Height(3).
		Margin(0, 1, 1, 0).
		Align(lipgloss.Center, lipgloss.Center).
		Background(lipgloss.Color(c.Background)).
		Foreground(lipgloss.Color(c.Color)).
		Render("[" + c.Key + "] " + c.Word)
}

package view

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memorygrid/internal/quiz"
)

func snapshot() quiz.Snapshot {
	return quiz.Snapshot{
		Position: 0,
		Length:   12,
		Target:   "w4",
		Grid:     quiz.Grid{"w0", "w1", "w2", "w3", "w4", "w5", "w6", "w7", "w8"},
		Reveal:   quiz.NoReveal,
		Phase:    quiz.PhaseNeutral,
	}
}

func TestBuildLayout(t *testing.T) {
	p := Build(snapshot())

	assert.Equal(t, "1/12", p.Progress)
	assert.Equal(t, Title, p.Title)
	assert.Equal(t, Caption, p.Caption)
	require.Len(t, p.Cells, quiz.GridSize)

	// Top row shows logical cells 6..8, bottom row 0..2.
	var drawn []string
	for slot, c := range p.Cells {
		assert.Equal(t, slot, c.Slot)
		assert.Equal(t, VisualOrder[slot], c.Index)
		drawn = append(drawn, c.Word)
	}
	assert.Equal(t, []string{"w6", "w7", "w8", "w3", "w4", "w5", "w0", "w1", "w2"}, drawn)

	// Keys follow the logical index, not the visual slot.
	assert.Equal(t, "7", p.Cells[0].Key)
	assert.Equal(t, "5", p.Cells[4].Key)
	assert.Equal(t, "1", p.Cells[6].Key)
}

func TestBuildRevealedCell(t *testing.T) {
	s := snapshot()
	s.Reveal = 4
	s.Phase = quiz.PhaseReveal
	p := Build(s)

	for _, c := range p.Cells {
		if c.Index == 4 {
			assert.True(t, c.Revealed)
			assert.Equal(t, CellRevealed, c.Background)
			assert.Equal(t, CellRevealedFG, c.Color)
			continue
		}
		assert.False(t, c.Revealed)
		assert.Equal(t, CellDefault, c.Background)
		assert.Equal(t, CellDefaultFG, c.Color)
	}
}

func TestBackground(t *testing.T) {
	s := snapshot()
	assert.Equal(t, BaseStart, Background(s))

	s.Position = 3
	assert.Equal(t, BaseDefault, Background(s))
	assert.Equal(t, "4/12", Build(s).Progress)

	s.Phase = quiz.PhaseCorrect
	assert.Equal(t, FlashCorrect, Background(s))

	s.Phase = quiz.PhaseIncorrect
	assert.Equal(t, FlashIncorrect, Background(s))

	s.Phase = quiz.PhaseReveal
	assert.Equal(t, BaseDefault, Background(s))

	s.Phase = quiz.PhaseCelebration
	assert.Equal(t, Celebration, Background(s))
	assert.True(t, Build(s).Celebrating)
}

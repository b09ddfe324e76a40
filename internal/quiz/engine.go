// internal/quiz/engine.go
//
// Core engine for one player's pass through the word sequence.
// Responsibilities:
//   - Hold position, grid, reveal cell and feedback phase.
//   - Interpret a selected cell: advance, start the mistake chain, or
//     start the celebration.
//   - Apply delayed events (flash end → neutral; reveal → reset; celebration
//     end → reset) and drop the ones issued for an earlier round.
//
// Notes:
//   - The engine is not safe for concurrent use; callers serialise access
//     (see the session package).
//   - Every position change regenerates the grid inside the same
//     transition; there is no other trigger for round setup.
//   - While a mistake or celebration is resolving, selections are ignored.

package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/robalobadob/memorygrid/internal/words"
)

var (
	ErrInvalidCell = errors.New("quiz: cell out of range")
	ErrStaleEvent  = errors.New("quiz: stale event")
)

// Game is the state machine for one session.
type Game struct {
	seq *words.Sequence
	rng *rand.Rand

	pos     int
	grid    Grid
	reveal  int
	phase   Phase
	round   uint64 // bumped on every grid regeneration
	flash   uint64 // bumped on every selection
	pending bool   // mistake or celebration awaiting its reset
}

// New starts a game at position 0 with a fresh grid.
func New(seq *words.Sequence, rng *rand.Rand) (*Game, error) {
	g := &Game{seq: seq, rng: rng, phase: PhaseNeutral}
	if err := g.moveTo(0); err != nil {
		return nil, err
	}
	return g, nil
}

// Select applies a pick of the logical cell.
func (g *Game) Select(cell int) (Step, error) {
	if cell < 0 || cell >= GridSize {
		return Step{}, fmt.Errorf("%w: %d", ErrInvalidCell, cell)
	}
	if g.pending {
		return Step{Outcome: OutcomeIgnored}, nil
	}

	target := g.seq.At(g.pos)
	g.flash++

	if g.grid[cell] != target {
		g.phase = PhaseIncorrect
		g.pending = true
		return Step{
			Outcome:  OutcomeMissed,
			Timers:   []Timer{{After: FlashDuration, Event: Event{Kind: EventReveal, Round: g.round}}},
			Finished: &Run{Reached: g.pos, Length: g.seq.Len(), Missed: target},
		}, nil
	}

	if g.pos == g.seq.Len()-1 {
		g.phase = PhaseCelebration
		g.pending = true
		return Step{
			Outcome:  OutcomeCompleted,
			Timers:   []Timer{{After: CelebrationDuration, Event: Event{Kind: EventCelebrationEnd, Round: g.round}}},
			Finished: &Run{Completed: true, Reached: g.seq.Len(), Length: g.seq.Len()},
		}, nil
	}

	g.phase = PhaseCorrect
	if err := g.moveTo(g.pos + 1); err != nil {
		return Step{}, err
	}
	return Step{
		Outcome: OutcomeAdvanced,
		Timers:  []Timer{{After: FlashDuration, Event: Event{Kind: EventFlashEnd, Flash: g.flash}}},
	}, nil
}

// Key maps digit keys "1".."9" onto logical cells 0..8. ok is false for
// any other key, which is ignored.
func (g *Game) Key(key string) (step Step, ok bool, err error) {
	cell, ok := KeyCell(key)
	if !ok {
		return Step{}, false, nil
	}
	step, err = g.Select(cell)
	return step, true, err
}

// KeyCell returns the logical cell bound to a key.
func KeyCell(key string) (int, bool) {
	if len(key) != 1 || key[0] < '1' || key[0] > '9' {
		return 0, false
	}
	return int(key[0] - '1'), true
}

// Fire applies a delayed event. It returns ErrStaleEvent, leaving the
// game untouched, when the event belongs to an earlier round or flash.
func (g *Game) Fire(ev Event) (Step, error) {
	switch ev.Kind {
	case EventFlashEnd:
		if ev.Flash != g.flash || g.phase != PhaseCorrect {
			return Step{}, ErrStaleEvent
		}
		g.phase = PhaseNeutral
		return Step{}, nil

	case EventReveal:
		if ev.Round != g.round || g.phase != PhaseIncorrect {
			return Step{}, ErrStaleEvent
		}
		g.reveal = g.grid.IndexOf(g.seq.At(g.pos))
		g.phase = PhaseReveal
		return Step{
			Timers: []Timer{{After: RevealDuration, Event: Event{Kind: EventReset, Round: g.round}}},
		}, nil

	case EventReset, EventCelebrationEnd:
		want := PhaseReveal
		if ev.Kind == EventCelebrationEnd {
			want = PhaseCelebration
		}
		if ev.Round != g.round || g.phase != want {
			return Step{}, ErrStaleEvent
		}
		g.pending = false
		g.phase = PhaseNeutral
		if err := g.moveTo(0); err != nil {
			return Step{}, err
		}
		return Step{Restarted: true}, nil
	}
	return Step{}, fmt.Errorf("quiz: unknown event kind %d", ev.Kind)
}

// Snapshot returns a copy of the current state.
func (g *Game) Snapshot() Snapshot {
	return Snapshot{
		Position: g.pos,
		Length:   g.seq.Len(),
		Target:   g.seq.At(g.pos),
		Grid:     g.grid,
		Reveal:   g.reveal,
		Phase:    g.phase,
		Round:    g.round,
		Pending:  g.pending,
	}
}

// moveTo sets the position and regenerates the grid, clearing any reveal.
func (g *Game) moveTo(pos int) error {
	grid, err := SetupRound(g.seq, pos, g.rng)
	if err != nil {
		return err
	}
	g.pos = pos
	g.grid = grid
	g.reveal = NoReveal
	g.round++
	return nil
}

// internal/quiz/types.go
//
// Core type definitions for the quiz engine.
// Defines:
//   - Grid: the nine candidate words of a round.
//   - Phase: the feedback state driving colours.
//   - Event/Timer: delayed transitions the engine asks its caller to schedule.
//   - Step: the result of one accepted transition.
//   - Snapshot: read-only view of a Game.

package quiz

import "time"

const (
	GridSize   = 9
	DecoyCount = GridSize - 1

	FlashDuration       = 500 * time.Millisecond
	RevealDuration      = 1000 * time.Millisecond
	CelebrationDuration = 3000 * time.Millisecond
)

// NoReveal marks the absence of a revealed cell.
const NoReveal = -1

// Grid holds the candidates of one round, indexed by logical cell 0..8.
type Grid [GridSize]string

// IndexOf returns the first cell holding w, or -1.
func (g Grid) IndexOf(w string) int {
	for i, c := range g {
		if c == w {
			return i
		}
	}
	return -1
}

// Phase is the transient feedback state.
type Phase string

const (
	PhaseNeutral     Phase = "neutral"
	PhaseCorrect     Phase = "correct"     // green flash after a right pick
	PhaseIncorrect   Phase = "incorrect"   // red flash after a wrong pick
	PhaseReveal      Phase = "reveal"      // correct cell highlighted before reset
	PhaseCelebration Phase = "celebration" // whole sequence completed
)

// Outcome describes what a selection did.
type Outcome string

const (
	OutcomeAdvanced  Outcome = "advanced"
	OutcomeCompleted Outcome = "completed"
	OutcomeMissed    Outcome = "missed"
	OutcomeIgnored   Outcome = "ignored" // input arrived while a reset was pending
)

// EventKind identifies a delayed transition.
type EventKind int

const (
	EventFlashEnd EventKind = iota + 1
	EventReveal
	EventReset
	EventCelebrationEnd
)

func (k EventKind) String() string {
	switch k {
	case EventFlashEnd:
		return "flash_end"
	case EventReveal:
		return "reveal"
	case EventReset:
		return "reset"
	case EventCelebrationEnd:
		return "celebration_end"
	default:
		return "unknown"
	}
}

// Event is a delayed transition. Round and Flash are the tokens current
// when it was issued; Fire rejects events whose tokens no longer match.
type Event struct {
	Kind  EventKind
	Round uint64
	Flash uint64
}

// Timer asks the caller to deliver Event to Game.Fire after the delay.
type Timer struct {
	After time.Duration
	Event Event
}

// Run summarises a finished attempt at the sequence.
type Run struct {
	Completed bool
	Reached   int    // words answered correctly before the run ended
	Length    int    // sequence length
	Missed    string // target word of the failed round; empty when completed
}

// Step is the result of one accepted transition.
type Step struct {
	Outcome   Outcome
	Timers    []Timer
	Finished  *Run // set when a selection ended the run
	Restarted bool // position went back to 0 with a fresh grid
}

// Snapshot is a copy of the game state.
type Snapshot struct {
	Position int
	Length   int
	Target   string
	Grid     Grid
	Reveal   int
	Phase    Phase
	Round    uint64
	Pending  bool
}

// Celebrating reports whether the completion animation is showing.
func (s Snapshot) Celebrating() bool { return s.Phase == PhaseCelebration }

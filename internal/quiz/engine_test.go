package quiz

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/robalobadob/memorygrid/internal/words"
)

var alphabet = []string{"alpha", "beta", "gamma", "delta", "epsilon", "zeta", "eta", "theta", "iota", "kappa"}

func newGame(t *testing.T, tokens []string) *Game {
	t.Helper()
	seq, err := words.New(tokens)
	require.NoError(t, err)
	g, err := New(seq, newRand(42))
	require.NoError(t, err)
	return g
}

func correctCell(s Snapshot) int { return s.Grid.IndexOf(s.Target) }

func wrongCell(s Snapshot) int {
	for i, w := range s.Grid {
		if w != s.Target {
			return i
		}
	}
	return -1
}

func TestNewStartsAtZero(t *testing.T) {
	g := newGame(t, alphabet)
	s := g.Snapshot()

	assert.Equal(t, 0, s.Position)
	assert.Equal(t, len(alphabet), s.Length)
	assert.Equal(t, "alpha", s.Target)
	assert.Equal(t, NoReveal, s.Reveal)
	assert.Equal(t, PhaseNeutral, s.Phase)
	assert.False(t, s.Pending)
	assertValidGrid(t, s.Grid, "alpha")
}

func TestCorrectSelectionAdvances(t *testing.T) {
	g := newGame(t, alphabet)
	before := g.Snapshot()

	step, err := g.Select(correctCell(before))
	require.NoError(t, err)

	after := g.Snapshot()
	assert.Equal(t, OutcomeAdvanced, step.Outcome)
	assert.Nil(t, step.Finished)
	assert.Equal(t, 1, after.Position)
	assert.Equal(t, "beta", after.Target)
	assert.Equal(t, PhaseCorrect, after.Phase)
	assert.Greater(t, after.Round, before.Round)
	assertValidGrid(t, after.Grid, "beta")

	require.Len(t, step.Timers, 1)
	assert.Equal(t, FlashDuration, step.Timers[0].After)
	assert.Equal(t, EventFlashEnd, step.Timers[0].Event.Kind)

	_, err = g.Fire(step.Timers[0].Event)
	require.NoError(t, err)
	assert.Equal(t, PhaseNeutral, g.Snapshot().Phase)
	assert.Equal(t, 1, g.Snapshot().Position)
}

func TestIncorrectSelectionChain(t *testing.T) {
	g := newGame(t, alphabet)
	// Get to position 2 first.
	for i := 0; i < 2; i++ {
		_, err := g.Select(correctCell(g.Snapshot()))
		require.NoError(t, err)
	}
	s := g.Snapshot()
	require.Equal(t, 2, s.Position)

	step, err := g.Select(wrongCell(s))
	require.NoError(t, err)
	assert.Equal(t, OutcomeMissed, step.Outcome)
	require.NotNil(t, step.Finished)
	assert.False(t, step.Finished.Completed)
	assert.Equal(t, 2, step.Finished.Reached)
	assert.Equal(t, "gamma", step.Finished.Missed)
	assert.Equal(t, PhaseIncorrect, g.Snapshot().Phase)
	assert.Equal(t, NoReveal, g.Snapshot().Reveal)

	require.Len(t, step.Timers, 1)
	assert.Equal(t, FlashDuration, step.Timers[0].After)
	assert.Equal(t, EventReveal, step.Timers[0].Event.Kind)

	reveal, err := g.Fire(step.Timers[0].Event)
	require.NoError(t, err)
	mid := g.Snapshot()
	assert.Equal(t, PhaseReveal, mid.Phase)
	assert.Equal(t, correctCell(s), mid.Reveal)
	assert.Equal(t, s.Grid, mid.Grid, "grid is kept while the answer is shown")
	assert.Equal(t, 2, mid.Position)

	require.Len(t, reveal.Timers, 1)
	assert.Equal(t, RevealDuration, reveal.Timers[0].After)
	assert.Equal(t, EventReset, reveal.Timers[0].Event.Kind)

	reset, err := g.Fire(reveal.Timers[0].Event)
	require.NoError(t, err)
	assert.True(t, reset.Restarted)
	end := g.Snapshot()
	assert.Equal(t, 0, end.Position)
	assert.Equal(t, PhaseNeutral, end.Phase)
	assert.Equal(t, NoReveal, end.Reveal)
	assert.False(t, end.Pending)
	assertValidGrid(t, end.Grid, "alpha")
}

func TestSelectionsIgnoredWhilePending(t *testing.T) {
	g := newGame(t, alphabet)
	s := g.Snapshot()
	_, err := g.Select(wrongCell(s))
	require.NoError(t, err)

	step, err := g.Select(correctCell(s))
	require.NoError(t, err)
	assert.Equal(t, OutcomeIgnored, step.Outcome)
	assert.Empty(t, step.Timers)
	assert.Equal(t, PhaseIncorrect, g.Snapshot().Phase)
}

func TestCompletingSequenceCelebrates(t *testing.T) {
	g := newGame(t, alphabet)
	var step Step
	var err error
	for i := 0; i < len(alphabet); i++ {
		step, err = g.Select(correctCell(g.Snapshot()))
		require.NoError(t, err)
	}

	assert.Equal(t, OutcomeCompleted, step.Outcome)
	require.NotNil(t, step.Finished)
	assert.True(t, step.Finished.Completed)
	assert.Equal(t, len(alphabet), step.Finished.Reached)

	s := g.Snapshot()
	assert.True(t, s.Celebrating())
	assert.Equal(t, len(alphabet)-1, s.Position)

	require.Len(t, step.Timers, 1)
	assert.Equal(t, CelebrationDuration, step.Timers[0].After)

	end, err := g.Fire(step.Timers[0].Event)
	require.NoError(t, err)
	assert.True(t, end.Restarted)
	assert.False(t, g.Snapshot().Celebrating())
	assert.Equal(t, 0, g.Snapshot().Position)
	assertValidGrid(t, g.Snapshot().Grid, "alpha")
}

func TestStaleEventsAreDropped(t *testing.T) {
	g := newGame(t, alphabet)

	first, err := g.Select(correctCell(g.Snapshot()))
	require.NoError(t, err)
	second, err := g.Select(correctCell(g.Snapshot()))
	require.NoError(t, err)

	// The first flash has been superseded by the second.
	_, err = g.Fire(first.Timers[0].Event)
	assert.ErrorIs(t, err, ErrStaleEvent)
	assert.Equal(t, PhaseCorrect, g.Snapshot().Phase)

	_, err = g.Fire(second.Timers[0].Event)
	require.NoError(t, err)

	// A reveal issued for an older round must not touch the current one.
	_, err = g.Fire(Event{Kind: EventReveal, Round: g.Snapshot().Round - 1})
	assert.ErrorIs(t, err, ErrStaleEvent)
	_, err = g.Fire(Event{Kind: EventReset, Round: g.Snapshot().Round})
	assert.ErrorIs(t, err, ErrStaleEvent, "reset without a preceding reveal")
	assert.Equal(t, 2, g.Snapshot().Position)
}

func TestSelectRejectsInvalidCell(t *testing.T) {
	g := newGame(t, alphabet)
	_, err := g.Select(-1)
	assert.ErrorIs(t, err, ErrInvalidCell)
	_, err = g.Select(GridSize)
	assert.ErrorIs(t, err, ErrInvalidCell)
}

func TestKeyMapping(t *testing.T) {
	for i, k := range []string{"1", "2", "3", "4", "5", "6", "7", "8", "9"} {
		cell, ok := KeyCell(k)
		assert.True(t, ok)
		assert.Equal(t, i, cell)
	}
	for _, k := range []string{"0", "a", "", "10", "Enter", " "} {
		_, ok := KeyCell(k)
		assert.False(t, ok, "key %q", k)
	}
}

func TestKeyFiveMatchesCellFour(t *testing.T) {
	byKey := newGame(t, alphabet)
	byClick := newGame(t, alphabet)
	require.Equal(t, byKey.Snapshot(), byClick.Snapshot())

	stepKey, ok, err := byKey.Key("5")
	require.NoError(t, err)
	require.True(t, ok)
	stepClick, err := byClick.Select(4)
	require.NoError(t, err)

	assert.Equal(t, stepClick, stepKey)
	assert.Equal(t, byClick.Snapshot(), byKey.Snapshot())
}

func TestKeyIgnoresOtherKeys(t *testing.T) {
	g := newGame(t, alphabet)
	before := g.Snapshot()
	_, ok, err := g.Key("x")
	require.NoError(t, err)
	assert.False(t, ok)
	assert.Equal(t, before, g.Snapshot())
}

// internal/quiz/round.go
//
// Round setup: one target plus eight distinct decoys in random order.
//
// Decoys are drawn by rejection sampling over the token list, so frequent
// words are proportionally more likely to appear, and duplicates or the
// target itself are redrawn. The draw count is bounded: once it runs out
// the remaining decoys come from a shuffle of the unused distinct words,
// which keeps setup terminating for any vocabulary that passed
// words.New.

package quiz

import (
	"errors"
	"fmt"
	"math/rand/v2"

	"github.com/robalobadob/memorygrid/internal/words"
)

var (
	ErrPosition    = errors.New("quiz: position out of range")
	ErrTooFewWords = errors.New("quiz: not enough distinct decoys")
)

// drawsPerDecoy bounds rejection sampling before the pool fallback.
const drawsPerDecoy = 64

// Shuffle permutes s uniformly in place (Fisher–Yates, last index down).
func Shuffle[T any](s []T, rng *rand.Rand) {
	for i := len(s) - 1; i > 0; i-- {
		j := rng.IntN(i + 1)
		s[i], s[j] = s[j], s[i]
	}
}

// SetupRound builds the grid for the target at position.
func SetupRound(seq *words.Sequence, position int, rng *rand.Rand) (Grid, error) {
	var g Grid
	if position < 0 || position >= seq.Len() {
		return g, fmt.Errorf("%w: %d not in [0,%d)", ErrPosition, position, seq.Len())
	}
	target := seq.At(position)
	decoys, err := sampleDecoys(seq, target, DecoyCount, rng)
	if err != nil {
		return g, err
	}
	copy(g[:], decoys)
	g[GridSize-1] = target
	Shuffle(g[:], rng)
	return g, nil
}

// sampleDecoys returns count distinct words from seq, none equal to target.
func sampleDecoys(seq *words.Sequence, target string, count int, rng *rand.Rand) ([]string, error) {
	available := seq.Distinct()
	if seq.Contains(target) {
		available--
	}
	if available < count {
		return nil, fmt.Errorf("%w: %d available, %d needed", ErrTooFewWords, available, count)
	}

	picked := make(map[string]struct{}, count)
	out := make([]string, 0, count)
	for draws := 0; len(out) < count && draws < count*drawsPerDecoy; draws++ {
		w := seq.At(rng.IntN(seq.Len()))
		if w == target {
			continue
		}
		if _, dup := picked[w]; dup {
			continue
		}
		picked[w] = struct{}{}
		out = append(out, w)
	}
	if len(out) == count {
		return out, nil
	}

	// Fallback: uniform pick from the distinct words not yet used.
	pool := make([]string, 0, available)
	for _, w := range seq.Unique() {
		if _, dup := picked[w]; dup || w == target {
			continue
		}
		pool = append(pool, w)
	}
	Shuffle(pool, rng)
	return append(out, pool[:count-len(out)]...), nil
}

// internal/words/words.go
//
// Word sequence holder for the quiz.
//
// Responsibilities:
//   - Cut the embedded narrative into an ordered, immutable token list.
//   - Keep a distinct-word index used by round setup to draw decoys.
//   - Refuse vocabularies too small to fill a grid (fewer than MinDistinct
//     distinct words), so round setup can never stall.
//
// Tokens are whitespace-separated and kept verbatim: punctuation and case
// are part of the word the player has to pick.
package words

import (
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/robalobadob/memorygrid/assets"
)

// MinDistinct is the smallest vocabulary that yields one target plus eight
// distinct decoys for every position.
const MinDistinct = 9

var (
	ErrEmpty       = errors.New("words: sequence is empty")
	ErrTooFewWords = errors.New("words: not enough distinct words")
)

// Sequence is an ordered list of tokens. It is never mutated after New.
type Sequence struct {
	tokens []string
	counts map[string]int // occurrences per distinct token
	unique []string       // distinct tokens in first-seen order
}

// New builds a Sequence from tokens. The slice is copied.
func New(tokens []string) (*Sequence, error) {
	if len(tokens) == 0 {
		return nil, ErrEmpty
	}
	s := &Sequence{
		tokens: append([]string(nil), tokens...),
		counts: make(map[string]int, len(tokens)),
	}
	for _, t := range s.tokens {
		if s.counts[t] == 0 {
			s.unique = append(s.unique, t)
		}
		s.counts[t]++
	}
	if len(s.unique) < MinDistinct {
		return nil, fmt.Errorf("%w: have %d, need %d", ErrTooFewWords, len(s.unique), MinDistinct)
	}
	return s, nil
}

// Parse splits text on any run of whitespace and builds a Sequence.
func Parse(text string) (*Sequence, error) {
	return New(strings.Fields(text))
}

// Len returns the number of tokens.
func (s *Sequence) Len() int { return len(s.tokens) }

// At returns the token at position i. It panics on an out-of-range index
// like a slice would.
func (s *Sequence) At(i int) string { return s.tokens[i] }

// Distinct returns the number of distinct tokens.
func (s *Sequence) Distinct() int { return len(s.unique) }

// Unique returns a copy of the distinct tokens in first-seen order.
func (s *Sequence) Unique() []string { return append([]string(nil), s.unique...) }

// Contains reports whether w occurs anywhere in the sequence.
func (s *Sequence) Contains(w string) bool { return s.counts[w] > 0 }

// Stats returns (tokens, distinct).
func (s *Sequence) Stats() (tokens int, distinct int) {
	return len(s.tokens), len(s.unique)
}

var (
	defaultOnce sync.Once
	defaultSeq  *Sequence
	defaultErr  error
)

// Default returns the sequence cut from the embedded narrative.
// It is parsed once and shared; Sequence is read-only so sharing is safe.
func Default() (*Sequence, error) {
	defaultOnce.Do(func() {
		text, err := assets.Narrative()
		if err != nil {
			defaultErr = fmt.Errorf("words: read narrative: %w", err)
			return
		}
		defaultSeq, defaultErr = Parse(text)
	})
	return defaultSeq, defaultErr
}

// internal/session/session.go
//
// Runtime wrapper around one quiz.Game.
//
// Responsibilities:
//   - Serialise player input and timer callbacks on a single mutex, so a
//     session behaves as one cooperative thread.
//   - Schedule the delayed events a transition asks for and feed them back
//     into the game; events issued for an earlier round are dropped there.
//   - Publish a snapshot to subscribers after every state change.
//   - Hand finished runs to an optional Recorder (the journal).
//
// Subscriptions are scoped: Subscribe returns a handle whose Close detaches
// it, and Session.Close detaches all of them and cancels pending timers.

package session

import (
	"context"
	"errors"
	"math/rand/v2"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/robalobadob/memorygrid/internal/clock"
	"github.com/robalobadob/memorygrid/internal/journal"
	"github.com/robalobadob/memorygrid/internal/quiz"
	"github.com/robalobadob/memorygrid/internal/words"
)

var ErrClosed = errors.New("session: closed")

// Recorder receives finished runs.
type Recorder interface {
	Record(ctx context.Context, r journal.Run) error
}

// Options configures a Session. Zero values pick runtime defaults.
type Options struct {
	Clock    clock.Clock
	Rand     *rand.Rand
	Recorder Recorder
	Logger   zerolog.Logger
}

// Session is one player's game plus its timers and listeners.
type Session struct {
	ID string

	mu       sync.Mutex
	game     *quiz.Game
	clk      clock.Clock
	rec      Recorder
	log      zerolog.Logger
	timers   map[uint64]clock.Timer
	nextTim  uint64
	subs     map[uint64]chan quiz.Snapshot
	nextSub  uint64
	runStart time.Time
	lastSeen time.Time
	closed   bool
}

// New starts a session at position 0.
func New(id string, seq *words.Sequence, opts Options) (*Session, error) {
	if opts.Clock == nil {
		opts.Clock = clock.Real()
	}
	if opts.Rand == nil {
		opts.Rand = rand.New(rand.NewPCG(rand.Uint64(), rand.Uint64()))
	}
	g, err := quiz.New(seq, opts.Rand)
	if err != nil {
		return nil, err
	}
	now := opts.Clock.Now()
	return &Session{
		ID:       id,
		game:     g,
		clk:      opts.Clock,
		rec:      opts.Recorder,
		log:      opts.Logger.With().Str("session", id).Logger(),
		timers:   make(map[uint64]clock.Timer),
		subs:     make(map[uint64]chan quiz.Snapshot),
		runStart: now,
		lastSeen: now,
	}, nil
}

// Select picks a logical grid cell.
func (s *Session) Select(cell int) (quiz.Outcome, quiz.Snapshot, error) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return "", quiz.Snapshot{}, ErrClosed
	}
	s.lastSeen = s.clk.Now()
	step, err := s.game.Select(cell)
	if err != nil {
		snap := s.game.Snapshot()
		s.mu.Unlock()
		return "", snap, err
	}
	run := s.applyLocked(step)
	snap := s.game.Snapshot()
	s.mu.Unlock()

	s.record(run)
	return step.Outcome, snap, nil
}

// Key handles a key press. ok is false for keys outside "1".."9", which
// leave the session untouched.
func (s *Session) Key(key string) (outcome quiz.Outcome, snap quiz.Snapshot, ok bool, err error) {
	cell, ok := quiz.KeyCell(key)
	if !ok {
		return "", s.Snapshot(), false, nil
	}
	outcome, snap, err = s.Select(cell)
	return outcome, snap, true, err
}

// Snapshot returns the current state.
func (s *Session) Snapshot() quiz.Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.game.Snapshot()
}

// LastSeen returns the time of the last player input.
func (s *Session) LastSeen() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.lastSeen
}

// Touch marks the session as active without changing state.
func (s *Session) Touch() {
	s.mu.Lock()
	s.lastSeen = s.clk.Now()
	s.mu.Unlock()
}

// Subscription delivers snapshots after every state change.
type Subscription struct {
	C    <-chan quiz.Snapshot
	id   uint64
	s    *Session
	once sync.Once
}

// Subscribe registers a listener. The channel holds up to buffer pending
// snapshots; when it is full the oldest one is dropped, so a slow reader
// always ends up with the latest state. The current state is delivered
// immediately.
func (s *Session) Subscribe(buffer int) *Subscription {
	if buffer < 1 {
		buffer = 1
	}
	ch := make(chan quiz.Snapshot, buffer)

	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		close(ch)
		return &Subscription{C: ch, s: s}
	}
	s.nextSub++
	s.subs[s.nextSub] = ch
	ch <- s.game.Snapshot()
	return &Subscription{C: ch, id: s.nextSub, s: s}
}

// Close detaches the subscription and closes its channel. Safe to call
// more than once.
func (sub *Subscription) Close() {
	sub.once.Do(func() {
		s := sub.s
		s.mu.Lock()
		defer s.mu.Unlock()
		if ch, ok := s.subs[sub.id]; ok {
			delete(s.subs, sub.id)
			close(ch)
		}
	})
}

// Subscribers returns the number of attached subscriptions.
func (s *Session) Subscribers() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.subs)
}

// Close cancels pending timers and detaches all subscribers.
func (s *Session) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.closed = true
	for id, t := range s.timers {
		t.Stop()
		delete(s.timers, id)
	}
	for id, ch := range s.subs {
		close(ch)
		delete(s.subs, id)
	}
}

// applyLocked schedules the step's timers, tracks run timing and
// publishes the new state. It returns the run to record, if any.
func (s *Session) applyLocked(step quiz.Step) *journal.Run {
	now := s.clk.Now()
	for _, t := range step.Timers {
		s.scheduleLocked(t)
	}
	var run *journal.Run
	if f := step.Finished; f != nil {
		run = &journal.Run{
			SessionID:  s.ID,
			Completed:  f.Completed,
			Reached:    f.Reached,
			Length:     f.Length,
			Missed:     f.Missed,
			ElapsedMs:  now.Sub(s.runStart).Milliseconds(),
			FinishedAt: now,
		}
		s.log.Info().
			Bool("completed", f.Completed).
			Int("reached", f.Reached).
			Int64("elapsed_ms", run.ElapsedMs).
			Msg("run finished")
	}
	if step.Restarted {
		s.runStart = now
	}
	if step.Outcome != quiz.OutcomeIgnored {
		s.publishLocked()
	}
	return run
}

func (s *Session) scheduleLocked(t quiz.Timer) {
	s.nextTim++
	id, ev := s.nextTim, t.Event
	s.timers[id] = s.clk.AfterFunc(t.After, func() { s.fire(id, ev) })
}

// fire delivers a delayed event to the game.
func (s *Session) fire(id uint64, ev quiz.Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.timers, id)
	if s.closed {
		return
	}
	step, err := s.game.Fire(ev)
	if errors.Is(err, quiz.ErrStaleEvent) {
		s.log.Debug().Stringer("event", ev.Kind).Uint64("round", ev.Round).Msg("dropped stale event")
		return
	}
	if err != nil {
		s.log.Error().Err(err).Stringer("event", ev.Kind).Msg("apply event")
		return
	}
	s.applyLocked(step)
}

// publishLocked sends the current snapshot to every subscriber without
// blocking.
func (s *Session) publishLocked() {
	snap := s.game.Snapshot()
	for _, ch := range s.subs {
		select {
		case ch <- snap:
			continue
		default:
		}
		select {
		case <-ch:
		default:
		}
		select {
		case ch <- snap:
		default:
		}
	}
}

// record hands a finished run to the recorder, outside the session lock.
func (s *Session) record(run *journal.Run) {
	if run == nil || s.rec == nil {
		return
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := s.rec.Record(ctx, *run); err != nil {
		s.log.Warn().Err(err).Msg("record run")
	}
}

// Package choice implements the numbered-reaction selection prompt used to
// disambiguate search results. At most one prompt is live per process; a new
// prompt silently replaces the previous one.
package choice

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/keshon/beatsbot/pkg/clock"
)

// State of the prompt machine.
type State int

const (
	NoPrompt State = iota
	Awaiting
	Resolved
	Cancelled
	TimedOut
)

func (s State) String() string {
	switch s {
	case Awaiting:
		return "awaiting"
	case Resolved:
		return "resolved"
	case Cancelled:
		return "cancelled"
	case TimedOut:
		return "timed out"
	default:
		return "no prompt"
	}
}

// Handle identifies a posted list message.
type Handle struct {
	ChannelID string
	MessageID string
}

// Board is the chat capability the prompt needs.
type Board[T any] interface {
	PostList(ctx context.Context, candidates []T) (Handle, error)
	AddMarker(ctx context.Context, h Handle, m Marker) error
	ClearMarkers(ctx context.Context, h Handle) error
}

type session[T any] struct {
	handle     Handle
	candidates []T
	onChosen   func(index int, chosen T)
	timer      clock.Timer
	done       bool
}

// Prompt is the single live choice prompt.
type Prompt[T any] struct {
	mu      sync.Mutex
	board   Board[T]
	clock   clock.Clock
	selfID  string
	current *session[T]
	last    State
}

// New returns a prompt posting through board. Reactions from selfID (the bot
// itself, which seeds the markers) are ignored.
func New[T any](board Board[T], clk clock.Clock, selfID string) *Prompt[T] {
	return &Prompt[T]{board: board, clock: clk, selfID: selfID}
}

// SetSelfID updates the id whose reactions are ignored.
func (p *Prompt[T]) SetSelfID(id string) {
	p.mu.Lock()
	p.selfID = id
	p.mu.Unlock()
}

// Present posts candidates (at most MaxOptions are selectable) and waits for
// a numbered marker. onChosen runs at most once; it never runs when the
// prompt is cancelled, times out or is superseded by another Present.
func (p *Prompt[T]) Present(ctx context.Context, candidates []T, timeout time.Duration, onChosen func(index int, chosen T)) error {
	p.supersede()

	if len(candidates) > MaxOptions {
		candidates = candidates[:MaxOptions]
	}

	h, err := p.board.PostList(ctx, candidates)
	if err != nil {
		return err
	}

	s := &session[T]{handle: h, candidates: candidates, onChosen: onChosen}

	p.mu.Lock()
	// another Present may have installed its prompt while we were posting
	stale := p.current
	if stale != nil && !stale.done {
		p.finishLocked(stale, NoPrompt)
	} else {
		stale = nil
	}
	p.current = s
	p.last = Awaiting
	s.timer = p.clock.AfterFunc(timeout, func() { p.expire(s) })
	p.mu.Unlock()

	if stale != nil {
		p.clear(stale)
	}

	for _, m := range markersFor(len(candidates)) {
		if p.ended(s) {
			break
		}
		if err := p.board.AddMarker(ctx, h, m); err != nil {
			log.Printf("[WARN] [Choice] Failed to add marker %s: %v", m, err)
			break
		}
	}
	return nil
}

// HandleReaction feeds a reaction into the live prompt. It reports whether
// the reaction was consumed.
func (p *Prompt[T]) HandleReaction(messageID string, m Marker, actorID string) bool {
	p.mu.Lock()
	s := p.current
	if s == nil || s.done || s.handle.MessageID != messageID || actorID == p.selfID {
		p.mu.Unlock()
		return false
	}

	if m == Cancel {
		p.finishLocked(s, Cancelled)
		p.mu.Unlock()
		p.clear(s)
		return true
	}

	idx, err := IndexFor(m)
	if err != nil || idx >= len(s.candidates) {
		p.mu.Unlock()
		return false
	}

	p.finishLocked(s, Resolved)
	p.mu.Unlock()

	p.clear(s)
	if s.onChosen != nil {
		s.onChosen(idx, s.candidates[idx])
	}
	return true
}

// State returns the state of the most recent prompt.
func (p *Prompt[T]) State() State {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.last
}

// supersede drops the live prompt without calling back.
func (p *Prompt[T]) supersede() {
	p.mu.Lock()
	s := p.current
	if s == nil || s.done {
		p.mu.Unlock()
		return
	}
	p.finishLocked(s, NoPrompt)
	p.mu.Unlock()
	p.clear(s)
}

func (p *Prompt[T]) expire(s *session[T]) {
	p.mu.Lock()
	if s.done {
		p.mu.Unlock()
		return
	}
	p.finishLocked(s, TimedOut)
	p.mu.Unlock()
	p.clear(s)
}

func (p *Prompt[T]) finishLocked(s *session[T], st State) {
	s.done = true
	if s.timer != nil {
		s.timer.Stop()
	}
	if p.current == s {
		p.current = nil
		p.last = st
	}
}

func (p *Prompt[T]) ended(s *session[T]) bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return s.done
}

func (p *Prompt[T]) clear(s *session[T]) {
	if err := p.board.ClearMarkers(context.Background(), s.handle); err != nil {
		log.Printf("[WARN] [Choice] Failed to clear markers: %v", err)
	}
}

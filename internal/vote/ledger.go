// Package vote tallies per-user sentiment on the playing track and keeps an
// aggregate score per track uri across restarts.
//
// There is exactly one Ledger per process: one active vote session at a time,
// not one per guild or channel.
package vote

import (
	"errors"
	"log"
	"sort"
	"sync"
)

var (
	ErrInvalidDelta    = errors.New("vote must be +1 or -1")
	ErrNoActiveSession = errors.New("no active vote session")
)

// Store is the durable uri -> score mapping. Get reports absent keys with
// ok == false; malformed values are the store's problem and read as 0.
type Store interface {
	Get(uri string) (score int, ok bool)
	Set(uri string, score int) error
	// ForEach visits entries in first-seen order.
	ForEach(visit func(uri string, score int))
}

// Result is one leaderboard row.
type Result struct {
	URI   string
	Score int
}

// Ledger tracks the vote session of the currently playing track.
type Ledger struct {
	mu    sync.Mutex
	store Store

	activeURI    string
	active       bool
	perUserDelta map[string]int
	currentDelta int
}

// NewLedger returns an idle ledger persisting into store.
func NewLedger(store Store) *Ledger {
	return &Ledger{
		store:        store,
		perUserDelta: make(map[string]int),
	}
}

// StartSession ends any running session (persisting its score) and opens a
// fresh one for uri.
func (l *Ledger) StartSession(uri string) {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.endLocked()
	l.activeURI = uri
	l.active = true
	l.perUserDelta = make(map[string]int)
	l.currentDelta = 0
}

// EndSession persists the active session's score and goes idle. It is a
// no-op when idle.
func (l *Ledger) EndSession() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.endLocked()
}

func (l *Ledger) endLocked() {
	if !l.active {
		return
	}
	uri := l.activeURI
	score := l.scoreLocked(uri)
	if err := l.store.Set(uri, score); err != nil {
		log.Printf("[WARN] [Votes] Failed to persist score for %s: %v", uri, err)
	}
	l.active = false
	l.activeURI = ""
	l.perUserDelta = make(map[string]int)
	l.currentDelta = 0
}

// Vote records userID's sentiment. A second vote from the same user replaces
// the first. Voting while idle does nothing and returns ErrNoActiveSession.
func (l *Ledger) Vote(userID string, delta int) error {
	if delta != 1 && delta != -1 {
		return ErrInvalidDelta
	}

	l.mu.Lock()
	defer l.mu.Unlock()

	if !l.active {
		return ErrNoActiveSession
	}
	prev := l.perUserDelta[userID]
	l.currentDelta += delta - prev
	l.perUserDelta[userID] = delta
	return nil
}

// Score returns the persisted score plus, for the active uri, the running delta.
func (l *Ledger) Score(uri string) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.scoreLocked(uri)
}

func (l *Ledger) scoreLocked(uri string) int {
	persisted, _ := l.store.Get(uri)
	if l.active && uri == l.activeURI {
		return persisted + l.currentDelta
	}
	return persisted
}

// Active returns the uri of the running session.
func (l *Ledger) Active() (string, bool) {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.activeURI, l.active
}

// Results lists every persisted uri plus the active one, best first. Equal
// scores keep first-seen order; an active uri not yet persisted comes last
// among its peers.
func (l *Ledger) Results() []Result {
	l.mu.Lock()
	defer l.mu.Unlock()

	var results []Result
	seenActive := false
	l.store.ForEach(func(uri string, score int) {
		if l.active && uri == l.activeURI {
			seenActive = true
			score += l.currentDelta
		}
		results = append(results, Result{URI: uri, Score: score})
	})
	if l.active && !seenActive {
		results = append(results, Result{URI: l.activeURI, Score: l.currentDelta})
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})
	return results
}

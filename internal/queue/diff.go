// Package queue detects which entries were freshly appended to the play queue.
package queue

import (
	"sync"

	"github.com/samber/lo"
)

// Diff returns the entries of next that were not in prev, in next's order.
// Entries are compared as a multiset: with prev=[A,B,A] and
// next=[A,B,A,C,A] the result is [C,A].
func Diff(prev, next []string) []string {
	oldCount := lo.CountValues(prev)
	seen := make(map[string]int, len(oldCount))

	var added []string
	for _, uri := range next {
		if seen[uri] < oldCount[uri] {
			seen[uri]++
			continue
		}
		seen[uri]++
		added = append(added, uri)
	}
	return added
}

// Tracker remembers the last upcoming-queue snapshot so consecutive
// snapshots can be diffed.
type Tracker struct {
	mu   sync.Mutex
	prev []string
}

// Update replaces the stored snapshot and returns what was added.
func (t *Tracker) Update(snapshot []string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	added := Diff(t.prev, snapshot)
	t.prev = append([]string(nil), snapshot...)
	return added
}

// Reset sets the baseline without reporting anything.
func (t *Tracker) Reset(snapshot []string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.prev = append([]string(nil), snapshot...)
}

// Advance drops uri from the head of the stored snapshot when playback moves
// on to it; the server reports no tracklist change for that. A snapshot whose
// head is another entry was read after playback moved and is kept.
func (t *Tracker) Advance(uri string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(t.prev) > 0 && t.prev[0] == uri {
		t.prev = t.prev[1:]
	}
}

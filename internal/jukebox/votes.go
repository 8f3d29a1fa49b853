package jukebox

import (
	"context"
	"errors"
	"log"
	"strings"

	"github.com/samber/lo"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/choice"
	"github.com/keshon/beatsbot/internal/vote"
)

var (
	GoodMarkers = []string{"📈", "🎺", "💯", "👌", "👍", "🔥", "🥁"}
	BadMarkers  = []string{"📉", "👎", "🚢", "🚣", "🚤", "⚓", "💩"}
)

// Sentiment maps a reaction to +1, -1 or 0 for reactions that are not votes.
func Sentiment(emoji string) int {
	emoji = strings.ReplaceAll(emoji, "\ufe0f", "")
	switch {
	case lo.Contains(GoodMarkers, emoji):
		return 1
	case lo.Contains(BadMarkers, emoji):
		return -1
	default:
		return 0
	}
}

// HandleReaction routes a reaction to the choice prompt or, on a
// vote-collecting message, to the ledger.
func (j *Jukebox) HandleReaction(ctx context.Context, m chat.Message, emoji, userID string) {
	j.mu.Lock()
	self := j.selfID
	j.mu.Unlock()
	if userID == self {
		return
	}

	if j.prompt.HandleReaction(m.ID, choice.Marker(emoji), userID) {
		return
	}

	j.mu.Lock()
	collecting := j.voteMsgs[m.ID]
	j.mu.Unlock()
	if !collecting {
		return
	}

	if delta := Sentiment(emoji); delta != 0 {
		j.castVote(ctx, userID, delta)
	}
}

// Vote records the requester's vote from a command and makes the command
// message collect reactions too. It does nothing while idle.
func (j *Jukebox) Vote(ctx context.Context, req Request, delta int) error {
	j.mu.Lock()
	playing := j.current != nil
	if playing {
		j.voteMsgs[req.Message.ID] = true
	}
	j.mu.Unlock()
	if !playing {
		return nil
	}

	if err := j.castVote(ctx, req.UserID, delta); err != nil {
		return err
	}

	markers := GoodMarkers
	if delta < 0 {
		markers = BadMarkers
	}
	if err := j.chat.React(ctx, req.Message, lo.Sample(markers)); err != nil {
		log.Printf("[WARN] [Votes] Failed to react: %v", err)
	}
	return nil
}

func (j *Jukebox) castVote(ctx context.Context, userID string, delta int) error {
	err := j.ledger.Vote(userID, delta)
	if errors.Is(err, vote.ErrNoActiveSession) {
		log.Printf("[INFO] [Votes] Ignoring vote from %s: nothing playing", userID)
		return nil
	}
	if err != nil {
		return err
	}
	j.refreshNowPlaying(ctx)
	return nil
}

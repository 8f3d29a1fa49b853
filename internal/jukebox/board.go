package jukebox

import (
	"context"
	"errors"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/choice"
	"github.com/keshon/beatsbot/internal/song"
)

var errNoTextChannel = errors.New("no text channel to post in")

// listBoard posts choice lists into the jukebox text channel.
type listBoard struct {
	j *Jukebox
}

func (b *listBoard) PostList(ctx context.Context, candidates []song.Song) (choice.Handle, error) {
	b.j.mu.Lock()
	channel := b.j.textChannel
	b.j.mu.Unlock()
	if channel == "" {
		return choice.Handle{}, errNoTextChannel
	}

	// markers go on the last chunk, directly under the final rows
	var last chat.Message
	for _, content := range renderTable("Choose a song:", b.j.rows(candidates), 0, -1) {
		msg, err := b.j.chat.Send(ctx, channel, content)
		if err != nil {
			return choice.Handle{}, err
		}
		last = msg
	}
	return choice.Handle{ChannelID: last.ChannelID, MessageID: last.ID}, nil
}

func (b *listBoard) AddMarker(ctx context.Context, h choice.Handle, m choice.Marker) error {
	return b.j.chat.React(ctx, message(h), string(m))
}

func (b *listBoard) ClearMarkers(ctx context.Context, h choice.Handle) error {
	return b.j.chat.ClearReactions(ctx, message(h))
}

func message(h choice.Handle) chat.Message {
	return chat.Message{ChannelID: h.ChannelID, ID: h.MessageID}
}

// rows pairs songs with their current scores.
func (j *Jukebox) rows(songs []song.Song) []tableRow {
	rows := make([]tableRow, len(songs))
	for i, s := range songs {
		rows[i] = tableRow{Song: s, Score: j.ledger.Score(s.URI)}
	}
	return rows
}

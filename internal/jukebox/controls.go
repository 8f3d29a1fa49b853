package jukebox

import (
	"context"
	"fmt"

	"github.com/samber/lo"

	"github.com/keshon/beatsbot/internal/song"
)

// Join connects to the requester's voice channel and makes the request's
// text channel the notice channel.
func (j *Jukebox) Join(ctx context.Context, req Request) error {
	if err := j.ensureVoice(ctx, req); err != nil {
		return err
	}
	j.SetTextChannel(req.channel())
	return j.voice.Join(ctx, req.VoiceChannelID)
}

func (j *Jukebox) Skip(ctx context.Context, req Request) error {
	more, err := j.player.Next(ctx)
	if err != nil {
		return fmt.Errorf("skip: %w", err)
	}
	if !more {
		_, err = j.chat.Send(ctx, req.channel(), "Out of beats!")
	}
	return err
}

// Stop halts playback and clears repeat modes.
func (j *Jukebox) Stop(ctx context.Context) error {
	return j.player.Stop(ctx)
}

// Queue lists the whole tracklist with the current track marked.
func (j *Jukebox) Queue(ctx context.Context, req Request) error {
	tracks, index, err := j.player.Tracklist(ctx)
	if err != nil {
		return fmt.Errorf("fetch tracklist: %w", err)
	}
	songs := lo.Map(tracks, func(t song.Track, _ int) song.Song { return song.FromTrack(t) })
	return j.sendAll(ctx, req.channel(), renderTable("Queued Tracks", j.rows(songs), 0, index))
}

// Repeat loops the tracklist, or just the current track when single is set.
func (j *Jukebox) Repeat(ctx context.Context, req Request, single bool) error {
	if _, playing := j.Current(); !playing {
		_, err := j.chat.Send(ctx, req.channel(), "Not currently playing anything.")
		return err
	}
	return j.player.Repeat(ctx, single)
}

func (j *Jukebox) sendAll(ctx context.Context, channel string, messages []string) error {
	for _, body := range messages {
		if _, err := j.chat.Send(ctx, channel, body); err != nil {
			return err
		}
	}
	return nil
}

package jukebox

import (
	"context"
	"fmt"
	"log"
	"regexp"
	"strings"

	"github.com/samber/lo"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/song"
)

// Sources are searched in this order.
var Sources = []string{"local", "spotify", "youtube"}

const (
	maxResults   = 10
	historyDepth = 5
	spotifyWeb   = "https://open.spotify.com"
)

var (
	youtubeRe     = regexp.MustCompile(`(https?://)?(www\.)?youtu(\.be|be\.com)`)
	spotifyIntlRe = regexp.MustCompile(`^intl-[a-z]+$`)
)

// DirectURI turns a link or uri into a playable uri without searching.
func DirectURI(query string) (string, bool) {
	switch {
	case youtubeRe.MatchString(query):
		return "yt:" + query, true
	case strings.HasPrefix(query, "spotify:"):
		return query, true
	case strings.HasPrefix(query, spotifyWeb+"/"):
		path, _, _ := strings.Cut(strings.TrimPrefix(query, spotifyWeb+"/"), "?")
		parts := lo.Reject(strings.Split(path, "/"), func(p string, _ int) bool {
			return p == "" || spotifyIntlRe.MatchString(p)
		})
		if len(parts) == 0 {
			return "", false
		}
		return "spotify:" + strings.Join(parts, ":"), true
	default:
		return "", false
	}
}

// Play resolves query and queues the result. A link plays directly, as does
// the only match of a source; several matches open a choice prompt.
func (j *Jukebox) Play(ctx context.Context, req Request, query string, now bool) error {
	if err := j.ensureVoice(ctx, req); err != nil {
		return err
	}
	if uri, ok := DirectURI(query); ok {
		return j.playURIs(ctx, req, []string{uri}, now)
	}

	status, err := j.chat.Send(ctx, req.channel(), "Searching...")
	if err != nil {
		return err
	}

	var tracks []song.Track
	for _, source := range Sources {
		found, err := j.player.Search(ctx, query, source)
		if err != nil {
			log.Printf("[WARN] [Search] %s search for %q failed: %v", source, query, err)
			continue
		}
		if len(found) == 1 {
			j.dropStatus(ctx, status)
			return j.playURIs(ctx, req, []string{found[0].URI}, now)
		}
		tracks = append(tracks, found...)
		if len(tracks) >= maxResults {
			break
		}
	}

	return j.choose(ctx, req, status, tracks, now)
}

// Random plays a random match from the first source that has any.
func (j *Jukebox) Random(ctx context.Context, req Request, query string, now bool) error {
	if err := j.ensureVoice(ctx, req); err != nil {
		return err
	}

	status, err := j.chat.Send(ctx, req.channel(), "Searching...")
	if err != nil {
		return err
	}

	for _, source := range Sources {
		found, err := j.player.Search(ctx, query, source)
		if err != nil {
			log.Printf("[WARN] [Search] %s search for %q failed: %v", source, query, err)
			continue
		}
		if len(found) > 0 {
			j.dropStatus(ctx, status)
			return j.playURIs(ctx, req, []string{lo.Sample(found).URI}, now)
		}
	}

	return j.chat.Edit(ctx, status, "No results found.")
}

// Recent offers the last few played tracks.
func (j *Jukebox) Recent(ctx context.Context, req Request, now bool) error {
	if err := j.ensureVoice(ctx, req); err != nil {
		return err
	}

	status, err := j.chat.Send(ctx, req.channel(), "Fetching history...")
	if err != nil {
		return err
	}
	tracks, err := j.player.History(ctx, historyDepth)
	if err != nil {
		return fmt.Errorf("fetch history: %w", err)
	}
	return j.choose(ctx, req, status, tracks, now)
}

func (j *Jukebox) choose(ctx context.Context, req Request, status chat.Message, tracks []song.Track, now bool) error {
	if len(tracks) == 0 {
		return j.chat.Edit(ctx, status, "No results found.")
	}
	j.dropStatus(ctx, status)
	j.SetTextChannel(req.channel())

	songs := lo.Map(lo.Slice(tracks, 0, maxResults), func(t song.Track, _ int) song.Song {
		return song.FromTrack(t)
	})
	return j.prompt.Present(ctx, songs, j.opts.ChoiceTimeout, func(_ int, s song.Song) {
		// the prompt outlives the command that opened it
		if err := j.playURIs(context.Background(), req, []string{s.URI}, now); err != nil {
			log.Printf("[ERR] [Search] Failed to play choice %s: %v", s.URI, err)
		}
	})
}

// ensureVoice tells the requester to join voice when they are not in a
// channel.
func (j *Jukebox) ensureVoice(ctx context.Context, req Request) error {
	if req.VoiceChannelID != "" {
		return nil
	}
	if _, err := j.chat.Send(ctx, req.channel(), "You need to join a voice channel first!"); err != nil {
		log.Printf("[WARN] [Jukebox] Failed to send reply: %v", err)
	}
	return ErrNotInVoice
}

func (j *Jukebox) playURIs(ctx context.Context, req Request, uris []string, now bool) error {
	if err := j.Join(ctx, req); err != nil {
		return err
	}
	started, err := j.player.Play(ctx, uris, now)
	if err != nil {
		return fmt.Errorf("play %v: %w", uris, err)
	}
	log.Printf("[INFO] [Jukebox] Queued %v for %s (started: %t)", uris, req.UserID, started)
	return nil
}

func (j *Jukebox) dropStatus(ctx context.Context, status chat.Message) {
	if err := j.chat.Delete(ctx, status); err != nil {
		log.Printf("[WARN] [Jukebox] Failed to delete status message: %v", err)
	}
}

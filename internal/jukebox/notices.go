package jukebox

import (
	"context"
	"fmt"
	"log"
	"net/url"
	"strings"

	"github.com/keshon/beatsbot/internal/chat"
	"github.com/keshon/beatsbot/internal/song"
)

// Points renders a score the way notices show it.
func Points(score int) string {
	if score >= 0 {
		return fmt.Sprintf("🎺 %d", score)
	}
	return fmt.Sprintf("⚓ %d", score)
}

func (j *Jukebox) nowPlayingNotice(s song.Song, score int, image string) chat.Notice {
	return chat.Notice{
		Title: "Now Playing",
		URL:   j.opts.ExternalURL,
		Fields: []chat.Field{
			{Name: s.Derived.SongName, Value: s.Derived.ArtistString},
			{Name: "Duration", Value: s.Derived.DurationString, Inline: true},
			{Name: "BeatsPoints", Value: Points(score), Inline: true},
		},
		Thumbnail: image,
	}
}

func (j *Jukebox) queuedNotice(s song.Song, image string) chat.Notice {
	return chat.Notice{
		Title:       s.Derived.SongName,
		Description: s.Derived.ArtistString,
		URL:         j.playLink(s.URI),
		Fields: []chat.Field{
			{Name: "Duration", Value: s.Derived.DurationString, Inline: true},
		},
		Thumbnail: image,
		Footer:    "Queued",
	}
}

// playLink points at the redirect endpoint that queues uri.
func (j *Jukebox) playLink(uri string) string {
	if j.opts.PlayLinkBase == "" {
		return ""
	}
	return j.opts.PlayLinkBase + "?uri=" + url.QueryEscape(uri)
}

// thumbnail returns the track artwork when it is a web URL.
func (j *Jukebox) thumbnail(ctx context.Context, uri string) string {
	image, err := j.player.Image(ctx, uri)
	if err != nil {
		log.Printf("[WARN] [Jukebox] Image lookup for %s failed: %v", uri, err)
		return ""
	}
	if strings.HasPrefix(image, "http://") || strings.HasPrefix(image, "https://") {
		return image
	}
	return ""
}

// refreshNowPlaying rewrites the notice with the live score.
func (j *Jukebox) refreshNowPlaying(ctx context.Context) {
	j.mu.Lock()
	cur, msg, image := j.current, j.nowPlaying, j.image
	j.mu.Unlock()
	if cur == nil || msg == nil {
		return
	}

	notice := j.nowPlayingNotice(*cur, j.ledger.Score(cur.URI), image)
	if err := j.chat.EditNotice(ctx, *msg, notice); err != nil {
		log.Printf("[WARN] [Jukebox] Failed to update score: %v", err)
	}
}

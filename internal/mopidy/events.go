package mopidy

import (
	"context"
	"encoding/json"
	"log"

	"github.com/keshon/beatsbot/internal/song"
)

const (
	eventOnline           = "online"
	eventPlaybackStarted  = "track_playback_started"
	eventStateChanged     = "playback_state_changed"
	eventTracklistChanged = "tracklist_changed"
)

type rawEvent struct {
	name string
	data json.RawMessage
}

// Event is one of Online, TrackStarted, TrackStopped or TracklistChanged.
type Event interface {
	isEvent()
}

// Online is sent after every (re)connect. Playing is the current track when
// the server is already playing; Upcoming is the queue after it.
type Online struct {
	Playing  *song.Track
	Upcoming []song.Track
}

type TrackStarted struct {
	Track song.Track
}

// TrackStopped carries the track that was playing, if known.
type TrackStopped struct {
	Track *song.Track
}

// TracklistChanged carries the tracks queued after the current one.
type TracklistChanged struct {
	Upcoming []song.Track
}

func (Online) isEvent()           {}
func (TrackStarted) isEvent()     {}
func (TrackStopped) isEvent()     {}
func (TracklistChanged) isEvent() {}

type playbackStarted struct {
	TLTrack struct {
		Track song.Track `json:"track"`
	} `json:"tl_track"`
}

type stateChanged struct {
	OldState string `json:"old_state"`
	NewState string `json:"new_state"`
}

// dispatch turns raw events into typed ones, querying the server where the
// event alone does not say enough.
func (c *Client) dispatch(ctx context.Context) {
	var current *song.Track
	for {
		var e rawEvent
		select {
		case e = <-c.raw:
		case <-ctx.Done():
			return
		}

		var out Event
		switch e.name {
		case eventOnline:
			online := Online{}
			if state, err := c.State(ctx); err == nil && state == StatePlaying {
				online.Playing, _ = c.CurrentTrack(ctx)
			}
			upcoming, err := c.Upcoming(ctx)
			if err != nil {
				log.Printf("[WARN] [Mopidy] Failed to read tracklist: %v", err)
			}
			online.Upcoming = upcoming
			current = online.Playing
			out = online

		case eventPlaybackStarted:
			var ev playbackStarted
			if err := json.Unmarshal(e.data, &ev); err != nil {
				log.Printf("[WARN] [Mopidy] Bad %s event: %v", e.name, err)
				continue
			}
			t := ev.TLTrack.Track
			current = &t
			out = TrackStarted{Track: t}

		case eventStateChanged:
			var ev stateChanged
			if err := json.Unmarshal(e.data, &ev); err != nil || ev.NewState != StateStopped {
				continue
			}
			out = TrackStopped{Track: current}
			current = nil

		case eventTracklistChanged:
			upcoming, err := c.Upcoming(ctx)
			if err != nil {
				log.Printf("[WARN] [Mopidy] Failed to read tracklist: %v", err)
				continue
			}
			out = TracklistChanged{Upcoming: upcoming}

		default:
			continue
		}

		select {
		case c.events <- out:
		case <-ctx.Done():
			return
		}
	}
}


package mopidy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/keshon/beatsbot/internal/song"
)

const (
	StatePlaying = "playing"
	StatePaused  = "paused"
	StateStopped = "stopped"
)

var ErrNotFound = errors.New("mopidy: track not found")

type searchResult struct {
	URI    string       `json:"uri"`
	Tracks []song.Track `json:"tracks"`
}

type image struct {
	URI string `json:"uri"`
}

// Search looks up tracks matching every word of query. A non-empty source
// ("local", "spotify", "youtube") limits the search to that backend.
func (c *Client) Search(ctx context.Context, query, source string) ([]song.Track, error) {
	params := map[string]any{
		"query": map[string][]string{"any": strings.Fields(query)},
	}
	if source != "" {
		params["uris"] = []string{source + ":"}
	}

	var results []searchResult
	if err := c.Call(ctx, "core.library.search", params, &results); err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	return results[0].Tracks, nil
}

// Lookup resolves a single uri.
func (c *Client) Lookup(ctx context.Context, uri string) (song.Track, error) {
	var results map[string][]song.Track
	if err := c.Call(ctx, "core.library.lookup", map[string]any{"uris": []string{uri}}, &results); err != nil {
		return song.Track{}, err
	}
	tracks := results[uri]
	if len(tracks) == 0 {
		return song.Track{}, fmt.Errorf("%s: %w", uri, ErrNotFound)
	}
	return tracks[0], nil
}

// Image returns the first artwork uri for the track, or "".
func (c *Client) Image(ctx context.Context, uri string) (string, error) {
	var images map[string][]image
	if err := c.Call(ctx, "core.library.get_images", map[string]any{"uris": []string{uri}}, &images); err != nil {
		return "", err
	}
	if imgs := images[uri]; len(imgs) > 0 {
		return imgs[0].URI, nil
	}
	return "", nil
}

// History returns up to limit recently played tracks, newest first.
func (c *Client) History(ctx context.Context, limit int) ([]song.Track, error) {
	var entries [][]json.RawMessage
	if err := c.Call(ctx, "core.history.get_history", nil, &entries); err != nil {
		return nil, err
	}

	var tracks []song.Track
	for _, e := range entries {
		if len(tracks) == limit {
			break
		}
		if len(e) != 2 {
			continue
		}
		var ref struct {
			URI  string `json:"uri"`
			Name string `json:"name"`
		}
		if err := json.Unmarshal(e[1], &ref); err != nil {
			continue
		}
		tracks = append(tracks, song.Track{URI: ref.URI, Name: ref.Name})
	}
	return tracks, nil
}

// Tracklist returns the whole tracklist and the index of the current track,
// -1 when nothing is current.
func (c *Client) Tracklist(ctx context.Context) ([]song.Track, int, error) {
	var tracks []song.Track
	if err := c.Call(ctx, "core.tracklist.get_tracks", nil, &tracks); err != nil {
		return nil, 0, err
	}
	var index *int
	if err := c.Call(ctx, "core.tracklist.index", map[string]any{}, &index); err != nil {
		return nil, 0, err
	}
	if index == nil {
		return tracks, -1, nil
	}
	return tracks, *index, nil
}

// Upcoming returns the tracks queued after the current one.
func (c *Client) Upcoming(ctx context.Context) ([]song.Track, error) {
	tracks, index, err := c.Tracklist(ctx)
	if err != nil {
		return nil, err
	}
	if index+1 >= len(tracks) {
		return nil, nil
	}
	return tracks[index+1:], nil
}

func (c *Client) State(ctx context.Context) (string, error) {
	var state string
	err := c.Call(ctx, "core.playback.get_state", nil, &state)
	return state, err
}

// CurrentTrack returns nil when nothing is playing.
func (c *Client) CurrentTrack(ctx context.Context) (*song.Track, error) {
	var t *song.Track
	if err := c.Call(ctx, "core.playback.get_current_track", nil, &t); err != nil {
		return nil, err
	}
	return t, nil
}

// Play queues uris. When now is set, or nothing is playing, the tracklist is
// replaced and playback starts; it reports whether that happened.
func (c *Client) Play(ctx context.Context, uris []string, now bool) (bool, error) {
	if !now {
		state, err := c.State(ctx)
		if err != nil {
			return false, err
		}
		now = state != StatePlaying
	}

	if now {
		if err := c.Call(ctx, "core.tracklist.clear", nil, nil); err != nil {
			return false, err
		}
	}
	if err := c.Call(ctx, "core.tracklist.add", map[string]any{"uris": uris}, nil); err != nil {
		return false, err
	}
	if now {
		if err := c.Call(ctx, "core.playback.play", map[string]any{}, nil); err != nil {
			return false, err
		}
	}
	return now, nil
}

// Next skips to the next track, or stops when the current one is the last.
// It reports whether playback continues.
func (c *Client) Next(ctx context.Context) (bool, error) {
	var eot *int
	if err := c.Call(ctx, "core.tracklist.get_eot_tlid", nil, &eot); err != nil {
		return false, err
	}
	if eot == nil {
		return false, c.Call(ctx, "core.playback.stop", nil, nil)
	}
	return true, c.Call(ctx, "core.playback.next", nil, nil)
}

// Stop clears repeat modes and stops playback.
func (c *Client) Stop(ctx context.Context) error {
	if err := c.setMode(ctx, false, false); err != nil {
		return err
	}
	return c.Call(ctx, "core.playback.stop", nil, nil)
}

// Repeat loops the tracklist, or only the current track when single is set.
func (c *Client) Repeat(ctx context.Context, single bool) error {
	return c.setMode(ctx, true, single)
}

func (c *Client) setMode(ctx context.Context, repeat, single bool) error {
	if err := c.Call(ctx, "core.tracklist.set_repeat", map[string]any{"value": repeat}, nil); err != nil {
		return err
	}
	return c.Call(ctx, "core.tracklist.set_single", map[string]any{"value": single}, nil)
}

package spotifysync

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/samber/lo"
	"github.com/zmb3/spotify/v2"
	"golang.org/x/oauth2"

	"github.com/keshon/beatsbot/internal/config"
	"github.com/keshon/beatsbot/pkg/retrylimit"
)

var endpoint = oauth2.Endpoint{
	AuthURL:  "https://accounts.spotify.com/authorize",
	TokenURL: "https://accounts.spotify.com/api/token",
}

// Client is a Playlist backed by the Spotify Web API.
type Client struct {
	api        *spotify.Client
	playlistID spotify.ID
}

// NewClient authenticates with the long-lived refresh token; access tokens
// are renewed by the oauth2 transport as they expire.
func NewClient(ctx context.Context, cfg config.Spotify, opts ...spotify.ClientOption) *Client {
	conf := &oauth2.Config{
		ClientID:     cfg.AppID,
		ClientSecret: cfg.AppSecret,
		Endpoint:     endpoint,
	}
	httpClient := conf.Client(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})
	return &Client{
		api:        spotify.New(httpClient, opts...),
		playlistID: spotify.ID(cfg.TopPlaylistID),
	}
}

func (c *Client) Tracks(ctx context.Context) ([]string, error) {
	page, err := c.api.GetPlaylistItems(ctx, c.playlistID, spotify.Limit(MaxTracks))
	if err != nil {
		return nil, classify(err)
	}
	return lo.FilterMap(page.Items, func(item spotify.PlaylistItem, _ int) (string, bool) {
		if item.Track.Track == nil {
			return "", false
		}
		return string(item.Track.Track.URI), true
	}), nil
}

func (c *Client) Replace(ctx context.Context, uris []string) error {
	ids := lo.Map(uris, func(uri string, _ int) spotify.ID {
		return spotify.ID(strings.TrimPrefix(uri, trackPrefix))
	})
	return classify(c.api.ReplacePlaylistTracks(ctx, c.playlistID, ids...))
}

// statusError exposes the API status to the retry classifier.
type statusError struct {
	err spotify.Error
}

func (e statusError) Error() string   { return e.err.Error() }
func (e statusError) StatusCode() int { return e.err.Status }
func (e statusError) Unwrap() error   { return e.err }

// classify gives up on client errors other than rate limiting.
func classify(err error) error {
	var apiErr spotify.Error
	if !errors.As(err, &apiErr) {
		return err
	}
	wrapped := statusError{apiErr}
	if apiErr.Status >= 400 && apiErr.Status < 500 && apiErr.Status != http.StatusTooManyRequests {
		return retrylimit.Fatal(wrapped)
	}
	return wrapped
}
